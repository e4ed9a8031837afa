package kvengine_test

import (
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noidkv/internal/kverrors"
	"noidkv/internal/kvengine"
	"noidkv/internal/page"
	"noidkv/internal/vfs"
)

func openMemDatabase(t *testing.T, fs afero.Fs, path string) *kvengine.Database {
	t.Helper()
	f, err := vfs.Open(fs, path)
	require.NoError(t, err)
	db, err := kvengine.Open(f, nil)
	require.NoError(t, err)
	return db
}

func fixedKey(n int) []byte {
	k := make([]byte, 16)
	k[0], k[1] = byte(n>>8), byte(n)
	return k
}

func TestCreateAndOpenTreeRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	db := openMemDatabase(t, fs, "/db")

	tr, err := db.CreateTree("users", page.TreeTypeTable)
	require.NoError(t, err)
	assert.Equal(t, page.TreeTypeTable, tr.Type())

	for i := 0; i < 50; i++ {
		_, err := tr.Insert(fixedKey(i), []byte(fmt.Sprintf("value-%d", i)))
		require.NoError(t, err)
	}

	opened, err := db.OpenTree("users")
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		v, found, err := opened.Get(fixedKey(i))
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, fmt.Sprintf("value-%d", i), string(v))
	}
}

func TestCreateTreeRejectsDuplicateName(t *testing.T) {
	fs := afero.NewMemMapFs()
	db := openMemDatabase(t, fs, "/db")

	_, err := db.CreateTree("users", page.TreeTypeTable)
	require.NoError(t, err)

	_, err = db.CreateTree("users", page.TreeTypeTable)
	require.Error(t, err)
	assert.True(t, kverrors.Is(err, kverrors.InvalidArgument))
}

func TestOpenTreeUnknownNameNotFound(t *testing.T) {
	fs := afero.NewMemMapFs()
	db := openMemDatabase(t, fs, "/db")

	_, err := db.OpenTree("ghost")
	require.Error(t, err)
	assert.True(t, kverrors.Is(err, kverrors.NotFound))
}

func TestMultipleTreesAreIndependent(t *testing.T) {
	fs := afero.NewMemMapFs()
	db := openMemDatabase(t, fs, "/db")

	users, err := db.CreateTree("users", page.TreeTypeTable)
	require.NoError(t, err)
	byEmail, err := db.CreateTree("users_by_email", page.TreeTypeIndex)
	require.NoError(t, err)
	assert.Equal(t, page.TreeTypeIndex, byEmail.Type())

	_, err = users.Insert(fixedKey(1), []byte("alice"))
	require.NoError(t, err)
	_, err = byEmail.Insert(fixedKey(2), []byte("alice@example.com"))
	require.NoError(t, err)

	_, found, err := users.Get(fixedKey(2))
	require.NoError(t, err)
	assert.False(t, found, "users tree must not see users_by_email's keys")

	v, found, err := byEmail.Get(fixedKey(2))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "alice@example.com", string(v))
}

func TestDatabaseSurvivesReopen(t *testing.T) {
	fs := afero.NewMemMapFs()

	f1, err := vfs.Open(fs, "/db")
	require.NoError(t, err)
	db1, err := kvengine.Open(f1, nil)
	require.NoError(t, err)

	tr1, err := db1.CreateTree("users", page.TreeTypeTable)
	require.NoError(t, err)
	for i := 0; i < 30; i++ {
		_, err := tr1.Insert(fixedKey(i), []byte(fmt.Sprintf("v%d", i)))
		require.NoError(t, err)
	}
	require.NoError(t, f1.Sync())

	f2, err := vfs.Open(fs, "/db")
	require.NoError(t, err)
	db2, err := kvengine.Open(f2, nil)
	require.NoError(t, err)

	tr2, err := db2.OpenTree("users")
	require.NoError(t, err)
	for i := 0; i < 30; i++ {
		v, found, err := tr2.Get(fixedKey(i))
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, fmt.Sprintf("v%d", i), string(v))
	}
}

func TestDeleteRemovesKey(t *testing.T) {
	fs := afero.NewMemMapFs()
	db := openMemDatabase(t, fs, "/db")

	tr, err := db.CreateTree("users", page.TreeTypeTable)
	require.NoError(t, err)
	_, err = tr.Insert(fixedKey(1), []byte("alice"))
	require.NoError(t, err)

	removed, old, err := tr.Delete(fixedKey(1))
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, "alice", string(old))

	_, found, err := tr.Get(fixedKey(1))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRangeScanOrdersKeys(t *testing.T) {
	fs := afero.NewMemMapFs()
	db := openMemDatabase(t, fs, "/db")

	tr, err := db.CreateTree("users", page.TreeTypeTable)
	require.NoError(t, err)
	for i := 20; i >= 0; i-- {
		_, err := tr.Insert(fixedKey(i), []byte(fmt.Sprintf("v%d", i)))
		require.NoError(t, err)
	}

	cur, err := tr.Range(fixedKey(5), fixedKey(10))
	require.NoError(t, err)

	var got []int
	for cur.Next() {
		got = append(got, int(cur.Key()[0])<<8|int(cur.Key()[1]))
	}
	require.NoError(t, cur.Err())
	assert.Equal(t, []int{5, 6, 7, 8, 9, 10}, got)
}
