package kvuuid

import (
	stdmd5 "crypto/md5"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMD5Vectors pins scenario S6: known MD5 test vectors.
func TestMD5Vectors(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"The quick brown fox jumps over the lazy dog", "9e107d9d372bb6826bd81d3542a419d6"},
		{"", "d41d8cd98f00b204e9800998ecf8427e"},
	}
	for _, c := range cases {
		sum := Sum([]byte(c.input))
		require.Equal(t, c.want, hex.EncodeToString(sum[:]))
	}
}

// TestMD5AgainstStdlib cross-validates the hand-rolled block transform
// against crypto/md5 across a battery of lengths spanning multiple
// 64-byte block boundaries.
func TestMD5AgainstStdlib(t *testing.T) {
	inputs := []string{
		"a", "ab", "abc", "message digest",
		"abcdefghijklmnopqrstuvwxyz",
		"ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789",
		string(make([]byte, 55)),
		string(make([]byte, 56)),
		string(make([]byte, 63)),
		string(make([]byte, 64)),
		string(make([]byte, 65)),
		string(make([]byte, 200)),
	}
	for _, in := range inputs {
		got := Sum([]byte(in))
		want := stdmd5.Sum([]byte(in))
		assert.Equal(t, want, got, "input length %d", len(in))
	}
}
