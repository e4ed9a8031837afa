package page_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noidkv/internal/page"
)

func TestOverflowRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte{0x42}, 100)
	o, err := page.NewOverflowBuilder(4096).WithData(data).WithNextOverflowPage(5).Build()
	require.NoError(t, err)

	raw := page.SerializeOverflow(o, 4096)
	parsed, err := page.OverflowBuilderFromBytes(4096, raw).Build()
	require.NoError(t, err)

	assert.Equal(t, data, parsed.Data)
	assert.Equal(t, page.PageNumber(5), parsed.NextOverflowPage)
}

func TestOverflowDataTooLarge(t *testing.T) {
	_, err := page.NewOverflowBuilder(512).WithData(make([]byte, 1000)).Build()
	require.Error(t, err)
}

func TestOverflowZeroLengthRejected(t *testing.T) {
	_, err := page.NewOverflowBuilder(4096).Build()
	require.Error(t, err)
}

func TestOverflowLastChunkHasNullNext(t *testing.T) {
	o, err := page.NewOverflowBuilder(4096).WithData([]byte("tail")).Build()
	require.NoError(t, err)
	assert.True(t, o.NextOverflowPage.IsNull())
}
