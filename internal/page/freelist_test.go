package page_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noidkv/internal/page"
)

func TestFreelistCapacityScenarioS7(t *testing.T) {
	// Scenario S7: a 4096-byte freelist page holds 1021 page numbers.
	assert.Equal(t, 1021, page.FreelistCapacity(4096))
}

func TestFreelistRoundTrip(t *testing.T) {
	b := page.NewFreelistBuilder(4096).WithPrevious(3).WithNext(9)
	for i := page.PageNumber(1); i <= 10; i++ {
		b = b.WithPageNumber(i)
	}
	f, err := b.Build()
	require.NoError(t, err)

	raw := page.SerializeFreelist(f, 4096)
	parsed, err := page.FreelistBuilderFromBytes(4096, raw).Build()
	require.NoError(t, err)

	assert.Equal(t, page.PageNumber(3), parsed.Previous)
	assert.Equal(t, page.PageNumber(9), parsed.Next)
	require.Len(t, parsed.PageNumbers, 10)
	assert.Equal(t, page.PageNumber(10), parsed.PageNumbers[9])
}

func TestFreelistOverCapacity(t *testing.T) {
	b := page.NewFreelistBuilder(4096)
	cap := page.FreelistCapacity(4096)
	for i := 0; i <= cap; i++ {
		b = b.WithPageNumber(page.PageNumber(i + 1))
	}
	_, err := b.Build()
	require.Error(t, err)
}
