package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reservize/billing/internal/types"
)

func TestStampRoundTrip(t *testing.T) {
	asOf := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	metadata := Stamp(7, asOf)

	assert.Equal(t, "7", metadata[MetadataActiveQuantityKey])

	entry, ok := Read(metadata)
	require.True(t, ok)
	assert.Equal(t, int64(7), entry.Quantity)
	assert.Equal(t, asOf, entry.AsOf)
}

func TestReadMissingStamp(t *testing.T) {
	_, ok := Read(nil)
	assert.False(t, ok)

	_, ok = Read(types.Metadata{"unrelated": "value"})
	assert.False(t, ok)
}

func TestReadMalformedQuantity(t *testing.T) {
	_, ok := Read(types.Metadata{MetadataActiveQuantityKey: "not-a-number"})
	assert.False(t, ok)
}

func TestReadQuantityWithoutTimestamp(t *testing.T) {
	entry, ok := Read(types.Metadata{MetadataActiveQuantityKey: "3"})
	require.True(t, ok)
	assert.Equal(t, int64(3), entry.Quantity)
	assert.True(t, entry.AsOf.IsZero())
}

func TestStampOverwritesPrior(t *testing.T) {
	first := Stamp(5, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	second := Stamp(3, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))

	merged := first.Merge(second)
	entry, ok := Read(merged)
	require.True(t, ok)
	assert.Equal(t, int64(3), entry.Quantity)
}
