package ledger

import (
	"strconv"
	"time"

	"github.com/reservize/billing/internal/types"
)

// Metadata keys stamped onto the provider subscription. The names are part of
// the persisted surface; changing them orphans every existing stamp.
const (
	MetadataActiveQuantityKey  = "activeQuantity"
	MetadataActiveTimestampKey = "activeTimestamp"
)

// Entry is the active-quantity bookkeeping value: the number of secondary
// units the tenant is entitled to use, and when that entitlement was last
// computed.
type Entry struct {
	Quantity int64
	AsOf     time.Time
}

// Stamp encodes an entry as provider metadata. It is written on every
// quantity change and overwrites any prior stamp.
func Stamp(quantity int64, asOf time.Time) types.Metadata {
	return types.Metadata{
		MetadataActiveQuantityKey:  strconv.FormatInt(quantity, 10),
		MetadataActiveTimestampKey: strconv.FormatInt(asOf.Unix(), 10),
	}
}

// Read parses a persisted stamp back. Subscriptions created before the ledger
// existed have no stamp; those read as zero with ok=false and the caller
// bootstraps from billed quantity.
func Read(metadata types.Metadata) (Entry, bool) {
	if metadata == nil {
		return Entry{}, false
	}

	rawQuantity, hasQuantity := metadata[MetadataActiveQuantityKey]
	if !hasQuantity {
		return Entry{}, false
	}
	quantity, err := strconv.ParseInt(rawQuantity, 10, 64)
	if err != nil {
		return Entry{}, false
	}

	entry := Entry{Quantity: quantity}
	if rawTimestamp, ok := metadata[MetadataActiveTimestampKey]; ok {
		if ts, err := strconv.ParseInt(rawTimestamp, 10, 64); err == nil {
			entry.AsOf = time.Unix(ts, 0).UTC()
		}
	}
	return entry, true
}
