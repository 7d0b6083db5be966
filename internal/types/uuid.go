package types

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	UUID_PREFIX_REQUEST        = "req"
	UUID_PREFIX_RECONCILIATION = "recon"
)

// GenerateUUID returns a lowercase ULID. ULIDs are lexicographically sortable
// by creation time which keeps provider dashboards and logs scannable.
func GenerateUUID() string {
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now().UTC()), ulid.DefaultEntropy()).String())
}

// GenerateUUIDWithPrefix returns a ULID prefixed with the entity type.
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return prefix + "_" + GenerateUUID()
}
