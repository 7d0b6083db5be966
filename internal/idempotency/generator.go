package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Scope namespaces idempotency keys by the provider mutation they protect.
type Scope string

const (
	ScopeSubscriptionUpdate Scope = "subscription_update"
	ScopeRefund             Scope = "refund"
)

// Generator derives deterministic idempotency keys for provider mutations so
// that transport-level retries of the same logical call are deduplicated by
// the provider.
type Generator interface {
	GenerateKey(scope Scope, params map[string]interface{}) string
}

type generator struct{}

func NewGenerator() Generator {
	return &generator{}
}

// GenerateKey hashes the scope plus the sorted parameter set. Two calls with
// identical scope and params always produce the same key.
func (g *generator) GenerateKey(scope Scope, params map[string]interface{}) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(string(scope))
	for _, k := range keys {
		sb.WriteString("|")
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(fmt.Sprintf("%v", params[k]))
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return "idem_" + hex.EncodeToString(sum[:16])
}
