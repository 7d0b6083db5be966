package idempotency

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKeyDeterministic(t *testing.T) {
	g := NewGenerator()

	first := g.GenerateKey(ScopeRefund, map[string]interface{}{
		"charge": "ch_123",
		"amount": "2000",
	})
	second := g.GenerateKey(ScopeRefund, map[string]interface{}{
		"amount": "2000",
		"charge": "ch_123",
	})

	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, "idem_"))
}

func TestGenerateKeyVariesWithParams(t *testing.T) {
	g := NewGenerator()

	base := g.GenerateKey(ScopeRefund, map[string]interface{}{"charge": "ch_123"})
	other := g.GenerateKey(ScopeRefund, map[string]interface{}{"charge": "ch_456"})
	assert.NotEqual(t, base, other)
}

func TestGenerateKeyVariesWithScope(t *testing.T) {
	g := NewGenerator()

	params := map[string]interface{}{"subscription": "sub_123"}
	assert.NotEqual(t,
		g.GenerateKey(ScopeSubscriptionUpdate, params),
		g.GenerateKey(ScopeRefund, params))
}
