package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Additional-Code/depot/internal/access"
)

func TestDescriptors(t *testing.T) {
	tests := []struct {
		kind   Kind
		policy access.Policy
		patch  bool
	}{
		{Orders, access.AdminOnly, false},
		{Retailers, access.Authenticated, true},
		{Suppliers, access.Authenticated, false},
		{Concessions, access.AuthenticatedOrReadOnly, true},
		{Memos, access.AuthenticatedOrReadOnly, true},
		{ManualOrders, access.AuthenticatedOrReadOnly, true},
	}

	assert.Len(t, All(), len(tests))
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			d, ok := Lookup(tt.kind)
			assert.True(t, ok)
			assert.Equal(t, tt.policy, d.Policy)
			assert.Equal(t, tt.patch, d.Patch)
			assert.Contains(t, d.Relations, "Owner")
			assert.Contains(t, d.Immutable, "owner_id")
			assert.NotEmpty(t, d.OrderBy)
		})
	}

	assert.Equal(t, "/manual/", MustLookup(ManualOrders).Path())
	assert.Contains(t, MustLookup(Orders).Immutable, "received")
	assert.Panics(t, func() { MustLookup("users") })
}
