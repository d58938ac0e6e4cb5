package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
)

func docFor(role domain.Role) domain.PermissionDocument {
	return domain.PermissionDocument{
		Role: role,
		Resources: map[string]domain.ResourcePermission{
			"users": {Actions: []string{"view"}},
		},
	}
}

func TestPolicyCacheHitWithinTTL(t *testing.T) {
	c := NewPolicyCache(5 * time.Minute)
	c.Put(domain.RoleAdmin, docFor(domain.RoleAdmin))

	doc, ok := c.Get(domain.RoleAdmin)
	require.True(t, ok)
	require.Equal(t, domain.RoleAdmin, doc.Role)

	_, ok = c.Get(domain.RoleCustomer)
	require.False(t, ok)
}

func TestPolicyCacheExpiresAsAWhole(t *testing.T) {
	now := time.Now()
	c := NewPolicyCache(5 * time.Minute)
	c.now = func() time.Time { return now }

	c.Put(domain.RoleAdmin, docFor(domain.RoleAdmin))

	// A later insert must not refresh the shared timestamp: the snapshot's
	// validity is anchored to its oldest entry.
	now = now.Add(4 * time.Minute)
	c.Put(domain.RoleSupport, docFor(domain.RoleSupport))

	now = now.Add(90 * time.Second)
	_, ok := c.Get(domain.RoleAdmin)
	require.False(t, ok, "snapshot older than TTL must miss")
	_, ok = c.Get(domain.RoleSupport)
	require.False(t, ok, "freshly inserted entry expires with the snapshot")
}

func TestPolicyCacheJustInsideTTL(t *testing.T) {
	now := time.Now()
	c := NewPolicyCache(5 * time.Minute)
	c.now = func() time.Time { return now }

	c.Put(domain.RoleAdmin, docFor(domain.RoleAdmin))

	now = now.Add(5*time.Minute - time.Second)
	_, ok := c.Get(domain.RoleAdmin)
	require.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok = c.Get(domain.RoleAdmin)
	require.False(t, ok)
}

func TestPolicyCacheInvalidate(t *testing.T) {
	now := time.Now()
	c := NewPolicyCache(5 * time.Minute)
	c.now = func() time.Time { return now }

	c.Put(domain.RoleAdmin, docFor(domain.RoleAdmin))
	c.Invalidate()

	_, ok := c.Get(domain.RoleAdmin)
	require.False(t, ok)

	// The next insert opens a fresh TTL window.
	now = now.Add(10 * time.Minute)
	c.Put(domain.RoleAdmin, docFor(domain.RoleAdmin))
	_, ok = c.Get(domain.RoleAdmin)
	require.True(t, ok)
}

func TestPolicyCacheEmptyIsInvalid(t *testing.T) {
	c := NewPolicyCache(5 * time.Minute)
	_, ok := c.Get(domain.RoleAdmin)
	require.False(t, ok)
}
