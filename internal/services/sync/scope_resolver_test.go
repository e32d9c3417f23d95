package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cn "github.com/alaalsalam/hisabi-backend/common/constant"
)

func TestScopeResolver_ResolvesMemberToScope(t *testing.T) {
	auth := newFakeAuth()
	auth.issue("tok1", "user1", "dev1")

	acl := newFakeAcl()
	acl.add("user1", "wallet1", "owner")

	r := NewScopeResolver(auth, acl)

	scope, err := r.Resolve(context.Background(), "tok1", "dev1", "wallet1")
	require.NoError(t, err)
	assert.Equal(t, "user1", scope.UserID)
	assert.Equal(t, "dev1", scope.DeviceID)
	assert.Equal(t, "wallet1", scope.WalletID)
	assert.Equal(t, "owner", scope.Role)
}

func TestScopeResolver_UnknownTokenIsUnauthorized(t *testing.T) {
	r := NewScopeResolver(newFakeAuth(), newFakeAcl())

	_, err := r.Resolve(context.Background(), "bad-token", "dev1", "wallet1")
	assert.ErrorIs(t, err, cn.ErrUnauthorized)
}

func TestScopeResolver_TokenBoundToDifferentDeviceIsUnauthorized(t *testing.T) {
	auth := newFakeAuth()
	auth.issue("tok1", "user1", "dev1")

	r := NewScopeResolver(auth, newFakeAcl())

	_, err := r.Resolve(context.Background(), "tok1", "dev2", "wallet1")
	assert.ErrorIs(t, err, cn.ErrUnauthorized)
}

func TestScopeResolver_NonMemberIsForbidden(t *testing.T) {
	auth := newFakeAuth()
	auth.issue("tok1", "user1", "dev1")

	r := NewScopeResolver(auth, newFakeAcl())

	_, err := r.Resolve(context.Background(), "tok1", "dev1", "someone-elses-wallet")
	assert.ErrorIs(t, err, cn.ErrForbidden)
}

func TestScopeResolver_NeverReturnsPartialScopeOnError(t *testing.T) {
	r := NewScopeResolver(newFakeAuth(), newFakeAcl())

	scope, err := r.Resolve(context.Background(), "bad-token", "dev1", "wallet1")
	require.Error(t, err)
	assert.Empty(t, scope.UserID)
	assert.Empty(t, scope.WalletID)
}
