package sync

import (
	"context"

	cn "github.com/alaalsalam/hisabi-backend/common/constant"
	syncdomain "github.com/alaalsalam/hisabi-backend/internal/domain/sync"
	"github.com/alaalsalam/hisabi-backend/internal/ports"
)

// ScopeResolver turns a bearer token plus the request's
// device_id/wallet_id into an authorized Scope, or a stable auth error.
type ScopeResolver struct {
	auth ports.Auth
	acl  ports.WalletAcl
}

func NewScopeResolver(auth ports.Auth, acl ports.WalletAcl) *ScopeResolver {
	return &ScopeResolver{auth: auth, acl: acl}
}

// Resolve authenticates bearerToken+deviceID, then authorizes the resulting
// user against walletID. It never returns a partially-populated Scope on
// error.
func (r *ScopeResolver) Resolve(ctx context.Context, bearerToken, deviceID, walletID string) (syncdomain.Scope, error) {
	userID, err := r.auth.Resolve(ctx, bearerToken, deviceID)
	if err != nil {
		return syncdomain.Scope{}, cn.ErrUnauthorized
	}

	isMember, err := r.acl.IsMember(ctx, userID, walletID)
	if err != nil {
		return syncdomain.Scope{}, err
	}

	if !isMember {
		return syncdomain.Scope{}, cn.ErrForbidden
	}

	role, err := r.acl.Role(ctx, userID, walletID)
	if err != nil {
		return syncdomain.Scope{}, err
	}

	return syncdomain.Scope{UserID: userID, DeviceID: deviceID, WalletID: walletID, Role: role}, nil
}
