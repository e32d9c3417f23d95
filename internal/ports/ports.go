// Package ports declares the interfaces this service depends on but does not
// own the implementation of — authentication/device-token issuance and
// wallet-membership lookups are explicitly out of scope per the sync
// engine's own collaborator interfaces.
package ports

import (
	"context"

	syncdomain "github.com/alaalsalam/hisabi-backend/internal/domain/sync"
)

// Auth resolves a bearer token and device_id to an authenticated user+device
// pair. Implementations may be backed by an external identity provider; the
// push/pull flow only resolves tokens and never issues or revokes them.
type Auth interface {
	Resolve(ctx context.Context, bearerToken, deviceID string) (userID string, err error)
}

// WalletAcl answers wallet-membership questions used to authorize a resolved
// user against a requested wallet_id.
type WalletAcl interface {
	IsMember(ctx context.Context, userID, walletID string) (bool, error)
	Role(ctx context.Context, userID, walletID string) (string, error)
}

// Storage is the row-level persistence collaborator for entity rows: get and
// put (an unconditional upsert; the Version Controller checks versions and
// sets the soft-delete flags before calling Put), plus the cursor range
// scan used by the Delta Producer and the by-type scan the Recalc Dispatcher
// uses to gather the rows an aggregate depends on.
type Storage interface {
	Get(ctx context.Context, walletID, entityType, entityID string) (*syncdomain.Entity, error)
	Put(ctx context.Context, e *syncdomain.Entity) error
	ScanSince(ctx context.Context, walletID string, sinceServerModified int64, limit int) ([]syncdomain.Entity, error)
	ListByType(ctx context.Context, walletID, entityType string) ([]syncdomain.Entity, error)
}

// Ledger is the operation-ledger collaborator: idempotency lookup/record.
type Ledger interface {
	Lookup(ctx context.Context, userID, deviceID, opID string) (*syncdomain.LedgerRow, error)
	Record(ctx context.Context, row syncdomain.LedgerRow) error
}

// Clock allocates strictly monotonic server_modified values, one sequence
// per wallet, and reports the current value without advancing it.
type Clock interface {
	Next(ctx context.Context, walletID string) (int64, error)
	Now(ctx context.Context, walletID string) (int64, error)
}

// EventPublisher fans out a "mutation accepted" notification after a push
// item reaches a terminal state. Best-effort: a publish failure never rolls
// back the mutation it describes.
type EventPublisher interface {
	PublishMutation(ctx context.Context, scope syncdomain.Scope, result syncdomain.ItemResult) error
}
