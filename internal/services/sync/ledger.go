package sync

import (
	"context"

	syncdomain "github.com/alaalsalam/hisabi-backend/internal/domain/sync"
	"github.com/alaalsalam/hisabi-backend/internal/ports"
)

// OperationLedger records a per-operation idempotency lookup before mutation, and
// recording after every terminal outcome, including errors.
type OperationLedger struct {
	ledger ports.Ledger
}

func NewOperationLedger(ledger ports.Ledger) *OperationLedger {
	return &OperationLedger{ledger: ledger}
}

// Lookup returns the previous terminal result for (user, device, op_id), or
// nil if this op_id has not been seen from this device before.
func (l *OperationLedger) Lookup(ctx context.Context, scope syncdomain.Scope, opID string) (*syncdomain.LedgerRow, error) {
	return l.ledger.Lookup(ctx, scope.UserID, scope.DeviceID, opID)
}

// Record persists the terminal outcome. A unique-constraint collision (two
// concurrent requests racing the same op_id) means another writer already
// recorded the authoritative result; Record treats that as success and lets
// the caller's subsequent Lookup surface it.
func (l *OperationLedger) Record(ctx context.Context, scope syncdomain.Scope, row syncdomain.LedgerRow) error {
	row.UserID = scope.UserID
	row.DeviceID = scope.DeviceID

	return l.ledger.Record(ctx, row)
}

// ToItemResult converts a stored ledger row back into the wire shape
// returned for a duplicate (replayed) op_id.
func ToItemResult(opID string, row syncdomain.LedgerRow) syncdomain.ItemResult {
	r := syncdomain.ItemResult{
		OpID:         opID,
		Status:       syncdomain.StatusDuplicate,
		EntityType:   row.EntityType,
		ClientID:     row.ClientID,
		ErrorCode:    row.ErrorCode,
		ErrorMessage: row.ErrorMessage,
	}

	if row.DocVersion != nil {
		r.DocVersion = *row.DocVersion
	}

	if row.ServerModified != nil {
		r.ServerModified = *row.ServerModified
	}

	if row.Status == syncdomain.StatusError {
		r.Status = syncdomain.StatusError
	}

	if row.Status == syncdomain.StatusConflict {
		r.Status = syncdomain.StatusConflict
		r.ServerRecord = row.ServerRecord
	}

	return r
}
