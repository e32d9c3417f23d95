package sync

import (
	"context"
	"time"

	cn "github.com/alaalsalam/hisabi-backend/common/constant"
	syncdomain "github.com/alaalsalam/hisabi-backend/internal/domain/sync"
	"github.com/alaalsalam/hisabi-backend/internal/ports"
)

// rowState is the four-state machine the version controller runs over.
type rowState int

const (
	stateAbsent rowState = iota
	stateLive
	stateSoftDeleted
	stateHardGone
)

// VersionController implements optimistic version control over the
// four-state row lifecycle, one push item at a time, each its own
// transactional unit.
type VersionController struct {
	storage ports.Storage
	clock   ports.Clock
}

func NewVersionController(storage ports.Storage, clock ports.Clock) *VersionController {
	return &VersionController{storage: storage, clock: clock}
}

// Outcome is the result of applying one normalized operation.
type Outcome struct {
	Accepted *syncdomain.Entity

	// Duplicate is set instead of Accepted when a create races an existing
	// live row with the same client_id: the row is returned unchanged,
	// carrying its current version/timestamp, rather than written again.
	Duplicate *syncdomain.Entity

	// Before is the pre-mutation row, set on update so recalc hooks can
	// recompute targets the payload referenced before the edit.
	Before *syncdomain.Entity

	Conflict *syncdomain.ItemResult
	Err      error
}

// Apply runs the state machine for one item. canonicalPayload has already
// passed through the Normalizer.
func (vc *VersionController) Apply(ctx context.Context, scope syncdomain.Scope, op syncdomain.Operation, canonicalPayload map[string]any) Outcome {
	existing, err := vc.storage.Get(ctx, scope.WalletID, op.EntityType, op.EntityID)
	if err != nil {
		return Outcome{Err: err}
	}

	state := classify(existing)

	switch op.Operation {
	case syncdomain.OpCreate:
		return vc.applyCreate(ctx, scope, op, canonicalPayload, existing, state)
	case syncdomain.OpUpdate:
		return vc.applyUpdate(ctx, scope, op, canonicalPayload, existing, state)
	case syncdomain.OpDelete:
		return vc.applyDelete(ctx, scope, op, existing, state)
	default:
		return Outcome{Err: cn.ErrInvalidOperation}
	}
}

func classify(e *syncdomain.Entity) rowState {
	if e == nil {
		return stateAbsent
	}

	if e.IsDeleted {
		return stateSoftDeleted
	}

	return stateLive
}

func (vc *VersionController) applyCreate(ctx context.Context, scope syncdomain.Scope, op syncdomain.Operation, payload map[string]any, existing *syncdomain.Entity, state rowState) Outcome {
	switch state {
	case stateAbsent:
		return vc.write(ctx, scope, op.EntityType, op.EntityID, payload, nil)
	case stateLive:
		// A second device created the same entity_id independently; the
		// ledger already handles true op_id replay, so this is the
		// duplicate-client_id case. Return the existing row unchanged
		// rather than a conflict.
		return Outcome{Duplicate: existing}
	case stateSoftDeleted:
		return Outcome{Conflict: conflictResult(op, existing)}
	default:
		return vc.write(ctx, scope, op.EntityType, op.EntityID, payload, nil)
	}
}

func (vc *VersionController) applyUpdate(ctx context.Context, scope syncdomain.Scope, op syncdomain.Operation, payload map[string]any, existing *syncdomain.Entity, state rowState) Outcome {
	if state == stateAbsent {
		return Outcome{Err: cn.ErrNotFound}
	}

	if op.BaseVersion == nil || *op.BaseVersion != existing.DocVersion {
		return Outcome{Conflict: conflictResult(op, existing)}
	}

	outcome := vc.write(ctx, scope, op.EntityType, op.EntityID, payload, existing)
	if outcome.Err == nil {
		outcome.Before = existing
	}

	return outcome
}

func (vc *VersionController) applyDelete(ctx context.Context, scope syncdomain.Scope, op syncdomain.Operation, existing *syncdomain.Entity, state rowState) Outcome {
	if state == stateAbsent {
		return Outcome{Err: cn.ErrNotFound}
	}

	if state == stateSoftDeleted {
		// Deleting an already-deleted row is idempotent: return the current
		// row unchanged rather than bumping doc_version again.
		return Outcome{Accepted: existing}
	}

	if op.BaseVersion == nil || *op.BaseVersion != existing.DocVersion {
		return Outcome{Conflict: conflictResult(op, existing)}
	}

	next := *existing
	next.IsDeleted = true
	now := time.Now().UTC()
	next.DeletedAt = &now

	return vc.write(ctx, scope, op.EntityType, op.EntityID, next.Payload, existing, withDelete(&next))
}

type writeOpt func(*syncdomain.Entity)

func withDelete(pre *syncdomain.Entity) writeOpt {
	return func(e *syncdomain.Entity) {
		e.IsDeleted = pre.IsDeleted
		e.DeletedAt = pre.DeletedAt
	}
}

func (vc *VersionController) write(ctx context.Context, scope syncdomain.Scope, entityType, entityID string, payload map[string]any, existing *syncdomain.Entity, opts ...writeOpt) Outcome {
	serverModified, err := vc.clock.Next(ctx, scope.WalletID)
	if err != nil {
		return Outcome{Err: err}
	}

	e := &syncdomain.Entity{
		EntityType:      entityType,
		EntityID:        entityID,
		WalletID:        scope.WalletID,
		Payload:         payload,
		ServerModified:  serverModified,
		ClientCreatedMs: int64Of(payload["client_created_ms"]),
		ClientModMs:     int64Of(payload["client_modified_ms"]),
	}

	if existing != nil && e.ClientCreatedMs == 0 {
		e.ClientCreatedMs = existing.ClientCreatedMs
	}

	if existing == nil {
		e.DocVersion = 1
	} else {
		e.DocVersion = existing.DocVersion + 1
	}

	for _, opt := range opts {
		opt(e)
	}

	if err := vc.storage.Put(ctx, e); err != nil {
		return Outcome{Err: err}
	}

	return Outcome{Accepted: e}
}

// int64Of reads a numeric field already canonicalized by the Normalizer to
// int64, defaulting to zero for anything else.
func int64Of(v any) int64 {
	n, ok := v.(int64)
	if !ok {
		return 0
	}

	return n
}

// conflictResult builds the Conflict Reporter shape. It never mutates
// the target row — callers must not write after receiving one.
func conflictResult(op syncdomain.Operation, existing *syncdomain.Entity) *syncdomain.ItemResult {
	r := &syncdomain.ItemResult{
		OpID:              op.OpID,
		Status:            syncdomain.StatusConflict,
		EntityType:        op.EntityType,
		ClientID:          op.EntityID,
		ClientBaseVersion: op.BaseVersion,
	}

	if existing != nil {
		r.DocVersion = existing.DocVersion
		r.ServerModified = existing.ServerModified
		r.ServerDocVersion = &existing.DocVersion
		r.ServerRecord = existing.Payload
	}

	return r
}
