package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/alaalsalam/hisabi-backend/common"
	cn "github.com/alaalsalam/hisabi-backend/common/constant"
	syncdomain "github.com/alaalsalam/hisabi-backend/internal/domain/sync"
	"github.com/alaalsalam/hisabi-backend/internal/ports"
)

// maxPushItems is the request-level batch size ceiling a push call enforces.
const maxPushItems = 200

// PushRequest is the decoded push envelope.
type PushRequest struct {
	DeviceID string                 `json:"device_id"`
	WalletID string                 `json:"wallet_id"`
	Items    []syncdomain.Operation `json:"items"`
}

// PushResponse is the wire shape of a push reply's message field.
type PushResponse struct {
	Results    []syncdomain.ItemResult `json:"results"`
	ServerTime int64                   `json:"server_time"`
}

// PushOrchestrator runs the push side of the sync protocol: request-level
// validation, then per item Ledger(dedupe) -> Normalizer ->
// VersionController -> Ledger(store), then one coalesced Recalc pass over the
// whole batch, with item failures isolated from one another so one bad item
// never fails the whole batch.
type PushOrchestrator struct {
	registry   *Registry
	normalizer *Normalizer
	versions   *VersionController
	ledger     *OperationLedger
	recalc     *RecalcDispatcher
	events     ports.EventPublisher
	clock      ports.Clock
}

func NewPushOrchestrator(registry *Registry, normalizer *Normalizer, versions *VersionController, ledger *OperationLedger, recalc *RecalcDispatcher, events ports.EventPublisher, clock ports.Clock) *PushOrchestrator {
	return &PushOrchestrator{
		registry:   registry,
		normalizer: normalizer,
		versions:   versions,
		ledger:     ledger,
		recalc:     recalc,
		events:     events,
		clock:      clock,
	}
}

// ValidateRequest runs the whole-batch checks that reject the entire request
// before any item is touched.
func (p *PushOrchestrator) ValidateRequest(req PushRequest) error {
	if req.DeviceID == "" {
		return fmt.Errorf("%w: device_id", cn.ErrBadRequest)
	}

	if req.WalletID == "" {
		return fmt.Errorf("%w: wallet_id", cn.ErrBadRequest)
	}

	if len(req.Items) == 0 {
		return fmt.Errorf("%w: items must be a non-empty list", cn.ErrBadRequest)
	}

	if len(req.Items) > maxPushItems {
		return fmt.Errorf("%w: items exceeds the %d-item batch limit", cn.ErrBadRequest, maxPushItems)
	}

	for _, item := range req.Items {
		if item.EntityType != "" && !p.registry.Contains(item.EntityType) {
			return fmt.Errorf("%w: %s", cn.ErrUnsupportedEntityType, item.EntityType)
		}
	}

	return nil
}

// Run processes every item in order and returns the result list in the same
// order as the input, plus the server's current time.
func (p *PushOrchestrator) Run(ctx context.Context, scope syncdomain.Scope, items []syncdomain.Operation) PushResponse {
	logger := common.NewLoggerFromContext(ctx)

	results := make([]syncdomain.ItemResult, 0, len(items))

	var batchTasks []syncdomain.RecalcTask

	for _, op := range items {
		result, tasks := p.applyOne(ctx, scope, op)
		results = append(results, result)
		batchTasks = append(batchTasks, tasks...)

		if p.events != nil {
			if err := p.events.PublishMutation(ctx, scope, result); err != nil {
				logger.Warnf("mutation event publish failed for op_id=%s: %v", op.OpID, err)
			}
		}
	}

	if len(batchTasks) > 0 {
		if errs := p.recalc.Run(ctx, scope.WalletID, batchTasks); len(errs) > 0 {
			for _, err := range errs {
				logger.Errorf("recalc task failed: %v", err)
			}
		}
	}

	serverTime, err := p.clock.Now(ctx, scope.WalletID)
	if err != nil {
		serverTime = 0
	}

	return PushResponse{Results: results, ServerTime: serverTime}
}

func (p *PushOrchestrator) applyOne(ctx context.Context, scope syncdomain.Scope, op syncdomain.Operation) (syncdomain.ItemResult, []syncdomain.RecalcTask) {
	if existing, err := p.ledger.Lookup(ctx, scope, op.OpID); err == nil && existing != nil {
		return ToItemResult(op.OpID, *existing), nil
	}

	canonical, err := p.normalizer.Normalize(scope, op)
	if err != nil {
		return p.recordError(ctx, scope, op, err), nil
	}

	outcome := p.versions.Apply(ctx, scope, op, canonical)

	switch {
	case outcome.Err != nil:
		return p.recordError(ctx, scope, op, outcome.Err), nil
	case outcome.Duplicate != nil:
		result := syncdomain.ItemResult{
			OpID:           op.OpID,
			Status:         syncdomain.StatusDuplicate,
			EntityType:     op.EntityType,
			ClientID:       op.EntityID,
			DocVersion:     outcome.Duplicate.DocVersion,
			ServerModified: outcome.Duplicate.ServerModified,
		}

		_ = p.ledger.Record(ctx, scope, syncdomain.LedgerRow{
			OpID:           op.OpID,
			Status:         syncdomain.StatusDuplicate,
			EntityType:     op.EntityType,
			ClientID:       op.EntityID,
			DocVersion:     &outcome.Duplicate.DocVersion,
			ServerModified: &outcome.Duplicate.ServerModified,
		})

		return result, nil
	case outcome.Conflict != nil:
		outcome.Conflict.OpID = op.OpID
		_ = p.ledger.Record(ctx, scope, syncdomain.LedgerRow{
			OpID:           op.OpID,
			Status:         syncdomain.StatusConflict,
			EntityType:     op.EntityType,
			ClientID:       op.EntityID,
			DocVersion:     outcome.Conflict.ServerDocVersion,
			ServerModified: &outcome.Conflict.ServerModified,
			ServerRecord:   outcome.Conflict.ServerRecord,
		})

		return *outcome.Conflict, nil
	default:
		result := syncdomain.ItemResult{
			OpID:           op.OpID,
			Status:         syncdomain.StatusAccepted,
			EntityType:     op.EntityType,
			ClientID:       op.EntityID,
			DocVersion:     outcome.Accepted.DocVersion,
			ServerModified: outcome.Accepted.ServerModified,
		}

		_ = p.ledger.Record(ctx, scope, syncdomain.LedgerRow{
			OpID:           op.OpID,
			Status:         syncdomain.StatusAccepted,
			EntityType:     op.EntityType,
			ClientID:       op.EntityID,
			DocVersion:     &outcome.Accepted.DocVersion,
			ServerModified: &outcome.Accepted.ServerModified,
		})

		var tasks []syncdomain.RecalcTask

		if entry, ok := p.registry.Lookup(op.EntityType); ok && entry.RecalcHook != nil {
			tasks = entry.RecalcHook(syncdomain.AcceptedMutation{
				Scope:      scope,
				EntityType: op.EntityType,
				EntityID:   op.EntityID,
				Operation:  op.Operation,
				Before:     outcome.Before,
				After:      outcome.Accepted,
			})
		}

		return result, tasks
	}
}

func (p *PushOrchestrator) recordError(ctx context.Context, scope syncdomain.Scope, op syncdomain.Operation, err error) syncdomain.ItemResult {
	code := underlyingCode(err)

	result := syncdomain.ItemResult{
		OpID:         op.OpID,
		Status:       syncdomain.StatusError,
		EntityType:   op.EntityType,
		ClientID:     op.EntityID,
		ErrorCode:    code,
		ErrorMessage: err.Error(),
	}

	_ = p.ledger.Record(ctx, scope, syncdomain.LedgerRow{
		OpID:         op.OpID,
		Status:       syncdomain.StatusError,
		EntityType:   op.EntityType,
		ClientID:     op.EntityID,
		ErrorCode:    code,
		ErrorMessage: err.Error(),
	})

	return result
}

// underlyingCode extracts the stable item error_code from a sentinel-wrapped
// error produced by the normalizer or version controller.
func underlyingCode(err error) string {
	for _, sentinel := range []error{
		cn.ErrEntityTypeRequired, cn.ErrUnsupportedEntityType, cn.ErrInvalidOperation,
		cn.ErrEntityIDRequired, cn.ErrEntityIDMismatch, cn.ErrInvalidClientID,
		cn.ErrPayloadMustBeObject, cn.ErrWalletIDMismatch, cn.ErrWalletIDMustEqualClientID,
		cn.ErrSensitiveFieldNotAllowed, cn.ErrMissingRequiredFields, cn.ErrInvalidFieldType,
		cn.ErrBaseVersionRequired, cn.ErrBaseVersionInvalid, cn.ErrNotFound,
		cn.ErrPayloadTooLarge, cn.ErrInvalidCursor, cn.ErrConflict,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}

	return cn.ErrInternal.Error()
}
