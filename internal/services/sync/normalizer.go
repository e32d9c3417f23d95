package sync

import (
	"fmt"
	"math"
	"time"

	"github.com/alaalsalam/hisabi-backend/common"
	cn "github.com/alaalsalam/hisabi-backend/common/constant"
	syncdomain "github.com/alaalsalam/hisabi-backend/internal/domain/sync"
)

// maxPayloadBytes caps a single item's canonical payload, applied to the
// whole payload object rather than individual keys.
const maxPayloadBytes = 32 * 1024

// maxMetadataFieldBytes caps each individual metadata key/value.
const maxMetadataFieldBytes = 512

// epochMsClampMax is the largest value client_created_ms/client_modified_ms
// may hold; the epoch ms clamping rule clamps larger values to it (the top
// of the int32 range).
const epochMsClampMax = int64(math.MaxInt32)

// Normalizer implements the Entity Registry & Payload Normalizer: the
// fourteen ordered rules that turn a raw client payload into a canonical one
// or reject it with a stable error code.
type Normalizer struct {
	registry *Registry
}

func NewNormalizer(registry *Registry) *Normalizer {
	return &Normalizer{registry: registry}
}

// Normalize runs the ordered rule set and returns the canonical payload, or
// an error produced by common.ValidateBusinessError's sentinel set.
func (n *Normalizer) Normalize(scope syncdomain.Scope, op syncdomain.Operation) (map[string]any, error) {
	// 1. entity type known
	entry, ok := n.registry.Lookup(op.EntityType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", cn.ErrUnsupportedEntityType, op.EntityType)
	}

	// 2. operation valid
	switch op.Operation {
	case syncdomain.OpCreate, syncdomain.OpUpdate, syncdomain.OpDelete:
	default:
		return nil, fmt.Errorf("%w: %s", cn.ErrInvalidOperation, op.Operation)
	}

	// 3. entity_id present
	if op.EntityID == "" {
		return nil, cn.ErrEntityIDRequired
	}

	raw := op.Payload
	if raw == nil {
		raw = map[string]any{}
	}

	// 4. payload is an object handled implicitly by Go's map[string]any type;
	// guard against a client_id type mismatch instead.
	clientID, hasClientID := raw["client_id"]
	if hasClientID {
		clientIDStr, isStr := clientID.(string)
		if !isStr || clientIDStr == "" {
			return nil, cn.ErrInvalidClientID
		}

		// entity_id must equal payload.client_id when both are present.
		if clientIDStr != op.EntityID {
			return nil, cn.ErrEntityIDMismatch
		}
	}

	out := make(map[string]any, len(raw)+2)
	for k, v := range raw {
		out[k] = v
	}

	out["client_id"] = op.EntityID

	// 5. wallet_id consistency / injection
	if walletRaw, present := out["wallet_id"]; present {
		walletStr, _ := walletRaw.(string)
		if op.EntityType == EntityWallet {
			if walletStr != op.EntityID {
				return nil, cn.ErrWalletIDMustEqualClientID
			}
		} else if walletStr != scope.WalletID {
			return nil, cn.ErrWalletIDMismatch
		}
	} else if op.EntityType == EntityWallet {
		out["wallet_id"] = op.EntityID
	} else {
		out["wallet_id"] = scope.WalletID
	}

	// 6. alias rewriting
	for from, to := range entry.FieldAliases {
		if v, present := out[from]; present {
			if _, alreadySet := out[to]; !alreadySet {
				out[to] = v
			}

			delete(out, from)
		}
	}

	// 7. denylist rejection
	for _, denied := range entry.DeniedFields {
		if _, present := out[denied]; present {
			return nil, fmt.Errorf("%w: %s", cn.ErrSensitiveFieldNotAllowed, denied)
		}
	}

	// 8. required-fields-on-create
	if op.Operation == syncdomain.OpCreate {
		var missing []string

		for _, field := range entry.RequiredOnCreate {
			v, present := out[field]
			if !present || v == nil {
				missing = append(missing, field)
				continue
			}

			if s, isStr := v.(string); isStr && common.IsNilOrEmpty(&s) {
				missing = append(missing, field)
			}
		}

		if len(missing) > 0 {
			return nil, fmt.Errorf("%w: %v", cn.ErrMissingRequiredFields, missing)
		}
	}

	// 9. field type checks — numeric fields must decode as numbers.
	for _, field := range []string{"amount", "limit_amount", "target_amount", "principal_amount", "opening_balance", "percent"} {
		if v, present := out[field]; present {
			switch v.(type) {
			case float64, int, int64:
			default:
				return nil, fmt.Errorf("%w: %s", cn.ErrInvalidFieldType, field)
			}
		}
	}

	// 10. server-authoritative field stripping
	for _, field := range entry.ServerAuthoritativeFields {
		delete(out, field)
	}

	// 11. datetime canonicalization — *_ms fields pass through as int64.
	for _, field := range []string{"occurred_at_ms", "period_start_ms", "period_end_ms"} {
		if v, present := out[field]; present {
			ms, err := toInt64(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", cn.ErrInvalidFieldType, field)
			}

			out[field] = ms
		}
	}

	// 12. JSON field parsing — metadata must be an object if present.
	if v, present := out["metadata"]; present && v != nil {
		meta, isMap := v.(map[string]any)
		if !isMap {
			return nil, fmt.Errorf("%w: metadata", cn.ErrInvalidFieldType)
		}

		if err := common.CheckMetadataKeyAndValueLength(maxMetadataFieldBytes, meta); err != nil {
			return nil, err
		}
	}

	// 13. payload size cap
	if approxSize(out) > maxPayloadBytes {
		return nil, cn.ErrPayloadTooLarge
	}

	// a create that omits client_created_ms falls back to the server's own
	// receipt time rather than being rejected as missing.
	if op.Operation == syncdomain.OpCreate {
		if v, present := out["client_created_ms"]; !present || v == nil {
			out["client_created_ms"] = nowMs()
		}
	}

	// 14. epoch ms clamping
	for _, field := range []string{"client_created_ms", "client_modified_ms"} {
		if v, present := out[field]; present {
			ms, err := toInt64(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", cn.ErrInvalidFieldType, field)
			}

			if ms < 0 {
				ms = 0
			}

			if ms > epochMsClampMax {
				ms = epochMsClampMax
			}

			out[field] = ms
		}
	}

	if op.Operation != syncdomain.OpCreate && op.BaseVersion == nil {
		return nil, cn.ErrBaseVersionRequired
	}

	if op.BaseVersion != nil && *op.BaseVersion < 0 {
		return nil, cn.ErrBaseVersionInvalid
	}

	return out, nil
}

func toInt64(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case float64:
		return int64(t), nil
	default:
		return 0, fmt.Errorf("not numeric")
	}
}

// approxSize is a cheap upper-bound estimator used for the payload size cap;
// it avoids a json.Marshal round trip on every item.
func approxSize(m map[string]any) int {
	n := 2
	for k, v := range m {
		n += len(k) + 4
		switch t := v.(type) {
		case string:
			n += len(t)
		case map[string]any:
			n += approxSize(t)
		default:
			n += 16
		}
	}

	return n
}

// nowMs is used only as a fallback when a create omits client_created_ms.
func nowMs() int64 {
	return time.Now().UnixMilli()
}
