package sync

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cn "github.com/alaalsalam/hisabi-backend/common/constant"
	syncdomain "github.com/alaalsalam/hisabi-backend/internal/domain/sync"
)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(NewRegistry())
}

func TestNormalize_UnsupportedEntityType(t *testing.T) {
	n := newTestNormalizer()

	_, err := n.Normalize(syncdomain.Scope{WalletID: "w1"}, syncdomain.Operation{
		EntityType: "not_a_real_type",
		EntityID:   "e1",
		Operation:  syncdomain.OpCreate,
	})

	assert.ErrorIs(t, err, cn.ErrUnsupportedEntityType)
}

func TestNormalize_MissingRequiredFieldsOnCreate(t *testing.T) {
	n := newTestNormalizer()

	_, err := n.Normalize(syncdomain.Scope{WalletID: "w1"}, syncdomain.Operation{
		EntityType: EntityAccount,
		EntityID:   "a1",
		Operation:  syncdomain.OpCreate,
		Payload:    map[string]any{"name": "Checking"},
	})

	assert.ErrorIs(t, err, cn.ErrMissingRequiredFields)
}

func TestNormalize_WalletIDInjectedForNonWalletEntity(t *testing.T) {
	n := newTestNormalizer()

	out, err := n.Normalize(syncdomain.Scope{WalletID: "w1"}, syncdomain.Operation{
		EntityType: EntityAccount,
		EntityID:   "a1",
		Operation:  syncdomain.OpCreate,
		Payload:    map[string]any{"name": "Checking", "type": "bank", "currency": "USD"},
	})

	require.NoError(t, err)
	assert.Equal(t, "w1", out["wallet_id"])
}

func TestNormalize_WalletIDMismatchRejected(t *testing.T) {
	n := newTestNormalizer()

	_, err := n.Normalize(syncdomain.Scope{WalletID: "w1"}, syncdomain.Operation{
		EntityType: EntityAccount,
		EntityID:   "a1",
		Operation:  syncdomain.OpCreate,
		Payload:    map[string]any{"name": "Checking", "type": "bank", "currency": "USD", "wallet_id": "w2"},
	})

	assert.ErrorIs(t, err, cn.ErrWalletIDMismatch)
}

func TestNormalize_ClientIDMustMatchEntityID(t *testing.T) {
	n := newTestNormalizer()

	_, err := n.Normalize(syncdomain.Scope{WalletID: "w1"}, syncdomain.Operation{
		EntityType: EntityAccount,
		EntityID:   "a1",
		Operation:  syncdomain.OpCreate,
		Payload:    map[string]any{"name": "Checking", "type": "bank", "currency": "USD", "client_id": "a2"},
	})

	assert.ErrorIs(t, err, cn.ErrEntityIDMismatch)
}

func TestNormalize_DeniedFieldRejected(t *testing.T) {
	n := newTestNormalizer()

	_, err := n.Normalize(syncdomain.Scope{WalletID: "w1"}, syncdomain.Operation{
		EntityType: EntityAccount,
		EntityID:   "a1",
		Operation:  syncdomain.OpCreate,
		Payload:    map[string]any{"name": "Checking", "type": "bank", "currency": "USD", "balance": 100},
	})

	assert.ErrorIs(t, err, cn.ErrSensitiveFieldNotAllowed)
}

func TestNormalize_ServerAuthoritativeFieldIsStrippedNotRejectedOnUpdate(t *testing.T) {
	n := newTestNormalizer()

	base := int64(1)
	out, err := n.Normalize(syncdomain.Scope{WalletID: "w1"}, syncdomain.Operation{
		EntityType:  EntityGoal,
		EntityID:    "g1",
		Operation:   syncdomain.OpUpdate,
		BaseVersion: &base,
		Payload:     map[string]any{"kind": "save", "target_amount": 100},
	})

	require.NoError(t, err)
	_, present := out["progress_amount"]
	assert.False(t, present, "progress_amount is server-authoritative and must never be denied, only stripped")
}

func TestNormalize_FieldAliasRewrite(t *testing.T) {
	n := newTestNormalizer()

	out, err := n.Normalize(syncdomain.Scope{WalletID: "w1"}, syncdomain.Operation{
		EntityType: EntityAccount,
		EntityID:   "a1",
		Operation:  syncdomain.OpCreate,
		Payload:    map[string]any{"name": "Checking", "type": "bank", "currency": "USD", "note": "hello"},
	})

	require.NoError(t, err)
	assert.Equal(t, "hello", out["memo"])
	_, hasNote := out["note"]
	assert.False(t, hasNote)
}

func TestNormalize_UpdateWithoutBaseVersionRejected(t *testing.T) {
	n := newTestNormalizer()

	_, err := n.Normalize(syncdomain.Scope{WalletID: "w1"}, syncdomain.Operation{
		EntityType: EntityAccount,
		EntityID:   "a1",
		Operation:  syncdomain.OpUpdate,
		Payload:    map[string]any{"name": "Checking"},
	})

	assert.ErrorIs(t, err, cn.ErrBaseVersionRequired)
}

func TestNormalize_CreateDefaultsMissingClientCreatedMs(t *testing.T) {
	n := newTestNormalizer()

	out, err := n.Normalize(syncdomain.Scope{WalletID: "w1"}, syncdomain.Operation{
		EntityType: EntityCategory,
		EntityID:   "c1",
		Operation:  syncdomain.OpCreate,
		Payload:    map[string]any{"name": "Groceries"},
	})

	require.NoError(t, err)

	ms, ok := out["client_created_ms"].(int64)
	require.True(t, ok, "client_created_ms must be populated even when the client omits it")
	assert.Positive(t, ms)
}

func TestNormalize_EpochMsClampedNotRejected(t *testing.T) {
	n := newTestNormalizer()

	out, err := n.Normalize(syncdomain.Scope{WalletID: "w1"}, syncdomain.Operation{
		EntityType: EntityCategory,
		EntityID:   "c1",
		Operation:  syncdomain.OpCreate,
		Payload:    map[string]any{"name": "Groceries", "client_created_ms": -5},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(0), out["client_created_ms"])
}

func TestNormalize_EpochMsClampedToInt32RangeOnOverflow(t *testing.T) {
	n := newTestNormalizer()

	out, err := n.Normalize(syncdomain.Scope{WalletID: "w1"}, syncdomain.Operation{
		EntityType: EntityCategory,
		EntityID:   "c1",
		Operation:  syncdomain.OpCreate,
		Payload:    map[string]any{"name": "Groceries", "client_created_ms": int64(math.MaxInt32) + 1000},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt32), out["client_created_ms"])
}

func TestNormalize_PayloadTooLargeRejected(t *testing.T) {
	n := newTestNormalizer()

	big := make(map[string]any, 2000)
	for i := 0; i < 2000; i++ {
		big[fmt.Sprintf("field_%d", i)] = "0123456789012345678901234567890123456789"
	}

	big["name"] = "Groceries"

	_, err := n.Normalize(syncdomain.Scope{WalletID: "w1"}, syncdomain.Operation{
		EntityType: EntityCategory,
		EntityID:   "c1",
		Operation:  syncdomain.OpCreate,
		Payload:    big,
	})

	assert.ErrorIs(t, err, cn.ErrPayloadTooLarge)
}
