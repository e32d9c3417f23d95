package sync

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncdomain "github.com/alaalsalam/hisabi-backend/internal/domain/sync"
)

func seedEntity(t *testing.T, storage *fakeStorage, walletID, entityType, entityID string, payload map[string]any) {
	t.Helper()

	require.NoError(t, storage.Put(context.Background(), &syncdomain.Entity{
		WalletID: walletID, EntityType: entityType, EntityID: entityID, DocVersion: 1, Payload: payload,
	}))
}

func TestRecalcDispatcher_AccountBalanceIncludesDualLegTransfer(t *testing.T) {
	storage := newFakeStorage()
	d := NewRecalcDispatcher(storage, newFakeClock())
	ctx := context.Background()

	seedEntity(t, storage, "w1", EntityAccount, "checking", map[string]any{"opening_balance": "100"})
	seedEntity(t, storage, "w1", EntityAccount, "savings", map[string]any{"opening_balance": "0"})
	seedEntity(t, storage, "w1", EntityTxn, "t1", map[string]any{
		"account_id": "checking", "counter_account_id": "savings", "amount": "-25", "occurred_at_ms": int64(1),
	})

	errs := d.Run(ctx, "w1", []syncdomain.RecalcTask{
		{Kind: syncdomain.RecalcAccountBalance, WalletID: "w1", TargetID: "checking"},
		{Kind: syncdomain.RecalcAccountBalance, WalletID: "w1", TargetID: "savings"},
	})
	require.Empty(t, errs)

	checking, err := storage.Get(ctx, "w1", EntityAccount, "checking")
	require.NoError(t, err)
	assert.True(t, decimalField(checking.Payload, "balance").Equal(decimal.NewFromInt(75)))

	savings, err := storage.Get(ctx, "w1", EntityAccount, "savings")
	require.NoError(t, err)
	assert.True(t, decimalField(savings.Payload, "balance").Equal(decimal.NewFromInt(25)), "the counter account must see the mirrored leg")
}

func TestRecalcDispatcher_AccountBalanceExcludesDeletedTransactions(t *testing.T) {
	storage := newFakeStorage()
	d := NewRecalcDispatcher(storage, newFakeClock())
	ctx := context.Background()

	seedEntity(t, storage, "w1", EntityAccount, "checking", map[string]any{"opening_balance": "0"})
	require.NoError(t, storage.Put(ctx, &syncdomain.Entity{
		WalletID: "w1", EntityType: EntityTxn, EntityID: "t1", DocVersion: 1, IsDeleted: true,
		Payload: map[string]any{"account_id": "checking", "amount": "500", "occurred_at_ms": int64(1)},
	}))

	errs := d.Run(ctx, "w1", []syncdomain.RecalcTask{{Kind: syncdomain.RecalcAccountBalance, WalletID: "w1", TargetID: "checking"}})
	require.Empty(t, errs)

	checking, err := storage.Get(ctx, "w1", EntityAccount, "checking")
	require.NoError(t, err)
	assert.True(t, decimalField(checking.Payload, "balance").IsZero())
}

func TestRecalcDispatcher_BudgetSpentOnlyCountsNegativeAmountsWithinPeriod(t *testing.T) {
	storage := newFakeStorage()
	d := NewRecalcDispatcher(storage, newFakeClock())
	ctx := context.Background()

	seedEntity(t, storage, "w1", EntityBudget, "b1", map[string]any{
		"category_id": "groceries", "period_start_ms": int64(100), "period_end_ms": int64(200), "limit_amount": "500",
	})
	seedEntity(t, storage, "w1", EntityTxn, "t1", map[string]any{"category_id": "groceries", "amount": "-50", "occurred_at_ms": int64(150)})
	seedEntity(t, storage, "w1", EntityTxn, "t2", map[string]any{"category_id": "groceries", "amount": "-30", "occurred_at_ms": int64(999)})
	seedEntity(t, storage, "w1", EntityTxn, "t3", map[string]any{"category_id": "groceries", "amount": "200", "occurred_at_ms": int64(150)})

	errs := d.Run(ctx, "w1", []syncdomain.RecalcTask{{Kind: syncdomain.RecalcBudgetSpent, WalletID: "w1", TargetID: "groceries"}})
	require.Empty(t, errs)

	b, err := storage.Get(ctx, "w1", EntityBudget, "b1")
	require.NoError(t, err)
	assert.True(t, decimalField(b.Payload, "spent").Equal(decimal.NewFromInt(50)))
}

func TestRecalcDispatcher_DebtRemainingNeverGoesNegative(t *testing.T) {
	storage := newFakeStorage()
	d := NewRecalcDispatcher(storage, newFakeClock())
	ctx := context.Background()

	seedEntity(t, storage, "w1", EntityDebt, "d1", map[string]any{"principal_amount": "100"})
	seedEntity(t, storage, "w1", EntityTxn, "t1", map[string]any{"linked_debt_id": "d1", "amount": "-150", "occurred_at_ms": int64(1)})

	errs := d.Run(ctx, "w1", []syncdomain.RecalcTask{{Kind: syncdomain.RecalcDebtRemaining, WalletID: "w1", TargetID: "d1"}})
	require.Empty(t, errs)

	debt, err := storage.Get(ctx, "w1", EntityDebt, "d1")
	require.NoError(t, err)
	assert.True(t, decimalField(debt.Payload, "remaining_amount").IsZero())
	assert.Equal(t, true, debt.Payload["is_closed"])
}

func TestRecalcDispatcher_GoalProgressTracksLinkedAccountBalance(t *testing.T) {
	storage := newFakeStorage()
	d := NewRecalcDispatcher(storage, newFakeClock())
	ctx := context.Background()

	seedEntity(t, storage, "w1", EntityAccount, "a1", map[string]any{"opening_balance": "0", "balance": "300"})
	seedEntity(t, storage, "w1", EntityGoal, "g1", map[string]any{"kind": "save", "target_amount": "1000", "linked_account_id": "a1"})

	errs := d.Run(ctx, "w1", []syncdomain.RecalcTask{{Kind: syncdomain.RecalcGoalProgress, WalletID: "w1", TargetID: "g1"}})
	require.Empty(t, errs)

	goal, err := storage.Get(ctx, "w1", EntityGoal, "g1")
	require.NoError(t, err)
	assert.True(t, decimalField(goal.Payload, "progress_amount").Equal(decimal.NewFromInt(300)))
}

func TestRecalcDispatcher_BucketAllocationSkipsManualRowsAndSplitsRemainderByPriority(t *testing.T) {
	storage := newFakeStorage()
	d := NewRecalcDispatcher(storage, newFakeClock())
	ctx := context.Background()

	seedEntity(t, storage, "w1", EntityBucket, "manual1", map[string]any{"is_auto": false, "allocated_amount": "20"})
	seedEntity(t, storage, "w1", EntityBucket, "byaccount", map[string]any{"is_auto": true, "account_id": "a1", "percent": "50"})
	seedEntity(t, storage, "w1", EntityBucket, "default", map[string]any{"is_auto": true, "percent": "50"})

	errs := d.Run(ctx, "w1", []syncdomain.RecalcTask{{Kind: syncdomain.RecalcBucketAlloc, WalletID: "w1", TargetID: "ignored"}})
	require.Empty(t, errs)

	manual, err := storage.Get(ctx, "w1", EntityBucket, "manual1")
	require.NoError(t, err)
	assert.True(t, decimalField(manual.Payload, "allocated_amount").Equal(decimal.NewFromInt(20)), "manual rows must never be touched by recalc")

	byAccount, err := storage.Get(ctx, "w1", EntityBucket, "byaccount")
	require.NoError(t, err)
	def, err := storage.Get(ctx, "w1", EntityBucket, "default")
	require.NoError(t, err)

	// remaining = 100 - 20 = 80, split 50/50 between the two auto rows = 40 each.
	total := decimalField(byAccount.Payload, "allocated_amount").Add(decimalField(def.Payload, "allocated_amount"))
	assert.True(t, total.Equal(decimal.NewFromInt(80)))
}

func TestRecalcDispatcher_RunIsIdempotent(t *testing.T) {
	storage := newFakeStorage()
	d := NewRecalcDispatcher(storage, newFakeClock())
	ctx := context.Background()

	seedEntity(t, storage, "w1", EntityAccount, "checking", map[string]any{"opening_balance": "10"})

	task := []syncdomain.RecalcTask{{Kind: syncdomain.RecalcAccountBalance, WalletID: "w1", TargetID: "checking"}}
	require.Empty(t, d.Run(ctx, "w1", task))
	require.Empty(t, d.Run(ctx, "w1", task))

	checking, err := storage.Get(ctx, "w1", EntityAccount, "checking")
	require.NoError(t, err)
	assert.True(t, decimalField(checking.Payload, "balance").Equal(decimal.NewFromInt(10)), "re-running recalc must converge, not accumulate")
}

func TestCoalesce_DedupesByKindAndTarget(t *testing.T) {
	tasks := []syncdomain.RecalcTask{
		{Kind: syncdomain.RecalcAccountBalance, TargetID: "a1"},
		{Kind: syncdomain.RecalcAccountBalance, TargetID: "a1"},
		{Kind: syncdomain.RecalcAccountBalance, TargetID: "a2"},
	}

	out := Coalesce(tasks)
	assert.Len(t, out, 2)
}
