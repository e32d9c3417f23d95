package sync

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	syncdomain "github.com/alaalsalam/hisabi-backend/internal/domain/sync"
	"github.com/alaalsalam/hisabi-backend/internal/ports"
)

// RecalcDispatcher recalculates derived aggregates: given the coalesced task list a batch's
// accepted mutations produced, it recomputes each derived aggregate and
// writes the result back. All money arithmetic uses decimal.Decimal.
type RecalcDispatcher struct {
	storage ports.Storage
	clock   ports.Clock
}

func NewRecalcDispatcher(storage ports.Storage, clock ports.Clock) *RecalcDispatcher {
	return &RecalcDispatcher{storage: storage, clock: clock}
}

// Run executes every coalesced task. A failure on one task is logged by the
// caller and does not abort the others — recalc is required to be fully
// idempotent and re-runnable.
func (d *RecalcDispatcher) Run(ctx context.Context, walletID string, tasks []syncdomain.RecalcTask) []error {
	var errs []error

	for _, t := range Coalesce(tasks) {
		var err error

		switch t.Kind {
		case syncdomain.RecalcAccountBalance:
			err = d.recalcAccountBalance(ctx, walletID, t.TargetID)
		case syncdomain.RecalcBudgetSpent:
			err = d.recalcBudgetSpent(ctx, walletID, t.TargetID)
		case syncdomain.RecalcGoalProgress:
			err = d.recalcGoalProgress(ctx, walletID, t.TargetID)
		case syncdomain.RecalcDebtRemaining:
			err = d.recalcDebtRemaining(ctx, walletID, t.TargetID)
		case syncdomain.RecalcBucketAlloc:
			err = d.recalcBucketAllocations(ctx, walletID)
		}

		if err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

// persistDerived writes an entity's recalculated fields back without
// advancing doc_version — recalc is server-driven, not a client edit, so it
// must never produce a conflict against a client's next base_version. It
// still advances server_modified so a pull right after a push observes the
// new aggregate.
func (d *RecalcDispatcher) persistDerived(ctx context.Context, e *syncdomain.Entity, fields map[string]any) error {
	for k, v := range fields {
		e.Payload[k] = v
	}

	next, err := d.clock.Next(ctx, e.WalletID)
	if err != nil {
		return err
	}

	e.ServerModified = next

	return d.storage.Put(ctx, e)
}

func (d *RecalcDispatcher) recalcAccountBalance(ctx context.Context, walletID, accountID string) error {
	account, err := d.storage.Get(ctx, walletID, EntityAccount, accountID)
	if err != nil || account == nil {
		return err
	}

	opening := decimalField(account.Payload, "opening_balance")

	txns, err := d.storage.ListByType(ctx, walletID, EntityTxn)
	if err != nil {
		return err
	}

	balance := opening

	for _, txn := range txns {
		if txn.IsDeleted {
			continue
		}

		amount := decimalField(txn.Payload, "amount")

		if id, _ := stringField(txn.Payload, "account_id"); id == accountID {
			balance = balance.Add(amount)
		}

		// Dual-leg transfer: the counter account sees the mirrored leg.
		if id, _ := stringField(txn.Payload, "counter_account_id"); id == accountID {
			balance = balance.Sub(amount)
		}
	}

	return d.persistDerived(ctx, account, map[string]any{"balance": balance})
}

func (d *RecalcDispatcher) recalcBudgetSpent(ctx context.Context, walletID, categoryID string) error {
	budgets, err := d.storage.ListByType(ctx, walletID, EntityBudget)
	if err != nil {
		return err
	}

	txns, err := d.storage.ListByType(ctx, walletID, EntityTxn)
	if err != nil {
		return err
	}

	for i := range budgets {
		b := budgets[i]
		if b.IsDeleted {
			continue
		}

		bCategory, _ := stringField(b.Payload, "category_id")
		if bCategory != categoryID {
			continue
		}

		start := int64Field(b.Payload, "period_start_ms")
		end := int64Field(b.Payload, "period_end_ms")

		spent := decimal.Zero

		for _, txn := range txns {
			if txn.IsDeleted {
				continue
			}

			txnCategory, _ := stringField(txn.Payload, "category_id")
			if txnCategory != categoryID {
				continue
			}

			occurred := int64Field(txn.Payload, "occurred_at_ms")
			if occurred < start || occurred > end {
				continue
			}

			amount := decimalField(txn.Payload, "amount")
			if amount.IsNegative() {
				spent = spent.Add(amount.Abs())
			}
		}

		if err := d.persistDerived(ctx, &b, map[string]any{"spent": spent}); err != nil {
			return err
		}
	}

	return nil
}

func (d *RecalcDispatcher) recalcGoalProgress(ctx context.Context, walletID, goalID string) error {
	goal, err := d.storage.Get(ctx, walletID, EntityGoal, goalID)
	if err != nil || goal == nil {
		return err
	}

	kind, _ := stringField(goal.Payload, "kind")

	var progress decimal.Decimal

	switch kind {
	case "save":
		if accountID, ok := stringField(goal.Payload, "linked_account_id"); ok {
			account, err := d.storage.Get(ctx, walletID, EntityAccount, accountID)
			if err != nil {
				return err
			}

			if account != nil {
				progress = decimalField(account.Payload, "balance")
			}
		}
	case "pay_debt":
		if debtID, ok := stringField(goal.Payload, "linked_debt_id"); ok {
			debt, err := d.storage.Get(ctx, walletID, EntityDebt, debtID)
			if err != nil {
				return err
			}

			if debt != nil {
				principal := decimalField(debt.Payload, "principal_amount")
				remaining := decimalField(debt.Payload, "remaining_amount")
				progress = principal.Sub(remaining)
			}
		}
	}

	return d.persistDerived(ctx, goal, map[string]any{"progress_amount": progress})
}

func (d *RecalcDispatcher) recalcDebtRemaining(ctx context.Context, walletID, debtID string) error {
	debt, err := d.storage.Get(ctx, walletID, EntityDebt, debtID)
	if err != nil || debt == nil {
		return err
	}

	principal := decimalField(debt.Payload, "principal_amount")

	txns, err := d.storage.ListByType(ctx, walletID, EntityTxn)
	if err != nil {
		return err
	}

	paid := decimal.Zero

	for _, txn := range txns {
		if txn.IsDeleted {
			continue
		}

		if linkedDebt, ok := stringField(txn.Payload, "linked_debt_id"); ok && linkedDebt == debtID {
			paid = paid.Add(decimalField(txn.Payload, "amount").Abs())
		}
	}

	remaining := principal.Sub(paid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	return d.persistDerived(ctx, debt, map[string]any{
		"remaining_amount": remaining,
		"is_closed":        remaining.IsZero(),
	})
}

// recalcBucketAllocations splits what the manual rows leave of 100 across the
// auto rows by their percent. Auto rows are ordered by priority (by-account,
// then by-income-category, then global default; ties on server_modified desc
// then doc_version desc), and the rounding remainder goes to the
// highest-percent auto row, the first in that order on a tie. Auto rows are
// updated in place (allocated_amount is rewritten); they are not deleted or
// recreated. Manually-edited rows (is_auto=false) are left untouched.
func (d *RecalcDispatcher) recalcBucketAllocations(ctx context.Context, walletID string) error {
	buckets, err := d.storage.ListByType(ctx, walletID, EntityBucket)
	if err != nil {
		return err
	}

	manual := make([]syncdomain.Entity, 0, len(buckets))
	auto := make([]syncdomain.Entity, 0, len(buckets))

	for _, b := range buckets {
		if b.IsDeleted {
			continue
		}

		if isAuto, _ := b.Payload["is_auto"].(bool); isAuto {
			auto = append(auto, b)
		} else {
			manual = append(manual, b)
		}
	}

	sort.SliceStable(auto, func(i, j int) bool {
		pi, pj := bucketPriority(auto[i]), bucketPriority(auto[j])
		if pi != pj {
			return pi < pj
		}

		if auto[i].ServerModified != auto[j].ServerModified {
			return auto[i].ServerModified > auto[j].ServerModified
		}

		return auto[i].DocVersion > auto[j].DocVersion
	})

	total := decimal.Zero
	for _, m := range manual {
		total = total.Add(decimalField(m.Payload, "allocated_amount"))
	}

	remaining := decimal.NewFromInt(100).Sub(total)

	allocated := decimal.Zero
	highestPercentIdx := -1
	highestPercent := decimal.Zero

	amounts := make([]decimal.Decimal, len(auto))

	for i, b := range auto {
		percent := decimalField(b.Payload, "percent")
		amt := remaining.Mul(percent).Div(decimal.NewFromInt(100))
		amounts[i] = amt
		allocated = allocated.Add(amt)

		if percent.GreaterThan(highestPercent) {
			highestPercent = percent
			highestPercentIdx = i
		}
	}

	// Rounding remainder goes to the highest-percent line.
	if highestPercentIdx >= 0 {
		leftover := remaining.Sub(allocated)
		amounts[highestPercentIdx] = amounts[highestPercentIdx].Add(leftover)
	}

	for i, b := range auto {
		if err := d.persistDerived(ctx, &auto[i], map[string]any{"allocated_amount": amounts[i]}); err != nil {
			return err
		}
	}

	return nil
}

func bucketPriority(b syncdomain.Entity) int {
	if accountID, ok := stringField(b.Payload, "account_id"); ok && accountID != "" {
		return 0
	}

	if categoryID, ok := stringField(b.Payload, "income_category_id"); ok && categoryID != "" {
		return 1
	}

	return 2
}

func decimalField(payload map[string]any, field string) decimal.Decimal {
	v, ok := payload[field]
	if !ok {
		return decimal.Zero
	}

	switch t := v.(type) {
	case decimal.Decimal:
		return t
	case float64:
		return decimal.NewFromFloat(t)
	case int64:
		return decimal.NewFromInt(t)
	case int:
		return decimal.NewFromInt(int64(t))
	case string:
		d, err := decimal.NewFromString(t)
		if err != nil {
			return decimal.Zero
		}

		return d
	default:
		return decimal.Zero
	}
}

func int64Field(payload map[string]any, field string) int64 {
	v, err := toInt64(payload[field])
	if err != nil {
		return 0
	}

	return v
}
