package sync

import (
	syncdomain "github.com/alaalsalam/hisabi-backend/internal/domain/sync"
)

// The six RecalcHook implementations below return the coalescing-key task
// list the recalc hooks describe; the actual aggregate recomputation runs in
// RecalcDispatcher.Run against Storage, after all hooks for a batch have
// been collected and deduplicated.

func recalcAccountMutation(m syncdomain.AcceptedMutation) []syncdomain.RecalcTask {
	return []syncdomain.RecalcTask{{Kind: syncdomain.RecalcAccountBalance, WalletID: m.Scope.WalletID, TargetID: m.EntityID}}
}

func recalcTransactionMutation(m syncdomain.AcceptedMutation) []syncdomain.RecalcTask {
	var tasks []syncdomain.RecalcTask

	payload := payloadOf(m)
	if accountID, ok := stringField(payload, "account_id"); ok {
		tasks = append(tasks, syncdomain.RecalcTask{Kind: syncdomain.RecalcAccountBalance, WalletID: m.Scope.WalletID, TargetID: accountID})
	}

	if counterID, ok := stringField(payload, "counter_account_id"); ok {
		tasks = append(tasks, syncdomain.RecalcTask{Kind: syncdomain.RecalcAccountBalance, WalletID: m.Scope.WalletID, TargetID: counterID})
	}

	if categoryID, ok := stringField(payload, "category_id"); ok {
		tasks = append(tasks, syncdomain.RecalcTask{Kind: syncdomain.RecalcBudgetSpent, WalletID: m.Scope.WalletID, TargetID: categoryID})
		tasks = append(tasks, syncdomain.RecalcTask{Kind: syncdomain.RecalcBucketAlloc, WalletID: m.Scope.WalletID, TargetID: categoryID})
	}

	// Before-state payload may reference a different account/category if the
	// transaction was edited; recalc both old and new targets.
	if m.Before != nil {
		if accountID, ok := stringField(m.Before.Payload, "account_id"); ok {
			tasks = append(tasks, syncdomain.RecalcTask{Kind: syncdomain.RecalcAccountBalance, WalletID: m.Scope.WalletID, TargetID: accountID})
		}

		if categoryID, ok := stringField(m.Before.Payload, "category_id"); ok {
			tasks = append(tasks, syncdomain.RecalcTask{Kind: syncdomain.RecalcBudgetSpent, WalletID: m.Scope.WalletID, TargetID: categoryID})
		}
	}

	return tasks
}

func recalcBudgetMutation(m syncdomain.AcceptedMutation) []syncdomain.RecalcTask {
	return []syncdomain.RecalcTask{{Kind: syncdomain.RecalcBudgetSpent, WalletID: m.Scope.WalletID, TargetID: m.EntityID}}
}

func recalcGoalMutation(m syncdomain.AcceptedMutation) []syncdomain.RecalcTask {
	return []syncdomain.RecalcTask{{Kind: syncdomain.RecalcGoalProgress, WalletID: m.Scope.WalletID, TargetID: m.EntityID}}
}

func recalcDebtMutation(m syncdomain.AcceptedMutation) []syncdomain.RecalcTask {
	tasks := []syncdomain.RecalcTask{{Kind: syncdomain.RecalcDebtRemaining, WalletID: m.Scope.WalletID, TargetID: m.EntityID}}

	payload := payloadOf(m)
	if _, linked := stringField(payload, "linked_debt_id"); linked {
		tasks = append(tasks, syncdomain.RecalcTask{Kind: syncdomain.RecalcGoalProgress, WalletID: m.Scope.WalletID, TargetID: m.EntityID})
	}

	return tasks
}

func recalcBucketMutation(m syncdomain.AcceptedMutation) []syncdomain.RecalcTask {
	return []syncdomain.RecalcTask{{Kind: syncdomain.RecalcBucketAlloc, WalletID: m.Scope.WalletID, TargetID: m.EntityID}}
}

func payloadOf(m syncdomain.AcceptedMutation) map[string]any {
	if m.After != nil {
		return m.After.Payload
	}

	if m.Before != nil {
		return m.Before.Payload
	}

	return nil
}

func stringField(payload map[string]any, field string) (string, bool) {
	if payload == nil {
		return "", false
	}

	v, ok := payload[field]
	if !ok {
		return "", false
	}

	s, ok := v.(string)

	return s, ok && s != ""
}

// Coalesce dedup-merges tasks by (Kind, TargetID) within a batch, preserving
// first-seen order.
func Coalesce(tasks []syncdomain.RecalcTask) []syncdomain.RecalcTask {
	seen := make(map[[2]string]bool, len(tasks))

	out := make([]syncdomain.RecalcTask, 0, len(tasks))

	for _, t := range tasks {
		key := [2]string{t.Kind, t.TargetID}
		if seen[key] {
			continue
		}

		seen[key] = true

		out = append(out, t)
	}

	return out
}
