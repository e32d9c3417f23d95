package sync

import syncdomain "github.com/alaalsalam/hisabi-backend/internal/domain/sync"

// EntityType constants for every registered entity type; all but wallet and
// category drive a recalc hook. Additional entity types can register without touching the
// push/pull orchestrators.
const (
	EntityWallet   = "wallet"
	EntityAccount  = "account"
	EntityTxn      = "transaction"
	EntityBudget   = "budget"
	EntityGoal     = "goal"
	EntityDebt     = "debt"
	EntityBucket   = "bucket"
	EntityCategory = "category"
)

// Registry is the static descriptor table the Payload Normalizer, Version
// Controller and Recalc Dispatcher all consult by entity_type.
type Registry struct {
	entries map[string]syncdomain.RegistryEntry
}

// NewRegistry builds the registry wired to this service's six recalculators.
func NewRegistry() *Registry {
	r := &Registry{entries: map[string]syncdomain.RegistryEntry{}}

	r.register(syncdomain.RegistryEntry{
		EntityType:                EntityWallet,
		RequiredOnCreate:          []string{"name"},
		AllowedOptional:           []string{"currency", "icon"},
		DeniedFields:              []string{"owner_id"},
		ServerAuthoritativeFields: nil,
		SoftDeletable:             true,
	})

	r.register(syncdomain.RegistryEntry{
		EntityType:                EntityAccount,
		RequiredOnCreate:          []string{"name", "type", "currency"},
		AllowedOptional:           []string{"opening_balance", "icon", "color", "is_archived", "metadata"},
		FieldAliases:              map[string]string{"note": "memo"},
		DeniedFields:              []string{"balance"},
		ServerAuthoritativeFields: []string{"balance"},
		SoftDeletable:             true,
		RecalcHook:                recalcAccountMutation,
	})

	r.register(syncdomain.RegistryEntry{
		EntityType:                EntityTxn,
		RequiredOnCreate:          []string{"account_id", "amount", "occurred_at_ms"},
		AllowedOptional:           []string{"category_id", "counter_account_id", "note", "metadata"},
		DeniedFields:              nil,
		ServerAuthoritativeFields: nil,
		SoftDeletable:             true,
		RecalcHook:                recalcTransactionMutation,
	})

	r.register(syncdomain.RegistryEntry{
		EntityType:                EntityBudget,
		RequiredOnCreate:          []string{"category_id", "period_start_ms", "period_end_ms", "limit_amount"},
		AllowedOptional:           []string{"metadata"},
		DeniedFields:              []string{"spent"},
		ServerAuthoritativeFields: []string{"spent"},
		SoftDeletable:             true,
		RecalcHook:                recalcBudgetMutation,
	})

	r.register(syncdomain.RegistryEntry{
		EntityType:                EntityGoal,
		RequiredOnCreate:          []string{"kind", "target_amount"},
		AllowedOptional:           []string{"linked_account_id", "linked_debt_id", "metadata"},
		DeniedFields:              []string{"progress_amount"},
		ServerAuthoritativeFields: []string{"progress_amount"},
		SoftDeletable:             true,
		RecalcHook:                recalcGoalMutation,
	})

	r.register(syncdomain.RegistryEntry{
		EntityType:                EntityDebt,
		RequiredOnCreate:          []string{"principal_amount"},
		AllowedOptional:           []string{"name", "metadata"},
		DeniedFields:              []string{"remaining_amount", "is_closed"},
		ServerAuthoritativeFields: []string{"remaining_amount", "is_closed"},
		SoftDeletable:             true,
		RecalcHook:                recalcDebtMutation,
	})

	r.register(syncdomain.RegistryEntry{
		EntityType:                EntityBucket,
		RequiredOnCreate:          []string{"name"},
		AllowedOptional:           []string{"account_id", "income_category_id", "percent", "is_auto", "metadata"},
		DeniedFields:              []string{"allocated_amount"},
		ServerAuthoritativeFields: []string{"allocated_amount"},
		SoftDeletable:             true,
		RecalcHook:                recalcBucketMutation,
	})

	r.register(syncdomain.RegistryEntry{
		EntityType:       EntityCategory,
		RequiredOnCreate: []string{"name"},
		AllowedOptional:  []string{"icon", "color", "parent_id"},
		SoftDeletable:    true,
	})

	return r
}

func (r *Registry) register(e syncdomain.RegistryEntry) {
	r.entries[e.EntityType] = e
}

// Lookup returns the descriptor for entityType, or false if unregistered.
func (r *Registry) Lookup(entityType string) (syncdomain.RegistryEntry, bool) {
	e, ok := r.entries[entityType]
	return e, ok
}

// Contains reports whether entityType is declared in the registry, used by
// the push orchestrator's request-level entity_type allowlist pre-scan.
func (r *Registry) Contains(entityType string) bool {
	_, ok := r.entries[entityType]
	return ok
}
