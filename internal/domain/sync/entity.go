package sync

import "time"

// Entity is a row in the wallet-scoped entity graph.
type Entity struct {
	EntityType      string
	EntityID        string
	WalletID        string
	DocVersion      int64
	ServerModified  int64
	ClientCreatedMs int64
	ClientModMs     int64
	IsDeleted       bool
	DeletedAt       *time.Time
	Payload         map[string]any
}

// RegistryEntry describes everything the normalizer, version controller and
// recalc dispatcher need to know about one entity_type, independent of any
// particular row. It is a static descriptor table, not runtime class
// synthesis.
type RegistryEntry struct {
	EntityType string

	// RequiredOnCreate lists payload fields that must be present (after alias
	// rewriting) for a create operation to normalize successfully.
	RequiredOnCreate []string

	// AllowedOptional lists additional fields accepted but not required.
	AllowedOptional []string

	// FieldAliases rewrites incoming field names to canonical ones before the
	// denylist, required-field and type checks run (e.g. "note" -> "memo").
	FieldAliases map[string]string

	// DeniedFields can never be set via sync, regardless of operation.
	DeniedFields []string

	// ServerAuthoritativeFields are stripped from the canonical payload
	// before it is persisted; the server alone computes their values.
	ServerAuthoritativeFields []string

	// SoftDeletable reports whether delete sets is_deleted/deleted_at instead
	// of removing the row outright. Every entity type in this spec is.
	SoftDeletable bool

	// RecalcHook, given an accepted mutation, returns the derived-aggregate
	// tasks it triggers. nil means the entity type triggers no recalc.
	RecalcHook func(m AcceptedMutation) []RecalcTask
}

// AcceptedMutation is the input a RecalcHook inspects to decide which
// recalculators must run.
type AcceptedMutation struct {
	Scope      Scope
	EntityType string
	EntityID   string
	Operation  string
	Before     *Entity // nil on create
	After      *Entity // nil on delete
}
