package sync

// Scope is the resolved identity and authorization context for a request,
// threaded explicitly through every layer instead of living on ambient
// request state.
type Scope struct {
	UserID   string
	DeviceID string
	WalletID string
	Role     string
}
