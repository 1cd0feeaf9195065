package telemetry

// UnknownDistinctID correlates events captured before identity
// initialization completes.
const UnknownDistinctID = "unknown"

// Degradation events. Every constant here must appear in
// docs/analytics/tracking-plan.yaml; the tracking-plan test enforces parity.
const (
	EventDefaultModelFetchFailed        = "default_model_fetch_failed"
	EventBalanceCheckFailed             = "balance_check_failed"
	EventProfileFetchFailed             = "profile_fetch_failed"
	EventOrganizationModesRefreshFailed = "organization_modes_refresh_failed"
	EventIdentityPersistFailed          = "identity_persist_failed"
)

// Shared property keys.
const (
	PropertyErrorCategory  = "error_category"
	PropertyEndpoint       = "endpoint"
	PropertyOrganizationID = "organization_id"
	PropertyMachineID      = "machine_id"
	PropertySessionID      = "session_id"
)
