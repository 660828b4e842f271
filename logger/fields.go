package logger

// Standard field names for consistent structured logging across pantry.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Compiler
	FieldUtterance = "utterance"
	FieldIntent    = "intent"
	FieldSegments  = "segments"

	// Plan and execution
	FieldEntry    = "entry"
	FieldKind     = "kind"
	FieldName     = "name"
	FieldQuantity = "quantity"
	FieldDelta    = "delta"
	FieldOutcome  = "outcome"
	FieldPolicy   = "floor_policy"

	// Counts
	FieldCount   = "count"
	FieldApplied = "applied"
	FieldFailed  = "failed"
	FieldNoMatch = "no_match"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Network
	FieldAddress  = "address"
	FieldPort     = "port"
	FieldPath     = "path"
	FieldMethod   = "method"
	FieldClientID = "client_id"

	// Storage
	FieldDBPath    = "db_path"
	FieldMigration = "migration"
)
