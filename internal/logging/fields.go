package logging

const (
	// FieldComponent names the package or subsystem emitting the record.
	FieldComponent = "component"
	// FieldEventType is a stable machine-readable identifier for the event.
	FieldEventType = "event_type"
	// FieldErrorHint tells the reader what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldSessionID identifies one backend run.
	FieldSessionID = "session_id"
	FieldPID       = "pid"
	FieldPath      = "path"
)
