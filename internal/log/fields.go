package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRunID       = "run_id"
	FieldState       = "state"
	FieldStep        = "step"
	FieldStatus      = "status"
	FieldReason      = "reason"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldURL         = "url"
	FieldFrame       = "frame"
	FieldAutoRun     = "auto_run"
	FieldDuration    = "duration_ms"
	FieldScheme      = "scheme"
	FieldExecutable  = "executable"
	FieldExpenseDesc = "expense_description"
	FieldAmount      = "amount"
	FieldCategory    = "category"
)

// Components defines standard component names
const (
	ComponentBot       = "bot"
	ComponentClipboard = "clipboard"
	ComponentBrowser   = "browser"
	ComponentForm      = "form"
	ComponentProtocol  = "protocol"
)

// Operations defines standard operation names
const (
	OpRead     = "read"
	OpParse    = "parse"
	OpLaunch   = "launch"
	OpLogin    = "login"
	OpNavigate = "navigate"
	OpFill     = "fill"
	OpRegister = "register"
	OpShutdown = "shutdown"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithRunID adds the run correlation id
func (f LogFields) WithRunID(runID string) LogFields {
	f[FieldRunID] = runID
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithStep adds step outcome fields
func (f LogFields) WithStep(step, status, reason string) LogFields {
	f[FieldStep] = step
	f[FieldStatus] = status
	if reason != "" {
		f[FieldReason] = reason
	}
	return f
}

// WithExpense adds expense-related fields
func (f LogFields) WithExpense(desc, amount, category string) LogFields {
	f[FieldExpenseDesc] = desc
	f[FieldAmount] = amount
	f[FieldCategory] = category
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
