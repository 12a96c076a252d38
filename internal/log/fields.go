package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldBatchID      = "batch_id"
	FieldSource       = "source"
	FieldTotalRows    = "total_rows"
	FieldImported     = "imported_rows"
	FieldRowErrors    = "row_errors"
	FieldWarnings     = "warnings"
	FieldLine         = "line"
	FieldInsightCount = "insight_count"
	FieldWindowDays   = "window_days"
	FieldTransaction  = "transaction_id"
	FieldCategory     = "category_id"
	FieldSheetsRange  = "sheets_range"
	FieldBudget       = "budget_id"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentImport     = "import"
	ComponentInsights   = "insights"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
	ComponentSheets     = "sheets"
	ComponentCache      = "cache"
	ComponentBackend    = "backend"
	ComponentBudgets    = "budgets"
	ComponentCategories = "categories"
)

// Operations defines standard operation names
const (
	OpImport   = "import"
	OpPreview  = "preview"
	OpValidate = "validate"
	OpAnalyze  = "analyze"
	OpRefresh  = "refresh"
	OpAssign   = "assign_category"
	OpAppend   = "append"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpShutdown = "shutdown"
	OpStartup  = "startup"

	OpSaveBudget     = "save_budget"
	OpDeleteBudget   = "delete_budget"
	OpSaveCategory   = "save_category"
	OpDeleteCategory = "delete_category"
	OpListBudgets    = "list_budgets"
	OpListCategories = "list_categories"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds the error message; nil errors are skipped.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithImport adds the counters of one import batch.
func (f LogFields) WithImport(batchID string, total, imported, rowErrors, warnings int) LogFields {
	f[FieldBatchID] = batchID
	f[FieldTotalRows] = total
	f[FieldImported] = imported
	f[FieldRowErrors] = rowErrors
	f[FieldWarnings] = warnings
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
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
