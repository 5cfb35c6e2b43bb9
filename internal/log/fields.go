package log

import (
	"maps"
	"slices"
)

// Attribute keys shared by every component.
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldClientIP  = "client_ip"
	FieldError     = "error"
	FieldOperation = "operation"

	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldReferer    = "referer"
	FieldSuccess    = "success"

	FieldLedgerID    = "ledger_id"
	FieldEntryID     = "entry_id"
	FieldCategory    = "category"
	FieldAmountCents = "amount_cents"
	FieldCount       = "count"
	FieldTotalCents  = "total_cents"
	FieldLedgers     = "ledgers"
)

// Component names, set once per logger through WithComponent.
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentLedger   = "ledger"
	ComponentStore    = "store"
	ComponentAMQP     = "amqp"
	ComponentCache    = "cache"
	ComponentSecurity = "security"
	ComponentBackend  = "backend"
	ComponentTemplate = "template"
	ComponentTUI      = "tui"
)

// Operation names for FieldOperation.
const (
	OpCreate    = "create"
	OpList      = "list"
	OpAdd       = "add"
	OpRemove    = "remove"
	OpRecompute = "recompute"
	OpFormat    = "format"
	OpRender    = "render"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// LogFields collects attributes before a single log call.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithClientIP(ip string) LogFields {
	if ip != "" {
		f[FieldClientIP] = ip
	}
	return f
}

// WithError records err's message. A nil error adds nothing.
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

// WithEntry describes one ledger entry.
func (f LogFields) WithEntry(ledgerID string, entryID int64, category string, amountCents int64) LogFields {
	f[FieldLedgerID] = ledgerID
	f[FieldEntryID] = entryID
	f[FieldCategory] = category
	f[FieldAmountCents] = amountCents
	return f
}

// WithSummary records the count and total a change left behind.
func (f LogFields) WithSummary(count int, totalCents int64) LogFields {
	f[FieldCount] = count
	f[FieldTotalCents] = totalCents
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	f[FieldUserAgent] = userAgent
	if referer != "" {
		f[FieldReferer] = referer
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice flattens the fields into slog key/value pairs, sorted by key so
// records read the same from one call to the next.
func (f LogFields) ToSlice() []any {
	out := make([]any, 0, len(f)*2)
	for _, k := range slices.Sorted(maps.Keys(f)) {
		out = append(out, k, f[k])
	}
	return out
}
