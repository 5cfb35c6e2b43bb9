package log

import (
	"context"
	"log/slog"
	"net/http"
)

// StructuredLogger writes the records that several packages emit with the
// same shape: request completion and ledger changes.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPEnd records a finished request at a level that follows the status
// class: info below 400, warn for 4xx, error for 5xx.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent(), r.Referer()).
		WithHTTPResponse(statusCode, durationMs).
		WithClientIP(clientIP)
	sl.logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogEntryAdded(ctx context.Context, ledgerID string, entryID int64, category string, amountCents int64, count int, totalCents int64) {
	fields := NewFields().
		WithEntry(ledgerID, entryID, category, amountCents).
		WithSummary(count, totalCents).
		WithOperation(OpAdd)
	sl.logger.InfoContext(ctx, "Expense added", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogEntryRemoved(ctx context.Context, ledgerID string, entryID int64, count int, totalCents int64) {
	fields := NewFields().WithSummary(count, totalCents).WithOperation(OpRemove)
	fields[FieldLedgerID] = ledgerID
	fields[FieldEntryID] = entryID
	sl.logger.InfoContext(ctx, "Expense removed", fields.ToSlice()...)
}

// LogError records err under operation. fields may be nil.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	fields.WithError(err).WithOperation(operation)
	sl.logger.ErrorContext(ctx, msg, fields.ToSlice()...)
}
