package log

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey struct{}

// Middleware puts logger into every request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), logger)))
		})
	}
}

func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the request logger, or one over slog.Default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default(), base: slog.Default(), component: ComponentApp}
}

// RequestIDMiddleware tags the context logger with the request ID.
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := FromContext(r.Context())
			if id := extractRequestID(r); id != "" {
				logger = logger.With(FieldRequestID, id)
			}
			next.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), logger)))
		})
	}
}

// StructuredLogger logs recurring application events with consistent fields.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogRequestError records a request that failed inside the application.
func (sl *StructuredLogger) LogRequestError(ctx context.Context, r *http.Request, status int, kind string, err error) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path).
		WithError(err)
	fields[FieldStatusCode] = status
	fields[FieldErrorKind] = kind

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	sl.logger.Log(ctx, level, "Request failed", fields.ToSlice()...)
}

// LogJournalAppend records an event row written to the journal.
func (sl *StructuredLogger) LogJournalAppend(ctx context.Context, eventID, action, transactionID, ref string) {
	fields := NewFields().WithOperation(OpAppend)
	fields[FieldEventID] = eventID
	fields[FieldAction] = action
	fields[FieldTransactionID] = transactionID
	fields[FieldJournalRef] = ref

	sl.logger.InfoContext(ctx, "Journal row appended", fields.ToSlice()...)
}

// LogError logs err with the component and operation that produced it.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	sl.logger.WithComponent(component).ErrorContext(ctx, msg, fields.
		WithError(err).
		WithOperation(operation).
		ToSlice()...)
}
