// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// Logger embeds slog.Logger so callers get the usual level methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger writes JSON to stdout. Repositories and jobs log through it.
var GlobalLogger = &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))}

type correlationKey struct{}

// GenerateCorrelationID returns a fresh random correlation ID.
func GenerateCorrelationID() string {
	return uuid.NewString()
}

// WithCorrelationID ties later log lines written with ctx to id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// ExtractCorrelationID returns the correlation ID of ctx, or "".
func ExtractCorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// RepoLogger logs writes against one table. Args are slog key/value pairs.
type RepoLogger struct {
	table  string
	logger *Logger
}

// NewRepoLogger returns a RepoLogger for table.
func NewRepoLogger(table string) *RepoLogger {
	return &RepoLogger{table: table, logger: GlobalLogger}
}

func (l *RepoLogger) attrs(ctx context.Context, operation string, args []any) []any {
	return append([]any{
		slog.String("table", l.table),
		slog.String("operation", operation),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}, args...)
}

// Created logs an inserted row.
func (l *RepoLogger) Created(ctx context.Context, args ...any) {
	l.logger.InfoContext(ctx, "row created", l.attrs(ctx, "create", args)...)
}

// Updated logs a changed row.
func (l *RepoLogger) Updated(ctx context.Context, args ...any) {
	l.logger.InfoContext(ctx, "row updated", l.attrs(ctx, "update", args)...)
}

// Deleted logs a removed row.
func (l *RepoLogger) Deleted(ctx context.Context, args ...any) {
	l.logger.InfoContext(ctx, "row deleted", l.attrs(ctx, "delete", args)...)
}

// Failed logs a query error.
func (l *RepoLogger) Failed(ctx context.Context, operation string, err error) {
	l.logger.ErrorContext(ctx, "repository error", l.attrs(ctx, operation, []any{slog.String("error", err.Error())})...)
}

func jobAttrs(ctx context.Context, job string, args []any) []any {
	return append([]any{
		slog.String("job", job),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}, args...)
}

// LogJobStart logs the start of a background job run.
func LogJobStart(ctx context.Context, job string, args ...any) {
	GlobalLogger.InfoContext(ctx, "job started", jobAttrs(ctx, job, args)...)
}

// LogJobDone logs a finished background job run.
func LogJobDone(ctx context.Context, job string, args ...any) {
	GlobalLogger.InfoContext(ctx, "job completed", jobAttrs(ctx, job, args)...)
}

// LogJobFailed logs a failed or panicked background job run.
func LogJobFailed(ctx context.Context, job string, err error, args ...any) {
	args = append(args, slog.String("error", err.Error()))
	GlobalLogger.ErrorContext(ctx, "job failed", jobAttrs(ctx, job, args)...)
}
