package obs

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PGXTracer implements pgx.QueryTracer, naming spans after the sqlc query.
type PGXTracer struct{}

// TraceQueryStart starts a span for the SQL statement.
func (PGXTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	name, op := describeSQL(data.SQL)
	ctx, _ = Tracer("db").Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", op),
			attribute.String("db.statement", truncateSQL(data.SQL)),
		),
	)
	return ctx
}

// TraceQueryEnd ends the span and records any error.
func (PGXTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span := trace.SpanFromContext(ctx)
	if data.Err != nil && data.Err != pgx.ErrNoRows {
		span.RecordError(data.Err)
		span.SetStatus(codes.Error, "query failed")
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", data.CommandTag.RowsAffected()))
	span.End()
}

// describeSQL reads the "-- name: X :one" marker sqlc prepends to every query.
func describeSQL(sql string) (name, op string) {
	trimmed := strings.TrimSpace(sql)
	name = "pgx.query"
	if strings.HasPrefix(trimmed, "-- name:") {
		header, rest, _ := strings.Cut(trimmed, "\n")
		if fields := strings.Fields(strings.TrimPrefix(header, "-- name:")); len(fields) > 0 {
			name = "db." + fields[0]
		}
		trimmed = strings.TrimSpace(rest)
	}
	if fields := strings.Fields(trimmed); len(fields) > 0 {
		op = strings.ToUpper(fields[0])
	}
	return name, op
}

func truncateSQL(sql string) string {
	trimmed := strings.TrimSpace(sql)
	if len(trimmed) > 300 {
		return trimmed[:300] + "..."
	}
	return trimmed
}
