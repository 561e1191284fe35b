package opentelemetry

import (
	"context"
	"fmt"

	"github.com/coderi421/rapper/orm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/coderi421/rapper/orm/middlewares/opentelemetry"

type MiddlewareBuilder struct {
	Tracer trace.Tracer
}

func (m *MiddlewareBuilder) Build() orm.Middleware {
	if m.Tracer == nil {
		m.Tracer = otel.GetTracerProvider().Tracer(instrumentationName)
	}
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			// span name 例如 SELECT-Logs
			ctx, span := m.Tracer.Start(ctx, fmt.Sprintf("%s-%s", qc.Type, qc.Table),
				trace.WithSpanKind(trace.SpanKindClient))
			defer span.End()

			span.SetAttributes(
				attribute.String("query.id", qc.ID),
				attribute.String("db.operation", qc.Type),
				attribute.String("db.sql.table", qc.Table),
			)
			if qc.Builder != nil {
				if st, err := qc.Builder.Build(); err == nil {
					span.SetAttributes(attribute.String("db.statement", st.SQL))
				}
			}

			res := next(ctx, qc)
			if res.Err != nil {
				span.RecordError(res.Err)
				span.SetStatus(codes.Error, res.Err.Error())
			}
			return res
		}
	}
}
