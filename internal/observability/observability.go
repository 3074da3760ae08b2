// Package observability wires a prometheus metrics registry and an
// OpenTelemetry tracer around the middleware pipeline (spec.md §5, §9;
// SPEC_FULL.md's domain stack), grounded on the teacher's
// internal/observability (NewContextMetricsWithRegisterer, labeled
// gauge/counter vectors) and the rest of the retrieval pack's tracer
// wiring around request spans.
package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"taskgrid/internal/apperrors"
	"taskgrid/internal/middleware"
	"taskgrid/internal/taskcontext"
)

// Metrics collects the task-execution counters named in SPEC_FULL.md's
// domain stack: a task duration histogram, a fan-out handler counter, and
// a session pool size gauge.
type Metrics struct {
	taskDuration    *prometheus.HistogramVec
	fanOutHandlers  *prometheus.CounterVec
	sessionPoolSize prometheus.Gauge
}

// NewMetrics registers against the default prometheus registerer.
func NewMetrics() *Metrics { return NewMetricsWithRegisterer(prometheus.DefaultRegisterer) }

// NewMetricsWithRegisterer registers against reg, letting tests use an
// isolated prometheus.NewRegistry() the way the teacher's tests do.
func NewMetricsWithRegisterer(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskgrid_task_duration_seconds",
			Help:    "Task execution duration in seconds, by method and result status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
		fanOutHandlers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskgrid_fanout_handlers_total",
			Help: "Handlers invoked per task-entry fan-out.",
		}, []string{"task_id"}),
		sessionPoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taskgrid_session_pool_size",
			Help: "Current number of sessions held in the pool.",
		}),
	}
	reg.MustRegister(m.taskDuration, m.fanOutHandlers, m.sessionPoolSize)
	return m
}

// RecordTaskDuration observes one task's wall-clock execution time.
func (m *Metrics) RecordTaskDuration(method, status string, seconds float64) {
	m.taskDuration.WithLabelValues(method, status).Observe(seconds)
}

// RecordFanOut adds handlerCount to the counter for taskID.
func (m *Metrics) RecordFanOut(taskID string, handlerCount int) {
	m.fanOutHandlers.WithLabelValues(taskID).Add(float64(handlerCount))
}

// SetSessionPoolSize sets the session pool size gauge to n.
func (m *Metrics) SetSessionPoolSize(n int) {
	m.sessionPoolSize.Set(float64(n))
}

// MetricsMiddleware times the remainder of the chain and records the
// result under the task's method and final status (§5 "writes to
// task_result happen only at the fan-out join point" — by the time this
// middleware's post-phase runs, the join has already happened).
func MetricsMiddleware(m *Metrics) middleware.Middleware {
	return middleware.MiddlewareFunc(func(ctx context.Context, tc *taskcontext.Context, next middleware.Next) error {
		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start).Seconds()

		status := "ok"
		if err != nil {
			status = string(apperrors.AsFrameworkError(err).Kind)
		} else {
			status = statusLabel(tc)
		}
		m.RecordTaskDuration(string(tc.Task.ID.Method()), status, elapsed)
		return err
	})
}

func statusLabel(tc *taskcontext.Context) string {
	code := tc.TaskResult.GetStatus()
	if code >= 200 && code < 300 {
		return "ok"
	}
	return strconv.Itoa(int(code))
}

// Tracer wraps an OpenTelemetry tracer for the middleware pipeline.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer builds a Tracer backed by the global otel TracerProvider under
// the given instrumentation name.
func NewTracer(name string) *Tracer {
	return &Tracer{tracer: otel.Tracer(name)}
}

// Middleware opens one span per task, named after the task's
// method+path, and closes it with the chain's outcome (§9's tracing
// surface; no exporter selection is wired here, per SPEC_FULL.md's
// dropped-dependency note — the application embedding taskgrid configures
// its own exporter against the global TracerProvider).
func (t *Tracer) Middleware() middleware.Middleware {
	return middleware.MiddlewareFunc(func(ctx context.Context, tc *taskcontext.Context, next middleware.Next) error {
		spanName := string(tc.Task.ID.Method()) + " " + tc.Task.ID.Path()
		ctx, span := t.tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("taskgrid.method", string(tc.Task.ID.Method())),
				attribute.String("taskgrid.path", tc.Task.ID.Path()),
				attribute.String("taskgrid.trace_id", tc.Task.Metadata.TraceID),
			))
		defer span.End()

		err := next(ctx)
		if err != nil {
			fe := apperrors.AsFrameworkError(err)
			span.RecordError(fe)
			span.SetStatus(codes.Error, fe.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return err
	})
}
