package flow

import (
	"context"
	"time"

	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/stream"
)

// WithLogging wraps an operation with execution logging.
// Logs the operation name, elements produced, duration, and outcome
// once the result stream is exhausted or fails.
func WithLogging(op Operation, log *logger.Logger) Operation {
	return &loggingOp{inner: op, log: log}
}

type loggingOp struct {
	inner Operation
	log   *logger.Logger
}

func (w *loggingOp) Name() string { return w.inner.Name() }

func (w *loggingOp) Apply(ctx context.Context, in stream.Stream) (stream.Stream, error) {
	return w.ApplyWith(ctx, in, Options{})
}

func (w *loggingOp) ApplyWith(ctx context.Context, in stream.Stream, o Options) (stream.Stream, error) {
	out, err := applyStep(ctx, w.inner, in, o)
	if err != nil {
		w.log.Error("operation failed", logger.Fields(
			logger.FieldOp, w.inner.Name(),
			logger.FieldError, err.Error(),
		))
		return nil, err
	}

	start := time.Now()
	return &observedStream{inner: out, done: func(count int64, err error) {
		fields := logger.Fields(
			logger.FieldOp, w.inner.Name(),
			logger.FieldElements, count,
			logger.FieldDuration, time.Since(start).Milliseconds(),
		)
		if err != nil {
			w.log.Error("operation failed", logger.MergeWithError(fields, err))
		} else {
			w.log.Debug("operation completed", fields)
		}
	}}, nil
}

// WithTracing wraps an operation with OpenTelemetry span creation.
// Each application opens a span named "flow.step.{operation}" that ends
// when the result stream is exhausted, fails, or is closed.
func WithTracing(op Operation) Operation {
	return &tracingOp{inner: op}
}

type tracingOp struct {
	inner Operation
}

func (w *tracingOp) Name() string { return w.inner.Name() }

func (w *tracingOp) Apply(ctx context.Context, in stream.Stream) (stream.Stream, error) {
	return w.ApplyWith(ctx, in, Options{})
}

func (w *tracingOp) ApplyWith(ctx context.Context, in stream.Stream, o Options) (stream.Stream, error) {
	spanName := observability.SpanStep + "." + w.inner.Name()
	spanCtx, span := observability.StartSpan(ctx, spanName)

	observability.SetSpanAttribute(spanCtx, observability.AttrOperation, w.inner.Name())
	if rc := observability.RunContextFromContext(ctx); rc != nil {
		observability.SetSpanAttribute(spanCtx, observability.AttrPipeline, rc.Pipeline)
		observability.SetSpanAttribute(spanCtx, observability.AttrRunID, rc.RunID)
	}

	out, err := applyStep(spanCtx, w.inner, in, o)
	if err != nil {
		observability.SetSpanError(spanCtx, err)
		span.End()
		return nil, err
	}

	start := time.Now()
	return &observedStream{inner: out, done: func(count int64, err error) {
		status := "ok"
		if err != nil {
			status = "error"
			observability.SetSpanError(spanCtx, err)
		}
		observability.SetSpanAttribute(spanCtx, observability.AttrElements, count)
		observability.SetSpanAttribute(spanCtx, observability.AttrDurationMs, time.Since(start).Milliseconds())
		observability.SetSpanAttribute(spanCtx, observability.AttrStatus, status)
		span.End()
	}}, nil
}

// WithMetrics wraps an operation with metric recording.
// Records execution count, duration, elements produced, and errors.
func WithMetrics(op Operation, metrics *observability.Metrics) Operation {
	return &metricsOp{inner: op, metrics: metrics}
}

type metricsOp struct {
	inner   Operation
	metrics *observability.Metrics
}

func (w *metricsOp) Name() string { return w.inner.Name() }

func (w *metricsOp) Apply(ctx context.Context, in stream.Stream) (stream.Stream, error) {
	return w.ApplyWith(ctx, in, Options{})
}

func (w *metricsOp) ApplyWith(ctx context.Context, in stream.Stream, o Options) (stream.Stream, error) {
	pipeline := ""
	if rc := observability.RunContextFromContext(ctx); rc != nil {
		pipeline = rc.Pipeline
	}

	start := time.Now()
	out, err := applyStep(ctx, w.inner, in, o)
	if err != nil {
		w.metrics.RecordError(ctx, "apply", w.inner.Name())
		w.metrics.RecordOperation(ctx, pipeline, w.inner.Name(), "error", time.Since(start))
		return nil, err
	}

	return &observedStream{inner: out, done: func(count int64, err error) {
		status := "ok"
		if err != nil {
			status = "error"
			w.metrics.RecordError(ctx, "stream", w.inner.Name())
		}
		w.metrics.RecordElements(ctx, w.inner.Name(), count)
		w.metrics.RecordOperation(ctx, pipeline, w.inner.Name(), status, time.Since(start))
	}}, nil
}

// observedStream counts elements and invokes done exactly once when the
// stream is exhausted, fails, or is closed early.
type observedStream struct {
	inner    stream.Stream
	count    int64
	done     func(count int64, err error)
	reported bool
}

func (s *observedStream) Next(ctx context.Context) (any, bool, error) {
	v, ok, err := s.inner.Next(ctx)
	if err != nil {
		s.report(err)
		return nil, false, err
	}
	if !ok {
		s.report(nil)
		return nil, false, nil
	}
	s.count++
	return v, true, nil
}

func (s *observedStream) Close() error {
	err := s.inner.Close()
	s.report(nil)
	return err
}

func (s *observedStream) report(err error) {
	if s.reported {
		return
	}
	s.reported = true
	s.done(s.count, err)
}
