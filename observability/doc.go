// Package observability provides OpenTelemetry tracing and metrics
// integration for flowkit pipelines.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("my-tool"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanStep)
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("my-tool"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("my-tool"))
//	metrics.RecordOperation(ctx, "wordcount", "counter", "ok", duration)
//
// Run context ties spans and metrics of one invocation together:
//
//	rc := observability.NewRunContext("wordcount", runID, metrics)
//	ctx, span := rc.StartRun(ctx)
//	defer func() { rc.EndRun(ctx, span, status, err) }()
package observability
