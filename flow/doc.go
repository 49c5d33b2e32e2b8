// Package flow provides named, immutable pipelines over lazy streams.
//
// A Pipeline is a sequence of labeled steps, each holding an Operation
// that maps one stream to another. Append returns a NEW pipeline value,
// so a partial pipeline can be held and extended in several directions
// without affecting earlier references:
//
//	base := flow.New().Append("parse", parse)
//	counts := base.Append("count", ops.Counter(0))
//	sums := base.Append("sum", sum)
//
// A Pipeline is itself an Operation, so pipelines nest as steps of
// other pipelines and compose without special casing.
//
// # Execution
//
// Applying a pipeline folds its steps into a single lazy stream; no
// elements move until the caller pulls from the result:
//
//	out, err := p.Run(ctx, stream.FromSlice(lines), flow.WithWorkers(pool))
//	results, err := stream.Collect(ctx, out)
//
// Options carry caller-owned worker and process pools. Operations that
// implement OptionedOperation receive them; plain operations are applied
// unchanged. Pools are borrowed for the duration of a run and never
// created or shut down by this package.
//
// # Per-element transforms
//
// Transform is the element-level contract used by mapped steps. One and
// All adapt a whole Operation into a Transform: One demands exactly one
// output element per input, All collects the outputs into a slice.
//
// # Observability
//
// WithLogging, WithTracing, and WithMetrics wrap any Operation without
// changing its behavior. Measurements cover the full life of the wrapped
// operation's result stream, from application to exhaustion.
package flow
