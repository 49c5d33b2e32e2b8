// Package stream provides the lazy, pull-based element stream that flowkit
// operations consume and produce.
//
// Streams are single-pass and single-consumer: no work happens until Next
// is called, and each element is delivered exactly once. Each stage pulls
// from the previous stage on demand, providing natural backpressure without
// explicit flow control.
//
// Elements are untyped (any); typed access lives at the edges via
// FromSlice/CollectAs and the generic constructors in the ops package.
//
// # Sources
//
//   - FromSlice, Of, One, Empty: in-memory sources
//   - FromChannel: read from a channel until it closes
//   - FromFunc, FromFuncClose: custom pull functions
//   - Generate: unbounded generator (element n computed on pull)
//   - Defer: build the underlying stream on first pull
//   - Lift: interpret an arbitrary value as a stream
//
// # Terminals
//
// Collect, CollectAs, ForEach, and Drain pull the stream to exhaustion and
// close it.
//
//	src := stream.FromSlice([]int{1, 2, 3})
//	out, err := stream.CollectAs[int](ctx, src)
package stream
