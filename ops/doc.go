// Package ops provides the reference operation set for flow pipelines.
//
// Operations are lazy where the semantics allow it: no work happens
// until values are pulled from the applied stream. Operations that need
// the whole upstream (sort, counter, reductions) defer materialization
// to the first pull, so building a chain is always work-free.
//
// Typed constructors (Map, Filter, Sort, ...) accept ordinary typed
// functions and assert element types at runtime; a mismatched element
// fails the stream with the expected and actual types.
//
// # Operators
//
// Element-wise (lazy, order-preserving):
//
//   - Map: transform each element
//   - Filter: keep elements matching a predicate
//   - FlatMap: transform each element into a sub-sequence and splice
//   - Tap: side-effect without altering the element
//   - Take: first n, closing the upstream at the limit (safe after
//     unbounded generators)
//   - Drop: skip the first n
//   - Flatten: splice each element's own sequence into the output
//
// Whole-stream (materialize on first pull):
//
//   - Wrap: arbitrary stream-to-stream function as an operation
//   - WrapValue: reduce the stream to a single value
//   - Sort, SortBy: stable sort
//   - Counter: frequency counts as Pair{element, count}
//   - ReduceByKey: keyed fold as Pair{key, value}
//
// Windowed (lazy between windows):
//
//   - Batch: group into []any windows of n
//   - Windowed: apply an operation per n-element window and splice
//   - WindowReduce: fold each n-element window to one value
//
// Mapped transforms:
//
//   - Each: apply a flow.Transform per element on the pulling goroutine
//   - Parallel: apply a flow.Transform per element on the invoke's
//     worker or process pool; output order always equals input order
//
// # Usage
//
//	p := flow.Named("word-count").
//	    Append("split", ops.FlatMap(func(_ context.Context, line string) ([]string, error) {
//	        return strings.Fields(line), nil
//	    })).
//	    Append("count", ops.Counter(2))
//	out, _ := p.Run(ctx, stream.Of("the cat", "the dog", "the cat"))
//	pairs, _ := stream.Collect(ctx, out)
package ops
