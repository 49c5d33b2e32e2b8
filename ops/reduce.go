package ops

import (
	"cmp"
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/kbukum/flowkit/flow"
	"github.com/kbukum/flowkit/stream"
)

// Pair is a key-value element produced by grouping operations.
type Pair struct {
	Key any
	Val any
}

// Wrap turns an arbitrary stream-to-stream function into a named
// operation. fn assumes ownership of the input stream and runs on first
// pull, so chain building stays work-free no matter what fn does.
func Wrap(name string, fn func(context.Context, stream.Stream) (stream.Stream, error)) flow.Operation {
	return flow.OpFunc(name, func(_ context.Context, in stream.Stream) (stream.Stream, error) {
		return stream.Defer(func(ctx context.Context) (stream.Stream, error) {
			return fn(ctx, in)
		}), nil
	})
}

// WrapValue reduces the whole stream to a single value, emitted as a
// one-element stream. fn assumes ownership of the input stream.
func WrapValue(name string, fn func(context.Context, stream.Stream) (any, error)) flow.Operation {
	return flow.OpFunc(name, func(_ context.Context, in stream.Stream) (stream.Stream, error) {
		return stream.Defer(func(ctx context.Context) (stream.Stream, error) {
			v, err := fn(ctx, in)
			if err != nil {
				return nil, err
			}
			return stream.One(v), nil
		}), nil
	})
}

// Sort stable-sorts the stream with less. The upstream is fully
// materialized on first pull.
func Sort[T any](less func(a, b T) bool) flow.Operation {
	return flow.OpFunc("sort", func(_ context.Context, in stream.Stream) (stream.Stream, error) {
		return stream.Defer(func(ctx context.Context) (stream.Stream, error) {
			elems, err := collectTyped[T](ctx, "sort", in)
			if err != nil {
				return nil, err
			}
			sort.SliceStable(elems, func(i, j int) bool { return less(elems[i], elems[j]) })
			return stream.FromSlice(elems), nil
		}), nil
	})
}

// SortBy stable-sorts the stream by a derived key.
func SortBy[T any, K cmp.Ordered](key func(T) K, descending bool) flow.Operation {
	less := func(a, b T) bool { return key(a) < key(b) }
	if descending {
		less = func(a, b T) bool { return key(b) < key(a) }
	}
	return Sort(less)
}

// Counter counts distinct elements and emits one Pair{element, count}
// per distinct element, ordered by descending count with ties in
// first-encounter order. n > 0 keeps only the n most frequent; n <= 0
// keeps all. Materializes on first pull. Elements must be valid map
// keys.
func Counter(n int) flow.Operation {
	return flow.OpFunc("counter", func(_ context.Context, in stream.Stream) (stream.Stream, error) {
		return stream.Defer(func(ctx context.Context) (stream.Stream, error) {
			counts := make(map[any]int)
			var order []any
			err := stream.ForEach(ctx, in, func(_ context.Context, v any) error {
				if v != nil && !reflect.TypeOf(v).Comparable() {
					return fmt.Errorf("ops: counter: element of type %T is not a valid map key", v)
				}
				if _, seen := counts[v]; !seen {
					order = append(order, v)
				}
				counts[v]++
				return nil
			})
			if err != nil {
				return nil, err
			}

			// Stable sort keeps first-encounter order between equal counts.
			sort.SliceStable(order, func(i, j int) bool {
				return counts[order[i]] > counts[order[j]]
			})
			if n > 0 && n < len(order) {
				order = order[:n]
			}

			out := make([]any, len(order))
			for i, v := range order {
				out[i] = Pair{Key: v, Val: counts[v]}
			}
			return stream.FromSlice(out), nil
		}), nil
	})
}

// ReduceByKey groups elements by key and folds each key's values with
// combine in arrival order, emitting one Pair{Key, Val} per distinct
// key in first-encounter key order. Holds one accumulated value per key
// in memory; materializes on first pull.
func ReduceByKey[T any, K comparable, V any](key func(T) K, val func(T) V, combine func(V, V) V) flow.Operation {
	return flow.OpFunc("reduce_by_key", func(_ context.Context, in stream.Stream) (stream.Stream, error) {
		return stream.Defer(func(ctx context.Context) (stream.Stream, error) {
			acc := make(map[K]V)
			var order []K
			err := stream.ForEach(ctx, in, func(_ context.Context, v any) error {
				t, err := elemAs[T]("reduce_by_key", v)
				if err != nil {
					return err
				}
				k := key(t)
				if existing, seen := acc[k]; seen {
					acc[k] = combine(existing, val(t))
				} else {
					order = append(order, k)
					acc[k] = val(t)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}

			out := make([]any, len(order))
			for i, k := range order {
				out[i] = Pair{Key: k, Val: acc[k]}
			}
			return stream.FromSlice(out), nil
		}), nil
	})
}

// collectTyped materializes a stream into a typed slice.
func collectTyped[T any](ctx context.Context, op string, in stream.Stream) ([]T, error) {
	var elems []T
	err := stream.ForEach(ctx, in, func(_ context.Context, v any) error {
		t, err := elemAs[T](op, v)
		if err != nil {
			return err
		}
		elems = append(elems, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return elems, nil
}
