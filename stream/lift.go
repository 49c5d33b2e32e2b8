package stream

import "reflect"

// Lift interprets a value as a stream. A Stream is returned as is, a slice
// or array yields its elements, and any other value becomes a one-element
// stream. Strings are treated as scalars, not rune sequences.
func Lift(v any) Stream {
	switch x := v.(type) {
	case Stream:
		return x
	case []any:
		return &sliceStream{items: x}
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return &sliceStream{items: items}
	}
	return One(v)
}
