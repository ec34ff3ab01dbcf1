package channels

import (
	"fmt"
	"reflect"
)

// Reducer combines the current value of a channel with an incoming one.
// It must be pure and must not modify old in place.
type Reducer func(old, new any) (any, error)

// Overwrite keeps the incoming value (last write wins).
func Overwrite(_ any, new any) (any, error) {
	return new, nil
}

// Append appends new after old.
// Both old and new may be a slice or a single item. Items of new keep the
// order in which the node emitted them. A fresh slice is always returned.
// When the element types agree the result keeps that type ([]string stays
// []string); otherwise it degrades to []any.
func Append(old, new any) (any, error) {
	if new == nil {
		return cloneSlice(old), nil
	}
	if old == nil {
		return cloneSlice(asSlice(new)), nil
	}

	ov := reflect.ValueOf(old)
	if ov.Kind() != reflect.Slice {
		return nil, fmt.Errorf("append reducer: channel holds %T, not a slice", old)
	}

	nv := reflect.ValueOf(new)
	if nv.Kind() == reflect.Slice {
		if nv.Type().Elem() == ov.Type().Elem() {
			out := reflect.MakeSlice(ov.Type(), 0, ov.Len()+nv.Len())
			out = reflect.AppendSlice(out, ov)
			out = reflect.AppendSlice(out, nv)
			return out.Interface(), nil
		}
		return appendAny(ov, nv), nil
	}

	if nv.Type().AssignableTo(ov.Type().Elem()) {
		out := reflect.MakeSlice(ov.Type(), 0, ov.Len()+1)
		out = reflect.AppendSlice(out, ov)
		out = reflect.Append(out, nv)
		return out.Interface(), nil
	}
	return appendAny(ov, reflect.ValueOf([]any{new})), nil
}

// asSlice wraps a single item into a one-element slice of its own type.
func asSlice(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		return v
	}
	out := reflect.MakeSlice(reflect.SliceOf(rv.Type()), 0, 1)
	return reflect.Append(out, rv).Interface()
}

func cloneSlice(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return v
	}
	out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
	reflect.Copy(out, rv)
	return out.Interface()
}

func appendAny(slices ...reflect.Value) []any {
	n := 0
	for _, s := range slices {
		n += s.Len()
	}
	out := make([]any, 0, n)
	for _, s := range slices {
		for i := 0; i < s.Len(); i++ {
			out = append(out, s.Index(i).Interface())
		}
	}
	return out
}

// Named returns the reducer registered under a manifest name.
func Named(name string) (Reducer, bool) {
	switch name {
	case "", "overwrite":
		return Overwrite, true
	case "append":
		return Append, true
	}
	return nil, false
}
