// Package binding provides context-scoped configuration lookup: an
// immutable key-value record bound to a scope, with fallthrough to the
// enclosing scope when a key is absent locally.
package binding

import "context"

type bindingKey struct{}

type scope struct {
	values map[string]any
	parent *scope
}

// With binds values to a new scope on top of any enclosing one. The map
// is copied; later mutations by the caller are not observed.
func With(ctx context.Context, values map[string]any) context.Context {
	copied := make(map[string]any, len(values))
	for k, v := range values {
		copied[k] = v
	}
	parent, _ := ctx.Value(bindingKey{}).(*scope)
	return context.WithValue(ctx, bindingKey{}, &scope{values: copied, parent: parent})
}

// Lookup resolves key against the innermost scope holding it, asserting
// the value to T. A missing key or a type mismatch reports false.
func Lookup[T any](ctx context.Context, key string) (T, bool) {
	var zero T
	for s, _ := ctx.Value(bindingKey{}).(*scope); s != nil; s = s.parent {
		raw, ok := s.values[key]
		if !ok {
			continue
		}
		val, ok := raw.(T)
		if !ok {
			return zero, false
		}
		return val, true
	}
	return zero, false
}
