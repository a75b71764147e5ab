// Package hookutil provides generic helpers for composing observer hook
// functions. Each helper takes a slice of hook structs and a field-extractor
// function, then returns a composed function that calls every non-nil hook
// in order. Observer hooks in this runtime are void: they can never abort or
// alter engine processing.
//
// Usage pattern:
//
//	func composeOnAgentError(hooks []Hooks) func(context.Context, string, error) {
//	    return hookutil.ComposeVoid2(hooks, func(h Hooks) func(context.Context, string, error) {
//	        return h.OnAgentError
//	    })
//	}
package hookutil

import "context"

// ComposeVoid1 composes hooks of the form func(context.Context, A).
// All non-nil hooks are called in order unconditionally.
func ComposeVoid1[H, A any](hooks []H, get func(H) func(context.Context, A)) func(context.Context, A) {
	return func(ctx context.Context, a A) {
		for _, h := range hooks {
			if fn := get(h); fn != nil {
				fn(ctx, a)
			}
		}
	}
}

// ComposeVoid2 composes hooks of the form func(context.Context, A, B).
// All non-nil hooks are called in order unconditionally.
func ComposeVoid2[H, A, B any](hooks []H, get func(H) func(context.Context, A, B)) func(context.Context, A, B) {
	return func(ctx context.Context, a A, b B) {
		for _, h := range hooks {
			if fn := get(h); fn != nil {
				fn(ctx, a, b)
			}
		}
	}
}

// ComposeVoid3 composes hooks of the form func(context.Context, A, B, C).
// All non-nil hooks are called in order unconditionally.
func ComposeVoid3[H, A, B, C any](hooks []H, get func(H) func(context.Context, A, B, C)) func(context.Context, A, B, C) {
	return func(ctx context.Context, a A, b B, c C) {
		for _, h := range hooks {
			if fn := get(h); fn != nil {
				fn(ctx, a, b, c)
			}
		}
	}
}
