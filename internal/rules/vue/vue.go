// Package vue is the reference rule set for Vue-style reactivity: value
// containers, deep-reactive objects, computed values, effects, watchers and
// composition hooks.
package vue

import (
	"sigtrace/internal/rules"
)

var value = rules.Property("value")

// Rules returns the rule set. Order matters: the first matching rule wins.
func Rules() rules.Set {
	return rules.Set{
		{
			Name: rules.Pattern(`^(?:ref(?:[A-Z].*)?|createRef|customRef|extendRef|shallowRef|toRef|useTemplateRef|defineModel)$`),
			Resolve: func(ctx rules.Context) []rules.Classification {
				return rules.BindIdentifier(ctx, value)
			},
		},
		{
			Name: rules.Pattern(`^(?:reactive(?:[A-Z].*)?|shallowReactive|toReactive|defineProps|withDefaults)$`),
			Resolve: func(ctx rules.Context) []rules.Classification {
				return rules.BindIdentifier(ctx, rules.AnyProperty)
			},
		},
		{
			Name: rules.Pattern(`^(?:toRefs|storeToRefs)$`),
			Resolve: func(ctx rules.Context) []rules.Classification {
				return rules.BindElements(ctx, value)
			},
		},
		{
			Name: rules.Exact("computedWithControl"),
			Resolve: func(ctx rules.Context) []rules.Classification {
				out := rules.BindIdentifier(ctx, value)
				out = append(out, rules.Arg(ctx, 0, rules.Accessor)...)
				return append(out, rules.Getter(ctx, ctx.Call.Arg(1))...)
			},
		},
		{
			Name: rules.Pattern(`^computed(?:[A-Z].*)?$`),
			Resolve: func(ctx rules.Context) []rules.Classification {
				out := rules.BindIdentifier(ctx, value)
				return append(out, rules.Getter(ctx, ctx.Call.Arg(0))...)
			},
		},
		{
			Name: rules.Pattern(`^(?:effect|watchEffect|watchPostEffect|watchSyncEffect)$`),
			Resolve: func(ctx rules.Context) []rules.Classification {
				return rules.Arg(ctx, 0, rules.Effect)
			},
		},
		{
			Name: rules.Pattern(`^(?:watch(?:[A-Z].*)?|whenever)$`),
			Resolve: func(ctx rules.Context) []rules.Classification {
				out := rules.Arg(ctx, 0, rules.Accessor)
				return append(out, rules.Arg(ctx, 1, rules.Callback)...)
			},
		},
		{
			Name: rules.Pattern(`^use[A-Z].*$`),
			Resolve: func(ctx rules.Context) []rules.Classification {
				out := rules.BindIdentifier(ctx, rules.AnyProperty)
				return append(out, rules.BindElements(ctx, value)...)
			},
		},
	}
}
