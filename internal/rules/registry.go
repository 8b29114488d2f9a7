// Package rules holds the builtin rule set.
package rules

import (
	"tslint/internal/rule"
)

// All returns the builtin rules in registration order. The order decides
// the order rules run in and the order of `tslint rules`.
func All() []rule.Rule {
	return []rule.Rule{
		NoUnnecessaryNonNull,
		PreferOptionalChain,
		PreferStringStartsEndsWith,
		NoUnusedExport,
	}
}

// Registry returns a registry over All.
func Registry() *rule.Registry {
	r, err := rule.NewRegistry(All()...)
	if err != nil {
		// имена встроенных правил уникальны; дубликат означает ошибку сборки
		panic(err)
	}
	return r
}
