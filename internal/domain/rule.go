package domain

import "regexp"

// CategoryRule is a persisted auto-categorization rule. Higher priority runs
// first.
type CategoryRule struct {
	ID       int64
	Priority int
	Pattern  string
	Category string
}

// CompiledRule pairs a rule's compiled regex with its target category.
type CompiledRule struct {
	Regex    *regexp.Regexp
	Category string
}

// CompileRules compiles rule patterns, dropping invalid ones. Rules are
// expected pre-sorted by priority descending.
func CompileRules(rules []*CategoryRule) ([]CompiledRule, []error) {
	compiled := make([]CompiledRule, 0, len(rules))

	var errs []error
	for _, r := range rules {
		regex, err := regexp.Compile(r.Pattern)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		compiled = append(compiled, CompiledRule{Regex: regex, Category: r.Category})
	}

	return compiled, errs
}

// ApplyRules returns the first matching rule's category, or empty string.
func ApplyRules(rules []CompiledRule, payee string) string {
	for _, r := range rules {
		if r.Regex.MatchString(payee) {
			return r.Category
		}
	}
	return ""
}
