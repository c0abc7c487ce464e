package zodgen

import (
	"regexp"
	"strings"

	"github.com/CeriosTesting/openapi-to-zod/internal/spec"
)

// FilterRules selects operations by tag, path, method, or operationId.
// Entries are glob patterns ("*" and "?" wildcards); empty lists impose no
// constraint.
type FilterRules struct {
	Tags         []string
	Paths        []string
	Methods      []string
	OperationIDs []string
}

func (r FilterRules) empty() bool {
	return len(r.Tags) == 0 && len(r.Paths) == 0 && len(r.Methods) == 0 && len(r.OperationIDs) == 0
}

// FilterConfig is the operation-filtering policy: include filters are
// evaluated before exclude filters, and any exclude match always wins over
// any include match. Deprecated operations are dropped unless
// IncludeDeprecated is set.
type FilterConfig struct {
	Include           FilterRules
	Exclude           FilterRules
	IncludeDeprecated bool
}

// ShouldIncludeOperation applies the filter policy to one operation.
func ShouldIncludeOperation(op spec.Operation, f FilterConfig) bool {
	if op.Deprecated && !f.IncludeDeprecated {
		return false
	}
	if !f.Include.empty() && !matchesRules(op, f.Include) {
		return false
	}
	if !f.Exclude.empty() && matchesRules(op, f.Exclude) {
		return false
	}
	return true
}

func matchesRules(op spec.Operation, r FilterRules) bool {
	if matchesAny(r.Methods, op.Method) || matchesAny(r.Paths, op.Path) || matchesAny(r.OperationIDs, op.ID) {
		return true
	}
	for _, t := range op.Tags {
		if matchesAny(r.Tags, t) {
			return true
		}
	}
	return false
}

// FilterHeaders drops header parameters matching any ignore pattern. Glob
// matching is case-insensitive per HTTP header-name semantics. Patterns that
// match nothing are reported through warn as a non-fatal condition.
func FilterHeaders(params []spec.Parameter, ignorePatterns []string, warn func(format string, args ...any)) []spec.Parameter {
	if len(ignorePatterns) == 0 {
		return params
	}
	matched := make([]bool, len(ignorePatterns))
	out := make([]spec.Parameter, 0, len(params))
	for _, p := range params {
		drop := false
		for i, pat := range ignorePatterns {
			if globMatch(pat, p.Name) {
				matched[i] = true
				drop = true
			}
		}
		if !drop {
			out = append(out, p)
		}
	}
	if warn != nil {
		for i, pat := range ignorePatterns {
			if !matched[i] {
				warn("header ignore pattern %q matched no header parameter", pat)
			}
		}
	}
	return out
}

// globMatch matches name against a case-insensitive glob pattern.
func globMatch(pattern, name string) bool {
	re, err := globRegexp(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(name)
}

func matchesAny(patterns []string, value string) bool {
	for _, p := range patterns {
		if globMatch(p, value) {
			return true
		}
	}
	return false
}

func globRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?i)^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
