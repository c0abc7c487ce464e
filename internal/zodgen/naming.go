// Package zodgen generates Zod validation schemas and inferred TypeScript
// types from a normalized OpenAPI document.
package zodgen

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Style selects the casing of a generated identifier.
type Style int

const (
	CamelCase Style = iota
	PascalCase
)

// IdentOptions decorates a converted identifier.
type IdentOptions struct {
	Prefix string
	Suffix string
}

var (
	invalidIdentChars = regexp.MustCompile(`[^A-Za-z0-9._\- ]`)
	identSeparators   = regexp.MustCompile(`[.\-_ ]+`)

	// titleCaser capitalizes a segment's first letter without lowering the
	// rest, so acronym-ish segments like "APIKey" survive conversion.
	titleCaser = cases.Title(language.English, cases.NoLower)
)

// ToIdentifier converts an arbitrary input string (dotted, kebab, snake,
// digit-leading, with repeated or stray separators) into a valid camelCase or
// PascalCase identifier. Pure and total: it always returns a usable
// identifier, falling back to "Value" when nothing survives cleaning.
// Applying it twice yields the same result as applying it once.
func ToIdentifier(raw string, style Style, opts IdentOptions) string {
	cleaned := invalidIdentChars.ReplaceAllString(raw, "_")
	segments := identSeparators.Split(cleaned, -1)

	var b strings.Builder
	first := true
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		switch {
		case first && style == CamelCase:
			b.WriteString(lowerFirst(seg))
		case leadingDigit(seg):
			// Title casing would capitalize the first cased letter inside
			// the segment; digit-leading segments pass through unchanged.
			b.WriteString(seg)
		default:
			b.WriteString(titleCaser.String(seg))
		}
		first = false
	}
	out := b.String()
	if out == "" {
		out = "Value"
	}

	if p := strings.TrimSpace(opts.Prefix); p != "" {
		if style == PascalCase {
			p = upperFirst(p)
		} else {
			p = lowerFirst(p)
		}
		out = p + upperFirst(out)
	}
	if s := strings.TrimSpace(opts.Suffix); s != "" {
		out += upperFirst(s)
	}

	if leadingDigit(out) {
		out = "_" + out
	}
	return out
}

// ToEnumKey derives a PascalCase member key for a native enum declaration.
// Digit-leading results are prefixed with "N" instead of an underscore so
// numeric enum values read as N1, N2, ...
func ToEnumKey(raw string) string {
	out := ToIdentifier(raw, PascalCase, IdentOptions{})
	if strings.HasPrefix(out, "_") {
		out = "N" + strings.TrimLeft(out, "_")
	} else if leadingDigit(out) {
		out = "N" + out
	}
	return out
}

// ResolveRef returns the bare schema name a local $ref pointer targets,
// e.g. "#/components/schemas/Foo" -> "Foo". It does not resolve external
// file or HTTP references.
func ResolveRef(ref string) string {
	parts := strings.Split(ref, "/")
	return parts[len(parts)-1]
}

// SchemaConstName is the exported Zod schema constant for a schema name:
// camelCase, user prefix/suffix applied, always ending in "Schema".
func SchemaConstName(name, prefix, suffix string) string {
	return ToIdentifier(name, CamelCase, IdentOptions{Prefix: prefix, Suffix: suffix + "Schema"})
}

// TypeName is the exported TypeScript type name for a schema name.
func TypeName(name, prefix, suffix string) string {
	return ToIdentifier(name, PascalCase, IdentOptions{Prefix: prefix, Suffix: suffix})
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func leadingDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}
