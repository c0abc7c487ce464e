package zodgen

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// enumDeclaration is the renderable output for one named enum schema.
type enumDeclaration struct {
	// NativeCode holds a TypeScript enum declaration in native mode; empty
	// otherwise.
	NativeCode string
	SchemaCode string
	// TypeCode is the derived type alias. Empty in native mode, where the
	// enum declaration itself is the type.
	TypeCode string
}

// generateEnum renders a named enum as either a closed literal-union
// validator with an inferred type alias, or (native mode, when the value set
// allows it) a TypeScript enum wrapped by z.nativeEnum so the type and the
// validator cannot drift apart.
func generateEnum(name string, values []any, o ResolvedOptions) enumDeclaration {
	constName := SchemaConstName(name, o.Prefix, o.Suffix)
	typeName := TypeName(name, o.Prefix, o.Suffix)

	if o.Mode == ModeNative {
		if native := nativeEnumDecl(typeName, values); native != "" {
			return enumDeclaration{
				NativeCode: native,
				SchemaCode: fmt.Sprintf("export const %s = z.nativeEnum(%s);", constName, typeName),
			}
		}
		// Mixed and boolean value sets have no native enum form; fall
		// through to the union representation.
	}

	return enumDeclaration{
		SchemaCode: fmt.Sprintf("export const %s = %s;", constName, enumExpr(values)),
		TypeCode:   fmt.Sprintf("export type %s = z.infer<typeof %s>;", typeName, constName),
	}
}

// enumExpr is the inline validator expression for a literal value list:
// a closed string union for all-string sets, a plain boolean for all-boolean
// sets, and a union of individual literals otherwise (z.enum only accepts
// string members directly).
func enumExpr(values []any) string {
	if len(values) == 0 {
		return "z.any()"
	}
	allStrings := true
	allBools := true
	for _, v := range values {
		switch v.(type) {
		case string:
			allBools = false
		case bool:
			allStrings = false
		default:
			allStrings = false
			allBools = false
		}
	}
	switch {
	case allBools:
		// An enum of booleans carries no useful constraint.
		return "z.boolean()"
	case allStrings:
		quoted := make([]string, 0, len(values))
		for _, v := range values {
			quoted = append(quoted, tsLiteral(v))
		}
		return fmt.Sprintf("z.enum([%s])", strings.Join(quoted, ", "))
	case len(values) == 1:
		return fmt.Sprintf("z.literal(%s)", tsLiteral(values[0]))
	default:
		parts := make([]string, 0, len(values))
		for _, v := range values {
			parts = append(parts, fmt.Sprintf("z.literal(%s)", tsLiteral(v)))
		}
		return fmt.Sprintf("z.union([%s])", strings.Join(parts, ", "))
	}
}

// nativeEnumDecl renders a TypeScript enum for all-string or all-numeric
// value sets; returns "" when no native form exists.
func nativeEnumDecl(typeName string, values []any) string {
	allStrings := true
	allNumbers := true
	for _, v := range values {
		switch v.(type) {
		case string:
			allNumbers = false
		case int, int64, float64, json.Number:
			allStrings = false
		default:
			return ""
		}
	}
	if !allStrings && !allNumbers {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "export enum %s {\n", typeName)
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		key := ToEnumKey(fmt.Sprintf("%v", v))
		for seen[key] {
			key += "_"
		}
		seen[key] = true
		fmt.Fprintf(&b, "  %s = %s,\n", key, tsLiteral(v))
	}
	b.WriteString("}")
	return b.String()
}

// tsLiteral formats an enum/const value as a TypeScript literal.
func tsLiteral(v any) string {
	switch val := v.(type) {
	case string:
		return strconv.Quote(val)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case nil:
		return "null"
	default:
		return strconv.Quote(fmt.Sprintf("%v", val))
	}
}
