package zodgen

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/CeriosTesting/openapi-to-zod/internal/spec"
)

// genStats accumulates counters for the optional statistics header.
type genStats struct {
	Schemas               int
	Enums                 int
	Cycles                int
	DiscriminatedUnions   int
	ConstrainedProperties int
}

// builder is the single-owner accumulation context for one generation run:
// it records dependency edges at the moment a reference is decided during
// shape generation, never by re-scanning rendered text.
type builder struct {
	doc    *spec.Document
	cycles map[string]bool
	deps   map[string]map[string]struct{}
	warnf  func(format string, args ...any)
	prefix string
	suffix string
	stats  genStats
}

func newBuilder(doc *spec.Document, cycles map[string]bool, prefix, suffix string, warnf func(string, ...any)) *builder {
	return &builder{
		doc:    doc,
		cycles: cycles,
		deps:   make(map[string]map[string]struct{}),
		warnf:  warnf,
		prefix: prefix,
		suffix: suffix,
	}
}

func (b *builder) addDep(owner, target string) {
	set, ok := b.deps[owner]
	if !ok {
		set = make(map[string]struct{})
		b.deps[owner] = set
	}
	set[target] = struct{}{}
}

// shape emits the Zod expression for one schema node. owner is the enclosing
// declaration's name; every reference decided here is recorded as a
// dependency edge under it. indent is the current nesting depth for object
// literal formatting.
func (b *builder) shape(n *spec.SchemaNode, owner string, o ResolvedOptions, indent int) string {
	if n == nil {
		return "z.any()"
	}

	var expr string
	switch n.Kind {
	case spec.KindRef:
		b.addDep(owner, n.Ref)
		ident := SchemaConstName(n.Ref, b.prefix, b.suffix)
		if b.cycles[n.Ref] {
			// Value-level circular references break module initialization;
			// cycle members are always referenced through a thunk.
			expr = fmt.Sprintf("z.lazy(() => %s)", ident)
		} else {
			expr = ident
		}
		// References carry their own nullability; never decorate them here.
		return b.decorate(expr, n, o, false)
	case spec.KindEnum:
		expr = enumExpr(n.Enum)
	case spec.KindConst:
		expr = fmt.Sprintf("z.literal(%s)", tsLiteral(n.Const))
	case spec.KindPrimitive:
		expr = primitiveShape(n)
	case spec.KindArray:
		expr = fmt.Sprintf("z.array(%s)", b.shape(n.Items, owner, o, indent))
		if n.MinItems != nil {
			expr += fmt.Sprintf(".min(%d)", *n.MinItems)
		}
		if n.MaxItems != nil {
			expr += fmt.Sprintf(".max(%d)", *n.MaxItems)
		}
	case spec.KindObject:
		expr = b.objectShape(n, owner, o, indent)
	case spec.KindAllOf:
		expr = b.allOfShape(n, owner, o, indent)
	case spec.KindOneOf, spec.KindAnyOf:
		expr = b.unionShape(n, owner, o, indent)
	default:
		expr = "z.any()"
	}
	return b.decorate(expr, n, o, true)
}

// decorate chains .describe and explicit .nullable onto a shape expression.
// The defaultNullable policy is applied separately, by the object property
// loop, because it is scoped to immediate primitive-valued properties only.
func (b *builder) decorate(expr string, n *spec.SchemaNode, o ResolvedOptions, allowNullable bool) string {
	if o.UseDescribe && n.Description != "" {
		expr += fmt.Sprintf(".describe(%s)", strconv.Quote(n.Description))
	}
	if allowNullable && n.Nullable != nil && *n.Nullable {
		expr += ".nullable()"
	}
	return expr
}

var tsIdentRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

func propertyKey(name string) string {
	if tsIdentRe.MatchString(name) {
		return name
	}
	return strconv.Quote(name)
}

func (b *builder) objectShape(n *spec.SchemaNode, owner string, o ResolvedOptions, indent int) string {
	if len(n.Properties) == 0 {
		switch o.EmptyObjectBehavior {
		case EmptyObjectRecord:
			return "z.record(z.any())"
		case EmptyObjectLoose:
			return "z.object({}).passthrough()"
		default:
			return "z.object({}).strict()"
		}
	}

	pad := strings.Repeat("  ", indent+1)
	var bld strings.Builder
	bld.WriteString("z.object({\n")
	for _, p := range n.Properties {
		expr := b.shape(p.Schema, owner, o, indent+1)
		if o.DefaultNullable && defaultsToNullable(p.Schema) {
			expr += ".nullable()"
		}
		if !n.Required[p.Name] {
			expr += ".optional()"
		}
		if p.Schema != nil && p.Schema.HasConstraints() {
			b.stats.ConstrainedProperties++
		}
		fmt.Fprintf(&bld, "%s%s: %s,\n", pad, propertyKey(p.Name), expr)
	}
	bld.WriteString(strings.Repeat("  ", indent))
	bld.WriteString("})")

	expr := bld.String()
	switch {
	case n.AdditionalProperties != nil && *n.AdditionalProperties:
		expr += ".passthrough()"
	case n.AdditionalProperties != nil && !*n.AdditionalProperties:
		expr += ".strict()"
	case o.Strict:
		expr += ".strict()"
	}
	return expr
}

// defaultsToNullable reports whether the defaultNullable policy applies to a
// property with this value schema: primitives without an explicit nullable
// annotation only. References, enums, and consts are never defaulted;
// defaulting a referenced schema would corrupt that schema's own,
// independently declared nullability.
func defaultsToNullable(n *spec.SchemaNode) bool {
	return n != nil && n.Kind == spec.KindPrimitive && n.Nullable == nil
}

func (b *builder) allOfShape(n *spec.SchemaNode, owner string, o ResolvedOptions, indent int) string {
	var objects []*spec.SchemaNode
	var others []*spec.SchemaNode
	for _, br := range n.Branches {
		if br != nil && br.Kind == spec.KindObject {
			objects = append(objects, br)
		} else {
			others = append(others, br)
		}
	}

	var parts []string
	switch len(objects) {
	case 0:
	case 1:
		parts = append(parts, b.shape(objects[0], owner, o, indent))
	default:
		parts = append(parts, b.shape(b.mergeObjects(objects, owner), owner, o, indent))
	}
	for _, other := range others {
		parts = append(parts, b.shape(other, owner, o, indent))
	}

	if len(parts) == 0 {
		return "z.any()"
	}
	expr := parts[0]
	for _, p := range parts[1:] {
		expr += fmt.Sprintf(".and(%s)", p)
	}
	return expr
}

// mergeObjects combines inline object branches of an allOf additively.
// Property-name collisions keep the first declaration and are surfaced as a
// warning; required sets are unioned.
func (b *builder) mergeObjects(objects []*spec.SchemaNode, owner string) *spec.SchemaNode {
	merged := &spec.SchemaNode{Kind: spec.KindObject, Required: make(map[string]bool)}
	seen := make(map[string]bool)
	for _, obj := range objects {
		for _, p := range obj.Properties {
			if seen[p.Name] {
				if b.warnf != nil {
					b.warnf("allOf in %s: property %q declared by multiple branches; keeping the first", owner, p.Name)
				}
				continue
			}
			seen[p.Name] = true
			merged.Properties = append(merged.Properties, p)
		}
		for name := range obj.Required {
			merged.Required[name] = true
		}
		if obj.AdditionalProperties != nil && merged.AdditionalProperties == nil {
			merged.AdditionalProperties = obj.AdditionalProperties
		}
	}
	return merged
}

func (b *builder) unionShape(n *spec.SchemaNode, owner string, o ResolvedOptions, indent int) string {
	if len(n.Branches) == 0 {
		if b.warnf != nil {
			b.warnf("%s in %s has zero branches; falling back to z.any()", n.Kind, owner)
		}
		return "z.any()"
	}
	if len(n.Branches) == 1 {
		return b.shape(n.Branches[0], owner, o, indent)
	}

	parts := make([]string, 0, len(n.Branches))
	for _, br := range n.Branches {
		parts = append(parts, b.shape(br, owner, o, indent))
	}

	if disc := b.unionDiscriminator(n); disc != "" {
		b.stats.DiscriminatedUnions++
		return fmt.Sprintf("z.discriminatedUnion(%q, [%s])", disc, strings.Join(parts, ", "))
	}
	return fmt.Sprintf("z.union([%s])", strings.Join(parts, ", "))
}

// unionDiscriminator returns the discriminator property name when the union
// can be represented as a discriminated union: either the document declares
// one, or every branch is an object requiring a shared literal-valued
// property. Branches referencing cycle members disqualify the union, since
// z.discriminatedUnion cannot accept lazy references.
func (b *builder) unionDiscriminator(n *spec.SchemaNode) string {
	branchObjects := make([]*spec.SchemaNode, 0, len(n.Branches))
	for _, br := range n.Branches {
		obj := b.derefObject(br)
		if obj == nil {
			return ""
		}
		branchObjects = append(branchObjects, obj)
	}

	if n.Discriminator != "" {
		return n.Discriminator
	}

	var shared map[string]bool
	for _, obj := range branchObjects {
		candidates := make(map[string]bool)
		for _, p := range obj.Properties {
			if !obj.Required[p.Name] || p.Schema == nil {
				continue
			}
			if p.Schema.Kind == spec.KindConst || (p.Schema.Kind == spec.KindEnum && len(p.Schema.Enum) == 1) {
				candidates[p.Name] = true
			}
		}
		if shared == nil {
			shared = candidates
			continue
		}
		for name := range shared {
			if !candidates[name] {
				delete(shared, name)
			}
		}
	}
	if len(shared) == 0 {
		return ""
	}
	names := make([]string, 0, len(shared))
	for name := range shared {
		names = append(names, name)
	}
	// Deterministic pick when several qualify.
	min := names[0]
	for _, name := range names[1:] {
		if name < min {
			min = name
		}
	}
	return min
}

// derefObject resolves a union branch to its object node, following a single
// level of $ref. Returns nil for non-object branches or cycle members.
func (b *builder) derefObject(n *spec.SchemaNode) *spec.SchemaNode {
	if n == nil {
		return nil
	}
	if n.Kind == spec.KindObject {
		return n
	}
	if n.Kind == spec.KindRef {
		if b.cycles[n.Ref] {
			return nil
		}
		target := b.doc.Schema(n.Ref)
		if target != nil && target.Kind == spec.KindObject {
			return target
		}
	}
	return nil
}

// primitiveShape emits the base validator with chained constraints in a
// fixed order: size bounds, pattern, then semantic formats. The order is a
// stable-output requirement, not a semantic one.
func primitiveShape(n *spec.SchemaNode) string {
	switch n.Type {
	case "string":
		expr := "z.string()"
		if n.MinLength != nil {
			expr += fmt.Sprintf(".min(%d)", *n.MinLength)
		}
		if n.MaxLength != nil {
			expr += fmt.Sprintf(".max(%d)", *n.MaxLength)
		}
		if n.Pattern != "" {
			expr += fmt.Sprintf(".regex(/%s/)", strings.ReplaceAll(n.Pattern, "/", `\/`))
		}
		switch n.Format {
		case "email":
			expr += ".email()"
		case "uri", "url":
			expr += ".url()"
		case "uuid":
			expr += ".uuid()"
		case "date-time":
			expr += ".datetime()"
		}
		return expr
	case "integer", "number":
		expr := "z.number()"
		if n.Type == "integer" {
			expr += ".int()"
		}
		if n.Minimum != nil {
			if n.ExclusiveMin {
				expr += fmt.Sprintf(".gt(%s)", tsNumber(*n.Minimum))
			} else {
				expr += fmt.Sprintf(".gte(%s)", tsNumber(*n.Minimum))
			}
		}
		if n.Maximum != nil {
			if n.ExclusiveMax {
				expr += fmt.Sprintf(".lt(%s)", tsNumber(*n.Maximum))
			} else {
				expr += fmt.Sprintf(".lte(%s)", tsNumber(*n.Maximum))
			}
		}
		return expr
	case "boolean":
		return "z.boolean()"
	default:
		return "z.any()"
	}
}

func tsNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
