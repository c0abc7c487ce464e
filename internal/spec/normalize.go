package spec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// Build converts a parsed OpenAPI v3 document into the normalized Document
// model. raw holds the original document bytes when available; it is walked
// in parallel with the kin-openapi tree to recover facts the typed parse
// collapses: an explicit `nullable: false` is indistinguishable from an
// absent annotation on openapi3.Schema, and `const` (3.1) is not modeled at
// all.
//
// Build validates eagerly that every $ref resolves to a declared schema name
// and that components.schemas is present and non-empty; both failures are
// fatal before any code is emitted.
func Build(doc *openapi3.T, raw []byte) (*Document, error) {
	if doc == nil {
		return nil, NewError(SpecValidationError, "spec: nil document")
	}
	if doc.Components == nil || len(doc.Components.Schemas) == 0 {
		return nil, NewError(SpecValidationError, "spec: document declares no components.schemas; nothing to generate")
	}

	rawSchemas := rawSchemaTable(raw)

	out := &Document{Schemas: make(map[string]*SchemaNode, len(doc.Components.Schemas))}
	for name := range doc.Components.Schemas {
		out.SchemaNames = append(out.SchemaNames, name)
	}
	sort.Strings(out.SchemaNames)

	for _, name := range out.SchemaNames {
		ref := doc.Components.Schemas[name]
		if ref == nil {
			out.Schemas[name] = &SchemaNode{Kind: KindAny}
			continue
		}
		out.Schemas[name] = toNode(ref, rawSchemas[name])
	}

	out.Operations = buildOperations(doc)

	if err := validateRefs(out); err != nil {
		return nil, err
	}
	return out, nil
}

// rawSchemaTable digs components.schemas out of the raw document, if present.
func rawSchemaTable(raw []byte) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var root map[string]any
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil
	}
	components, ok := root["components"].(map[string]any)
	if !ok {
		return nil
	}
	schemas, ok := components["schemas"].(map[string]any)
	if !ok {
		return nil
	}
	return schemas
}

// rawList looks up a list-valued key in a raw schema fragment. Nil-safe:
// returns nil when the fragment or the key is absent or not a list.
func rawList(rawMap map[string]any, key string) []any {
	if rawMap == nil {
		return nil
	}
	list, _ := rawMap[key].([]any)
	return list
}

// toNode converts one kin-openapi schema into a tagged SchemaNode. rawNode is
// the matching fragment of the raw document tree, or nil when unavailable.
func toNode(ref *openapi3.SchemaRef, rawNode any) *SchemaNode {
	if ref == nil {
		return &SchemaNode{Kind: KindAny}
	}
	if ref.Ref != "" {
		return &SchemaNode{Kind: KindRef, Ref: lastRefSegment(ref.Ref)}
	}
	s := ref.Value
	if s == nil {
		return &SchemaNode{Kind: KindAny}
	}

	rawMap, _ := rawNode.(map[string]any)
	// A raw fragment that is itself a $ref was handled above via ref.Ref; if
	// kin-openapi inlined it the raw map still names the target.
	if rawMap != nil {
		if rs, ok := rawMap["$ref"].(string); ok && rs != "" {
			return &SchemaNode{Kind: KindRef, Ref: lastRefSegment(rs)}
		}
	}

	n := &SchemaNode{
		Description: strings.TrimSpace(s.Description),
		ReadOnly:    s.ReadOnly,
		WriteOnly:   s.WriteOnly,
		Nullable:    explicitNullable(s, rawMap),
	}
	fillConstraints(n, s)

	// const is a 3.1 construct kin-openapi does not model; read it raw.
	if rawMap != nil {
		if cv, ok := rawMap["const"]; ok {
			n.Kind = KindConst
			n.Const = cv
			return n
		}
	}

	switch {
	case len(s.AllOf) > 0:
		n.Kind = KindAllOf
		n.Branches = toBranches(s.AllOf, rawList(rawMap, "allOf"))
	case len(s.OneOf) > 0:
		n.Kind = KindOneOf
		n.Branches = toBranches(s.OneOf, rawList(rawMap, "oneOf"))
		n.Discriminator = discriminatorName(s)
	case len(s.AnyOf) > 0:
		n.Kind = KindAnyOf
		n.Branches = toBranches(s.AnyOf, rawList(rawMap, "anyOf"))
		n.Discriminator = discriminatorName(s)
	case len(s.Enum) > 0:
		n.Kind = KindEnum
		n.Enum = append([]any(nil), s.Enum...)
	case s.Type == "array":
		n.Kind = KindArray
		var rawItems any
		if rawMap != nil {
			rawItems = rawMap["items"]
		}
		n.Items = toNode(s.Items, rawItems)
	case s.Type == "object" || len(s.Properties) > 0:
		n.Kind = KindObject
		fillObject(n, s, rawMap)
	case s.Type == "string" || s.Type == "number" || s.Type == "integer" || s.Type == "boolean":
		n.Kind = KindPrimitive
		n.Type = s.Type
		n.Format = strings.TrimSpace(s.Format)
	default:
		n.Kind = KindAny
	}
	return n
}

func toBranches(refs openapi3.SchemaRefs, rawItems []any) []*SchemaNode {
	out := make([]*SchemaNode, 0, len(refs))
	for i, r := range refs {
		var rn any
		if i < len(rawItems) {
			rn = rawItems[i]
		}
		out = append(out, toNode(r, rn))
	}
	return out
}

func fillObject(n *SchemaNode, s *openapi3.Schema, rawMap map[string]any) {
	if len(s.Required) > 0 {
		n.Required = make(map[string]bool, len(s.Required))
		for _, r := range s.Required {
			n.Required[r] = true
		}
	}
	if s.AdditionalProperties.Has != nil {
		v := *s.AdditionalProperties.Has
		n.AdditionalProperties = &v
	}
	if len(s.Properties) == 0 {
		return
	}
	var rawProps map[string]any
	if rawMap != nil {
		rawProps, _ = rawMap["properties"].(map[string]any)
	}
	keys := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	for _, name := range keys {
		var rn any
		if rawProps != nil {
			rn = rawProps[name]
		}
		n.Properties = append(n.Properties, Property{Name: name, Schema: toNode(s.Properties[name], rn)})
	}
}

func fillConstraints(n *SchemaNode, s *openapi3.Schema) {
	if s.MinLength > 0 {
		v := s.MinLength
		n.MinLength = &v
	}
	if s.MaxLength != nil {
		v := *s.MaxLength
		n.MaxLength = &v
	}
	n.Pattern = s.Pattern
	if s.Min != nil {
		v := *s.Min
		n.Minimum = &v
		n.ExclusiveMin = s.ExclusiveMin
	}
	if s.Max != nil {
		v := *s.Max
		n.Maximum = &v
		n.ExclusiveMax = s.ExclusiveMax
	}
	if s.MinItems > 0 {
		v := s.MinItems
		n.MinItems = &v
	}
	if s.MaxItems != nil {
		v := *s.MaxItems
		n.MaxItems = &v
	}
}

// explicitNullable recovers the tri-state nullable annotation. The raw walk
// wins when available; otherwise a true value on the typed schema is the only
// recoverable signal (kin-openapi stores absent and false identically).
func explicitNullable(s *openapi3.Schema, rawMap map[string]any) *bool {
	if rawMap != nil {
		if v, ok := rawMap["nullable"]; ok {
			if b, ok := v.(bool); ok {
				return &b
			}
		}
		return nil
	}
	if s.Nullable {
		v := true
		return &v
	}
	return nil
}

func discriminatorName(s *openapi3.Schema) string {
	if s.Discriminator == nil {
		return ""
	}
	return strings.TrimSpace(s.Discriminator.PropertyName)
}

func lastRefSegment(ref string) string {
	parts := strings.Split(ref, "/")
	return parts[len(parts)-1]
}

// buildOperations flattens the path table into a stable operation list:
// paths sorted lexically, methods in a fixed order, path-level parameters
// merged under operation-level ones.
func buildOperations(doc *openapi3.T) []Operation {
	if doc.Paths == nil {
		return nil
	}
	pathKeys := make([]string, 0, len(doc.Paths))
	for p := range doc.Paths {
		pathKeys = append(pathKeys, p)
	}
	sort.Strings(pathKeys)

	var out []Operation
	for _, p := range pathKeys {
		item := doc.Paths[p]
		if item == nil {
			continue
		}
		base := make(map[string]Parameter)
		for _, pref := range item.Parameters {
			if pm, ok := toParameter(pref); ok {
				base[pm.In+":"+pm.Name] = pm
			}
		}

		methods := []struct {
			m  string
			op *openapi3.Operation
		}{
			{"get", item.Get},
			{"post", item.Post},
			{"put", item.Put},
			{"delete", item.Delete},
			{"patch", item.Patch},
			{"head", item.Head},
			{"options", item.Options},
			{"trace", item.Trace},
		}
		for _, pair := range methods {
			if pair.op == nil {
				continue
			}
			merged := make(map[string]Parameter, len(base))
			for k, v := range base {
				merged[k] = v
			}
			for _, pref := range pair.op.Parameters {
				if pm, ok := toParameter(pref); ok {
					merged[pm.In+":"+pm.Name] = pm
				}
			}
			params := make([]Parameter, 0, len(merged))
			for _, v := range merged {
				params = append(params, v)
			}
			sort.Slice(params, func(i, j int) bool {
				if params[i].In == params[j].In {
					return params[i].Name < params[j].Name
				}
				return params[i].In < params[j].In
			})

			op := Operation{
				ID:         strings.TrimSpace(pair.op.OperationID),
				Method:     pair.m,
				Path:       p,
				Deprecated: pair.op.Deprecated,
				Parameters: params,
			}
			for _, t := range pair.op.Tags {
				if t = strings.TrimSpace(t); t != "" {
					op.Tags = append(op.Tags, t)
				}
			}
			if pair.op.RequestBody != nil && pair.op.RequestBody.Value != nil {
				op.RequestBody = toMediaList(pair.op.RequestBody.Value.Content)
			}
			if pair.op.Responses != nil {
				codes := make([]string, 0, len(pair.op.Responses))
				for c := range pair.op.Responses {
					codes = append(codes, c)
				}
				sort.Strings(codes)
				for _, code := range codes {
					rref := pair.op.Responses[code]
					if rref == nil || rref.Value == nil {
						continue
					}
					op.Responses = append(op.Responses, toMediaList(rref.Value.Content)...)
				}
			}
			out = append(out, op)
		}
	}
	return out
}

func toParameter(pref *openapi3.ParameterRef) (Parameter, bool) {
	if pref == nil || pref.Value == nil {
		return Parameter{}, false
	}
	p := pref.Value
	pm := Parameter{
		Name:     strings.TrimSpace(p.Name),
		In:       strings.TrimSpace(p.In),
		Required: p.Required,
	}
	if p.Schema != nil {
		pm.Schema = toNode(p.Schema, nil)
	}
	return pm, true
}

func toMediaList(content openapi3.Content) []Media {
	if len(content) == 0 {
		return nil
	}
	keys := make([]string, 0, len(content))
	for k := range content {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Media, 0, len(keys))
	for _, mime := range keys {
		mt := content[mime]
		if mt == nil {
			continue
		}
		out = append(out, Media{MIME: mime, Schema: toNode(mt.Schema, nil)})
	}
	return out
}

// validateRefs checks every reference in component schemas and operations
// against the declared schema names. A broken reference fails fast here
// instead of surfacing as an undefined identifier in generated code.
func validateRefs(d *Document) error {
	check := func(owner string, n *SchemaNode) error {
		var walk func(n *SchemaNode) error
		walk = func(n *SchemaNode) error {
			if n == nil {
				return nil
			}
			if n.Kind == KindRef {
				if _, ok := d.Schemas[n.Ref]; !ok {
					return &Error{
						Code:    SpecValidationError,
						Message: fmt.Sprintf("spec: %s references undeclared schema %q", owner, n.Ref),
						Schema:  owner,
						Ref:     n.Ref,
					}
				}
				return nil
			}
			if err := walk(n.Items); err != nil {
				return err
			}
			for _, p := range n.Properties {
				if err := walk(p.Schema); err != nil {
					return err
				}
			}
			for _, b := range n.Branches {
				if err := walk(b); err != nil {
					return err
				}
			}
			return nil
		}
		return walk(n)
	}

	for _, name := range d.SchemaNames {
		if err := check("schema "+name, d.Schemas[name]); err != nil {
			return err
		}
	}
	for _, op := range d.Operations {
		owner := op.Method + " " + op.Path
		for _, pm := range op.Parameters {
			if err := check("operation "+owner, pm.Schema); err != nil {
				return err
			}
		}
		for _, m := range op.RequestBody {
			if err := check("operation "+owner, m.Schema); err != nil {
				return err
			}
		}
		for _, m := range op.Responses {
			if err := check("operation "+owner, m.Schema); err != nil {
				return err
			}
		}
	}
	return nil
}
