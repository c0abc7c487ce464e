// Package emitter holds the shared operation plan the client emitters render
// from. The plan never re-derives naming: every identifier comes from the
// zodgen helpers, so a client always agrees with the schema file it imports.
package emitter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/CeriosTesting/openapi-to-zod/internal/spec"
	"github.com/CeriosTesting/openapi-to-zod/internal/zodgen"
)

// PathParam is one templated segment of an operation path.
type PathParam struct {
	// Raw is the parameter name as it appears between braces in the path.
	Raw string
	// Ident is the TypeScript argument name.
	Ident string
}

// Method is one callable operation in a generated client class.
type Method struct {
	Name       string // TypeScript method name
	HTTPMethod string // upper-case verb
	Path       string // original templated path
	PathParams []PathParam
	// QueryType / HeaderType are the synthetic parameter type names, empty
	// when the operation declares no such parameters.
	QueryType  string
	HeaderType string
	// BodySchema / BodyType describe a JSON request body resolving to a named
	// schema; the client validates outgoing bodies before sending.
	BodySchema string
	BodyType   string
	// ResponseSchema is the Zod constant validating the response body; empty
	// when the response does not resolve to a named schema.
	ResponseSchema string
	// ResponseType is the inferred type returned to the caller.
	ResponseType string
	Strategy     zodgen.ParseStrategy
	Deprecated   bool
}

// Plan is the emitter-facing view of a normalized document.
type Plan struct {
	Methods []Method
	// ValueImports and TypeImports are the sorted identifier lists a client
	// file needs from the generated schema module.
	ValueImports []string
	TypeImports  []string
}

// BuildPlan flattens the included operations into renderable methods. Options
// carry the same prefix/suffix and filter settings the schema generation ran
// with; mismatched settings would produce imports that do not exist.
func BuildPlan(doc *spec.Document, opts zodgen.Options) (*Plan, error) {
	if doc == nil {
		return nil, spec.NewError(spec.ConfigurationError, "emitter: nil document")
	}
	prefix, suffix := opts.SchemaPrefix, opts.SchemaSuffix

	plan := &Plan{}
	values := make(map[string]bool)
	types := make(map[string]bool)

	for _, op := range doc.Operations {
		if !zodgen.ShouldIncludeOperation(op, opts.Filter) || op.ID == "" {
			continue
		}
		m := Method{
			Name:       zodgen.ToIdentifier(op.ID, zodgen.CamelCase, zodgen.IdentOptions{}),
			HTTPMethod: strings.ToUpper(op.Method),
			Path:       op.Path,
			Deprecated: op.Deprecated,
			Strategy:   zodgen.StrategyJSON,
		}

		var query, header []spec.Parameter
		for _, p := range op.Parameters {
			switch p.In {
			case "path":
				m.PathParams = append(m.PathParams, PathParam{
					Raw:   p.Name,
					Ident: zodgen.ToIdentifier(p.Name, zodgen.CamelCase, zodgen.IdentOptions{}),
				})
			case "query":
				query = append(query, p)
			case "header":
				header = append(header, p)
			}
		}
		header = zodgen.FilterHeaders(header, opts.IgnoreHeaders, nil)

		base := zodgen.ToIdentifier(op.ID, zodgen.PascalCase, zodgen.IdentOptions{})
		if len(query) > 0 {
			m.QueryType = zodgen.TypeName(base+"QueryParams", prefix, suffix)
			types[m.QueryType] = true
		}
		if len(header) > 0 {
			m.HeaderType = zodgen.TypeName(base+"HeaderParams", prefix, suffix)
			types[m.HeaderType] = true
		}

		for _, media := range op.RequestBody {
			kind := zodgen.ClassifyContentType(media.MIME, zodgen.StrategyJSON)
			if kind.Strategy == zodgen.StrategyJSON && media.Schema != nil && media.Schema.Kind == spec.KindRef {
				m.BodySchema = zodgen.SchemaConstName(media.Schema.Ref, prefix, suffix)
				m.BodyType = zodgen.TypeName(media.Schema.Ref, prefix, suffix)
				values[m.BodySchema] = true
				types[m.BodyType] = true
				break
			}
		}

		if media, ok := pickResponse(op); ok {
			m.Strategy = zodgen.ClassifyContentType(media.MIME, zodgen.StrategyJSON).Strategy
			if m.Strategy == zodgen.StrategyJSON && media.Schema != nil && media.Schema.Kind == spec.KindRef {
				m.ResponseSchema = zodgen.SchemaConstName(media.Schema.Ref, prefix, suffix)
				m.ResponseType = zodgen.TypeName(media.Schema.Ref, prefix, suffix)
				values[m.ResponseSchema] = true
				types[m.ResponseType] = true
			}
		}

		plan.Methods = append(plan.Methods, m)
	}

	plan.ValueImports = sortedKeys(values)
	plan.TypeImports = sortedKeys(types)
	return plan, nil
}

// pickResponse selects the media entry a client validates against: the first
// one carrying a named schema reference, else the first entry.
func pickResponse(op spec.Operation) (spec.Media, bool) {
	for _, media := range op.Responses {
		if media.Schema != nil && media.Schema.Kind == spec.KindRef {
			return media, true
		}
	}
	if len(op.Responses) > 0 {
		return op.Responses[0], true
	}
	return spec.Media{}, false
}

// ImportClause renders the import statement for the schema module, or ""
// when the plan references nothing from it.
func (p *Plan) ImportClause(module string) string {
	parts := make([]string, 0, len(p.ValueImports)+len(p.TypeImports))
	parts = append(parts, p.ValueImports...)
	for _, t := range p.TypeImports {
		parts = append(parts, "type "+t)
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("import { %s } from %q;", strings.Join(parts, ", "), module)
}

// InterpolatePath rewrites {param} segments into template-literal insertions
// using each parameter's argument identifier.
func InterpolatePath(path string, params []PathParam) string {
	out := path
	for _, p := range params {
		out = strings.ReplaceAll(out, "{"+p.Raw+"}",
			fmt.Sprintf("${encodeURIComponent(String(%s))}", p.Ident))
	}
	return out
}

// WriteFile places content atomically, creating parent directories first.
func WriteFile(path, content string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return spec.NewError(spec.FileOperationError, "resolve output path: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return spec.NewError(spec.FileOperationError, "create output directory: %v", err)
	}
	tmp := abs + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return spec.NewError(spec.FileOperationError, "write %s: %v", abs, err)
	}
	if err := os.Rename(tmp, abs); err != nil {
		_ = os.Remove(tmp)
		return spec.NewError(spec.FileOperationError, "place %s: %v", abs, err)
	}
	return nil
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
