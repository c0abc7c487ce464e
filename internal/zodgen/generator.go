package zodgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/CeriosTesting/openapi-to-zod/internal/spec"
)

type declKind int

const (
	declSchema declKind = iota
	declEnum
	declAlias
)

// declaration is one emittable unit: a native enum, a schema with its
// inferred type, or a plain alias. Created once, never mutated afterwards.
type declaration struct {
	name       string
	kind       declKind
	comment    string
	nativeCode string
	schemaCode string
	typeCode   string
}

// Generator runs the full pipeline for one document and one option set:
// parse → analyze usage → enums → component schemas → parameter schemas →
// topological order → render. One instance serves one input document.
type Generator struct {
	opts Options
	doc  *spec.Document

	usage    map[string]Usage
	cycles   map[string]bool
	reqOpts  ResolvedOptions
	respOpts ResolvedOptions

	b     *builder
	names []string
	decls map[string]*declaration

	warnings   []string
	warnedMIME map[string]bool
}

// New loads and validates the input document, failing fast on a missing
// input path, an unreadable file, an unparsable document, or an unresolved
// $ref, all before any code is emitted.
func New(ctx context.Context, opts Options) (*Generator, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.Input) == "" {
		return nil, spec.NewError(spec.ConfigurationError, "generator: input path is required")
	}
	parsed, raw, err := spec.Load(ctx, opts.Input)
	if err != nil {
		return nil, err
	}
	doc, err := spec.Build(parsed, raw)
	if err != nil {
		return nil, err
	}
	return NewFromDocument(doc, opts)
}

// NewFromDocument wraps an already-normalized document. Used by tests and by
// callers that share one parsed document across passes.
func NewFromDocument(doc *spec.Document, opts Options) (*Generator, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if doc == nil || len(doc.SchemaNames) == 0 {
		return nil, spec.NewError(spec.SpecValidationError, "generator: document declares no schemas")
	}
	return &Generator{opts: opts, doc: doc}, nil
}

// Warnings returns the non-fatal conditions collected by the last Generate
// call.
func (g *Generator) Warnings() []string { return g.warnings }

func (g *Generator) warnf(format string, args ...any) {
	g.warnings = append(g.warnings, fmt.Sprintf(format, args...))
}

// Generate runs every pass and returns the rendered TypeScript source.
// Re-running on the same generator produces a byte-identical string.
func (g *Generator) Generate() (string, error) {
	g.reset()

	g.usage, g.cycles = analyzeUsage(g.doc, g.opts.Filter, g.warnf)
	g.reqOpts = resolveContext(g.opts, g.opts.Request, false)
	g.respOpts = resolveContext(g.opts, g.opts.Response, true)
	g.b = newBuilder(g.doc, g.cycles, g.opts.SchemaPrefix, g.opts.SchemaSuffix, g.warnf)

	g.checkContentTypes()

	if err := g.generateEnums(); err != nil {
		return "", err
	}
	if err := g.generateSchemas(); err != nil {
		return "", err
	}
	if err := g.generateParameterSchemas(); err != nil {
		return "", err
	}

	ordered := orderDeclarations(g.names, g.b.deps, func(name string) bool {
		d := g.decls[name]
		return d != nil && d.kind == declAlias
	})
	return g.render(ordered), nil
}

// WriteFile generates and writes the output atomically, creating missing
// parent directories. Nothing touches the destination until generation has
// fully succeeded in memory.
func (g *Generator) WriteFile() error {
	out := strings.TrimSpace(g.opts.Output)
	if out == "" {
		return spec.NewError(spec.ConfigurationError, "generator: output path is required for file generation")
	}
	code, err := g.Generate()
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(out)
	if err != nil {
		return spec.NewError(spec.FileOperationError, "resolve output path: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return spec.NewError(spec.FileOperationError, "create output directory: %v", err)
	}
	tmp := abs + ".tmp"
	if err := os.WriteFile(tmp, []byte(code), 0o644); err != nil {
		return spec.NewError(spec.FileOperationError, "write %s: %v", abs, err)
	}
	if err := os.Rename(tmp, abs); err != nil {
		_ = os.Remove(tmp)
		return spec.NewError(spec.FileOperationError, "place %s: %v", abs, err)
	}
	return nil
}

func (g *Generator) reset() {
	g.names = nil
	g.decls = make(map[string]*declaration)
	g.warnings = nil
	g.warnedMIME = make(map[string]bool)
}

// optionsFor picks the resolved option snapshot for a schema by its usage:
// request-only schemas use request options, everything else (response, both,
// unclassified) uses the response snapshot with its mandatory inferred mode.
func (g *Generator) optionsFor(name string) ResolvedOptions {
	if g.usage[name] == UsageRequest {
		return g.reqOpts
	}
	return g.respOpts
}

// checkContentTypes surfaces a one-time warning per unrecognized MIME type
// appearing in included operations.
func (g *Generator) checkContentTypes() {
	for _, op := range g.doc.Operations {
		if !ShouldIncludeOperation(op, g.opts.Filter) {
			continue
		}
		for _, m := range append(append([]spec.Media{}, op.RequestBody...), op.Responses...) {
			kind := ClassifyContentType(m.MIME, StrategyJSON)
			if !kind.Recognized && m.MIME != "" && !g.warnedMIME[m.MIME] {
				g.warnedMIME[m.MIME] = true
				g.warnf("unrecognized content type %q; falling back to %s handling", m.MIME, kind.Strategy)
			}
		}
	}
}

func (g *Generator) addDeclaration(d *declaration) {
	g.names = append(g.names, d.name)
	g.decls[d.name] = d
}

// generateEnums is the first pass: every component schema that is itself an
// enum.
func (g *Generator) generateEnums() error {
	for _, name := range g.doc.SchemaNames {
		node := g.doc.Schemas[name]
		if node == nil || node.Kind != spec.KindEnum {
			continue
		}
		o := g.optionsFor(name)
		decl := generateEnum(name, node.Enum, o)
		g.b.stats.Enums++
		g.addDeclaration(&declaration{
			name:       name,
			kind:       declEnum,
			comment:    g.declComment(node, o),
			nativeCode: decl.NativeCode,
			schemaCode: decl.SchemaCode,
			typeCode:   decl.TypeCode,
		})
	}
	return nil
}

// generateSchemas is the second pass: every remaining component schema.
func (g *Generator) generateSchemas() error {
	for _, name := range g.doc.SchemaNames {
		node := g.doc.Schemas[name]
		if node == nil || node.Kind == spec.KindEnum {
			continue
		}
		o := g.optionsFor(name)

		if node.Kind == spec.KindRef {
			// A top-level pure reference is a simple alias; the orderer
			// defers these to the end of the file.
			g.b.addDep(name, node.Ref)
			g.addDeclaration(&declaration{
				name:    name,
				kind:    declAlias,
				comment: g.declComment(node, o),
				schemaCode: fmt.Sprintf("export const %s = %s;",
					SchemaConstName(name, o.Prefix, o.Suffix),
					SchemaConstName(node.Ref, o.Prefix, o.Suffix)),
				typeCode: fmt.Sprintf("export type %s = z.infer<typeof %s>;",
					TypeName(name, o.Prefix, o.Suffix),
					SchemaConstName(name, o.Prefix, o.Suffix)),
			})
			continue
		}

		code, err := g.safeShape(node, name, o)
		if err != nil {
			return err
		}
		g.b.stats.Schemas++
		g.addDeclaration(&declaration{
			name:    name,
			kind:    declSchema,
			comment: g.declComment(node, o),
			schemaCode: fmt.Sprintf("export const %s = %s;",
				SchemaConstName(name, o.Prefix, o.Suffix), code),
			typeCode: fmt.Sprintf("export type %s = z.infer<typeof %s>;",
				TypeName(name, o.Prefix, o.Suffix),
				SchemaConstName(name, o.Prefix, o.Suffix)),
		})
	}
	return nil
}

// generateParameterSchemas is the third pass: one pseudo-schema per included
// operation with an operationId and at least one query or header parameter.
func (g *Generator) generateParameterSchemas() error {
	// Warn once per ignore pattern that matches no header anywhere.
	g.checkIgnorePatterns()

	for _, op := range g.doc.Operations {
		if !ShouldIncludeOperation(op, g.opts.Filter) || op.ID == "" {
			continue
		}
		var query, header []spec.Parameter
		for _, p := range op.Parameters {
			switch p.In {
			case "query":
				query = append(query, p)
			case "header":
				header = append(header, p)
			}
		}
		header = FilterHeaders(header, g.opts.IgnoreHeaders, nil)

		if err := g.addParameterSchema(op, query, "QueryParams"); err != nil {
			return err
		}
		if err := g.addParameterSchema(op, header, "HeaderParams"); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) addParameterSchema(op spec.Operation, params []spec.Parameter, suffix string) error {
	if len(params) == 0 {
		return nil
	}
	name := ToIdentifier(op.ID, PascalCase, IdentOptions{}) + suffix
	if _, exists := g.decls[name]; exists {
		g.warnf("parameter schema %s collides with an existing declaration; skipping", name)
		return nil
	}

	node := &spec.SchemaNode{Kind: spec.KindObject, Required: make(map[string]bool)}
	for _, p := range params {
		node.Properties = append(node.Properties, spec.Property{Name: p.Name, Schema: p.Schema})
		if p.Required {
			node.Required[p.Name] = true
		}
	}

	code, err := g.safeShape(node, name, g.reqOpts)
	if err != nil {
		return err
	}
	g.b.stats.Schemas++
	o := g.reqOpts
	g.addDeclaration(&declaration{
		name: name,
		kind: declSchema,
		schemaCode: fmt.Sprintf("export const %s = %s;",
			SchemaConstName(name, o.Prefix, o.Suffix), code),
		typeCode: fmt.Sprintf("export type %s = z.infer<typeof %s>;",
			TypeName(name, o.Prefix, o.Suffix),
			SchemaConstName(name, o.Prefix, o.Suffix)),
	})
	return nil
}

func (g *Generator) checkIgnorePatterns() {
	if len(g.opts.IgnoreHeaders) == 0 {
		return
	}
	var all []spec.Parameter
	for _, op := range g.doc.Operations {
		if !ShouldIncludeOperation(op, g.opts.Filter) {
			continue
		}
		for _, p := range op.Parameters {
			if p.In == "header" {
				all = append(all, p)
			}
		}
	}
	FilterHeaders(all, g.opts.IgnoreHeaders, g.warnf)
}

// safeShape converts a shape-generation panic into an attributable error so
// an internal failure propagates with the schema name attached.
func (g *Generator) safeShape(node *spec.SchemaNode, name string, o ResolvedOptions) (code string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = spec.WrapSchema(name, fmt.Errorf("%v", r))
		}
	}()
	return g.b.shape(node, name, o, 0), nil
}

func (g *Generator) declComment(node *spec.SchemaNode, o ResolvedOptions) string {
	if !o.IncludeDescriptions || node.Description == "" {
		return ""
	}
	return "/** " + strings.ReplaceAll(node.Description, "*/", "*\\/") + " */"
}

// render concatenates the ordered declarations: optional statistics header,
// native enum block, then every declaration with its derived type
// immediately following its validator.
func (g *Generator) render(ordered []string) string {
	var out strings.Builder
	out.WriteString("// Generated by openapi-to-zod. DO NOT EDIT.\n")
	out.WriteString("import { z } from " + strconv.Quote("zod") + ";\n\n")

	if g.opts.ShowStats {
		g.b.stats.Cycles = len(g.cycles)
		out.WriteString("// Generation statistics:\n")
		fmt.Fprintf(&out, "//   schemas: %d\n", g.b.stats.Schemas)
		fmt.Fprintf(&out, "//   enums: %d\n", g.b.stats.Enums)
		fmt.Fprintf(&out, "//   circular references: %d\n", g.b.stats.Cycles)
		fmt.Fprintf(&out, "//   discriminated unions: %d\n", g.b.stats.DiscriminatedUnions)
		fmt.Fprintf(&out, "//   constrained properties: %d\n", g.b.stats.ConstrainedProperties)
		out.WriteString("\n")
	}

	for _, name := range ordered {
		d := g.decls[name]
		if d != nil && d.nativeCode != "" {
			out.WriteString(d.nativeCode)
			out.WriteString("\n\n")
		}
	}

	for _, name := range ordered {
		d := g.decls[name]
		if d == nil {
			continue
		}
		if d.comment != "" {
			out.WriteString(d.comment)
			out.WriteString("\n")
		}
		out.WriteString(d.schemaCode)
		out.WriteString("\n")
		if d.typeCode != "" {
			out.WriteString(d.typeCode)
			out.WriteString("\n")
		}
		out.WriteString("\n")
	}
	return strings.TrimRight(out.String(), "\n") + "\n"
}

// Document exposes the normalized input for collaborating emitters.
func (g *Generator) Document() *spec.Document { return g.doc }

// Options returns the raw option set the generator was built with.
func (g *Generator) Options() Options { return g.opts }
