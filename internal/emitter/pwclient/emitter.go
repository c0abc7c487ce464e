// Package pwclient renders a typed client class over Playwright's
// APIRequestContext for API-level test suites.
package pwclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/CeriosTesting/openapi-to-zod/internal/emitter"
	"github.com/CeriosTesting/openapi-to-zod/internal/spec"
	"github.com/CeriosTesting/openapi-to-zod/internal/zodgen"
)

// Options controls the Playwright client emitter.
type Options struct {
	OutFile       string
	SchemasModule string // default "./schemas"
	ClassName     string // default "ApiTestClient"
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.SchemasModule) == "" {
		o.SchemasModule = "./schemas"
	}
	if strings.TrimSpace(o.ClassName) == "" {
		o.ClassName = "ApiTestClient"
	}
	return o
}

// Result reports what was rendered.
type Result struct {
	ClassName string
	Methods   []string
}

// Emit renders the client and writes it atomically to opts.OutFile.
func Emit(ctx context.Context, doc *spec.Document, gen zodgen.Options, opts Options) (*Result, error) {
	_ = ctx
	opts = opts.withDefaults()
	if strings.TrimSpace(opts.OutFile) == "" {
		return nil, spec.NewError(spec.ConfigurationError, "pwclient: output file is required")
	}
	code, res, err := render(doc, gen, opts)
	if err != nil {
		return nil, err
	}
	if err := emitter.WriteFile(opts.OutFile, code); err != nil {
		return nil, err
	}
	return res, nil
}

// Render returns the client source without writing it.
func Render(doc *spec.Document, gen zodgen.Options, opts Options) (string, error) {
	code, _, err := render(doc, gen, opts.withDefaults())
	return code, err
}

func render(doc *spec.Document, gen zodgen.Options, opts Options) (string, *Result, error) {
	plan, err := emitter.BuildPlan(doc, gen)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	b.WriteString("// Generated by openapi-to-zod. DO NOT EDIT.\n")
	b.WriteString("import type { APIRequestContext } from \"@playwright/test\";\n")
	if imp := plan.ImportClause(opts.SchemasModule); imp != "" {
		b.WriteString(imp)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if needsCompact(plan) {
		// Playwright rejects undefined values in params/headers records.
		b.WriteString("function compact(record?: Record<string, unknown>): Record<string, string> {\n")
		b.WriteString("  const out: Record<string, string> = {};\n")
		b.WriteString("  if (record) {\n")
		b.WriteString("    for (const [key, value] of Object.entries(record)) {\n")
		b.WriteString("      if (value !== undefined) out[key] = String(value);\n")
		b.WriteString("    }\n")
		b.WriteString("  }\n")
		b.WriteString("  return out;\n")
		b.WriteString("}\n\n")
	}

	fmt.Fprintf(&b, "export class %s {\n", opts.ClassName)
	b.WriteString("  constructor(private readonly request: APIRequestContext) {}\n")

	res := &Result{ClassName: opts.ClassName}
	for _, m := range plan.Methods {
		b.WriteString("\n")
		writeMethod(&b, m)
		res.Methods = append(res.Methods, m.Name)
	}
	b.WriteString("}\n")
	return b.String(), res, nil
}

func needsCompact(plan *emitter.Plan) bool {
	for _, m := range plan.Methods {
		if m.QueryType != "" || m.HeaderType != "" {
			return true
		}
	}
	return false
}

func writeMethod(b *strings.Builder, m emitter.Method) {
	if m.Deprecated {
		b.WriteString("  /** @deprecated */\n")
	}
	fmt.Fprintf(b, "  async %s(%s): Promise<%s> {\n", m.Name, signature(m), returnType(m))

	var optParts []string
	optParts = append(optParts, fmt.Sprintf("method: %q", m.HTTPMethod))
	if m.QueryType != "" {
		optParts = append(optParts, "params: compact(query)")
	}
	if m.HeaderType != "" {
		optParts = append(optParts, "headers: compact(headers)")
	}
	if m.BodySchema != "" {
		optParts = append(optParts, fmt.Sprintf("data: %s.parse(body)", m.BodySchema))
	}

	fmt.Fprintf(b, "    const res = await this.request.fetch(`%s`, { %s });\n",
		emitter.InterpolatePath(m.Path, m.PathParams), strings.Join(optParts, ", "))
	fmt.Fprintf(b, "    if (!res.ok()) {\n")
	fmt.Fprintf(b, "      throw new Error(`%s failed: ${res.status()} ${res.statusText()}`);\n", m.Name)
	b.WriteString("    }\n")

	switch {
	case m.ResponseSchema != "":
		fmt.Fprintf(b, "    return %s.parse(await res.json());\n", m.ResponseSchema)
	case m.Strategy == zodgen.StrategyText:
		b.WriteString("    return await res.text();\n")
	case m.Strategy == zodgen.StrategyBody:
		b.WriteString("    return await res.body();\n")
	default:
		b.WriteString("    return await res.json();\n")
	}
	b.WriteString("  }\n")
}

func signature(m emitter.Method) string {
	var args []string
	for _, p := range m.PathParams {
		args = append(args, p.Ident+": string | number")
	}
	if m.BodyType != "" {
		args = append(args, "body: "+m.BodyType)
	}
	if m.QueryType != "" {
		args = append(args, "query?: "+m.QueryType)
	}
	if m.HeaderType != "" {
		args = append(args, "headers?: "+m.HeaderType)
	}
	return strings.Join(args, ", ")
}

func returnType(m emitter.Method) string {
	switch {
	case m.ResponseType != "":
		return m.ResponseType
	case m.Strategy == zodgen.StrategyText:
		return "string"
	case m.Strategy == zodgen.StrategyBody:
		return "Buffer"
	default:
		return "unknown"
	}
}
