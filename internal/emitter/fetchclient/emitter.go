// Package fetchclient renders a typed fetch-based HTTP client class whose
// method signatures and response validation come from the generated Zod
// schema module.
package fetchclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/CeriosTesting/openapi-to-zod/internal/emitter"
	"github.com/CeriosTesting/openapi-to-zod/internal/spec"
	"github.com/CeriosTesting/openapi-to-zod/internal/zodgen"
)

// Options controls the fetch client emitter.
type Options struct {
	OutFile       string // required for Emit
	SchemasModule string // import path of the generated schema file; default "./schemas"
	ClassName     string // default "ApiClient"
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.SchemasModule) == "" {
		o.SchemasModule = "./schemas"
	}
	if strings.TrimSpace(o.ClassName) == "" {
		o.ClassName = "ApiClient"
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
		return nil, spec.NewError(spec.ConfigurationError, "fetchclient: output file is required")
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
	if imp := plan.ImportClause(opts.SchemasModule); imp != "" {
		b.WriteString(imp)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "export class %s {\n", opts.ClassName)
	b.WriteString("  constructor(\n")
	b.WriteString("    private readonly baseUrl: string,\n")
	b.WriteString("    private readonly fetchImpl: typeof fetch = fetch,\n")
	b.WriteString("  ) {}\n")

	res := &Result{ClassName: opts.ClassName}
	for _, m := range plan.Methods {
		b.WriteString("\n")
		writeMethod(&b, m)
		res.Methods = append(res.Methods, m.Name)
	}
	b.WriteString("}\n")
	return b.String(), res, nil
}

func writeMethod(b *strings.Builder, m emitter.Method) {
	if m.Deprecated {
		b.WriteString("  /** @deprecated */\n")
	}
	fmt.Fprintf(b, "  async %s(%s): Promise<%s> {\n", m.Name, signature(m), returnType(m))

	fmt.Fprintf(b, "    const url = new URL(`%s`, this.baseUrl);\n", emitter.InterpolatePath(m.Path, m.PathParams))
	if m.QueryType != "" {
		b.WriteString("    if (query) {\n")
		b.WriteString("      for (const [key, value] of Object.entries(query)) {\n")
		b.WriteString("        if (value !== undefined) url.searchParams.set(key, String(value));\n")
		b.WriteString("      }\n")
		b.WriteString("    }\n")
	}

	var initParts []string
	initParts = append(initParts, "...init", fmt.Sprintf("method: %q", m.HTTPMethod))
	if m.HeaderType != "" && m.BodySchema != "" {
		initParts = append(initParts, `headers: { "Content-Type": "application/json", ...headers }`)
	} else if m.HeaderType != "" {
		initParts = append(initParts, "headers: { ...headers }")
	} else if m.BodySchema != "" {
		initParts = append(initParts, `headers: { "Content-Type": "application/json" }`)
	}
	if m.BodySchema != "" {
		initParts = append(initParts, fmt.Sprintf("body: JSON.stringify(%s.parse(body))", m.BodySchema))
	}
	fmt.Fprintf(b, "    const res = await this.fetchImpl(url.toString(), { %s });\n", strings.Join(initParts, ", "))

	fmt.Fprintf(b, "    if (!res.ok) {\n")
	fmt.Fprintf(b, "      throw new Error(`%s failed: ${res.status} ${res.statusText}`);\n", m.Name)
	b.WriteString("    }\n")

	switch {
	case m.ResponseSchema != "":
		fmt.Fprintf(b, "    return %s.parse(await res.json());\n", m.ResponseSchema)
	case m.Strategy == zodgen.StrategyText:
		b.WriteString("    return await res.text();\n")
	case m.Strategy == zodgen.StrategyBody:
		b.WriteString("    return await res.blob();\n")
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
	args = append(args, "init?: RequestInit")
	return strings.Join(args, ", ")
}

func returnType(m emitter.Method) string {
	switch {
	case m.ResponseType != "":
		return m.ResponseType
	case m.Strategy == zodgen.StrategyText:
		return "string"
	case m.Strategy == zodgen.StrategyBody:
		return "Blob"
	default:
		return "unknown"
	}
}
