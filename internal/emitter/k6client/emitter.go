// Package k6client renders a typed client class for k6 load-test scripts.
// k6 scripts run synchronously against the k6/http module, so methods return
// parsed values directly instead of promises.
package k6client

import (
	"context"
	"fmt"
	"strings"

	"github.com/CeriosTesting/openapi-to-zod/internal/emitter"
	"github.com/CeriosTesting/openapi-to-zod/internal/spec"
	"github.com/CeriosTesting/openapi-to-zod/internal/zodgen"
)

// Options controls the k6 client emitter.
type Options struct {
	OutFile       string
	SchemasModule string // default "./schemas"
	ClassName     string // default "ApiLoadClient"
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.SchemasModule) == "" {
		o.SchemasModule = "./schemas"
	}
	if strings.TrimSpace(o.ClassName) == "" {
		o.ClassName = "ApiLoadClient"
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
		return nil, spec.NewError(spec.ConfigurationError, "k6client: output file is required")
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
	b.WriteString("import http, { type Params } from \"k6/http\";\n")
	if imp := plan.ImportClause(opts.SchemasModule); imp != "" {
		b.WriteString(imp)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	// k6 lacks the URL global; query strings are assembled by hand.
	b.WriteString("function buildQuery(query?: Record<string, unknown>): string {\n")
	b.WriteString("  if (!query) return \"\";\n")
	b.WriteString("  const parts: string[] = [];\n")
	b.WriteString("  for (const key of Object.keys(query)) {\n")
	b.WriteString("    const value = query[key];\n")
	b.WriteString("    if (value !== undefined) {\n")
	b.WriteString("      parts.push(`${encodeURIComponent(key)}=${encodeURIComponent(String(value))}`);\n")
	b.WriteString("    }\n")
	b.WriteString("  }\n")
	b.WriteString("  return parts.length > 0 ? `?${parts.join(\"&\")}` : \"\";\n")
	b.WriteString("}\n\n")

	fmt.Fprintf(&b, "export class %s {\n", opts.ClassName)
	b.WriteString("  constructor(\n")
	b.WriteString("    private readonly baseUrl: string,\n")
	b.WriteString("    private readonly defaultParams: Params = {},\n")
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
	fmt.Fprintf(b, "  %s(%s): %s {\n", m.Name, signature(m), returnType(m))

	url := fmt.Sprintf("`${this.baseUrl}%s", emitter.InterpolatePath(m.Path, m.PathParams))
	if m.QueryType != "" {
		url += "${buildQuery(query)}"
	}
	url += "`"

	body := "null"
	if m.BodySchema != "" {
		body = fmt.Sprintf("JSON.stringify(%s.parse(body))", m.BodySchema)
	}

	var paramParts []string
	paramParts = append(paramParts, "...this.defaultParams", "...params")
	switch {
	case m.HeaderType != "" && m.BodySchema != "":
		paramParts = append(paramParts, `headers: { "Content-Type": "application/json", ...headers, ...params?.headers }`)
	case m.HeaderType != "":
		paramParts = append(paramParts, "headers: { ...headers, ...params?.headers }")
	case m.BodySchema != "":
		paramParts = append(paramParts, `headers: { "Content-Type": "application/json", ...params?.headers }`)
	}

	fmt.Fprintf(b, "    const res = http.request(%q, %s, %s, { %s });\n",
		m.HTTPMethod, url, body, strings.Join(paramParts, ", "))
	fmt.Fprintf(b, "    if (res.status >= 400) {\n")
	fmt.Fprintf(b, "      throw new Error(`%s failed: ${res.status}`);\n", m.Name)
	b.WriteString("    }\n")

	switch {
	case m.ResponseSchema != "":
		fmt.Fprintf(b, "    return %s.parse(res.json());\n", m.ResponseSchema)
	case m.Strategy == zodgen.StrategyText:
		b.WriteString("    return String(res.body);\n")
	case m.Strategy == zodgen.StrategyBody:
		b.WriteString("    return res.body;\n")
	default:
		b.WriteString("    return res.json();\n")
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
	args = append(args, "params?: Params")
	return strings.Join(args, ", ")
}

func returnType(m emitter.Method) string {
	switch {
	case m.ResponseType != "":
		return m.ResponseType
	case m.Strategy == zodgen.StrategyText:
		return "string"
	case m.Strategy == zodgen.StrategyBody:
		return "unknown"
	default:
		return "unknown"
	}
}
