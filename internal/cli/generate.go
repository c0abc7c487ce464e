package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/CeriosTesting/openapi-to-zod/internal/batch"
	genspec "github.com/CeriosTesting/openapi-to-zod/internal/spec"
	"github.com/CeriosTesting/openapi-to-zod/internal/zodgen"
)

// SpecEntry is one document in a batch config. Empty fields inherit the
// shared settings.
type SpecEntry struct {
	Input        string
	Output       string
	Client       string
	ClientOutput string
}

// GenerateConfig captures all inputs that influence generation after merging
// defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Input        string
	Output       string
	ConfigPath   string
	Client       string
	ClientOutput string

	Prefix              string
	Suffix              string
	DefaultNullable     bool
	IncludeDescriptions bool
	EmptyObjectBehavior string
	NativeEnums         bool
	ShowStats           bool

	IncludeTags       []string
	ExcludeTags       []string
	IncludePaths      []string
	ExcludePaths      []string
	IncludeDeprecated bool
	IgnoreHeaders     []string

	Parallel int
	Verbose  bool

	Specs []SpecEntry
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{EmptyObjectBehavior: "strict", Parallel: 1}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate Zod schemas (and optionally a typed client) from an OpenAPI document",
		Long: "Generate Zod schemas from an OpenAPI/Swagger document. " +
			"Options can be provided via flags, a config file, or defaults; flags win.",
		Example: strings.TrimSpace(`  openapi-to-zod generate --input api.yaml --output src/schemas.ts
  openapi-to-zod generate --input api.yaml --output src/schemas.ts --client fetch --client-output src/client.ts
  openapi-to-zod --config openapi-to-zod.yaml generate`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}
	addGenerateFlags(cmd.Flags())
	return cmd
}

func addGenerateFlags(flags *pflag.FlagSet) {
	flags.StringP("input", "i", "", "Path to the OpenAPI/Swagger document")
	flags.StringP("output", "o", "", "Output file for the generated schemas (derived from input when omitted)")
	flags.String("client", "", "Typed client to emit alongside the schemas (none|fetch|k6|playwright)")
	flags.String("client-output", "", "Output file for the generated client")
	flags.String("prefix", "", "Prefix applied to every generated identifier")
	flags.String("suffix", "", "Suffix applied to every generated identifier")
	flags.Bool("default-nullable", false, "Treat unannotated primitive properties as nullable")
	flags.Bool("include-descriptions", false, "Emit JSDoc comments from schema descriptions")
	flags.String("empty-object-behavior", "", "Shape for empty objects (strict|loose|record)")
	flags.Bool("native-enums", false, "Prefer native TypeScript enums for request-side enum schemas")
	flags.Bool("show-stats", false, "Prepend a generation-statistics comment block")
	flags.StringSlice("include-tags", nil, "Only include operations with these tags (glob patterns)")
	flags.StringSlice("exclude-tags", nil, "Exclude operations with these tags (glob patterns)")
	flags.StringSlice("include-paths", nil, "Only include operations on these paths (glob patterns)")
	flags.StringSlice("exclude-paths", nil, "Exclude operations on these paths (glob patterns)")
	flags.Bool("include-deprecated", false, "Keep deprecated operations")
	flags.StringSlice("ignore-headers", nil, "Drop header parameters matching these glob patterns")
	flags.Int("parallel", 1, "Worker count for batch runs")
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	setString := func(name string, dst *string) error {
		if !flags.Changed(name) {
			return nil
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(value)
		return nil
	}
	setBool := func(name string, dst *bool) error {
		if !flags.Changed(name) {
			return nil
		}
		value, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*dst = value
		return nil
	}
	setSlice := func(name string, dst *[]string) error {
		if !flags.Changed(name) {
			return nil
		}
		value, err := flags.GetStringSlice(name)
		if err != nil {
			return err
		}
		*dst = sanitizeList(value)
		return nil
	}

	for _, p := range []struct {
		name string
		dst  *string
	}{
		{"input", &cfg.Input},
		{"output", &cfg.Output},
		{"client", &cfg.Client},
		{"client-output", &cfg.ClientOutput},
		{"prefix", &cfg.Prefix},
		{"suffix", &cfg.Suffix},
		{"empty-object-behavior", &cfg.EmptyObjectBehavior},
	} {
		if err := setString(p.name, p.dst); err != nil {
			return err
		}
	}
	for _, p := range []struct {
		name string
		dst  *bool
	}{
		{"default-nullable", &cfg.DefaultNullable},
		{"include-descriptions", &cfg.IncludeDescriptions},
		{"native-enums", &cfg.NativeEnums},
		{"show-stats", &cfg.ShowStats},
		{"include-deprecated", &cfg.IncludeDeprecated},
		{"verbose", &cfg.Verbose},
	} {
		if err := setBool(p.name, p.dst); err != nil {
			return err
		}
	}
	for _, p := range []struct {
		name string
		dst  *[]string
	}{
		{"include-tags", &cfg.IncludeTags},
		{"exclude-tags", &cfg.ExcludeTags},
		{"include-paths", &cfg.IncludePaths},
		{"exclude-paths", &cfg.ExcludePaths},
		{"ignore-headers", &cfg.IgnoreHeaders},
	} {
		if err := setSlice(p.name, p.dst); err != nil {
			return err
		}
	}
	if flags.Changed("parallel") {
		value, err := flags.GetInt("parallel")
		if err != nil {
			return err
		}
		cfg.Parallel = value
	}
	return nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Output = strings.TrimSpace(c.Output)
	c.Client = strings.ToLower(strings.TrimSpace(c.Client))
	c.ClientOutput = strings.TrimSpace(c.ClientOutput)
	c.EmptyObjectBehavior = strings.ToLower(strings.TrimSpace(c.EmptyObjectBehavior))
	c.IncludeTags = sanitizeList(c.IncludeTags)
	c.ExcludeTags = sanitizeList(c.ExcludeTags)
	c.IncludePaths = sanitizeList(c.IncludePaths)
	c.ExcludePaths = sanitizeList(c.ExcludePaths)
	c.IgnoreHeaders = sanitizeList(c.IgnoreHeaders)
}

func (c *GenerateConfig) validate() error {
	if c.Input == "" && len(c.Specs) == 0 {
		return newUsageError("generate: --input is required (set via flag, config file, or a specs list)")
	}
	switch c.EmptyObjectBehavior {
	case "", "strict", "loose", "record":
	default:
		return usageErrorf("generate: unsupported --empty-object-behavior %q (allowed: strict, loose, record)", c.EmptyObjectBehavior)
	}
	if _, err := batch.ParseClient(c.Client); err != nil {
		return newUsageError(err.Error())
	}
	for i, entry := range c.Specs {
		if strings.TrimSpace(entry.Input) == "" {
			return usageErrorf("generate: specs[%d]: input is required", i)
		}
		if _, err := batch.ParseClient(entry.Client); err != nil {
			return usageErrorf("generate: specs[%d]: %v", i, err)
		}
	}
	if overlap := intersect(c.IncludeTags, c.ExcludeTags); len(overlap) > 0 {
		return usageErrorf("generate: include/exclude tags overlap: %s", strings.Join(overlap, ", "))
	}
	if c.Parallel < 1 {
		return newUsageError("generate: --parallel must be at least 1")
	}
	return nil
}

// jobs expands the config into batch jobs: the top-level input (when set)
// plus every specs entry, each inheriting shared settings.
func (c *GenerateConfig) jobs() ([]batch.Job, error) {
	var out []batch.Job
	add := func(input, output, client, clientOutput string) error {
		opts := c.generatorOptions()
		opts.Input = input
		opts.Output = output
		if opts.Output == "" {
			opts.Output = deriveOutput(input)
		}
		parsed, err := batch.ParseClient(client)
		if err != nil {
			return err
		}
		out = append(out, batch.Job{Options: opts, Client: parsed, ClientOutput: clientOutput})
		return nil
	}

	if c.Input != "" {
		if err := add(c.Input, c.Output, c.Client, c.ClientOutput); err != nil {
			return nil, err
		}
	}
	for _, entry := range c.Specs {
		client, clientOutput := entry.Client, entry.ClientOutput
		if client == "" {
			client, clientOutput = c.Client, entry.ClientOutput
		}
		if err := add(strings.TrimSpace(entry.Input), strings.TrimSpace(entry.Output), client, strings.TrimSpace(clientOutput)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *GenerateConfig) generatorOptions() zodgen.Options {
	mode := zodgen.ModeInferred
	if c.NativeEnums {
		mode = zodgen.ModeNative
	}
	return zodgen.Options{
		Mode:                mode,
		DefaultNullable:     c.DefaultNullable,
		IncludeDescriptions: c.IncludeDescriptions,
		EmptyObjectBehavior: zodgen.EmptyObjectPolicy(c.EmptyObjectBehavior),
		SchemaPrefix:        c.Prefix,
		SchemaSuffix:        c.Suffix,
		Filter: zodgen.FilterConfig{
			Include:           zodgen.FilterRules{Tags: c.IncludeTags, Paths: c.IncludePaths},
			Exclude:           zodgen.FilterRules{Tags: c.ExcludeTags, Paths: c.ExcludePaths},
			IncludeDeprecated: c.IncludeDeprecated,
		},
		IgnoreHeaders: c.IgnoreHeaders,
		ShowStats:     c.ShowStats,
		Verbose:       c.Verbose,
	}
}

// deriveOutput places the schema file next to the input, extension replaced.
func deriveOutput(input string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + ".ts"
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	jobs, err := cfg.jobs()
	if err != nil {
		return newUsageError(err.Error())
	}

	results, runErr := batch.Run(ctx, jobs, cfg.Parallel)
	for _, res := range results {
		for _, w := range res.Warnings {
			fmt.Fprintf(os.Stderr, "[WARN] %s: %s\n", res.Input, w)
		}
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "error: %s: %s\n", res.Input, friendlyError(res.Err))
			continue
		}
		if cfg.Verbose {
			fmt.Fprintf(os.Stdout, "Wrote %s\n", res.Output)
		}
	}
	if runErr != nil {
		if len(jobs) == 1 {
			// Single-spec runs surface the underlying error directly.
			return results[0].Err
		}
		return runErr
	}
	return nil
}

// friendlyError renders a structured generation error with its location and
// offending reference, when known.
func friendlyError(err error) string {
	var se *genspec.Error
	if !errors.As(err, &se) {
		return err.Error()
	}
	msg := se.Message
	if se.Location != "" {
		msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
	}
	if se.Ref != "" {
		msg = fmt.Sprintf("%s\nReference: %s", msg, se.Ref)
	}
	return msg
}

func sanitizeList(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	var result []string
	for _, item := range b {
		if _, ok := set[item]; ok {
			result = append(result, item)
		}
	}
	return result
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return usageErrorf("read config file %q: %v", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return usageErrorf("parse config file %q: %v", path, err)
	}

	fieldErr := func(key string, err error) error {
		return usageErrorf("config field %q: %v", key, err)
	}

	for key, value := range raw {
		switch normalizeKey(key) {
		case "input":
			str, err := valueAsString(value)
			if err != nil {
				return fieldErr(key, err)
			}
			cfg.Input = str
		case "output":
			str, err := valueAsString(value)
			if err != nil {
				return fieldErr(key, err)
			}
			cfg.Output = str
		case "client":
			str, err := valueAsString(value)
			if err != nil {
				return fieldErr(key, err)
			}
			cfg.Client = str
		case "clientoutput":
			str, err := valueAsString(value)
			if err != nil {
				return fieldErr(key, err)
			}
			cfg.ClientOutput = str
		case "prefix":
			str, err := valueAsString(value)
			if err != nil {
				return fieldErr(key, err)
			}
			cfg.Prefix = str
		case "suffix":
			str, err := valueAsString(value)
			if err != nil {
				return fieldErr(key, err)
			}
			cfg.Suffix = str
		case "defaultnullable":
			val, err := valueAsBool(value)
			if err != nil {
				return fieldErr(key, err)
			}
			cfg.DefaultNullable = val
		case "includedescriptions":
			val, err := valueAsBool(value)
			if err != nil {
				return fieldErr(key, err)
			}
			cfg.IncludeDescriptions = val
		case "emptyobjectbehavior":
			str, err := valueAsString(value)
			if err != nil {
				return fieldErr(key, err)
			}
			cfg.EmptyObjectBehavior = str
		case "nativeenums":
			val, err := valueAsBool(value)
			if err != nil {
				return fieldErr(key, err)
			}
			cfg.NativeEnums = val
		case "showstats":
			val, err := valueAsBool(value)
			if err != nil {
				return fieldErr(key, err)
			}
			cfg.ShowStats = val
		case "includetags":
			list, err := valueAsStringSlice(value)
			if err != nil {
				return fieldErr(key, err)
			}
			cfg.IncludeTags = sanitizeList(list)
		case "excludetags":
			list, err := valueAsStringSlice(value)
			if err != nil {
				return fieldErr(key, err)
			}
			cfg.ExcludeTags = sanitizeList(list)
		case "includepaths":
			list, err := valueAsStringSlice(value)
			if err != nil {
				return fieldErr(key, err)
			}
			cfg.IncludePaths = sanitizeList(list)
		case "excludepaths":
			list, err := valueAsStringSlice(value)
			if err != nil {
				return fieldErr(key, err)
			}
			cfg.ExcludePaths = sanitizeList(list)
		case "includedeprecated":
			val, err := valueAsBool(value)
			if err != nil {
				return fieldErr(key, err)
			}
			cfg.IncludeDeprecated = val
		case "ignoreheaders":
			list, err := valueAsStringSlice(value)
			if err != nil {
				return fieldErr(key, err)
			}
			cfg.IgnoreHeaders = sanitizeList(list)
		case "parallel":
			n, err := valueAsInt(value)
			if err != nil {
				return fieldErr(key, err)
			}
			cfg.Parallel = n
		case "verbose":
			val, err := valueAsBool(value)
			if err != nil {
				return fieldErr(key, err)
			}
			cfg.Verbose = val
		case "specs":
			entries, err := valueAsSpecEntries(value)
			if err != nil {
				return fieldErr(key, err)
			}
			cfg.Specs = entries
		default:
			return usageErrorf("config file %q: unknown field %q", path, key)
		}
	}
	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n", "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func valueAsInt(v any) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		return int(val), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsSpecEntries(v any) ([]SpecEntry, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list of spec entries, got %T", v)
	}
	out := make([]SpecEntry, 0, len(list))
	for idx, elem := range list {
		m, ok := elem.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("element %d: expected a mapping, got %T", idx, elem)
		}
		var entry SpecEntry
		for key, value := range m {
			str, err := valueAsString(value)
			if err != nil {
				return nil, fmt.Errorf("element %d, field %q: %w", idx, key, err)
			}
			switch normalizeKey(key) {
			case "input":
				entry.Input = str
			case "output":
				entry.Output = str
			case "client":
				entry.Client = str
			case "clientoutput":
				entry.ClientOutput = str
			default:
				return nil, fmt.Errorf("element %d: unknown field %q", idx, key)
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
