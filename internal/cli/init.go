package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
	Verbose    bool
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample openapi-to-zod configuration file",
		Long:  "Scaffold a commented openapi-to-zod configuration file that documents available options.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			return initRunner(cmd.Context(), &InitConfig{OutputPath: out, Force: force, Verbose: verbose})
		},
	}

	cmd.Flags().String("out", "openapi-to-zod.yaml", "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig) error {
	_ = ctx

	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = "openapi-to-zod.yaml"
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force {
		if st.Mode().IsRegular() {
			return usageErrorf("init: %q already exists (use --force to overwrite)", absPath)
		}
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return usageErrorf("init: cannot create parent directory: %v", err)
	}

	content := strings.TrimSpace(sampleConfigYAML) + "\n"

	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return usageErrorf("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err)
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return usageErrorf("init: cannot place file at %s: %v", absPath, err)
	}
	fmt.Fprintf(os.Stdout, "Wrote sample config to %s\n", absPath)
	return nil
}

// sampleConfigYAML is a commented example config documenting available options.
const sampleConfigYAML = `# openapi-to-zod configuration (YAML)
# All fields are optional. Command-line flags override config values.

# Path to the OpenAPI 3.x or Swagger 2.0 document.
# input: ./openapi.yaml

# Output file for the generated Zod schemas. Derived from input when omitted.
# output: ./src/schemas.ts

# Typed client to emit alongside the schemas (none|fetch|k6|playwright).
# client: fetch

# Output file for the generated client. Required when client is set.
# clientOutput: ./src/client.ts

# Prefix/suffix applied to every generated identifier.
# prefix: api
# suffix: Dto

# Treat unannotated primitive properties as nullable.
# defaultNullable: false

# Emit JSDoc comments from schema descriptions.
# includeDescriptions: false

# Shape for objects without properties (strict|loose|record).
# emptyObjectBehavior: strict

# Prefer native TypeScript enums for request-side enum schemas.
# nativeEnums: false

# Prepend a generation-statistics comment block.
# showStats: false

# Operation filters (glob patterns; exclude wins over include).
# includeTags: [public]
# excludeTags: [internal]
# includePaths: ["/api/*"]
# excludePaths: ["/admin/*"]
# includeDeprecated: false

# Drop header parameters matching these glob patterns.
# ignoreHeaders: ["X-Trace-*"]

# Worker count for batch runs.
# parallel: 4

# Generate several documents in one run. Entries inherit the shared
# settings above; client defaults to the shared client when omitted.
# specs:
#   - input: ./users-api.yaml
#     output: ./src/users/schemas.ts
#   - input: ./orders-api.yaml
#     output: ./src/orders/schemas.ts
#     client: playwright
#     clientOutput: ./src/orders/client.ts

# Enable verbose logging.
# verbose: false
`
