package cli

import (
	"github.com/spf13/cobra"
)

// Execute runs the openapi-to-zod CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
// Running the root without a subcommand is the same as running `generate`.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "openapi-to-zod",
		Short:         "Generate Zod schemas and typed clients from OpenAPI documents",
		Long:          "openapi-to-zod turns OpenAPI 3.x (or Swagger 2.0) documents into TypeScript Zod validation schemas with inferred types, and optionally typed client classes consuming them.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	// Convert Cobra flag errors (like unknown flags) into friendly usage errors
	// that also show the command's help text.
	flagErr := func(c *cobra.Command, err error) error {
		return usageErrorf("%v\n\n%s", err, c.UsageString())
	}
	cmd.SetFlagErrorFunc(flagErr)

	cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging output")
	addGenerateFlags(cmd.Flags())

	g := newGenerateCmd()
	g.SetFlagErrorFunc(flagErr)
	cmd.AddCommand(g)

	i := newInitCmd()
	i.SetFlagErrorFunc(flagErr)
	cmd.AddCommand(i)

	return cmd
}
