package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ttgen/internal/generate"
)

var (
	compileOut     string
	compileFormat  string
	compilePackage string
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile the grammars and write every output target",
	Long: `Compiles the configured grammar set and renders each output target.

Nothing is written when a grammar is invalid or two delimiters collide.
Use --out to write a single file instead of the configured targets.`,
	Args: cobra.NoArgs,
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().StringVarP(&compileOut, "out", "o", "", "write a single target to this path")
	compileCmd.Flags().StringVarP(&compileFormat, "format", "f", "", "output format for --out (nim, go, json, yaml; default from extension)")
	compileCmd.Flags().StringVar(&compilePackage, "package", "", "package clause for go output")
	rootCmd.AddCommand(compileCmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if compileOut != "" {
		cfg.OverrideTarget(compileOut, compileFormat, compilePackage)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	b, err := generate.New(cfg, logger).Generate(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "compiled %d grammars (%s)\n", len(b.Specs), b.Checksum.Short(12))
	fmt.Fprintf(out, "  column: %d states, %d transitions, %d finals\n",
		b.Result.Column.NumStates(), b.Result.Column.Len(), len(b.Result.Column.Finals()))
	fmt.Fprintf(out, "  markup: %d states, %d transitions, %d finals\n",
		b.Result.Markup.NumStates(), b.Result.Markup.Len(), len(b.Result.Markup.Finals()))
	for _, t := range cfg.Targets {
		fmt.Fprintf(out, "  wrote %s (%s)\n", t.Path, t.Format)
	}
	return nil
}
