package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ttgen/internal/config"
	"ttgen/internal/generate"
	"ttgen/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate the output targets whenever the grammar file changes",
	Long: `Compiles once, then watches the configured grammar file and
recompiles after every change. Failed compilations are logged and the
previous outputs are left in place. Stops on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Grammar.File == "" {
		return errors.New("watch needs a grammar file: set [grammar] file in the config or " + config.EnvGrammarFile)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen := generate.New(cfg, logger)
	if _, err := gen.Generate(ctx); err != nil {
		logger.Error("initial generation failed", "error", err)
	}

	rebuild := func(ctx context.Context) error {
		_, err := gen.Generate(ctx)
		return err
	}
	return watch.New(cfg.Grammar.File, cfg.Watch.Debounce.Duration, rebuild, logger).Run(ctx)
}
