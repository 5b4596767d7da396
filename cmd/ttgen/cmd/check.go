package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ttgen/internal/generate"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the output targets match the current grammars",
	Long: `Compares the grammar checksum in each target's header with the
checksum of the configured grammar set. Exits non-zero when any target is
missing or stale.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	statuses, err := generate.New(cfg, logger).Check()
	out := cmd.OutOrStdout()
	for _, st := range statuses {
		status := "ok"
		switch {
		case st.Missing:
			status = "missing"
		case st.Stale():
			status = "stale"
		}
		fmt.Fprintf(out, "%-8s %s\n", status, st.Target.Path)
	}
	return err
}
