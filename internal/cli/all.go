package cli

import (
	"fmt"

	"github.com/buemura/threatscore/internal/output"
	"github.com/buemura/threatscore/internal/runner"
	"github.com/buemura/threatscore/pkg/types"
	"github.com/spf13/cobra"
)

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Score every platform",
	Long:  "Fetches the threat model of every platform concurrently and scores each one.",
	RunE:  runAll,
}

func init() {
	allCmd.Flags().StringArrayVar(&inactiveFlag, "inactive", nil, "threat name known to be inactive (repeatable)")
	allCmd.Flags().BoolVar(&allInactiveFlag, "all-inactive", false, "treat every threat as inactive (best case)")
	allCmd.Flags().StringVar(&checksFileFlag, "checks-file", "", "JSON file listing inactive threat names")
	rootCmd.AddCommand(allCmd)
}

func runAll(cmd *cobra.Command, args []string) error {
	formatter, err := output.GetFormatter(outputFlag)
	if err != nil {
		return err
	}

	inactive, err := collectInactive("")
	if err != nil {
		return err
	}

	r := runner.NewRunner(newRegistry(), logger)
	opts := runner.Options{
		Concurrency: concurrencyFlag,
		Timeout:     runTimeout(),
	}

	platforms := types.Platforms()
	reports := r.RunAll(cmd.Context(), platforms, runner.Request{Inactive: inactive, AllInactive: allInactiveFlag}, opts)
	if err := formatter.Format(cmd.OutOrStdout(), reports); err != nil {
		return err
	}

	failed := 0
	for _, rep := range reports {
		if rep.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d platforms failed", failed, len(platforms))
	}
	return nil
}
