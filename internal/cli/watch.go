package cli

import (
	"context"
	"fmt"

	"github.com/buemura/threatscore/internal/output"
	"github.com/buemura/threatscore/internal/runner"
	"github.com/buemura/threatscore/internal/threatmodel"
	"github.com/buemura/threatscore/pkg/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rescore whenever the checks file changes",
	Long: `Loads the threat model once, prints the score, then prints it again each
time the checks file is written. Stops on interrupt.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&platformFlag, "platform", "p", "", "platform: macOS, Windows, Linux, iOS, Android")
	watchCmd.Flags().StringVar(&checksFileFlag, "checks-file", "", "JSON file listing inactive threat names (required)")
	watchCmd.Flags().StringArrayVar(&inactiveFlag, "inactive", nil, "threat name known to be inactive (repeatable)")
	watchCmd.Flags().StringVar(&localFileFlag, "local-file", "", "read the threat model from a local file instead of downloading it")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	platform, err := requirePlatform()
	if err != nil {
		return err
	}
	if checksFileFlag == "" {
		return fmt.Errorf("--checks-file is required")
	}

	formatter, err := output.GetFormatter(outputFlag)
	if err != nil {
		return err
	}

	reg := newRegistry()
	if localFileFlag != "" {
		reg.Register(platform, threatmodel.NewFileLoader(localFileFlag))
	}
	r := runner.NewRunner(reg, logger)

	loadCtx, cancel := context.WithTimeout(cmd.Context(), runTimeout())
	doc, err := reg.Load(loadCtx, platform)
	cancel()
	if err != nil {
		return fmt.Errorf("loading threat model: %w", err)
	}

	render := func(checks threatmodel.Checks) error {
		inactive := threatmodel.NewChecks(inactiveFlag...)
		inactive.Merge(checks)
		report, err := r.Score(platform, doc, runner.Request{Inactive: inactive})
		if err != nil {
			return err
		}
		return formatter.Format(cmd.OutOrStdout(), []types.PlatformReport{*report})
	}

	initial, err := threatmodel.LoadChecksFile(checksFileFlag)
	if err != nil {
		return fmt.Errorf("loading checks file: %w", err)
	}
	if err := render(initial); err != nil {
		return err
	}

	logger.Info("watching checks file", zap.String("path", checksFileFlag))
	return threatmodel.WatchChecks(cmd.Context(), checksFileFlag, func(checks threatmodel.Checks, err error) {
		if err != nil {
			logger.Warn("checks file not reloaded", zap.Error(err))
			return
		}
		if err := render(checks); err != nil {
			logger.Error("rescoring failed", zap.Error(err))
		}
	})
}
