package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/buemura/threatscore/internal/output"
	"github.com/buemura/threatscore/internal/runner"
	"github.com/buemura/threatscore/internal/threatmodel"
	"github.com/buemura/threatscore/pkg/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	platformFlag    string
	inactiveFlag    []string
	allInactiveFlag bool
	checksFileFlag  string
	localFileFlag   string
	jsonFlag        bool
	listThreatsFlag bool
	checkSetFlag    string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute the security score of one platform",
	Long: `Fetches the threat model of a platform and computes its security score.
Threats are active unless named with --inactive, listed in --checks-file,
or part of a configured --check-set.`,
	Example: `  threatscore score --platform macOS --all-inactive
  threatscore score --platform Linux --checks-file checks.json
  threatscore score --platform macOS --local-file threatmodel-macOS.json
  threatscore score --platform macOS --inactive "SIP disabled" --json
  threatscore score --platform Windows --list-threats`,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringVarP(&platformFlag, "platform", "p", "", "platform: macOS, Windows, Linux, iOS, Android")
	scoreCmd.Flags().StringArrayVar(&inactiveFlag, "inactive", nil, "threat name known to be inactive (repeatable)")
	scoreCmd.Flags().BoolVar(&allInactiveFlag, "all-inactive", false, "treat every threat as inactive (best case)")
	scoreCmd.Flags().StringVar(&checksFileFlag, "checks-file", "", "JSON file listing inactive threat names")
	scoreCmd.Flags().StringVar(&localFileFlag, "local-file", "", "read the threat model from a local file instead of downloading it")
	scoreCmd.Flags().BoolVar(&jsonFlag, "json", false, "shorthand for --output json")
	scoreCmd.Flags().BoolVar(&listThreatsFlag, "list-threats", false, "list the threats of the model and exit")
	scoreCmd.Flags().StringVar(&checkSetFlag, "check-set", "", "named set of inactive checks from the config file")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	platform, err := requirePlatform()
	if err != nil {
		return err
	}

	format := outputFlag
	if jsonFlag {
		format = "json"
	}
	formatter, err := output.GetFormatter(format)
	if err != nil {
		return err
	}

	reg := newRegistry()
	if localFileFlag != "" {
		reg.Register(platform, threatmodel.NewFileLoader(localFileFlag))
	}
	r := runner.NewRunner(reg, logger)

	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout())
	defer cancel()

	doc, err := reg.Load(ctx, platform)
	if err != nil {
		return fmt.Errorf("loading threat model: %w", err)
	}

	if listThreatsFlag {
		printThreats(cmd.OutOrStdout(), doc)
		return nil
	}

	inactive, err := collectInactive(platform)
	if err != nil {
		return err
	}

	report, err := r.Score(platform, doc, runner.Request{Inactive: inactive, AllInactive: allInactiveFlag})
	if err != nil {
		return err
	}

	return formatter.Format(cmd.OutOrStdout(), []types.PlatformReport{*report})
}

func requirePlatform() (types.Platform, error) {
	if platformFlag == "" {
		return "", fmt.Errorf("--platform (-p) is required")
	}
	return types.ParsePlatform(platformFlag)
}

// collectInactive merges --inactive, --checks-file and --check-set.
func collectInactive(platform types.Platform) (threatmodel.Checks, error) {
	checks := threatmodel.NewChecks(inactiveFlag...)

	if checksFileFlag != "" {
		fromFile, err := threatmodel.LoadChecksFile(checksFileFlag)
		if err != nil {
			return nil, fmt.Errorf("loading checks file: %w", err)
		}
		checks.Merge(fromFile)
	}

	if checkSetFlag != "" {
		cs := appConfig.GetCheckSet(checkSetFlag)
		if cs == nil {
			return nil, fmt.Errorf("unknown check set %q", checkSetFlag)
		}
		if cs.Platform != "" && platform != "" {
			if p, err := types.ParsePlatform(cs.Platform); err == nil && p != platform {
				logger.Warn("check set was defined for another platform",
					zap.String("check_set", cs.Name),
					zap.String("check_set_platform", string(p)),
					zap.String("platform", string(platform)))
			}
		}
		checks.Add(cs.Inactive...)
	}

	return checks, nil
}

// printThreats lists every metric as "  (sev N, dimension) name  [tags]".
func printThreats(w io.Writer, doc *threatmodel.Document) {
	for _, m := range doc.Metrics {
		severity := 0
		if m.Severity != nil {
			severity = *m.Severity
		}
		tagStr := ""
		if len(m.Tags) > 0 {
			tagStr = "  [" + strings.Join(m.Tags, ", ") + "]"
		}
		fmt.Fprintf(w, "  (sev %d, %s) %s%s\n", severity, m.Dimension, m.Name, tagStr)
	}
}
