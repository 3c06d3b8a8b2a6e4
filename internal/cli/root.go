package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/buemura/threatscore/internal/config"
	"github.com/buemura/threatscore/internal/logging"
	"github.com/buemura/threatscore/internal/runner"
	"github.com/buemura/threatscore/internal/threatmodel"
	"github.com/buemura/threatscore/pkg/types"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var version = "dev"

var (
	outputFlag      string
	verboseFlag     bool
	logJSONFlag     bool
	noColorFlag     bool
	concurrencyFlag int
	timeoutFlag     time.Duration
	branchFlag      string
	baseURLFlag     string
	retriesFlag     int
)

// appConfig holds the loaded configuration, available after PersistentPreRunE.
var appConfig *config.Config

// logger writes diagnostics to stderr; reports go to stdout.
var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "threatscore",
	Short: "threatscore: security score calculator for EDAMAME threat models",
	Long: `threatscore computes the security posture score of a device from a
platform threat model: per-dimension scores, an overall percentage,
a 0-5 star rating and compliance ratios per framework tag.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		config.ApplyFlags(cfg, cmd)

		// Sync config values back to flag variables so all commands
		// pick up config-file and env-var defaults transparently.
		outputFlag = cfg.OutputFormat
		concurrencyFlag = cfg.Concurrency
		timeoutFlag = cfg.Timeout
		branchFlag = cfg.Branch
		baseURLFlag = cfg.BaseURL
		retriesFlag = cfg.Retries

		appConfig = cfg

		level := "info"
		if verboseFlag {
			level = "debug"
		}
		logger = logging.New(logging.Options{Level: level, JSON: logJSONFlag, Writer: cmd.ErrOrStderr()})

		if noColorFlag || !term.IsTerminal(int(os.Stdout.Fd())) {
			color.NoColor = true
		}
		return nil
	},
}

// ExecuteContext runs the root command with ctx, which commands that block
// (watch, serve) use to stop.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "text", "output format: text, table, json, markdown, html")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&logJSONFlag, "log-json", false, "write diagnostics as JSON lines")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().IntVarP(&concurrencyFlag, "concurrency", "c", 5, "max platforms scored concurrently")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 30*time.Second, "threat model download timeout")
	rootCmd.PersistentFlags().StringVar(&branchFlag, "branch", threatmodel.DefaultBranch, "threat model repository branch")
	rootCmd.PersistentFlags().StringVar(&baseURLFlag, "base-url", threatmodel.DefaultBaseURL, "threat model repository base URL")
	rootCmd.PersistentFlags().IntVar(&retriesFlag, "retries", 0, "retries on transient download failures")

	rootCmd.AddCommand(versionCmd)
}

func userAgent() string {
	return "threatscore/" + version
}

// newRemoteLoader builds an HTTP loader for branch with the configured settings.
func newRemoteLoader(branch string) *threatmodel.RemoteLoader {
	return threatmodel.NewRemoteLoader(threatmodel.RemoteOptions{
		BaseURL:    baseURLFlag,
		Branch:     branch,
		Timeout:    downloadTimeout(),
		UserAgent:  userAgent(),
		MaxRetries: uint64(retryCount()),
		Logger:     logger,
	})
}

// newRegistry returns the remote loader for the configured branch, overridden
// per platform by the local_files entries of the config.
func newRegistry() *runner.Registry {
	reg := runner.NewRegistry(newRemoteLoader(branchFlag))
	if appConfig == nil {
		return reg
	}
	for _, p := range types.Platforms() {
		if path, ok := appConfig.LocalFile(p); ok {
			logger.Debug("using local threat model", zap.String("platform", string(p)), zap.String("path", path))
			reg.Register(p, threatmodel.NewFileLoader(path))
		}
	}
	return reg
}

// retryCount is the --retries value, never negative.
func retryCount() int {
	return max(retriesFlag, 0)
}

// downloadTimeout is the --timeout value, or the loader default when it is not positive.
func downloadTimeout() time.Duration {
	if timeoutFlag <= 0 {
		return threatmodel.DefaultRemoteOptions().Timeout
	}
	return timeoutFlag
}

// runTimeout bounds one platform's load including retries.
func runTimeout() time.Duration {
	return downloadTimeout() * time.Duration(retryCount()+1)
}
