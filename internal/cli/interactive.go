package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/buemura/threatscore/internal/threatmodel"
	"github.com/buemura/threatscore/internal/tui"
	"github.com/buemura/threatscore/pkg/types"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Launch interactive TUI mode",
	Long: `Start an interactive terminal UI: pick a platform and a threat model branch,
then toggle threats on and off while the score updates live.`,
	RunE: runInteractive,
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

func runInteractive(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("interactive mode requires a terminal")
	}
	return tui.Run(tuiLoader(), branchFlag, runTimeout())
}

// tuiLoader resolves the configured branch through the registry, so
// local_files overrides apply, and downloads any other branch directly.
func tuiLoader() func(ctx context.Context, platform types.Platform, branch string) (*threatmodel.Document, error) {
	reg := newRegistry()
	return func(ctx context.Context, platform types.Platform, branch string) (*threatmodel.Document, error) {
		if branch == branchFlag {
			return reg.Load(ctx, platform)
		}
		return newRemoteLoader(branch).Load(ctx, platform)
	}
}
