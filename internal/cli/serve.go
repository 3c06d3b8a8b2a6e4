package cli

import (
	"fmt"

	"github.com/buemura/threatscore/internal/runner"
	"github.com/buemura/threatscore/internal/threatmodel"
	"github.com/buemura/threatscore/internal/web"
	"github.com/buemura/threatscore/pkg/types"
	"github.com/spf13/cobra"
)

var (
	addrFlag        string
	historySizeFlag int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web UI and HTTP API server",
	Long:  "Serves score computations, stored runs and Prometheus metrics over HTTP, with a browser UI at /.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", ":3000", "listen address (host:port)")
	serveCmd.Flags().IntVar(&historySizeFlag, "history", 500, "number of score runs kept in memory")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	r := runner.NewRunner(newRegistry(), logger)

	s := web.NewServer(r, web.Options{
		Addr: addrFlag,
		Branch: func(_ types.Platform, branch string) threatmodel.Loader {
			return newRemoteLoader(branch)
		},
		DefaultBranch: branchFlag,
		Logger:        logger,
		HistorySize:   historySizeFlag,
		LoadTimeout:   runTimeout(),
	})

	fmt.Fprintf(cmd.OutOrStdout(), "threatscore API listening on %s\n", addrFlag)
	return s.Start(cmd.Context())
}
