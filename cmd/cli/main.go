package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/smadinen7/Market-Intelligence-Assistant/internal/util"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/logger"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/logger/console"
)

var debug bool

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "market-brain",
		Short:         "Competitor discovery, analysis and graph chat from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			util.LoadEnv()
			logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
				Debug:  debug || util.GetEnvBool("DEBUG", false),
				Format: util.GetEnvString("LOG_FORMAT", "text"),
				Output: cmd.ErrOrStderr(),
			}))
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	root.AddCommand(newRunCmd())
	root.AddCommand(newClassifyCmd())
	return root
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		root.PrintErrln(styles.Error.Render("Error: " + err.Error()))
		os.Exit(1)
	}
}
