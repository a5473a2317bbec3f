// Package cli implements the diskstore operator CLI: a thin, debug-oriented
// front end over the config and engine packages. It never grows into a
// server or a client protocol - every subcommand opens one Engine, drives
// it to completion, and exits.
package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is overridden at build time via -ldflags.
var Version = "dev"

var (
	dirFlag    string
	configFlag string
	log        = logrus.New()
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "diskstore",
		Short:         "Inspect and exercise a diskstore database directory",
		Version:       fmt.Sprintf("diskstore v%s", Version),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&dirFlag, "dir", "", "database directory (required)")
	root.PersistentFlags().StringVar(&configFlag, "config", "", "path to a TOML config file overriding defaults")

	addInitCommand(root)
	addInspectCommands(root)
	addCheckCommand(root)

	return root
}

// Execute builds the command tree and runs it against os.Args.
func Execute() error {
	return newRootCmd().Execute()
}
