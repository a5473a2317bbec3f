package cli

import (
	"github.com/spf13/cobra"

	"github.com/luigitni/diskstore/engine"
)

func addCheckCommand(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Open every subsystem and confirm the log file is a whole number of blocks",
		Args:  cobra.NoArgs,
		RunE:  runCheck,
	}

	parent.AddCommand(cmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	eng, err := engine.Open(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	count, err := eng.NumberOfBlocks(cfg.LogFileName)
	if err != nil {
		return err
	}

	log.Infof("ok: %q opens cleanly, log %q has %d block(s), %d frame(s) available", cfg.Directory, cfg.LogFileName, count, eng.Available())

	return nil
}
