package cli

import (
	"github.com/spf13/cobra"

	"github.com/luigitni/diskstore/engine"
)

func addInitCommand(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create (or validate) a database directory",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}

	parent.AddCommand(cmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	eng, err := engine.Open(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	if eng.IsNew() {
		log.Infof("initialized new database at %q", cfg.Directory)
	} else {
		log.Infof("attached to existing database at %q", cfg.Directory)
	}

	return nil
}
