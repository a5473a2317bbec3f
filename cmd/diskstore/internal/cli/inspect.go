package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luigitni/diskstore/engine"
	"github.com/luigitni/diskstore/storage"
)

var (
	inspectFileFlag  string
	inspectBlockFlag uint64
	inspectLimitFlag int
)

func addInspectCommands(parent *cobra.Command) {
	inspect := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect a data block or the tail of the log",
	}

	block := &cobra.Command{
		Use:   "block",
		Short: "Print the field directory of a single data block",
		Args:  cobra.NoArgs,
		RunE:  runInspectBlock,
	}
	block.Flags().StringVar(&inspectFileFlag, "file", "", "data file name within the database directory (required)")
	block.Flags().Uint64Var(&inspectBlockFlag, "block", 0, "block number to inspect")

	logCmd := &cobra.Command{
		Use:   "log",
		Short: "Print the most recent records in the write-ahead log",
		Args:  cobra.NoArgs,
		RunE:  runInspectLog,
	}
	logCmd.Flags().IntVar(&inspectLimitFlag, "limit", 10, "maximum number of records to print")

	inspect.AddCommand(block)
	inspect.AddCommand(logCmd)
	parent.AddCommand(inspect)
}

func runInspectBlock(cmd *cobra.Command, args []string) error {
	if inspectFileFlag == "" {
		return fmt.Errorf("cli: --file is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	eng, err := engine.Open(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	block := storage.NewBlockID(inspectFileFlag, inspectBlockFlag)
	frame, err := eng.Pin(block)
	if err != nil {
		return err
	}
	defer eng.Unpin(block)

	page := frame.Page()
	n := page.NumFields()
	fmt.Printf("%s: %d field(s)\n", block, n)
	for i := 0; i < n; i++ {
		ft, _ := page.FieldType(i)
		fmt.Printf("  [%d] %s\n", i, ft)
	}

	return nil
}

func runInspectLog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	eng, err := engine.Open(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	it, err := eng.BackwardLogIterator()
	if err != nil {
		return err
	}

	for i := 0; i < inspectLimitFlag; i++ {
		record, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		preview := record
		truncated := false
		if len(preview) > 32 {
			preview = preview[:32]
			truncated = true
		}

		suffix := ""
		if truncated {
			suffix = "..."
		}
		fmt.Printf("%4d bytes  %s%s\n", len(record), hex.EncodeToString(preview), suffix)
	}

	return nil
}
