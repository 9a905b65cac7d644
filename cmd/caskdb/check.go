package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xRadioAc7iv/go-caskdb/caskdb"
	"github.com/0xRadioAc7iv/go-caskdb/internal/utils"
)

func newCheckCmd() *cobra.Command {
	var truncate bool

	c := &cobra.Command{
		Use:   "check <log>",
		Short: "Replay a log and report whether it is intact",
		Long: "Replays a log the same way the server does on startup. A log that ends " +
			"in the middle of a record is reported with the offset of that record; " +
			"--truncate cuts the log there so it can be opened again. The server never " +
			"does this on its own.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return check(cmd, args[0], truncate)
		},
	}

	c.Flags().BoolVar(&truncate, "truncate", false, "drop the incomplete tail of a corrupt log")

	return c
}

func check(cmd *cobra.Command, path string, truncate bool) error {
	out := cmd.OutOrStdout()

	if !utils.PathExists(path) {
		return fmt.Errorf("%s does not exist", path)
	}

	store, err := caskdb.Open(path)
	if err == nil {
		stats := store.Stats()
		fmt.Fprintf(out, "ok: %d records, %d tombstones, %d live keys, %d bytes\n",
			stats.ReplayedRecords, stats.ReplayedTombstones, stats.Keys, stats.LogSize)
		return store.Close()
	}

	var corrupt *caskdb.CorruptLogError
	if !errors.As(err, &corrupt) {
		return err
	}

	fmt.Fprintf(out, "corrupt: %v\n", corrupt)
	if !truncate {
		return errors.New("log is corrupt, rerun with --truncate to drop the incomplete tail")
	}

	if err := utils.TruncateAt(path, corrupt.Offset); err != nil {
		return err
	}
	fmt.Fprintf(out, "truncated %s to %d bytes\n", path, corrupt.Offset)

	return nil
}
