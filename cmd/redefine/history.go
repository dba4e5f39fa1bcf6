package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/redefine-mcp/internal/storage"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history NAME",
	Short: "Show past reloads of a unit, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			return err
		}
		defer func() { _ = sess.Close() }()

		reloads, err := sess.History(cmd.Context(), args[0], flagHistoryLimit)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("unit %s has no recorded reloads", args[0])
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if flagJSON {
			return writeJSON(out, reloads)
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CREATED\tGEN\tSTATUS\tPHASE\tPUBLISHED\tERROR")
		for _, r := range reloads {
			msg := ""
			if r.Error != nil {
				msg = *r.Error
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%s\n",
				r.CreatedAt.Format("2006-01-02 15:04:05"), r.Generation, r.Status, r.Phase, r.PublishedCount, msg)
		}
		return tw.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 10, "maximum number of reloads to show")
}
