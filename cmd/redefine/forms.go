package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var formsCmd = &cobra.Command{
	Use:   "forms",
	Short: "List the special forms a session can reconstruct",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			return err
		}
		defer func() { _ = sess.Close() }()

		names := sess.Registry().Names()
		out := cmd.OutOrStdout()
		if flagJSON {
			return writeJSON(out, map[string]any{
				"forms":     names,
				"blacklist": sess.Blacklist().Names(),
			})
		}
		for _, name := range names {
			fmt.Fprintln(out, name)
		}
		return nil
	},
}
