package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/redefine-mcp/internal/session"
)

var flagPreload []string

var evalCmd = &cobra.Command{
	Use:   "eval CODE",
	Short: "Evaluate code in Main and print the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defs, err := parsePreload(flagPreload)
		if err != nil {
			return err
		}

		sess, err := openSession()
		if err != nil {
			return err
		}
		defer func() { _ = sess.Close() }()

		if len(defs) > 0 {
			if _, err := sess.RedefineBatch(cmd.Context(), defs); err != nil {
				return err
			}
		}

		value, err := sess.Eval(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if flagJSON {
			return writeJSON(cmd.OutOrStdout(), map[string]string{"value": value})
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

func init() {
	evalCmd.Flags().StringArrayVar(&flagPreload, "load", nil, "load a unit first, as NAME=FILE (repeatable)")
}

// parsePreload turns NAME=FILE specs into definitions
func parsePreload(specs []string) ([]session.Definition, error) {
	args := make([]string, 0, len(specs)*2)
	for _, spec := range specs {
		name, file, ok := strings.Cut(spec, "=")
		if !ok || name == "" || file == "" {
			return nil, fmt.Errorf("invalid --load %q, expected NAME=FILE", spec)
		}
		args = append(args, name, file)
	}
	return readDefinitions(args)
}
