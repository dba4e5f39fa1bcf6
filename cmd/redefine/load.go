package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/redefine-mcp/internal/session"
	"github.com/dshills/redefine-mcp/pkg/types"
)

var flagSnippet bool

var loadCmd = &cobra.Command{
	Use:   "load NAME FILE [NAME FILE]...",
	Short: "Load units from files and publish their exports",
	Long: `Load one or more units. Each NAME FILE pair becomes one unit; several
pairs are loaded in order as a batch that writes nothing if any unit fails to
reconstruct. With --snippet each FILE already holds serializer output.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 || len(args)%2 != 0 {
			return fmt.Errorf("expected NAME FILE pairs, got %d arguments", len(args))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		defs, err := readDefinitions(args)
		if err != nil {
			return err
		}

		sess, err := openSession()
		if err != nil {
			return err
		}
		defer func() { _ = sess.Close() }()

		var results []*types.ReloadResult
		if flagSnippet {
			for _, def := range defs {
				res, err := sess.RedefineSnippet(cmd.Context(), def.Name, types.NewSnippet(def.Code))
				if err != nil {
					return fmt.Errorf("unit %s: %w", def.Name, err)
				}
				results = append(results, res)
			}
		} else {
			results, err = sess.RedefineBatch(cmd.Context(), defs)
			if err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if flagJSON {
			views := make([]reloadView, 0, len(results))
			for _, res := range results {
				views = append(views, newReloadView(res))
			}
			return writeJSON(out, views)
		}
		for _, res := range results {
			if err := writeReload(out, res, false); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	loadCmd.Flags().BoolVar(&flagSnippet, "snippet", false, "files contain serialized snippets instead of unit code")
}

// readDefinitions reads NAME FILE pairs into definitions
func readDefinitions(args []string) ([]session.Definition, error) {
	defs := make([]session.Definition, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		data, err := os.ReadFile(args[i+1])
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", args[i+1], err)
		}
		defs = append(defs, session.Definition{Name: args[i], Code: string(data)})
	}
	return defs, nil
}
