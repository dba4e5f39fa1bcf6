package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dshills/redefine-mcp/pkg/types"
)

// reloadView is the JSON shape of a reload result
type reloadView struct {
	ID           string   `json:"id"`
	Unit         string   `json:"unit"`
	Generation   int      `json:"generation"`
	ArtifactPath string   `json:"artifact_path"`
	ContentHash  string   `json:"content_hash"`
	Exports      []string `json:"exports"`
	Published    []string `json:"published"`
	Skipped      []string `json:"skipped"`
	Mode         string   `json:"mode"`
	DurationMs   int64    `json:"duration_ms"`
}

func newReloadView(res *types.ReloadResult) reloadView {
	return reloadView{
		ID:           res.ID,
		Unit:         res.Unit,
		Generation:   res.Generation,
		ArtifactPath: res.ArtifactPath,
		ContentHash:  hex.EncodeToString(res.ContentHash[:]),
		Exports:      res.Exports,
		Published:    res.Published.Lines(),
		Skipped:      res.Skipped,
		Mode:         string(res.Mode),
		DurationMs:   res.Duration.Milliseconds(),
	}
}

// writeJSON writes v as indented JSON followed by a newline
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// writeReload prints a reload result as text or JSON
func writeReload(w io.Writer, res *types.ReloadResult, asJSON bool) error {
	if asJSON {
		return writeJSON(w, newReloadView(res))
	}
	fmt.Fprintf(w, "%s: generation %d, %s\n", res.Unit, res.Generation, res.ArtifactPath)
	for _, line := range res.Published.Lines() {
		fmt.Fprintf(w, "  %s\n", line)
	}
	if len(res.Skipped) > 0 {
		fmt.Fprintf(w, "  skipped: %s\n", strings.Join(res.Skipped, ", "))
	}
	return nil
}
