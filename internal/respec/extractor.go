package respec

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/redefine-mcp/pkg/types"
)

// Extractor turns a snippet into its corrected body lines
type Extractor struct {
	classifier *Classifier
	workers    int
}

// NewExtractor creates an Extractor using classifier for every line
func NewExtractor(classifier *Classifier) *Extractor {
	return &Extractor{classifier: classifier, workers: 4}
}

// SetWorkers bounds the concurrency of ExtractAll
func (x *Extractor) SetWorkers(n int) {
	if n > 0 {
		x.workers = n
	}
}

// Extract discards the snippet's first and last line and classifies the rest
// in order. No partial output is returned on error.
func (x *Extractor) Extract(snippet types.Snippet) ([]string, error) {
	lines := snippet.Lines()
	if len(lines) < 2 {
		return nil, types.ErrMalformedSnippet
	}

	body := lines[1 : len(lines)-1]
	out := make([]string, 0, len(body))
	for i, line := range body {
		fixed, err := x.classifier.Classify(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		out = append(out, fixed)
	}
	return out, nil
}

// ExtractAll extracts snippets concurrently; results keep the input order.
// The first failure cancels the remaining work.
func (x *Extractor) ExtractAll(ctx context.Context, snippets []types.Snippet) ([][]string, error) {
	results := make([][]string, len(snippets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(x.workers)

	for i := range snippets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lines, err := x.Extract(snippets[i])
			if err != nil {
				return fmt.Errorf("snippet %d: %w", i, err)
			}
			results[i] = lines
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
