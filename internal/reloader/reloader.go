package reloader

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/redefine-mcp/internal/respec"
	"github.com/dshills/redefine-mcp/internal/unit"
	"github.com/dshills/redefine-mcp/pkg/types"
)

// DefaultExtension is the artifact file extension
const DefaultExtension = ".ul"

// Config contains configuration for the reload driver
type Config struct {
	Dir       string            // Artifact directory (default: current directory)
	Extension string            // Artifact extension (default: ".ul")
	Keyword   string            // Unit declaration keyword (default: "module")
	Blacklist *types.Blacklist  // Names never published (default: {"eval"})
	Mode      types.PublishMode // Publishing strategy (default: ModeManifest)
}

// withDefaults returns a copy of c with empty fields filled in
func (c *Config) withDefaults() Config {
	out := Config{}
	if c != nil {
		out = *c
	}
	if out.Dir == "" {
		out.Dir = "."
	}
	if out.Extension == "" {
		out.Extension = DefaultExtension
	}
	if !strings.HasPrefix(out.Extension, ".") {
		out.Extension = "." + out.Extension
	}
	if out.Keyword == "" {
		out.Keyword = unit.DefaultKeyword
	}
	if out.Blacklist == nil {
		out.Blacklist = types.DefaultBlacklist()
	}
	if out.Mode == "" {
		out.Mode = types.ModeManifest
	}
	return out
}

// Reloader runs the redefinition pipeline against injected collaborators
type Reloader struct {
	extractor *respec.Extractor
	loader    Loader
	executor  Executor
	publisher Publisher
	recorder  Recorder
	logger    *log.Logger

	cfg  Config
	lock runLock
}

// Option configures a Reloader
type Option func(*Reloader)

// WithExecutor sets the collaborator used by ModeReload
func WithExecutor(e Executor) Option {
	return func(r *Reloader) { r.executor = e }
}

// WithPublisher sets the collaborator used by ModeManifest
func WithPublisher(p Publisher) Option {
	return func(r *Reloader) { r.publisher = p }
}

// WithRecorder receives every finished run
func WithRecorder(rec Recorder) Option {
	return func(r *Reloader) { r.recorder = rec }
}

// WithLogger sets the logger used for recorder failures
func WithLogger(l *log.Logger) Option {
	return func(r *Reloader) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Reloader. When no executor or publisher is given, the loader
// is used for that role if it implements the interface.
func New(extractor *respec.Extractor, loader Loader, cfg *Config, opts ...Option) (*Reloader, error) {
	if extractor == nil {
		return nil, errors.New("reloader requires an extractor")
	}
	if loader == nil {
		return nil, errors.New("reloader requires a loader")
	}

	r := &Reloader{
		extractor: extractor,
		loader:    loader,
		logger:    log.Default(),
		cfg:       cfg.withDefaults(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.executor == nil {
		r.executor, _ = loader.(Executor)
	}
	if r.publisher == nil {
		r.publisher, _ = loader.(Publisher)
	}

	if err := types.ValidateMode(r.cfg.Mode); err != nil {
		return nil, fmt.Errorf("%w: %q", err, r.cfg.Mode)
	}
	if r.cfg.Mode == types.ModeReload && r.executor == nil {
		return nil, errors.New("reload mode requires an executor")
	}
	if r.cfg.Mode == types.ModeManifest && r.publisher == nil {
		return nil, errors.New("manifest mode requires a publisher")
	}
	if !unit.ValidName(r.cfg.Keyword) {
		return nil, fmt.Errorf("invalid unit keyword %q", r.cfg.Keyword)
	}

	return r, nil
}

// Config returns the effective configuration
func (r *Reloader) Config() Config {
	return r.cfg
}

// Busy reports whether a redefinition is in flight
func (r *Reloader) Busy() bool {
	return r.lock.busy()
}

// ArtifactPath returns where the artifact for name is written
func (r *Reloader) ArtifactPath(name string) string {
	return filepath.Join(r.cfg.Dir, name+r.cfg.Extension)
}

// Redefine runs the full pipeline for one unit. The returned result is
// non-nil whenever the pipeline started, including on failure, and its Phase
// is the last phase reached.
func (r *Reloader) Redefine(ctx context.Context, name string, snippet types.Snippet) (*types.ReloadResult, error) {
	if !unit.ValidName(name) {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidUnitName, name)
	}
	if !r.lock.tryAcquire() {
		return nil, types.ErrReloadInProgress
	}
	defer r.lock.release()

	start := time.Now()
	res := &types.ReloadResult{
		ID:   uuid.NewString(),
		Unit: name,
		Mode: r.cfg.Mode,
	}

	err := r.run(ctx, res, snippet)
	res.Duration = time.Since(start)

	if r.recorder != nil {
		if recErr := r.recorder.RecordReload(ctx, res, err); recErr != nil {
			r.logger.Printf("Warning: failed to record reload %s of %s: %v", res.ID, name, recErr)
		}
	}

	return res, err
}

func (r *Reloader) run(ctx context.Context, res *types.ReloadResult, snippet types.Snippet) error {
	name := res.Unit

	// GENERATE
	res.Phase = types.PhaseGenerate
	lines, err := r.extractor.Extract(snippet)
	if err != nil {
		return err
	}
	source := unit.Source(unit.Wrap(name, lines), r.cfg.Keyword)

	// PERSIST
	res.Phase = types.PhasePersist
	path := r.ArtifactPath(name)
	res.ArtifactPath = path
	if err := os.MkdirAll(r.cfg.Dir, 0o755); err != nil {
		return &types.FileIOError{Op: "create directory", Path: r.cfg.Dir, Err: err}
	}
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		return &types.FileIOError{Op: "write", Path: path, Err: err}
	}

	// LOAD
	res.Phase = types.PhaseLoad
	data, err := os.ReadFile(path)
	if err != nil {
		return &types.FileIOError{Op: "read", Path: path, Err: err}
	}
	res.ContentHash = sha256.Sum256(data)

	if err := ctx.Err(); err != nil {
		return err
	}
	handle, err := r.loader.LoadUnit(ctx, string(data), name)
	if err != nil {
		return &types.LoadError{Unit: name, Phase: types.PhaseLoad, Err: err}
	}
	if gr, ok := handle.(generationReporter); ok {
		res.Generation = gr.UnitGeneration()
	}

	// INTROSPECT
	res.Phase = types.PhaseIntrospect
	exports, err := r.loader.ListExports(ctx, handle)
	if err != nil {
		return &types.LoadError{Unit: name, Phase: types.PhaseIntrospect, Err: err}
	}
	res.Exports = exports
	res.Published, res.Skipped = BuildManifest(name, exports, r.cfg.Blacklist)

	// APPEND
	res.Phase = types.PhaseAppend
	if err := appendLines(path, res.Published.Lines()); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	switch r.cfg.Mode {
	case types.ModeReload:
		res.Phase = types.PhaseReload
		artifact, err := os.ReadFile(path)
		if err != nil {
			return &types.FileIOError{Op: "read", Path: path, Err: err}
		}
		if err := r.executor.Exec(ctx, string(artifact)); err != nil {
			return &types.LoadError{Unit: name, Phase: types.PhaseReload, Err: err}
		}
	default:
		res.Phase = types.PhasePublish
		if err := r.publisher.Publish(ctx, res.Published); err != nil {
			return &types.LoadError{Unit: name, Phase: types.PhasePublish, Err: err}
		}
	}

	return nil
}

// appendLines writes each line to the end of the artifact on a line of its own
func appendLines(path string, lines []string) (err error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return &types.FileIOError{Op: "open", Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &types.FileIOError{Op: "close", Path: path, Err: cerr}
		}
	}()

	var b strings.Builder
	for _, line := range lines {
		b.WriteString("\n")
		b.WriteString(line)
	}
	if _, err := f.WriteString(b.String()); err != nil {
		return &types.FileIOError{Op: "append", Path: path, Err: err}
	}
	return nil
}
