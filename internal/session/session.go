package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/redefine-mcp/internal/host"
	"github.com/dshills/redefine-mcp/internal/reloader"
	"github.com/dshills/redefine-mcp/internal/respec"
	"github.com/dshills/redefine-mcp/internal/storage"
	"github.com/dshills/redefine-mcp/pkg/types"
)

// FormUsing is the extra form the host serializer emits besides the built-ins
const FormUsing = "using"

// ErrHistoryDisabled is returned by history queries when no database is configured
var ErrHistoryDisabled = errors.New("reload history is disabled")

// Config contains configuration for a session
type Config struct {
	ArtifactDir string            // Where unit artifacts are written (default: ".")
	Extension   string            // Artifact extension (default: ".ul")
	Mode        types.PublishMode // Publishing strategy (default: manifest)
	Blacklist   []string          // Names never published (default: ["eval"])
	CacheSize   int               // Classifier LRU size, 0 disables caching
	DBPath      string            // History database, empty disables history
	Workers     int               // Parallel extraction workers for batches (default: 4)
}

// Definition is one unit of a batch redefinition
type Definition struct {
	Name string
	Code string
}

// Session is a single interactive session
type Session struct {
	interp    *host.Interpreter
	registry  *respec.Registry
	extractor *respec.Extractor
	reloader  *reloader.Reloader
	blacklist *types.Blacklist

	store     storage.Storage
	ownsStore bool
	logger    *log.Logger
}

// Option configures a Session
type Option func(*options)

type options struct {
	logger *log.Logger
	store  storage.Storage
}

// WithLogger sets the logger shared by the interpreter and the driver
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStorage records history into an existing store instead of opening DBPath.
// The caller keeps ownership of the store.
func WithStorage(s storage.Storage) Option {
	return func(o *options) { o.store = s }
}

// New creates a session from cfg
func New(cfg *Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	o := options{logger: log.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Default()
	}

	registry := respec.DefaultRegistry()
	if err := registry.RegisterJoin(FormUsing, "using", "."); err != nil {
		return nil, fmt.Errorf("failed to register %s form: %w", FormUsing, err)
	}

	classifier, err := respec.NewClassifier(registry, respec.WithCache(cfg.CacheSize))
	if err != nil {
		return nil, err
	}
	extractor := respec.NewExtractor(classifier)
	if cfg.Workers > 0 {
		extractor.SetWorkers(cfg.Workers)
	}

	blacklist := types.DefaultBlacklist()
	if cfg.Blacklist != nil {
		blacklist = types.NewBlacklist(cfg.Blacklist...)
	}

	s := &Session{
		interp:    host.New(host.WithLogger(o.logger)),
		registry:  registry,
		extractor: extractor,
		blacklist: blacklist,
		store:     o.store,
		logger:    o.logger,
	}

	if s.store == nil && cfg.DBPath != "" {
		store, err := storage.NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open history database: %w", err)
		}
		s.store = store
		s.ownsStore = true
	}

	reloaderOpts := []reloader.Option{reloader.WithLogger(o.logger)}
	if s.store != nil {
		reloaderOpts = append(reloaderOpts, reloader.WithRecorder(&historyRecorder{store: s.store}))
	}

	s.reloader, err = reloader.New(extractor, s.interp, &reloader.Config{
		Dir:       cfg.ArtifactDir,
		Extension: cfg.Extension,
		Blacklist: blacklist,
		Mode:      cfg.Mode,
	}, reloaderOpts...)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the history database if the session opened it
func (s *Session) Close() error {
	if s.ownsStore && s.store != nil {
		return s.store.Close()
	}
	return nil
}

// Redefine relocates code into a fresh unit called name and publishes its
// exports into Main
func (s *Session) Redefine(ctx context.Context, name, code string) (*types.ReloadResult, error) {
	snippet, err := render(code)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return s.reloader.Redefine(ctx, name, snippet)
}

// RedefineSnippet runs the pipeline on an already serialized snippet
func (s *Session) RedefineSnippet(ctx context.Context, name string, snippet types.Snippet) (*types.ReloadResult, error) {
	return s.reloader.Redefine(ctx, name, snippet)
}

// RedefineBatch redefines several units in order. Every snippet is repaired
// up front, concurrently, so a bad form anywhere in the batch fails it before
// any artifact is written. Loading stops at the first failing unit.
func (s *Session) RedefineBatch(ctx context.Context, defs []Definition) ([]*types.ReloadResult, error) {
	snippets := make([]types.Snippet, len(defs))

	g, _ := errgroup.WithContext(ctx)
	for i, def := range defs {
		g.Go(func() error {
			snippet, err := render(def.Code)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", def.Name, err)
			}
			snippets[i] = snippet
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if _, err := s.extractor.ExtractAll(ctx, snippets); err != nil {
		return nil, err
	}

	results := make([]*types.ReloadResult, 0, len(defs))
	for i, def := range defs {
		res, err := s.reloader.Redefine(ctx, def.Name, snippets[i])
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			return results, fmt.Errorf("unit %s: %w", def.Name, err)
		}
	}
	return results, nil
}

// Eval runs code in Main and renders the resulting value
func (s *Session) Eval(ctx context.Context, code string) (string, error) {
	v, err := s.interp.Eval(ctx, code)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// Lookup renders the value bound to name in Main
func (s *Session) Lookup(name string) (string, bool) {
	v, ok := s.interp.Lookup(name)
	if !ok {
		return "", false
	}
	return v.String(), true
}

// Registry exposes the session's form registry for extension
func (s *Session) Registry() *respec.Registry {
	return s.registry
}

// Blacklist exposes the names the session never publishes
func (s *Session) Blacklist() *types.Blacklist {
	return s.blacklist
}

// Interpreter returns the host interpreter backing the session
func (s *Session) Interpreter() *host.Interpreter {
	return s.interp
}

// Units returns the names of all loaded units
func (s *Session) Units() []string {
	return s.interp.Units()
}

// Busy reports whether a redefinition is running
func (s *Session) Busy() bool {
	return s.reloader.Busy()
}

// History returns up to limit reloads of a unit, newest first
func (s *Session) History(ctx context.Context, unitName string, limit int) ([]*storage.Reload, error) {
	if s.store == nil {
		return nil, ErrHistoryDisabled
	}
	u, err := s.store.GetUnit(ctx, unitName)
	if err != nil {
		return nil, err
	}
	return s.store.ListReloads(ctx, u.ID, limit)
}

// Bindings returns the names a unit last published
func (s *Session) Bindings(ctx context.Context, unitName string) ([]*storage.Binding, error) {
	if s.store == nil {
		return nil, ErrHistoryDisabled
	}
	u, err := s.store.GetUnit(ctx, unitName)
	if err != nil {
		return nil, err
	}
	return s.store.ListBindings(ctx, u.ID)
}

// Status returns history database statistics
func (s *Session) Status(ctx context.Context) (*storage.Status, error) {
	if s.store == nil {
		return nil, ErrHistoryDisabled
	}
	return s.store.GetStatus(ctx)
}

func render(code string) (types.Snippet, error) {
	block, err := host.Parse(code)
	if err != nil {
		return types.Snippet{}, err
	}
	return host.Render(block), nil
}

// historyRecorder persists each driver run in one transaction
type historyRecorder struct {
	store storage.Storage
}

func (h *historyRecorder) RecordReload(ctx context.Context, res *types.ReloadResult, runErr error) (err error) {
	tx, err := h.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	u, err := tx.GetUnit(ctx, res.Unit)
	if errors.Is(err, storage.ErrNotFound) {
		u = &storage.Unit{Name: res.Unit, ArtifactPath: res.ArtifactPath}
		err = tx.CreateUnit(ctx, u)
	}
	if err != nil {
		return err
	}

	if res.ArtifactPath != "" {
		u.ArtifactPath = res.ArtifactPath
		u.ContentHash = res.ContentHash
	}
	if runErr == nil {
		u.Generation = res.Generation
		u.LastLoadedAt = time.Now()
	}
	if err = tx.UpdateUnit(ctx, u); err != nil {
		return err
	}

	if err = tx.RecordReload(ctx, storage.FromReloadResult(res, u.ID, runErr)); err != nil {
		return err
	}

	if runErr == nil {
		bindings := storage.BindingsFromManifest(res.Published, u.ID, res.Generation)
		if err = tx.ReplaceBindings(ctx, u.ID, bindings); err != nil {
			return err
		}
	}

	return tx.Commit()
}
