package reloader

import (
	"context"

	"github.com/dshills/redefine-mcp/pkg/types"
)

// UnitHandle identifies a unit produced by a Loader
type UnitHandle interface {
	UnitName() string
}

// Loader loads unit source as an isolated namespace and reflects on it
type Loader interface {
	LoadUnit(ctx context.Context, source, name string) (UnitHandle, error)
	ListExports(ctx context.Context, h UnitHandle) ([]string, error)
}

// Executor runs top-level source in the shared namespace
type Executor interface {
	Exec(ctx context.Context, source string) error
}

// Publisher applies a manifest to the shared namespace as one batch
type Publisher interface {
	Publish(ctx context.Context, manifest types.Manifest) error
}

// Recorder receives every finished run. err is nil for successful runs.
type Recorder interface {
	RecordReload(ctx context.Context, res *types.ReloadResult, err error) error
}

// generationReporter is implemented by handles that count redefinitions
type generationReporter interface {
	UnitGeneration() int
}
