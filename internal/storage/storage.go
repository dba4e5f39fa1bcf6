package storage

import (
	"context"
	"time"

	"github.com/dshills/redefine-mcp/pkg/types"
)

// Storage defines the interface for persisting reload history
type Storage interface {
	// Unit operations
	CreateUnit(ctx context.Context, unit *Unit) error
	GetUnit(ctx context.Context, name string) (*Unit, error)
	GetUnitByID(ctx context.Context, unitID int64) (*Unit, error)
	UpdateUnit(ctx context.Context, unit *Unit) error
	ListUnits(ctx context.Context) ([]*Unit, error)

	// Reload operations
	RecordReload(ctx context.Context, reload *Reload) error
	GetReload(ctx context.Context, reloadID string) (*Reload, error)
	ListReloads(ctx context.Context, unitID int64, limit int) ([]*Reload, error)

	// Binding operations
	ReplaceBindings(ctx context.Context, unitID int64, bindings []*Binding) error
	ListBindings(ctx context.Context, unitID int64) ([]*Binding, error)

	// Status operations
	GetStatus(ctx context.Context) (*Status, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Reload statuses
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Unit represents a unit that has been redefined at least once
type Unit struct {
	ID           int64
	Name         string
	ArtifactPath string
	Generation   int
	ContentHash  [32]byte
	LastLoadedAt time.Time // Zero until a reload succeeds
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Reload represents one run of the reload driver
type Reload struct {
	ID             string // UUID assigned by the driver
	UnitID         int64
	Generation     int
	Status         string
	Phase          string
	Mode           string
	Error          *string // Nullable
	ExportsCount   int
	PublishedCount int
	Skipped        []string
	DurationMs     int64
	CreatedAt      time.Time
}

// Binding represents a name published into the shared namespace
type Binding struct {
	ID              int64
	UnitID          int64
	LocalName       string
	QualifiedSource string
	Generation      int
	CreatedAt       time.Time
}

// Status contains statistics about the history database
type Status struct {
	UnitsCount     int
	ReloadsCount   int
	FailedReloads  int
	BindingsCount  int
	DatabaseSizeMB float64
	LastReloadAt   time.Time
	Health         HealthStatus
}

// HealthStatus represents the health of the database
type HealthStatus struct {
	DatabaseAccessible bool
	SchemaVersion      string
}

// FromReloadResult converts a driver result to a storage Reload
func FromReloadResult(res *types.ReloadResult, unitID int64, runErr error) *Reload {
	r := &Reload{
		ID:             res.ID,
		UnitID:         unitID,
		Generation:     res.Generation,
		Status:         StatusOK,
		Phase:          string(res.Phase),
		Mode:           string(res.Mode),
		ExportsCount:   len(res.Exports),
		PublishedCount: len(res.Published),
		Skipped:        res.Skipped,
		DurationMs:     res.Duration.Milliseconds(),
	}
	if runErr != nil {
		msg := runErr.Error()
		r.Status = StatusFailed
		r.Error = &msg
		r.PublishedCount = 0
	}
	return r
}

// BindingsFromManifest converts a published manifest to storage Bindings
func BindingsFromManifest(manifest types.Manifest, unitID int64, generation int) []*Binding {
	bindings := make([]*Binding, 0, len(manifest))
	for _, entry := range manifest {
		bindings = append(bindings, &Binding{
			UnitID:          unitID,
			LocalName:       entry.LocalName,
			QualifiedSource: entry.QualifiedSource(),
			Generation:      generation,
		})
	}
	return bindings
}
