package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// isUniqueViolation reports whether err came from a UNIQUE constraint in
// either driver
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Unit operations

// createUnitWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) createUnitWithQuerier(ctx context.Context, q querier, unit *Unit) error {
	query := `
		INSERT INTO units (name, artifact_path, generation, content_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		unit.Name, unit.ArtifactPath, unit.Generation, unit.ContentHash[:], now, now)
	if isUniqueViolation(err) {
		return fmt.Errorf("unit %s: %w", unit.Name, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create unit: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	unit.ID = id
	unit.CreatedAt = now
	unit.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateUnit(ctx context.Context, unit *Unit) error {
	return s.createUnitWithQuerier(ctx, s.querier(), unit)
}

const unitColumns = `id, name, artifact_path, generation, content_hash, last_loaded_at, created_at, updated_at`

// scanner is implemented by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanUnit(row scanner) (*Unit, error) {
	var unit Unit
	var hash []byte
	var lastLoadedAt sql.NullTime
	err := row.Scan(
		&unit.ID, &unit.Name, &unit.ArtifactPath, &unit.Generation, &hash,
		&lastLoadedAt, &unit.CreatedAt, &unit.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	copy(unit.ContentHash[:], hash)
	if lastLoadedAt.Valid {
		unit.LastLoadedAt = lastLoadedAt.Time
	}
	return &unit, nil
}

// getUnitWithQuerier fetches one unit by a single-column predicate
func (s *SQLiteStorage) getUnitWithQuerier(ctx context.Context, q querier, where string, arg interface{}) (*Unit, error) {
	query := `SELECT ` + unitColumns + ` FROM units WHERE ` + where + ` = ?`
	unit, err := scanUnit(q.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return unit, nil
}

func (s *SQLiteStorage) GetUnit(ctx context.Context, name string) (*Unit, error) {
	return s.getUnitWithQuerier(ctx, s.querier(), "name", name)
}

func (s *SQLiteStorage) GetUnitByID(ctx context.Context, unitID int64) (*Unit, error) {
	return s.getUnitWithQuerier(ctx, s.querier(), "id", unitID)
}

// updateUnitWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) updateUnitWithQuerier(ctx context.Context, q querier, unit *Unit) error {
	query := `
		UPDATE units
		SET artifact_path = ?, generation = ?, content_hash = ?, last_loaded_at = ?, updated_at = ?
		WHERE id = ?
	`
	var lastLoadedAt sql.NullTime
	if !unit.LastLoadedAt.IsZero() {
		lastLoadedAt = sql.NullTime{Time: unit.LastLoadedAt, Valid: true}
	}

	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		unit.ArtifactPath, unit.Generation, unit.ContentHash[:], lastLoadedAt, now, unit.ID)
	if err != nil {
		return fmt.Errorf("failed to update unit: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	unit.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpdateUnit(ctx context.Context, unit *Unit) error {
	return s.updateUnitWithQuerier(ctx, s.querier(), unit)
}

// listUnitsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listUnitsWithQuerier(ctx context.Context, q querier) ([]*Unit, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+unitColumns+` FROM units ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	defer rows.Close()

	var units []*Unit
	for rows.Next() {
		unit, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
	}
	return units, rows.Err()
}

func (s *SQLiteStorage) ListUnits(ctx context.Context) ([]*Unit, error) {
	return s.listUnitsWithQuerier(ctx, s.querier())
}

// Reload operations

// recordReloadWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) recordReloadWithQuerier(ctx context.Context, q querier, reload *Reload) error {
	if reload.ID == "" {
		return errors.New("reload requires an ID")
	}
	query := `
		INSERT INTO reloads (id, unit_id, generation, status, phase, mode, error,
		                     exports_count, published_count, skipped, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	_, err := q.ExecContext(ctx, query,
		reload.ID, reload.UnitID, reload.Generation, reload.Status, reload.Phase, reload.Mode,
		reload.Error, reload.ExportsCount, reload.PublishedCount, strings.Join(reload.Skipped, ","),
		reload.DurationMs, now)
	if isUniqueViolation(err) {
		return fmt.Errorf("reload %s: %w", reload.ID, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to record reload: %w", err)
	}
	reload.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) RecordReload(ctx context.Context, reload *Reload) error {
	return s.recordReloadWithQuerier(ctx, s.querier(), reload)
}

const reloadColumns = `id, unit_id, generation, status, phase, mode, error,
	exports_count, published_count, skipped, duration_ms, created_at`

func scanReload(row scanner) (*Reload, error) {
	var reload Reload
	var errMsg, skipped sql.NullString
	err := row.Scan(
		&reload.ID, &reload.UnitID, &reload.Generation, &reload.Status, &reload.Phase,
		&reload.Mode, &errMsg, &reload.ExportsCount, &reload.PublishedCount, &skipped,
		&reload.DurationMs, &reload.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if errMsg.Valid {
		reload.Error = &errMsg.String
	}
	if skipped.Valid && skipped.String != "" {
		reload.Skipped = strings.Split(skipped.String, ",")
	}
	return &reload, nil
}

// getReloadWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getReloadWithQuerier(ctx context.Context, q querier, reloadID string) (*Reload, error) {
	reload, err := scanReload(q.QueryRowContext(ctx, `SELECT `+reloadColumns+` FROM reloads WHERE id = ?`, reloadID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return reload, nil
}

func (s *SQLiteStorage) GetReload(ctx context.Context, reloadID string) (*Reload, error) {
	return s.getReloadWithQuerier(ctx, s.querier(), reloadID)
}

// listReloadsWithQuerier returns the newest reloads of a unit first
func (s *SQLiteStorage) listReloadsWithQuerier(ctx context.Context, q querier, unitID int64, limit int) ([]*Reload, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unbounded
	}
	query := `SELECT ` + reloadColumns + ` FROM reloads WHERE unit_id = ? ORDER BY rowid DESC LIMIT ?`
	rows, err := q.QueryContext(ctx, query, unitID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reloads: %w", err)
	}
	defer rows.Close()

	var reloads []*Reload
	for rows.Next() {
		reload, err := scanReload(rows)
		if err != nil {
			return nil, err
		}
		reloads = append(reloads, reload)
	}
	return reloads, rows.Err()
}

func (s *SQLiteStorage) ListReloads(ctx context.Context, unitID int64, limit int) ([]*Reload, error) {
	return s.listReloadsWithQuerier(ctx, s.querier(), unitID, limit)
}

// Binding operations

// replaceBindingsWithQuerier drops the unit's bindings and inserts the new set
func (s *SQLiteStorage) replaceBindingsWithQuerier(ctx context.Context, q querier, unitID int64, bindings []*Binding) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM bindings WHERE unit_id = ?", unitID); err != nil {
		return fmt.Errorf("failed to clear bindings: %w", err)
	}

	query := `
		INSERT INTO bindings (unit_id, local_name, qualified_source, generation, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	now := time.Now()
	for _, b := range bindings {
		b.UnitID = unitID
		result, err := q.ExecContext(ctx, query, unitID, b.LocalName, b.QualifiedSource, b.Generation, now)
		if err != nil {
			return fmt.Errorf("failed to insert binding %s: %w", b.LocalName, err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		b.ID = id
		b.CreatedAt = now
	}
	return nil
}

// ReplaceBindings replaces the unit's bindings atomically
func (s *SQLiteStorage) ReplaceBindings(ctx context.Context, unitID int64, bindings []*Binding) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.replaceBindingsWithQuerier(ctx, tx, unitID, bindings); err != nil {
		return err
	}
	return tx.Commit()
}

// listBindingsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listBindingsWithQuerier(ctx context.Context, q querier, unitID int64) ([]*Binding, error) {
	query := `
		SELECT id, unit_id, local_name, qualified_source, generation, created_at
		FROM bindings
		WHERE unit_id = ?
		ORDER BY id
	`
	rows, err := q.QueryContext(ctx, query, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bindings: %w", err)
	}
	defer rows.Close()

	var bindings []*Binding
	for rows.Next() {
		var b Binding
		if err := rows.Scan(&b.ID, &b.UnitID, &b.LocalName, &b.QualifiedSource, &b.Generation, &b.CreatedAt); err != nil {
			return nil, err
		}
		bindings = append(bindings, &b)
	}
	return bindings, rows.Err()
}

func (s *SQLiteStorage) ListBindings(ctx context.Context, unitID int64) ([]*Binding, error) {
	return s.listBindingsWithQuerier(ctx, s.querier(), unitID)
}

// Status operations

// getStatusWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getStatusWithQuerier(ctx context.Context, q querier) (*Status, error) {
	status := &Status{}

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM units", &status.UnitsCount},
		{"SELECT COUNT(*) FROM reloads", &status.ReloadsCount},
		{"SELECT COUNT(*) FROM reloads WHERE status = 'failed'", &status.FailedReloads},
		{"SELECT COUNT(*) FROM bindings", &status.BindingsCount},
	}
	for _, c := range counts {
		if err := q.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, err
		}
	}

	var lastReloadAt time.Time
	err := q.QueryRowContext(ctx, "SELECT created_at FROM reloads ORDER BY rowid DESC LIMIT 1").Scan(&lastReloadAt)
	switch {
	case err == nil:
		status.LastReloadAt = lastReloadAt
	case !errors.Is(err, sql.ErrNoRows):
		return nil, err
	}

	// Calculate database size
	var pageCount, pageSize int
	err = q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	if err == nil {
		_ = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.DatabaseSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	version, err := SchemaVersion(ctx, q)
	if err != nil {
		return nil, err
	}

	status.Health = HealthStatus{
		DatabaseAccessible: true,
		SchemaVersion:      version.String(),
	}
	return status, nil
}

func (s *SQLiteStorage) GetStatus(ctx context.Context) (*Status, error) {
	return s.getStatusWithQuerier(ctx, s.querier())
}

// Transaction methods - delegate to storage implementation with tx querier

func (t *sqliteTx) CreateUnit(ctx context.Context, unit *Unit) error {
	return t.storage.createUnitWithQuerier(ctx, t.querier(), unit)
}

func (t *sqliteTx) GetUnit(ctx context.Context, name string) (*Unit, error) {
	return t.storage.getUnitWithQuerier(ctx, t.querier(), "name", name)
}

func (t *sqliteTx) GetUnitByID(ctx context.Context, unitID int64) (*Unit, error) {
	return t.storage.getUnitWithQuerier(ctx, t.querier(), "id", unitID)
}

func (t *sqliteTx) UpdateUnit(ctx context.Context, unit *Unit) error {
	return t.storage.updateUnitWithQuerier(ctx, t.querier(), unit)
}

func (t *sqliteTx) ListUnits(ctx context.Context) ([]*Unit, error) {
	return t.storage.listUnitsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) RecordReload(ctx context.Context, reload *Reload) error {
	return t.storage.recordReloadWithQuerier(ctx, t.querier(), reload)
}

func (t *sqliteTx) GetReload(ctx context.Context, reloadID string) (*Reload, error) {
	return t.storage.getReloadWithQuerier(ctx, t.querier(), reloadID)
}

func (t *sqliteTx) ListReloads(ctx context.Context, unitID int64, limit int) ([]*Reload, error) {
	return t.storage.listReloadsWithQuerier(ctx, t.querier(), unitID, limit)
}

func (t *sqliteTx) ReplaceBindings(ctx context.Context, unitID int64, bindings []*Binding) error {
	return t.storage.replaceBindingsWithQuerier(ctx, t.querier(), unitID, bindings)
}

func (t *sqliteTx) ListBindings(ctx context.Context, unitID int64) ([]*Binding, error) {
	return t.storage.listBindingsWithQuerier(ctx, t.querier(), unitID)
}

func (t *sqliteTx) GetStatus(ctx context.Context) (*Status, error) {
	return t.storage.getStatusWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying storage
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}

var (
	_ Storage = (*SQLiteStorage)(nil)
	_ Tx      = (*sqliteTx)(nil)
)
