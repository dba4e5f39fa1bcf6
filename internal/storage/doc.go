// Package storage provides SQLite-based persistence for reload history.
//
// The storage layer manages:
//   - Units that have been redefined, with their latest artifact hash
//   - One row per reload run, successful or not
//   - The names each unit currently publishes into the shared namespace
//
// # Database Schema
//
// Tables:
//   - units: Unit name, artifact path, generation, SHA-256 of the source
//   - reloads: Run ID (UUID), status, last phase reached, mode, error text
//   - bindings: local_name -> qualified_source per unit
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("~/.redefine/history.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	unit := &storage.Unit{Name: "m1", ArtifactPath: "units/m1.ul"}
//	err = db.CreateUnit(ctx, unit)
//
//	reloads, err := db.ListReloads(ctx, unit.ID, 10) // newest first
//
// # Transactions
//
// Use transactions to record a run and its bindings together:
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	_ = tx.UpdateUnit(ctx, unit)
//	_ = tx.RecordReload(ctx, reload)
//	_ = tx.ReplaceBindings(ctx, unit.ID, bindings)
//
//	if err := tx.Commit(); err != nil {
//	    return err
//	}
//
// # Migrations
//
// Schema versions are semantic versions applied in order at open time; each
// migration runs in its own transaction together with its schema_version row.
//
// # Build Tags
//
// The storage package supports two build configurations:
//
// CGO Build (sqlite_vec tag):
//
//   - Uses github.com/mattn/go-sqlite3 driver
//
//   - Requires C compiler
//
//     CGO_ENABLED=1 go build -tags "sqlite_vec"
//
// Pure Go Build (default, purego tag):
//
//   - Uses modernc.org/sqlite driver
//
//   - No C compiler needed
//
//     CGO_ENABLED=0 go build -tags "purego"
package storage
