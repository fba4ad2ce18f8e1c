package naptan

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Load-time pragmas. The staging file is rebuilt from scratch every run,
// so a crash mid-build only costs a re-run; durability during load is
// wasted work. WAL is avoided on purpose: a plain rollback journal leaves
// no -wal/-shm sidecars to chase at publish time.
var stagingPragmas = []string{
	"PRAGMA journal_mode = DELETE",
	"PRAGMA synchronous = OFF",
	"PRAGMA temp_store = MEMORY",
}

const createStops = `
CREATE TABLE stops (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    lat REAL NOT NULL,
    lng REAL NOT NULL,
    locality_name TEXT,
    admin_area_code TEXT,
    stop_type TEXT,
    stop_area_code TEXT,
    indicator TEXT,
    street TEXT,
    bearing TEXT,
    nptg_locality_code TEXT,
    status TEXT
);
CREATE INDEX stops_lat ON stops (lat);
CREATE INDEX stops_lng ON stops (lng);
CREATE INDEX stops_admin_area_code ON stops (admin_area_code);
`

const createRTree = `
CREATE VIRTUAL TABLE stops_rtree USING rtree(
    id,
    minX, maxX,
    minY, maxY
);`

// OpenStaging creates a brand-new database at path, applies the load
// pragmas and provisions the stops table with its secondary indexes.
// The path must never be the final destination; only the publisher
// touches that.
func OpenStaging(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &IOError{Op: "opening staging database", Err: err}
	}

	// Single writer, single connection: the pragmas below are
	// per-connection state and must apply to the one every later
	// statement runs on.
	db.SetMaxOpenConns(1)

	for _, pragma := range stagingPragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, &IOError{Op: fmt.Sprintf("applying %q", pragma), Err: err}
		}
	}

	if _, err := db.Exec(createStops); err != nil {
		db.Close()
		return nil, &IOError{Op: "creating stops table", Err: err}
	}

	return db, nil
}

// ProbeRTree attempts to create the spatial index table. SQLite builds
// without the rtree extension fail the DDL; that failure means the
// capability is absent, not that the run is broken. The returned error
// is informational, for the downgrade warning.
func ProbeRTree(db *sql.DB) (bool, error) {
	if _, err := db.Exec(createRTree); err != nil {
		return false, err
	}
	return true, nil
}
