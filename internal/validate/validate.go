// Package validate is the independent post-publish check for a stops
// dataset. It asserts structural and geographic sanity and proves the
// last publish completed atomically.
package validate

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"busboard/internal/domain"
)

// Generous Great Britain bounding box. A sanity bound against corrupted
// coordinate parsing, not a precise locality check.
const (
	MinLat = 49.0
	MaxLat = 61.0
	MinLng = -9.0
	MaxLng = 2.0
)

var sidecarSuffixes = []string{"-journal", "-wal", "-shm"}

// Error names the specific assertion that failed.
type Error struct {
	Check  string
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Check, e.Detail)
}

// Result summarizes a dataset that passed every assertion.
type Result struct {
	Path      string             `json:"path"`
	Rows      int                `json:"rows"`
	BBox      domain.BoundingBox `json:"bbox"`
	RTree     bool               `json:"rtree"`
	RTreeRows int                `json:"rtree_rows,omitempty"`
}

// Run checks the published dataset at path. Assertions run in order and
// the first failure is fatal.
func Run(path string) (*Result, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &Error{Check: "file", Detail: fmt.Sprintf("%s: %v", path, err)}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &Error{Check: "open", Detail: err.Error()}
	}
	defer db.Close()

	if ok, err := tableExists(db, "stops"); err != nil {
		return nil, &Error{Check: "schema", Detail: err.Error()}
	} else if !ok {
		return nil, &Error{Check: "schema", Detail: "stops table missing"}
	}

	var rows int
	if err := db.QueryRow("SELECT COUNT(*) FROM stops").Scan(&rows); err != nil {
		return nil, &Error{Check: "count", Detail: err.Error()}
	}
	if rows == 0 {
		return nil, &Error{Check: "count", Detail: "stops table is empty"}
	}

	var bbox domain.BoundingBox
	err = db.QueryRow("SELECT MIN(lat), MAX(lat), MIN(lng), MAX(lng) FROM stops").
		Scan(&bbox.MinLat, &bbox.MaxLat, &bbox.MinLng, &bbox.MaxLng)
	if err != nil {
		return nil, &Error{Check: "bounds", Detail: err.Error()}
	}
	if bbox.MinLat < MinLat || bbox.MaxLat > MaxLat {
		return nil, &Error{Check: "bounds", Detail: fmt.Sprintf(
			"latitude range [%f, %f] outside [%f, %f]", bbox.MinLat, bbox.MaxLat, MinLat, MaxLat)}
	}
	if bbox.MinLng < MinLng || bbox.MaxLng > MaxLng {
		return nil, &Error{Check: "bounds", Detail: fmt.Sprintf(
			"longitude range [%f, %f] outside [%f, %f]", bbox.MinLng, bbox.MaxLng, MinLng, MaxLng)}
	}

	for _, suffix := range sidecarSuffixes {
		if _, err := os.Stat(path + suffix); err == nil {
			return nil, &Error{Check: "sidecars", Detail: "leftover sidecar file: " + path + suffix}
		}
	}

	res := &Result{Path: path, Rows: rows, BBox: bbox}

	// The spatial index is an optional capability; its absence is not a
	// failure, only reported.
	if ok, err := tableExists(db, "stops_rtree"); err == nil && ok {
		res.RTree = true
		if err := db.QueryRow("SELECT COUNT(*) FROM stops_rtree").Scan(&res.RTreeRows); err != nil {
			return nil, &Error{Check: "rtree", Detail: err.Error()}
		}
	}

	return res, nil
}

func tableExists(db *sql.DB, name string) (bool, error) {
	var n int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
