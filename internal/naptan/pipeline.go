package naptan

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"busboard/internal/domain"
)

// Options are the full inputs of one pipeline run. The core is a pure
// function of these values; path and filter defaults belong to the
// caller.
type Options struct {
	// Source is a remote URL, a local path or a file:// path.
	Source string
	// Dest is the final database path, touched only by the atomic swap.
	Dest string
	// Prefix restricts ingestion to ids starting with it; empty or the
	// NoFilter sentinel keeps everything.
	Prefix string
	// RTree requests the spatial index; it is still subject to the
	// capability probe.
	RTree bool
	// BatchSize overrides DefaultBatchSize when positive.
	BatchSize int
}

// Report is the operator-facing summary of a completed run.
type Report struct {
	RunID    string           `json:"run_id"`
	Stats    domain.LoadStats `json:"stats"`
	RTree    bool             `json:"rtree"`
	Duration time.Duration    `json:"duration"`
}

// Run executes one full rebuild: acquire -> schema -> streaming load ->
// finalize -> atomic publish. Any failure before publish leaves the
// destination untouched; temp resources are removed on every exit path.
func Run(ctx context.Context, opts Options, logger *slog.Logger) (*Report, error) {
	runID := uuid.NewString()
	logger = logger.With("component", "naptan_pipeline", "run_id", runID)
	start := time.Now()

	logger.Info("starting stops import",
		"source", opts.Source,
		"dest", opts.Dest,
		"prefix", opts.Prefix,
		"rtree_requested", opts.RTree,
	)

	csvPath, cleanupSrc, err := Acquire(ctx, opts.Source, logger)
	if err != nil {
		return nil, err
	}
	defer cleanupSrc()

	if err := os.MkdirAll(filepath.Dir(opts.Dest), 0o755); err != nil {
		return nil, &IOError{Op: "creating destination dir", Err: err}
	}

	// The staging dir lives next to the destination so the final rename
	// never crosses a filesystem boundary.
	stagingDir, err := os.MkdirTemp(filepath.Dir(opts.Dest), ".staging-")
	if err != nil {
		return nil, &IOError{Op: "creating staging dir", Err: err}
	}
	defer func() {
		if err := os.RemoveAll(stagingDir); err != nil {
			logger.Warn("failed to remove staging dir", "dir", stagingDir, "error", err)
		}
	}()

	stagingPath := filepath.Join(stagingDir, "stops.db")
	db, err := OpenStaging(stagingPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rtree := false
	if opts.RTree {
		var probeErr error
		rtree, probeErr = ProbeRTree(db)
		if !rtree {
			logger.Warn("spatial index unavailable, continuing without it", "error", probeErr)
		}
	}

	stats, err := load(csvPath, opts.Prefix, NewLoader(db, rtree, opts.BatchSize, logger))
	if err != nil {
		return nil, err
	}

	if err := Finalize(db); err != nil {
		return nil, err
	}
	if err := db.Close(); err != nil {
		return nil, &IOError{Op: "closing staging database", Err: err}
	}

	if err := Publish(stagingPath, opts.Dest, logger); err != nil {
		return nil, err
	}

	report := &Report{
		RunID:    runID,
		Stats:    stats,
		RTree:    rtree,
		Duration: time.Since(start),
	}

	logger.Info("stops import completed",
		"seen", stats.Seen,
		"kept", stats.Kept,
		"skipped", stats.Skipped,
		"rtree", rtree,
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}

// load streams the CSV through the transformer into the loader, one row
// and one open batch at a time.
func load(csvPath, prefix string, loader *Loader) (domain.LoadStats, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return domain.LoadStats{}, &IOError{Op: "opening source csv", Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return domain.LoadStats{}, &IOError{Op: "reading csv header", Err: err}
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			// Malformed row: a counted skip, not a run failure.
			loader.Skip()
			continue
		}
		if err != nil {
			return domain.LoadStats{}, &IOError{Op: "reading csv row", Err: err}
		}

		stop, keep := Transform(NewRecord(header, row), prefix)
		if !keep {
			loader.Skip()
			continue
		}
		if err := loader.Add(stop); err != nil {
			return domain.LoadStats{}, err
		}
	}

	return loader.Finish()
}
