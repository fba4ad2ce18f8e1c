package naptan

import (
	"database/sql"
	"log/slog"
	"os"
)

var sidecarSuffixes = []string{"-journal", "-wal", "-shm"}

// Finalize refreshes statistics and compacts the staging file so the
// published artifact stays small and query-efficient.
func Finalize(db *sql.DB) error {
	if _, err := db.Exec("ANALYZE"); err != nil {
		return &IOError{Op: "analyzing staging database", Err: err}
	}
	if _, err := db.Exec("VACUUM"); err != nil {
		return &IOError{Op: "compacting staging database", Err: err}
	}
	return nil
}

// Publish swaps the finalized staging file into the destination path.
// The rename is the only operation that ever touches the destination, so
// readers see either the previous complete dataset or the new one, never
// a partial file. The staging database must already be closed.
func Publish(stagingPath, destPath string, logger *slog.Logger) error {
	logger = logger.With("component", "naptan_publisher")

	// Stray journal files must never ride along with the staging file.
	if err := removeSidecars(stagingPath); err != nil {
		return err
	}

	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return &IOError{Op: "removing previous dataset", Err: err}
	}

	if err := os.Rename(stagingPath, destPath); err != nil {
		return &IOError{Op: "publishing dataset", Err: err}
	}

	// Past the atomic boundary: the data is live. Leftovers from here on
	// are harmless, so cleanup failures only warn.
	if err := removeSidecars(destPath); err != nil {
		logger.Warn("failed to remove destination sidecar files", "error", err)
	}

	logger.Info("dataset published", "dest", destPath)
	return nil
}

func removeSidecars(path string) error {
	for _, suffix := range sidecarSuffixes {
		if err := os.Remove(path + suffix); err != nil && !os.IsNotExist(err) {
			return &IOError{Op: "removing sidecar " + path + suffix, Err: err}
		}
	}
	return nil
}
