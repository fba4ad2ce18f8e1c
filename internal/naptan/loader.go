package naptan

import (
	"database/sql"
	"log/slog"

	"busboard/internal/domain"
)

// DefaultBatchSize is the number of rows flushed per transaction.
const DefaultBatchSize = 500

const insertStop = `
INSERT OR IGNORE INTO stops (
    id, name, lat, lng,
    locality_name, admin_area_code, stop_type, stop_area_code,
    indicator, street, bearing, nptg_locality_code, status
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertRect = `
INSERT INTO stops_rtree (id, minX, maxX, minY, maxY)
VALUES (?, ?, ?, ?, ?)`

// Loader consumes the transformed-row stream with bounded memory: it
// holds one pending batch and flushes each full batch as a single
// transaction. Duplicate ids are dropped by INSERT OR IGNORE; the first
// occurrence wins and later ones are tallied as skipped.
type Loader struct {
	db        *sql.DB
	rtree     bool
	batchSize int
	logger    *slog.Logger

	batch   []*domain.Stop
	flushes int
	stats   domain.LoadStats
}

func NewLoader(db *sql.DB, rtree bool, batchSize int, logger *slog.Logger) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Loader{
		db:        db,
		rtree:     rtree,
		batchSize: batchSize,
		logger:    logger.With("component", "naptan_loader"),
		batch:     make([]*domain.Stop, 0, batchSize),
	}
}

// Add queues one normalized stop and flushes when the batch is full.
func (l *Loader) Add(stop *domain.Stop) error {
	l.stats.Seen++
	l.batch = append(l.batch, stop)
	if len(l.batch) >= l.batchSize {
		return l.flush()
	}
	return nil
}

// Skip tallies a row the transformer rejected.
func (l *Loader) Skip() {
	l.stats.Seen++
	l.stats.Skipped++
}

// Finish flushes the final partial batch and returns the run totals.
func (l *Loader) Finish() (domain.LoadStats, error) {
	if err := l.flush(); err != nil {
		return l.stats, err
	}
	l.logger.Info("load completed",
		"seen", l.stats.Seen,
		"kept", l.stats.Kept,
		"skipped", l.stats.Skipped,
		"batches", l.flushes,
	)
	return l.stats, nil
}

func (l *Loader) flush() error {
	if len(l.batch) == 0 {
		return nil
	}

	tx, err := l.db.Begin()
	if err != nil {
		return &IOError{Op: "beginning batch transaction", Err: err}
	}

	stmt, err := tx.Prepare(insertStop)
	if err != nil {
		tx.Rollback()
		return &IOError{Op: "preparing stop insert", Err: err}
	}

	for _, s := range l.batch {
		res, err := stmt.Exec(
			s.ID, s.Name, s.Lat, s.Lng,
			s.LocalityName, s.AdminAreaCode, s.StopType, s.StopAreaCode,
			s.Indicator, s.Street, s.Bearing, s.NptgLocalityCode, s.Status,
		)
		if err != nil {
			stmt.Close()
			tx.Rollback()
			return &IOError{Op: "inserting stop", Err: err}
		}

		affected, err := res.RowsAffected()
		if err != nil {
			stmt.Close()
			tx.Rollback()
			return &IOError{Op: "checking stop insert", Err: err}
		}
		if affected == 0 {
			// Duplicate id; the earlier occurrence stands.
			l.stats.Skipped++
			continue
		}

		l.stats.Kept++
		l.stats.BBox.Extend(s.Lat, s.Lng)

		if l.rtree {
			rowID, err := res.LastInsertId()
			if err != nil {
				stmt.Close()
				tx.Rollback()
				return &IOError{Op: "resolving stop rowid", Err: err}
			}
			if _, err := tx.Exec(insertRect, rowID, s.Lng, s.Lng, s.Lat, s.Lat); err != nil {
				stmt.Close()
				tx.Rollback()
				return &IOError{Op: "inserting spatial entry", Err: err}
			}
		}
	}

	stmt.Close()
	if err := tx.Commit(); err != nil {
		return &IOError{Op: "committing batch", Err: err}
	}

	l.flushes++
	l.logger.Debug("batch flushed", "rows", len(l.batch), "batch", l.flushes)
	l.batch = l.batch[:0]
	return nil
}
