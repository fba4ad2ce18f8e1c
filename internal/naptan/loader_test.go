package naptan

import (
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busboard/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// openTestDB provisions a staging database in a temp dir and probes the
// spatial index, mirroring what the pipeline does.
func openTestDB(t *testing.T) (*sql.DB, bool) {
	t.Helper()
	db, err := OpenStaging(filepath.Join(t.TempDir(), "stops.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rtree, _ := ProbeRTree(db)
	return db, rtree
}

func testStop(id, name string, lat, lng float64) *domain.Stop {
	return &domain.Stop{ID: id, Name: name, Lat: lat, Lng: lng}
}

func TestLoaderDeduplicatesByID(t *testing.T) {
	db, rtree := openTestDB(t)
	l := NewLoader(db, rtree, 0, testLogger())

	require.NoError(t, l.Add(testStop("370000001", "Fargate", 53.38, -1.47)))
	require.NoError(t, l.Add(testStop("370000001", "Fargate Renamed", 53.39, -1.46)))
	require.NoError(t, l.Add(testStop("370000002", "High Street", 53.381, -1.468)))

	stats, err := l.Finish()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Seen)
	assert.Equal(t, 2, stats.Kept)
	assert.Equal(t, 1, stats.Skipped)

	var name string
	require.NoError(t, db.QueryRow("SELECT name FROM stops WHERE id = ?", "370000001").Scan(&name))
	assert.Equal(t, "Fargate", name, "first occurrence wins")

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM stops").Scan(&count))
	assert.Equal(t, stats.Kept, count)
}

func TestLoaderBatchBoundaries(t *testing.T) {
	db, rtree := openTestDB(t)
	l := NewLoader(db, rtree, 2, testLogger())

	ids := []string{"370000001", "370000002", "370000003", "370000004", "370000005"}
	for i, id := range ids {
		require.NoError(t, l.Add(testStop(id, "Stop", 53.0+float64(i)*0.01, -1.5)))
	}

	stats, err := l.Finish()
	require.NoError(t, err)
	assert.Equal(t, len(ids), stats.Seen, "no row double-counted across batches")
	assert.Equal(t, len(ids), stats.Kept)
	assert.Equal(t, 0, stats.Skipped)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM stops").Scan(&count))
	assert.Equal(t, len(ids), count)
}

func TestLoaderBoundingBox(t *testing.T) {
	db, rtree := openTestDB(t)
	l := NewLoader(db, rtree, 0, testLogger())

	require.NoError(t, l.Add(testStop("370000001", "A", 53.38, -1.47)))
	require.NoError(t, l.Add(testStop("370000002", "B", 53.50, -1.30)))
	require.NoError(t, l.Add(testStop("370000003", "C", 53.20, -1.60)))

	stats, err := l.Finish()
	require.NoError(t, err)
	require.True(t, stats.BBox.Valid())
	assert.InDelta(t, 53.20, stats.BBox.MinLat, 1e-9)
	assert.InDelta(t, 53.50, stats.BBox.MaxLat, 1e-9)
	assert.InDelta(t, -1.60, stats.BBox.MinLng, 1e-9)
	assert.InDelta(t, -1.30, stats.BBox.MaxLng, 1e-9)
}

func TestLoaderSpatialEntries(t *testing.T) {
	db, rtree := openTestDB(t)
	if !rtree {
		t.Skip("sqlite build lacks the rtree extension")
	}

	l := NewLoader(db, true, 0, testLogger())
	require.NoError(t, l.Add(testStop("370000001", "A", 53.38, -1.47)))
	require.NoError(t, l.Add(testStop("370000001", "A dup", 53.38, -1.47)))
	require.NoError(t, l.Add(testStop("370000002", "B", 53.39, -1.46)))

	stats, err := l.Finish()
	require.NoError(t, err)

	// One spatial entry per actually-inserted stop, none for the
	// duplicate-id no-op.
	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM stops_rtree").Scan(&count))
	assert.Equal(t, stats.Kept, count)

	var minX, maxX, minY, maxY float64
	require.NoError(t, db.QueryRow(
		`SELECT r.minX, r.maxX, r.minY, r.maxY
		 FROM stops_rtree r JOIN stops s ON s.rowid = r.id
		 WHERE s.id = ?`, "370000001",
	).Scan(&minX, &maxX, &minY, &maxY))
	assert.InDelta(t, -1.47, minX, 1e-6)
	assert.InDelta(t, -1.47, maxX, 1e-6)
	assert.InDelta(t, 53.38, minY, 1e-6)
	assert.InDelta(t, 53.38, maxY, 1e-6)
}

func TestLoaderSkipTally(t *testing.T) {
	db, rtree := openTestDB(t)
	l := NewLoader(db, rtree, 0, testLogger())

	l.Skip()
	l.Skip()
	require.NoError(t, l.Add(testStop("370000001", "A", 53.38, -1.47)))

	stats, err := l.Finish()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Seen)
	assert.Equal(t, 1, stats.Kept)
	assert.Equal(t, 2, stats.Skipped)
}

func TestLoaderNullOptionalColumns(t *testing.T) {
	db, rtree := openTestDB(t)
	l := NewLoader(db, rtree, 0, testLogger())

	street := "Fargate"
	stop := testStop("370000001", "Fargate", 53.38, -1.47)
	stop.Street = &street
	require.NoError(t, l.Add(stop))
	_, err := l.Finish()
	require.NoError(t, err)

	var gotStreet sql.NullString
	var locality sql.NullString
	require.NoError(t, db.QueryRow(
		"SELECT street, locality_name FROM stops WHERE id = ?", "370000001",
	).Scan(&gotStreet, &locality))
	require.True(t, gotStreet.Valid)
	assert.Equal(t, "Fargate", gotStreet.String)
	assert.False(t, locality.Valid, "absent field stays NULL")
}
