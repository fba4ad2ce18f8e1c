package naptan

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStagingPragmas(t *testing.T) {
	db, err := OpenStaging(filepath.Join(t.TempDir(), "stops.db"))
	require.NoError(t, err)
	defer db.Close()

	// One connection in the pool, so these read back from the same
	// connection the pragmas were applied to.
	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "delete", journalMode)

	var synchronous int
	require.NoError(t, db.QueryRow("PRAGMA synchronous").Scan(&synchronous))
	assert.Equal(t, 0, synchronous)
}

func TestProbeRTreeFailure(t *testing.T) {
	db, err := OpenStaging(filepath.Join(t.TempDir(), "stops.db"))
	require.NoError(t, err)
	defer db.Close()

	// Occupy the index name so the virtual-table DDL cannot succeed.
	_, err = db.Exec("CREATE TABLE stops_rtree (id INTEGER)")
	require.NoError(t, err)

	ok, probeErr := ProbeRTree(db)
	assert.False(t, ok)
	assert.Error(t, probeErr)

	// A failed probe downgrades the run, it does not break it: loading
	// without the spatial index still works on the same staging DB.
	l := NewLoader(db, false, 0, testLogger())
	require.NoError(t, l.Add(testStop("370000001", "Fargate", 53.38, -1.47)))
	stats, err := l.Finish()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Kept)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM stops").Scan(&count))
	assert.Equal(t, 1, count)
}
