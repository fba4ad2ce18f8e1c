package naptan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(header []string, row []string) Record {
	return NewRecord(header, row)
}

func TestTransformSynonymHeaders(t *testing.T) {
	tests := []struct {
		name   string
		header []string
	}{
		{"modern naptan export", []string{"ATCOCode", "CommonName", "Latitude", "Longitude"}},
		{"snake case", []string{"atco_code", "common_name", "latitude", "longitude"}},
		{"spaced", []string{"ATCO Code", "Common Name", "Latitude", "Longitude"}},
		{"short coords", []string{"StopID", "Name", "lat", "lon"}},
		{"windows export with BOM", []string{"\ufeffATCOCode", "CommonName", "Latitude", "Longitude"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := record(tt.header, []string{"370000001", "Fargate", "53.38", "-1.47"})
			stop, keep := Transform(rec, NoFilter)
			require.True(t, keep)
			assert.Equal(t, "370000001", stop.ID)
			assert.Equal(t, "Fargate", stop.Name)
			assert.InDelta(t, 53.38, stop.Lat, 1e-9)
			assert.InDelta(t, -1.47, stop.Lng, 1e-9)
		})
	}
}

func TestTransformPrefixFilter(t *testing.T) {
	header := []string{"ATCOCode", "CommonName", "Latitude", "Longitude"}
	row := []string{"370000001", "Fargate", "53.38", "-1.47"}

	tests := []struct {
		prefix string
		keep   bool
	}{
		{"370", true},
		{"940", false},
		{"all", true},
		{"ALL", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run("prefix "+tt.prefix, func(t *testing.T) {
			_, keep := Transform(record(header, row), tt.prefix)
			assert.Equal(t, tt.keep, keep)
		})
	}
}

func TestTransformRejectsBadCoordinates(t *testing.T) {
	header := []string{"ATCOCode", "CommonName", "Latitude", "Longitude"}

	tests := []struct {
		name string
		row  []string
	}{
		{"missing latitude", []string{"370000001", "Fargate", "", "-1.47"}},
		{"missing longitude", []string{"370000001", "Fargate", "53.38", ""}},
		{"unparsable latitude", []string{"370000001", "Fargate", "n/a", "-1.47"}},
		{"nan latitude", []string{"370000001", "Fargate", "NaN", "-1.47"}},
		{"infinite longitude", []string{"370000001", "Fargate", "53.38", "+Inf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, keep := Transform(record(header, tt.row), NoFilter)
			assert.False(t, keep)
		})
	}
}

func TestTransformRequiresID(t *testing.T) {
	header := []string{"ATCOCode", "CommonName", "Latitude", "Longitude"}

	_, keep := Transform(record(header, []string{"", "Fargate", "53.38", "-1.47"}), NoFilter)
	assert.False(t, keep)

	_, keep = Transform(record([]string{"CommonName", "Latitude", "Longitude"},
		[]string{"Fargate", "53.38", "-1.47"}), NoFilter)
	assert.False(t, keep)
}

func TestTransformNameDefaultsToID(t *testing.T) {
	rec := record([]string{"ATCOCode", "Latitude", "Longitude"},
		[]string{"370000001", "53.38", "-1.47"})
	stop, keep := Transform(rec, NoFilter)
	require.True(t, keep)
	assert.Equal(t, "370000001", stop.Name)
}

func TestTransformOptionalFields(t *testing.T) {
	header := []string{
		"ATCOCode", "CommonName", "Latitude", "Longitude",
		"LocalityName", "AdministrativeAreaCode", "StopType", "StopAreaCode",
		"Indicator", "Street", "Bearing", "NptgLocalityCode", "Status",
	}
	row := []string{
		"370000001", "Fargate", "53.38", "-1.47",
		"Sheffield", "107", "BCT", "370G1",
		"Stop FS1", "Fargate", "N", "E0057033", "active",
	}

	stop, keep := Transform(record(header, row), NoFilter)
	require.True(t, keep)
	require.NotNil(t, stop.LocalityName)
	assert.Equal(t, "Sheffield", *stop.LocalityName)
	require.NotNil(t, stop.AdminAreaCode)
	assert.Equal(t, "107", *stop.AdminAreaCode)
	require.NotNil(t, stop.StopType)
	assert.Equal(t, "BCT", *stop.StopType)
	require.NotNil(t, stop.Bearing)
	assert.Equal(t, "N", *stop.Bearing)
	require.NotNil(t, stop.Status)
	assert.Equal(t, "active", *stop.Status)

	// Missing columns stay absent, not empty.
	bare, keep := Transform(record([]string{"ATCOCode", "Latitude", "Longitude"},
		[]string{"370000002", "53.40", "-1.45"}), NoFilter)
	require.True(t, keep)
	assert.Nil(t, bare.LocalityName)
	assert.Nil(t, bare.AdminAreaCode)
	assert.Nil(t, bare.Street)
	assert.Nil(t, bare.Status)
}

func TestNewRecordShortRow(t *testing.T) {
	rec := record([]string{"ATCOCode", "CommonName", "Latitude", "Longitude"},
		[]string{"370000001", "Fargate"})
	_, keep := Transform(rec, NoFilter)
	assert.False(t, keep)
}

func TestNormalizeColumn(t *testing.T) {
	assert.Equal(t, "atcocode", normalizeColumn("ATCO_Code"))
	assert.Equal(t, "atcocode", normalizeColumn(" ATCO Code "))
	assert.Equal(t, "atcocode", normalizeColumn("\ufeffATCOCode"))
	assert.Equal(t, "commonname", normalizeColumn("CommonName"))
}
