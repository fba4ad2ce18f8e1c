package naptan

import (
	"math"
	"strconv"
	"strings"

	"busboard/internal/domain"
)

// NoFilter is the prefix sentinel meaning "keep every identifier".
const NoFilter = "all"

// Column synonym ladders, tried in order against the normalized header.
// NaPTAN exports have changed header casing and naming over the years;
// the first present non-empty value wins.
var (
	idColumns           = []string{"atcocode", "atco", "naptancode", "stopid", "id"}
	nameColumns         = []string{"commonname", "stopname", "name", "descriptor"}
	latColumns          = []string{"latitude", "lat"}
	lngColumns          = []string{"longitude", "lng", "lon", "long"}
	localityColumns     = []string{"localityname", "locality", "nptglocality"}
	adminAreaColumns    = []string{"administrativeareacode", "adminareacode", "admincode"}
	stopTypeColumns     = []string{"stoptype", "type"}
	stopAreaColumns     = []string{"stopareacode", "stoparea"}
	indicatorColumns    = []string{"indicator"}
	streetColumns       = []string{"street"}
	bearingColumns      = []string{"bearing"}
	localityCodeColumns = []string{"nptglocalitycode", "localitycode"}
	statusColumns       = []string{"status", "stopstatus"}
)

// Record maps normalized column names to raw string values for one row.
type Record map[string]string

// normalizeColumn lowercases a header cell and strips spaces and
// underscores so "ATCO_Code", "ATCOCode" and "atco code" all collide.
// A UTF-8 BOM on the first cell of Windows-exported files is dropped
// too, otherwise the id column would never match.
func normalizeColumn(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if r == ' ' || r == '_' || r == '\t' || r == '\ufeff' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NewRecord pairs a header with one data row. Short rows simply leave
// trailing columns absent.
func NewRecord(header, row []string) Record {
	rec := make(Record, len(header))
	for i, col := range header {
		if i >= len(row) {
			break
		}
		rec[normalizeColumn(col)] = strings.TrimSpace(row[i])
	}
	return rec
}

// lookup returns the first present non-empty value from the candidate
// ladder.
func lookup(rec Record, candidates []string) (string, bool) {
	for _, c := range candidates {
		if v, ok := rec[c]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func optional(rec Record, candidates []string) *string {
	if v, ok := lookup(rec, candidates); ok {
		return &v
	}
	return nil
}

// Transform maps one raw record to a normalized Stop, or reports that
// the row should be skipped. It never fails: every input yields either
// a Stop or a skip decision for the caller to tally.
//
// A row is skipped when no identifier column resolves, when an active
// prefix filter does not match, or when either coordinate is missing or
// not a finite number.
func Transform(rec Record, prefix string) (*domain.Stop, bool) {
	id, ok := lookup(rec, idColumns)
	if !ok {
		return nil, false
	}

	if prefix != "" && !strings.EqualFold(prefix, NoFilter) && !strings.HasPrefix(id, prefix) {
		return nil, false
	}

	lat, ok := parseCoord(rec, latColumns)
	if !ok {
		return nil, false
	}
	lng, ok := parseCoord(rec, lngColumns)
	if !ok {
		return nil, false
	}

	name := id
	if v, ok := lookup(rec, nameColumns); ok {
		name = v
	}

	return &domain.Stop{
		ID:   id,
		Name: name,
		Lat:  lat,
		Lng:  lng,

		LocalityName:     optional(rec, localityColumns),
		AdminAreaCode:    optional(rec, adminAreaColumns),
		StopType:         optional(rec, stopTypeColumns),
		StopAreaCode:     optional(rec, stopAreaColumns),
		Indicator:        optional(rec, indicatorColumns),
		Street:           optional(rec, streetColumns),
		Bearing:          optional(rec, bearingColumns),
		NptgLocalityCode: optional(rec, localityCodeColumns),
		Status:           optional(rec, statusColumns),
	}, true
}

func parseCoord(rec Record, candidates []string) (float64, bool) {
	raw, ok := lookup(rec, candidates)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
