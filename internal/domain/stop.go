package domain

// Stop is one NaPTAN stop point, normalized from a raw CSV row.
//
// Optional descriptive fields are pointers so that a column missing from
// the source stays NULL in the published database instead of becoming an
// empty string.
type Stop struct {
	ID   string
	Name string
	Lat  float64
	Lng  float64

	LocalityName     *string
	AdminAreaCode    *string
	StopType         *string
	StopAreaCode     *string
	Indicator        *string
	Street           *string
	Bearing          *string
	NptgLocalityCode *string
	Status           *string
}

// BoundingBox is the min/max coordinate envelope over kept rows. It is
// computed during load for operator reporting and never persisted.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`

	set bool
}

// Extend grows the box to include a point. The first point initializes
// the box.
func (b *BoundingBox) Extend(lat, lng float64) {
	if !b.set {
		b.MinLat, b.MaxLat = lat, lat
		b.MinLng, b.MaxLng = lng, lng
		b.set = true
		return
	}
	if lat < b.MinLat {
		b.MinLat = lat
	}
	if lat > b.MaxLat {
		b.MaxLat = lat
	}
	if lng < b.MinLng {
		b.MinLng = lng
	}
	if lng > b.MaxLng {
		b.MaxLng = lng
	}
}

// Valid reports whether at least one point was recorded.
func (b *BoundingBox) Valid() bool {
	return b.set
}

// LoadStats are the aggregate counters for one pipeline run.
type LoadStats struct {
	Seen    int         `json:"seen"`
	Kept    int         `json:"kept"`
	Skipped int         `json:"skipped"`
	BBox    BoundingBox `json:"bbox"`
}
