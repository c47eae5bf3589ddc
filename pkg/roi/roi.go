package roi

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultWKT is the Southern California coastal region used when no ROI is
// configured, matching the downloader's built-in default.
const DefaultWKT = "POLYGON((-121.343994 32.369016, -116.883545 32.369016, -116.883545 35.270920, -121.343994 35.270920, -121.343994 32.369016))"

// BBox is a lon/lat bounding box in degrees.
type BBox struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// ParseBBox parses "MIN_LON,MIN_LAT,MAX_LON,MAX_LAT".
func ParseBBox(s string) (BBox, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 4 {
		return BBox{}, fmt.Errorf("bbox must have 4 comma-separated values, got %d", len(parts))
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BBox{}, fmt.Errorf("invalid bbox value '%s': %w", p, err)
		}
		vals[i] = v
	}
	b := BBox{MinLon: vals[0], MinLat: vals[1], MaxLon: vals[2], MaxLat: vals[3]}
	if b.MinLon >= b.MaxLon {
		return BBox{}, fmt.Errorf("bbox min_lon %g must be < max_lon %g", b.MinLon, b.MaxLon)
	}
	if b.MinLat >= b.MaxLat {
		return BBox{}, fmt.Errorf("bbox min_lat %g must be < max_lat %g", b.MinLat, b.MaxLat)
	}
	return b, nil
}

// WKT renders the box as a closed POLYGON ring, counter-clockwise from the
// south-west corner.
func (b BBox) WKT() string {
	return fmt.Sprintf("POLYGON((%g %g, %g %g, %g %g, %g %g, %g %g))",
		b.MinLon, b.MinLat,
		b.MaxLon, b.MinLat,
		b.MaxLon, b.MaxLat,
		b.MinLon, b.MaxLat,
		b.MinLon, b.MinLat,
	)
}

// ValidateWKT performs a light well-formedness check on a POLYGON string:
// it does not attempt full WKT parsing, only enough to catch truncated or
// hand-mangled ROI strings before they reach the downloader.
func ValidateWKT(s string) error {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "POLYGON((") || !strings.HasSuffix(s, "))") {
		return fmt.Errorf("ROI must be a POLYGON((...)) string")
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(s, "POLYGON(("), "))")
	pairs := strings.Split(inner, ",")
	if len(pairs) < 4 {
		return fmt.Errorf("polygon ring needs at least 4 points, got %d", len(pairs))
	}
	for i, p := range pairs {
		fields := strings.Fields(strings.TrimSpace(p))
		if len(fields) != 2 {
			return fmt.Errorf("point %d: expected 'lon lat', got '%s'", i+1, strings.TrimSpace(p))
		}
		for _, f := range fields {
			if _, err := strconv.ParseFloat(f, 64); err != nil {
				return fmt.Errorf("point %d: invalid coordinate '%s'", i+1, f)
			}
		}
	}
	if strings.TrimSpace(pairs[0]) != strings.TrimSpace(pairs[len(pairs)-1]) {
		return fmt.Errorf("polygon ring is not closed")
	}
	return nil
}
