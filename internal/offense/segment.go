package offense

import (
	"github.com/a3tai/offense-sql/internal/pdf/layout"
)

// Boundaries returns the top edge of every offense on the page, in search
// order. Only markers in the leftmost column count; a marker is considered
// part of that column when it starts within cutoff of the first hit. An empty
// result means the page carries no offenses.
func Boundaries(page Page, s Settings) []float64 {
	hits := page.SearchFor(s.Marker)
	hits = s.Discard.Apply(page.Index(), hits)
	if len(hits) == 0 {
		return nil
	}

	left := hits[0].X0
	var bounds []float64
	for _, h := range hits {
		if h.X0 < left+s.ColumnCutoff {
			bounds = append(bounds, h.Y0-s.MarkerOffset)
		}
	}
	return bounds
}

// Bucket assigns each rectangle to the offense whose segment contains its top
// edge. Segment i spans [bounds[i], bounds[i+1]); the last is open-ended.
// Rectangles above the first boundary are dropped.
func Bucket(rects []layout.Rect, bounds []float64) [][]layout.Rect {
	buckets := make([][]layout.Rect, len(bounds))
	for _, r := range rects {
		for i, b := range bounds {
			if r.Y0 < b {
				continue
			}
			if i+1 < len(bounds) && r.Y0 >= bounds[i+1] {
				continue
			}
			buckets[i] = append(buckets[i], r)
			break
		}
	}
	return buckets
}
