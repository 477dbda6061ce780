package offense

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/a3tai/offense-sql/internal/pdf/layout"
)

const (
	DefaultMarker       = "Offense Description"
	DefaultMarkerOffset = 2.0
	DefaultColumnCutoff = 10.0
	DefaultValueExpand  = 100.0
	DefaultTable        = "online_Newlogic.dbo.offenses_iei"
)

// DefaultRenames maps highlighted labels to their column names
var DefaultRenames = map[string]string{
	"CaseNumber":         "Source_CaseNumber",
	"OffenseDescription": "OffenseDesc1",
	"Comment":            "Comment1",
}

// DiscardPolicy says how many trailing marker occurrences to drop, by
// zero-based page index. Record exports repeat the marker text at the end of
// their second page, outside any offense.
type DiscardPolicy map[int]int

// DefaultDiscardPolicy drops the last two markers of page index 1
func DefaultDiscardPolicy() DiscardPolicy {
	return DiscardPolicy{1: 2}
}

// Apply drops the configured number of trailing hits for the page
func (d DiscardPolicy) Apply(pageIndex int, hits []layout.Rect) []layout.Rect {
	n := d[pageIndex]
	if n <= 0 {
		return hits
	}
	if n >= len(hits) {
		return nil
	}
	return hits[:len(hits)-n]
}

// String renders the policy in the "page=count,..." flag form
func (d DiscardPolicy) String() string {
	pages := make([]int, 0, len(d))
	for p := range d {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		parts = append(parts, fmt.Sprintf("%d=%d", p, d[p]))
	}
	return strings.Join(parts, ",")
}

// NewDiscardPolicy builds a policy from counts keyed by page index, the
// shape produced by a "page=count" map flag or a config file map
func NewDiscardPolicy(counts map[string]int) (DiscardPolicy, error) {
	policy := make(DiscardPolicy, len(counts))
	for key, count := range counts {
		page, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil || page < 0 {
			return nil, fmt.Errorf("invalid discard page %q: want a zero-based page index", key)
		}
		if count < 0 {
			return nil, fmt.Errorf("invalid discard count %d for page %d", count, page)
		}
		policy[page] = count
	}
	return policy, nil
}

// Counts returns the policy keyed by page index, the inverse of NewDiscardPolicy
func (d DiscardPolicy) Counts() map[string]int {
	counts := make(map[string]int, len(d))
	for page, count := range d {
		counts[strconv.Itoa(page)] = count
	}
	return counts
}

// Settings holds the layout heuristics and SQL target of a run
type Settings struct {
	Marker       string
	MarkerOffset float64 // subtracted from a marker's top edge
	ColumnCutoff float64 // hits this far right of the first hit belong to another column
	ValueExpand  float64 // rightward growth of a value rectangle
	Discard      DiscardPolicy
	Table        string
	Renames      map[string]string
}

// DefaultSettings returns the settings tuned for the record export layout
func DefaultSettings() Settings {
	renames := make(map[string]string, len(DefaultRenames))
	for k, v := range DefaultRenames {
		renames[k] = v
	}
	return Settings{
		Marker:       DefaultMarker,
		MarkerOffset: DefaultMarkerOffset,
		ColumnCutoff: DefaultColumnCutoff,
		ValueExpand:  DefaultValueExpand,
		Discard:      DefaultDiscardPolicy(),
		Table:        DefaultTable,
		Renames:      renames,
	}
}
