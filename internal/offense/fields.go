package offense

import (
	"fmt"
	"strings"

	pdferrors "github.com/a3tai/offense-sql/internal/pdf/errors"
	"github.com/a3tai/offense-sql/internal/pdf/layout"
)

// FieldNames returns the distinct labels of the highlights, each with its
// trailing colon, in first-seen order
func FieldNames(highlights []string) ([]string, error) {
	seen := make(map[string]bool, len(highlights))
	var names []string
	for _, h := range highlights {
		label, _, ok := strings.Cut(h, ":")
		label = strings.TrimSpace(label)
		if !ok || label == "" {
			return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeMalformedHighlight, "highlight has no field label").
				WithContext(fmt.Sprintf("%q", h))
		}

		name := label + ":"
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}

// LocateValues finds every occurrence of each field label outside the page's
// leftmost label column and widens it to cover the value beside it. The
// first hit of a label sets the column edge; hits within cutoff of it are
// header labels and are skipped.
func LocateValues(page Page, names []string, s Settings) ([]layout.Rect, error) {
	var rects []layout.Rect
	for _, name := range names {
		hits := page.SearchFor(name)
		if len(hits) == 0 {
			return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeMarkerNotFound, "field label not found on page").
				WithContext(fmt.Sprintf("%q", name)).
				WithPage(page.Index())
		}

		left := hits[0].X0
		for _, h := range hits {
			if h.X0 > left+s.ColumnCutoff {
				rects = append(rects, h.ExpandRight(s.ValueExpand))
			}
		}
	}
	return rects, nil
}
