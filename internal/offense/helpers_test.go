package offense

import (
	"fmt"

	"github.com/a3tai/offense-sql/internal/pdf/layout"
)

const (
	glyphSize    = 10.0
	glyphAdvance = 6.0
)

// text is a string laid out left to right from x, with its glyph tops at top
type text struct {
	s   string
	x   float64
	top float64
}

func (t text) rect() layout.Rect {
	return layout.Rect{
		X0: t.x,
		Y0: t.top,
		X1: t.x + float64(len(t.s))*glyphAdvance,
		Y1: t.top + glyphSize,
	}
}

func (t text) glyphs() []layout.Glyph {
	var out []layout.Glyph
	x := t.x
	for _, r := range t.s {
		out = append(out, layout.Glyph{
			Text:     string(r),
			Size:     glyphSize,
			Baseline: t.top + 0.8*glyphSize,
			Box:      layout.Rect{X0: x, Y0: t.top, X1: x + glyphAdvance, Y1: t.top + glyphSize},
		})
		x += glyphAdvance
	}
	return out
}

func quadOf(r layout.Rect) layout.Quad {
	return layout.Quad{
		{X: r.X0, Y: r.Y0}, {X: r.X1, Y: r.Y0},
		{X: r.X0, Y: r.Y1}, {X: r.X1, Y: r.Y1},
	}
}

// highlight marks each text with one quad of a single annotation
func highlight(ts ...text) layout.Annotation {
	a := layout.Annotation{Subtype: layout.SubtypeHighlight}
	for _, t := range ts {
		a.Quads = append(a.Quads, quadOf(t.rect()))
		a.Rect = a.Rect.Union(t.rect())
	}
	return a
}

func newPage(index int, texts []text, annots ...layout.Annotation) *layout.Page {
	var glyphs []layout.Glyph
	for _, t := range texts {
		glyphs = append(glyphs, t.glyphs()...)
	}
	return layout.NewPage(index, 612, 792, glyphs, annots, layout.DefaultOptions())
}

// offenseRecord builds a page with the record header at the left edge, one
// marker per entry of markers and a highlighted value beside each label
// column. Each value is placed 50 units below the marker of its offense.
func offenseRecord(index int, markers []float64, values map[int][]string) *layout.Page {
	texts := []text{
		{s: "Case Number:", x: 50, top: 40},
		{s: "Disposition:", x: 50, top: 55},
		{s: "Comment:", x: 50, top: 70},
	}
	var annots []layout.Annotation
	for i, top := range markers {
		texts = append(texts, text{s: "Offense Description", x: 50, top: top})
		for j, v := range values[i] {
			t := text{s: v, x: 300, top: top + 50 + float64(j)*15}
			texts = append(texts, t)
			annots = append(annots, highlight(t))
		}
	}
	return newPage(index, texts, annots...)
}

type fakeDocument struct {
	pages []*layout.Page
}

func (d *fakeDocument) PageCount() int {
	return len(d.pages)
}

func (d *fakeDocument) Page(index int) (*layout.Page, error) {
	if index < 0 || index >= len(d.pages) {
		return nil, fmt.Errorf("page %d out of range", index)
	}
	return d.pages[index], nil
}
