package layout

import (
	"sort"
	"strings"
	"unicode"
)

// Default grouping thresholds, in page units
const (
	DefaultRowTolerance        = 3.0 // baselines closer than this share a line
	DefaultWordSpaceMultiplier = 0.3 // gap wider than this fraction of the font size breaks a word
)

// Glyph is one positioned piece of text as emitted by the content stream,
// usually a single character.
type Glyph struct {
	Text     string
	Box      Rect
	Size     float64
	Baseline float64
}

// Word is a word box: the union of the glyphs of one word plus its ordering metadata
type Word struct {
	Rect Rect   `json:"rect" yaml:"rect"`
	Text string `json:"text" yaml:"text"`
	Line int    `json:"line" yaml:"line"`
	Seq  int    `json:"seq" yaml:"seq"`
}

// Options controls how glyphs are grouped into lines and words
type Options struct {
	RowTolerance        float64
	WordSpaceMultiplier float64
}

// DefaultOptions returns the standard grouping thresholds
func DefaultOptions() Options {
	return Options{
		RowTolerance:        DefaultRowTolerance,
		WordSpaceMultiplier: DefaultWordSpaceMultiplier,
	}
}

type line struct {
	glyphs []Glyph
	runes  []rune
	owner  []int // glyph index per rune, -1 for an inserted space
}

// TextLayer is the searchable text of one page
type TextLayer struct {
	opts  Options
	lines []line
	words []Word
}

// NewTextLayer groups glyphs into lines and words
func NewTextLayer(glyphs []Glyph, opts Options) *TextLayer {
	if opts.RowTolerance <= 0 {
		opts.RowTolerance = DefaultRowTolerance
	}
	if opts.WordSpaceMultiplier <= 0 {
		opts.WordSpaceMultiplier = DefaultWordSpaceMultiplier
	}

	tl := &TextLayer{opts: opts}
	tl.lines = groupLines(glyphs, opts.RowTolerance)
	for i := range tl.lines {
		tl.lines[i].runes, tl.lines[i].owner = tl.render(tl.lines[i].glyphs, nil)
		tl.words = append(tl.words, tl.lineWords(i)...)
	}
	return tl
}

func groupLines(glyphs []Glyph, tolerance float64) []line {
	sorted := make([]Glyph, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Baseline < sorted[j].Baseline
	})

	var lines []line
	var top float64
	for _, g := range sorted {
		if len(lines) == 0 || g.Baseline-top > tolerance {
			lines = append(lines, line{})
			top = g.Baseline
		}
		cur := &lines[len(lines)-1]
		cur.glyphs = append(cur.glyphs, g)
	}

	for i := range lines {
		gs := lines[i].glyphs
		sort.SliceStable(gs, func(a, b int) bool {
			return gs[a].Box.X0 < gs[b].Box.X0
		})
	}
	return lines
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// render lays out the selected glyphs of a line as text. A nil selection
// means every glyph. Whitespace glyphs and wide gaps become a single space.
func (tl *TextLayer) render(glyphs []Glyph, keep func(Glyph) bool) ([]rune, []int) {
	var runes []rune
	var owner []int
	var prev *Glyph

	space := func() {
		if len(runes) > 0 && runes[len(runes)-1] != ' ' {
			runes = append(runes, ' ')
			owner = append(owner, -1)
		}
	}

	for i := range glyphs {
		g := glyphs[i]
		if keep != nil && !keep(g) {
			continue
		}
		if isBlank(g.Text) {
			space()
			prev = nil
			continue
		}
		if prev != nil && g.Box.X0-prev.Box.X1 > tl.opts.WordSpaceMultiplier*prev.Size {
			space()
		}
		for _, r := range g.Text {
			runes = append(runes, r)
			owner = append(owner, i)
		}
		prev = &glyphs[i]
	}

	if n := len(runes); n > 0 && runes[n-1] == ' ' {
		runes, owner = runes[:n-1], owner[:n-1]
	}
	return runes, owner
}

func (tl *TextLayer) lineWords(lineNo int) []Word {
	ln := tl.lines[lineNo]
	var words []Word
	var cur *Word
	last := -1
	for i, r := range ln.runes {
		if r == ' ' {
			if cur != nil {
				words = append(words, *cur)
				cur = nil
			}
			continue
		}
		if cur == nil {
			cur = &Word{Line: lineNo, Seq: len(words)}
			last = -1
		}
		cur.Text += string(r)
		if o := ln.owner[i]; o != last {
			cur.Rect = cur.Rect.Union(ln.glyphs[o].Box)
			last = o
		}
	}
	if cur != nil {
		words = append(words, *cur)
	}
	return words
}

// Words returns the page's word boxes in line order
func (tl *TextLayer) Words() []Word {
	out := make([]Word, len(tl.words))
	copy(out, tl.words)
	return out
}

// Lines returns the rendered text of every line, top to bottom
func (tl *TextLayer) Lines() []string {
	out := make([]string, len(tl.lines))
	for i, ln := range tl.lines {
		out[i] = string(ln.runes)
	}
	return out
}

func normalize(s string) []rune {
	return foldRunes([]rune(strings.Join(strings.Fields(s), " ")))
}

func foldRunes(in []rune) []rune {
	out := make([]rune, len(in))
	for i, r := range in {
		out[i] = unicode.ToLower(r)
	}
	return out
}

// SearchFor returns the rectangle of every occurrence of needle. Matching is
// case-insensitive, whitespace runs compare equal to a single space and a
// match never spans two lines. Results are in reading order.
func (tl *TextLayer) SearchFor(needle string) []Rect {
	want := normalize(needle)
	if len(want) == 0 {
		return nil
	}

	var hits []Rect
	for _, ln := range tl.lines {
		hay := foldRunes(ln.runes)

		for i := 0; i+len(want) <= len(hay); {
			if !runesEqual(hay[i:i+len(want)], want) {
				i++
				continue
			}
			var r Rect
			for _, o := range ln.owner[i : i+len(want)] {
				if o >= 0 {
					r = r.Union(ln.glyphs[o].Box)
				}
			}
			hits = append(hits, r)
			i += len(want)
		}
	}
	return hits
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TextBox returns the text of all glyphs whose centre lies inside r. Lines
// are joined with a newline.
func (tl *TextLayer) TextBox(r Rect) string {
	inside := func(g Glyph) bool {
		return r.Contains(g.Box.Center())
	}

	var parts []string
	for _, ln := range tl.lines {
		runes, _ := tl.render(ln.glyphs, inside)
		if len(runes) == 0 {
			continue
		}
		parts = append(parts, strings.TrimLeft(string(runes), " "))
	}
	return strings.Join(parts, "\n")
}
