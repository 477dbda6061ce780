package layout

// SubtypeHighlight is the annotation subtype of text highlight markup
const SubtypeHighlight = "Highlight"

// Annotation is a markup annotation placed on a page
type Annotation struct {
	Subtype  string `json:"subtype" yaml:"subtype"`
	Rect     Rect   `json:"rect" yaml:"rect"`
	Quads    []Quad `json:"quads,omitempty" yaml:"quads,omitempty"`
	Contents string `json:"contents,omitempty" yaml:"contents,omitempty"`
}

// IsHighlight reports whether the annotation marks highlighted text
func (a Annotation) IsHighlight() bool {
	return a.Subtype == SubtypeHighlight
}

// Page is one decoded page: its text layer and its annotations in document order
type Page struct {
	*TextLayer

	Number      int // zero-based page index
	Width       float64
	Height      float64
	annotations []Annotation
}

// NewPage assembles a page from its glyphs and annotations
func NewPage(number int, width, height float64, glyphs []Glyph, annots []Annotation, opts Options) *Page {
	return &Page{
		TextLayer:   NewTextLayer(glyphs, opts),
		Number:      number,
		Width:       width,
		Height:      height,
		annotations: annots,
	}
}

// Index returns the zero-based page index
func (p *Page) Index() int {
	return p.Number
}

// Annotations returns the page's annotations in document order
func (p *Page) Annotations() []Annotation {
	out := make([]Annotation, len(p.annotations))
	copy(out, p.annotations)
	return out
}
