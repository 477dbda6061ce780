package offense

import (
	"sort"
	"strings"

	"github.com/a3tai/offense-sql/internal/pdf/layout"
)

// Page is the view of a decoded page the pipeline works on
type Page interface {
	Index() int
	Words() []layout.Word
	Annotations() []layout.Annotation
	SearchFor(text string) []layout.Rect
	TextBox(r layout.Rect) string
}

// Document is a sequence of decoded pages
type Document interface {
	PageCount() int
	Page(index int) (*layout.Page, error)
}

// ReadingOrder sorts words by bottom edge, then left edge
func ReadingOrder(words []layout.Word) {
	sort.SliceStable(words, func(i, j int) bool {
		if words[i].Rect.Y1 != words[j].Rect.Y1 {
			return words[i].Rect.Y1 < words[j].Rect.Y1
		}
		return words[i].Rect.X0 < words[j].Rect.X0
	})
}

// ExtractHighlights returns the text under every highlight annotation of the
// page, in annotation order. A quad covering no words contributes an empty
// string, which survives as an extra space in the join.
func ExtractHighlights(page Page) []string {
	words := page.Words()
	ReadingOrder(words)

	var highlights []string
	for _, annot := range page.Annotations() {
		if !annot.IsHighlight() {
			continue
		}

		sentences := make([]string, 0, len(annot.Quads))
		for _, quad := range annot.Quads {
			sentences = append(sentences, wordsIn(words, quad.Rect()))
		}
		highlights = append(highlights, strings.Join(sentences, " "))
	}
	return highlights
}

func wordsIn(words []layout.Word, r layout.Rect) string {
	var hit []string
	for _, w := range words {
		if w.Rect.Intersects(r) {
			hit = append(hit, w.Text)
		}
	}
	return strings.Join(hit, " ")
}
