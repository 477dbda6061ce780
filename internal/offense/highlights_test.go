package offense

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/a3tai/offense-sql/internal/pdf/layout"
)

func TestReadingOrder(t *testing.T) {
	words := []layout.Word{
		{Text: "c", Rect: layout.Rect{X0: 10, Y0: 20, X1: 15, Y1: 30}},
		{Text: "b", Rect: layout.Rect{X0: 50, Y0: 0, X1: 55, Y1: 10}},
		{Text: "a", Rect: layout.Rect{X0: 10, Y0: 0, X1: 15, Y1: 10}},
	}

	ReadingOrder(words)

	got := []string{words[0].Text, words[1].Text, words[2].Text}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestExtractHighlights(t *testing.T) {
	caseNo := text{s: "Case Number: 12345", x: 300, top: 150}
	first := text{s: "Comment: first line", x: 300, top: 200}
	second := text{s: "continued", x: 300, top: 215}
	nothing := text{s: "xxxx", x: 300, top: 400} // laid out nowhere on the page

	note := layout.Annotation{Subtype: "Text", Quads: []layout.Quad{quadOf(caseNo.rect())}}

	tests := []struct {
		name   string
		annots []layout.Annotation
		want   []string
	}{
		{
			name:   "single quad",
			annots: []layout.Annotation{highlight(caseNo)},
			want:   []string{"Case Number: 12345"},
		},
		{
			name:   "quads joined with a space",
			annots: []layout.Annotation{highlight(first, second)},
			want:   []string{"Comment: first line continued"},
		},
		{
			name:   "annotation order kept",
			annots: []layout.Annotation{highlight(first), highlight(caseNo)},
			want:   []string{"Comment: first line", "Case Number: 12345"},
		},
		{
			name:   "other subtypes ignored",
			annots: []layout.Annotation{note, highlight(caseNo)},
			want:   []string{"Case Number: 12345"},
		},
		{
			name:   "empty quad leaves its separator",
			annots: []layout.Annotation{highlight(caseNo, nothing)},
			want:   []string{"Case Number: 12345 "},
		},
		{
			name:   "no annotations",
			annots: nil,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := newPage(0, []text{caseNo, first, second}, tt.annots...)
			assert.Equal(t, tt.want, ExtractHighlights(page))
		})
	}
}
