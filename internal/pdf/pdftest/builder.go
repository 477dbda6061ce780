// Package pdftest generates small, well-formed PDF files for tests. Every
// glyph of the built-in font advances 600/1000 of the font size, so text
// positions are predictable.
package pdftest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// GlyphWidth is the advance of every character, in thousandths of the font size
const GlyphWidth = 600

// Text is a string drawn with its baseline origin at X/Y in PDF user space
type Text struct {
	X, Y float64
	Size float64
	S    string
}

// Highlight is a highlight annotation given by its raw QuadPoints
type Highlight struct {
	QuadPoints []float64
	Contents   string
}

// Page describes one page to generate
type Page struct {
	Texts      []Text
	Highlights []Highlight
	// Other annotation subtypes to add before the highlights
	Extra []string
}

// Advance returns the width of s when drawn at size
func Advance(s string, size float64) float64 {
	return float64(len(s)) * GlyphWidth / 1000 * size
}

// HighlightOver returns a single-quad highlight covering text t
func HighlightOver(t Text) Highlight {
	size := t.Size
	x0, x1 := t.X, t.X+Advance(t.S, size)
	top, bottom := t.Y+0.8*size, t.Y-0.2*size
	return Highlight{QuadPoints: []float64{x0, top, x1, top, x0, bottom, x1, bottom}}
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

func nums(fs []float64) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = fmt.Sprintf("%g", f)
	}
	return strings.Join(parts, " ")
}

// Build renders the pages as a complete PDF with an accurate xref table
func Build(pages []Page) []byte {
	var objects []string
	add := func(body string) int {
		objects = append(objects, body)
		return len(objects)
	}

	catalog := add("") // placeholder, filled once the page tree exists
	pagesObj := add("")

	widths := make([]string, 0, 95)
	for i := 32; i <= 126; i++ {
		widths = append(widths, fmt.Sprint(GlyphWidth))
	}
	font := add("<<\n/Type /Font\n/Subtype /Type1\n/BaseFont /Courier\n/Encoding /WinAnsiEncoding\n" +
		"/FirstChar 32\n/LastChar 126\n/Widths [" + strings.Join(widths, " ") + "]\n>>")

	var kids []string
	for _, p := range pages {
		var content strings.Builder
		for _, t := range p.Texts {
			size := t.Size
			if size == 0 {
				size = 10
			}
			fmt.Fprintf(&content, "BT\n/F1 %g Tf\n1 0 0 1 %g %g Tm\n(%s) Tj\nET\n", size, t.X, t.Y, escape(t.S))
		}
		stream := content.String()
		contents := add(fmt.Sprintf("<<\n/Length %d\n>>\nstream\n%sendstream", len(stream), stream))

		var annots []string
		for _, subtype := range p.Extra {
			id := add(fmt.Sprintf("<<\n/Type /Annot\n/Subtype /%s\n/Rect [0 0 10 10]\n>>", subtype))
			annots = append(annots, fmt.Sprintf("%d 0 R", id))
		}
		for _, h := range p.Highlights {
			rect := boundsOf(h.QuadPoints)
			body := fmt.Sprintf("<<\n/Type /Annot\n/Subtype /Highlight\n/Rect [%s]\n/QuadPoints [%s]\n",
				nums(rect), nums(h.QuadPoints))
			if h.Contents != "" {
				body += fmt.Sprintf("/Contents (%s)\n", escape(h.Contents))
			}
			id := add(body + ">>")
			annots = append(annots, fmt.Sprintf("%d 0 R", id))
		}

		page := fmt.Sprintf("<<\n/Type /Page\n/Parent %d 0 R\n/MediaBox [0 0 612 792]\n/Contents %d 0 R\n"+
			"/Resources <<\n/Font <<\n/F1 %d 0 R\n>>\n>>\n", pagesObj, contents, font)
		if len(annots) > 0 {
			page += "/Annots [" + strings.Join(annots, " ") + "]\n"
		}
		id := add(page + ">>")
		kids = append(kids, fmt.Sprintf("%d 0 R", id))
	}

	objects[catalog-1] = fmt.Sprintf("<<\n/Type /Catalog\n/Pages %d 0 R\n>>", pagesObj)
	objects[pagesObj-1] = fmt.Sprintf("<<\n/Type /Pages\n/Kids [%s]\n/Count %d\n>>", strings.Join(kids, " "), len(kids))

	var out strings.Builder
	out.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&out, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&out, "trailer\n<<\n/Size %d\n/Root %d 0 R\n>>\nstartxref\n%d\n%%%%EOF", len(objects)+1, catalog, xref)

	return []byte(out.String())
}

func boundsOf(qp []float64) []float64 {
	if len(qp) < 2 {
		return []float64{0, 0, 0, 0}
	}
	minX, minY, maxX, maxY := qp[0], qp[1], qp[0], qp[1]
	for i := 0; i+1 < len(qp); i += 2 {
		minX = min(minX, qp[i])
		maxX = max(maxX, qp[i])
		minY = min(minY, qp[i+1])
		maxY = max(maxY, qp[i+1])
	}
	return []float64{minX, minY, maxX, maxY}
}

// WriteFile builds the PDF into dir/name and returns its path
func WriteFile(t testing.TB, dir, name string, pages []Page) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(pages), 0o644); err != nil {
		t.Fatalf("failed to write test PDF: %v", err)
	}
	return path
}

// OffenseRecord returns a one-page record: a header row with the "Case
// Number:" label at the left edge, one "Offense Description" marker and a
// highlighted "Case Number: 12345" value inside that offense.
func OffenseRecord() []Page {
	value := Text{X: 300, Y: 650, Size: 10, S: "Case Number: 12345"}
	return []Page{{
		Texts: []Text{
			{X: 50, Y: 750, Size: 10, S: "Case Number:"},
			{X: 50, Y: 700, Size: 10, S: "Offense Description"},
			value,
		},
		Highlights: []Highlight{HighlightOver(value)},
	}}
}
