package pdf

import (
	"fmt"
	"math"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	pdferrors "github.com/a3tai/offense-sql/internal/pdf/errors"
	"github.com/a3tai/offense-sql/internal/pdf/layout"
)

const (
	// Glyph boxes extend this fraction of the font size above and below the baseline
	glyphAscent  = 0.8
	glyphDescent = 0.2

	defaultFontSize   = 12.0
	defaultPageWidth  = 612.0 // US Letter
	defaultPageHeight = 792.0
)

// Options controls how a document is opened and decoded
type Options struct {
	MaxFileSize int64
	Layout      layout.Options
}

// Document is an opened PDF. pdfcpu supplies the object model (page boxes,
// annotations); ledongthuc/pdf supplies the positioned text.
type Document struct {
	path   string
	opts   Options
	ctx    *model.Context
	raw    *os.File
	text   *pdf.Reader
	txtRaw *os.File
}

// Open validates and parses the PDF at path
func Open(path string, opts Options) (*Document, error) {
	if err := NewValidator(opts.MaxFileSize).ValidateFile(path); err != nil {
		return nil, err
	}

	raw, err := os.Open(path)
	if err != nil {
		return nil, invalid("failed to open file", path, err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(raw, conf)
	if err != nil {
		raw.Close()
		return nil, invalid("failed to read PDF context", path, err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		raw.Close()
		return nil, invalid("failed to ensure page count", path, err)
	}

	txtRaw, text, err := pdf.Open(path)
	if err != nil {
		raw.Close()
		return nil, invalid("failed to open PDF text layer", path, err)
	}

	return &Document{
		path:   path,
		opts:   opts,
		ctx:    ctx,
		raw:    raw,
		text:   text,
		txtRaw: txtRaw,
	}, nil
}

// Path returns the file the document was opened from
func (d *Document) Path() string {
	return d.path
}

// PageCount returns the number of pages in the document
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// Page decodes the page at the zero-based index
func (d *Document) Page(index int) (*layout.Page, error) {
	pageNr := index + 1
	if pageNr < 1 || pageNr > d.ctx.PageCount {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidDocument,
			fmt.Sprintf("invalid page index %d (document has %d pages)", index, d.ctx.PageCount)).
			WithFile(d.path)
	}

	pageDict, _, inherited, err := d.ctx.PageDict(pageNr, false)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidDocument, "failed to read page dictionary", err).
			WithFile(d.path).WithPage(index)
	}
	if pageDict == nil {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidDocument, "page dictionary missing").
			WithFile(d.path).WithPage(index)
	}

	space := newPageSpace(inherited)

	annots := d.annotations(pageDict, space)

	glyphs, err := d.glyphs(pageNr, space)
	if err != nil {
		return nil, err
	}

	return layout.NewPage(index, space.width, space.height, glyphs, annots, d.opts.Layout), nil
}

// Close releases the underlying files
func (d *Document) Close() error {
	err := d.raw.Close()
	if cerr := d.txtRaw.Close(); err == nil {
		err = cerr
	}
	return err
}

// pageSpace maps PDF user space (origin bottom-left) to page space (origin
// top-left of the MediaBox, y downward).
type pageSpace struct {
	llx, ury      float64
	width, height float64
}

func newPageSpace(inherited *model.InheritedPageAttrs) pageSpace {
	if inherited == nil || inherited.MediaBox == nil {
		return pageSpace{ury: defaultPageHeight, width: defaultPageWidth, height: defaultPageHeight}
	}
	box := inherited.MediaBox
	return pageSpace{
		llx:    box.LL.X,
		ury:    box.UR.Y,
		width:  box.Width(),
		height: box.Height(),
	}
}

func (s pageSpace) point(x, y float64) layout.Point {
	return layout.Point{X: x - s.llx, Y: s.ury - y}
}

// rect converts a PDF rectangle [llx lly urx ury] given in any corner order
func (s pageSpace) rect(x0, y0, x1, y1 float64) layout.Rect {
	a, b := s.point(x0, y0), s.point(x1, y1)
	return layout.Rect{
		X0: math.Min(a.X, b.X),
		Y0: math.Min(a.Y, b.Y),
		X1: math.Max(a.X, b.X),
		Y1: math.Max(a.Y, b.Y),
	}
}

// glyphs reads the positioned text of a page through ledongthuc/pdf
func (d *Document) glyphs(pageNr int, space pageSpace) (glyphs []layout.Glyph, err error) {
	if pageNr > d.text.NumPage() {
		return nil, nil
	}

	page := d.text.Page(pageNr)
	if page.V.IsNull() {
		return nil, nil
	}

	// ledongthuc/pdf panics on malformed content streams
	defer func() {
		if r := recover(); r != nil {
			glyphs = nil
			err = pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidDocument, "failed to decode page content").
				WithContext(fmt.Sprint(r)).
				WithFile(d.path).
				WithPage(pageNr - 1)
		}
	}()

	for _, t := range page.Content().Text {
		size := math.Abs(t.FontSize)
		if size == 0 {
			size = defaultFontSize
		}

		origin := space.point(t.X, t.Y)
		glyphs = append(glyphs, layout.Glyph{
			Text:     t.S,
			Size:     size,
			Baseline: origin.Y,
			Box: layout.Rect{
				X0: origin.X,
				Y0: origin.Y - glyphAscent*size,
				X1: origin.X + t.W,
				Y1: origin.Y + glyphDescent*size,
			},
		})
	}

	return glyphs, nil
}

// annotations decodes the page's /Annots array in document order. Entries
// that cannot be dereferenced are skipped.
func (d *Document) annotations(pageDict types.Dict, space pageSpace) []layout.Annotation {
	annotsObj, found := pageDict.Find("Annots")
	if !found {
		return nil
	}

	annotsArray, err := d.ctx.DereferenceArray(annotsObj)
	if err != nil {
		return nil
	}

	annots := make([]layout.Annotation, 0, len(annotsArray))
	for _, obj := range annotsArray {
		annotDict, err := d.ctx.DereferenceDict(obj)
		if err != nil || annotDict == nil {
			continue
		}
		annots = append(annots, d.annotation(annotDict, space))
	}
	return annots
}

func (d *Document) annotation(annotDict types.Dict, space pageSpace) layout.Annotation {
	var annot layout.Annotation

	if subtypeObj, found := annotDict.Find("Subtype"); found {
		if name, err := d.ctx.DereferenceName(subtypeObj, model.V10, nil); err == nil {
			annot.Subtype = string(name)
		}
	}

	if contentsObj, found := annotDict.Find("Contents"); found {
		if s, err := d.ctx.DereferenceStringOrHexLiteral(contentsObj, model.V10, nil); err == nil {
			annot.Contents = s
		}
	}

	if rectObj, found := annotDict.Find("Rect"); found {
		if c := d.numbers(rectObj); len(c) == 4 {
			annot.Rect = space.rect(c[0], c[1], c[2], c[3])
		}
	}

	if quadObj, found := annotDict.Find("QuadPoints"); found {
		coords := d.numbers(quadObj)
		points := make([]layout.Point, 0, len(coords)/2)
		for i := 0; i+1 < len(coords); i += 2 {
			points = append(points, space.point(coords[i], coords[i+1]))
		}
		annot.Quads = layout.QuadsFromVertices(points)
	}

	// A highlight without QuadPoints covers its Rect
	if len(annot.Quads) == 0 && !annot.Rect.IsEmpty() {
		r := annot.Rect
		annot.Quads = []layout.Quad{{
			{X: r.X0, Y: r.Y0}, {X: r.X1, Y: r.Y0},
			{X: r.X0, Y: r.Y1}, {X: r.X1, Y: r.Y1},
		}}
	}

	return annot
}

// numbers dereferences an array of numbers; nil if any entry is not numeric
func (d *Document) numbers(obj types.Object) []float64 {
	arr, err := d.ctx.DereferenceArray(obj)
	if err != nil {
		return nil
	}

	out := make([]float64, 0, len(arr))
	for _, o := range arr {
		f, err := d.ctx.DereferenceNumber(o)
		if err != nil {
			return nil
		}
		out = append(out, f)
	}
	return out
}
