package offense

import (
	"context"
	"errors"
	"log/slog"

	pdferrors "github.com/a3tai/offense-sql/internal/pdf/errors"
)

// PageHighlights is the highlighted text of one page
type PageHighlights struct {
	Page       int      `json:"page" yaml:"page"`
	Highlights []string `json:"highlights" yaml:"highlights"`
}

// Result summarizes a run over a document
type Result struct {
	Pages      int         `json:"pages" yaml:"pages"`
	Statements []Statement `json:"statements" yaml:"statements"`
}

// Processor turns the highlights of a document into UPDATE statements
type Processor struct {
	settings Settings
	renderer *Renderer
	logger   *slog.Logger
}

// NewProcessor creates a processor. A nil logger discards log output.
func NewProcessor(settings Settings, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Processor{
		settings: settings,
		renderer: NewRenderer(settings),
		logger:   logger,
	}
}

// Settings returns the processor's settings
func (p *Processor) Settings() Settings {
	return p.settings
}

// Highlights returns the highlighted text of every page that has any
func (p *Processor) Highlights(ctx context.Context, doc Document) ([]PageHighlights, error) {
	var out []PageHighlights
	for i := 0; i < doc.PageCount(); i++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		page, err := doc.Page(i)
		if err != nil {
			return out, err
		}
		if hs := ExtractHighlights(page); len(hs) > 0 {
			out = append(out, PageHighlights{Page: i, Highlights: hs})
		}
	}
	return out, nil
}

// PageStatements renders the statements of one page in offense order. Seq
// is left unset; numbering belongs to the run.
func (p *Processor) PageStatements(page Page) ([]Statement, error) {
	log := p.logger.With("page", page.Index())

	highlights := ExtractHighlights(page)
	bounds := Boundaries(page, p.settings)
	if len(bounds) == 0 {
		if len(highlights) > 0 {
			log.Warn("highlights on page without offense markers", "highlights", len(highlights))
		} else {
			log.Debug("no offense markers on page")
		}
		return nil, nil
	}

	names, err := FieldNames(highlights)
	if err != nil {
		return nil, onPage(err, page.Index())
	}
	rects, err := LocateValues(page, names, p.settings)
	if err != nil {
		return nil, onPage(err, page.Index())
	}

	buckets := Bucket(rects, bounds)
	sizes := make([]int, len(buckets))
	for i, b := range buckets {
		sizes[i] = len(b)
	}
	log.Debug("page scanned", "offenses", len(bounds), "fields", names, "buckets", sizes)

	var stmts []Statement
	for i, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		changes := make([]Change, 0, len(bucket))
		for _, r := range bucket {
			c, err := ParseChange(page.TextBox(r))
			if err != nil {
				return nil, onPage(err, page.Index())
			}
			changes = append(changes, c)
		}
		stmts = append(stmts, Statement{
			Page:    page.Index(),
			Offense: i,
			Changes: changes,
			SQL:     p.renderer.Render(changes),
		})
	}
	return stmts, nil
}

// Process walks the document page by page and emits one statement per
// offense region with changes. Statements are numbered from zero across the
// whole document. On failure, statements already emitted stay where the sink
// put them and the partial result is returned with the error.
func (p *Processor) Process(ctx context.Context, doc Document, sink Sink) (*Result, error) {
	result := &Result{Pages: doc.PageCount()}
	next := 0

	for i := 0; i < doc.PageCount(); i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		page, err := doc.Page(i)
		if err != nil {
			return result, err
		}

		stmts, err := p.PageStatements(page)
		if err != nil {
			p.logger.Error("page failed", "page", i, "error", err)
			return result, err
		}

		for _, stmt := range stmts {
			stmt.Seq = next
			loc, err := sink.Emit(stmt)
			if err != nil {
				return result, err
			}
			stmt.Location = loc
			next++

			result.Statements = append(result.Statements, stmt)
			p.logger.Info("statement written",
				"seq", stmt.Seq, "page", stmt.Page, "offense", stmt.Offense,
				"changes", len(stmt.Changes), "location", loc)
		}
	}

	p.logger.Info("document processed", "pages", result.Pages, "statements", len(result.Statements))
	return result, nil
}

func onPage(err error, index int) error {
	var pe *pdferrors.PDFError
	if errors.As(err, &pe) && !pe.HasPage() {
		pe.WithPage(index)
	}
	return err
}
