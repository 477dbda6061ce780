package offense

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/offense-sql/internal/pdf"
	pdferrors "github.com/a3tai/offense-sql/internal/pdf/errors"
	"github.com/a3tai/offense-sql/internal/pdf/layout"
	"github.com/a3tai/offense-sql/internal/pdf/pdftest"
)

func TestProcessor_SingleChangeSecondRegionEmpty(t *testing.T) {
	doc := &fakeDocument{pages: []*layout.Page{
		offenseRecord(0, []float64{100, 300}, map[int][]string{0: {"Case Number: 12345"}}),
	}}
	dir := t.TempDir()

	result, err := NewProcessor(DefaultSettings(), nil).Process(context.Background(), doc, NewFileSink(dir, "sqloutput"))
	require.NoError(t, err)
	require.Len(t, result.Statements, 1)
	assert.Equal(t, 0, result.Statements[0].Offense)

	content, err := os.ReadFile(filepath.Join(dir, "sqloutput0.sql"))
	require.NoError(t, err)
	assert.Equal(t, "UPDATE online_Newlogic.dbo.offenses_iei\nSET Source_CaseNumber = '12345'\n", string(content))

	_, err = os.Stat(filepath.Join(dir, "sqloutput1.sql"))
	assert.True(t, os.IsNotExist(err))
}

func TestProcessor_Disposition(t *testing.T) {
	doc := &fakeDocument{pages: []*layout.Page{
		offenseRecord(0, []float64{100}, map[int][]string{0: {"Disposition: Dismissed", "Comment: per court"}}),
	}}
	sink := &MemorySink{}

	_, err := NewProcessor(DefaultSettings(), nil).Process(context.Background(), doc, sink)
	require.NoError(t, err)

	stmts := sink.Statements()
	require.Len(t, stmts, 1)
	assert.Equal(t, "UPDATE online_Newlogic.dbo.offenses_iei\n"+
		"SET Disposition = 'Dismissed',\n"+
		"Disposition_Tagging = '',\n"+
		"Comment1 = 'per court'\n", stmts[0].SQL)
	assert.Equal(t, []Change{
		{Field: "Disposition", Value: "Dismissed"},
		{Field: "Comment", Value: "per court"},
	}, stmts[0].Changes)
}

func TestProcessor_NumberingSpansPages(t *testing.T) {
	s := DefaultSettings()
	s.Discard = nil

	doc := &fakeDocument{pages: []*layout.Page{
		offenseRecord(0, []float64{100, 300}, map[int][]string{
			0: {"Case Number: 1"},
			1: {"Case Number: 2"},
		}),
		offenseRecord(1, nil, nil),
		offenseRecord(2, []float64{100, 300}, map[int][]string{1: {"Comment: three"}}),
	}}
	sink := &MemorySink{}

	result, err := NewProcessor(s, nil).Process(context.Background(), doc, sink)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Pages)

	stmts := sink.Statements()
	require.Len(t, stmts, 3)
	for i, stmt := range stmts {
		assert.Equal(t, i, stmt.Seq)
	}
	assert.Equal(t, []int{0, 0, 2}, []int{stmts[0].Page, stmts[1].Page, stmts[2].Page})
	assert.Equal(t, []int{0, 1, 1}, []int{stmts[0].Offense, stmts[1].Offense, stmts[2].Offense})
	assert.Contains(t, stmts[1].SQL, "SET Source_CaseNumber = '2'")
	assert.Contains(t, stmts[2].SQL, "SET Comment1 = 'three'")
}

func TestProcessor_PageWithoutMarkers(t *testing.T) {
	caseNo := text{s: "Case Number: 12345", x: 300, top: 150}
	page := newPage(0, []text{{s: "Case Number:", x: 50, top: 40}, caseNo}, highlight(caseNo))
	doc := &fakeDocument{pages: []*layout.Page{page}}
	sink := &MemorySink{}

	result, err := NewProcessor(DefaultSettings(), nil).Process(context.Background(), doc, sink)
	require.NoError(t, err)
	assert.Empty(t, result.Statements)
	assert.Empty(t, sink.Statements())
}

func TestProcessor_SecondPageDiscard(t *testing.T) {
	// the last two markers of page index 1 are ignored, so the value below
	// them still belongs to the first offense
	page := offenseRecord(1, []float64{100, 500, 600}, map[int][]string{2: {"Case Number: 9"}})
	doc := &fakeDocument{pages: []*layout.Page{offenseRecord(0, nil, nil), page}}
	sink := &MemorySink{}

	_, err := NewProcessor(DefaultSettings(), nil).Process(context.Background(), doc, sink)
	require.NoError(t, err)

	stmts := sink.Statements()
	require.Len(t, stmts, 1)
	assert.Equal(t, 0, stmts[0].Offense)
	assert.Equal(t, 1, stmts[0].Page)
}

func TestProcessor_MalformedHighlightKeepsEarlierOutput(t *testing.T) {
	bad := text{s: "no separator here", x: 300, top: 150}
	doc := &fakeDocument{pages: []*layout.Page{
		offenseRecord(0, []float64{100}, map[int][]string{0: {"Case Number: 1"}}),
		newPage(1, []text{{s: "Offense Description", x: 50, top: 100}, bad}, highlight(bad)),
	}}
	dir := t.TempDir()
	s := DefaultSettings()
	s.Discard = nil

	result, err := NewProcessor(s, nil).Process(context.Background(), doc, NewFileSink(dir, "sqloutput"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, pdferrors.ErrMalformedHighlight))

	var pe *pdferrors.PDFError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 1, pe.PageIndex)

	require.Len(t, result.Statements, 1)
	_, statErr := os.Stat(filepath.Join(dir, "sqloutput0.sql"))
	assert.NoError(t, statErr)
}

func TestProcessor_Cancelled(t *testing.T) {
	doc := &fakeDocument{pages: []*layout.Page{offenseRecord(0, []float64{100}, map[int][]string{0: {"Case Number: 1"}})}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProcessor(DefaultSettings(), nil).Process(ctx, doc, &MemorySink{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessor_Logs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	doc := &fakeDocument{pages: []*layout.Page{
		offenseRecord(0, []float64{100}, map[int][]string{0: {"Case Number: 1"}}),
	}}

	_, err := NewProcessor(DefaultSettings(), logger).Process(context.Background(), doc, &MemorySink{})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "statement written")
	assert.Contains(t, out, "seq=0")
	assert.Contains(t, out, "document processed")
}

func TestProcessor_Highlights(t *testing.T) {
	doc := &fakeDocument{pages: []*layout.Page{
		offenseRecord(0, nil, nil),
		offenseRecord(1, []float64{100}, map[int][]string{0: {"Case Number: 1", "Comment: x"}}),
	}}

	got, err := NewProcessor(DefaultSettings(), nil).Highlights(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, []PageHighlights{{Page: 1, Highlights: []string{"Case Number: 1", "Comment: x"}}}, got)
}

func TestProcessor_PDFDocument(t *testing.T) {
	path := pdftest.WriteFile(t, t.TempDir(), "record.pdf", pdftest.OffenseRecord())

	doc, err := pdf.Open(path, pdf.Options{Layout: layout.DefaultOptions()})
	require.NoError(t, err)
	defer doc.Close()

	dir := t.TempDir()
	result, err := NewProcessor(DefaultSettings(), nil).Process(context.Background(), doc, NewFileSink(dir, "sqloutput"))
	require.NoError(t, err)
	require.Len(t, result.Statements, 1)
	assert.Equal(t, filepath.Join(dir, "sqloutput0.sql"), result.Statements[0].Location)

	content, err := os.ReadFile(result.Statements[0].Location)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE online_Newlogic.dbo.offenses_iei\nSET Source_CaseNumber = '12345'\n", string(content))
}
