package offense

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdferrors "github.com/a3tai/offense-sql/internal/pdf/errors"
)

func TestFieldNames(t *testing.T) {
	tests := []struct {
		name       string
		highlights []string
		want       []string
		wantErr    bool
	}{
		{
			name:       "first seen order",
			highlights: []string{"Disposition: Dismissed", "Case Number: 1", "Disposition: Guilty"},
			want:       []string{"Disposition:", "Case Number:"},
		},
		{
			name:       "label trimmed",
			highlights: []string{"  Comment : see file"},
			want:       []string{"Comment:"},
		},
		{
			name:       "value with colons",
			highlights: []string{"Comment: 10:30 hearing"},
			want:       []string{"Comment:"},
		},
		{
			name:       "no highlights",
			highlights: nil,
			want:       nil,
		},
		{
			name:       "missing colon",
			highlights: []string{"Case Number: 1", "just some text"},
			wantErr:    true,
		},
		{
			name:       "empty label",
			highlights: []string{": 12345"},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FieldNames(tt.highlights)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, pdferrors.ErrMalformedHighlight), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocateValues(t *testing.T) {
	s := DefaultSettings()
	page := offenseRecord(0, []float64{100, 300}, map[int][]string{
		0: {"Case Number: 12345"},
		1: {"Case Number: 67890", "Disposition: Dismissed"},
	})

	rects, err := LocateValues(page, []string{"Disposition:", "Case Number:"}, s)
	require.NoError(t, err)
	require.Len(t, rects, 3)

	// label order first, then search order within a label
	assert.InDelta(t, 365, rects[0].Y0, 1e-9)
	assert.InDelta(t, 150, rects[1].Y0, 1e-9)
	assert.InDelta(t, 350, rects[2].Y0, 1e-9)

	for _, r := range rects {
		assert.InDelta(t, 300, r.X0, 1e-9)
	}
	// "Case Number:" is 12 glyphs wide, then widened
	assert.InDelta(t, 300+12*glyphAdvance+s.ValueExpand, rects[1].X1, 1e-9)
}

func TestLocateValues_LabelMissing(t *testing.T) {
	page := offenseRecord(3, []float64{100}, nil)

	_, err := LocateValues(page, []string{"Arrest Date:"}, DefaultSettings())
	require.Error(t, err)
	assert.True(t, errors.Is(err, pdferrors.ErrMarkerNotFound))

	var pe *pdferrors.PDFError
	require.True(t, errors.As(err, &pe))
	assert.True(t, pe.HasPage())
	assert.Equal(t, 3, pe.PageIndex)
}

func TestLocateValues_HeaderOnly(t *testing.T) {
	page := offenseRecord(0, []float64{100}, nil)

	rects, err := LocateValues(page, []string{"Comment:"}, DefaultSettings())
	require.NoError(t, err)
	assert.Empty(t, rects)
}
