package offense

import (
	"fmt"
	"strings"
	"unicode"

	pdferrors "github.com/a3tai/offense-sql/internal/pdf/errors"
)

// Change is a single column assignment read from a "Label: value" box
type Change struct {
	Field string `json:"field" yaml:"field"`
	Value string `json:"value" yaml:"value"`
}

// ParseChange splits the text of a value box at its first colon. The label
// loses all whitespace to become the field name; the value loses its leading
// whitespace and, when it is a month/day/year date, is rewritten as
// year+month+day.
func ParseChange(text string) (Change, error) {
	label, value, ok := strings.Cut(text, ":")
	if !ok {
		return Change{}, pdferrors.NewPDFError(pdferrors.ErrorTypeMalformedHighlight, "value box has no field label").
			WithContext(fmt.Sprintf("%q", text))
	}

	field := strings.Join(strings.Fields(label), "")
	if field == "" {
		return Change{}, pdferrors.NewPDFError(pdferrors.ErrorTypeMalformedHighlight, "value box has an empty field label").
			WithContext(fmt.Sprintf("%q", text))
	}

	return Change{
		Field: field,
		Value: NormalizeDate(strings.TrimLeftFunc(value, unicode.IsSpace)),
	}, nil
}

// NormalizeDate turns "MM/DD/YYYY" into "YYYYMMDD". Any value that does not
// split into exactly three slash-separated parts is returned unchanged.
func NormalizeDate(value string) string {
	parts := strings.Split(value, "/")
	if len(parts) != 3 {
		return value
	}
	return parts[2] + parts[0] + parts[1]
}

// Renderer turns the changes of one offense into an UPDATE statement
type Renderer struct {
	Table   string
	Renames map[string]string
}

// NewRenderer returns a renderer targeting the settings' table
func NewRenderer(s Settings) *Renderer {
	return &Renderer{Table: s.Table, Renames: s.Renames}
}

// Column maps a field name to its column name
func (r *Renderer) Column(field string) string {
	if col, ok := r.Renames[field]; ok {
		return col
	}
	return field
}

// Render produces the statement text, newline terminated. A Disposition
// change also clears Disposition_Tagging. Nothing is rendered for an empty
// change list.
func (r *Renderer) Render(changes []Change) string {
	if len(changes) == 0 {
		return ""
	}

	lines := make([]string, 0, len(changes)+2)
	lines = append(lines, "UPDATE "+r.Table)
	for i, c := range changes {
		column := r.Column(c.Field)
		clause := fmt.Sprintf("%s = '%s',", column, quote(c.Value))
		if i == 0 {
			clause = "SET " + clause
		}
		lines = append(lines, clause)
		if column == "Disposition" {
			lines = append(lines, "Disposition_Tagging = '',")
		}
	}

	last := len(lines) - 1
	lines[last] = strings.TrimSuffix(lines[last], ",")
	return strings.Join(lines, "\n") + "\n"
}

func quote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
