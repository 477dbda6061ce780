package offense

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"

	pdferrors "github.com/a3tai/offense-sql/internal/pdf/errors"
)

// Statement is the rendered UPDATE for one offense region
type Statement struct {
	Seq      int      `json:"seq" yaml:"seq"`         // document-wide output number
	Page     int      `json:"page" yaml:"page"`       // zero-based page index
	Offense  int      `json:"offense" yaml:"offense"` // offense region on the page
	Changes  []Change `json:"changes" yaml:"changes"`
	SQL      string   `json:"sql" yaml:"sql"`
	Location string   `json:"location,omitempty" yaml:"location,omitempty"`
}

// Sink receives statements in output order
type Sink interface {
	// Emit persists the statement and returns where it went, if anywhere
	Emit(stmt Statement) (string, error)
}

// FileName returns the output file name of statement number seq
func FileName(prefix string, seq int) string {
	return fmt.Sprintf("%s%d.sql", prefix, seq)
}

// FileSink writes each statement to <dir>/<prefix><seq>.sql
type FileSink struct {
	Dir    string
	Prefix string
}

// NewFileSink creates a sink writing into dir
func NewFileSink(dir, prefix string) *FileSink {
	return &FileSink{Dir: dir, Prefix: prefix}
}

// Emit writes the statement through a synced temporary file that is renamed
// into place, so a reader never sees a partial statement
func (s *FileSink) Emit(stmt Statement) (string, error) {
	path := filepath.Join(s.Dir, FileName(s.Prefix, stmt.Seq))

	if err := renameio.WriteFile(path, []byte(stmt.SQL), 0o644); err != nil {
		return "", outputError("failed to write output file", path, err)
	}
	return path, nil
}

// WriterSink streams statements to a writer, separated by blank lines and
// each preceded by a comment naming the file it would have been written to
type WriterSink struct {
	W      io.Writer
	Prefix string
}

// Emit writes the statement to the underlying writer
func (s *WriterSink) Emit(stmt Statement) (string, error) {
	if _, err := fmt.Fprintf(s.W, "-- %s\n%s\n", FileName(s.Prefix, stmt.Seq), stmt.SQL); err != nil {
		return "", outputError("failed to write statement", "", err)
	}
	return "", nil
}

// MemorySink keeps statements in memory
type MemorySink struct {
	mu         sync.Mutex
	statements []Statement
}

// Emit records the statement
func (s *MemorySink) Emit(stmt Statement) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statements = append(s.statements, stmt)
	return "", nil
}

// Statements returns the recorded statements in emit order
func (s *MemorySink) Statements() []Statement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Statement, len(s.statements))
	copy(out, s.statements)
	return out
}

func outputError(message, path string, err error) error {
	e := pdferrors.WrapError(pdferrors.ErrorTypeOutput, message, err)
	if path != "" {
		e = e.WithFile(path)
	}
	return e
}
