package pdf

import (
	"fmt"
	"os"

	pdferrors "github.com/a3tai/offense-sql/internal/pdf/errors"
)

// Validator handles PDF file validation before the document is parsed
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidateFile checks that filePath names a readable, non-empty file within the
// size limit. Whether it is a PDF is left to the parser.
func (v *Validator) ValidateFile(filePath string) error {
	if filePath == "" {
		return invalid("path cannot be empty", filePath, nil)
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return invalid("file does not exist", filePath, nil)
	}
	if err != nil {
		return invalid("cannot access file", filePath, err)
	}

	return v.ValidateFileInfo(filePath, fileInfo)
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return invalid("path is a directory, not a file", filePath, nil)
	}

	if fileInfo.Size() == 0 {
		return invalid("file is empty", filePath, nil)
	}

	if v.maxFileSize > 0 && fileInfo.Size() > v.maxFileSize {
		return invalid(fmt.Sprintf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize), filePath, nil)
	}

	return nil
}

func invalid(message, filePath string, err error) error {
	return pdferrors.WrapError(pdferrors.ErrorTypeInvalidDocument, message, err).WithFile(filePath)
}
