package csvimport

import (
	"errors"
	"fmt"
)

// Row error codes.
const (
	ErrCodeMissingColumn     = "ERR_IMPORT_MISSING_COLUMN"
	ErrCodeInvalidValue      = "ERR_IMPORT_INVALID_VALUE"
	ErrCodeReferenceNotFound = "ERR_IMPORT_REFERENCE_NOT_FOUND"
	ErrCodeMalformedRow      = "ERR_IMPORT_MALFORMED_ROW"
	ErrCodeStorage           = "ERR_IMPORT_STORAGE"
)

var (
	ErrEmptyFile       = errors.New("CSV file is empty")
	ErrInvalidEncoding = errors.New("CSV file is not valid UTF-8")
	ErrMissingHeader   = errors.New("CSV file missing header row")
)

// RowError reports which line of an import failed and why.
type RowError struct {
	Line    int    `json:"line"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("line %d, column %q: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// NewRowError builds a RowError wrapping cause; the message is cause's text.
func NewRowError(line int, column, code, value string, cause error) *RowError {
	return &RowError{
		Line:    line,
		Column:  column,
		Code:    code,
		Value:   value,
		Message: cause.Error(),
		Err:     cause,
	}
}
