// Package parser turns raw broker export files (CSV, multi-sheet spreadsheets,
// PDF statements) into normalized holding records. Schemas across brokers are
// inconsistent and undocumented, so every parser here is heuristic and
// best-effort: it detects the real header row, auto-maps columns, classifies
// symbols into asset types, and reports per-row problems as warnings instead of
// failing the file.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/portfoliq/holdings-backend/internal/errors"
	"github.com/portfoliq/holdings-backend/internal/model"
)

// Parser extracts holdings from one uploaded file. Implementations exist for
// Zerodha CSV exports, generic CSVs, Excel workbooks and PDF statements; the
// reconciliation engine is parametrized by this interface and never knows
// which format it is consuming.
type Parser interface {
	Parse(filename string, data []byte) ([]model.ParsedHolding, []model.ImportWarning, error)
}

// FormatError is the structured error returned when a file cannot be parsed at
// all. Kind is one of the errors package file-format sentinels, so callers can
// match with errors.Is; Detail carries human-readable diagnosis (for example
// the list of available columns when the symbol column cannot be mapped).
type FormatError struct {
	Kind   error
	Detail string
}

func (e *FormatError) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Detail)
}

func (e *FormatError) Unwrap() error {
	return e.Kind
}

func emptyFileErr() error {
	return &FormatError{Kind: errors.ErrEmptyFile, Detail: "the uploaded file contains no holdings data"}
}

// requireExtension enforces that the filename carries one of the allowed
// extensions (case-insensitive). The upload boundary routes files by endpoint,
// so a mismatch here means the user picked the wrong endpoint for the file.
func requireExtension(filename string, allowed ...string) error {
	lower := strings.ToLower(filename)
	for _, ext := range allowed {
		if strings.HasSuffix(lower, ext) {
			return nil
		}
	}
	return &FormatError{
		Kind:   errors.ErrUnsupportedFileType,
		Detail: fmt.Sprintf("expected %s file, got %q", strings.Join(allowed, " or "), filename),
	}
}

// parseFloat converts a cell value to float64, tolerating thousands separators
// and surrounding whitespace. Returns 0 and false when the text is not numeric.
func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
