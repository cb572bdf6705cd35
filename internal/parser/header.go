package parser

import (
	"fmt"
	"strings"

	"github.com/portfoliq/holdings-backend/internal/errors"
)

// maxHeaderSkip bounds how many leading preamble rows the locator will skip
// while searching for a header that carries the required columns.
const maxHeaderSkip = 30

// headerKeywords are the tokens that identify a holdings header line in a
// delimited text file.
var headerKeywords = []string{"Symbol", "Instrument"}

// findHeaderLine returns the index of the first line containing a known header
// keyword. Broker exports often prefix the data with metadata rows (account
// details, export date); everything before the returned index is preamble.
// Returns -1 when no line qualifies.
func findHeaderLine(lines []string) int {
	for i, line := range lines {
		for _, keyword := range headerKeywords {
			if strings.Contains(line, keyword) {
				return i
			}
		}
	}
	return -1
}

// locateRequiredHeader finds the record index whose fields contain every
// required column. records come from a full csv read with the first guess at
// the header already applied; when that guess misses, the locator retries by
// skipping 1..maxHeaderSkip leading records until the required set appears.
// Exhausting the scan window fails the file with a MissingHeader error
// naming the columns that were never found.
func locateRequiredHeader(records [][]string, required []string) (int, error) {
	limit := maxHeaderSkip
	if limit > len(records) {
		limit = len(records)
	}

	for skip := 0; skip < limit; skip++ {
		if containsAll(records[skip], required) {
			return skip, nil
		}
	}

	missing := missingColumns(records, required)
	return 0, &FormatError{
		Kind:   errors.ErrMissingHeader,
		Detail: fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")),
	}
}

func containsAll(fields []string, required []string) bool {
	for _, want := range required {
		found := false
		for _, field := range fields {
			if strings.TrimSpace(field) == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// missingColumns reports which required columns never appeared on any
// candidate header row, for the error detail.
func missingColumns(records [][]string, required []string) []string {
	seen := map[string]bool{}
	limit := maxHeaderSkip
	if limit > len(records) {
		limit = len(records)
	}
	for i := 0; i < limit; i++ {
		for _, field := range records[i] {
			seen[strings.TrimSpace(field)] = true
		}
	}

	var missing []string
	for _, want := range required {
		if !seen[want] {
			missing = append(missing, want)
		}
	}
	if len(missing) == 0 {
		missing = required
	}
	return missing
}
