package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/portfoliq/holdings-backend/internal/errors"
)

// Logical field names resolved by the column mapper.
const (
	FieldSymbol        = "symbol"
	FieldQuantity      = "quantity"
	FieldAveragePrice  = "average_price"
	FieldCurrentPrice  = "current_price"
	FieldISIN          = "isin"
	FieldSchemeName    = "scheme_name"
	FieldFolioNumber   = "folio_number"
	FieldUnits         = "units"
	FieldNAV           = "nav"
	FieldCurrentValue  = "current_value"
	FieldInvestedValue = "invested_value"
	FieldSchemeCode    = "scheme_code"
)

// fieldPatterns is an ordered list of (field, patterns) pairs. For each field
// the patterns are tried in priority order against every column name; the
// first column matching any pattern wins. Order within a field matters: more
// specific patterns come first.
type fieldPatterns struct {
	field    string
	patterns []*regexp.Regexp
}

func compilePatterns(exprs ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		compiled[i] = regexp.MustCompile(expr)
	}
	return compiled
}

// stockFieldPatterns maps columns of equity-style holdings exports.
var stockFieldPatterns = []fieldPatterns{
	{FieldSymbol, compilePatterns(`symbol`, `stock.*name`, `instrument`, `scrip`, `ticker`, `equity`)},
	{FieldQuantity, compilePatterns(`quantity`, `qty`, `shares`, `units`, `holdings`)},
	{FieldAveragePrice, compilePatterns(`avg.*price`, `average.*price`, `cost.*price`, `buy.*price`,
		`purchase.*price`, `owned.*price`, `acquisition.*price`)},
	{FieldCurrentPrice, compilePatterns(`current.*price`, `ltp`, `last.*price`, `market.*price`,
		`cmp`, `close.*price`)},
	{FieldISIN, compilePatterns(`isin`)},
}

// fundFieldPatterns maps columns of mutual-fund holdings exports. Some broker
// workbooks reuse equity column names for fund rows, hence the overlap entries
// like "symbol" under scheme_name.
var fundFieldPatterns = []fieldPatterns{
	{FieldSchemeName, compilePatterns(`scheme.*name`, `fund.*name`, `scheme`, `fund`, `symbol`)},
	{FieldFolioNumber, compilePatterns(`folio`, `account.*no`)},
	{FieldUnits, compilePatterns(`units`, `quantity.*available`, `quantity`, `balance.*units`)},
	{FieldNAV, compilePatterns(`nav`, `net.*asset.*value`, `previous.*closing.*price`, `price`)},
	{FieldCurrentValue, compilePatterns(`current.*value`, `market.*value`, `value`)},
	{FieldInvestedValue, compilePatterns(`invested.*value`, `cost.*value`, `purchase.*value`, `average.*price`)},
	{FieldSchemeCode, compilePatterns(`scheme.*code`, `fund.*code`, `amfi.*code`, `isin`)},
}

// ColumnMapping is the resolved mapping from logical field to source column
// index, built once per file or sheet and reused for every row.
type ColumnMapping map[string]int

// Has reports whether a logical field resolved to a column.
func (m ColumnMapping) Has(field string) bool {
	_, ok := m[field]
	return ok
}

// Cell returns the row value for a mapped field, or "" when the field is
// unmapped or the row is short.
func (m ColumnMapping) Cell(row []string, field string) string {
	idx, ok := m[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// mapColumns resolves each logical field against the available column names.
// All fields except the required one are optional; their absence surfaces
// later as per-row warnings. When the required field cannot be resolved the
// returned FormatError enumerates up to the first 10 columns to aid diagnosis.
func mapColumns(columns []string, fields []fieldPatterns, required string) (ColumnMapping, error) {
	mapping := ColumnMapping{}

	for _, fp := range fields {
		for idx, col := range columns {
			colLower := strings.ToLower(col)
			for _, pattern := range fp.patterns {
				if pattern.MatchString(colLower) {
					mapping[fp.field] = idx
					break
				}
			}
			if mapping.Has(fp.field) {
				break
			}
		}
	}

	if !mapping.Has(required) {
		available := columns
		suffix := ""
		if len(available) > 10 {
			suffix = fmt.Sprintf(" ... and %d more", len(available)-10)
			available = available[:10]
		}
		return nil, &FormatError{
			Kind:   errors.ErrUnmappableColumn,
			Detail: fmt.Sprintf("could not find a column for %s. Available columns: %s%s", required, strings.Join(available, ", "), suffix),
		}
	}

	return mapping, nil
}

// MapStockColumns maps equity-style columns; the symbol column is required.
func MapStockColumns(columns []string) (ColumnMapping, error) {
	return mapColumns(columns, stockFieldPatterns, FieldSymbol)
}

// MapFundColumns maps mutual-fund-style columns; the scheme name is required.
func MapFundColumns(columns []string) (ColumnMapping, error) {
	return mapColumns(columns, fundFieldPatterns, FieldSchemeName)
}
