package parser

import (
	"encoding/csv"
	"fmt"
	"regexp"
	"strings"

	"github.com/portfoliq/holdings-backend/internal/errors"
	"github.com/portfoliq/holdings-backend/internal/model"
)

// Column sets of the two recognized Zerodha export schemas. The "current"
// Console export carries a Symbol column; the legacy export identifies rows by
// an Instrument column that embeds the exchange.
var (
	zerodhaCurrentColumns = []string{
		"Symbol", "Quantity Available", "Average Price",
		"Previous Closing Price", "Unrealized P&L", "Unrealized P&L Pct.",
	}
	zerodhaLegacyColumns = []string{
		"Instrument", "Qty.", "Avg. cost", "LTP", "Cur. val", "P&L",
	}
)

var legacyInstrumentRe = regexp.MustCompile(`^(.+?)\s+(NSE|BSE)$`)

// ZerodhaCSVParser parses Zerodha Console holdings CSV exports in both the
// legacy and current schema.
type ZerodhaCSVParser struct {
	classifier *Classifier
}

// NewZerodhaCSVParser creates a parser using the provided symbol classifier.
func NewZerodhaCSVParser(classifier *Classifier) *ZerodhaCSVParser {
	return &ZerodhaCSVParser{classifier: classifier}
}

// Parse extracts holdings from a Zerodha CSV export. The real header may sit
// below preamble rows; schema detection happens on the located header.
func (p *ZerodhaCSVParser) Parse(filename string, data []byte) ([]model.ParsedHolding, []model.ImportWarning, error) {
	records, err := readCSVRecords(data)
	if err != nil {
		return nil, nil, err
	}

	// First guess: the line carrying a known header keyword.
	headerIdx := findHeaderIndex(records)
	header := records[headerIdx]

	if containsColumn(header, "Symbol") {
		// Current Console format. If the first guess misses required columns,
		// retry by skipping further leading rows.
		if !containsAll(header, zerodhaCurrentColumns) {
			headerIdx, err = locateRequiredHeader(records, zerodhaCurrentColumns)
			if err != nil {
				return nil, nil, err
			}
			header = records[headerIdx]
		}
		return p.parseCurrent(header, records[headerIdx+1:])
	}

	if !containsAll(header, zerodhaLegacyColumns) {
		headerIdx, err = locateRequiredHeader(records, zerodhaLegacyColumns)
		if err != nil {
			return nil, nil, err
		}
		header = records[headerIdx]
	}
	return p.parseLegacy(header, records[headerIdx+1:])
}

func (p *ZerodhaCSVParser) parseCurrent(header []string, rows [][]string) ([]model.ParsedHolding, []model.ImportWarning, error) {
	col := columnIndex(header)
	isinIdx, hasISIN := col["ISIN"]

	holdings := []model.ParsedHolding{}
	for _, row := range rows {
		symbol := cell(row, col["Symbol"])
		if symbol == "" {
			continue
		}

		isin := ""
		if hasISIN {
			isin = cell(row, isinIdx)
		}

		cleaned, assetType := p.classifier.NormalizeAndClassify(symbol, isin)

		quantity, _ := parseFloat(cell(row, col["Quantity Available"]))
		avgPrice, _ := parseFloat(cell(row, col["Average Price"]))
		currentPrice, _ := parseFloat(cell(row, col["Previous Closing Price"]))
		pnl, _ := parseFloat(cell(row, col["Unrealized P&L"]))
		pnlPct, _ := parseFloat(cell(row, col["Unrealized P&L Pct."]))

		holdings = append(holdings, model.ParsedHolding{
			Symbol:        cleaned,
			Exchange:      "NSE", // schema carries no exchange column
			AssetType:     assetType,
			Quantity:      quantity,
			AveragePrice:  avgPrice,
			CurrentPrice:  currentPrice,
			CurrentValue:  quantity * currentPrice,
			PNL:           pnl,
			PNLPercentage: pnlPct,
			ISIN:          isin,
		})
	}

	if len(holdings) == 0 {
		return nil, nil, emptyFileErr()
	}
	return holdings, nil, nil
}

func (p *ZerodhaCSVParser) parseLegacy(header []string, rows [][]string) ([]model.ParsedHolding, []model.ImportWarning, error) {
	col := columnIndex(header)

	holdings := []model.ParsedHolding{}
	for _, row := range rows {
		instrument := cell(row, col["Instrument"])
		if instrument == "" {
			continue
		}

		symbol := instrument
		exchange := "NSE"
		if m := legacyInstrumentRe.FindStringSubmatch(instrument); m != nil {
			symbol = strings.TrimSpace(m[1])
			exchange = m[2]
		}

		cleaned, assetType := p.classifier.NormalizeAndClassify(symbol, "")

		quantity, _ := parseFloat(cell(row, col["Qty."]))
		avgPrice, _ := parseFloat(cell(row, col["Avg. cost"]))
		ltp, _ := parseFloat(cell(row, col["LTP"]))
		pnl, _ := parseFloat(cell(row, col["P&L"]))

		pnlPct := 0.0
		if investment := quantity * avgPrice; investment > 0 {
			pnlPct = pnl / investment * 100
		}

		holdings = append(holdings, model.ParsedHolding{
			Symbol:        cleaned,
			Exchange:      exchange,
			AssetType:     assetType,
			Quantity:      quantity,
			AveragePrice:  avgPrice,
			CurrentPrice:  ltp,
			CurrentValue:  quantity * ltp,
			PNL:           pnl,
			PNLPercentage: pnlPct,
		})
	}

	if len(holdings) == 0 {
		return nil, nil, emptyFileErr()
	}
	return holdings, nil, nil
}

// GenericCSVParser handles arbitrary holdings CSVs via column auto-detection.
// Unresolvable numeric fields default (quantity to 1.0, prices to 0) and each
// default is reported as a per-row warning.
type GenericCSVParser struct {
	classifier *Classifier
}

// NewGenericCSVParser creates a parser using the provided symbol classifier.
func NewGenericCSVParser(classifier *Classifier) *GenericCSVParser {
	return &GenericCSVParser{classifier: classifier}
}

// Parse extracts holdings from a CSV with an unknown schema.
func (p *GenericCSVParser) Parse(filename string, data []byte) ([]model.ParsedHolding, []model.ImportWarning, error) {
	records, err := readCSVRecords(data)
	if err != nil {
		return nil, nil, err
	}

	headerIdx := findHeaderIndex(records)
	mapping, err := MapStockColumns(records[headerIdx])
	if err != nil {
		return nil, nil, err
	}

	holdings, warnings := parseMappedRows(p.classifier, mapping, records[headerIdx+1:], "")
	if len(holdings) == 0 {
		return nil, nil, emptyFileErr()
	}
	return holdings, warnings, nil
}

// parseMappedRows converts rows to holdings through a resolved column mapping.
// Shared between the generic CSV path and stock sheets inside Excel workbooks;
// sheet carries the sheet name for warnings, empty for CSVs.
func parseMappedRows(classifier *Classifier, mapping ColumnMapping, rows [][]string, sheet string) ([]model.ParsedHolding, []model.ImportWarning) {
	holdings := []model.ParsedHolding{}
	warnings := []model.ImportWarning{}

	for i, row := range rows {
		rawSymbol := mapping.Cell(row, FieldSymbol)
		if rawSymbol == "" {
			continue
		}

		isin := mapping.Cell(row, FieldISIN)
		symbol, assetType := classifier.NormalizeAndClassify(rawSymbol, isin)

		var missing []string

		quantity := 1.0
		if mapping.Has(FieldQuantity) {
			if v, ok := parseFloat(mapping.Cell(row, FieldQuantity)); ok {
				quantity = v
			} else {
				missing = append(missing, fieldInvalid(FieldQuantity))
			}
		} else {
			missing = append(missing, FieldQuantity)
		}

		avgPrice := 0.0
		if mapping.Has(FieldAveragePrice) {
			if v, ok := parseFloat(mapping.Cell(row, FieldAveragePrice)); ok {
				avgPrice = v
			} else {
				missing = append(missing, fieldInvalid(FieldAveragePrice))
			}
		} else {
			missing = append(missing, FieldAveragePrice)
		}

		currentPrice := 0.0
		if mapping.Has(FieldCurrentPrice) {
			if v, ok := parseFloat(mapping.Cell(row, FieldCurrentPrice)); ok {
				currentPrice = v
			}
		}

		holding := model.ParsedHolding{
			Symbol:       symbol,
			Exchange:     "NSE",
			AssetType:    assetType,
			Quantity:     quantity,
			AveragePrice: avgPrice,
			CurrentPrice: currentPrice,
			ISIN:         isin,
		}
		holding.FinalizeValues()
		holdings = append(holdings, holding)

		if len(missing) > 0 {
			warnings = append(warnings, model.ImportWarning{
				Symbol:        rawSymbol,
				MissingFields: missing,
				RowNumber:     i + 2, // 1-based, counting the header row
				Sheet:         sheet,
			})
		}
	}

	return holdings, warnings
}

func fieldInvalid(field string) string {
	return fmt.Sprintf("%s (invalid value)", field)
}

// readCSVRecords decodes the file into records, tolerating ragged rows, and
// fails the file when it carries no data at all.
func readCSVRecords(data []byte) ([][]string, error) {
	if len(data) == 0 {
		return nil, emptyFileErr()
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, &FormatError{
			Kind:   errors.ErrUnsupportedFileType,
			Detail: fmt.Sprintf("not a parseable CSV: %v", err),
		}
	}

	// Drop fully blank records.
	filtered := records[:0]
	for _, record := range records {
		if !blankRecord(record) {
			filtered = append(filtered, record)
		}
	}
	if len(filtered) == 0 {
		return nil, emptyFileErr()
	}
	return filtered, nil
}

func blankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// findHeaderIndex locates the header record by keyword scan, falling back to
// the first record when no keyword line exists.
func findHeaderIndex(records [][]string) int {
	lines := make([]string, len(records))
	for i, record := range records {
		lines[i] = strings.Join(record, ",")
	}
	if idx := findHeaderLine(lines); idx >= 0 {
		return idx
	}
	return 0
}

func columnIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	return index
}

func containsColumn(header []string, name string) bool {
	for _, field := range header {
		if strings.TrimSpace(field) == name {
			return true
		}
	}
	return false
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
