package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"

	"github.com/portfoliq/holdings-backend/internal/errors"
	"github.com/portfoliq/holdings-backend/internal/model"
)

// headerScanLimit is how many leading rows of a sheet are scanned for a header.
const headerScanLimit = 50

// sheetHeaderKeywords identify a header row inside a spreadsheet sheet.
var sheetHeaderKeywords = []string{"symbol", "quantity", "price", "scheme", "nav", "units"}

// Keyword sets for the stock-vs-mutual-fund sheet scoring.
var (
	fundColumnIndicators  = []string{"scheme", "nav", "folio", "units", "fund", "amc"}
	stockColumnIndicators = []string{"symbol", "quantity", "average price", "ltp", "exchange"}
	fundValueKeywords     = []string{"fund", "scheme", "elss", "flexi cap", "liquid", "debt", "equity"}
)

// ExcelParser parses multi-sheet workbooks (.xlsx via excelize, legacy .xls via
// xlsReader). Every sheet is independently header-located, scored as stock
// holdings vs mutual fund holdings and dispatched to the matching sub-parser;
// sheets that score as neither are skipped.
type ExcelParser struct {
	classifier *Classifier
}

// NewExcelParser creates a parser using the provided symbol classifier.
func NewExcelParser(classifier *Classifier) *ExcelParser {
	return &ExcelParser{classifier: classifier}
}

// Parse extracts holdings from all recognizable sheets of a workbook.
func (p *ExcelParser) Parse(filename string, data []byte) ([]model.ParsedHolding, []model.ImportWarning, error) {
	holdings, warnings, _, err := p.ParseWorkbook(filename, data)
	return holdings, warnings, err
}

// ParseWorkbook is Parse plus the per-sheet classification decisions, for
// callers that surface sheet-level diagnostics.
func (p *ExcelParser) ParseWorkbook(filename string, data []byte) ([]model.ParsedHolding, []model.ImportWarning, []model.SheetClassification, error) {
	if err := requireExtension(filename, ".xlsx", ".xls"); err != nil {
		return nil, nil, nil, err
	}
	if len(data) == 0 {
		return nil, nil, nil, emptyFileErr()
	}

	sheets, err := readWorkbookSheets(filename, data)
	if err != nil {
		return nil, nil, nil, err
	}

	var holdings []model.ParsedHolding
	var warnings []model.ImportWarning
	var classifications []model.SheetClassification

	for _, sheet := range sheets {
		headerIdx, ok := findSheetHeader(sheet.rows)
		if !ok {
			continue
		}
		header := sheet.rows[headerIdx]
		dataRows := sheet.rows[headerIdx+1:]

		classification := classifySheet(sheet.name, header, dataRows)
		classifications = append(classifications, classification)

		switch classification.Kind {
		case model.SheetKindStocks:
			mapping, err := MapStockColumns(header)
			if err != nil {
				// Header scored as stocks but the symbol column still did not
				// resolve; treat as an unusable sheet, not a fatal file error.
				continue
			}
			sheetHoldings, sheetWarnings := parseMappedRows(p.classifier, mapping, dataRows, sheet.name)
			holdings = append(holdings, sheetHoldings...)
			warnings = append(warnings, sheetWarnings...)
		case model.SheetKindMutualFunds:
			sheetHoldings, sheetWarnings := parseFundRows(header, dataRows, sheet.name)
			holdings = append(holdings, sheetHoldings...)
			warnings = append(warnings, sheetWarnings...)
		}
	}

	if len(holdings) == 0 {
		return nil, nil, classifications, &FormatError{
			Kind:   errors.ErrEmptyFile,
			Detail: "no valid holdings data found in any sheet of the workbook",
		}
	}
	return holdings, warnings, classifications, nil
}

// sheetData is one sheet's name and raw cell grid, source-format agnostic.
type sheetData struct {
	name string
	rows [][]string
}

func readWorkbookSheets(filename string, data []byte) ([]sheetData, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".xls") {
		return readXLSSheets(data)
	}
	return readXLSXSheets(data)
}

func readXLSXSheets(data []byte) ([]sheetData, error) {
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &FormatError{
			Kind:   errors.ErrUnsupportedFileType,
			Detail: fmt.Sprintf("not a readable xlsx workbook: %v", err),
		}
	}
	defer book.Close()

	var sheets []sheetData
	for _, name := range book.GetSheetList() {
		rows, err := book.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		sheets = append(sheets, sheetData{name: name, rows: rows})
	}
	return sheets, nil
}

func readXLSSheets(data []byte) ([]sheetData, error) {
	book, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &FormatError{
			Kind:   errors.ErrUnsupportedFileType,
			Detail: fmt.Sprintf("not a readable xls workbook: %v", err),
		}
	}

	var sheets []sheetData
	for i := 0; i < book.GetNumberSheets(); i++ {
		sheet, err := book.GetSheet(i)
		if err != nil || sheet == nil {
			continue
		}
		var rows [][]string
		for _, xlsRow := range sheet.GetRows() {
			var values []string
			for _, col := range xlsRow.GetCols() {
				values = append(values, col.GetString())
			}
			rows = append(rows, values)
		}
		sheets = append(sheets, sheetData{name: sheet.GetName(), rows: rows})
	}
	return sheets, nil
}

// findSheetHeader scans the first 50 rows for one containing any known header
// keyword. Sheets without such a row within the window are skipped entirely.
func findSheetHeader(rows [][]string) (int, bool) {
	limit := headerScanLimit
	if limit > len(rows) {
		limit = len(rows)
	}
	for i := 0; i < limit; i++ {
		joined := strings.ToLower(strings.Join(rows[i], " "))
		for _, keyword := range sheetHeaderKeywords {
			if strings.Contains(joined, keyword) {
				return i, true
			}
		}
	}
	return 0, false
}

// classifySheet scores a sheet as stock holdings vs mutual fund holdings.
// Column names, the sheet name itself and a sample of cell content all
// contribute; mutual_funds wins only when its score strictly exceeds the stock
// score, stocks wins on any positive score, otherwise the sheet is unknown.
func classifySheet(sheetName string, header []string, dataRows [][]string) model.SheetClassification {
	columns := make([]string, len(header))
	for i, col := range header {
		columns[i] = strings.ToLower(strings.TrimSpace(col))
	}

	fundScore, stockScore := 0, 0

	for _, indicator := range fundColumnIndicators {
		if anyColumnContains(columns, indicator) {
			fundScore++
		}
	}
	for _, indicator := range stockColumnIndicators {
		if anyColumnContains(columns, indicator) {
			stockScore++
		}
	}

	nameLower := strings.ToLower(sheetName)
	if strings.Contains(nameLower, "mutual") || strings.Contains(nameLower, "fund") || strings.Contains(nameLower, "mf") {
		fundScore += 3
	}
	if strings.Contains(nameLower, "stock") || strings.Contains(nameLower, "equity") || strings.Contains(nameLower, "share") {
		stockScore += 2
	}

	// Content sampling: fund names leak through stock-shaped columns.
	if idx := exactColumnIndex(columns, "symbol"); idx >= 0 {
		for _, value := range sampleColumn(dataRows, idx, 5) {
			valueLower := strings.ToLower(value)
			for _, keyword := range fundValueKeywords {
				if strings.Contains(valueLower, keyword) {
					fundScore++
					break
				}
			}
			if strings.Contains(valueLower, "direct plan") || strings.Contains(valueLower, "regular plan") {
				fundScore += 2
			}
		}
	}
	if idx := exactColumnIndex(columns, "instrument type"); idx >= 0 {
		for _, value := range sampleColumn(dataRows, idx, 5) {
			valueLower := strings.ToLower(value)
			if strings.Contains(valueLower, "equity") &&
				(strings.Contains(valueLower, "elss") || strings.Contains(valueLower, "flexi")) {
				fundScore += 2
			}
		}
	}

	kind := model.SheetKindUnknown
	switch {
	case fundScore > stockScore:
		kind = model.SheetKindMutualFunds
	case stockScore > 0:
		kind = model.SheetKindStocks
	}

	return model.SheetClassification{
		SheetName:  sheetName,
		Kind:       kind,
		StockScore: stockScore,
		FundScore:  fundScore,
	}
}

func anyColumnContains(columns []string, indicator string) bool {
	for _, col := range columns {
		if strings.Contains(col, indicator) {
			return true
		}
	}
	return false
}

func exactColumnIndex(columns []string, name string) int {
	for i, col := range columns {
		if col == name {
			return i
		}
	}
	return -1
}

func sampleColumn(rows [][]string, idx, limit int) []string {
	var values []string
	for _, row := range rows {
		if len(values) >= limit {
			break
		}
		if idx < len(row) && strings.TrimSpace(row[idx]) != "" {
			values = append(values, strings.TrimSpace(row[idx]))
		}
	}
	return values
}

// Scheme-name cleaning: exports often concatenate the scheme name with dates,
// NAV values and scheme codes in one cell.
var (
	schemeDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\d{1,2}[-/][A-Za-z]{3}[-/]\d{2,4}`), // 27-Jun-2025
		regexp.MustCompile(`\d{1,2}[-/]\d{1,2}[-/]\d{2,4}`),         // 27/06/2025
		regexp.MustCompile(`(?i)[A-Za-z]{3}\s+\d{1,2}\s+\d{2,4}`),   // Jun 27 2025
		regexp.MustCompile(`\d{4}[-/]\d{1,2}[-/]\d{1,2}`),           // 2025-06-27
	}
	schemeNAVLeakRe  = regexp.MustCompile(`\b\d+\.\d+\b`)
	schemeCodeLeakRe = regexp.MustCompile(`\b\d{2,}\b`)
)

// maxSchemeNameLen bounds the stored scheme name.
const maxSchemeNameLen = 50

func cleanSchemeName(name string) string {
	for _, pattern := range schemeDatePatterns {
		name = pattern.ReplaceAllString(name, "")
	}
	name = schemeNAVLeakRe.ReplaceAllString(name, "")
	name = schemeCodeLeakRe.ReplaceAllString(name, "")
	name = strings.Join(strings.Fields(name), " ")
	if len(name) > maxSchemeNameLen {
		name = name[:maxSchemeNameLen]
	}
	return strings.TrimSpace(name)
}

// investedValueThreshold disambiguates the "invested value or average price"
// column: values below it read as a per-unit price, values above as a total.
const investedValueThreshold = 1000

// parseFundRows parses a mutual-fund sheet through the fund column mapping.
func parseFundRows(header []string, rows [][]string, sheet string) ([]model.ParsedHolding, []model.ImportWarning) {
	mapping, err := MapFundColumns(header)
	if err != nil {
		return nil, nil
	}

	holdings := []model.ParsedHolding{}
	warnings := []model.ImportWarning{}

	for i, row := range rows {
		rawName := mapping.Cell(row, FieldSchemeName)
		if rawName == "" {
			continue
		}
		schemeName := cleanSchemeName(rawName)

		var missing []string

		units := 0.0
		if mapping.Has(FieldUnits) {
			if v, ok := parseFloat(mapping.Cell(row, FieldUnits)); ok {
				units = v
			} else {
				missing = append(missing, fieldInvalid(FieldUnits))
			}
		} else {
			missing = append(missing, FieldUnits)
		}

		nav := 0.0
		if mapping.Has(FieldNAV) {
			if v, ok := parseFloat(mapping.Cell(row, FieldNAV)); ok {
				nav = v
			} else {
				missing = append(missing, fieldInvalid(FieldNAV))
			}
		} else {
			missing = append(missing, FieldNAV)
		}

		// The invested column is contextual: a small number is a per-unit
		// average price, a large one a total invested amount.
		investedValue, avgPrice := 0.0, 0.0
		if mapping.Has(FieldInvestedValue) {
			if v, ok := parseFloat(mapping.Cell(row, FieldInvestedValue)); ok {
				if v < investedValueThreshold {
					avgPrice = v
					if units > 0 {
						investedValue = avgPrice * units
					}
				} else {
					investedValue = v
					if units > 0 {
						avgPrice = investedValue / units
					} else {
						avgPrice = nav
					}
				}
			} else {
				avgPrice = nav
			}
		}

		currentValue := 0.0
		if nav > 0 {
			currentValue = units * nav
		} else if mapping.Has(FieldCurrentValue) {
			if v, ok := parseFloat(mapping.Cell(row, FieldCurrentValue)); ok && v > 0 {
				currentValue = v
			}
		}

		pnl, pnlPct := 0.0, 0.0
		if investedValue > 0 {
			pnl = currentValue - investedValue
			pnlPct = pnl / investedValue * 100
		}

		holdings = append(holdings, model.ParsedHolding{
			Symbol:        schemeName,
			Exchange:      "MF",
			AssetType:     model.AssetTypeMutualFund,
			Quantity:      units,
			AveragePrice:  avgPrice,
			CurrentPrice:  nav,
			CurrentValue:  currentValue,
			PNL:           pnl,
			PNLPercentage: pnlPct,
			SchemeCode:    mapping.Cell(row, FieldSchemeCode),
		})

		if len(missing) > 0 {
			warnings = append(warnings, model.ImportWarning{
				Symbol:        schemeName,
				MissingFields: missing,
				RowNumber:     i + 2,
				Sheet:         sheet,
			})
		}
	}

	return holdings, warnings
}
