package parser

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/portfoliq/holdings-backend/internal/errors"
	"github.com/portfoliq/holdings-backend/internal/model"
)

// Document classification keyword sets. A document matching at least
// docKeywordThreshold distinct keywords from a set is treated as that
// statement type; otherwise generic extraction applies.
var (
	fundDocKeywords  = []string{"mutual fund", "scheme", "nav", "folio", "units", "redemption", "amc", "fund house"}
	dematDocKeywords = []string{"demat", "cdsl", "nsdl", "isin", "depository", "securities", "shares"}
)

const docKeywordThreshold = 3

// Extraction patterns. PDF text extraction destroys table structure, so
// holdings are recovered by windowed regex search around anchor matches.
var (
	schemeNameRe  = regexp.MustCompile(`(?i)([A-Za-z\s]+(?:Fund|Scheme)[^\n]*)`)
	unitsRe       = regexp.MustCompile(`(?:Balance|Units|Closing)\s*:?\s*([\d,]+\.?\d*)`)
	navRe         = regexp.MustCompile(`NAV\s*(?:as\s*on[^:]*)?:?\s*₹?\s*([\d,]+\.?\d*)`)
	isinPairRe    = regexp.MustCompile(`(IN[A-Z0-9]{9})\s+([A-Za-z\s&.\-]+)`)
	quantityRe    = regexp.MustCompile(`([\d,]+)\s*(?:shares?|units?)`)
	tripleRe      = regexp.MustCompile(`([A-Z]{2,}[A-Z0-9\-]*)\s+([\d,]+)\s+([\d,]+\.?\d*)`)
	fundTypeRe    = regexp.MustCompile(`(?i)(Fund|ELSS|Liquid|Debt|Equity|Growth|Dividend)`)
	numberTokenRe = regexp.MustCompile(`[\d,]+\.?\d*`)
)

// Window sizes (in characters after the anchor) for associating numbers with
// the scheme or ISIN they belong to.
const (
	fundWindow  = 500
	dematWindow = 200
)

// maxPlausibleUnits rejects obviously wrong extractions, for example a scheme
// code read as a unit balance.
const maxPlausibleUnits = 1_000_000

// PDFParser extracts holdings from PDF statements. Extraction is explicitly
// heuristic: the document is classified as a mutual fund statement, a demat
// statement or generic, and the matching windowed-regex strategy runs over the
// extracted plain text.
type PDFParser struct{}

// NewPDFParser creates a PDF statement parser.
func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

// Parse extracts holdings from a PDF statement.
func (p *PDFParser) Parse(filename string, data []byte) ([]model.ParsedHolding, []model.ImportWarning, error) {
	if err := requireExtension(filename, ".pdf"); err != nil {
		return nil, nil, err
	}
	if len(data) == 0 {
		return nil, nil, emptyFileErr()
	}

	text, err := extractPDFText(data)
	if err != nil {
		return nil, nil, err
	}

	textLower := strings.ToLower(text)
	switch {
	case countKeywordHits(textLower, fundDocKeywords) >= docKeywordThreshold:
		holdings, warnings := parseFundStatement(text)
		return holdings, warnings, nil
	case countKeywordHits(textLower, dematDocKeywords) >= docKeywordThreshold:
		holdings, warnings := parseDematStatement(text)
		return holdings, warnings, nil
	default:
		holdings, warnings := parseGenericStatement(text)
		return holdings, warnings, nil
	}
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &FormatError{
			Kind:   errors.ErrUnsupportedFileType,
			Detail: fmt.Sprintf("not a readable PDF: %v", err),
		}
	}

	plainText, err := reader.GetPlainText()
	if err != nil {
		return "", &FormatError{
			Kind:   errors.ErrUnsupportedFileType,
			Detail: fmt.Sprintf("failed to extract text from PDF: %v", err),
		}
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plainText); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	return buf.String(), nil
}

// countKeywordHits counts distinct keywords present in the text.
func countKeywordHits(textLower string, keywords []string) int {
	hits := 0
	for _, keyword := range keywords {
		if strings.Contains(textLower, keyword) {
			hits++
		}
	}
	return hits
}

// parseFundStatement recovers fund holdings by finding scheme-name candidates
// and inspecting the text window following each for units and NAV figures.
// Falls back to a line-oriented table scan when the windowed search finds
// nothing.
func parseFundStatement(text string) ([]model.ParsedHolding, []model.ImportWarning) {
	holdings := []model.ParsedHolding{}
	warnings := []model.ImportWarning{}

	for _, scheme := range schemeNameRe.FindAllString(text, -1) {
		scheme = strings.TrimSpace(scheme)
		pos := strings.Index(text, scheme)
		if pos < 0 {
			continue
		}
		window := text[pos:min(pos+fundWindow, len(text))]

		quantity := 0.0
		if m := unitsRe.FindStringSubmatch(window); m != nil {
			if v, ok := parseFloat(m[1]); ok {
				quantity = v
			} else {
				warnings = append(warnings, model.ImportWarning{
					Symbol:        scheme,
					MissingFields: []string{FieldQuantity},
					Message:       "could not parse units value",
				})
			}
		}

		nav := 0.0
		if m := navRe.FindStringSubmatch(window); m != nil {
			if v, ok := parseFloat(m[1]); ok {
				nav = v
			} else {
				warnings = append(warnings, model.ImportWarning{
					Symbol:        scheme,
					MissingFields: []string{FieldNAV},
					Message:       "could not parse NAV value",
				})
			}
		}

		if quantity == 0 {
			continue
		}

		name := scheme
		if len(name) > maxSchemeNameLen {
			name = name[:maxSchemeNameLen]
		}
		holdings = append(holdings, model.ParsedHolding{
			Symbol:       name,
			Exchange:     "MF",
			AssetType:    model.AssetTypeMutualFund,
			Quantity:     quantity,
			AveragePrice: nav, // statement carries no cost basis; NAV approximates
			CurrentPrice: nav,
			CurrentValue: quantity * nav,
		})
	}

	if len(holdings) == 0 {
		return scanFundTable(text)
	}
	return holdings, warnings
}

// scanFundTable is the fallback extraction: any line mentioning a fund type
// keyword is concatenated with the next four lines and the first two numeric
// tokens are read as units and NAV.
func scanFundTable(text string) ([]model.ParsedHolding, []model.ImportWarning) {
	holdings := []model.ParsedHolding{}
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		if !fundTypeRe.MatchString(line) {
			continue
		}

		combined := strings.Join(lines[i:min(i+5, len(lines))], " ")
		numbers := numberTokenRe.FindAllString(combined, -1)
		if len(numbers) < 2 {
			continue
		}

		units, ok := parseFloat(numbers[0])
		if !ok {
			continue
		}
		nav, _ := parseFloat(numbers[1])

		if units <= 0 || units >= maxPlausibleUnits {
			continue
		}

		name := strings.TrimSpace(line)
		if len(name) > maxSchemeNameLen {
			name = name[:maxSchemeNameLen]
		}
		holdings = append(holdings, model.ParsedHolding{
			Symbol:       name,
			Exchange:     "MF",
			AssetType:    model.AssetTypeMutualFund,
			Quantity:     units,
			AveragePrice: nav,
			CurrentPrice: nav,
			CurrentValue: units * nav,
		})
	}

	return holdings, []model.ImportWarning{}
}

// parseDematStatement recovers equity holdings from (ISIN, company name)
// pairs. Demat statements carry no pricing, so each extracted holding gets a
// warning that prices must come from market data.
func parseDematStatement(text string) ([]model.ParsedHolding, []model.ImportWarning) {
	holdings := []model.ParsedHolding{}
	warnings := []model.ImportWarning{}

	for _, match := range isinPairRe.FindAllStringSubmatch(text, -1) {
		isin, company := match[1], match[2]

		symbol := strings.ToUpper(strings.TrimSpace(company))
		symbol = strings.ReplaceAll(symbol, " LTD", "")
		symbol = strings.ReplaceAll(symbol, " LIMITED", "")

		quantity := 0.0
		pos := strings.Index(text, isin)
		if pos >= 0 {
			window := text[pos:min(pos+dematWindow, len(text))]
			if m := quantityRe.FindStringSubmatch(window); m != nil {
				if v, ok := parseFloat(m[1]); ok {
					quantity = v
				} else {
					warnings = append(warnings, model.ImportWarning{
						Symbol:        company,
						MissingFields: []string{FieldQuantity},
						Message:       "could not parse quantity",
					})
				}
			}
		}

		if quantity == 0 {
			continue
		}

		holdings = append(holdings, model.ParsedHolding{
			Symbol:    symbol,
			Exchange:  "NSE",
			AssetType: model.AssetTypeStock,
			Quantity:  quantity,
			ISIN:      isin,
		})
		warnings = append(warnings, model.ImportWarning{
			Symbol:        symbol,
			MissingFields: []string{FieldAveragePrice, FieldCurrentPrice},
			Message:       "prices will be fetched from market data",
		})
	}

	return holdings, warnings
}

// parseGenericStatement matches SYMBOL QUANTITY PRICE triples directly in the
// text. When nothing matches, a single warning reports the document as
// unparseable.
func parseGenericStatement(text string) ([]model.ParsedHolding, []model.ImportWarning) {
	holdings := []model.ParsedHolding{}

	for _, match := range tripleRe.FindAllStringSubmatch(text, -1) {
		symbol := match[1]
		quantity, ok := parseFloat(match[2])
		if !ok {
			continue
		}
		price, _ := parseFloat(match[3])

		if quantity <= 0 || quantity >= maxPlausibleUnits {
			continue
		}

		holding := model.ParsedHolding{
			Symbol:       symbol,
			Exchange:     "NSE",
			AssetType:    model.AssetTypeStock,
			Quantity:     quantity,
			AveragePrice: price,
		}
		holding.FinalizeValues()
		holdings = append(holdings, holding)
	}

	if len(holdings) == 0 {
		return holdings, []model.ImportWarning{{
			Symbol:        "PDF",
			MissingFields: []string{"all"},
			Message:       "could not parse PDF format; check that this is a valid holdings statement",
		}}
	}
	return holdings, []model.ImportWarning{}
}
