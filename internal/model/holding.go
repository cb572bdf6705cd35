package model

import "time"

// AssetType identifies the instrument category of a holding.
type AssetType string

const (
	AssetTypeStock      AssetType = "STOCK"
	AssetTypeETF        AssetType = "ETF"
	AssetTypeMutualFund AssetType = "MUTUAL_FUND"
	AssetTypeSGB        AssetType = "SGB"
	AssetTypeREIT       AssetType = "REIT"
)

// Holding represents a persisted holding row. Holdings are scoped per platform
// account; the reconciliation key is (platform_account_id, symbol, asset_type).
type Holding struct {
	ID                string    `json:"id"`
	PlatformAccountID int64     `json:"platformAccountId"`
	Symbol            string    `json:"symbol"`
	Exchange          string    `json:"exchange"`
	AssetType         AssetType `json:"assetType"`
	Quantity          float64   `json:"quantity"`
	AveragePrice      float64   `json:"averagePrice"`
	CurrentPrice      float64   `json:"currentPrice"`
	CurrentValue      float64   `json:"currentValue"`
	PNL               float64   `json:"pnl"`
	PNLPercentage     float64   `json:"pnlPercentage"`
	ISIN              string    `json:"isin,omitempty"`
	SchemeCode        string    `json:"schemeCode,omitempty"`
	LastUpdated       time.Time `json:"lastUpdated"`
}

// ParsedHolding is one holding extracted from an uploaded file. It lives only
// for the duration of a single import call and is either written against the
// holdings store or discarded.
//
// A CurrentPrice of 0 means "unknown"; such holdings are candidates for the
// price enrichment pass.
type ParsedHolding struct {
	Symbol        string    `json:"symbol"`
	Exchange      string    `json:"exchange"`
	AssetType     AssetType `json:"assetType"`
	Quantity      float64   `json:"quantity"`
	AveragePrice  float64   `json:"averagePrice"`
	CurrentPrice  float64   `json:"currentPrice"`
	CurrentValue  float64   `json:"currentValue"`
	PNL           float64   `json:"pnl"`
	PNLPercentage float64   `json:"pnlPercentage"`
	ISIN          string    `json:"isin,omitempty"`
	SchemeCode    string    `json:"schemeCode,omitempty"`
}

// FinalizeValues derives CurrentValue, PNL and PNLPercentage from the quantity
// and price fields. CurrentValue falls back to cost basis when the current
// price is unknown.
func (h *ParsedHolding) FinalizeValues() {
	if h.CurrentPrice > 0 {
		h.CurrentValue = h.Quantity * h.CurrentPrice
	} else {
		h.CurrentValue = h.Quantity * h.AveragePrice
	}
	if h.AveragePrice > 0 {
		h.PNL = h.CurrentValue - h.Quantity*h.AveragePrice
		if h.Quantity > 0 {
			h.PNLPercentage = h.PNL / (h.Quantity * h.AveragePrice) * 100
		}
	} else {
		h.PNL = 0
		h.PNLPercentage = 0
	}
}

// ImportWarning reports a non-fatal problem with one parsed row. Warnings are
// informational only and never block persistence.
type ImportWarning struct {
	Symbol        string   `json:"symbol"`
	MissingFields []string `json:"missingFields,omitempty"`
	RowNumber     int      `json:"rowNumber,omitempty"`
	Sheet         string   `json:"sheet,omitempty"`
	Message       string   `json:"message,omitempty"`
}

// DuplicateDiff records the old and new values when an import updated an
// existing holding.
type DuplicateDiff struct {
	Symbol          string  `json:"symbol"`
	OldQuantity     float64 `json:"oldQuantity"`
	NewQuantity     float64 `json:"newQuantity"`
	OldAveragePrice float64 `json:"oldAvgPrice"`
	NewAveragePrice float64 `json:"newAvgPrice"`
}

// ImportSummary is the result of one reconciliation run.
type ImportSummary struct {
	ImportedCount  int             `json:"importedCount"`
	UpdatedCount   int             `json:"updatedCount"`
	SkippedCount   int             `json:"skippedCount"`
	PricesUpdated  int             `json:"pricesUpdated"`
	Warnings       []ImportWarning `json:"warnings"`
	DuplicateDiffs []DuplicateDiff `json:"duplicateHoldings,omitempty"`
}

// SheetKind classifies what a spreadsheet sheet contains.
type SheetKind string

const (
	SheetKindStocks      SheetKind = "stocks"
	SheetKindMutualFunds SheetKind = "mutual_funds"
	SheetKindUnknown     SheetKind = "unknown"
)

// SheetClassification records the scoring decision for one sheet, kept for
// diagnostics alongside the parsed holdings.
type SheetClassification struct {
	SheetName  string    `json:"sheetName"`
	Kind       SheetKind `json:"kind"`
	StockScore int       `json:"stockScore"`
	FundScore  int       `json:"fundScore"`
}
