package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/portfoliq/holdings-backend/internal/model"
)

// HoldingBuilder provides a fluent interface for creating test holdings.
//
// Example usage:
//
//	// Simple creation with defaults
//	holding := testutil.NewHolding().Build(t, db)
//
//	// Customized holding
//	holding := testutil.NewHolding().
//	    WithSymbol("NIFTYBEES").
//	    WithAssetType(model.AssetTypeETF).
//	    WithQuantity(10).
//	    Build(t, db)
type HoldingBuilder struct {
	ID                string
	PlatformAccountID int64
	Symbol            string
	Exchange          string
	AssetType         model.AssetType
	Quantity          float64
	AveragePrice      float64
	CurrentPrice      float64
	CurrentValue      float64
	PNL               float64
	PNLPercentage     float64
	ISIN              string
	SchemeCode        string
}

// NewHolding creates a HoldingBuilder with sensible defaults.
func NewHolding() *HoldingBuilder {
	return &HoldingBuilder{
		ID:                uuid.New().String(),
		PlatformAccountID: 1,
		Symbol:            "RELIANCE",
		Exchange:          "NSE",
		AssetType:         model.AssetTypeStock,
		Quantity:          10,
		AveragePrice:      2500,
		CurrentPrice:      2600,
		CurrentValue:      26000,
		PNL:               1000,
		PNLPercentage:     4,
	}
}

// WithAccount sets the platform account ID.
func (b *HoldingBuilder) WithAccount(id int64) *HoldingBuilder {
	b.PlatformAccountID = id
	return b
}

// WithSymbol sets a custom symbol.
func (b *HoldingBuilder) WithSymbol(symbol string) *HoldingBuilder {
	b.Symbol = symbol
	return b
}

// WithExchange sets a custom exchange.
func (b *HoldingBuilder) WithExchange(exchange string) *HoldingBuilder {
	b.Exchange = exchange
	return b
}

// WithAssetType sets the asset type.
func (b *HoldingBuilder) WithAssetType(assetType model.AssetType) *HoldingBuilder {
	b.AssetType = assetType
	return b
}

// WithQuantity sets the quantity.
func (b *HoldingBuilder) WithQuantity(quantity float64) *HoldingBuilder {
	b.Quantity = quantity
	return b
}

// WithAveragePrice sets the average cost price.
func (b *HoldingBuilder) WithAveragePrice(price float64) *HoldingBuilder {
	b.AveragePrice = price
	return b
}

// WithCurrentPrice sets the current price and recomputes the derived values.
func (b *HoldingBuilder) WithCurrentPrice(price float64) *HoldingBuilder {
	b.CurrentPrice = price
	b.CurrentValue = b.Quantity * price
	if b.AveragePrice > 0 {
		b.PNL = b.CurrentValue - b.Quantity*b.AveragePrice
		b.PNLPercentage = b.PNL / (b.Quantity * b.AveragePrice) * 100
	}
	return b
}

// Unpriced marks the holding as having no known market price.
func (b *HoldingBuilder) Unpriced() *HoldingBuilder {
	b.CurrentPrice = 0
	b.CurrentValue = b.Quantity * b.AveragePrice
	b.PNL = 0
	b.PNLPercentage = 0
	return b
}

// WithSchemeCode sets the mutual fund scheme code.
func (b *HoldingBuilder) WithSchemeCode(code string) *HoldingBuilder {
	b.SchemeCode = code
	return b
}

// WithISIN sets the ISIN.
func (b *HoldingBuilder) WithISIN(isin string) *HoldingBuilder {
	b.ISIN = isin
	return b
}

// Build creates the holding in the database and returns it.
func (b *HoldingBuilder) Build(t *testing.T, db *sql.DB) model.Holding {
	t.Helper()

	query := `
		INSERT INTO holding (id, platform_account_id, symbol, exchange, asset_type,
			quantity, average_price, current_price, current_value, pnl, pnl_percentage,
			isin, scheme_code, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	_, err := db.Exec(query,
		b.ID, b.PlatformAccountID, b.Symbol, b.Exchange, string(b.AssetType),
		b.Quantity, b.AveragePrice, b.CurrentPrice, b.CurrentValue, b.PNL, b.PNLPercentage,
		nullable(b.ISIN), nullable(b.SchemeCode), now.Format(time.RFC3339),
	)
	if err != nil {
		t.Fatalf("Failed to create test holding: %v", err)
	}

	return model.Holding{
		ID:                b.ID,
		PlatformAccountID: b.PlatformAccountID,
		Symbol:            b.Symbol,
		Exchange:          b.Exchange,
		AssetType:         b.AssetType,
		Quantity:          b.Quantity,
		AveragePrice:      b.AveragePrice,
		CurrentPrice:      b.CurrentPrice,
		CurrentValue:      b.CurrentValue,
		PNL:               b.PNL,
		PNLPercentage:     b.PNLPercentage,
		ISIN:              b.ISIN,
		SchemeCode:        b.SchemeCode,
		LastUpdated:       now,
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
