package testutil

import (
	"github.com/portfoliq/holdings-backend/internal/marketdata"
)

// MockStockQuoter is a mock implementation of the stock price lookup for
// testing. It returns configured prices per symbol instead of making API calls.
type MockStockQuoter struct {
	// Prices maps symbol to the quote price to return
	Prices map[string]float64
	// Err is returned for every lookup when set
	Err error
	// QueryCount tracks how many times GetQuote was called
	QueryCount int
}

// NewMockStockQuoter creates a mock with an empty price table.
func NewMockStockQuoter() *MockStockQuoter {
	return &MockStockQuoter{Prices: map[string]float64{}}
}

// WithPrice configures the price returned for a symbol.
func (m *MockStockQuoter) WithPrice(symbol string, price float64) *MockStockQuoter {
	m.Prices[symbol] = price
	return m
}

// GetQuote returns the configured price for the symbol, or ErrPriceNotFound
// behavior via the configured Err.
func (m *MockStockQuoter) GetQuote(symbol, exchange string) (marketdata.Quote, error) {
	m.QueryCount++
	if m.Err != nil {
		return marketdata.Quote{}, m.Err
	}
	price, ok := m.Prices[symbol]
	if !ok {
		return marketdata.Quote{}, errNotConfigured(symbol)
	}
	return marketdata.Quote{
		Symbol:       marketdata.TickerForExchange(symbol, exchange),
		Currency:     "INR",
		CurrentPrice: price,
	}, nil
}

// MockFundQuoter is a mock implementation of the mutual fund NAV lookup.
type MockFundQuoter struct {
	// NAVs maps scheme code to the NAV to return
	NAVs map[string]float64
	// SearchResults maps a lowercase query substring to a scheme code,
	// consulted by FindFundByName
	SearchResults map[string]string
	// Err is returned for every lookup when set
	Err error
	// QueryCount tracks how many lookups were made
	QueryCount int
}

// NewMockFundQuoter creates a mock with empty NAV and search tables.
func NewMockFundQuoter() *MockFundQuoter {
	return &MockFundQuoter{
		NAVs:          map[string]float64{},
		SearchResults: map[string]string{},
	}
}

// WithNAV configures the NAV returned for a scheme code.
func (m *MockFundQuoter) WithNAV(schemeCode string, nav float64) *MockFundQuoter {
	m.NAVs[schemeCode] = nav
	return m
}

// WithSearchHit configures a name search to resolve to a scheme code.
func (m *MockFundQuoter) WithSearchHit(name, schemeCode string) *MockFundQuoter {
	m.SearchResults[name] = schemeCode
	return m
}

// GetFundInfo returns the configured NAV for the scheme code.
func (m *MockFundQuoter) GetFundInfo(schemeCode string) (marketdata.FundInfo, error) {
	m.QueryCount++
	if m.Err != nil {
		return marketdata.FundInfo{}, m.Err
	}
	nav, ok := m.NAVs[schemeCode]
	if !ok {
		return marketdata.FundInfo{}, errNotConfigured(schemeCode)
	}
	return marketdata.FundInfo{
		SchemeCode: schemeCode,
		SchemeName: "Test Scheme " + schemeCode,
		NAV:        nav,
	}, nil
}

// FindFundByName resolves the search table then delegates to GetFundInfo.
func (m *MockFundQuoter) FindFundByName(name string) (marketdata.FundInfo, error) {
	m.QueryCount++
	if m.Err != nil {
		return marketdata.FundInfo{}, m.Err
	}
	code, ok := m.SearchResults[name]
	if !ok {
		return marketdata.FundInfo{}, errNotConfigured(name)
	}
	return m.GetFundInfo(code)
}

type errNotConfigured string

func (e errNotConfigured) Error() string {
	return "no mock data configured for " + string(e)
}
