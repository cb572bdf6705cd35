package marketdata

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/portfoliq/holdings-backend/internal/errors"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// StockClient provides methods for fetching stock and ETF prices from the
// Yahoo Finance chart API. It wraps an HTTP client and maps Indian exchange
// names to the ticker suffixes Yahoo expects.
type StockClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewStockClient creates a new Yahoo Finance client with default HTTP settings.
// An empty baseURL selects the production Yahoo endpoint; tests pass an
// httptest server URL instead.
func NewStockClient(baseURL string) *StockClient {
	if baseURL == "" {
		baseURL = defaultYahooBaseURL
	}
	return &StockClient{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// TickerForExchange maps a symbol and exchange name to the Yahoo ticker form.
// NSE symbols get a ".NS" suffix and BSE symbols ".BO"; unknown exchanges
// default to NSE since most Indian broker exports trade there.
func TickerForExchange(symbol, exchange string) string {
	switch strings.ToUpper(strings.TrimSpace(exchange)) {
	case "BSE", "BO":
		return symbol + ".BO"
	default:
		return symbol + ".NS"
	}
}

// GetQuote fetches the latest available closing price for a symbol on the
// given exchange. It queries the last five trading days and returns the most
// recent non-zero close, so a lookup still succeeds on market holidays.
//
// Parameters:
//   - symbol: Exchange ticker without suffix (e.g., "RELIANCE", "NIFTYBEES")
//   - exchange: Exchange name ("NSE" or "BSE")
//
// Returns:
//   - Quote: Symbol metadata and the latest closing price
//   - error: ErrPriceNotFound if Yahoo has no usable data for the symbol
func (c *StockClient) GetQuote(symbol, exchange string) (Quote, error) {
	ticker := TickerForExchange(symbol, exchange)
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=5d", c.baseURL, url.PathEscape(ticker))

	response, err := c.queryChart(endpoint)
	if err != nil {
		return Quote{}, err
	}
	if len(response.Chart.Result) == 0 {
		return Quote{}, fmt.Errorf("%w: no results for symbol %s", apperrors.ErrPriceNotFound, ticker)
	}

	result := response.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return Quote{}, fmt.Errorf("%w: no quote data for symbol %s", apperrors.ErrPriceNotFound, ticker)
	}

	closes := result.Indicators.Quote[0].Close
	price := 0.0
	for i := len(closes) - 1; i >= 0; i-- {
		if closes[i] > 0 {
			price = closes[i]
			break
		}
	}
	if price == 0 {
		return Quote{}, fmt.Errorf("%w: no close prices for symbol %s", apperrors.ErrPriceNotFound, ticker)
	}

	return Quote{
		Symbol:       result.Meta.Symbol,
		Name:         result.Meta.LongName,
		Currency:     result.Meta.Currency,
		CurrentPrice: price,
	}, nil
}

// queryChart is an internal helper that executes HTTP requests to the chart
// API. It sets a browser User-Agent since Yahoo blocks default Go clients,
// reads the body, parses JSON, and surfaces API-level errors.
func (c *StockClient) queryChart(endpoint string) (chartResponse, error) {
	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return chartResponse{}, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return chartResponse{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return chartResponse{}, err
	}

	var response chartResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return chartResponse{}, err
	}

	if response.Chart.Error != nil {
		return response, fmt.Errorf("yahoo error: %s", *response.Chart.Error)
	}

	return response, nil
}
