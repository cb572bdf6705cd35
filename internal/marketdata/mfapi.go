package marketdata

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apperrors "github.com/portfoliq/holdings-backend/internal/errors"
)

const defaultMFAPIBaseURL = "https://api.mfapi.in/mf"

// FundClient provides methods for fetching mutual fund NAVs from the mfapi.in
// public API, by scheme code or by fuzzy name search.
type FundClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewFundClient creates a new mfapi.in client. An empty baseURL selects the
// production endpoint; tests pass an httptest server URL instead.
func NewFundClient(baseURL string) *FundClient {
	if baseURL == "" {
		baseURL = defaultMFAPIBaseURL
	}
	return &FundClient{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// GetFundInfo fetches scheme metadata and the latest NAV for a scheme code.
//
// Returns:
//   - FundInfo: Scheme name, fund house and latest NAV
//   - error: ErrSchemeNotFound if the code is unknown, ErrPriceNotFound if
//     the scheme has no NAV history
func (c *FundClient) GetFundInfo(schemeCode string) (FundInfo, error) {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(schemeCode))

	resp, err := c.httpClient.Get(endpoint)
	if err != nil {
		return FundInfo{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return FundInfo{}, err
	}

	var response fundResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return FundInfo{}, err
	}

	if response.Meta.SchemeName == "" {
		return FundInfo{}, fmt.Errorf("%w: scheme code %s", apperrors.ErrSchemeNotFound, schemeCode)
	}
	if len(response.Data) == 0 {
		return FundInfo{}, fmt.Errorf("%w: no NAV history for scheme %s", apperrors.ErrPriceNotFound, schemeCode)
	}

	nav, err := strconv.ParseFloat(response.Data[0].NAV, 64)
	if err != nil {
		return FundInfo{}, fmt.Errorf("%w: bad NAV %q for scheme %s", apperrors.ErrPriceNotFound, response.Data[0].NAV, schemeCode)
	}

	return FundInfo{
		SchemeCode: schemeCode,
		SchemeName: response.Meta.SchemeName,
		FundHouse:  response.Meta.FundHouse,
		NAV:        nav,
		NAVDate:    response.Data[0].Date,
	}, nil
}

// SearchFunds performs a fuzzy scheme name search against mfapi.in.
//
// Returns:
//   - []FundSearchResult: Matching schemes, possibly empty
//   - error: If the HTTP request or JSON parsing fails
func (c *FundClient) SearchFunds(query string) ([]FundSearchResult, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s", c.baseURL, url.QueryEscape(query))

	resp, err := c.httpClient.Get(endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var results []FundSearchResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, err
	}

	return results, nil
}

// FindFundByName resolves a scheme name to its latest NAV when no scheme code
// is available. It searches mfapi.in and, among the hits, prefers the scheme
// whose name shares the most words with the query; ErrSchemeNotFound when the
// search returns nothing.
func (c *FundClient) FindFundByName(name string) (FundInfo, error) {
	results, err := c.SearchFunds(name)
	if err != nil {
		return FundInfo{}, err
	}
	if len(results) == 0 {
		return FundInfo{}, fmt.Errorf("%w: no search results for %q", apperrors.ErrSchemeNotFound, name)
	}

	best := results[0]
	bestScore := -1
	queryWords := strings.Fields(strings.ToLower(name))
	for _, r := range results {
		candidate := strings.ToLower(r.SchemeName)
		score := 0
		for _, w := range queryWords {
			if strings.Contains(candidate, w) {
				score++
			}
		}
		if score > bestScore {
			best = r
			bestScore = score
		}
	}

	return c.GetFundInfo(strconv.Itoa(best.SchemeCode))
}
