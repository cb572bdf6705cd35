package marketdata

// chartResponse represents the raw JSON response structure from the Yahoo
// Finance chart API: an array of result objects carrying symbol metadata,
// Unix timestamps and parallel price arrays, plus an optional error string.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency     string `json:"currency"`
				Symbol       string `json:"symbol"`
				ExchangeName string `json:"exchangeName"`
				LongName     string `json:"longName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *string `json:"error"`
	} `json:"chart"`
}

// Quote is the application's view of one stock or ETF price lookup.
type Quote struct {
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Currency     string  `json:"currency"`
	CurrentPrice float64 `json:"currentPrice"`
}

// fundResponse represents the raw mfapi.in scheme response: scheme metadata
// plus NAV history, newest first.
type fundResponse struct {
	Meta struct {
		SchemeCode     int    `json:"scheme_code"`
		SchemeName     string `json:"scheme_name"`
		FundHouse      string `json:"fund_house"`
		SchemeType     string `json:"scheme_type"`
		SchemeCategory string `json:"scheme_category"`
	} `json:"meta"`
	Data []struct {
		Date string `json:"date"`
		NAV  string `json:"nav"`
	} `json:"data"`
}

// FundInfo is the application's view of one mutual fund scheme lookup.
type FundInfo struct {
	SchemeCode string  `json:"schemeCode"`
	SchemeName string  `json:"schemeName"`
	FundHouse  string  `json:"fundHouse"`
	NAV        float64 `json:"nav"`
	NAVDate    string  `json:"navDate"`
}

// FundSearchResult is one hit from the mfapi.in fuzzy name search.
type FundSearchResult struct {
	SchemeCode int    `json:"schemeCode"`
	SchemeName string `json:"schemeName"`
}
