package parser

import (
	"regexp"
	"strings"

	"github.com/portfoliq/holdings-backend/internal/model"
)

// ClassifierConfig holds the rule data the symbol classifier runs on: symbol
// remap tables and the static ETF allowlist. The tables are configuration, not
// code, so they can be swapped or extended in tests without touching the
// classification logic.
type ClassifierConfig struct {
	// CompanyRemap maps exported company names to their exchange ticker for
	// companies whose export name differs from the listed symbol.
	CompanyRemap map[string]string

	// ETFSymbolRemap maps broker-internal ETF codes (mostly *INAV variants) to
	// the canonical exchange symbol.
	ETFSymbolRemap map[string]string

	// KnownETFs lists symbols that are ETFs despite carrying no ETF marker in
	// their name.
	KnownETFs map[string]bool

	// ETFISINSeries are the 10th-11th characters of INF-prefixed ISINs that
	// identify ETF series.
	ETFISINSeries map[string]bool
}

// DefaultClassifierConfig returns the rule tables observed across Zerodha and
// registrar exports.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		CompanyRemap: map[string]string{
			"ColgatePalmolive":     "COLPAL",
			"HDFCBank":             "HDFCBANK",
			"LarsenToubro":         "LT",
			"Pidilite":             "PIDILITIND",
			"HCLTechnologies":      "HCLTECH",
			"APLApolloTubes":       "APLAPOLLO",
			"AsianPaints":          "ASIANPAINT",
			"CochinShipyard":       "COCHINSHIP",
			"CEInfosystem":         "MAPMYINDIA",
			"SupremeIndustries":    "SUPREMEIND",
			"AshokLeyland":         "ASHOKLEY",
			"JioFinancialServices": "JIOFIN",
			"IDFCFirstBank":        "IDFCFIRSTB",
			"DeltaCorp":            "DELTACORP",
			"Infosys":              "INFY",
		},
		ETFSymbolRemap: map[string]string{
			"MAFSETFINAV":    "MAFSETF",
			"MOM100INAV":     "MOM100",
			"SETFNIF50":      "SETFNN50",
			"LIQUIDBEESINAV": "LIQUIDBEES",
			"GOLDBEESINAV":   "GOLDBEES",
			"NIFTYBEESINAV":  "NIFTYBEES",
			"BANKBEESINAV":   "BANKBEES",
			"JUNIORBEESINAV": "JUNIORBEES",
		},
		KnownETFs: map[string]bool{
			"MAFSETFINAV": true,
			"NIFTYBEES":   true,
			"BANKBEES":    true,
			"GOLDBEES":    true,
			"JUNIORBEES":  true,
			"LIQUIDBEES":  true,
			"NIFTYIWIN":   true,
			"ICICIB22":    true,
			"SETFNIFBK":   true,
			"SETFNIF50":   true,
			"SETFNIFTY":   true,
			"SETFNN50":    true,
		},
		ETFISINSeries: map[string]bool{
			"01": true, "H1": true, "K1": true, "L1": true,
			"M1": true, "N1": true, "P1": true, "Q1": true,
			"R1": true, "S1": true, "T1": true,
		},
	}
}

// Classifier normalizes raw symbol text and assigns an asset type via an
// ordered rule list. Rule order is significant: REIT is checked before ETF, so
// a symbol containing both "REIT" and "ETF" classifies as REIT.
type Classifier struct {
	cfg ClassifierConfig
}

// NewClassifier creates a Classifier running on the provided rule tables.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

var exchangeSuffixRe = regexp.MustCompile(`(?i)\.(NS|BO|NSE|BSE)$`)

// Normalize cleans a raw symbol: strips a trailing exchange suffix, removes
// spaces, '&' and '.', then applies the company-name and ETF-code remap tables.
func (c *Classifier) Normalize(raw string) string {
	symbol := strings.TrimSpace(raw)
	symbol = exchangeSuffixRe.ReplaceAllString(symbol, "")
	symbol = strings.NewReplacer(" ", "", "&", "", ".", "").Replace(symbol)

	if mapped, ok := c.cfg.CompanyRemap[symbol]; ok {
		symbol = mapped
	}
	if mapped, ok := c.cfg.ETFSymbolRemap[symbol]; ok {
		symbol = mapped
	}
	return symbol
}

// Classify assigns an asset type to a cleaned symbol. The ISIN is optional and
// only consulted for the ETF series check.
func (c *Classifier) Classify(symbol, isin string) model.AssetType {
	upper := strings.ToUpper(symbol)

	switch {
	case c.isREIT(upper):
		return model.AssetTypeREIT
	case c.isSGB(upper):
		return model.AssetTypeSGB
	case c.isETF(upper, isin):
		return model.AssetTypeETF
	default:
		return model.AssetTypeStock
	}
}

// NormalizeAndClassify is the combined entry point used by the parsers.
func (c *Classifier) NormalizeAndClassify(raw, isin string) (string, model.AssetType) {
	symbol := c.Normalize(raw)
	return symbol, c.Classify(symbol, isin)
}

func (c *Classifier) isREIT(upper string) bool {
	return strings.Contains(upper, "REIT") ||
		strings.HasSuffix(upper, "-RR") ||
		strings.HasSuffix(upper, "-RT")
}

func (c *Classifier) isSGB(upper string) bool {
	return strings.Contains(upper, "SGB")
}

func (c *Classifier) isETF(upper, isin string) bool {
	if strings.HasSuffix(upper, "BEES") ||
		strings.HasSuffix(upper, "NAV") ||
		strings.HasSuffix(upper, "INAV") ||
		strings.Contains(upper, "ETF") {
		return true
	}
	if c.cfg.KnownETFs[upper] {
		return true
	}
	if isin != "" && strings.HasPrefix(isin, "INF") && len(isin) == 12 {
		return c.cfg.ETFISINSeries[isin[9:11]]
	}
	return false
}
