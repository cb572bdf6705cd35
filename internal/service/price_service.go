package service

import (
	"context"
	"fmt"
	"log"

	"github.com/portfoliq/holdings-backend/internal/marketdata"
	"github.com/portfoliq/holdings-backend/internal/model"
	"github.com/portfoliq/holdings-backend/internal/pricecache"
	"github.com/portfoliq/holdings-backend/internal/repository"
)

// StockQuoter fetches the latest price for an exchange-listed instrument.
type StockQuoter interface {
	GetQuote(symbol, exchange string) (marketdata.Quote, error)
}

// FundQuoter fetches mutual fund NAVs, by scheme code or by name search.
type FundQuoter interface {
	GetFundInfo(schemeCode string) (marketdata.FundInfo, error)
	FindFundByName(name string) (marketdata.FundInfo, error)
}

// PriceService handles market price enrichment: finding holdings with an
// unknown price and filling them in from the market data collaborators.
// Lookups go through a TTL cache so repeated symbols cost one network call.
type PriceService struct {
	holdingRepo *repository.HoldingRepository
	stocks      StockQuoter
	funds       FundQuoter
	cache       *pricecache.Cache
}

// NewPriceService creates a new PriceService with the provided dependencies.
func NewPriceService(
	holdingRepo *repository.HoldingRepository,
	stocks StockQuoter,
	funds FundQuoter,
	cache *pricecache.Cache,
) *PriceService {
	return &PriceService{
		holdingRepo: holdingRepo,
		stocks:      stocks,
		funds:       funds,
		cache:       cache,
	}
}

// EnrichAccount looks up prices for every holding of the platform account
// whose current price is unknown, and persists the refreshed value fields.
// Each holding's lookup failure is logged and skipped; one bad symbol never
// aborts the rest of the pass. Returns the number of holdings updated.
func (s *PriceService) EnrichAccount(ctx context.Context, platformAccountID int64) (int, error) {
	holdings, err := s.holdingRepo.GetUnpriced(ctx, platformAccountID)
	if err != nil {
		return 0, err
	}
	return s.refreshHoldings(ctx, holdings), nil
}

// RefreshAll re-fetches the price of every holding across every platform
// account, priced or not, so yesterday's closes do not linger. Driven by the
// cron scheduler.
func (s *PriceService) RefreshAll(ctx context.Context) (int, error) {
	accountIDs, err := s.holdingRepo.GetAccountIDs(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, id := range accountIDs {
		holdings, err := s.holdingRepo.GetByAccount(ctx, id)
		if err != nil {
			log.Printf("price refresh failed for account %d: %v", id, err)
			continue
		}
		total += s.refreshHoldings(ctx, holdings)
	}

	return total, nil
}

// refreshHoldings looks up and persists a fresh price for each holding,
// skipping individual failures. Returns the number of holdings updated.
func (s *PriceService) refreshHoldings(ctx context.Context, holdings []model.Holding) int {
	updated := 0
	for i := range holdings {
		h := &holdings[i]

		price, err := s.lookupPrice(h)
		if err != nil {
			log.Printf("price lookup failed for %s (%s): %v", h.Symbol, h.AssetType, err)
			continue
		}

		applyPrice(h, price)
		if err := s.holdingRepo.Update(ctx, h); err != nil {
			log.Printf("failed to save refreshed price for %s: %v", h.Symbol, err)
			continue
		}
		updated++
	}
	return updated
}

// lookupPrice resolves the current price of one holding through the cache.
// Mutual funds resolve by scheme code, falling back to a name search when no
// code is stored; a name-search hit backfills the holding's scheme code.
// Everything else resolves through the stock quote path.
func (s *PriceService) lookupPrice(h *model.Holding) (float64, error) {
	if h.AssetType == model.AssetTypeMutualFund {
		if h.SchemeCode != "" {
			return s.cache.GetOrFetch("mf:"+h.SchemeCode, func() (float64, error) {
				info, err := s.funds.GetFundInfo(h.SchemeCode)
				if err != nil {
					return 0, err
				}
				return info.NAV, nil
			})
		}

		info, err := s.funds.FindFundByName(h.Symbol)
		if err != nil {
			return 0, err
		}
		h.SchemeCode = info.SchemeCode
		s.cache.Put("mf:"+info.SchemeCode, info.NAV)
		return info.NAV, nil
	}

	ticker := marketdata.TickerForExchange(h.Symbol, h.Exchange)
	return s.cache.GetOrFetch(ticker, func() (float64, error) {
		quote, err := s.stocks.GetQuote(h.Symbol, h.Exchange)
		if err != nil {
			return 0, err
		}
		if quote.CurrentPrice <= 0 {
			return 0, fmt.Errorf("no usable price for %s", ticker)
		}
		return quote.CurrentPrice, nil
	})
}

// applyPrice sets the current price on a holding and recomputes the derived
// value fields from it.
func applyPrice(h *model.Holding, price float64) {
	h.CurrentPrice = price
	h.CurrentValue = h.Quantity * price
	if h.AveragePrice > 0 {
		h.PNL = h.CurrentValue - h.Quantity*h.AveragePrice
		if h.Quantity > 0 {
			h.PNLPercentage = h.PNL / (h.Quantity * h.AveragePrice) * 100
		}
	}
}
