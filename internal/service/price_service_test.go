package service_test

import (
	"context"
	"testing"

	"github.com/portfoliq/holdings-backend/internal/model"
	"github.com/portfoliq/holdings-backend/internal/repository"
	"github.com/portfoliq/holdings-backend/internal/testutil"
)

// TestPriceService_EnrichAccount tests best-effort price enrichment.
//
// WHY: Enrichment must fill every zero-priced holding it can and silently
// skip the ones it cannot; one bad symbol must never abort the pass.
func TestPriceService_EnrichAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("fills stock and fund prices", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		stocks := testutil.NewMockStockQuoter().WithPrice("RELIANCE", 2600)
		funds := testutil.NewMockFundQuoter().WithNAV("120503", 48.25)
		svc := testutil.NewTestPriceService(t, db, stocks, funds)

		testutil.NewHolding().WithAccount(1).WithSymbol("RELIANCE").
			WithQuantity(10).WithAveragePrice(2400).Unpriced().Build(t, db)
		testutil.NewHolding().WithAccount(1).WithSymbol("Axis Bluechip Fund").
			WithAssetType(model.AssetTypeMutualFund).WithSchemeCode("120503").
			WithQuantity(100).WithAveragePrice(45).Unpriced().Build(t, db)

		updated, err := svc.EnrichAccount(ctx, 1)
		if err != nil {
			t.Fatalf("EnrichAccount() returned unexpected error: %v", err)
		}
		if updated != 2 {
			t.Errorf("Expected 2 holdings updated, got %d", updated)
		}

		holdingRepo := repository.NewHoldingRepository(db)
		stock, _ := holdingRepo.Find(ctx, 1, "RELIANCE", model.AssetTypeStock)
		if stock.CurrentPrice != 2600 || stock.CurrentValue != 26000 {
			t.Errorf("Unexpected stock enrichment: %+v", stock)
		}
		if stock.PNL != 2000 {
			t.Errorf("Expected pnl recomputed to 2000, got %v", stock.PNL)
		}

		fund, _ := holdingRepo.Find(ctx, 1, "Axis Bluechip Fund", model.AssetTypeMutualFund)
		if fund.CurrentPrice != 48.25 {
			t.Errorf("Expected NAV 48.25, got %v", fund.CurrentPrice)
		}
	})

	t.Run("failures are isolated per holding", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		stocks := testutil.NewMockStockQuoter().WithPrice("INFY", 1500)
		svc := testutil.NewTestPriceService(t, db, stocks, testutil.NewMockFundQuoter())

		testutil.NewHolding().WithAccount(1).WithSymbol("UNKNOWNXYZ").Unpriced().Build(t, db)
		testutil.NewHolding().WithAccount(1).WithSymbol("INFY").
			WithQuantity(8).WithAveragePrice(1400).Unpriced().Build(t, db)

		updated, err := svc.EnrichAccount(ctx, 1)
		if err != nil {
			t.Fatalf("EnrichAccount() returned unexpected error: %v", err)
		}
		if updated != 1 {
			t.Errorf("Expected the reachable holding updated despite the failure, got %d", updated)
		}

		holdingRepo := repository.NewHoldingRepository(db)
		h, _ := holdingRepo.Find(ctx, 1, "INFY", model.AssetTypeStock)
		if h.CurrentPrice != 1500 {
			t.Errorf("Expected INFY enriched, got %v", h.CurrentPrice)
		}
	})

	t.Run("fund name search backfills the scheme code", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		funds := testutil.NewMockFundQuoter().
			WithNAV("120503", 48.25).
			WithSearchHit("Axis Bluechip Fund", "120503")
		svc := testutil.NewTestPriceService(t, db, testutil.NewMockStockQuoter(), funds)

		testutil.NewHolding().WithAccount(1).WithSymbol("Axis Bluechip Fund").
			WithAssetType(model.AssetTypeMutualFund).
			WithQuantity(100).WithAveragePrice(45).Unpriced().Build(t, db)

		updated, err := svc.EnrichAccount(ctx, 1)
		if err != nil {
			t.Fatalf("EnrichAccount() returned unexpected error: %v", err)
		}
		if updated != 1 {
			t.Fatalf("Expected 1 holding updated, got %d", updated)
		}

		holdingRepo := repository.NewHoldingRepository(db)
		h, _ := holdingRepo.Find(ctx, 1, "Axis Bluechip Fund", model.AssetTypeMutualFund)
		if h.SchemeCode != "120503" {
			t.Errorf("Expected scheme code backfilled, got %q", h.SchemeCode)
		}
		if h.CurrentPrice != 48.25 {
			t.Errorf("Expected NAV applied, got %v", h.CurrentPrice)
		}
	})

	t.Run("only touches the requested account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		stocks := testutil.NewMockStockQuoter().WithPrice("RELIANCE", 2600)
		svc := testutil.NewTestPriceService(t, db, stocks, testutil.NewMockFundQuoter())

		testutil.NewHolding().WithAccount(1).WithSymbol("RELIANCE").Unpriced().Build(t, db)
		testutil.NewHolding().WithAccount(2).WithSymbol("RELIANCE").Unpriced().Build(t, db)

		if _, err := svc.EnrichAccount(ctx, 1); err != nil {
			t.Fatalf("EnrichAccount() failed: %v", err)
		}

		holdingRepo := repository.NewHoldingRepository(db)
		other, _ := holdingRepo.Find(ctx, 2, "RELIANCE", model.AssetTypeStock)
		if other.CurrentPrice != 0 {
			t.Errorf("Expected account 2 untouched, got price %v", other.CurrentPrice)
		}
	})
}

// TestPriceService_RefreshAll tests the scheduled full refresh.
//
// WHY: Unlike post-import enrichment, the scheduled pass must also replace
// prices that are already set, otherwise holdings keep stale closes forever.
func TestPriceService_RefreshAll(t *testing.T) {
	ctx := context.Background()

	db := testutil.SetupTestDB(t)
	stocks := testutil.NewMockStockQuoter().
		WithPrice("RELIANCE", 2600).
		WithPrice("INFY", 1500)
	svc := testutil.NewTestPriceService(t, db, stocks, testutil.NewMockFundQuoter())

	testutil.NewHolding().WithAccount(1).WithSymbol("RELIANCE").Unpriced().Build(t, db)
	testutil.NewHolding().WithAccount(1).WithSymbol("INFY").
		WithQuantity(8).WithAveragePrice(1400).WithCurrentPrice(1450).Build(t, db)
	testutil.NewHolding().WithAccount(2).WithSymbol("INFY").Unpriced().Build(t, db)

	updated, err := svc.RefreshAll(ctx)
	if err != nil {
		t.Fatalf("RefreshAll() returned unexpected error: %v", err)
	}
	if updated != 3 {
		t.Errorf("Expected 3 holdings refreshed across accounts, got %d", updated)
	}

	holdingRepo := repository.NewHoldingRepository(db)
	stale, _ := holdingRepo.Find(ctx, 1, "INFY", model.AssetTypeStock)
	if stale.CurrentPrice != 1500 {
		t.Errorf("Expected stale price replaced with 1500, got %v", stale.CurrentPrice)
	}
}
