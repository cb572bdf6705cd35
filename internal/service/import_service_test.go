package service_test

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/portfoliq/holdings-backend/internal/errors"
	"github.com/portfoliq/holdings-backend/internal/model"
	"github.com/portfoliq/holdings-backend/internal/parser"
	"github.com/portfoliq/holdings-backend/internal/repository"
	"github.com/portfoliq/holdings-backend/internal/service"
	"github.com/portfoliq/holdings-backend/internal/testutil"
)

func zerodhaCurrentCSV(rows ...string) []byte {
	lines := append([]string{
		"Symbol,Quantity Available,Average Price,Previous Closing Price,Unrealized P&L,Unrealized P&L Pct.",
	}, rows...)
	return []byte(strings.Join(lines, "\n"))
}

func newZerodhaOptions(accountID int64) service.ImportOptions {
	return service.ImportOptions{
		PlatformAccountID: accountID,
		FileName:          "holdings.csv",
		FileType:          "zerodha_csv",
		RecordDiffs:       true,
	}
}

// TestImportService_Import tests the full reconciliation pipeline.
//
// WHY: The insert/update/skip decision per holding is the core contract of the
// import path; these cases pin down each branch plus the idempotence property.
func TestImportService_Import(t *testing.T) {
	ctx := context.Background()
	zerodha := parser.NewZerodhaCSVParser(parser.NewClassifier(parser.DefaultClassifierConfig()))

	t.Run("inserts new holdings", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestImportService(t, db, testutil.NewMockStockQuoter(), testutil.NewMockFundQuoter())

		data := zerodhaCurrentCSV(
			"NIFTYBEES,10,220.5,225.0,45.0,2.04",
			"RELIANCE,5,2400,2500,500,4.17",
		)

		summary, err := svc.Import(ctx, newZerodhaOptions(1), zerodha, data)
		if err != nil {
			t.Fatalf("Import() returned unexpected error: %v", err)
		}

		if summary.ImportedCount != 2 || summary.UpdatedCount != 0 || summary.SkippedCount != 0 {
			t.Errorf("Expected 2/0/0, got %d/%d/%d",
				summary.ImportedCount, summary.UpdatedCount, summary.SkippedCount)
		}

		holdingRepo := repository.NewHoldingRepository(db)
		h, err := holdingRepo.Find(ctx, 1, "NIFTYBEES", model.AssetTypeETF)
		if err != nil {
			t.Fatalf("Find() failed: %v", err)
		}
		if h == nil {
			t.Fatal("Expected NIFTYBEES to be persisted as an ETF")
		}
		if h.CurrentValue != 2250.0 {
			t.Errorf("Expected current value 2250.0, got %v", h.CurrentValue)
		}
	})

	t.Run("second identical import skips everything", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestImportService(t, db, testutil.NewMockStockQuoter(), testutil.NewMockFundQuoter())

		data := zerodhaCurrentCSV(
			"NIFTYBEES,10,220.5,225.0,45.0,2.04",
			"RELIANCE,5,2400,2500,500,4.17",
		)

		first, err := svc.Import(ctx, newZerodhaOptions(1), zerodha, data)
		if err != nil {
			t.Fatalf("first Import() failed: %v", err)
		}

		second, err := svc.Import(ctx, newZerodhaOptions(1), zerodha, data)
		if err != nil {
			t.Fatalf("second Import() failed: %v", err)
		}

		if second.SkippedCount != first.ImportedCount {
			t.Errorf("Expected skipped == first imported (%d), got %d",
				first.ImportedCount, second.SkippedCount)
		}
		if second.ImportedCount != 0 || second.UpdatedCount != 0 {
			t.Errorf("Expected second run to change nothing, got imported=%d updated=%d",
				second.ImportedCount, second.UpdatedCount)
		}
	})

	t.Run("changed values update and record a diff", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestImportService(t, db, testutil.NewMockStockQuoter(), testutil.NewMockFundQuoter())

		if _, err := svc.Import(ctx, newZerodhaOptions(1), zerodha,
			zerodhaCurrentCSV("RELIANCE,5,2400,2500,500,4.17")); err != nil {
			t.Fatalf("seed Import() failed: %v", err)
		}

		summary, err := svc.Import(ctx, newZerodhaOptions(1), zerodha,
			zerodhaCurrentCSV("RELIANCE,8,2450,2500,400,2.0"))
		if err != nil {
			t.Fatalf("Import() failed: %v", err)
		}

		if summary.UpdatedCount != 1 || summary.ImportedCount != 0 || summary.SkippedCount != 0 {
			t.Errorf("Expected 0/1/0, got %d/%d/%d",
				summary.ImportedCount, summary.UpdatedCount, summary.SkippedCount)
		}

		if len(summary.DuplicateDiffs) != 1 {
			t.Fatalf("Expected a duplicate diff, got %d", len(summary.DuplicateDiffs))
		}
		diff := summary.DuplicateDiffs[0]
		if diff.OldQuantity != 5 || diff.NewQuantity != 8 {
			t.Errorf("Unexpected quantity diff: %+v", diff)
		}
		if diff.OldAveragePrice != 2400 || diff.NewAveragePrice != 2450 {
			t.Errorf("Unexpected price diff: %+v", diff)
		}

		holdingRepo := repository.NewHoldingRepository(db)
		h, _ := holdingRepo.Find(ctx, 1, "RELIANCE", model.AssetTypeStock)
		if h == nil || h.Quantity != 8 {
			t.Errorf("Expected persisted quantity 8, got %+v", h)
		}
	})

	t.Run("generic path updates without diffs", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestImportService(t, db, testutil.NewMockStockQuoter(), testutil.NewMockFundQuoter())

		opts := service.ImportOptions{
			PlatformAccountID: 1,
			FileName:          "holdings.csv",
			FileType:          "generic_csv",
		}
		generic := parser.NewGenericCSVParser(parser.NewClassifier(parser.DefaultClassifierConfig()))
		seed := []byte("Symbol,Quantity,Average Price,Current Price\nRELIANCE,5,2400,2500")
		changed := []byte("Symbol,Quantity,Average Price,Current Price\nRELIANCE,8,2450,2500")

		if _, err := svc.Import(ctx, opts, generic, seed); err != nil {
			t.Fatalf("seed Import() failed: %v", err)
		}
		summary, err := svc.Import(ctx, opts, generic, changed)
		if err != nil {
			t.Fatalf("Import() failed: %v", err)
		}

		if summary.UpdatedCount != 1 {
			t.Errorf("Expected 1 update, got %d", summary.UpdatedCount)
		}
		if len(summary.DuplicateDiffs) != 0 {
			t.Errorf("Expected no diffs on the generic path, got %+v", summary.DuplicateDiffs)
		}
	})

	t.Run("same symbol under different asset types coexists", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestImportService(t, db, testutil.NewMockStockQuoter(), testutil.NewMockFundQuoter())

		testutil.NewHolding().WithAccount(1).WithSymbol("GOLDCASE").
			WithAssetType(model.AssetTypeMutualFund).Build(t, db)

		summary, err := svc.Import(ctx, newZerodhaOptions(1), zerodha,
			zerodhaCurrentCSV("GOLDCASE,3,100,110,30,10"))
		if err != nil {
			t.Fatalf("Import() failed: %v", err)
		}

		// The stock row must insert fresh, not touch the fund holding.
		if summary.ImportedCount != 1 || summary.UpdatedCount != 0 {
			t.Errorf("Expected a fresh insert, got imported=%d updated=%d",
				summary.ImportedCount, summary.UpdatedCount)
		}
	})

	t.Run("parse failure marks the import record failed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestImportService(t, db, testutil.NewMockStockQuoter(), testutil.NewMockFundQuoter())

		_, err := svc.Import(ctx, newZerodhaOptions(1), zerodha, nil)
		if !stderrors.Is(err, errors.ErrEmptyFile) {
			t.Fatalf("Expected ErrEmptyFile, got %v", err)
		}

		importRepo := repository.NewImportRepository(db)
		records, err := importRepo.GetRecent(ctx, 10)
		if err != nil {
			t.Fatalf("GetRecent() failed: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("Expected 1 import record, got %d", len(records))
		}
		if records[0].Status != model.ImportStatusFailed {
			t.Errorf("Expected failed status, got %q", records[0].Status)
		}
		if records[0].ErrorMessage == "" {
			t.Error("Expected the parse error to be captured")
		}
	})

	t.Run("successful import marks the record success", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestImportService(t, db, testutil.NewMockStockQuoter(), testutil.NewMockFundQuoter())

		if _, err := svc.Import(ctx, newZerodhaOptions(1), zerodha,
			zerodhaCurrentCSV("RELIANCE,5,2400,2500,500,4.17")); err != nil {
			t.Fatalf("Import() failed: %v", err)
		}

		importRepo := repository.NewImportRepository(db)
		records, _ := importRepo.GetRecent(ctx, 10)
		if len(records) != 1 || records[0].Status != model.ImportStatusSuccess {
			t.Fatalf("Expected a success record, got %+v", records)
		}
		if records[0].RecordsImported != 1 {
			t.Errorf("Expected 1 record imported, got %d", records[0].RecordsImported)
		}
	})

	t.Run("rejects non-positive account IDs", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestImportService(t, db, testutil.NewMockStockQuoter(), testutil.NewMockFundQuoter())

		opts := newZerodhaOptions(0)
		_, err := svc.Import(ctx, opts, zerodha, zerodhaCurrentCSV("RELIANCE,5,2400,2500,500,4.17"))
		if !stderrors.Is(err, errors.ErrInvalidPlatformAccountID) {
			t.Errorf("Expected ErrInvalidPlatformAccountID, got %v", err)
		}
	})

	t.Run("enriches zero-priced holdings after persistence", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		stocks := testutil.NewMockStockQuoter().WithPrice("RELIANCE", 2600)
		svc := testutil.NewTestImportService(t, db, stocks, testutil.NewMockFundQuoter())

		// A demat-style parse yields no prices.
		opts := service.ImportOptions{PlatformAccountID: 1, FileName: "demat.csv", FileType: "generic_csv"}
		generic := parser.NewGenericCSVParser(parser.NewClassifier(parser.DefaultClassifierConfig()))
		data := []byte("Symbol,Quantity,Average Price\nRELIANCE,10,2400")

		summary, err := svc.Import(ctx, opts, generic, data)
		if err != nil {
			t.Fatalf("Import() failed: %v", err)
		}
		if summary.PricesUpdated != 1 {
			t.Errorf("Expected 1 price update, got %d", summary.PricesUpdated)
		}

		holdingRepo := repository.NewHoldingRepository(db)
		h, _ := holdingRepo.Find(ctx, 1, "RELIANCE", model.AssetTypeStock)
		if h == nil {
			t.Fatal("holding missing after import")
		}
		if h.CurrentPrice != 2600 {
			t.Errorf("Expected enriched price 2600, got %v", h.CurrentPrice)
		}
		if h.CurrentValue != 26000 {
			t.Errorf("Expected recomputed current value 26000, got %v", h.CurrentValue)
		}
	})
}
