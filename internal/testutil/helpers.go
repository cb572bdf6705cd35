package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/portfoliq/holdings-backend/internal/pricecache"
	"github.com/portfoliq/holdings-backend/internal/repository"
	"github.com/portfoliq/holdings-backend/internal/service"
)

// NewTestPriceService wires a PriceService with the provided market data
// mocks and a short-lived cache.
func NewTestPriceService(t *testing.T, db *sql.DB, stocks *MockStockQuoter, funds *MockFundQuoter) *service.PriceService {
	t.Helper()

	holdingRepo := repository.NewHoldingRepository(db)

	return service.NewPriceService(
		holdingRepo,
		stocks,
		funds,
		pricecache.New(time.Minute),
	)
}

// NewTestImportService wires an ImportService against the test database with
// mocked market data collaborators.
func NewTestImportService(t *testing.T, db *sql.DB, stocks *MockStockQuoter, funds *MockFundQuoter) *service.ImportService {
	t.Helper()

	holdingRepo := repository.NewHoldingRepository(db)
	importRepo := repository.NewImportRepository(db)
	priceService := NewTestPriceService(t, db, stocks, funds)

	return service.NewImportService(
		db,
		holdingRepo,
		importRepo,
		priceService,
	)
}

// NewTestHoldingService wires a HoldingService against the test database.
func NewTestHoldingService(t *testing.T, db *sql.DB) *service.HoldingService {
	t.Helper()

	holdingRepo := repository.NewHoldingRepository(db)
	importRepo := repository.NewImportRepository(db)

	return service.NewHoldingService(holdingRepo, importRepo)
}

// NewTestSystemService wires a SystemService against the test database.
func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db)
}
