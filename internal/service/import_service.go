package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/portfoliq/holdings-backend/internal/errors"
	"github.com/portfoliq/holdings-backend/internal/model"
	"github.com/portfoliq/holdings-backend/internal/parser"
	"github.com/portfoliq/holdings-backend/internal/repository"
)

// ImportService runs the holdings reconciliation pipeline: parse an uploaded
// file, match the parsed holdings against the persisted store, and trigger a
// best-effort price enrichment pass afterwards.
//
// Each import call moves through parse, persist and enrich phases in order.
// A parse or persist failure marks the import record failed and returns the
// error; enrichment failures never do.
type ImportService struct {
	db           *sql.DB
	holdingRepo  *repository.HoldingRepository
	importRepo   *repository.ImportRepository
	priceService *PriceService
}

// NewImportService creates a new ImportService with the provided dependencies.
func NewImportService(
	db *sql.DB,
	holdingRepo *repository.HoldingRepository,
	importRepo *repository.ImportRepository,
	priceService *PriceService,
) *ImportService {
	return &ImportService{
		db:           db,
		holdingRepo:  holdingRepo,
		importRepo:   importRepo,
		priceService: priceService,
	}
}

// ImportOptions carries the per-call parameters of one upload.
type ImportOptions struct {
	PlatformAccountID int64
	FileName          string
	FileType          string

	// RecordDiffs enables old-vs-new diff advisories when an update changes
	// an existing holding. The Zerodha upload path sets this; the generic
	// and spreadsheet paths update silently.
	RecordDiffs bool
}

// Import parses the uploaded file with the given parser and reconciles the
// result against the holdings store. Persistence is atomic per batch; any
// write failure rolls back every holding of the upload.
func (s *ImportService) Import(ctx context.Context, opts ImportOptions, p parser.Parser, data []byte) (*model.ImportSummary, error) {
	if opts.PlatformAccountID <= 0 {
		return nil, errors.ErrInvalidPlatformAccountID
	}

	record, err := s.importRepo.Create(ctx, opts.PlatformAccountID, opts.FileName, opts.FileType)
	if err != nil {
		return nil, err
	}

	holdings, warnings, err := p.Parse(opts.FileName, data)
	if err != nil {
		if markErr := s.importRepo.MarkFailed(ctx, record.ID, err.Error()); markErr != nil {
			log.Printf("failed to mark import %s failed: %v", record.ID, markErr)
		}
		return nil, err
	}

	summary, err := s.reconcile(ctx, opts, holdings)
	if err != nil {
		if markErr := s.importRepo.MarkFailed(ctx, record.ID, err.Error()); markErr != nil {
			log.Printf("failed to mark import %s failed: %v", record.ID, markErr)
		}
		return nil, err
	}
	summary.Warnings = append(summary.Warnings, warnings...)

	if err := s.importRepo.MarkSuccess(ctx, record.ID, summary.ImportedCount+summary.UpdatedCount); err != nil {
		log.Printf("failed to mark import %s success: %v", record.ID, err)
	}

	updated, err := s.priceService.EnrichAccount(ctx, opts.PlatformAccountID)
	if err != nil {
		log.Printf("price enrichment failed for account %d: %v", opts.PlatformAccountID, err)
	}
	summary.PricesUpdated = updated

	return summary, nil
}

// reconcile writes one batch of parsed holdings inside a single transaction.
// The reconciliation key is (platform_account_id, symbol, asset_type):
// unseen holdings insert, exact quantity/price matches skip, everything else
// overwrites the stored value fields.
func (s *ImportService) reconcile(ctx context.Context, opts ImportOptions, holdings []model.ParsedHolding) (*model.ImportSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrFailedToPersistHoldings, err)
	}
	defer tx.Rollback()

	repo := s.holdingRepo.WithTx(tx)
	summary := &model.ImportSummary{Warnings: []model.ImportWarning{}}

	for _, parsed := range holdings {
		existing, err := repo.Find(ctx, opts.PlatformAccountID, parsed.Symbol, parsed.AssetType)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrFailedToPersistHoldings, err)
		}

		if existing == nil {
			h := newHolding(opts.PlatformAccountID, parsed)
			if err := repo.Insert(ctx, &h); err != nil {
				return nil, fmt.Errorf("%w: %v", errors.ErrFailedToPersistHoldings, err)
			}
			summary.ImportedCount++
			continue
		}

		if existing.Quantity == parsed.Quantity && existing.AveragePrice == parsed.AveragePrice {
			summary.SkippedCount++
			continue
		}

		if opts.RecordDiffs {
			summary.DuplicateDiffs = append(summary.DuplicateDiffs, model.DuplicateDiff{
				Symbol:          parsed.Symbol,
				OldQuantity:     existing.Quantity,
				NewQuantity:     parsed.Quantity,
				OldAveragePrice: existing.AveragePrice,
				NewAveragePrice: parsed.AveragePrice,
			})
		}

		existing.Quantity = parsed.Quantity
		existing.AveragePrice = parsed.AveragePrice
		existing.CurrentPrice = parsed.CurrentPrice
		existing.CurrentValue = parsed.CurrentValue
		existing.PNL = parsed.PNL
		existing.PNLPercentage = parsed.PNLPercentage
		if parsed.ISIN != "" {
			existing.ISIN = parsed.ISIN
		}
		if parsed.SchemeCode != "" {
			existing.SchemeCode = parsed.SchemeCode
		}

		if err := repo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrFailedToPersistHoldings, err)
		}
		summary.UpdatedCount++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrFailedToPersistHoldings, err)
	}

	return summary, nil
}

func newHolding(platformAccountID int64, parsed model.ParsedHolding) model.Holding {
	return model.Holding{
		PlatformAccountID: platformAccountID,
		Symbol:            parsed.Symbol,
		Exchange:          parsed.Exchange,
		AssetType:         parsed.AssetType,
		Quantity:          parsed.Quantity,
		AveragePrice:      parsed.AveragePrice,
		CurrentPrice:      parsed.CurrentPrice,
		CurrentValue:      parsed.CurrentValue,
		PNL:               parsed.PNL,
		PNLPercentage:     parsed.PNLPercentage,
		ISIN:              parsed.ISIN,
		SchemeCode:        parsed.SchemeCode,
	}
}
