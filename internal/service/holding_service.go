package service

import (
	"context"
	"fmt"

	"github.com/portfoliq/holdings-backend/internal/errors"
	"github.com/portfoliq/holdings-backend/internal/model"
	"github.com/portfoliq/holdings-backend/internal/repository"
)

// HoldingService handles holdings read operations.
type HoldingService struct {
	holdingRepo *repository.HoldingRepository
	importRepo  *repository.ImportRepository
}

// NewHoldingService creates a new HoldingService with the provided repository dependencies.
func NewHoldingService(
	holdingRepo *repository.HoldingRepository, importRepo *repository.ImportRepository,
) *HoldingService {
	return &HoldingService{
		holdingRepo: holdingRepo,
		importRepo:  importRepo,
	}
}

// GetHoldings retrieves all holdings of a platform account, ordered by symbol.
func (s *HoldingService) GetHoldings(ctx context.Context, platformAccountID int64) ([]model.Holding, error) {
	if platformAccountID <= 0 {
		return nil, errors.ErrInvalidPlatformAccountID
	}

	holdings, err := s.holdingRepo.GetByAccount(ctx, platformAccountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrFailedToRetrieveHoldings, err)
	}
	return holdings, nil
}

// GetImportHistory retrieves the most recent import records, newest first.
func (s *HoldingService) GetImportHistory(ctx context.Context, limit int) ([]model.ImportRecord, error) {
	records, err := s.importRepo.GetRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrFailedToRetrieveImportHistory, err)
	}
	return records, nil
}
