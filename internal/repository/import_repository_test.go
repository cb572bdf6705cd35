package repository_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/portfoliq/holdings-backend/internal/errors"
	"github.com/portfoliq/holdings-backend/internal/model"
	"github.com/portfoliq/holdings-backend/internal/repository"
	"github.com/portfoliq/holdings-backend/internal/testutil"
)

func TestImportRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	repo := repository.NewImportRepository(db)

	record, err := repo.Create(ctx, 1, "holdings.csv", "zerodha_csv")
	if err != nil {
		t.Fatalf("Create() returned unexpected error: %v", err)
	}
	if record.Status != model.ImportStatusProcessing {
		t.Errorf("Expected processing status, got %q", record.Status)
	}

	t.Run("mark success", func(t *testing.T) {
		if err := repo.MarkSuccess(ctx, record.ID, 12); err != nil {
			t.Fatalf("MarkSuccess() returned unexpected error: %v", err)
		}

		records, err := repo.GetRecent(ctx, 10)
		if err != nil {
			t.Fatalf("GetRecent() returned unexpected error: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("Expected 1 record, got %d", len(records))
		}
		if records[0].Status != model.ImportStatusSuccess || records[0].RecordsImported != 12 {
			t.Errorf("Unexpected record after success: %+v", records[0])
		}
	})

	t.Run("mark failed", func(t *testing.T) {
		failed, err := repo.Create(ctx, 1, "broken.csv", "generic_csv")
		if err != nil {
			t.Fatalf("Create() returned unexpected error: %v", err)
		}
		if err := repo.MarkFailed(ctx, failed.ID, "header row not found"); err != nil {
			t.Fatalf("MarkFailed() returned unexpected error: %v", err)
		}

		records, _ := repo.GetRecent(ctx, 10)
		var got *model.ImportRecord
		for i := range records {
			if records[i].ID == failed.ID {
				got = &records[i]
			}
		}
		if got == nil {
			t.Fatal("Failed record not returned by GetRecent")
		}
		if got.Status != model.ImportStatusFailed || got.ErrorMessage != "header row not found" {
			t.Errorf("Unexpected failed record: %+v", got)
		}
	})

	t.Run("status updates require an existing record", func(t *testing.T) {
		if err := repo.MarkSuccess(ctx, "ghost-id", 1); !stderrors.Is(err, errors.ErrImportRecordNotFound) {
			t.Errorf("Expected ErrImportRecordNotFound, got %v", err)
		}
		if err := repo.MarkFailed(ctx, "", "detail"); !stderrors.Is(err, errors.ErrEmptyID) {
			t.Errorf("Expected ErrEmptyID, got %v", err)
		}
	})
}

func TestImportRepository_GetRecentLimit(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	repo := repository.NewImportRepository(db)

	for i := 0; i < 15; i++ {
		if _, err := repo.Create(ctx, 1, "holdings.csv", "zerodha_csv"); err != nil {
			t.Fatalf("Create() returned unexpected error: %v", err)
		}
	}

	t.Run("default limit", func(t *testing.T) {
		records, err := repo.GetRecent(ctx, 0)
		if err != nil {
			t.Fatalf("GetRecent() returned unexpected error: %v", err)
		}
		if len(records) != 10 {
			t.Errorf("Expected default limit 10, got %d", len(records))
		}
	})

	t.Run("explicit limit", func(t *testing.T) {
		records, err := repo.GetRecent(ctx, 3)
		if err != nil {
			t.Fatalf("GetRecent() returned unexpected error: %v", err)
		}
		if len(records) != 3 {
			t.Errorf("Expected 3 records, got %d", len(records))
		}
	})
}
