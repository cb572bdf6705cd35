package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/portfoliq/holdings-backend/internal/errors"
	"github.com/portfoliq/holdings-backend/internal/model"
)

// HoldingRepository provides data access methods for the holding table.
// Reads and writes are scoped per platform account; the reconciliation key is
// (platform_account_id, symbol, asset_type).
type HoldingRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewHoldingRepository creates a new HoldingRepository with the provided database connection.
func NewHoldingRepository(db *sql.DB) *HoldingRepository {
	return &HoldingRepository{db: db}
}

// WithTx returns a copy of the repository that executes writes inside the
// provided transaction. Used by the import service so one batch of holdings
// persists atomically.
func (r *HoldingRepository) WithTx(tx *sql.Tx) *HoldingRepository {
	return &HoldingRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *HoldingRepository) getQuerier() interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const holdingColumns = `id, platform_account_id, symbol, exchange, asset_type,
		quantity, average_price, current_price, current_value, pnl, pnl_percentage,
		isin, scheme_code, last_updated`

// Find retrieves the holding matching the reconciliation key.
// Returns nil, nil when no holding matches.
func (r *HoldingRepository) Find(ctx context.Context, platformAccountID int64, symbol string, assetType model.AssetType) (*model.Holding, error) {
	query := `
		SELECT ` + holdingColumns + `
		FROM holding
		WHERE platform_account_id = ? AND symbol = ? AND asset_type = ?
	`

	h, err := scanHolding(r.getQuerier().QueryRowContext(ctx, query, platformAccountID, symbol, string(assetType)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query holding table: %w", err)
	}
	return h, nil
}

// GetByAccount retrieves all holdings of a platform account.
// Returns an empty slice if the account holds nothing.
func (r *HoldingRepository) GetByAccount(ctx context.Context, platformAccountID int64) ([]model.Holding, error) {
	query := `
		SELECT ` + holdingColumns + `
		FROM holding
		WHERE platform_account_id = ?
		ORDER BY symbol ASC
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, platformAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holding table: %w", err)
	}
	defer rows.Close()

	holdings := []model.Holding{}
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding table results: %w", err)
		}
		holdings = append(holdings, *h)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holding table: %w", err)
	}

	return holdings, nil
}

// GetUnpriced retrieves the holdings of a platform account whose current
// price is unknown (stored as 0). These are the candidates for the price
// enrichment pass.
func (r *HoldingRepository) GetUnpriced(ctx context.Context, platformAccountID int64) ([]model.Holding, error) {
	query := `
		SELECT ` + holdingColumns + `
		FROM holding
		WHERE platform_account_id = ? AND current_price = 0
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, platformAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holding table: %w", err)
	}
	defer rows.Close()

	holdings := []model.Holding{}
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding table results: %w", err)
		}
		holdings = append(holdings, *h)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holding table: %w", err)
	}

	return holdings, nil
}

// GetAccountIDs retrieves the distinct platform account IDs present in the
// holding table. Used by the scheduled price refresh to walk all accounts.
func (r *HoldingRepository) GetAccountIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.getQuerier().QueryContext(ctx, `SELECT DISTINCT platform_account_id FROM holding`)
	if err != nil {
		return nil, fmt.Errorf("failed to query holding table: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan holding table results: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holding table: %w", err)
	}

	return ids, nil
}

// Insert persists a new holding and returns its generated ID.
func (r *HoldingRepository) Insert(ctx context.Context, h *model.Holding) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	if h.LastUpdated.IsZero() {
		h.LastUpdated = time.Now().UTC()
	}

	query := `
		INSERT INTO holding (id, platform_account_id, symbol, exchange, asset_type,
			quantity, average_price, current_price, current_value, pnl, pnl_percentage,
			isin, scheme_code, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		h.ID,
		h.PlatformAccountID,
		h.Symbol,
		h.Exchange,
		string(h.AssetType),
		h.Quantity,
		h.AveragePrice,
		h.CurrentPrice,
		h.CurrentValue,
		h.PNL,
		h.PNLPercentage,
		nullableString(h.ISIN),
		nullableString(h.SchemeCode),
		h.LastUpdated.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert holding: %w", err)
	}

	return nil
}

// Update overwrites the value fields of an existing holding.
func (r *HoldingRepository) Update(ctx context.Context, h *model.Holding) error {
	query := `
		UPDATE holding
		SET quantity = ?, average_price = ?, current_price = ?, current_value = ?,
			pnl = ?, pnl_percentage = ?, isin = ?, scheme_code = ?, last_updated = ?
		WHERE id = ?
	`

	result, err := r.getQuerier().ExecContext(ctx, query,
		h.Quantity,
		h.AveragePrice,
		h.CurrentPrice,
		h.CurrentValue,
		h.PNL,
		h.PNLPercentage,
		nullableString(h.ISIN),
		nullableString(h.SchemeCode),
		time.Now().UTC().Format(time.RFC3339),
		h.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return errors.ErrHoldingNotFound
	}

	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanHolding(row scanner) (*model.Holding, error) {
	var h model.Holding
	var assetType string
	var isin, schemeCode, lastUpdated sql.NullString

	err := row.Scan(
		&h.ID,
		&h.PlatformAccountID,
		&h.Symbol,
		&h.Exchange,
		&assetType,
		&h.Quantity,
		&h.AveragePrice,
		&h.CurrentPrice,
		&h.CurrentValue,
		&h.PNL,
		&h.PNLPercentage,
		&isin,
		&schemeCode,
		&lastUpdated,
	)
	if err != nil {
		return nil, err
	}

	h.AssetType = model.AssetType(assetType)
	if isin.Valid {
		h.ISIN = isin.String
	}
	if schemeCode.Valid {
		h.SchemeCode = schemeCode.String
	}
	if lastUpdated.Valid {
		h.LastUpdated, err = ParseTime(lastUpdated.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}
	}

	return &h, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
