package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite" // Test Package
)

// SetupTestDB creates an in-memory SQLite database for testing.
// The database is automatically cleaned up when the test completes.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// In-memory database (destroyed when connection closes)
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	// Configure SQLite for testing
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA timezone = 'UTC'",
		"PRAGMA journal_mode = MEMORY", // Faster for tests
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			t.Fatalf("Failed to set pragma: %v", err)
		}
	}

	// Create schema
	if err := createTestSchema(db); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	// Cleanup when test ends
	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// createTestSchema creates all database tables for testing.
// Schema is synchronized with the production migrations.
func createTestSchema(db *sql.DB) error {
	schema := `
		-- Holding table
		CREATE TABLE holding (
			id TEXT PRIMARY KEY,
			platform_account_id INTEGER NOT NULL,
			symbol TEXT NOT NULL,
			exchange TEXT NOT NULL DEFAULT 'NSE',
			asset_type TEXT NOT NULL,
			quantity REAL NOT NULL DEFAULT 0,
			average_price REAL NOT NULL DEFAULT 0,
			current_price REAL NOT NULL DEFAULT 0,
			current_value REAL NOT NULL DEFAULT 0,
			pnl REAL NOT NULL DEFAULT 0,
			pnl_percentage REAL NOT NULL DEFAULT 0,
			isin TEXT,
			scheme_code TEXT,
			last_updated TEXT,
			UNIQUE (platform_account_id, symbol, asset_type)
		);

		CREATE INDEX idx_holding_account ON holding (platform_account_id);

		-- Import record table
		CREATE TABLE import_record (
			id TEXT PRIMARY KEY,
			platform_account_id INTEGER NOT NULL,
			file_name TEXT NOT NULL,
			file_type TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'processing',
			error_message TEXT,
			records_imported INTEGER NOT NULL DEFAULT 0,
			imported_at TEXT NOT NULL
		);

		CREATE INDEX idx_import_record_account ON import_record (platform_account_id);
	`

	_, err := db.Exec(schema)
	return err
}
