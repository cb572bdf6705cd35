package errors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrHoldingNotFound indicates that a holding with the given reconciliation key does not exist.
	ErrHoldingNotFound = errors.New("holding not found")

	// ErrImportRecordNotFound indicates that an import record with the given ID does not exist.
	ErrImportRecordNotFound = errors.New("import record not found")

	// ErrSchemeNotFound indicates that a mutual fund scheme lookup returned no results.
	ErrSchemeNotFound = errors.New("mutual fund scheme not found")

	// ErrPriceNotFound indicates that a market price lookup returned no usable quote.
	ErrPriceNotFound = errors.New("price not found")
)

// File format errors represent unrecoverable problems with an uploaded file.
// Parsers wrap these sentinels in a parser.FormatError so callers can match
// with errors.Is while still receiving structured detail.
var (
	// ErrEmptyFile indicates a zero-byte upload or a file with no data rows.
	ErrEmptyFile = errors.New("file is empty")

	// ErrMissingHeader indicates the required columns were never found within
	// the header scan window.
	ErrMissingHeader = errors.New("header row not found")

	// ErrUnmappableColumn indicates the symbol column could not be resolved.
	ErrUnmappableColumn = errors.New("unable to map symbol column")

	// ErrUnsupportedFileType indicates the file extension does not match the
	// chosen upload endpoint.
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

// Business logic errors represent validation failures or constraint violations.
var (
	// ErrEmptyID indicates that a required ID parameter is empty or missing.
	ErrEmptyID = errors.New("ID cannot be empty")

	// ErrInvalidPlatformAccountID indicates the platform_account_id form field
	// is missing or not a positive integer.
	ErrInvalidPlatformAccountID = errors.New("platform account ID is required")
)

// Operation failure errors represent system-level failures when retrieving or
// processing data.
var (
	ErrFailedToRetrieveHoldings      = errors.New("failed to retrieve holdings")
	ErrFailedToRetrieveImportHistory = errors.New("failed to retrieve import history")
	ErrFailedToPersistHoldings       = errors.New("failed to persist holdings")
)
