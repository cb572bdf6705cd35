package model

import "time"

// ImportStatus tracks the lifecycle of one import call.
type ImportStatus string

const (
	ImportStatusProcessing ImportStatus = "processing"
	ImportStatusSuccess    ImportStatus = "success"
	ImportStatusFailed     ImportStatus = "failed"
)

// ImportRecord is the persisted audit entry for one file upload.
type ImportRecord struct {
	ID                string       `json:"id"`
	PlatformAccountID int64        `json:"platformAccountId"`
	FileName          string       `json:"fileName"`
	FileType          string       `json:"fileType"`
	Status            ImportStatus `json:"status"`
	ErrorMessage      string       `json:"errorMessage,omitempty"`
	RecordsImported   int          `json:"recordsImported"`
	ImportedAt        time.Time    `json:"importedAt"`
}
