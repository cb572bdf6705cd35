package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/portfoliq/holdings-backend/internal/model"
	"github.com/portfoliq/holdings-backend/internal/parser"
	"github.com/portfoliq/holdings-backend/internal/testutil"
)

func setupUploadHandler(t *testing.T) *UploadHandler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestImportService(t, db, testutil.NewMockStockQuoter(), testutil.NewMockFundQuoter())
	classifier := parser.NewClassifier(parser.DefaultClassifierConfig())
	return NewUploadHandler(svc, classifier)
}

func multipartUpload(t *testing.T, accountID, filename, content string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if accountID != "" {
		if err := writer.WriteField("platform_account_id", accountID); err != nil {
			t.Fatalf("Failed to write form field: %v", err)
		}
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write file content: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestUploadHandler_ZerodhaHoldings(t *testing.T) {
	csvContent := strings.Join([]string{
		"Symbol,Quantity Available,Average Price,Previous Closing Price,Unrealized P&L,Unrealized P&L Pct.",
		"NIFTYBEES,10,220.5,225.0,45.0,2.04",
	}, "\n")

	t.Run("accepts a valid upload", func(t *testing.T) {
		handler := setupUploadHandler(t)
		body, contentType := multipartUpload(t, "1", "holdings.csv", csvContent)

		req := httptest.NewRequest(http.MethodPost, "/api/uploads/zerodha/holdings", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		handler.ZerodhaHoldings(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var summary model.ImportSummary
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&summary)

		if summary.ImportedCount != 1 {
			t.Errorf("Expected 1 imported, got %d", summary.ImportedCount)
		}
	})

	t.Run("rejects a missing account ID", func(t *testing.T) {
		handler := setupUploadHandler(t)
		body, contentType := multipartUpload(t, "", "holdings.csv", csvContent)

		req := httptest.NewRequest(http.MethodPost, "/api/uploads/zerodha/holdings", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		handler.ZerodhaHoldings(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})

	t.Run("rejects a missing file", func(t *testing.T) {
		handler := setupUploadHandler(t)
		body, contentType := multipartUpload(t, "1", "", "")

		req := httptest.NewRequest(http.MethodPost, "/api/uploads/zerodha/holdings", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		handler.ZerodhaHoldings(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})

	t.Run("format errors map to 400 with structured detail", func(t *testing.T) {
		handler := setupUploadHandler(t)
		body, contentType := multipartUpload(t, "1", "holdings.csv", "Symbol,Something\nRELIANCE,1")

		req := httptest.NewRequest(http.MethodPost, "/api/uploads/zerodha/holdings", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		handler.ZerodhaHoldings(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}

		var response map[string]string
		//nolint:errcheck // Test assertion
		json.NewDecoder(w.Body).Decode(&response)
		if response["error"] == "" || response["detail"] == "" {
			t.Errorf("Expected structured error and detail, got %v", response)
		}
	})
}

func TestUploadHandler_GenericHoldings(t *testing.T) {
	handler := setupUploadHandler(t)

	csvContent := "Scrip Name,No. of Shares,Avg Price\nRELIANCE,10,2400"
	body, contentType := multipartUpload(t, "1", "export.csv", csvContent)

	req := httptest.NewRequest(http.MethodPost, "/api/uploads/generic/holdings", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	handler.GenericHoldings(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var summary model.ImportSummary
	//nolint:errcheck // Test assertion
	json.NewDecoder(w.Body).Decode(&summary)
	if summary.ImportedCount != 1 {
		t.Errorf("Expected 1 imported, got %d", summary.ImportedCount)
	}
}
