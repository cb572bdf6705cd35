package handlers

import (
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/portfoliq/holdings-backend/internal/errors"
	"github.com/portfoliq/holdings-backend/internal/parser"
	"github.com/portfoliq/holdings-backend/internal/service"
)

// maxUploadBytes bounds how much of an upload is read into memory. Broker
// exports are small; anything bigger is not a holdings file.
const maxUploadBytes = 32 << 20

// UploadHandler handles holdings file upload HTTP requests. Each endpoint
// pairs one parser with the shared import pipeline.
type UploadHandler struct {
	importService *service.ImportService
	zerodha       *parser.ZerodhaCSVParser
	generic       *parser.GenericCSVParser
	excel         *parser.ExcelParser
	pdf           *parser.PDFParser
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(importService *service.ImportService, classifier *parser.Classifier) *UploadHandler {
	return &UploadHandler{
		importService: importService,
		zerodha:       parser.NewZerodhaCSVParser(classifier),
		generic:       parser.NewGenericCSVParser(classifier),
		excel:         parser.NewExcelParser(classifier),
		pdf:           parser.NewPDFParser(),
	}
}

// ZerodhaHoldings handles POST requests with a Zerodha CSV holdings export.
// Updates to existing holdings report old-vs-new diffs in the response.
//
// Endpoint: POST /api/uploads/zerodha/holdings
func (h *UploadHandler) ZerodhaHoldings(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, h.zerodha, "zerodha_csv", true)
}

// GenericHoldings handles POST requests with a CSV in an arbitrary broker
// schema, resolved by column auto-mapping.
//
// Endpoint: POST /api/uploads/generic/holdings
func (h *UploadHandler) GenericHoldings(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, h.generic, "generic_csv", false)
}

// ExcelHoldings handles POST requests with a multi-sheet Excel workbook.
//
// Endpoint: POST /api/uploads/excel/holdings
func (h *UploadHandler) ExcelHoldings(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, h.excel, "excel", false)
}

// PDFHoldings handles POST requests with a PDF account or fund statement.
//
// Endpoint: POST /api/uploads/pdf/holdings
func (h *UploadHandler) PDFHoldings(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, h.pdf, "pdf", false)
}

// upload is the shared multipart handling for every upload endpoint: read the
// file fully into memory, then hand it to the import pipeline.
func (h *UploadHandler) upload(w http.ResponseWriter, r *http.Request, p parser.Parser, fileType string, recordDiffs bool) {
	accountID, err := strconv.ParseInt(r.FormValue("platform_account_id"), 10, 64)
	if err != nil || accountID <= 0 {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": errors.ErrInvalidPlatformAccountID.Error(),
		})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "a file upload is required in the 'file' form field",
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error":  "failed to read uploaded file",
			"detail": err.Error(),
		})
		return
	}

	summary, err := h.importService.Import(r.Context(), service.ImportOptions{
		PlatformAccountID: accountID,
		FileName:          header.Filename,
		FileType:          fileType,
		RecordDiffs:       recordDiffs,
	}, p, data)
	if err != nil {
		status, payload := classifyImportError(err)
		respondJSON(w, status, payload)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// classifyImportError maps pipeline failures to HTTP statuses: file-format
// problems and bad parameters are the caller's fault, everything else is ours.
func classifyImportError(err error) (int, map[string]string) {
	var formatErr *parser.FormatError
	if stderrors.As(err, &formatErr) {
		return http.StatusBadRequest, map[string]string{
			"error":  formatErr.Kind.Error(),
			"detail": formatErr.Detail,
		}
	}
	if stderrors.Is(err, errors.ErrInvalidPlatformAccountID) {
		return http.StatusBadRequest, map[string]string{"error": err.Error()}
	}
	return http.StatusInternalServerError, map[string]string{
		"error":  "Failed to process upload",
		"detail": err.Error(),
	}
}
