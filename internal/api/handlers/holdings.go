package handlers

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/portfoliq/holdings-backend/internal/errors"
	"github.com/portfoliq/holdings-backend/internal/service"
)

// HoldingHandler handles holdings-related HTTP requests
type HoldingHandler struct {
	holdingService *service.HoldingService
}

// NewHoldingHandler creates a new HoldingHandler
func NewHoldingHandler(holdingService *service.HoldingService) *HoldingHandler {
	return &HoldingHandler{
		holdingService: holdingService,
	}
}

// Holdings handles GET requests for the holdings of one platform account.
//
// Endpoint: GET /api/holdings?platform_account_id=N
func (h *HoldingHandler) Holdings(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(r.URL.Query().Get("platform_account_id"), 10, 64)
	if err != nil || accountID <= 0 {
		errorResponse := map[string]string{
			"error": "platform_account_id must be a positive integer",
		}
		respondJSON(w, http.StatusBadRequest, errorResponse)
		return
	}

	holdings, err := h.holdingService.GetHoldings(r.Context(), accountID)
	if err != nil {
		if stderrors.Is(err, errors.ErrInvalidPlatformAccountID) {
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		errorResponse := map[string]string{
			"error":  "Failed to retrieve holdings",
			"detail": err.Error(),
		}
		respondJSON(w, http.StatusInternalServerError, errorResponse)
		return
	}

	respondJSON(w, http.StatusOK, holdings)
}

// ImportHistory handles GET requests for recent import records.
//
// Endpoint: GET /api/uploads/history?limit=N
func (h *HoldingHandler) ImportHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondJSON(w, http.StatusBadRequest, map[string]string{
				"error": "limit must be a positive integer",
			})
			return
		}
		limit = parsed
	}

	records, err := h.holdingService.GetImportHistory(r.Context(), limit)
	if err != nil {
		errorResponse := map[string]string{
			"error":  "Failed to retrieve import history",
			"detail": err.Error(),
		}
		respondJSON(w, http.StatusInternalServerError, errorResponse)
		return
	}

	respondJSON(w, http.StatusOK, records)
}
