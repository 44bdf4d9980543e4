package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"clearbooks/internal/domain"
	"clearbooks/internal/service"
)

// ReconHandler handles reconciliation run endpoints.
type ReconHandler struct {
	reconService service.ReconService
}

// NewReconHandler creates a new ReconHandler.
func NewReconHandler(reconService service.ReconService) *ReconHandler {
	return &ReconHandler{reconService: reconService}
}

// StartRun handles POST /api/v1/recon/runs
func (h *ReconHandler) StartRun(c *gin.Context) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	var input service.StartRunInput
	if err := c.ShouldBindJSON(&input); err != nil && err.Error() != "EOF" {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	run, err := h.reconService.StartRun(c.Request.Context(), orgID, input)
	if err != nil {
		if errors.Is(err, domain.ErrRunInProgress) {
			// The duplicate run is still useful to the caller.
			c.JSON(http.StatusConflict, APIResponse{
				Success: false,
				Data:    run,
				Error:   &APIError{Code: "RUN_IN_PROGRESS", Message: domain.ErrRunInProgress.Error()},
			})
			return
		}
		HandleError(c, err)
		return
	}
	RespondAccepted(c, run)
}

// GetRun handles GET /api/v1/recon/runs/:id
func (h *ReconHandler) GetRun(c *gin.Context) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid run id")
		return
	}

	run, err := h.reconService.GetRun(c.Request.Context(), orgID, runID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, run)
}

// ListRuns handles GET /api/v1/recon/runs
func (h *ReconHandler) ListRuns(c *gin.Context) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	offset, limit := paginationParams(c)
	runs, total, err := h.reconService.ListRuns(c.Request.Context(), orgID, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, runs, PagMeta{Total: total, Offset: offset, Limit: limit})
}
