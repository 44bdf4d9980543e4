package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"clearbooks/internal/domain"
	"clearbooks/internal/service"
)

// ReviewHandler handles match and discrepancy review endpoints.
type ReviewHandler struct {
	reviewService service.ReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// ListPendingMatches handles GET /api/v1/reviews/matches
func (h *ReviewHandler) ListPendingMatches(c *gin.Context) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	offset, limit := paginationParams(c)
	matches, total, err := h.reviewService.ListPendingMatches(c.Request.Context(), orgID, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, matches, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// ConfirmMatch handles POST /api/v1/reviews/matches/:id/confirm
func (h *ReviewHandler) ConfirmMatch(c *gin.Context) {
	orgID, userID, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	matchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid match id")
		return
	}

	m, err := h.reviewService.ConfirmMatch(c.Request.Context(), orgID, matchID, userID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, m)
}

// RejectMatch handles POST /api/v1/reviews/matches/:id/reject
func (h *ReviewHandler) RejectMatch(c *gin.Context) {
	orgID, userID, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	matchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid match id")
		return
	}

	m, err := h.reviewService.RejectMatch(c.Request.Context(), orgID, matchID, userID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, m)
}

// ListOpenDiscrepancies handles GET /api/v1/reviews/discrepancies
func (h *ReviewHandler) ListOpenDiscrepancies(c *gin.Context) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	offset, limit := paginationParams(c)
	discs, total, err := h.reviewService.ListOpenDiscrepancies(c.Request.Context(), orgID, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, discs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

type resolveDiscrepancyRequest struct {
	Outcome string `json:"outcome" binding:"required,oneof=resolved ignored"`
}

// ResolveDiscrepancy handles POST /api/v1/reviews/discrepancies/:id/resolve
func (h *ReviewHandler) ResolveDiscrepancy(c *gin.Context) {
	orgID, userID, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	discID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid discrepancy id")
		return
	}

	var req resolveDiscrepancyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "outcome must be resolved or ignored")
		return
	}

	d, err := h.reviewService.ResolveDiscrepancy(c.Request.Context(), orgID, discID, userID, domain.DiscrepancyState(req.Outcome))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, d)
}
