package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"clearbooks/internal/domain"
	"clearbooks/internal/handler"
	"clearbooks/internal/middleware"
	"clearbooks/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// authedRouter wires the handler behind a stub that injects auth context the
// way AuthMiddleware would.
func authedRouter(orgID, userID uuid.UUID, h *handler.ReviewHandler) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextKeyOrgID, orgID)
		c.Set(middleware.ContextKeyUserID, userID)
		c.Set(middleware.ContextKeyRole, string(domain.RoleReviewer))
	})
	r.GET("/reviews/matches", h.ListPendingMatches)
	r.POST("/reviews/matches/:id/confirm", h.ConfirmMatch)
	r.POST("/reviews/matches/:id/reject", h.RejectMatch)
	r.GET("/reviews/discrepancies", h.ListOpenDiscrepancies)
	r.POST("/reviews/discrepancies/:id/resolve", h.ResolveDiscrepancy)
	return r
}

func TestReviewHandler_ListPendingMatches(t *testing.T) {
	svc := new(mocks.MockReviewService)
	h := handler.NewReviewHandler(svc)

	orgID := uuid.New()
	userID := uuid.New()
	matches := []domain.Match{{ID: uuid.New(), State: domain.MatchPending, Confidence: 0.82}}
	svc.On("ListPendingMatches", mock.Anything, orgID, 0, 20).Return(matches, 1, nil)

	r := authedRouter(orgID, userID, h)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/reviews/matches", http.NoBody)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, true, resp["success"])
	meta := resp["meta"].(map[string]interface{})
	assert.Equal(t, float64(1), meta["total"])
}

func TestReviewHandler_ConfirmMatch(t *testing.T) {
	svc := new(mocks.MockReviewService)
	h := handler.NewReviewHandler(svc)

	orgID := uuid.New()
	userID := uuid.New()
	matchID := uuid.New()
	confirmed := &domain.Match{ID: matchID, State: domain.MatchConfirmed}
	svc.On("ConfirmMatch", mock.Anything, orgID, matchID, userID).Return(confirmed, nil)

	r := authedRouter(orgID, userID, h)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/reviews/matches/"+matchID.String()+"/confirm", http.NoBody)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestReviewHandler_ConfirmMatch_Conflict(t *testing.T) {
	svc := new(mocks.MockReviewService)
	h := handler.NewReviewHandler(svc)

	orgID := uuid.New()
	userID := uuid.New()
	matchID := uuid.New()
	svc.On("ConfirmMatch", mock.Anything, orgID, matchID, userID).Return(nil, domain.ErrMatchConflict)

	r := authedRouter(orgID, userID, h)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/reviews/matches/"+matchID.String()+"/confirm", http.NoBody)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	errObj := resp["error"].(map[string]interface{})
	assert.Equal(t, "MATCH_CONFLICT", errObj["code"])
}

func TestReviewHandler_ConfirmMatch_StaleRecord(t *testing.T) {
	svc := new(mocks.MockReviewService)
	h := handler.NewReviewHandler(svc)

	orgID := uuid.New()
	userID := uuid.New()
	matchID := uuid.New()
	svc.On("ConfirmMatch", mock.Anything, orgID, matchID, userID).Return(nil, domain.ErrStaleRecord)

	r := authedRouter(orgID, userID, h)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/reviews/matches/"+matchID.String()+"/confirm", http.NoBody)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	errObj := resp["error"].(map[string]interface{})
	assert.Equal(t, "STALE_RECORD", errObj["code"])
}

func TestReviewHandler_ConfirmMatch_InvalidID(t *testing.T) {
	svc := new(mocks.MockReviewService)
	h := handler.NewReviewHandler(svc)

	r := authedRouter(uuid.New(), uuid.New(), h)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/reviews/matches/not-a-uuid/confirm", http.NoBody)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "ConfirmMatch")
}

func TestReviewHandler_ResolveDiscrepancy(t *testing.T) {
	svc := new(mocks.MockReviewService)
	h := handler.NewReviewHandler(svc)

	orgID := uuid.New()
	userID := uuid.New()
	discID := uuid.New()
	resolved := &domain.Discrepancy{ID: discID, State: domain.DiscrepancyResolved}
	svc.On("ResolveDiscrepancy", mock.Anything, orgID, discID, userID, domain.DiscrepancyResolved).
		Return(resolved, nil)

	body, _ := json.Marshal(map[string]string{"outcome": "resolved"})
	r := authedRouter(orgID, userID, h)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/reviews/discrepancies/"+discID.String()+"/resolve", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestReviewHandler_ResolveDiscrepancy_InvalidOutcome(t *testing.T) {
	svc := new(mocks.MockReviewService)
	h := handler.NewReviewHandler(svc)

	body, _ := json.Marshal(map[string]string{"outcome": "deleted"})
	r := authedRouter(uuid.New(), uuid.New(), h)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/reviews/discrepancies/"+uuid.New().String()+"/resolve", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "ResolveDiscrepancy")
}

func TestReviewHandler_MissingAuthContext(t *testing.T) {
	svc := new(mocks.MockReviewService)
	h := handler.NewReviewHandler(svc)

	r := gin.New()
	r.GET("/reviews/matches", h.ListPendingMatches)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/reviews/matches", http.NoBody)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNotCalled(t, "ListPendingMatches")
}
