package affiliates

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docsafe.com.br/affiliate-service/internal/server/middleware"
	"docsafe.com.br/affiliate-service/internal/server/respond"
)

// Handler exposes the affiliate endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates the affiliate HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	PixKey string `json:"pix_key"`
}

type trackSignupRequest struct {
	ReferralCode   string `json:"referral_code" binding:"required"`
	ReferredUserID int64  `json:"referred_user_id" binding:"required"`
	PlanID         *int64 `json:"plan_id"`
}

// Register handles POST /api/affiliates.
func (h *Handler) Register(c *gin.Context) {
	userID := middleware.UserID(c)

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respond.BadRequest(c, "corpo da requisição inválido")
		return
	}

	a, err := h.service.Register(c.Request.Context(), userID, req.PixKey)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.OK(c, http.StatusCreated, "cadastro no programa de afiliados concluído", a)
}

// Me handles GET /api/affiliates/me.
func (h *Handler) Me(c *gin.Context) {
	a, err := h.service.Resolve(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "", a)
}

// Stats handles GET /api/affiliates/me/stats.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "", stats)
}

// Referrals handles GET /api/affiliates/me/referrals.
func (h *Handler) Referrals(c *gin.Context) {
	refs, err := h.service.Referrals(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "", refs)
}

// Transactions handles GET /api/affiliates/me/transactions.
func (h *Handler) Transactions(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respond.BadRequest(c, "parâmetro limit inválido")
			return
		}
		limit = parsed
	}

	txs, err := h.service.Transactions(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "", txs)
}

// TrackSignup handles POST /api/referrals (called by the main backend).
func (h *Handler) TrackSignup(c *gin.Context) {
	var req trackSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "corpo da requisição inválido")
		return
	}

	ref, err := h.service.TrackSignup(c.Request.Context(), req.ReferralCode, req.ReferredUserID, req.PlanID)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.OK(c, http.StatusCreated, "indicação registrada", ref)
}
