package commission

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docsafe.com.br/affiliate-service/internal/server/respond"
)

// Handler exposes the back-office commission endpoints. Both sit behind the
// admin middleware; affiliates never trigger commission recording themselves.
type Handler struct {
	service *Service
}

// NewHandler creates the commission HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type recordRequest struct {
	ReferralID int64 `json:"referral_id" binding:"required"`
	PlanID     int64 `json:"plan_id" binding:"required"`
}

// Run handles POST /api/admin/commissions/run: triggers the monthly batch
// outside its cron schedule and returns the summary report.
func (h *Handler) Run(c *gin.Context) {
	report, err := h.service.RunBatch(c.Request.Context())
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "processamento de comissões concluído", report)
}

// Record handles POST /api/admin/commissions/record: single-record mode for
// one referral and plan.
func (h *Handler) Record(c *gin.Context) {
	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "corpo da requisição inválido")
		return
	}

	tx, err := h.service.RecordOne(c.Request.Context(), req.ReferralID, req.PlanID)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.OK(c, http.StatusCreated, "comissão registrada", tx)
}
