package withdrawals

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docsafe.com.br/affiliate-service/internal/server/middleware"
	"docsafe.com.br/affiliate-service/internal/server/respond"
)

// Handler exposes the withdrawal endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates the withdrawal HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /api/withdrawals.
func (h *Handler) Create(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "corpo da requisição inválido")
		return
	}

	tx, err := h.service.Request(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.OK(c, http.StatusCreated, "solicitação de saque registrada", tx)
}

// Complete handles POST /api/admin/withdrawals/:id/complete.
func (h *Handler) Complete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respond.BadRequest(c, "identificador de saque inválido")
		return
	}

	tx, err := h.service.Complete(c.Request.Context(), id)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "saque concluído", tx)
}
