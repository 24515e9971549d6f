package plans

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docsafe.com.br/affiliate-service/internal/server/respond"
)

// Handler exposes the plan catalogue read.
type Handler struct {
	repo *Repository
}

// NewHandler creates the plans HTTP handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /api/plans. Public: the SPA renders commission tiers on
// the program landing page before login.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.ListActive(c.Request.Context())
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "", list)
}
