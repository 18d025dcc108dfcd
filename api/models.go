package api

import (
	"net/http"

	"github.com/caravalia/reservas/internal/service/fleet"
	"github.com/gin-gonic/gin"
)

type ModelHandler struct {
	service fleet.FleetUseCase
}

func NewModelHandler(service fleet.FleetUseCase) *ModelHandler {
	return &ModelHandler{service: service}
}

func (h *ModelHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
}

func (h *ModelHandler) list(c *gin.Context) {
	models, err := h.service.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, models)
}
