package api

import (
	"net/http"
	"net/url"

	"github.com/caravalia/reservas/internal/domain"
	"github.com/caravalia/reservas/internal/service/reservation"
	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	service reservation.ReservationsUseCase
}

func NewReservationHandler(service reservation.ReservationsUseCase) *ReservationHandler {
	return &ReservationHandler{service: service}
}

func (h *ReservationHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/export.xlsx", h.export)
	router.GET("/:id", h.get)
	router.GET("/:id/document", h.document)
	router.POST("/:id/edit", h.edit)
	router.POST("/:id/validate", h.toggleValidation)
	router.DELETE("/:id", h.delete)
}

func (h *ReservationHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if list == nil {
		list = []domain.CompletedReservation{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *ReservationHandler) export(c *gin.Context) {
	doc, err := h.service.Spreadsheet(c.Request.Context(), c.Query("q"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	attachment(c, doc)
}

func (h *ReservationHandler) get(c *gin.Context) {
	res, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ReservationHandler) document(c *gin.Context) {
	doc, err := h.service.Document(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	attachment(c, doc)
}

// edit stages the reservation into the wizard drafts and points the client at
// the details step in edit mode.
func (h *ReservationHandler) edit(c *gin.Context) {
	res, err := h.service.Edit(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reservation": res,
		"next":        "/api/wizard/" + url.PathEscape(res.Model) + "/details?number=" + url.QueryEscape(res.ReservationNumber) + "&edit=true",
	})
}

func (h *ReservationHandler) toggleValidation(c *gin.Context) {
	result, err := h.service.ToggleValidation(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ReservationHandler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
