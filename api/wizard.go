package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/caravalia/reservas/internal/domain"
	"github.com/caravalia/reservas/internal/service/fleet"
	"github.com/caravalia/reservas/internal/service/reservation"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

type WizardHandler struct {
	service reservation.WizardUseCase
	fleet   fleet.FleetUseCase
	loc     *time.Location
}

type chooseNumberRequest struct {
	Number string `json:"reservationNumber" binding:"required"`
}

type detailsRequest struct {
	Number     string `json:"reservationNumber" binding:"required"`
	EntryDate  string `json:"entryDate" binding:"required"`
	ReturnDate string `json:"returnDate" binding:"required"`
	EntryTime  string `json:"entryTime" binding:"omitempty,clock"`
	ReturnTime string `json:"returnTime" binding:"omitempty,clock"`
	DailyRate  string `json:"dailyRate"`
}

type customerRequest struct {
	FullName   string `json:"fullName" binding:"required"`
	NationalID string `json:"nationalId" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
	Notes      string `json:"notes"`
}

type finalizeRequest struct {
	Number        string `json:"reservationNumber"`
	Edit          bool   `json:"edit"`
	PaymentMethod string `json:"paymentMethod" binding:"omitempty,paymethod"`
}

func NewWizardHandler(service reservation.WizardUseCase, models fleet.FleetUseCase, loc *time.Location) *WizardHandler {
	if loc == nil {
		loc = time.Local
	}
	return &WizardHandler{service: service, fleet: models, loc: loc}
}

func (h *WizardHandler) Register(router *gin.RouterGroup) {
	router.POST("/reset", h.reset)
	router.GET("/:model/number", h.suggestNumber)
	router.POST("/:model/number", h.chooseNumber)
	router.GET("/:model/details", h.detailsForm)
	router.POST("/:model/details", h.saveDetails)
	router.GET("/:model/customer", h.customerForm)
	router.POST("/:model/customer", h.saveCustomer)
	router.GET("/:model/confirmation", h.confirmation)
	router.POST("/:model/save", h.save)
	router.POST("/:model/send", h.send)
}

func (h *WizardHandler) reset(c *gin.Context) {
	h.service.Reset(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func (h *WizardHandler) suggestNumber(c *gin.Context) {
	model, ok := h.model(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.service.SuggestNumber(c.Request.Context(), model))
}

func (h *WizardHandler) chooseNumber(c *gin.Context) {
	model, ok := h.model(c)
	if !ok {
		return
	}

	var req chooseNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	suggestion, err := h.service.ChooseNumber(c.Request.Context(), model, req.Number)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, suggestion)
}

func (h *WizardHandler) detailsForm(c *gin.Context) {
	model, ok := h.model(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.service.DetailsForm(c.Request.Context(), model, c.Query("number"), editing(c)))
}

func (h *WizardHandler) saveDetails(c *gin.Context) {
	model, ok := h.model(c)
	if !ok {
		return
	}

	var req detailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry, err := h.parseDate(req.EntryDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ret, err := h.parseDate(req.ReturnDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	details, err := h.service.SaveDetails(c.Request.Context(), model, reservation.DetailsInput{
		Number:     req.Number,
		EntryDate:  entry,
		ReturnDate: ret,
		EntryTime:  req.EntryTime,
		ReturnTime: req.ReturnTime,
		DailyRate:  req.DailyRate,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *WizardHandler) customerForm(c *gin.Context) {
	model, ok := h.model(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.service.CustomerForm(c.Request.Context(), model, c.Query("number"), editing(c)))
}

func (h *WizardHandler) saveCustomer(c *gin.Context) {
	model, ok := h.model(c)
	if !ok {
		return
	}

	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer, err := h.service.SaveCustomer(c.Request.Context(), model, domain.CustomerData{
		FullName:   req.FullName,
		NationalID: req.NationalID,
		Phone:      req.Phone,
		Notes:      req.Notes,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *WizardHandler) confirmation(c *gin.Context) {
	model, ok := h.model(c)
	if !ok {
		return
	}

	conf, err := h.service.Confirmation(c.Request.Context(), model, c.Query("number"), editing(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, conf)
}

func (h *WizardHandler) save(c *gin.Context) {
	model, input, ok := h.finalizeInput(c)
	if !ok {
		return
	}

	res, err := h.service.Save(c.Request.Context(), model, input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *WizardHandler) send(c *gin.Context) {
	model, input, ok := h.finalizeInput(c)
	if !ok {
		return
	}

	doc, err := h.service.Send(c.Request.Context(), model, input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	attachment(c, doc)
}

func (h *WizardHandler) finalizeInput(c *gin.Context) (string, reservation.FinalizeInput, bool) {
	model, ok := h.model(c)
	if !ok {
		return "", reservation.FinalizeInput{}, false
	}

	var req finalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", reservation.FinalizeInput{}, false
	}
	return model, reservation.FinalizeInput{
		Number:        req.Number,
		Edit:          req.Edit,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
	}, true
}

// model resolves the :model path parameter to its canonical name.
func (h *WizardHandler) model(c *gin.Context) (string, bool) {
	m, err := h.fleet.Get(c.Request.Context(), c.Param("model"))
	if err != nil {
		abortWithError(c, err)
		return "", false
	}
	return m.Name, true
}

func (h *WizardHandler) parseDate(raw string) (time.Time, error) {
	if t, err := time.ParseInLocation(dateLayout, raw, h.loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return t, nil
}

func editing(c *gin.Context) bool {
	edit, _ := strconv.ParseBool(c.Query("edit"))
	return edit
}
