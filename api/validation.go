package api

import (
	"errors"
	"mime"
	"net/http"
	"regexp"
	"sync"

	"github.com/caravalia/reservas/internal/domain"
	"github.com/caravalia/reservas/internal/pricing"
	"github.com/caravalia/reservas/internal/repository"
	"github.com/caravalia/reservas/internal/service/fleet"
	"github.com/caravalia/reservas/internal/service/reservation"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators adds the "clock" and "paymethod" tags to gin's validator.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		if err := v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
			return clockPattern.MatchString(fl.Field().String())
		}); err != nil {
			registerErr = err
			return
		}
		registerErr = v.RegisterValidation("paymethod", func(fl validator.FieldLevel) bool {
			return domain.PaymentMethod(fl.Field().String()).Valid()
		})
	})
	return registerErr
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, fleet.ErrUnknownModel):
		return http.StatusNotFound
	case errors.Is(err, reservation.ErrDraftMissing), errors.Is(err, reservation.ErrExportInProgress):
		return http.StatusConflict
	case errors.Is(err, reservation.ErrNumberRequired),
		errors.Is(err, reservation.ErrDatesRequired),
		errors.Is(err, reservation.ErrCustomerIncomplete),
		errors.Is(err, reservation.ErrInvalidPaymentMethod),
		errors.Is(err, pricing.ErrInvalidDailyRate):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func attachment(c *gin.Context, doc reservation.Document) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	if doc.Reservation.ID != "" {
		c.Header("X-Reservation-Id", doc.Reservation.ID)
	}
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}
