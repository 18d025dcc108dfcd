package domain

import "time"

type PaymentMethod string

const (
	PaymentBizum         PaymentMethod = "bizum"
	PaymentTransferencia PaymentMethod = "transferencia"
	PaymentContado       PaymentMethod = "contado"
)

// DefaultPaymentMethod is preselected on the confirmation step.
const DefaultPaymentMethod = PaymentBizum

// Label is the text printed on documents and lists.
func (p PaymentMethod) Label() string {
	switch p {
	case "", PaymentTransferencia:
		return "Transferencia previa"
	case PaymentBizum:
		return "Bizum"
	case PaymentContado:
		return "Contado"
	default:
		return string(p)
	}
}

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentBizum, PaymentTransferencia, PaymentContado:
		return true
	}
	return false
}

// ReservationDetails is the draft captured on the details step.
type ReservationDetails struct {
	ReservationNumber string        `json:"reservationNumber"`
	Model             string        `json:"model"`
	EntryDate         time.Time     `json:"entryDate"`
	ReturnDate        time.Time     `json:"returnDate"`
	EntryTime         string        `json:"entryTime"`
	ReturnTime        string        `json:"returnTime"`
	DailyRate         string        `json:"dailyRate"`
	PaymentMethod     PaymentMethod `json:"paymentMethod,omitempty"`
	ValidatedAt       *time.Time    `json:"validatedAt,omitempty"`
}

// HasDates reports whether both trip dates were entered.
func (d ReservationDetails) HasDates() bool {
	return !d.EntryDate.IsZero() && !d.ReturnDate.IsZero()
}

// CustomerData is the draft captured on the customer step.
type CustomerData struct {
	FullName   string `json:"fullName"`
	NationalID string `json:"nationalId"`
	Phone      string `json:"phone"`
	Notes      string `json:"notes"`
}

func (c CustomerData) Complete() bool {
	return c.FullName != "" && c.NationalID != "" && c.Phone != ""
}

type CompletedReservation struct {
	ID                string             `json:"id"`
	ReservationNumber string             `json:"reservationNumber"`
	Model             string             `json:"model"`
	CreatedAt         time.Time          `json:"createdAt"`
	Details           ReservationDetails `json:"details"`
	Customer          CustomerData       `json:"customer"`
	TotalDays         int                `json:"totalDays"`
	TotalAmount       float64            `json:"totalAmount"`
	DepositAmount     float64            `json:"depositAmount"`
	RemainingAmount   float64            `json:"remainingAmount"`
	PaymentMethod     PaymentMethod      `json:"paymentMethod,omitempty"`
	Validated         bool               `json:"validated,omitempty"`
	ValidatedAt       *time.Time         `json:"validatedAt,omitempty"`
}

// SameBooking reports whether r carries the given natural key.
func (r CompletedReservation) SameBooking(number, model string) bool {
	return r.ReservationNumber == number && r.Model == model
}

// UTC returns r with every timestamp in UTC and stripped of its monotonic
// reading, which is the form a record has after a storage round trip.
func (r CompletedReservation) UTC() CompletedReservation {
	r.CreatedAt = utc(r.CreatedAt)
	r.Details.EntryDate = utc(r.Details.EntryDate)
	r.Details.ReturnDate = utc(r.Details.ReturnDate)
	r.Details.ValidatedAt = utcPtr(r.Details.ValidatedAt)
	r.ValidatedAt = utcPtr(r.ValidatedAt)
	return r
}

func utc(t time.Time) time.Time {
	return t.UTC().Round(0)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := utc(*t)
	return &v
}
