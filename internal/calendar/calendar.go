package calendar

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/caravalia/reservas/internal/domain"
)

const (
	DefaultBaseURL = "https://calendar.google.com/calendar/render"
	stampLayout    = "20060102T150405Z"
)

type LinkBuilder struct {
	baseURL  string
	location string
	loc      *time.Location
}

// NewLinkBuilder builds event links. location is the fixed place shown on the
// event, loc is the zone the clock times of a reservation are entered in.
func NewLinkBuilder(baseURL, location string, loc *time.Location) *LinkBuilder {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if loc == nil {
		loc = time.Local
	}
	return &LinkBuilder{baseURL: baseURL, location: location, loc: loc}
}

func (b *LinkBuilder) EventURL(r domain.CompletedReservation) string {
	start, end := b.EventTimes(r)

	var sb strings.Builder
	sb.WriteString(b.baseURL)
	sb.WriteString("?action=TEMPLATE")
	sb.WriteString("&text=" + encodeComponent(Title(r)))
	sb.WriteString("&dates=" + start.UTC().Format(stampLayout) + "/" + end.UTC().Format(stampLayout))
	sb.WriteString("&details=" + encodeComponent(Description(r)))
	sb.WriteString("&location=" + encodeComponent(b.location))
	sb.WriteString("&sf=true&output=xml")
	return sb.String()
}

// EventTimes places the entry and return clock times on the entry and return days.
func (b *LinkBuilder) EventTimes(r domain.CompletedReservation) (time.Time, time.Time) {
	return b.at(r.Details.EntryDate, r.Details.EntryTime), b.at(r.Details.ReturnDate, r.Details.ReturnTime)
}

func (b *LinkBuilder) at(day time.Time, clock string) time.Time {
	day = day.In(b.loc)
	h, m := ParseClock(clock)
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, b.loc)
}

// ParseClock reads "HH:MM"; missing or broken parts read as zero.
func ParseClock(clock string) (int, int) {
	hh, mm, _ := strings.Cut(clock, ":")
	h, _ := strconv.Atoi(strings.TrimSpace(hh))
	m, _ := strconv.Atoi(strings.TrimSpace(mm))
	return h, m
}

func Title(r domain.CompletedReservation) string {
	return fmt.Sprintf("Reserva %s - %s - %s", r.ReservationNumber, r.Model, r.Customer.FullName)
}

func Description(r domain.CompletedReservation) string {
	payment := string(r.PaymentMethod)
	if payment == "" {
		payment = "No especificada"
	}

	lines := []string{
		"Reserva: " + r.ReservationNumber,
		"Cliente: " + r.Customer.FullName,
		"DNI: " + r.Customer.NationalID,
		"Teléfono: " + r.Customer.Phone,
		"Importe total: " + FormatAmount(r.TotalAmount) + "€",
		"Señal: " + FormatAmount(r.DepositAmount) + "€",
		"Forma de pago: " + payment,
	}
	if r.Customer.Notes != "" {
		lines = append(lines, "Notas: "+r.Customer.Notes)
	}
	return strings.Join(lines, "\n")
}

// FormatAmount prints the shortest decimal form, 750 rather than 750.00.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var componentUnescape = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeComponent escapes like a browser's encodeURIComponent.
func encodeComponent(s string) string {
	return componentUnescape.Replace(url.QueryEscape(s))
}
