package document

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/caravalia/reservas/config"
	"github.com/caravalia/reservas/internal/calendar"
	"github.com/caravalia/reservas/internal/domain"
	"github.com/skip2/go-qrcode"
)

//go:embed templates/reservation.html
var templatesFS embed.FS

const dateLayout = "02/01/2006"

type Renderer struct {
	tmpl        *template.Template
	business    config.BusinessConfig
	depositRate float64
	loc         *time.Location
	links       *calendar.LinkBuilder
	ext         string
	now         func() time.Time
}

type Option func(*Renderer)

// WithCalendarQR embeds a QR code of the reservation's calendar link.
func WithCalendarQR(links *calendar.LinkBuilder) Option {
	return func(r *Renderer) {
		r.links = links
	}
}

func WithDepositRate(rate float64) Option {
	return func(r *Renderer) {
		r.depositRate = rate
	}
}

func WithLocation(loc *time.Location) Option {
	return func(r *Renderer) {
		r.loc = loc
	}
}

func WithExtension(ext string) Option {
	return func(r *Renderer) {
		r.ext = strings.TrimPrefix(ext, ".")
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		r.now = now
	}
}

func NewRenderer(business config.BusinessConfig, opts ...Option) (*Renderer, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/reservation.html")
	if err != nil {
		return nil, fmt.Errorf("parse document template: %w", err)
	}

	r := &Renderer{
		tmpl:        tmpl,
		business:    business,
		depositRate: 0.30,
		loc:         time.Local,
		ext:         "html",
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// ContentType is the media type of what Render writes.
func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

type view struct {
	Model           string
	Plate           string
	Number          string
	IssuedOn        string
	QRCode          template.URL
	Customer        domain.CustomerData
	EntryDate       string
	ReturnDate      string
	EntryTime       string
	ReturnTime      string
	TotalDays       int
	DailyRate       string
	Total           string
	Signal          string
	DepositPercent  string
	Payment         string
	ValidatedOn     string
	Remainder       string
	SecurityDeposit string
	DailyKmLimit    int
	KmExample       string
	SignedBy        string
	Footer          string
}

func (r *Renderer) Render(w io.Writer, res domain.CompletedReservation) error {
	if err := r.tmpl.Execute(w, r.view(res)); err != nil {
		return fmt.Errorf("render reservation %s: %w", res.ID, err)
	}
	return nil
}

// RenderBytes renders into memory so a failed render never leaves a partial response.
func (r *Renderer) RenderBytes(res domain.CompletedReservation) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, res); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) view(res domain.CompletedReservation) view {
	payment := res.PaymentMethod
	if payment == "" {
		payment = res.Details.PaymentMethod
	}
	validatedAt := res.ValidatedAt
	if validatedAt == nil {
		validatedAt = res.Details.ValidatedAt
	}

	v := view{
		Model:           res.Model,
		Plate:           r.business.Plate(res.Model),
		Number:          res.ReservationNumber,
		IssuedOn:        r.now().In(r.loc).Format(dateLayout),
		Customer:        res.Customer,
		EntryDate:       r.formatDate(res.Details.EntryDate),
		ReturnDate:      r.formatDate(res.Details.ReturnDate),
		EntryTime:       res.Details.EntryTime,
		ReturnTime:      res.Details.ReturnTime,
		TotalDays:       res.TotalDays,
		DailyRate:       res.Details.DailyRate,
		Total:           calendar.FormatAmount(res.TotalAmount),
		Signal:          calendar.FormatAmount(res.DepositAmount),
		DepositPercent:  strconv.FormatFloat(math.Round(r.depositRate*10000)/100, 'f', -1, 64),
		Payment:         payment.Label(),
		Remainder:       calendar.FormatAmount(res.RemainingAmount),
		SecurityDeposit: calendar.FormatAmount(r.business.SecurityDeposit),
		DailyKmLimit:    r.business.DailyKmLimit,
		KmExample:       groupThousands(5 * r.business.DailyKmLimit),
		SignedBy:        r.business.SignedBy,
		Footer:          r.business.Footer,
	}
	if validatedAt != nil {
		v.ValidatedOn = r.formatDate(*validatedAt)
	}
	if r.links != nil {
		v.QRCode = r.qrCode(r.links.EventURL(res))
	}
	return v
}

func (r *Renderer) qrCode(content string) template.URL {
	png, err := qrcode.Encode(content, qrcode.Medium, 256)
	if err != nil {
		log.Printf("document: qr code skipped: %v", err)
		return ""
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
}

func (r *Renderer) formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(r.loc).Format(dateLayout)
}

// groupThousands formats n with '.' separators, 1500 as 1.500.
func groupThousands(n int) string {
	s := strconv.Itoa(n)
	if n < 0 {
		return "-" + groupThousands(-n)
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "." + s[i:]
	}
	return s
}
