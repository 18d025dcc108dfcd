package notify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caravalia/reservas/config"
	"github.com/caravalia/reservas/internal/calendar"
	"github.com/caravalia/reservas/internal/kafka"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

const defaultCountryPrefix = "+34"

type Sender interface {
	Send(ctx context.Context, event kafka.ReservationEvent) error
}

// Handle adapts sender for the event consumer. Delivery failures are logged
// and dropped: the offset is already committed, so returning them would only
// stop consumption.
func Handle(sender Sender) func(context.Context, kafka.ReservationEvent) error {
	return func(ctx context.Context, event kafka.ReservationEvent) error {
		if err := sender.Send(ctx, event); err != nil {
			log.Printf("notify: %v", err)
		}
		return nil
	}
}

type messageAPI interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSender texts the customer a summary once a reservation is validated.
// Other event types are ignored.
type TwilioSender struct {
	api          messageAPI
	smsFrom      string
	whatsAppFrom string
	businessName string
	loc          *time.Location
}

// New returns a Twilio sender when credentials are configured and a LogSender otherwise.
func New(cfg config.NotifyConfig, businessName string, loc *time.Location) Sender {
	if !cfg.TwilioEnabled() {
		log.Printf("notify: twilio not configured, notifications are logged only")
		return &LogSender{businessName: businessName, loc: loc}
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	return newTwilioSender(client.Api, cfg, businessName, loc)
}

func newTwilioSender(api messageAPI, cfg config.NotifyConfig, businessName string, loc *time.Location) *TwilioSender {
	return &TwilioSender{
		api:          api,
		smsFrom:      cfg.SMSFrom,
		whatsAppFrom: cfg.WhatsAppFrom,
		businessName: businessName,
		loc:          loc,
	}
}

func (s *TwilioSender) Send(_ context.Context, event kafka.ReservationEvent) error {
	if event.Type != kafka.EventReservationValidated {
		return nil
	}

	phone := NormalizePhone(event.Phone)
	if phone == "" {
		log.Printf("notify: reservation %s has no phone, skipping", event.ReservationID)
		return nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetBody(Summary(event, s.businessName, s.loc))
	if s.whatsAppFrom != "" {
		params.SetTo("whatsapp:" + phone)
		params.SetFrom("whatsapp:" + s.whatsAppFrom)
	} else {
		params.SetTo(phone)
		params.SetFrom(s.smsFrom)
	}

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("send summary for reservation %s: %w", event.ReservationID, err)
	}
	if resp != nil && resp.Sid != nil {
		log.Printf("notify: summary for reservation %s sent, SID %s", event.ReservationID, *resp.Sid)
	}
	return nil
}

type LogSender struct {
	businessName string
	loc          *time.Location
}

func (s *LogSender) Send(_ context.Context, event kafka.ReservationEvent) error {
	if event.Type != kafka.EventReservationValidated {
		return nil
	}
	log.Printf("notify: to %s: %s", event.Phone, Summary(event, s.businessName, s.loc))
	return nil
}

// Summary is the text sent to the customer.
func Summary(event kafka.ReservationEvent, businessName string, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Hola %s, tu reserva nº %s (%s) está confirmada.", event.CustomerName, event.ReservationNumber, event.Model)
	if !event.EntryDate.IsZero() && !event.ReturnDate.IsZero() {
		fmt.Fprintf(&sb, " Entrega: %s %sh. Devolución: %s %sh.",
			event.EntryDate.In(loc).Format("02/01/2006"), event.EntryTime,
			event.ReturnDate.In(loc).Format("02/01/2006"), event.ReturnTime)
	}
	fmt.Fprintf(&sb, " Importe total: %s€. Señal: %s€.", calendar.FormatAmount(event.TotalAmount), calendar.FormatAmount(event.DepositAmount))
	if businessName != "" {
		sb.WriteString(" " + businessName)
	}
	return sb.String()
}

// NormalizePhone strips separators and prefixes national numbers with +34.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}

	phone := b.String()
	switch {
	case phone == "" || phone == "+":
		return ""
	case strings.HasPrefix(phone, "+"):
		return phone
	case strings.HasPrefix(phone, "00"):
		return "+" + phone[2:]
	default:
		return defaultCountryPrefix + phone
	}
}
