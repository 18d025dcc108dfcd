package reservation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/caravalia/reservas/internal/counter"
	"github.com/caravalia/reservas/internal/domain"
	"github.com/caravalia/reservas/internal/export"
	"github.com/caravalia/reservas/internal/kafka"
	"github.com/caravalia/reservas/internal/kvstore"
	"github.com/caravalia/reservas/internal/pricing"
	"github.com/caravalia/reservas/internal/repository"
	"github.com/google/uuid"
)

const (
	DetailsDraftKey  = "reservation-draft"
	CustomerDraftKey = "reservation-customer-draft"

	DefaultEntryTime  = "09:00"
	DefaultReturnTime = "19:00"
	DefaultDailyRate  = "150"
)

var (
	ErrNumberRequired       = errors.New("reservation number is required")
	ErrDatesRequired        = errors.New("entry and return dates are required")
	ErrCustomerIncomplete   = errors.New("customer name, national id and phone are required")
	ErrDraftMissing         = errors.New("reservation draft is missing")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrExportInProgress     = errors.New("an export is already in progress")
)

type WizardUseCase interface {
	Reset(ctx context.Context)
	SuggestNumber(ctx context.Context, model string) NumberSuggestion
	ChooseNumber(ctx context.Context, model, number string) (NumberSuggestion, error)
	DetailsForm(ctx context.Context, model, number string, edit bool) DetailsForm
	SaveDetails(ctx context.Context, model string, input DetailsInput) (domain.ReservationDetails, error)
	CustomerForm(ctx context.Context, model, number string, edit bool) domain.CustomerData
	SaveCustomer(ctx context.Context, model string, input domain.CustomerData) (domain.CustomerData, error)
	Confirmation(ctx context.Context, model, number string, edit bool) (Confirmation, error)
	Save(ctx context.Context, model string, input FinalizeInput) (domain.CompletedReservation, error)
	Send(ctx context.Context, model string, input FinalizeInput) (Document, error)
}

type ReservationsUseCase interface {
	List(ctx context.Context, query string) ([]domain.CompletedReservation, error)
	Get(ctx context.Context, id string) (domain.CompletedReservation, error)
	Document(ctx context.Context, id string) (Document, error)
	Edit(ctx context.Context, id string) (domain.CompletedReservation, error)
	ToggleValidation(ctx context.Context, id string) (ValidationResult, error)
	Delete(ctx context.Context, id string) error
	Spreadsheet(ctx context.Context, query string) (Document, error)
}

type Renderer interface {
	RenderBytes(res domain.CompletedReservation) ([]byte, error)
	Filename(res domain.CompletedReservation) string
	ContentType() string
}

type CalendarLinks interface {
	EventURL(res domain.CompletedReservation) string
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type NumberSuggestion struct {
	Model   string `json:"model"`
	Number  string `json:"number"`
	Session bool   `json:"session"`
}

type DetailsInput struct {
	Number     string    `json:"reservationNumber"`
	EntryDate  time.Time `json:"entryDate"`
	ReturnDate time.Time `json:"returnDate"`
	EntryTime  string    `json:"entryTime"`
	ReturnTime string    `json:"returnTime"`
	DailyRate  string    `json:"dailyRate"`
}

type DetailsForm struct {
	Details      domain.ReservationDetails `json:"details"`
	ClockOptions []string                  `json:"clockOptions"`
	Editing      bool                      `json:"editing"`
}

type PaymentOption struct {
	Value domain.PaymentMethod `json:"value"`
	Label string               `json:"label"`
}

type Confirmation struct {
	Details        domain.ReservationDetails `json:"details"`
	Customer       domain.CustomerData       `json:"customer"`
	Pricing        pricing.Quote             `json:"pricing"`
	PaymentMethod  domain.PaymentMethod      `json:"paymentMethod"`
	PaymentOptions []PaymentOption           `json:"paymentOptions"`
	ExistingID     string                    `json:"existingId,omitempty"`
	Editing        bool                      `json:"editing"`

	existing *domain.CompletedReservation
}

type FinalizeInput struct {
	Number        string               `json:"reservationNumber"`
	Edit          bool                 `json:"edit"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
}

type Document struct {
	Reservation domain.CompletedReservation
	Filename    string
	ContentType string
	Content     []byte
}

type ValidationResult struct {
	Reservation domain.CompletedReservation `json:"reservation"`
	CalendarURL string                      `json:"calendarUrl,omitempty"`
}

type ReservationService struct {
	store              kvstore.Store
	counter            *counter.Counter
	reservations       repository.ReservationRepository
	pricing            *pricing.Calculator
	renderer           Renderer
	links              CalendarLinks
	producer           Producer
	reservationTopic   string
	notificationsTopic string
	loc                *time.Location
	now                func() time.Time
	newID              func() string
	exporting          atomic.Bool
}

type ReservationServiceOption func(*ReservationService)

func WithProducer(producer Producer, topic string) ReservationServiceOption {
	return func(s *ReservationService) {
		s.producer = producer
		s.reservationTopic = topic
	}
}

func WithNotificationsTopic(topic string) ReservationServiceOption {
	return func(s *ReservationService) {
		s.notificationsTopic = topic
	}
}

func WithLocation(loc *time.Location) ReservationServiceOption {
	return func(s *ReservationService) {
		s.loc = loc
	}
}

func WithClock(now func() time.Time) ReservationServiceOption {
	return func(s *ReservationService) {
		s.now = now
	}
}

func WithIDGenerator(newID func() string) ReservationServiceOption {
	return func(s *ReservationService) {
		s.newID = newID
	}
}

func NewReservationService(
	store kvstore.Store,
	reservations repository.ReservationRepository,
	calculator *pricing.Calculator,
	renderer Renderer,
	links CalendarLinks,
	opts ...ReservationServiceOption,
) *ReservationService {
	service := &ReservationService{
		store:        store,
		counter:      counter.New(store),
		reservations: reservations,
		pricing:      calculator,
		renderer:     renderer,
		links:        links,
		loc:          time.Local,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Reset drops both drafts, as starting a new booking from the home screen does.
func (s *ReservationService) Reset(ctx context.Context) {
	s.store.Remove(ctx, DetailsDraftKey)
	s.store.Remove(ctx, CustomerDraftKey)
}

func (s *ReservationService) SuggestNumber(ctx context.Context, model string) NumberSuggestion {
	if n, ok := s.counter.SessionNumber(ctx, model); ok {
		return NumberSuggestion{Model: model, Number: n, Session: true}
	}
	return NumberSuggestion{Model: model, Number: strconv.Itoa(s.counter.PeekNext(ctx, model))}
}

func (s *ReservationService) ChooseNumber(ctx context.Context, model, number string) (NumberSuggestion, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return NumberSuggestion{}, ErrNumberRequired
	}

	s.counter.SetSessionNumber(ctx, model, number)
	s.counter.CommitIfAhead(ctx, model, number)
	return NumberSuggestion{Model: model, Number: number, Session: true}, nil
}

func (s *ReservationService) DetailsForm(ctx context.Context, model, number string, edit bool) DetailsForm {
	today := s.today()
	details := domain.ReservationDetails{
		ReservationNumber: number,
		Model:             model,
		EntryDate:         today,
		ReturnDate:        today,
		EntryTime:         DefaultEntryTime,
		ReturnTime:        DefaultReturnTime,
		DailyRate:         DefaultDailyRate,
	}

	if edit {
		var draft domain.ReservationDetails
		if kvstore.GetJSON(ctx, s.store, DetailsDraftKey, &draft) && draft.ReservationNumber == number && draft.Model == model {
			if !draft.EntryDate.IsZero() {
				details.EntryDate = draft.EntryDate
			}
			if !draft.ReturnDate.IsZero() {
				details.ReturnDate = draft.ReturnDate
			}
			if draft.EntryTime != "" {
				details.EntryTime = draft.EntryTime
			}
			if draft.ReturnTime != "" {
				details.ReturnTime = draft.ReturnTime
			}
			if draft.DailyRate != "" {
				details.DailyRate = draft.DailyRate
			}
		}
	}

	return DetailsForm{Details: details, ClockOptions: ClockOptions(), Editing: edit}
}

func (s *ReservationService) SaveDetails(ctx context.Context, model string, input DetailsInput) (domain.ReservationDetails, error) {
	number := strings.TrimSpace(input.Number)
	if number == "" {
		return domain.ReservationDetails{}, ErrNumberRequired
	}
	if input.EntryDate.IsZero() || input.ReturnDate.IsZero() {
		return domain.ReservationDetails{}, ErrDatesRequired
	}

	rate := strings.TrimSpace(input.DailyRate)
	if rate == "" {
		rate = DefaultDailyRate
	}
	if _, err := pricing.ParseDailyRate(rate); err != nil {
		return domain.ReservationDetails{}, err
	}

	details := domain.ReservationDetails{
		ReservationNumber: number,
		Model:             model,
		EntryDate:         input.EntryDate,
		ReturnDate:        input.ReturnDate,
		EntryTime:         orDefault(input.EntryTime, DefaultEntryTime),
		ReturnTime:        orDefault(input.ReturnTime, DefaultReturnTime),
		DailyRate:         rate,
	}
	kvstore.SetJSON(ctx, s.store, DetailsDraftKey, details)
	return details, nil
}

// CustomerForm prefills from the customer draft only while editing.
func (s *ReservationService) CustomerForm(ctx context.Context, _, _ string, edit bool) domain.CustomerData {
	var customer domain.CustomerData
	if edit {
		kvstore.GetJSON(ctx, s.store, CustomerDraftKey, &customer)
	}
	return customer
}

func (s *ReservationService) SaveCustomer(ctx context.Context, _ string, input domain.CustomerData) (domain.CustomerData, error) {
	customer := domain.CustomerData{
		FullName:   upper(input.FullName),
		NationalID: upper(input.NationalID),
		Phone:      upper(input.Phone),
		Notes:      upper(input.Notes),
	}
	if !customer.Complete() {
		return domain.CustomerData{}, ErrCustomerIncomplete
	}

	kvstore.SetJSON(ctx, s.store, CustomerDraftKey, customer)
	return customer, nil
}

func (s *ReservationService) Confirmation(ctx context.Context, model, number string, edit bool) (Confirmation, error) {
	var details domain.ReservationDetails
	if !kvstore.GetJSON(ctx, s.store, DetailsDraftKey, &details) || !details.HasDates() {
		return Confirmation{}, fmt.Errorf("%w: details", ErrDraftMissing)
	}
	var customer domain.CustomerData
	if !kvstore.GetJSON(ctx, s.store, CustomerDraftKey, &customer) {
		return Confirmation{}, fmt.Errorf("%w: customer", ErrDraftMissing)
	}

	if number == "" {
		number = details.ReservationNumber
	}

	quote, err := s.pricing.Compute(details.EntryDate, details.ReturnDate, details.DailyRate)
	if err != nil {
		return Confirmation{}, err
	}

	conf := Confirmation{
		Details:        details,
		Customer:       customer,
		Pricing:        quote,
		PaymentMethod:  domain.DefaultPaymentMethod,
		PaymentOptions: PaymentOptions(),
		Editing:        edit,
	}

	if edit {
		existing, err := s.reservations.FindByNumberAndModel(ctx, number, model)
		switch {
		case err == nil:
			conf.existing = &existing
			conf.ExistingID = existing.ID
			if existing.PaymentMethod != "" {
				conf.PaymentMethod = existing.PaymentMethod
			}
		case !errors.Is(err, repository.ErrNotFound):
			return Confirmation{}, err
		}
	}
	if details.PaymentMethod != "" {
		conf.PaymentMethod = details.PaymentMethod
	}
	return conf, nil
}

// Save persists the confirmed reservation without producing a document.
func (s *ReservationService) Save(ctx context.Context, model string, input FinalizeInput) (domain.CompletedReservation, error) {
	return s.finalize(ctx, model, input)
}

// Send persists the reservation, renders its document, moves the counter
// forward and ends the numbering session. Only one Send runs at a time.
func (s *ReservationService) Send(ctx context.Context, model string, input FinalizeInput) (Document, error) {
	if !s.exporting.CompareAndSwap(false, true) {
		return Document{}, ErrExportInProgress
	}
	defer s.exporting.Store(false)

	res, err := s.finalize(ctx, model, input)
	if err != nil {
		return Document{}, err
	}

	doc, err := s.render(res)
	if err != nil {
		return Document{}, err
	}

	s.counter.CommitIfAhead(ctx, model, res.ReservationNumber)
	s.counter.ClearSession(ctx, model)
	return doc, nil
}

func (s *ReservationService) finalize(ctx context.Context, model string, input FinalizeInput) (domain.CompletedReservation, error) {
	conf, err := s.Confirmation(ctx, model, input.Number, input.Edit)
	if err != nil {
		return domain.CompletedReservation{}, err
	}
	if !conf.Customer.Complete() {
		return domain.CompletedReservation{}, ErrCustomerIncomplete
	}

	number := strings.TrimSpace(input.Number)
	if number == "" {
		number = conf.Details.ReservationNumber
	}
	if number == "" {
		return domain.CompletedReservation{}, ErrNumberRequired
	}

	payment := input.PaymentMethod
	if payment == "" {
		payment = conf.PaymentMethod
	}
	if !payment.Valid() {
		return domain.CompletedReservation{}, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, payment)
	}

	details := conf.Details
	details.PaymentMethod = payment
	kvstore.SetJSON(ctx, s.store, DetailsDraftKey, details)

	res := domain.CompletedReservation{
		ID:                s.newID(),
		ReservationNumber: number,
		Model:             model,
		CreatedAt:         s.now(),
		Details:           details,
		Customer:          conf.Customer,
		TotalDays:         conf.Pricing.Days,
		TotalAmount:       conf.Pricing.Total,
		DepositAmount:     conf.Pricing.Signal,
		RemainingAmount:   conf.Pricing.Remainder,
		PaymentMethod:     payment,
	}
	if existing := conf.existing; existing != nil {
		res.ID = existing.ID
		res.CreatedAt = existing.CreatedAt
		res.Validated = existing.Validated
		res.ValidatedAt = existing.ValidatedAt
	}
	res = res.UTC()

	if err := s.reservations.Save(ctx, res); err != nil {
		return domain.CompletedReservation{}, fmt.Errorf("save reservation: %w", err)
	}

	if err := s.publish(ctx, kafka.EventReservationSaved, res, ""); err != nil {
		log.Printf("WARNING: failed to publish %s for reservation %s: %v", kafka.EventReservationSaved, res.ID, err)
	}
	return res, nil
}

// List returns reservations newest first, keeping those where any of number,
// model, customer name, national id or phone contains query, ignoring case.
func (s *ReservationService) List(ctx context.Context, query string) ([]domain.CompletedReservation, error) {
	all, err := s.reservations.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return all, nil
	}

	filtered := make([]domain.CompletedReservation, 0, len(all))
	for _, r := range all {
		if matches(r, query) {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

func (s *ReservationService) Get(ctx context.Context, id string) (domain.CompletedReservation, error) {
	return s.reservations.FindByID(ctx, id)
}

func (s *ReservationService) Document(ctx context.Context, id string) (Document, error) {
	res, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		return Document{}, err
	}
	return s.render(res)
}

// Edit stages a stored reservation back into the drafts.
func (s *ReservationService) Edit(ctx context.Context, id string) (domain.CompletedReservation, error) {
	res, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		return domain.CompletedReservation{}, err
	}

	kvstore.SetJSON(ctx, s.store, DetailsDraftKey, res.Details)
	kvstore.SetJSON(ctx, s.store, CustomerDraftKey, res.Customer)
	return res, nil
}

func (s *ReservationService) ToggleValidation(ctx context.Context, id string) (ValidationResult, error) {
	res, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		return ValidationResult{}, err
	}

	res.Validated = !res.Validated
	if res.Validated {
		at := s.now()
		res.ValidatedAt = &at
	} else {
		res.ValidatedAt = nil
	}
	res = res.UTC()

	if err := s.reservations.Save(ctx, res); err != nil {
		return ValidationResult{}, fmt.Errorf("save reservation: %w", err)
	}

	result := ValidationResult{Reservation: res}
	eventType := kafka.EventReservationUnvalidated
	if res.Validated {
		eventType = kafka.EventReservationValidated
		if s.links != nil {
			result.CalendarURL = s.links.EventURL(res)
		}
	}
	if err := s.publish(ctx, eventType, res, result.CalendarURL); err != nil {
		log.Printf("WARNING: failed to publish %s for reservation %s: %v", eventType, res.ID, err)
	}
	return result, nil
}

func (s *ReservationService) Delete(ctx context.Context, id string) error {
	res, err := s.reservations.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.reservations.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if err := s.publish(ctx, kafka.EventReservationDeleted, res, ""); err != nil {
		log.Printf("WARNING: failed to publish %s for reservation %s: %v", kafka.EventReservationDeleted, res.ID, err)
	}
	return nil
}

func (s *ReservationService) Spreadsheet(ctx context.Context, query string) (Document, error) {
	list, err := s.List(ctx, query)
	if err != nil {
		return Document{}, err
	}

	var buf bytes.Buffer
	if err := export.WriteReservations(&buf, list, s.loc); err != nil {
		return Document{}, err
	}
	return Document{
		Filename:    "reservas_" + s.now().In(s.loc).Format("20060102") + ".xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Content:     buf.Bytes(),
	}, nil
}

func (s *ReservationService) render(res domain.CompletedReservation) (Document, error) {
	content, err := s.renderer.RenderBytes(res)
	if err != nil {
		return Document{}, err
	}
	return Document{
		Reservation: res,
		Filename:    s.renderer.Filename(res),
		ContentType: s.renderer.ContentType(),
		Content:     content,
	}, nil
}

func (s *ReservationService) publish(ctx context.Context, eventType string, res domain.CompletedReservation, calendarURL string) error {
	if s.producer == nil || s.reservationTopic == "" {
		return nil
	}
	event := kafka.ReservationEvent{
		Type:              eventType,
		ReservationID:     res.ID,
		ReservationNumber: res.ReservationNumber,
		Model:             res.Model,
		CustomerName:      res.Customer.FullName,
		Phone:             res.Customer.Phone,
		EntryDate:         res.Details.EntryDate,
		ReturnDate:        res.Details.ReturnDate,
		EntryTime:         res.Details.EntryTime,
		ReturnTime:        res.Details.ReturnTime,
		TotalAmount:       res.TotalAmount,
		DepositAmount:     res.DepositAmount,
		PaymentMethod:     string(res.PaymentMethod),
		CalendarURL:       calendarURL,
		OccurredAt:        s.now(),
	}
	if err := s.producer.Publish(ctx, s.reservationTopic, res.ID, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" && eventType == kafka.EventReservationValidated {
		return s.producer.Publish(ctx, s.notificationsTopic, res.ID, event)
	}
	return nil
}

func (s *ReservationService) today() time.Time {
	now := s.now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}

// ClockOptions lists every half hour of the day, "00:00" to "23:30".
func ClockOptions() []string {
	options := make([]string, 0, 48)
	for h := 0; h < 24; h++ {
		options = append(options, fmt.Sprintf("%02d:00", h), fmt.Sprintf("%02d:30", h))
	}
	return options
}

func PaymentOptions() []PaymentOption {
	methods := []domain.PaymentMethod{domain.PaymentBizum, domain.PaymentTransferencia, domain.PaymentContado}
	options := make([]PaymentOption, 0, len(methods))
	for _, m := range methods {
		options = append(options, PaymentOption{Value: m, Label: m.Label()})
	}
	return options
}

func matches(r domain.CompletedReservation, query string) bool {
	for _, field := range []string{r.ReservationNumber, r.Model, r.Customer.FullName, r.Customer.NationalID, r.Customer.Phone} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

var (
	_ WizardUseCase       = (*ReservationService)(nil)
	_ ReservationsUseCase = (*ReservationService)(nil)
)
