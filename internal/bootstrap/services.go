package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/caravalia/reservas/api"
	"github.com/caravalia/reservas/config"
	"github.com/caravalia/reservas/internal/calendar"
	"github.com/caravalia/reservas/internal/document"
	"github.com/caravalia/reservas/internal/export"
	"github.com/caravalia/reservas/internal/kafka"
	"github.com/caravalia/reservas/internal/kvstore"
	"github.com/caravalia/reservas/internal/pricing"
	"github.com/caravalia/reservas/internal/repository"
	"github.com/caravalia/reservas/internal/service/fleet"
	"github.com/caravalia/reservas/internal/service/reservation"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Services struct {
	Fleet        *fleet.FleetService
	Reservations *reservation.ReservationService
	Location     *time.Location

	closers []func() error
}

// NewServices opens the configured storage and wires the use cases on top of it.
func NewServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	s := &Services{Location: cfg.Locale.Location()}

	backend, closeBackend, err := kvstore.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	s.closers = append(s.closers, closeBackend)
	store := kvstore.NewAdapter(backend)

	reservations, err := s.openRepository(ctx, cfg, store)
	if err != nil {
		s.Close()
		return nil, err
	}

	links := calendar.NewLinkBuilder(cfg.Calendar.BaseURL, cfg.Business.CalendarLocation, s.Location)
	renderer, err := document.NewRenderer(cfg.Business,
		document.WithCalendarQR(links),
		document.WithDepositRate(cfg.Pricing.DepositRate),
		document.WithLocation(s.Location),
		document.WithExtension(cfg.Export.DocumentExt),
	)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("load document template: %w", err)
	}

	calculator := pricing.NewCalculator(
		pricing.WithDepositRate(cfg.Pricing.DepositRate),
		pricing.WithRoundTo(cfg.Pricing.DepositRoundTo),
		pricing.WithLocation(s.Location),
	)

	opts := []reservation.ReservationServiceOption{reservation.WithLocation(s.Location)}
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		s.closers = append(s.closers, producer.Close)

		checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := producer.CheckConnection(checkCtx); err != nil {
			log.Printf("WARNING: kafka unreachable, events will be retried per publish: %v", err)
		}
		cancel()

		opts = append(opts,
			reservation.WithProducer(producer, cfg.Kafka.ReservationTopic),
			reservation.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		)
	}

	s.Fleet = fleet.NewFleetService(cfg.Business)
	s.Reservations = reservation.NewReservationService(store, reservations, calculator, renderer, links, opts...)
	return s, nil
}

func (s *Services) openRepository(ctx context.Context, cfg *config.Config, store kvstore.Store) (repository.ReservationRepository, error) {
	if cfg.Repository.Backend != config.RepositoryPostgres {
		return repository.NewKVReservationRepository(store), nil
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s.closers = append(s.closers, func() error {
		pool.Close()
		return nil
	})

	repo := repository.NewReservationRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return repo, nil
}

func (s *Services) Handlers() Handlers {
	return Handlers{
		Models:       api.NewModelHandler(s.Fleet),
		Wizard:       api.NewWizardHandler(s.Reservations, s.Fleet, s.Location),
		Reservations: api.NewReservationHandler(s.Reservations),
	}
}

// Close releases resources in reverse order of acquisition.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Printf("close: %v", err)
		}
	}
	s.closers = nil
}

// Snapshot writes every stored reservation to a spreadsheet in cfg.Export.Dir.
// Storage is opened per call so a file backend written by another process is
// read fresh.
func Snapshot(ctx context.Context, cfg *config.Config, at time.Time) (string, error) {
	s := &Services{Location: cfg.Locale.Location()}
	defer s.Close()

	backend, closeBackend, err := kvstore.Open(cfg)
	if err != nil {
		return "", fmt.Errorf("open storage: %w", err)
	}
	s.closers = append(s.closers, closeBackend)

	reservations, err := s.openRepository(ctx, cfg, kvstore.NewAdapter(backend))
	if err != nil {
		return "", err
	}
	all, err := reservations.ListAll(ctx)
	if err != nil {
		return "", fmt.Errorf("list reservations: %w", err)
	}
	return export.SaveSnapshot(cfg.Export.Dir, all, s.Location, at)
}
