package repository

import (
	"context"
	"errors"

	"github.com/caravalia/reservas/internal/domain"
)

var ErrNotFound = errors.New("reservation not found")

type ReservationRepository interface {
	// Save replaces the record with the same ID in place, or appends it.
	Save(ctx context.Context, r domain.CompletedReservation) error
	// ListAll returns records in insertion order.
	ListAll(ctx context.Context) ([]domain.CompletedReservation, error)
	FindByID(ctx context.Context, id string) (domain.CompletedReservation, error)
	// FindByNumberAndModel returns the first inserted match.
	FindByNumberAndModel(ctx context.Context, number, model string) (domain.CompletedReservation, error)
	// DeleteByID is a no-op for unknown IDs.
	DeleteByID(ctx context.Context, id string) error
}
