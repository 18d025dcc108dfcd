package repository

import (
	"context"
	"encoding/json"
	"log"

	"github.com/caravalia/reservas/internal/domain"
	"github.com/caravalia/reservas/internal/kvstore"
)

const AllReservationsKey = "all-reservations"

// KVReservationRepository keeps the whole collection as one JSON array under a
// single key. Every mutation reads, edits and rewrites the full list, with no
// locking across processes.
type KVReservationRepository struct {
	store kvstore.Store
}

func NewKVReservationRepository(store kvstore.Store) *KVReservationRepository {
	return &KVReservationRepository{store: store}
}

func (r *KVReservationRepository) Save(ctx context.Context, res domain.CompletedReservation) error {
	all := r.load(ctx)

	replaced := false
	for i := range all {
		if all[i].ID == res.ID {
			all[i] = res
			replaced = true
			break
		}
	}
	if !replaced {
		for _, existing := range all {
			if existing.SameBooking(res.ReservationNumber, res.Model) {
				log.Printf("repository: reservation %s/%s already stored as %s, saving %s alongside", res.ReservationNumber, res.Model, existing.ID, res.ID)
				break
			}
		}
		all = append(all, res)
	}

	r.persist(ctx, all)
	return nil
}

func (r *KVReservationRepository) ListAll(ctx context.Context) ([]domain.CompletedReservation, error) {
	return r.load(ctx), nil
}

func (r *KVReservationRepository) FindByID(ctx context.Context, id string) (domain.CompletedReservation, error) {
	for _, res := range r.load(ctx) {
		if res.ID == id {
			return res, nil
		}
	}
	return domain.CompletedReservation{}, ErrNotFound
}

func (r *KVReservationRepository) FindByNumberAndModel(ctx context.Context, number, model string) (domain.CompletedReservation, error) {
	for _, res := range r.load(ctx) {
		if res.SameBooking(number, model) {
			return res, nil
		}
	}
	return domain.CompletedReservation{}, ErrNotFound
}

func (r *KVReservationRepository) DeleteByID(ctx context.Context, id string) error {
	all := r.load(ctx)

	kept := make([]domain.CompletedReservation, 0, len(all))
	for _, res := range all {
		if res.ID != id {
			kept = append(kept, res)
		}
	}

	r.persist(ctx, kept)
	return nil
}

func (r *KVReservationRepository) load(ctx context.Context) []domain.CompletedReservation {
	raw, ok := r.store.Get(ctx, AllReservationsKey)
	if !ok || raw == "" {
		return []domain.CompletedReservation{}
	}

	var all []domain.CompletedReservation
	if err := json.Unmarshal([]byte(raw), &all); err != nil {
		log.Printf("repository: %s is corrupt, treating as empty: %v", AllReservationsKey, err)
		return []domain.CompletedReservation{}
	}
	if all == nil {
		all = []domain.CompletedReservation{}
	}
	return all
}

func (r *KVReservationRepository) persist(ctx context.Context, all []domain.CompletedReservation) {
	data, err := json.Marshal(all)
	if err != nil {
		log.Printf("repository: encode reservations: %v", err)
		return
	}
	r.store.Set(ctx, AllReservationsKey, string(data))
}

var _ ReservationRepository = (*KVReservationRepository)(nil)
