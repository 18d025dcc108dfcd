package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/caravalia/reservas/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGReservationRepository stores one row per reservation. Save is a single-row
// upsert and seq keeps the original insertion order across edits.
type PGReservationRepository struct {
	db *pgxpool.Pool
}

func NewReservationRepository(db *pgxpool.Pool) *PGReservationRepository {
	return &PGReservationRepository{db: db}
}

func (r *PGReservationRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS reservations (
            id                 TEXT PRIMARY KEY,
            seq                BIGSERIAL,
            reservation_number TEXT NOT NULL,
            model              TEXT NOT NULL,
            created_at         TIMESTAMPTZ NOT NULL,
            payload            JSONB NOT NULL,
            updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
        )`)
	if err != nil {
		return fmt.Errorf("create reservations table: %w", err)
	}

	_, err = r.db.Exec(ctx, `CREATE INDEX IF NOT EXISTS reservations_number_model_idx ON reservations (reservation_number, model)`)
	if err != nil {
		return fmt.Errorf("create reservations index: %w", err)
	}
	return nil
}

func (r *PGReservationRepository) Save(ctx context.Context, res domain.CompletedReservation) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode reservation: %w", err)
	}

	_, err = r.db.Exec(ctx, `
        INSERT INTO reservations (id, reservation_number, model, created_at, payload)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (id) DO UPDATE
        SET reservation_number = EXCLUDED.reservation_number,
            model = EXCLUDED.model,
            payload = EXCLUDED.payload,
            updated_at = now()`,
		res.ID, res.ReservationNumber, res.Model, res.CreatedAt, payload)
	return err
}

func (r *PGReservationRepository) ListAll(ctx context.Context) ([]domain.CompletedReservation, error) {
	rows, err := r.db.Query(ctx, `SELECT payload FROM reservations ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	all := []domain.CompletedReservation{}
	for rows.Next() {
		res, err := scanPayload(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, res)
	}
	return all, rows.Err()
}

func (r *PGReservationRepository) FindByID(ctx context.Context, id string) (domain.CompletedReservation, error) {
	row := r.db.QueryRow(ctx, `SELECT payload FROM reservations WHERE id=$1`, id)
	return scanOne(row)
}

func (r *PGReservationRepository) FindByNumberAndModel(ctx context.Context, number, model string) (domain.CompletedReservation, error) {
	row := r.db.QueryRow(ctx, `SELECT payload FROM reservations WHERE reservation_number=$1 AND model=$2 ORDER BY seq LIMIT 1`, number, model)
	return scanOne(row)
}

func (r *PGReservationRepository) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM reservations WHERE id=$1`, id)
	return err
}

func scanOne(row pgx.Row) (domain.CompletedReservation, error) {
	res, err := scanPayload(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CompletedReservation{}, ErrNotFound
	}
	return res, err
}

func scanPayload(row pgx.Row) (domain.CompletedReservation, error) {
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		return domain.CompletedReservation{}, err
	}

	var res domain.CompletedReservation
	if err := json.Unmarshal(payload, &res); err != nil {
		return domain.CompletedReservation{}, fmt.Errorf("decode reservation: %w", err)
	}
	return res, nil
}

var _ ReservationRepository = (*PGReservationRepository)(nil)
