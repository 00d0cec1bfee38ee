package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/samirrijal/wanderlust/internal/core/domain"
)

// TripRepo implements ports.TripRepository.
type TripRepo struct {
	db *DB
}

func NewTripRepo(db *DB) *TripRepo {
	return &TripRepo{db: db}
}

func marshalRoadmap(it *domain.Itinerary) (any, error) {
	if it == nil {
		return nil, nil
	}
	data, err := json.Marshal(it)
	if err != nil {
		return nil, fmt.Errorf("marshal roadmap: %w", err)
	}
	return string(data), nil
}

func (r *TripRepo) Create(ctx context.Context, trip *domain.Trip) error {
	roadmap, err := marshalRoadmap(trip.Roadmap)
	if err != nil {
		return err
	}
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO trips (user_id, title, description, start_date, end_date, roadmap)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, trip.UserID, trip.Title, trip.Description, dateArg(trip.StartDate), dateArg(trip.EndDate), roadmap,
	).Scan(&trip.ID, &trip.CreatedAt, &trip.UpdatedAt)
}

const tripColumns = `id::text, user_id, title, description, start_date, end_date, roadmap, created_at, updated_at`

func scanTrip(row pgx.Row) (*domain.Trip, error) {
	var (
		t          domain.Trip
		start, end *time.Time
		roadmap    []byte
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &start, &end, &roadmap, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.StartDate = dateFrom(start)
	t.EndDate = dateFrom(end)
	if len(roadmap) > 0 {
		t.Roadmap = &domain.Itinerary{}
		if err := json.Unmarshal(roadmap, t.Roadmap); err != nil {
			return nil, fmt.Errorf("decode roadmap of trip %s: %w", t.ID, err)
		}
	}
	return &t, nil
}

func (r *TripRepo) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	trip, err := scanTrip(r.db.Pool.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id::text = $1`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrTripNotFound)
	}
	return trip, nil
}

func (r *TripRepo) ListByUser(ctx context.Context, userID string) ([]domain.Trip, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+tripColumns+`
		FROM trips WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []domain.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, *t)
	}
	return trips, rows.Err()
}

func (r *TripRepo) UpdateRoadmap(ctx context.Context, tripID string, roadmap *domain.Itinerary) error {
	return updateRoadmap(ctx, r.db.Pool, tripID, roadmap)
}

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// updateRoadmap stores roadmap and re-derives the trip span from its dates.
func updateRoadmap(ctx context.Context, db execer, tripID string, roadmap *domain.Itinerary) error {
	data, err := marshalRoadmap(roadmap)
	if err != nil {
		return err
	}
	start, end := domain.SpanFromRoadmap(roadmap)
	tag, err := db.Exec(ctx, `
		UPDATE trips
		SET roadmap = $2,
		    start_date = COALESCE($3, start_date),
		    end_date = COALESCE($4, end_date),
		    updated_at = now()
		WHERE id::text = $1
	`, tripID, data, dateArg(start), dateArg(end))
	if err != nil {
		return fmt.Errorf("update roadmap of trip %s: %w", tripID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTripNotFound
	}
	return nil
}
