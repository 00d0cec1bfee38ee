package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/wanderlust/internal/core/domain"
)

// ExchangeRepo implements ports.ExchangeRecorder. Both messages and the
// roadmap update are written in one transaction.
type ExchangeRepo struct {
	db *DB
}

func NewExchangeRepo(db *DB) *ExchangeRepo {
	return &ExchangeRepo{db: db}
}

func (r *ExchangeRepo) Record(ctx context.Context, ex *domain.Exchange) error {
	if ex.TripID == "" {
		return fmt.Errorf("%w: trip id is required", domain.ErrValidation)
	}
	ex.User.TripID = ex.TripID
	ex.Assistant.TripID = ex.TripID

	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		for _, msg := range []*domain.Message{&ex.User, &ex.Assistant} {
			err := tx.QueryRow(ctx, insertMessageSQL, ex.TripID, msg.Content, string(msg.Role)).
				Scan(&msg.ID, &msg.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert %s message: %w", msg.Role, err)
			}
		}
		if ex.Roadmap == nil {
			return nil
		}
		return updateRoadmap(ctx, tx, ex.TripID, ex.Roadmap)
	})
}
