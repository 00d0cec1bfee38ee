package postgres

import (
	"context"
	"fmt"

	"github.com/samirrijal/wanderlust/internal/core/domain"
)

// MessageRepo implements ports.MessageRepository.
type MessageRepo struct {
	db *DB
}

func NewMessageRepo(db *DB) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) Insert(ctx context.Context, msg *domain.Message) error {
	return r.db.Pool.QueryRow(ctx, insertMessageSQL, msg.TripID, msg.Content, string(msg.Role)).
		Scan(&msg.ID, &msg.CreatedAt)
}

const insertMessageSQL = `
	INSERT INTO messages (trip_id, content, role)
	VALUES ($1::uuid, $2, $3)
	RETURNING id, created_at
`

func (r *MessageRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	return err
}

func (r *MessageRepo) ListByTrip(ctx context.Context, tripID string) ([]domain.Message, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, trip_id::text, content, role, created_at
		FROM messages WHERE trip_id::text = $1
		ORDER BY created_at, id
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var (
			m    domain.Message
			role string
		)
		if err := rows.Scan(&m.ID, &m.TripID, &m.Content, &role, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Role = domain.Role(role)
		if !m.Role.Valid() {
			return nil, fmt.Errorf("message %d has unknown role %q", m.ID, role)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
