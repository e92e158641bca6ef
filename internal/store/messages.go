package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrMessageNotFound is returned when a community message does not exist.
var ErrMessageNotFound = errors.New("message not found")

// Message is a visitor post on the community wall. Messages flagged by the
// screening filter start unapproved and stay hidden until an admin approves
// them.
type Message struct {
	ID               uuid.UUID `json:"id"`
	Nickname         string    `json:"nickname"`
	Email            string    `json:"email"`
	Message          string    `json:"message"`
	MarketingConsent bool      `json:"marketing_consent"`
	IsApproved       bool      `json:"is_approved"`
	CreatedAt        time.Time `json:"created_at"`
}

// Messages is the community wall repository.
type Messages struct {
	pool *pgxpool.Pool
}

// NewMessages creates the community messages repository.
func NewMessages(pool *pgxpool.Pool) *Messages {
	return &Messages{pool: pool}
}

const messageColumns = `id, nickname, email, message, marketing_consent,
	is_approved, created_at`

func scanMessage(row pgx.Row) (Message, error) {
	var m Message
	err := row.Scan(
		&m.ID, &m.Nickname, &m.Email, &m.Message, &m.MarketingConsent,
		&m.IsApproved, &m.CreatedAt,
	)
	return m, err
}

// List returns approved messages newest-first. includeUnapproved also
// returns messages held for moderation (admin view).
func (r *Messages) List(ctx context.Context, includeUnapproved bool) ([]Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+messageColumns+` FROM community_messages
		WHERE $1 OR is_approved
		ORDER BY created_at DESC`,
		includeUnapproved,
	)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// CreateMessageParams holds the fields for a new community message.
type CreateMessageParams struct {
	Nickname         string
	Email            string
	Message          string
	MarketingConsent bool
	Approved         bool
}

// Create inserts a new community message.
func (r *Messages) Create(ctx context.Context, params CreateMessageParams) (Message, error) {
	m := Message{
		ID:               uuid.New(),
		Nickname:         params.Nickname,
		Email:            params.Email,
		Message:          params.Message,
		MarketingConsent: params.MarketingConsent,
		IsApproved:       params.Approved,
		CreatedAt:        time.Now().UTC(),
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO community_messages (id, nickname, email, message,
			marketing_consent, is_approved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.Nickname, m.Email, m.Message, m.MarketingConsent,
		m.IsApproved, m.CreatedAt,
	)
	if err != nil {
		return Message{}, fmt.Errorf("inserting message from %q: %w", params.Nickname, err)
	}
	return m, nil
}

// Approve makes a held message publicly visible.
func (r *Messages) Approve(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE community_messages SET is_approved = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("approving message %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// Delete removes a community message.
func (r *Messages) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM community_messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting message %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}
