package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/bookingdesk/internal/domain"
)

type AuditRepository interface {
	CreateAuditEntry(ctx context.Context, e *domain.AuditEntry) error
	ListAuditEntries(ctx context.Context, bookingID int64) ([]domain.AuditEntry, error)
}

// OutboxRepository persists commands with the transition that produced them so a crash
// between commit and publish loses nothing.
type OutboxRepository interface {
	EnqueueCommands(ctx context.Context, cmds []domain.Command) error
	ListUndispatched(ctx context.Context, limit int) ([]domain.OutboxMessage, error)
	MarkDispatched(ctx context.Context, id int64, at time.Time) error
	MarkAttempt(ctx context.Context, id int64) error
	MarkCommandDispatched(ctx context.Context, commandID string, at time.Time) error
}

func (r *pgRepository) CreateAuditEntry(ctx context.Context, e *domain.AuditEntry) error {
	_, err := r.q.Exec(ctx, `INSERT INTO audit_log (id, booking_id, action, reason, actor_id, actor_role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.BookingID, e.Action, e.Reason, e.ActorID, string(e.ActorRole), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *pgRepository) ListAuditEntries(ctx context.Context, bookingID int64) ([]domain.AuditEntry, error) {
	rows, err := r.q.Query(ctx, `SELECT id, booking_id, action, reason, actor_id, actor_role, created_at
		FROM audit_log WHERE booking_id=$1 ORDER BY created_at`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.AuditEntry, 0)
	for rows.Next() {
		var (
			e    domain.AuditEntry
			role string
		)
		if err := rows.Scan(&e.ID, &e.BookingID, &e.Action, &e.Reason, &e.ActorID, &role, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.ActorRole = domain.Role(role)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *pgRepository) EnqueueCommands(ctx context.Context, cmds []domain.Command) error {
	for _, cmd := range cmds {
		payload, err := json.Marshal(cmd)
		if err != nil {
			return fmt.Errorf("marshal command %s: %w", cmd.ID, err)
		}
		if _, err := r.q.Exec(ctx, `INSERT INTO outbox (command_id, command_type, booking_id, payload, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			cmd.ID.String(), string(cmd.Type), cmd.BookingID, payload, cmd.CreatedAt); err != nil {
			return fmt.Errorf("enqueue command %s: %w", cmd.ID, err)
		}
	}
	return nil
}

func (r *pgRepository) ListUndispatched(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	rows, err := r.q.Query(ctx, `SELECT id, payload, attempts, created_at FROM outbox
		WHERE dispatched_at IS NULL ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list outbox: %w", err)
	}
	defer rows.Close()

	msgs := make([]domain.OutboxMessage, 0)
	for rows.Next() {
		var (
			m       domain.OutboxMessage
			payload []byte
		)
		if err := rows.Scan(&m.ID, &payload, &m.Attempts, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox: %w", err)
		}
		if err := json.Unmarshal(payload, &m.Command); err != nil {
			return nil, fmt.Errorf("decode outbox %d: %w", m.ID, err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *pgRepository) MarkDispatched(ctx context.Context, id int64, at time.Time) error {
	if _, err := r.q.Exec(ctx, `UPDATE outbox SET dispatched_at=$1, attempts=attempts+1 WHERE id=$2`, at, id); err != nil {
		return fmt.Errorf("mark outbox %d dispatched: %w", id, err)
	}
	return nil
}

func (r *pgRepository) MarkAttempt(ctx context.Context, id int64) error {
	if _, err := r.q.Exec(ctx, `UPDATE outbox SET attempts=attempts+1 WHERE id=$1`, id); err != nil {
		return fmt.Errorf("mark outbox %d attempt: %w", id, err)
	}
	return nil
}

// MarkCommandDispatched is used after the inline publish that follows a commit.
func (r *pgRepository) MarkCommandDispatched(ctx context.Context, commandID string, at time.Time) error {
	if _, err := r.q.Exec(ctx, `UPDATE outbox SET dispatched_at=$1, attempts=attempts+1
		WHERE command_id=$2 AND dispatched_at IS NULL`, at, commandID); err != nil {
		return fmt.Errorf("mark command %s dispatched: %w", commandID, err)
	}
	return nil
}
