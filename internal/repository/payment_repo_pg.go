package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/bookingdesk/internal/domain"
)

type PaymentRepository interface {
	CreatePayment(ctx context.Context, p *domain.Payment) error
	GetPayment(ctx context.Context, id int64) (*domain.Payment, error)
	ListPayments(ctx context.Context, bookingID int64) ([]domain.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id int64, from, to domain.PaymentStatus) error
}

const paymentColumns = `id, booking_id, amount::text, status, method, transaction_id, retry_of, created_at, updated_at`

func (r *pgRepository) CreatePayment(ctx context.Context, p *domain.Payment) error {
	err := r.q.QueryRow(ctx, `INSERT INTO payments (booking_id, amount, status, method, transaction_id, retry_of)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at, updated_at`,
		p.BookingID, p.Amount.String(), string(p.Status), p.Method, p.TransactionID, p.RetryOf).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *pgRepository) GetPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	var (
		p      domain.Payment
		amount string
		status string
	)
	err := r.q.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1`, id).
		Scan(&p.ID, &p.BookingID, &amount, &status, &p.Method, &p.TransactionID, &p.RetryOf, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("payment %d", id))
	}
	if p.Amount, err = parseNumeric(amount); err != nil {
		return nil, err
	}
	p.Status = domain.PaymentStatus(status)
	return &p, nil
}

func (r *pgRepository) ListPayments(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	rows, err := r.q.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE booking_id=$1 ORDER BY id`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		var (
			p      domain.Payment
			amount string
			status string
		)
		if err := rows.Scan(&p.ID, &p.BookingID, &amount, &status, &p.Method, &p.TransactionID, &p.RetryOf, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		if p.Amount, err = parseNumeric(amount); err != nil {
			return nil, err
		}
		p.Status = domain.PaymentStatus(status)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// UpdatePaymentStatus moves a payment only if it is still in from.
func (r *pgRepository) UpdatePaymentStatus(ctx context.Context, id int64, from, to domain.PaymentStatus) error {
	tag, err := r.q.Exec(ctx, `UPDATE payments SET status=$1, updated_at=now() WHERE id=$2 AND status=$3`,
		string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("update payment %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment %d is no longer %s: %w", id, from, domain.ErrConflict)
	}
	return nil
}
