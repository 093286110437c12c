package booking

import (
	"testing"
	"time"

	"github.com/Domenick1991/bookingdesk/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentLifecycle(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(domain.BookingStatusPending, "user-1")
	f.seatPassenger(b.ID, 10, domain.SeatStatusReserved, b.ID)

	p, err := f.svc.InitiatePayment(ctx, b.ID, PaymentInput{Amount: dec("172.50"), Method: "card"}, customer)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, p.Status)
	assert.NotEmpty(t, p.TransactionID)

	p, err = f.svc.UpdatePaymentStatus(ctx, p.ID, "success", csa)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, p.Status)
	assert.Equal(t, domain.BookingStatusConfirmed, f.booking(b.ID).Status)
	assert.Equal(t, []domain.CommandType{domain.CommandSendReceipt}, f.store.outboxOf(b.ID))

	_, err = f.svc.UpdatePaymentStatus(ctx, p.ID, "verified", csa)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusPaid, f.booking(b.ID).Status)
	assert.Equal(t, domain.SeatStatusBooked, f.seat(10).Status, "a paid booking has its seats booked")
	assert.Equal(t, b.ID, *f.seat(10).HeldBy)

	got, err := f.svc.UpdateStatus(ctx, b.ID, StatusInput{Status: "verified"}, csa)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusVerified, got.Status)
}

func TestInitiatePayment_DefaultsToBookingTotal(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(domain.BookingStatusPending, "user-1")
	seat := int64(10)
	_, err := f.svc.AddPassenger(ctx, b.ID, AddPassengerInput{FirstName: "Ada", LastName: "Lovelace", FlightSeatID: &seat}, customer)
	require.NoError(t, err)

	p, err := f.svc.InitiatePayment(ctx, b.ID, PaymentInput{Method: "card"}, customer)

	require.NoError(t, err)
	assert.Equal(t, "172.5", p.Amount.String())
}

func TestInitiatePayment_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		open    bool
		input   PaymentInput
		actor   domain.Actor
		wantErr error
	}{
		{name: "no method", input: PaymentInput{Amount: dec("10")}, actor: customer, wantErr: domain.ErrValidation},
		{name: "zero total", input: PaymentInput{Method: "card"}, actor: customer, wantErr: domain.ErrValidation},
		{name: "open attempt exists", open: true, input: PaymentInput{Amount: dec("10"), Method: "card"}, actor: customer, wantErr: domain.ErrInvalidTransition},
		{name: "someone else's booking", input: PaymentInput{Amount: dec("10"), Method: "card"}, actor: stranger, wantErr: domain.ErrNotAuthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			b := f.seedBooking(domain.BookingStatusPending, "user-1")
			if tt.open {
				f.seedPayment(b.ID, domain.PaymentStatusPending, "10")
			}
			before := len(f.store.d.payments)

			_, err := f.svc.InitiatePayment(ctx, b.ID, tt.input, tt.actor)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Len(t, f.store.d.payments, before)
		})
	}
}

func TestUpdatePaymentStatus_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from domain.PaymentStatus
		to   string
	}{
		{name: "refunded to pending", from: domain.PaymentStatusRefunded, to: "pending"},
		{name: "refunded to completed", from: domain.PaymentStatusRefunded, to: "completed"},
		{name: "completed to pending", from: domain.PaymentStatusCompleted, to: "pending"},
		{name: "failed to completed", from: domain.PaymentStatusFailed, to: "completed"},
		{name: "voided to pending", from: domain.PaymentStatusVoided, to: "pending"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			b := f.seedBooking(domain.BookingStatusConfirmed, "user-1")
			p := f.seedPayment(b.ID, tt.from, "100")

			_, err := f.svc.UpdatePaymentStatus(ctx, p.ID, tt.to, csa)

			assert.ErrorIs(t, err, domain.ErrInvalidTransition)
			assert.EqualError(t, err, "Invalid transition: Cannot change from "+string(tt.from)+" to "+tt.to)
			assert.Equal(t, tt.from, f.payment(p.ID).Status)
			assert.Equal(t, domain.BookingStatusConfirmed, f.booking(b.ID).Status)
			assert.Empty(t, f.store.d.outbox)
		})
	}
}

func TestUpdatePaymentStatus_CustomerRejected(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(domain.BookingStatusPending, "user-1")
	p := f.seedPayment(b.ID, domain.PaymentStatusPending, "100")

	_, err := f.svc.UpdatePaymentStatus(ctx, p.ID, "completed", customer)

	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	assert.Equal(t, domain.PaymentStatusPending, f.payment(p.ID).Status)
}

func TestProcessRefund(t *testing.T) {
	tests := []struct {
		name       string
		now        time.Time
		wantAmount string
		wantPolicy string
	}{
		{name: "three days out", now: t0, wantAmount: "440", wantPolicy: "flexible"},
		{name: "thirty hours out", now: t0.Add(42 * time.Hour), wantAmount: "225", wantPolicy: "standard"},
		{name: "an hour out", now: t0.Add(71 * time.Hour), wantAmount: "0", wantPolicy: "late"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.now = tt.now
			b := f.seedBooking(domain.BookingStatusCancelled, "user-1")
			p := f.seedPayment(b.ID, domain.PaymentStatusCompleted, "500")

			res, err := f.svc.ProcessRefund(ctx, p.ID, csa)

			require.NoError(t, err)
			assert.Equal(t, domain.PaymentStatusRefunded, res.Payment.Status)
			assert.Equal(t, tt.wantPolicy, res.Calculation.PolicyApplied)
			assert.True(t, decimal.RequireFromString(tt.wantAmount).Equal(res.Calculation.Amount))
			assert.Equal(t, domain.BookingStatusCancelled, f.booking(b.ID).Status, "refunds do not resurrect the booking")

			require.Len(t, f.store.d.outbox, 1)
			cmd := f.store.d.outbox[0].Command
			assert.Equal(t, domain.CommandProcessRefund, cmd.Type)
			assert.True(t, decimal.RequireFromString(tt.wantAmount).Equal(cmd.Amount))
		})
	}
}

func TestProcessRefund_CancelsPaidBooking(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(domain.BookingStatusPaid, "user-1")
	f.seatPassenger(b.ID, 10, domain.SeatStatusBooked, b.ID)
	p := f.seedPayment(b.ID, domain.PaymentStatusVerified, "172.50")

	res, err := f.svc.ProcessRefund(ctx, p.ID, csa)

	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusRefunded, res.Payment.Status)
	assert.Equal(t, "145.25", res.Calculation.Amount.String())
	got := f.booking(b.ID)
	assert.Equal(t, domain.BookingStatusCancelled, got.Status)
	assert.Equal(t, domain.CancelReasonRefunded, got.CancelReason)
	assert.Equal(t, domain.SeatStatusAvailable, f.seat(10).Status, "a refunded booking gives its seat back")
	assert.Nil(t, f.seat(10).HeldBy)
	assert.Equal(t, []domain.CommandType{domain.CommandProcessRefund, domain.CommandBookingCancelled}, f.store.outboxOf(b.ID))
}

func TestProcessRefund_NoPolicies(t *testing.T) {
	f := newFixture(t)
	f.svc = NewBookingService(f.store, f.locker, f.publisher, quietLogger(),
		WithClock(func() time.Time { return f.now }))
	b := f.seedBooking(domain.BookingStatusConfirmed, "user-1")
	p := f.seedPayment(b.ID, domain.PaymentStatusCompleted, "500")

	_, err := f.svc.ProcessRefund(ctx, p.ID, csa)

	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.ErrorContains(t, err, "No refund available for this booking")
	assert.Equal(t, domain.PaymentStatusCompleted, f.payment(p.ID).Status)
	assert.Equal(t, domain.BookingStatusConfirmed, f.booking(b.ID).Status)
	assert.Empty(t, f.store.d.outbox)
}

func TestRetryPayment(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(domain.BookingStatusPending, "user-1")
	failed := f.seedPayment(b.ID, domain.PaymentStatusFailed, "172.50")

	retry, err := f.svc.RetryPayment(ctx, failed.ID, customer)

	require.NoError(t, err)
	assert.NotEqual(t, failed.ID, retry.ID)
	assert.Equal(t, domain.PaymentStatusPending, retry.Status)
	assert.Equal(t, failed.ID, *retry.RetryOf)
	assert.NotEqual(t, failed.TransactionID, retry.TransactionID)
	assert.Equal(t, domain.PaymentStatusFailed, f.payment(failed.ID).Status)
	assert.Len(t, f.store.d.payments, 2)

	_, err = f.svc.RetryPayment(ctx, failed.ID, customer)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "the retry is still open")
}

func TestRetryPayment_OnlyFailed(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(domain.BookingStatusPending, "user-1")
	p := f.seedPayment(b.ID, domain.PaymentStatusPending, "100")

	_, err := f.svc.RetryPayment(ctx, p.ID, customer)

	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Len(t, f.store.d.payments, 1)
}

func TestCancelPayment_ReleasesSeats(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(domain.BookingStatusPending, "user-1")
	f.seatPassenger(b.ID, 10, domain.SeatStatusReserved, b.ID)
	p := f.seedPayment(b.ID, domain.PaymentStatusFailed, "172.50")

	got, err := f.svc.CancelPayment(ctx, p.ID, csa)

	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusVoided, got.Status)
	assert.Equal(t, domain.SeatStatusAvailable, f.seat(10).Status)
	assert.Equal(t, domain.BookingStatusPending, f.booking(b.ID).Status)
	assert.Equal(t, []domain.CommandType{domain.CommandPaymentVoided}, f.store.outboxOf(b.ID))
}

func TestGetPayment(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(domain.BookingStatusPending, "user-1")
	p := f.seedPayment(b.ID, domain.PaymentStatusPending, "100")

	got, err := f.svc.GetPayment(ctx, p.ID, customer)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = f.svc.GetPayment(ctx, p.ID, stranger)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	_, err = f.svc.GetPayment(ctx, 424242, csa)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
