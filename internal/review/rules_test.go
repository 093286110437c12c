package review

import (
	"testing"
	"time"

	"github.com/Domenick1991/bookingdesk/internal/domain"
	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func TestClassify(t *testing.T) {
	testCases := []struct {
		name string
		snap domain.BookingSnapshot
		want Classification
	}{
		{
			name: "pending without passengers",
			snap: domain.BookingSnapshot{Booking: domain.Booking{Status: domain.BookingStatusPending}, Payments: []domain.Payment{{ID: 1}}},
			want: Incomplete,
		},
		{
			name: "pending without payments",
			snap: domain.BookingSnapshot{Booking: domain.Booking{Status: domain.BookingStatusPending}, Passengers: []domain.Passenger{{ID: 1}}},
			want: Incomplete,
		},
		{
			name: "pending with both",
			snap: domain.BookingSnapshot{Booking: domain.Booking{Status: domain.BookingStatusPending}, Passengers: []domain.Passenger{{ID: 1}}, Payments: []domain.Payment{{ID: 1}}},
			want: CompletePending,
		},
		{name: "paid", snap: domain.BookingSnapshot{Booking: domain.Booking{Status: domain.BookingStatusPaid}}, want: Confirmed},
		{name: "cancelled", snap: domain.BookingSnapshot{Booking: domain.Booking{Status: domain.BookingStatusCancelled}}, want: Cancelled},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.snap))
		})
	}
}

func TestIsExpired(t *testing.T) {
	assert.True(t, IsExpired(domain.Booking{HoldExpiry: ptr(now.Add(-time.Minute))}, now))
	assert.False(t, IsExpired(domain.Booking{HoldExpiry: ptr(now.Add(time.Minute))}, now))
	assert.False(t, IsExpired(domain.Booking{}, now))
}

func TestNeedsDuplicateCheck(t *testing.T) {
	b := domain.Booking{ID: 3, UserID: "u1", FlightID: 9, BookingDate: now}
	candidates := []domain.Booking{
		{ID: 1, UserID: "u1", FlightID: 9, BookingDate: now.Add(-5 * time.Minute)},
		{ID: 2, UserID: "u1", FlightID: 9, BookingDate: now.Add(-2 * time.Hour)},
		{ID: 4, UserID: "u2", FlightID: 9, BookingDate: now},
		{ID: 5, UserID: "u1", FlightID: 8, BookingDate: now},
		{ID: 6, UserID: "u1", FlightID: 9, BookingDate: now.Add(-time.Minute), Status: domain.BookingStatusCancelled},
		{ID: 3, UserID: "u1", FlightID: 9, BookingDate: now},
	}

	dup, related := NeedsDuplicateCheck(b, candidates, 10*time.Minute)

	assert.True(t, dup)
	assert.Equal(t, []int64{1}, related)

	dup, related = NeedsDuplicateCheck(b, candidates[1:], 10*time.Minute)
	assert.False(t, dup)
	assert.Empty(t, related)
}

func TestExtendHold(t *testing.T) {
	b := domain.Booking{Status: domain.BookingStatusPending, HoldExpiry: ptr(now.Add(time.Hour))}

	assert.True(t, CanExtendHold(b, now))
	assert.Equal(t, now.Add(25*time.Hour), ExtendedHold(b, 24*time.Hour, now))

	expired := domain.Booking{Status: domain.BookingStatusPending, HoldExpiry: ptr(now.Add(-time.Hour))}
	assert.False(t, CanExtendHold(expired, now))

	confirmed := domain.Booking{Status: domain.BookingStatusConfirmed}
	assert.False(t, CanExtendHold(confirmed, now))

	assert.Equal(t, now.Add(24*time.Hour), ExtendedHold(domain.Booking{Status: domain.BookingStatusPending}, 24*time.Hour, now))
}

func TestSeatConflicts(t *testing.T) {
	s := domain.BookingSnapshot{
		Booking: domain.Booking{ID: 1, Status: domain.BookingStatusPending},
		Passengers: []domain.Passenger{
			{ID: 1, FlightSeatID: ptr(int64(10))},
			{ID: 2, FlightSeatID: ptr(int64(11))},
			{ID: 3, FlightSeatID: ptr(int64(12))},
		},
		Seats: map[int64]domain.FlightSeat{
			10: {ID: 10, Status: domain.SeatStatusBooked, HeldBy: ptr(int64(2))},
			11: {ID: 11, Status: domain.SeatStatusBooked, HeldBy: ptr(int64(3))},
			12: {ID: 12, Status: domain.SeatStatusReserved, HeldBy: ptr(int64(1))},
		},
		Holders: map[int64]domain.BookingStatus{
			2: domain.BookingStatusConfirmed,
			3: domain.BookingStatusPending,
		},
	}

	assert.Equal(t, []int64{10}, SeatConflicts(s))

	s.Booking.Status = domain.BookingStatusConfirmed
	assert.Empty(t, SeatConflicts(s))
}

func TestRecommend(t *testing.T) {
	incomplete := domain.BookingSnapshot{Booking: domain.Booking{Status: domain.BookingStatusPending, HoldExpiry: ptr(now.Add(time.Hour))}}
	actions := Recommend(incomplete, now)
	assert.Contains(t, actions, ActionContactCustomer)
	assert.Contains(t, actions, ActionCancel)
	assert.NotContains(t, actions, ActionConfirm)

	paid := domain.BookingSnapshot{
		Booking:    domain.Booking{Status: domain.BookingStatusPending},
		Passengers: []domain.Passenger{{ID: 1}},
		Payments:   []domain.Payment{{ID: 1, Status: domain.PaymentStatusCompleted}},
	}
	assert.Equal(t, ActionConfirm, Recommend(paid, now)[0])

	expired := incomplete
	expired.Booking.HoldExpiry = ptr(now.Add(-time.Hour))
	assert.Equal(t, []Action{ActionCancel}, Recommend(expired, now))

	assert.Nil(t, Recommend(domain.BookingSnapshot{Booking: domain.Booking{Status: domain.BookingStatusCancelled}}, now))
}
