package booking

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/Domenick1991/bookingdesk/internal/domain"
	"github.com/Domenick1991/bookingdesk/internal/refund"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) AcquireBookingLock(ctx context.Context, bookingID int64, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, bookingID, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockLocker) ReleaseBookingLock(ctx context.Context, bookingID int64, token string) error {
	return m.Called(ctx, bookingID, token).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, cmds ...domain.Command) error {
	return m.Called(ctx, cmds).Error(0)
}

var (
	t0       = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx      = context.Background()
	customer = domain.Actor{ID: "user-1", Role: domain.RoleCustomer}
	stranger = domain.Actor{ID: "user-2", Role: domain.RoleCustomer}
	csa      = domain.Actor{ID: "agent-1", Role: domain.RoleCSA}
	admin    = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type fixture struct {
	svc       *BookingService
	store     *fakeStore
	locker    *MockLocker
	publisher *MockPublisher
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newFakeStore()
	store.d.flights[1] = domain.Flight{
		ID: 1, FlightNumber: "BD100", FromAirport: "LHR", ToAirport: "JFK",
		DepartureTime: t0.Add(72 * time.Hour), ArrivalTime: t0.Add(80 * time.Hour),
		BasePrice: dec("100"),
	}
	store.d.seats[10] = domain.FlightSeat{ID: 10, FlightID: 1, SeatNumber: "1A", PriceMultiplier: dec("1.5"), Status: domain.SeatStatusAvailable}
	store.d.seats[11] = domain.FlightSeat{ID: 11, FlightID: 1, SeatNumber: "1B", PriceMultiplier: dec("1"), Status: domain.SeatStatusAvailable}
	store.d.seats[20] = domain.FlightSeat{ID: 20, FlightID: 2, SeatNumber: "9C", PriceMultiplier: dec("1"), Status: domain.SeatStatusAvailable}

	locker := new(MockLocker)
	locker.On("AcquireBookingLock", mock.Anything, mock.Anything, mock.Anything).Return("token", true, nil).Maybe()
	locker.On("ReleaseBookingLock", mock.Anything, mock.Anything, "token").Return(nil).Maybe()

	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()

	refunds, err := refund.NewCalculator([]refund.Policy{
		{Name: "flexible", HoursBeforeDeparture: 48, Percentage: dec("90"), CancellationFee: dec("10")},
		{Name: "standard", HoursBeforeDeparture: 24, Percentage: dec("50"), CancellationFee: dec("25")},
		{Name: "late", HoursBeforeDeparture: 0, Percentage: dec("0"), CancellationFee: dec("0")},
	})
	require.NoError(t, err)

	f := &fixture{store: store, locker: locker, publisher: publisher, now: t0}
	f.svc = NewBookingService(store, locker, publisher, quietLogger(),
		WithClock(func() time.Time { return f.now }),
		WithRefundCalculator(refunds),
	)
	return f
}

func (f *fixture) seedBooking(status domain.BookingStatus, userID string) domain.Booking {
	hold := f.now.Add(time.Hour)
	b := domain.Booking{
		Reference:   NewReference(),
		UserID:      userID,
		FlightID:    1,
		Status:      status,
		BookingDate: f.now,
		HoldExpiry:  &hold,
	}
	_ = f.store.CreateBooking(ctx, &b)
	return b
}

func (f *fixture) setHold(bookingID int64, hold time.Time) {
	b := f.store.d.bookings[bookingID]
	b.HoldExpiry = &hold
	f.store.d.bookings[bookingID] = b
}

// seatPassenger adds a passenger on seatID and puts the seat in status, held by holder.
func (f *fixture) seatPassenger(bookingID, seatID int64, status domain.SeatStatus, holder int64) {
	seat := seatID
	_ = f.store.CreatePassenger(ctx, &domain.Passenger{
		BookingID: bookingID, FirstName: "Ada", LastName: "Lovelace", Type: domain.PassengerAdult, FlightSeatID: &seat,
	})
	s := f.store.d.seats[seatID]
	s.Status = status
	if status == domain.SeatStatusAvailable {
		s.HeldBy = nil
	} else {
		h := holder
		s.HeldBy = &h
	}
	f.store.d.seats[seatID] = s
}

func (f *fixture) seedPayment(bookingID int64, status domain.PaymentStatus, amount string) domain.Payment {
	p := domain.Payment{BookingID: bookingID, Amount: dec(amount), Status: status, Method: "card", TransactionID: "tx-" + amount}
	_ = f.store.CreatePayment(ctx, &p)
	return p
}

func (f *fixture) booking(id int64) domain.Booking {
	return f.store.d.bookings[id]
}

func (f *fixture) seat(id int64) domain.FlightSeat {
	return f.store.d.seats[id]
}

func (f *fixture) payment(id int64) domain.Payment {
	return f.store.d.payments[id]
}

// undispatched counts outbox rows the relay still has to deliver.
func (f *fixture) undispatched() int {
	n := 0
	for _, m := range f.store.d.outbox {
		if m.DispatchedAt == nil {
			n++
		}
	}
	return n
}
