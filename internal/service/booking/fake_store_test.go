package booking

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/Domenick1991/bookingdesk/internal/domain"
	"github.com/Domenick1991/bookingdesk/internal/repository"
)

// fakeStore keeps everything in memory. WithinTx restores the previous state when fn fails.
type fakeStore struct {
	d *fakeData

	failAudit   error
	failEnqueue error
	userLocks   []string
}

type fakeData struct {
	nextID     int64
	flights    map[int64]domain.Flight
	bookings   map[int64]domain.Booking
	passengers []domain.Passenger
	payments   map[int64]domain.Payment
	seats      map[int64]domain.FlightSeat
	movements  []domain.SeatMovement
	audit      []domain.AuditEntry
	outbox     []domain.OutboxMessage
}

func newFakeStore() *fakeStore {
	return &fakeStore{d: &fakeData{
		nextID:   1000,
		flights:  map[int64]domain.Flight{},
		bookings: map[int64]domain.Booking{},
		payments: map[int64]domain.Payment{},
		seats:    map[int64]domain.FlightSeat{},
	}}
}

func (d *fakeData) clone() *fakeData {
	c := *d
	c.flights = maps.Clone(d.flights)
	c.bookings = maps.Clone(d.bookings)
	c.payments = maps.Clone(d.payments)
	c.seats = maps.Clone(d.seats)
	c.passengers = slices.Clone(d.passengers)
	c.movements = slices.Clone(d.movements)
	c.audit = slices.Clone(d.audit)
	c.outbox = slices.Clone(d.outbox)
	return &c
}

func (s *fakeStore) id() int64 {
	s.d.nextID++
	return s.d.nextID
}

func (s *fakeStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repo repository.Repository) error) error {
	backup := s.d.clone()
	if err := fn(ctx, s); err != nil {
		s.d = backup
		return err
	}
	return nil
}

func (s *fakeStore) CreateBooking(ctx context.Context, b *domain.Booking) error {
	b.ID = s.id()
	b.Version = 1
	s.d.bookings[b.ID] = *b
	return nil
}

func (s *fakeStore) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	b, ok := s.d.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
	}
	return &b, nil
}

func (s *fakeStore) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	for _, b := range s.d.bookings {
		if b.Reference == reference {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) UpdateBooking(ctx context.Context, b *domain.Booking) error {
	stored, ok := s.d.bookings[b.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != b.Version {
		return fmt.Errorf("booking %d: %w", b.ID, domain.ErrConflict)
	}
	b.Version++
	s.d.bookings[b.ID] = *b
	return nil
}

func (s *fakeStore) sortedBookings(keep func(domain.Booking) bool) []domain.Booking {
	out := make([]domain.Booking, 0)
	for _, b := range s.d.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *fakeStore) ListPendingExpiredBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	return s.sortedBookings(func(b domain.Booking) bool {
		return b.Status == domain.BookingStatusPending && b.HoldExpiry != nil && b.HoldExpiry.Before(deadline)
	}), nil
}

func (s *fakeStore) ListByStatus(ctx context.Context, status domain.BookingStatus) ([]domain.Booking, error) {
	return s.sortedBookings(func(b domain.Booking) bool { return b.Status == status }), nil
}

func (s *fakeStore) LockUserBookings(ctx context.Context, userID string) error {
	s.userLocks = append(s.userLocks, userID)
	return nil
}

func (s *fakeStore) ListUserFlightBookingsSince(ctx context.Context, userID string, flightID int64, since time.Time) ([]domain.Booking, error) {
	return s.sortedBookings(func(b domain.Booking) bool {
		return b.UserID == userID && b.FlightID == flightID && !b.BookingDate.Before(since)
	}), nil
}

func (s *fakeStore) CreatePassenger(ctx context.Context, p *domain.Passenger) error {
	p.ID = s.id()
	s.d.passengers = append(s.d.passengers, *p)
	return nil
}

func (s *fakeStore) ListPassengers(ctx context.Context, bookingID int64) ([]domain.Passenger, error) {
	out := make([]domain.Passenger, 0)
	for _, p := range s.d.passengers {
		if p.BookingID == bookingID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeStore) CreatePayment(ctx context.Context, p *domain.Payment) error {
	p.ID = s.id()
	s.d.payments[p.ID] = *p
	return nil
}

func (s *fakeStore) GetPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	p, ok := s.d.payments[id]
	if !ok {
		return nil, fmt.Errorf("payment %d: %w", id, domain.ErrNotFound)
	}
	return &p, nil
}

func (s *fakeStore) ListPayments(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	out := make([]domain.Payment, 0)
	for _, p := range s.d.payments {
		if p.BookingID == bookingID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) UpdatePaymentStatus(ctx context.Context, id int64, from, to domain.PaymentStatus) error {
	p, ok := s.d.payments[id]
	if !ok || p.Status != from {
		return fmt.Errorf("payment %d: %w", id, domain.ErrConflict)
	}
	p.Status = to
	s.d.payments[id] = p
	return nil
}

func (s *fakeStore) ListFlights(ctx context.Context) ([]domain.Flight, error) {
	out := slices.Collect(maps.Values(s.d.flights))
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) GetFlight(ctx context.Context, id int64) (*domain.Flight, error) {
	f, ok := s.d.flights[id]
	if !ok {
		return nil, fmt.Errorf("flight %d: %w", id, domain.ErrNotFound)
	}
	return &f, nil
}

func (s *fakeStore) GetSeat(ctx context.Context, id int64) (*domain.FlightSeat, error) {
	seat, ok := s.d.seats[id]
	if !ok {
		return nil, fmt.Errorf("seat %d: %w", id, domain.ErrNotFound)
	}
	return &seat, nil
}

func (s *fakeStore) GetSeats(ctx context.Context, ids []int64) (map[int64]domain.FlightSeat, error) {
	out := make(map[int64]domain.FlightSeat, len(ids))
	for _, id := range ids {
		if seat, ok := s.d.seats[id]; ok {
			out[id] = seat
		}
	}
	return out, nil
}

func (s *fakeStore) SaveSeat(ctx context.Context, seat *domain.FlightSeat) error {
	s.d.seats[seat.ID] = *seat
	return nil
}

func (s *fakeStore) RecordSeatMovement(ctx context.Context, m *domain.SeatMovement) error {
	m.ID = s.id()
	s.d.movements = append(s.d.movements, *m)
	return nil
}

func (s *fakeStore) CreateAuditEntry(ctx context.Context, e *domain.AuditEntry) error {
	if s.failAudit != nil {
		return s.failAudit
	}
	s.d.audit = append(s.d.audit, *e)
	return nil
}

func (s *fakeStore) ListAuditEntries(ctx context.Context, bookingID int64) ([]domain.AuditEntry, error) {
	out := make([]domain.AuditEntry, 0)
	for _, e := range s.d.audit {
		if e.BookingID == bookingID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) EnqueueCommands(ctx context.Context, cmds []domain.Command) error {
	if s.failEnqueue != nil {
		return s.failEnqueue
	}
	for _, cmd := range cmds {
		s.d.outbox = append(s.d.outbox, domain.OutboxMessage{ID: s.id(), Command: cmd, CreatedAt: cmd.CreatedAt})
	}
	return nil
}

func (s *fakeStore) ListUndispatched(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	out := make([]domain.OutboxMessage, 0)
	for _, m := range s.d.outbox {
		if m.DispatchedAt == nil && len(out) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeStore) MarkDispatched(ctx context.Context, id int64, at time.Time) error {
	for i := range s.d.outbox {
		if s.d.outbox[i].ID == id {
			s.d.outbox[i].DispatchedAt = &at
			s.d.outbox[i].Attempts++
		}
	}
	return nil
}

func (s *fakeStore) MarkAttempt(ctx context.Context, id int64) error {
	for i := range s.d.outbox {
		if s.d.outbox[i].ID == id {
			s.d.outbox[i].Attempts++
		}
	}
	return nil
}

func (s *fakeStore) MarkCommandDispatched(ctx context.Context, commandID string, at time.Time) error {
	for i := range s.d.outbox {
		if s.d.outbox[i].Command.ID.String() == commandID && s.d.outbox[i].DispatchedAt == nil {
			s.d.outbox[i].DispatchedAt = &at
			s.d.outbox[i].Attempts++
		}
	}
	return nil
}

// outboxOf lists the command types queued for a booking, in order.
func (s *fakeStore) outboxOf(bookingID int64) []domain.CommandType {
	var out []domain.CommandType
	for _, m := range s.d.outbox {
		if m.Command.BookingID == bookingID {
			out = append(out, m.Command.Type)
		}
	}
	return out
}

var _ repository.Store = (*fakeStore)(nil)
