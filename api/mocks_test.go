package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/bookingdesk/internal/domain"
	"github.com/Domenick1991/bookingdesk/internal/pricing"
	"github.com/Domenick1991/bookingdesk/internal/service/booking"
	"github.com/Domenick1991/bookingdesk/internal/service/flights"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) booking(args mock.Arguments) (*domain.Booking, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) CreateBooking(ctx context.Context, input booking.CreateBookingInput, actor domain.Actor) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, input, actor))
}

func (m *MockBookingUseCase) AddPassenger(ctx context.Context, bookingID int64, input booking.AddPassengerInput, actor domain.Actor) (*domain.Passenger, error) {
	args := m.Called(ctx, bookingID, input, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Passenger), args.Error(1)
}

func (m *MockBookingUseCase) GetBooking(ctx context.Context, id int64, actor domain.Actor) (*booking.Details, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Details), args.Error(1)
}

func (m *MockBookingUseCase) UpdateStatus(ctx context.Context, id int64, input booking.StatusInput, actor domain.Actor) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, id, input, actor))
}

func (m *MockBookingUseCase) AssignAgent(ctx context.Context, id int64, agent string, actor domain.Actor) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, id, agent, actor))
}

func (m *MockBookingUseCase) ForceConfirm(ctx context.Context, id int64, reason string, actor domain.Actor) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, id, reason, actor))
}

func (m *MockBookingUseCase) ContactCustomer(ctx context.Context, id int64, message string, actor domain.Actor) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, id, message, actor))
}

func (m *MockBookingUseCase) ExtendHold(ctx context.Context, id int64, actor domain.Actor) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, id, actor))
}

func (m *MockBookingUseCase) ReviewQueue(ctx context.Context, actor domain.Actor) ([]booking.ReviewItem, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]booking.ReviewItem), args.Error(1)
}

func (m *MockBookingUseCase) RecordAudit(ctx context.Context, input booking.AuditInput, actor domain.Actor) (*domain.AuditEntry, error) {
	args := m.Called(ctx, input, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuditEntry), args.Error(1)
}

func (m *MockBookingUseCase) AuditTrail(ctx context.Context, bookingID int64, actor domain.Actor) ([]domain.AuditEntry, error) {
	args := m.Called(ctx, bookingID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditEntry), args.Error(1)
}

func (m *MockBookingUseCase) UpdateSeat(ctx context.Context, seatID int64, input booking.SeatInput, actor domain.Actor) (*domain.FlightSeat, error) {
	args := m.Called(ctx, seatID, input, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FlightSeat), args.Error(1)
}

type MockPaymentUseCase struct {
	mock.Mock
}

func (m *MockPaymentUseCase) payment(args mock.Arguments) (*domain.Payment, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentUseCase) InitiatePayment(ctx context.Context, bookingID int64, input booking.PaymentInput, actor domain.Actor) (*domain.Payment, error) {
	return m.payment(m.Called(ctx, bookingID, input, actor))
}

func (m *MockPaymentUseCase) GetPayment(ctx context.Context, id int64, actor domain.Actor) (*domain.Payment, error) {
	return m.payment(m.Called(ctx, id, actor))
}

func (m *MockPaymentUseCase) UpdatePaymentStatus(ctx context.Context, id int64, status string, actor domain.Actor) (*domain.Payment, error) {
	return m.payment(m.Called(ctx, id, status, actor))
}

func (m *MockPaymentUseCase) RetryPayment(ctx context.Context, id int64, actor domain.Actor) (*domain.Payment, error) {
	return m.payment(m.Called(ctx, id, actor))
}

func (m *MockPaymentUseCase) CancelPayment(ctx context.Context, id int64, actor domain.Actor) (*domain.Payment, error) {
	return m.payment(m.Called(ctx, id, actor))
}

func (m *MockPaymentUseCase) ProcessRefund(ctx context.Context, id int64, actor domain.Actor) (*booking.RefundResult, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.RefundResult), args.Error(1)
}

type MockFlightUseCase struct {
	mock.Mock
}

func (m *MockFlightUseCase) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Quote(ctx context.Context, input flights.QuoteInput) (*pricing.Quote, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.Quote), args.Error(1)
}

var (
	customer = domain.Actor{ID: "user-1", Role: domain.RoleCustomer}
	csa      = domain.Actor{ID: "agent-1", Role: domain.RoleCSA}
	admin    = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
)

type testServer struct {
	router   *gin.Engine
	bookings *MockBookingUseCase
	payments *MockPaymentUseCase
	flights  *MockFlightUseCase
}

func newTestServer() *testServer {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)

	s := &testServer{
		bookings: &MockBookingUseCase{},
		payments: &MockPaymentUseCase{},
		flights:  &MockFlightUseCase{},
	}
	s.router = NewRouter(log,
		NewBookingHandler(s.bookings, log),
		NewPaymentHandler(s.payments, log),
		NewFlightHandler(s.flights, log),
	)
	return s
}

// do sends body as JSON on behalf of actor. A zero actor sends no actor headers.
func (s *testServer) do(t *testing.T, method, path string, body any, actor domain.Actor) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor.ID != "" {
		req.Header.Set(headerActorID, actor.ID)
		req.Header.Set(headerActorRole, string(actor.Role))
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}
