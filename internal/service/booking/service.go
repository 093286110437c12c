package booking

import (
	"context"
	"time"

	"github.com/Domenick1991/bookingdesk/internal/domain"
	"github.com/Domenick1991/bookingdesk/internal/pricing"
	"github.com/Domenick1991/bookingdesk/internal/refund"
	"github.com/Domenick1991/bookingdesk/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput, actor domain.Actor) (*domain.Booking, error)
	AddPassenger(ctx context.Context, bookingID int64, input AddPassengerInput, actor domain.Actor) (*domain.Passenger, error)
	GetBooking(ctx context.Context, id int64, actor domain.Actor) (*Details, error)
	UpdateStatus(ctx context.Context, id int64, input StatusInput, actor domain.Actor) (*domain.Booking, error)
	AssignAgent(ctx context.Context, id int64, agent string, actor domain.Actor) (*domain.Booking, error)
	ForceConfirm(ctx context.Context, id int64, reason string, actor domain.Actor) (*domain.Booking, error)
	ContactCustomer(ctx context.Context, id int64, message string, actor domain.Actor) (*domain.Booking, error)
	ExtendHold(ctx context.Context, id int64, actor domain.Actor) (*domain.Booking, error)
	ReviewQueue(ctx context.Context, actor domain.Actor) ([]ReviewItem, error)
	RecordAudit(ctx context.Context, input AuditInput, actor domain.Actor) (*domain.AuditEntry, error)
	AuditTrail(ctx context.Context, bookingID int64, actor domain.Actor) ([]domain.AuditEntry, error)
	UpdateSeat(ctx context.Context, seatID int64, input SeatInput, actor domain.Actor) (*domain.FlightSeat, error)
}

type PaymentUseCase interface {
	InitiatePayment(ctx context.Context, bookingID int64, input PaymentInput, actor domain.Actor) (*domain.Payment, error)
	GetPayment(ctx context.Context, id int64, actor domain.Actor) (*domain.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status string, actor domain.Actor) (*domain.Payment, error)
	RetryPayment(ctx context.Context, id int64, actor domain.Actor) (*domain.Payment, error)
	CancelPayment(ctx context.Context, id int64, actor domain.Actor) (*domain.Payment, error)
	ProcessRefund(ctx context.Context, id int64, actor domain.Actor) (*RefundResult, error)
}

// MaintenanceUseCase is what the worker runs on a schedule.
type MaintenanceUseCase interface {
	ExpireHolds(ctx context.Context) (int, error)
	ResolveSeatConflicts(ctx context.Context) (int, error)
	RelayOutbox(ctx context.Context, limit int) (int, error)
}

type Locker interface {
	AcquireBookingLock(ctx context.Context, bookingID int64, ttl time.Duration) (string, bool, error)
	ReleaseBookingLock(ctx context.Context, bookingID int64, token string) error
}

type Publisher interface {
	Publish(ctx context.Context, cmds ...domain.Command) error
}

type BookingService struct {
	store     repository.Store
	locker    Locker
	publisher Publisher
	log       logrus.FieldLogger

	pricing *pricing.Calculator
	refunds *refund.Calculator
	now     func() time.Time

	holdTTL         time.Duration
	holdExtension   time.Duration
	duplicateWindow time.Duration
	lockTTL         time.Duration
}

type BookingServiceOption func(*BookingService)

func WithHoldTTL(d time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.holdTTL = d
	}
}

func WithHoldExtension(d time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.holdExtension = d
	}
}

func WithDuplicateWindow(d time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.duplicateWindow = d
	}
}

func WithLockTTL(d time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.lockTTL = d
	}
}

func WithDefaultTaxRate(rate decimal.Decimal) BookingServiceOption {
	return func(s *BookingService) {
		s.pricing = pricing.NewCalculator(rate)
	}
}

func WithRefundCalculator(c *refund.Calculator) BookingServiceOption {
	return func(s *BookingService) {
		s.refunds = c
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	store repository.Store,
	locker Locker,
	publisher Publisher,
	log logrus.FieldLogger,
	opts ...BookingServiceOption,
) *BookingService {
	noRefundPolicies, _ := refund.NewCalculator(nil)
	service := &BookingService{
		store:           store,
		locker:          locker,
		publisher:       publisher,
		log:             log,
		pricing:         pricing.NewCalculator(pricing.DefaultTaxRate),
		refunds:         noRefundPolicies,
		now:             time.Now,
		holdTTL:         24 * time.Hour,
		holdExtension:   24 * time.Hour,
		duplicateWindow: 30 * time.Minute,
		lockTTL:         10 * time.Second,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

var (
	_ BookingUseCase     = (*BookingService)(nil)
	_ PaymentUseCase     = (*BookingService)(nil)
	_ MaintenanceUseCase = (*BookingService)(nil)
)
