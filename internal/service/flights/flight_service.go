package flights

import (
	"context"
	"fmt"

	"github.com/Domenick1991/bookingdesk/internal/domain"
	"github.com/Domenick1991/bookingdesk/internal/pricing"
	"github.com/Domenick1991/bookingdesk/internal/repository"
	"github.com/sirupsen/logrus"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Quote(ctx context.Context, input QuoteInput) (*pricing.Quote, error)
}

type FlightRepository interface {
	repository.FlightRepository
	GetSeats(ctx context.Context, ids []int64) (map[int64]domain.FlightSeat, error)
}

type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
}

// QuoteInput describes a prospective selection. Seats are handed to passengers in order;
// passengers past the end of SeatIDs stay unseated.
type QuoteInput struct {
	FlightID   int64
	Passengers int
	SeatIDs    []int64
}

type FlightService struct {
	repo    FlightRepository
	cache   FlightCache
	pricing *pricing.Calculator
	log     logrus.FieldLogger
}

func NewFlightService(repo FlightRepository, cache FlightCache, calc *pricing.Calculator, log logrus.FieldLogger) *FlightService {
	if calc == nil {
		calc = pricing.NewCalculator(pricing.DefaultTaxRate)
	}
	return &FlightService{repo: repo, cache: cache, pricing: calc, log: log}
}

// List serves from the cache when it can. Cache failures only cost a database read.
func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		cached, err := s.cache.GetFlights(ctx)
		if err != nil {
			s.log.WithError(err).Warn("flights cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	flights, err := s.repo.ListFlights(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetFlights(ctx, flights); err != nil {
			s.log.WithError(err).Warn("flights cache write failed")
		}
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetFlight(ctx, id)
}

func (s *FlightService) Quote(ctx context.Context, input QuoteInput) (*pricing.Quote, error) {
	if input.Passengers < 1 {
		return nil, fmt.Errorf("%w: at least one passenger is required", domain.ErrValidation)
	}
	if len(input.SeatIDs) > input.Passengers {
		return nil, fmt.Errorf("%w: %d seats for %d passengers", domain.ErrValidation, len(input.SeatIDs), input.Passengers)
	}

	flight, err := s.repo.GetFlight(ctx, input.FlightID)
	if err != nil {
		return nil, err
	}
	seats, err := s.repo.GetSeats(ctx, input.SeatIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range input.SeatIDs {
		seat, ok := seats[id]
		if !ok {
			return nil, fmt.Errorf("seat %d: %w", id, domain.ErrNotFound)
		}
		if seat.FlightID != flight.ID {
			return nil, fmt.Errorf("%w: seat %d is not on flight %d", domain.ErrValidation, id, flight.ID)
		}
	}

	passengers := make([]domain.Passenger, input.Passengers)
	for i := range passengers {
		passengers[i] = domain.Passenger{ID: int64(i + 1), Type: domain.PassengerAdult}
		if i < len(input.SeatIDs) {
			seat := input.SeatIDs[i]
			passengers[i].FlightSeatID = &seat
		}
	}

	q, err := s.pricing.Compute(*flight, passengers, seats)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

var _ FlightUseCase = (*FlightService)(nil)
