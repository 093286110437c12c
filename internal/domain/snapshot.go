package domain

// BookingSnapshot is everything a transition decision reads about one booking.
type BookingSnapshot struct {
	Booking    Booking
	Passengers []Passenger
	Payments   []Payment
	// Seats holds every flight seat referenced by a passenger, keyed by id.
	Seats map[int64]FlightSeat
	// Holders maps the id of any other booking holding one of those seats to its status.
	Holders map[int64]BookingStatus
}

// SeatIDs returns the assigned seats in passenger order.
func (s BookingSnapshot) SeatIDs() []int64 {
	ids := make([]int64, 0, len(s.Passengers))
	for _, p := range s.Passengers {
		if p.FlightSeatID != nil {
			ids = append(ids, *p.FlightSeatID)
		}
	}
	return ids
}

func (s BookingSnapshot) HasPaymentIn(statuses ...PaymentStatus) bool {
	for _, p := range s.Payments {
		for _, st := range statuses {
			if p.Status == st {
				return true
			}
		}
	}
	return false
}

// OpenPayment returns the attempt that still blocks a new one, if any.
func (s BookingSnapshot) OpenPayment() *Payment {
	for i := range s.Payments {
		if s.Payments[i].Status.Open() {
			return &s.Payments[i]
		}
	}
	return nil
}
