package api

import (
	"time"

	"github.com/Domenick1991/bookingdesk/internal/domain"
	"github.com/Domenick1991/bookingdesk/internal/pricing"
	"github.com/Domenick1991/bookingdesk/internal/review"
	"github.com/Domenick1991/bookingdesk/internal/service/booking"
)

type bookingResponse struct {
	ID               int64      `json:"id"`
	Reference        string     `json:"booking_reference"`
	UserID           string     `json:"user_id"`
	FlightID         int64      `json:"flight_id"`
	Status           string     `json:"status"`
	TotalAmount      string     `json:"total_amount"`
	BookingDate      time.Time  `json:"booking_date"`
	HoldExpiry       *time.Time `json:"hold_expiry"`
	AssignedAgent    *string    `json:"assigned_agent"`
	LastContacted    *time.Time `json:"last_contacted"`
	DuplicateWarning bool       `json:"duplicate_warning"`
	RelatedBookings  []int64    `json:"related_bookings"`
	AdminOverride    bool       `json:"admin_override"`
	CancelReason     string     `json:"cancel_reason,omitempty"`
	Version          int64      `json:"version"`
}

func toBookingResponse(b domain.Booking) bookingResponse {
	related := b.RelatedBookings
	if related == nil {
		related = []int64{}
	}
	return bookingResponse{
		ID:               b.ID,
		Reference:        b.Reference,
		UserID:           b.UserID,
		FlightID:         b.FlightID,
		Status:           string(b.Status),
		TotalAmount:      b.TotalAmount.StringFixed(2),
		BookingDate:      b.BookingDate,
		HoldExpiry:       b.HoldExpiry,
		AssignedAgent:    b.AssignedAgent,
		LastContacted:    b.LastContacted,
		DuplicateWarning: b.DuplicateWarning,
		RelatedBookings:  related,
		AdminOverride:    b.AdminOverride,
		CancelReason:     string(b.CancelReason),
		Version:          b.Version,
	}
}

type passengerResponse struct {
	ID           int64  `json:"id"`
	BookingID    int64  `json:"booking_id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email,omitempty"`
	Type         string `json:"passenger_type"`
	FlightSeatID *int64 `json:"flight_seat_id"`
}

func toPassengerResponse(p domain.Passenger) passengerResponse {
	return passengerResponse{
		ID:           p.ID,
		BookingID:    p.BookingID,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Email:        p.Email,
		Type:         string(p.Type),
		FlightSeatID: p.FlightSeatID,
	}
}

type paymentResponse struct {
	ID            int64     `json:"id"`
	BookingID     int64     `json:"booking_id"`
	Amount        string    `json:"amount"`
	Status        string    `json:"status"`
	Method        string    `json:"payment_method"`
	TransactionID string    `json:"transaction_id"`
	RetryOf       *int64    `json:"retry_of,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toPaymentResponse(p domain.Payment) paymentResponse {
	return paymentResponse{
		ID:            p.ID,
		BookingID:     p.BookingID,
		Amount:        p.Amount.StringFixed(2),
		Status:        string(p.Status),
		Method:        p.Method,
		TransactionID: p.TransactionID,
		RetryOf:       p.RetryOf,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

type detailsResponse struct {
	Booking        bookingResponse     `json:"booking"`
	Passengers     []passengerResponse `json:"passengers"`
	Payments       []paymentResponse   `json:"payments"`
	Quote          pricing.Quote       `json:"quote"`
	Classification string              `json:"classification"`
	Expired        bool                `json:"expired"`
	Actions        []review.Action     `json:"actions"`
}

func toDetailsResponse(d booking.Details) detailsResponse {
	resp := detailsResponse{
		Booking:        toBookingResponse(d.Booking),
		Passengers:     make([]passengerResponse, 0, len(d.Passengers)),
		Payments:       make([]paymentResponse, 0, len(d.Payments)),
		Quote:          d.Quote,
		Classification: string(d.Classification),
		Expired:        d.Expired,
		Actions:        d.Actions,
	}
	for _, p := range d.Passengers {
		resp.Passengers = append(resp.Passengers, toPassengerResponse(p))
	}
	for _, p := range d.Payments {
		resp.Payments = append(resp.Payments, toPaymentResponse(p))
	}
	return resp
}

type reviewItemResponse struct {
	Booking          bookingResponse `json:"booking"`
	Classification   string          `json:"classification"`
	Passengers       int             `json:"passenger_count"`
	Payments         int             `json:"payment_count"`
	Expired          bool            `json:"expired"`
	DuplicateWarning bool            `json:"duplicate_warning"`
	RelatedBookings  []int64         `json:"related_bookings"`
	SeatConflicts    []int64         `json:"seat_conflicts"`
	Actions          []review.Action `json:"actions"`
}

func toReviewItemResponse(it booking.ReviewItem) reviewItemResponse {
	return reviewItemResponse{
		Booking:          toBookingResponse(it.Booking),
		Classification:   string(it.Classification),
		Passengers:       it.Passengers,
		Payments:         it.Payments,
		Expired:          it.Expired,
		DuplicateWarning: it.DuplicateWarning,
		RelatedBookings:  it.RelatedBookings,
		SeatConflicts:    it.SeatConflicts,
		Actions:          it.Actions,
	}
}

type refundResponse struct {
	Payment             paymentResponse `json:"payment"`
	RefundAmount        string          `json:"refund_amount"`
	OriginalAmount      string          `json:"original_amount"`
	Percentage          string          `json:"refund_percentage"`
	CancellationFee     string          `json:"cancellation_fee"`
	HoursUntilDeparture float64         `json:"hours_until_departure"`
	PolicyApplied       string          `json:"policy_applied"`
}

func toRefundResponse(r booking.RefundResult) refundResponse {
	return refundResponse{
		Payment:             toPaymentResponse(r.Payment),
		RefundAmount:        r.Calculation.Amount.StringFixed(2),
		OriginalAmount:      r.Calculation.OriginalAmount.StringFixed(2),
		Percentage:          r.Calculation.Percentage.String(),
		CancellationFee:     r.Calculation.CancellationFee.StringFixed(2),
		HoursUntilDeparture: r.Calculation.HoursUntilDeparture,
		PolicyApplied:       r.Calculation.PolicyApplied,
	}
}

type auditResponse struct {
	ID        string    `json:"id"`
	BookingID int64     `json:"booking_id"`
	Action    string    `json:"action"`
	Reason    string    `json:"reason"`
	ActorID   string    `json:"actor_id"`
	ActorRole string    `json:"actor_role"`
	CreatedAt time.Time `json:"created_at"`
}

func toAuditResponse(e domain.AuditEntry) auditResponse {
	return auditResponse{
		ID:        e.ID.String(),
		BookingID: e.BookingID,
		Action:    e.Action,
		Reason:    e.Reason,
		ActorID:   e.ActorID,
		ActorRole: string(e.ActorRole),
		CreatedAt: e.CreatedAt,
	}
}

type seatResponse struct {
	ID              int64  `json:"id"`
	FlightID        int64  `json:"flight_id"`
	SeatNumber      string `json:"seat_number"`
	PriceMultiplier string `json:"price_multiplier"`
	Status          string `json:"status"`
	HeldBy          *int64 `json:"booking_id"`
}

func toSeatResponse(s domain.FlightSeat) seatResponse {
	return seatResponse{
		ID:              s.ID,
		FlightID:        s.FlightID,
		SeatNumber:      s.SeatNumber,
		PriceMultiplier: s.PriceMultiplier.String(),
		Status:          string(s.Status),
		HeldBy:          s.HeldBy,
	}
}

type flightResponse struct {
	ID            int64     `json:"id"`
	FlightNumber  string    `json:"flight_number"`
	FromAirport   string    `json:"from_airport"`
	ToAirport     string    `json:"to_airport"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	BasePrice     string    `json:"base_price"`
	TaxRate       *string   `json:"tax_rate"`
}

func toFlightResponse(f domain.Flight) flightResponse {
	resp := flightResponse{
		ID:            f.ID,
		FlightNumber:  f.FlightNumber,
		FromAirport:   f.FromAirport,
		ToAirport:     f.ToAirport,
		DepartureTime: f.DepartureTime,
		ArrivalTime:   f.ArrivalTime,
		BasePrice:     f.BasePrice.StringFixed(2),
	}
	if f.TaxRate != nil {
		rate := f.TaxRate.String()
		resp.TaxRate = &rate
	}
	return resp
}
