// Package pricing derives booking totals from a flight fare, the passengers and their seats.
//
// Amounts stay exact through the whole calculation and are rounded to cents only when a
// Quote is rendered.
package pricing

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/Domenick1991/bookingdesk/internal/domain"
	"github.com/shopspring/decimal"
)

var DefaultTaxRate = decimal.RequireFromString("0.15")

var one = decimal.NewFromInt(1)

// ParseAmount accepts the shapes a price arrives in from the API or the database:
// strings, JSON numbers, Go numbers and decimals. Negative or non-finite values are rejected.
func ParseAmount(v any) (decimal.Decimal, error) {
	var d decimal.Decimal
	switch t := v.(type) {
	case decimal.Decimal:
		d = t
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrInvalidPriceFormat, t)
		}
		d = parsed
	case json.Number:
		return ParseAmount(string(t))
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Zero, fmt.Errorf("%w: %v", domain.ErrInvalidPriceFormat, t)
		}
		d = decimal.NewFromFloat(t)
	case float32:
		return ParseAmount(float64(t))
	case int:
		d = decimal.NewFromInt(int64(t))
	case int64:
		d = decimal.NewFromInt(t)
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported type %T", domain.ErrInvalidPriceFormat, v)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative amount %s", domain.ErrInvalidPriceFormat, d)
	}
	return d, nil
}

type PassengerLine struct {
	PassengerID  int64           `json:"passenger_id"`
	SeatID       *int64          `json:"flight_seat_id,omitempty"`
	SeatNumber   string          `json:"seat_number,omitempty"`
	SeatAssigned bool            `json:"seat_assigned"`
	Upgrade      decimal.Decimal `json:"-"`
}

type Quote struct {
	BaseFare     decimal.Decimal
	SeatUpgrades decimal.Decimal
	Subtotal     decimal.Decimal
	TaxRate      decimal.Decimal
	Taxes        decimal.Decimal
	Total        decimal.Decimal
	Lines        []PassengerLine
}

// UnseatedPassengers lists passengers still showing "No seat selected".
func (q Quote) UnseatedPassengers() []int64 {
	var ids []int64
	for _, l := range q.Lines {
		if !l.SeatAssigned {
			ids = append(ids, l.PassengerID)
		}
	}
	return ids
}

type quoteLineJSON struct {
	PassengerLine
	Upgrade string `json:"upgrade"`
}

func (q Quote) MarshalJSON() ([]byte, error) {
	lines := make([]quoteLineJSON, 0, len(q.Lines))
	for _, l := range q.Lines {
		lines = append(lines, quoteLineJSON{PassengerLine: l, Upgrade: l.Upgrade.StringFixed(2)})
	}
	return json.Marshal(struct {
		BaseFare     string          `json:"base_fare"`
		SeatUpgrades string          `json:"seat_upgrades"`
		Subtotal     string          `json:"subtotal"`
		TaxRate      string          `json:"tax_rate"`
		Taxes        string          `json:"taxes"`
		Total        string          `json:"total"`
		Lines        []quoteLineJSON `json:"passengers"`
	}{
		BaseFare:     q.BaseFare.StringFixed(2),
		SeatUpgrades: q.SeatUpgrades.StringFixed(2),
		Subtotal:     q.Subtotal.StringFixed(2),
		TaxRate:      q.TaxRate.String(),
		Taxes:        q.Taxes.StringFixed(2),
		Total:        q.Total.StringFixed(2),
		Lines:        lines,
	})
}

type Calculator struct {
	defaultTaxRate decimal.Decimal
}

func NewCalculator(defaultTaxRate decimal.Decimal) *Calculator {
	if defaultTaxRate.IsNegative() {
		defaultTaxRate = DefaultTaxRate
	}
	return &Calculator{defaultTaxRate: defaultTaxRate}
}

// Compute prices the passengers on flight. seats holds the flight seats referenced by the
// passengers; a passenger pointing at a seat missing from the map is treated as unseated.
func (c *Calculator) Compute(flight domain.Flight, passengers []domain.Passenger, seats map[int64]domain.FlightSeat) (Quote, error) {
	basePrice, err := ParseAmount(flight.BasePrice)
	if err != nil {
		return Quote{}, err
	}

	taxRate := c.defaultTaxRate
	if flight.TaxRate != nil && !flight.TaxRate.IsNegative() {
		taxRate = *flight.TaxRate
	}

	q := Quote{
		BaseFare:     basePrice.Mul(decimal.NewFromInt(int64(len(passengers)))),
		SeatUpgrades: decimal.Zero,
		TaxRate:      taxRate,
		Lines:        make([]PassengerLine, 0, len(passengers)),
	}

	for _, p := range passengers {
		line := PassengerLine{PassengerID: p.ID, Upgrade: decimal.Zero}
		if p.FlightSeatID != nil {
			if seat, ok := seats[*p.FlightSeatID]; ok {
				multiplier, err := ParseAmount(seat.PriceMultiplier)
				if err != nil {
					return Quote{}, fmt.Errorf("seat %d multiplier: %w", seat.ID, err)
				}
				line.SeatID = p.FlightSeatID
				line.SeatNumber = seat.SeatNumber
				line.SeatAssigned = true
				line.Upgrade = decimal.Max(decimal.Zero, basePrice.Mul(multiplier.Sub(one)))
			}
		}
		q.SeatUpgrades = q.SeatUpgrades.Add(line.Upgrade)
		q.Lines = append(q.Lines, line)
	}

	q.Subtotal = q.BaseFare.Add(q.SeatUpgrades)
	q.Taxes = q.Subtotal.Mul(taxRate)
	q.Total = q.Subtotal.Add(q.Taxes)
	return q, nil
}
