package refund

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Policy struct {
	Name                 string          `yaml:"name"`
	HoursBeforeDeparture int             `yaml:"hours_before_departure" validate:"gte=0"`
	Percentage           decimal.Decimal `yaml:"refund_percentage"`
	CancellationFee      decimal.Decimal `yaml:"cancellation_fee"`
}

type Calculation struct {
	OriginalAmount      decimal.Decimal
	Percentage          decimal.Decimal
	CancellationFee     decimal.Decimal
	Amount              decimal.Decimal
	HoursUntilDeparture float64
	PolicyApplied       string
	// Refundable is false when no policy covers the cancellation.
	Refundable bool
}

type Calculator struct {
	policies []Policy
}

// NewCalculator orders policies from the most generous (furthest from departure) down.
func NewCalculator(policies []Policy) (*Calculator, error) {
	sorted := make([]Policy, len(policies))
	copy(sorted, policies)
	for _, p := range sorted {
		if p.Percentage.IsNegative() || p.Percentage.GreaterThan(hundred) {
			return nil, fmt.Errorf("refund policy %q: percentage %s out of range", p.Name, p.Percentage)
		}
		if p.CancellationFee.IsNegative() {
			return nil, fmt.Errorf("refund policy %q: negative cancellation fee", p.Name)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].HoursBeforeDeparture > sorted[j].HoursBeforeDeparture
	})
	return &Calculator{policies: sorted}, nil
}

// Calculate applies the first policy whose window the cancellation still falls in, or the
// strictest one when departure is closer than every window. Without policies nothing
// is refundable.
func (c *Calculator) Calculate(amount decimal.Decimal, departure, now time.Time) Calculation {
	hours := departure.Sub(now).Hours()
	calc := Calculation{
		OriginalAmount:      amount,
		HoursUntilDeparture: hours,
		Percentage:          decimal.Zero,
		CancellationFee:     decimal.Zero,
		Amount:              decimal.Zero,
		PolicyApplied:       "No policy",
	}
	if len(c.policies) == 0 {
		return calc
	}

	policy := c.policies[len(c.policies)-1]
	for _, p := range c.policies {
		if hours >= float64(p.HoursBeforeDeparture) {
			policy = p
			break
		}
	}

	refund := amount.Mul(policy.Percentage).Div(hundred).Sub(policy.CancellationFee)
	calc.Percentage = policy.Percentage
	calc.CancellationFee = policy.CancellationFee
	calc.Amount = decimal.Max(decimal.Zero, refund)
	calc.PolicyApplied = policy.Name
	calc.Refundable = true
	return calc
}
