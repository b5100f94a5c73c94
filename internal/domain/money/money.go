package money

import "fmt"

// Cents is a monetary amount in integer US cents. All fee and payment
// arithmetic is done in cents so no floating-point rounding is needed.
type Cents int64

// FromDollars converts a dollar amount to Cents, rounding half away from zero.
func FromDollars(d float64) Cents {
	if d < 0 {
		return Cents(d*100 - 0.5)
	}
	return Cents(d*100 + 0.5)
}

// Dollars returns the amount as a float64 dollar value.
func (c Cents) Dollars() float64 { return float64(c) / 100 }

// String formats the amount as "$X.XX". Negative amounts render as "-$X.XX".
func (c Cents) String() string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s$%d.%02d", sign, c/100, c%100)
}
