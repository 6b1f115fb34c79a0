package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// TaxRate is the IVA surcharge applied to every invoice subtotal, in
// percent. It is a fiscal constant, not configuration.
const TaxRate = 13

var ErrInvalidAmount = errors.New("invalid amount")

// Cents is a fixed-point monetary amount. Amounts cross the wire as plain
// JSON numbers with two fraction digits, but are parsed from their literal
// text and never pass through binary floating point, so repeated totals
// computations cannot drift.
type Cents int64

func FromUnits(units int64) Cents {
	return Cents(units * 100)
}

// Parse converts a decimal string such as "1500", "1500.5" or "1500.50"
// to cents. A third fraction digit rounds half-up; exponent notation is
// rejected.
func Parse(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	// Only one sign, already consumed above.
	if s == "" || strings.ContainsAny(s, "eE+-") {
		return 0, ErrInvalidAmount
	}

	intPart := s
	fracPart := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart = s[:idx]
		fracPart = s[idx+1:]
	}
	if intPart == "" && fracPart == "" {
		return 0, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}

	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}

	for i := 0; i < len(fracPart); i++ {
		if fracPart[i] < '0' || fracPart[i] > '9' {
			return 0, ErrInvalidAmount
		}
	}

	cents := units * 100
	switch {
	case fracPart == "":
	case len(fracPart) == 1:
		cents += int64(fracPart[0]-'0') * 10
	default:
		cents += int64(fracPart[0]-'0')*10 + int64(fracPart[1]-'0')
		if len(fracPart) > 2 && fracPart[2] >= '5' {
			cents++
		}
	}

	if negative {
		cents = -cents
	}
	return Cents(cents), nil
}

func (c Cents) String() string {
	v := int64(c)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON emits the amount as a bare JSON number with two fraction
// digits, matching what the front end renders.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Cents) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Totals is the derived billing breakdown for one consultation cost.
type Totals struct {
	Subtotal Cents `json:"subtotal" bson:"subtotal"`
	Tax      Cents `json:"iva" bson:"iva"`
	Total    Cents `json:"total" bson:"total"`
}

// ComputeTotals applies the fixed tax rate to a non-negative cost. The tax
// is rounded half-up at the cent.
func ComputeTotals(cost Cents) (Totals, error) {
	if cost < 0 {
		return Totals{}, ErrInvalidAmount
	}
	tax := Cents((int64(cost)*TaxRate + 50) / 100)
	return Totals{
		Subtotal: cost,
		Tax:      tax,
		Total:    cost + tax,
	}, nil
}
