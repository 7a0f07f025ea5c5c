package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Money is an amount in minor currency units (cents). It serializes as a
// decimal string with two fraction digits, e.g. "12.50".
type Money int64

// String formats the amount as a decimal string.
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON renders the amount as a quoted decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}

// UnmarshalJSON parses a quoted decimal string with up to two fraction
// digits.
func (m *Money) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("money must be a quoted decimal string: %w", err)
	}
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMoney converts a decimal string like "12.50" or "3" into cents.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid money amount %q", s)
	}
	var cents int64
	switch len(frac) {
	case 0:
	case 1:
		d, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid money amount %q", s)
		}
		cents = d * 10
	case 2:
		d, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid money amount %q", s)
		}
		cents = d
	default:
		return 0, fmt.Errorf("money amount %q has more than two fraction digits", s)
	}
	total := units*100 + cents
	if neg {
		total = -total
	}
	return Money(total), nil
}

// BasisPointsOf returns bps/10000 of m, rounded half up.
func (m Money) BasisPointsOf(bps int) Money {
	product := int64(m) * int64(bps)
	q := product / 10000
	r := product % 10000
	if r >= 5000 {
		q++
	} else if r <= -5000 {
		q--
	}
	return Money(q)
}

// PercentOf returns pct percent of m, rounded half up.
func (m Money) PercentOf(pct int) Money {
	product := int64(m) * int64(pct)
	q := product / 100
	r := product % 100
	if r >= 50 {
		q++
	} else if r <= -50 {
		q--
	}
	return Money(q)
}
