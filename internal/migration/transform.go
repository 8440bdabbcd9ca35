package migration

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TransformProduct rounds the unit price (column 3 of the Product mapping) to
// two decimals. Rounded, not truncated: 3.995 becomes 4.00.
func TransformProduct(r Row) (Row, error) {
	if len(r) != 4 {
		return nil, fmt.Errorf("expected 4 columns, got %d", len(r))
	}
	price, err := toFloat(r[2])
	if err != nil {
		return nil, fmt.Errorf("unit price: %w", err)
	}
	r[2] = RoundPrice(price)
	return r, nil
}

// RoundPrice rounds to two decimals, half away from zero. It rounds the
// value's shortest decimal representation, not its binary one, so 3.995
// becomes 4.00 rather than 3.99.
func RoundPrice(v float64) float64 {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	dot := strings.IndexByte(s, '.')
	if dot < 0 || len(s)-dot-1 <= 2 {
		return v
	}

	kept, _ := strconv.ParseFloat(s[:dot+3], 64)
	if s[dot+3] >= '5' {
		kept += 0.01
	}
	kept = math.Round(kept*100) / 100
	if neg {
		return -kept
	}
	return kept
}

// TransformOrderDetail normalizes the order date (column 4) to a calendar
// date and coerces the quantity (column 5) to an integer.
func TransformOrderDetail(r Row) (Row, error) {
	if len(r) != 5 {
		return nil, fmt.Errorf("expected 5 columns, got %d", len(r))
	}
	date, err := ParseOrderDate(r[3])
	if err != nil {
		return nil, fmt.Errorf("order date: %w", err)
	}
	r[3] = date

	quantity, err := toInt(r[4])
	if err != nil {
		return nil, fmt.Errorf("quantity: %w", err)
	}
	r[4] = quantity
	return r, nil
}

// ParseOrderDate normalizes the source's textual date encodings to a calendar
// date. Accepted forms: compact 8-digit YYYYMMDD, or an ISO prefix where only
// the first 10 characters (YYYY-MM-DD) are significant. NULL or empty text
// maps to a NULL date.
func ParseOrderDate(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}

	s, err := toString(v)
	if err != nil {
		return nil, err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	if len(s) == 8 && isDigits(s) {
		d, err := time.Parse("20060102", s)
		if err != nil {
			return nil, fmt.Errorf("invalid compact date %q: %w", s, err)
		}
		return d, nil
	}

	if len(s) >= 10 {
		d, err := time.Parse("2006-01-02", s[:10])
		if err != nil {
			return nil, fmt.Errorf("invalid ISO date %q: %w", s, err)
		}
		return d, nil
	}

	return nil, fmt.Errorf("unrecognized date %q", s)
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func toString(v interface{}) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case time.Time:
		return t.Format("2006-01-02"), nil
	default:
		return "", fmt.Errorf("cannot read %T as text", v)
	}
}

func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case int:
		return float64(t), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	case []byte:
		return strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
	default:
		return 0, fmt.Errorf("cannot read %T as number", v)
	}
}

func toInt(v interface{}) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(t), 10, 64)
	case []byte:
		return strconv.ParseInt(strings.TrimSpace(string(t)), 10, 64)
	default:
		return 0, fmt.Errorf("cannot read %T as integer", v)
	}
}
