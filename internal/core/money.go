package core

import (
	"errors"
	"strconv"
	"strings"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseWon converts an amount as written by the budgeting app ("25000",
// "25,000", "25000.0") to whole won. Fractions are rejected unless zero.
func ParseWon(s string) (int64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if i := strings.IndexByte(s, '.'); i >= 0 {
		if strings.Trim(s[i+1:], "0") != "" {
			return 0, ErrInvalidAmount
		}
		s = s[:i]
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// FormatWon renders whole won with thousands separators, e.g. 25,000원.
func FormatWon(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	digits := strconv.FormatInt(v, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteString("원")
	return b.String()
}

// DisplayAmount formats the record amount for operator output, falling
// back to the raw text when it is not a whole number.
func (r Record) DisplayAmount() string {
	if v, err := ParseWon(r.Amount); err == nil {
		return FormatWon(v)
	}
	return r.Amount
}
