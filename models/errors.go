package models

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound                 = errors.New("not found")
	ErrInsufficientAvailability = errors.New("insufficient availability")
	ErrItemUnavailable          = errors.New("item unavailable")
	ErrInvalidStateTransition   = errors.New("invalid state transition")
	ErrInvalidInput             = errors.New("invalid input")
)

const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay accepts YYYY-MM-DD or RFC3339.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}
