package dto

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// parseTime accepts RFC 3339 timestamps and plain dates
func parseTime(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q", field, value)
	}
	return &t, nil
}

// endOfDay widens a plain date upper bound to cover the whole day
func endOfDay(value string, t *time.Time) *time.Time {
	if t == nil || len(value) != len(dateLayout) {
		return t
	}
	end := t.Add(24*time.Hour - time.Nanosecond)
	return &end
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ascending reports whether sort_order asks for ascending order, falling
// back to def when unset
func ascending(order string, def bool) bool {
	switch strings.ToLower(order) {
	case "asc":
		return true
	case "desc":
		return false
	default:
		return def
	}
}

type dateRange struct {
	from, to *time.Time
}

func parseRange(fromField, fromValue, toField, toValue string) (dateRange, error) {
	from, err := parseTime(fromField, fromValue)
	if err != nil {
		return dateRange{}, err
	}
	to, err := parseTime(toField, toValue)
	if err != nil {
		return dateRange{}, err
	}
	return dateRange{from: from, to: endOfDay(toValue, to)}, nil
}
