package entities

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	domainerrors "myfi.backend/internal/domain/errors"
)

// NavDateLayout is the canonical layout of NAV series keys
const NavDateLayout = "2006-01-02"

var navDateLayouts = []string{
	NavDateLayout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// NavSeries maps a canonical date key to the NAV on that date.
// Keys are unique by construction; ordering is provided by Dates and Points.
type NavSeries map[string]float64

// NavPoint is a single dated NAV value
type NavPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// SchemeNAV holds the NAV history of one scheme
type SchemeNAV struct {
	ID        uuid.UUID `json:"id"`
	SchemeID  uuid.UUID `json:"scheme_id"`
	NavData   NavSeries `json:"nav_data"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizeNavDate parses a date key and returns it in NavDateLayout
func NormalizeNavDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range navDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(NavDateLayout), nil
		}
	}
	return "", fmt.Errorf("nav date %q: %w", raw, domainerrors.ErrInvalidInput)
}

// ParseNavSeries converts a decoded payload into a NavSeries. Anything that is
// not a date-keyed mapping of numbers is rejected with ErrInvalidInput.
func ParseNavSeries(data any) (NavSeries, error) {
	out := NavSeries{}
	switch v := data.(type) {
	case NavSeries:
		for k, val := range v {
			if err := out.set(k, val); err != nil {
				return nil, err
			}
		}
	case map[string]float64:
		for k, val := range v {
			if err := out.set(k, val); err != nil {
				return nil, err
			}
		}
	case map[string]any:
		for k, raw := range v {
			val, err := navValue(raw)
			if err != nil {
				return nil, fmt.Errorf("nav value for %q: %w", k, err)
			}
			if err := out.set(k, val); err != nil {
				return nil, err
			}
		}
	case json.RawMessage:
		var m map[string]any
		if err := json.Unmarshal(v, &m); err != nil || m == nil {
			return nil, fmt.Errorf("nav_data is not an object: %w", domainerrors.ErrInvalidInput)
		}
		return ParseNavSeries(m)
	default:
		return nil, fmt.Errorf("nav_data must be a mapping, got %T: %w", data, domainerrors.ErrInvalidInput)
	}
	return out, nil
}

func navValue(raw any) (float64, error) {
	switch n := raw.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, domainerrors.ErrInvalidInput
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, domainerrors.ErrInvalidInput
		}
		return f, nil
	default:
		return 0, domainerrors.ErrInvalidInput
	}
}

func (s NavSeries) set(date string, value float64) error {
	key, err := NormalizeNavDate(date)
	if err != nil {
		return err
	}
	if !ValidNavValue(value) {
		return fmt.Errorf("nav value for %q is not finite: %w", date, domainerrors.ErrInvalidInput)
	}
	s[key] = value
	return nil
}

// ValidNavValue reports whether v can be stored in a series. NaN and the
// infinities have no JSON encoding.
func ValidNavValue(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Merge copies every point of incoming into s; incoming wins on a shared date.
func (s NavSeries) Merge(incoming NavSeries) {
	for k, v := range incoming {
		s[k] = v
	}
}

// Dates returns the series keys in ascending order
func (s NavSeries) Dates() []string {
	dates := make([]string, 0, len(s))
	for k := range s {
		dates = append(dates, k)
	}
	sort.Strings(dates)
	return dates
}

// Points returns the series in ascending date order
func (s NavSeries) Points() []NavPoint {
	dates := s.Dates()
	points := make([]NavPoint, 0, len(dates))
	for _, d := range dates {
		points = append(points, NavPoint{Date: d, Value: s[d]})
	}
	return points
}

// Latest returns the most recent point, false when the series is empty
func (s NavSeries) Latest() (NavPoint, bool) {
	dates := s.Dates()
	if len(dates) == 0 {
		return NavPoint{}, false
	}
	last := dates[len(dates)-1]
	return NavPoint{Date: last, Value: s[last]}, true
}

// Range returns the sub-series with from <= date <= to. Empty bounds are open.
func (s NavSeries) Range(from, to string) NavSeries {
	out := NavSeries{}
	for k, v := range s {
		if from != "" && k < from {
			continue
		}
		if to != "" && k > to {
			continue
		}
		out[k] = v
	}
	return out
}
