package application

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"fxrates-adapter/internal/domain"
)

// RecordAccessor extracts normalized rates from storage rows.
type RecordAccessor struct {
	cols domain.Columns
}

func NewRecordAccessor(cols domain.Columns) RecordAccessor {
	return RecordAccessor{cols: cols}
}

func (a RecordAccessor) Code(row domain.Row) (string, bool) {
	s, ok := asString(row[a.cols.Code])
	if !ok {
		return "", false
	}
	s = domain.NormalizeCode(s)
	return s, s != ""
}

func (a RecordAccessor) Rate(row domain.Row) (float64, bool) {
	return asFloat(row[a.cols.Rate])
}

// UpdatedAt prefers the updated-at column and falls back to created-at.
func (a RecordAccessor) UpdatedAt(row domain.Row) *time.Time {
	for _, col := range []string{a.cols.UpdatedAt, a.cols.CreatedAt} {
		if col == "" {
			continue
		}
		if t, ok := asTime(row[col]); ok {
			return &t
		}
	}
	return nil
}

// Extract returns the normalized record; ok is false when code or rate is
// missing or unreadable, in which case the row is unusable.
func (a RecordAccessor) Extract(row domain.Row) (domain.Rate, bool) {
	code, ok := a.Code(row)
	if !ok {
		return domain.Rate{}, false
	}
	rate, ok := a.Rate(row)
	if !ok {
		return domain.Rate{}, false
	}
	return domain.Rate{Code: code, Rate: rate, UpdatedAt: a.UpdatedAt(row)}, true
}

// ExtractAll normalizes rows, dropping the unusable ones.
func (a RecordAccessor) ExtractAll(rows []domain.Row) []domain.Rate {
	out := make([]domain.Rate, 0, len(rows))
	for _, row := range rows {
		if r, ok := a.Extract(row); ok {
			out = append(out, r)
		}
	}
	return out
}

func asString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case []byte:
		return string(x), true
	case *string:
		if x == nil {
			return "", false
		}
		return *x, true
	case fmt.Stringer:
		return x.String(), true
	default:
		return "", false
	}
}

func asFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case *float64:
		if x == nil {
			return 0, false
		}
		f = *x
	case json.Number:
		p, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = p
	case string:
		return parseFloat(x)
	case []byte:
		return parseFloat(string(x))
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func asTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), !x.IsZero()
	case *time.Time:
		if x == nil || x.IsZero() {
			return time.Time{}, false
		}
		return x.UTC(), true
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999Z07:00", "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, x); err == nil {
				return t.UTC(), true
			}
		}
		return time.Time{}, false
	case int64:
		if x <= 0 {
			return time.Time{}, false
		}
		return time.Unix(x, 0).UTC(), true
	default:
		return time.Time{}, false
	}
}
