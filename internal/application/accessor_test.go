package application

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"fxrates-adapter/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestRecordAccessor_Extract(t *testing.T) {
	t.Parallel()
	a := NewRecordAccessor(domain.DefaultColumns())
	created := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)

	r, ok := a.Extract(domain.Row{"code": " eur ", "exchange_rate": "0.85", "created_at": created, "updated_at": &updated})
	require.True(t, ok)
	require.Equal(t, "EUR", r.Code)
	require.Equal(t, 0.85, r.Rate)
	require.Equal(t, updated, *r.UpdatedAt)

	r, ok = a.Extract(domain.Row{"code": []byte("gbp"), "exchange_rate": json.Number("0.73"), "created_at": created})
	require.True(t, ok)
	require.Equal(t, "GBP", r.Code)
	require.Equal(t, created, *r.UpdatedAt)

	r, ok = a.Extract(domain.Row{"code": "JPY", "exchange_rate": int64(110)})
	require.True(t, ok)
	require.Nil(t, r.UpdatedAt)
	require.Equal(t, 110.0, r.Rate)
}

func TestRecordAccessor_RejectsUnusableRows(t *testing.T) {
	t.Parallel()
	a := NewRecordAccessor(domain.DefaultColumns())
	rows := []domain.Row{
		{"code": "", "exchange_rate": 1.0},
		{"exchange_rate": 1.0},
		{"code": "EUR"},
		{"code": "EUR", "exchange_rate": "n/a"},
		{"code": "EUR", "exchange_rate": math.NaN()},
		{"code": 42, "exchange_rate": 1.0},
		{"code": "CHF", "exchange_rate": 0.9},
	}
	got := a.ExtractAll(rows)
	require.Len(t, got, 1)
	require.Equal(t, "CHF", got[0].Code)
}

func TestRecordAccessor_CustomColumns(t *testing.T) {
	t.Parallel()
	a := NewRecordAccessor(domain.Columns{Code: "iso", Rate: "value", UpdatedAt: "modified"})
	r, ok := a.Extract(domain.Row{"iso": "sek", "value": 10.5, "modified": "2025-01-02T03:04:05Z"})
	require.True(t, ok)
	require.Equal(t, "SEK", r.Code)
	require.Equal(t, 10.5, r.Rate)
	require.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), *r.UpdatedAt)
}
