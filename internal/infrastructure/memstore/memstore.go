package memstore

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"fxrates-adapter/internal/application"
	"fxrates-adapter/internal/domain"
)

// RateModel is an in-process currency table.
type RateModel struct {
	mu    sync.RWMutex
	rates map[string]domain.Row
	cols  domain.Columns
}

var _ application.RateModel = (*RateModel)(nil)

func New(cols domain.Columns) *RateModel {
	return &RateModel{rates: map[string]domain.Row{}, cols: cols}
}

func (m *RateModel) Upsert(_ context.Context, code string, rate float64, at time.Time) error {
	code = domain.NormalizeCode(code)
	m.mu.Lock()
	defer m.mu.Unlock()
	row := domain.Row{m.cols.Code: code, m.cols.Rate: rate}
	created := at
	if prev, ok := m.rates[code]; ok && m.cols.CreatedAt != "" {
		if t, ok := prev[m.cols.CreatedAt].(time.Time); ok {
			created = t
		}
	}
	if m.cols.CreatedAt != "" {
		row[m.cols.CreatedAt] = created
	}
	if m.cols.UpdatedAt != "" {
		row[m.cols.UpdatedAt] = at
	}
	m.rates[code] = row
	return nil
}

func (m *RateModel) All(_ context.Context, q application.Query) ([]domain.Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	codes := make([]string, 0, len(m.rates))
	for code := range m.rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var out []domain.Row
	for _, code := range codes {
		row := m.rates[code]
		if q.Filter != nil && !matches(row[q.Filter.Column], q.Filter.Values) {
			continue
		}
		out = append(out, project(row, q.Columns))
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

func (m *RateModel) First(ctx context.Context, q application.Query) (domain.Row, bool, error) {
	rows, err := m.All(ctx, q.WithLimit(1))
	if err != nil || len(rows) == 0 {
		return nil, false, err
	}
	return rows[0], true, nil
}

func matches(v any, values []string) bool {
	s := fmt.Sprint(v)
	for _, want := range values {
		if s == want {
			return true
		}
	}
	return false
}

func project(row domain.Row, cols []string) domain.Row {
	if len(cols) == 0 {
		out := make(domain.Row, len(row))
		for k, v := range row {
			out[k] = v
		}
		return out
	}
	out := make(domain.Row, len(cols))
	for _, c := range cols {
		if v, ok := row[c]; ok {
			out[c] = v
		}
	}
	return out
}

// ParseSeed reads "EUR:0.85,GBP:0.73" into a code to rate map.
func ParseSeed(s string) (map[string]float64, error) {
	out := map[string]float64{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, val, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("seed entry %q: want CODE:RATE", part)
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, fmt.Errorf("seed entry %q: %w", part, err)
		}
		code = domain.NormalizeCode(code)
		if code == "" {
			return nil, fmt.Errorf("seed entry %q: empty code", part)
		}
		out[code] = rate
	}
	return out, nil
}
