package domain

import (
	"strings"
	"time"
)

// Row is one record as returned by the storage layer: column name to value.
type Row map[string]any

// Rate is a normalized currency record. Rate is expressed as
// "1 unit of base = Rate units of Code".
type Rate struct {
	Code      string     `json:"code"`
	Rate      float64    `json:"rate"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Columns maps normalized fields to storage column names.
type Columns struct {
	Code      string `json:"code" validate:"required"`
	Rate      string `json:"rate" validate:"required"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func DefaultColumns() Columns {
	return Columns{
		Code:      "code",
		Rate:      "exchange_rate",
		CreatedAt: "created_at",
		UpdatedAt: "updated_at",
	}
}

// Select lists the columns to read, skipping the optional ones left empty.
func (c Columns) Select() []string {
	out := []string{c.Code, c.Rate}
	if c.CreatedAt != "" {
		out = append(out, c.CreatedAt)
	}
	if c.UpdatedAt != "" {
		out = append(out, c.UpdatedAt)
	}
	return out
}

// NormalizeCode trims and upper-cases a currency code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
