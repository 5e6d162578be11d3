package application

import (
	"fmt"
	"sort"

	"fxrates-adapter/internal/domain"
)

// Resolver computes conversion rates from base-relative records.
type Resolver struct {
	base string
}

func NewResolver(base string) Resolver {
	return Resolver{base: base}
}

// Codes returns the distinct codes that must be fetched to convert from -> to.
// The base currency is implied and never fetched.
func (r Resolver) Codes(codes ...string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c == "" || c == r.base {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Index keys records by code. A later duplicate wins.
func Index(rates []domain.Rate) map[string]domain.Rate {
	out := make(map[string]domain.Rate, len(rates))
	for _, r := range rates {
		out[r.Code] = r
	}
	return out
}

// Rate returns how many units of to one unit of from buys.
func (r Resolver) Rate(from, to string, records map[string]domain.Rate) (float64, error) {
	switch {
	case from == to:
		return 1.0, nil
	case from == r.base:
		return r.direct(to, records)
	case to == r.base:
		v, err := r.direct(from, records)
		if err != nil {
			return 0, err
		}
		return 1 / v, nil
	default:
		return r.cross(from, to, records)
	}
}

// direct looks up a base-relative rate. A zero rate counts as missing.
func (r Resolver) direct(code string, records map[string]domain.Rate) (float64, error) {
	rec, ok := records[code]
	if !ok || rec.Rate == 0 {
		return 0, notFound(code)
	}
	if rec.Rate < 0 {
		return 0, invalidRate(code, rec.Rate)
	}
	return rec.Rate, nil
}

func (r Resolver) cross(from, to string, records map[string]domain.Rate) (float64, error) {
	fromRec, ok := records[from]
	if !ok {
		return 0, notFound(from)
	}
	toRec, ok := records[to]
	if !ok {
		return 0, notFound(to)
	}
	if fromRec.Rate <= 0 {
		return 0, invalidRate(from, fromRec.Rate)
	}
	if toRec.Rate <= 0 {
		return 0, invalidRate(to, toRec.Rate)
	}
	return toRec.Rate / fromRec.Rate, nil
}

func notFound(code string) error {
	return domain.NewError(domain.KindRateNotFound, fmt.Sprintf("Exchange rate not found for currency: %s", code))
}

func invalidRate(code string, v float64) error {
	return domain.NewError(domain.KindInvalidRate, fmt.Sprintf("Invalid exchange rate for currency %s: %v", code, v))
}
