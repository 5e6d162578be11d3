package domain

import "time"

// isoMillis is ISO-8601 with millisecond precision.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// FormatDate renders t as an ISO-8601 UTC string with milliseconds.
func FormatDate(t time.Time) string {
	return t.UTC().Format(isoMillis)
}

type ErrorInfo struct {
	Info string `json:"info"`
	Type string `json:"type,omitempty"`
}

// ErrorInfoFrom converts err into the envelope error block.
func ErrorInfoFrom(err error) *ErrorInfo {
	return &ErrorInfo{Info: err.Error(), Type: string(KindOf(err))}
}

type ConversionQuery struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

type ConversionInfo struct {
	Timestamp int64    `json:"timestamp"`
	Rate      *float64 `json:"rate,omitempty"`
}

type ConversionResult struct {
	Success bool            `json:"success"`
	Query   ConversionQuery `json:"query"`
	Info    ConversionInfo  `json:"info"`
	Date    string          `json:"date"`
	Result  *float64        `json:"result,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

type ExchangeRatesResult struct {
	Success   bool               `json:"success"`
	Timestamp int64              `json:"timestamp"`
	Date      string             `json:"date"`
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	Error     *ErrorInfo         `json:"error,omitempty"`
}

type HealthCheckResult struct {
	Healthy bool   `json:"healthy"`
	Latency *int64 `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}
