package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"fxrates-adapter/internal/application"
	"fxrates-adapter/internal/domain"
	"fxrates-adapter/internal/infrastructure/logx"
	"fxrates-adapter/internal/infrastructure/metrics"

	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"
)

type Server struct {
	registry *application.Registry
	metrics  *metrics.Metrics
	ping     func(ctx context.Context) error
	timeout  time.Duration
}

func NewServer(registry *application.Registry, m *metrics.Metrics) *Server {
	return &Server{registry: registry, metrics: m}
}

// SetReadyCheck adds a dependency probe to /readyz on top of the provider health checks.
func (s *Server) SetReadyCheck(ping func(ctx context.Context) error) { s.ping = ping }

// SetRequestTimeout bounds the context handed to providers. Zero disables it.
func (s *Server) SetRequestTimeout(d time.Duration) { s.timeout = d }

type rateResponse struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Rate float64 `json:"rate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) provider(w http.ResponseWriter, r *http.Request) (application.ExchangeProvider, bool) {
	var name *string
	if err := runtime.BindQueryParameter("form", true, false, "provider", r.URL.Query(), &name); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return nil, false
	}
	var (
		p   application.ExchangeProvider
		err error
	)
	if name == nil || *name == "" {
		p, err = s.registry.Default()
	} else {
		p, err = s.registry.Get(*name)
	}
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_provider", err.Error())
		return nil, false
	}
	return p, true
}

func (s *Server) Convert(w http.ResponseWriter, r *http.Request) {
	var params application.ConvertParams
	if err := bindAll(r.URL.Query(),
		binding{"from", true, &params.From},
		binding{"to", true, &params.To},
		binding{"amount", true, &params.Amount},
	); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	p, ok := s.provider(w, r)
	if !ok {
		return
	}
	res := p.Convert(r.Context(), params)
	status := http.StatusOK
	if !res.Success {
		status = statusFor(res.Error)
	}
	writeJSON(w, status, res)
}

func (s *Server) LatestRates(w http.ResponseWriter, r *http.Request) {
	var (
		base    *string
		symbols *[]string
		params  application.LatestRatesParams
	)
	// Optional parameters bind through a second pointer.
	if err := bindAll(r.URL.Query(),
		binding{"base", false, &base},
		binding{"symbols", false, &symbols},
		binding{"cache", false, &params.Cache},
	); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if base != nil {
		params.Base = *base
	}
	if symbols != nil {
		params.Symbols = *symbols
	}
	p, ok := s.provider(w, r)
	if !ok {
		return
	}
	res := p.LatestRates(r.Context(), params)
	status := http.StatusOK
	if !res.Success {
		status = statusFor(res.Error)
	}
	writeJSON(w, status, res)
}

func (s *Server) GetConvertRate(w http.ResponseWriter, r *http.Request) {
	var from, to string
	if err := bindAll(r.URL.Query(),
		binding{"from", true, &from},
		binding{"to", true, &to},
	); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	p, ok := s.provider(w, r)
	if !ok {
		return
	}
	from, to = domain.NormalizeCode(from), domain.NormalizeCode(to)
	rate, ok := p.GetConvertRate(r.Context(), from, to)
	if !ok {
		writeError(w, http.StatusNotFound, "rate_unavailable", "no rate for "+from+"/"+to)
		return
	}
	writeJSON(w, http.StatusOK, rateResponse{From: from, To: to, Rate: rate})
}

// Ready reports 200 only when the probe and every provider health check pass.
func (s *Server) Ready(w http.ResponseWriter, r *http.Request) {
	if s.ping != nil {
		if err := s.ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "not_ready", "db not ready")
			return
		}
	}
	health := s.registry.HealthCheckAll(r.Context())
	status := http.StatusOK
	for name, h := range health {
		if s.metrics != nil {
			s.metrics.SetHealthy(name, h.Healthy)
		}
		if !h.Healthy {
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, health)
}

type binding struct {
	name     string
	required bool
	dest     any
}

func bindAll(q url.Values, bs ...binding) error {
	for _, b := range bs {
		// symbols=EUR,GBP is the unexploded form style
		explode := b.name != "symbols"
		if err := runtime.BindQueryParameter("form", explode, b.required, b.name, q, b.dest); err != nil {
			return err
		}
	}
	return nil
}

func statusFor(info *domain.ErrorInfo) int {
	if info == nil {
		return http.StatusInternalServerError
	}
	switch domain.ErrorKind(info.Type) {
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindRateNotFound:
		return http.StatusNotFound
	case domain.KindInvalidRate:
		return http.StatusUnprocessableEntity
	case domain.KindStorage, domain.KindModelNotConfigured, domain.KindCacheUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON marshals before writing the header; an unencodable value is a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logx.L().Error("http.encode_failed", zap.Error(err))
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Code: "internal", Message: "failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
