package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/LavaJover/vaultx-rates-service/internal/delivery/http/dto/rates/request"
	"github.com/LavaJover/vaultx-rates-service/internal/delivery/http/dto/rates/response"
	"github.com/LavaJover/vaultx-rates-service/internal/domain"
	"github.com/LavaJover/vaultx-rates-service/internal/usecase"
)

type HTTPRatesHandler struct {
	service usecase.RateService
	metrics HTTPMetrics
	logger  *slog.Logger
}

func NewHTTPRatesHandler(service usecase.RateService, metrics HTTPMetrics, logger *slog.Logger) *HTTPRatesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPRatesHandler{service: service, metrics: metrics, logger: logger}
}

// Register mounts the rate routes on mux.
func (h *HTTPRatesHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /rates", instrument("/rates", h.metrics, h.GetRates))
	mux.HandleFunc("GET /rates/convert", instrument("/rates/convert", h.metrics, h.Convert))
	mux.HandleFunc("GET /rates/matrix", instrument("/rates/matrix", h.metrics, h.Matrix))
	mux.HandleFunc("GET /healthz", h.Health)
}

// GetRates serves the aggregated table as {"USD-NGN":...,"timestamp":...}.
func (h *HTTPRatesHandler) GetRates(w http.ResponseWriter, r *http.Request) {
	table, err := h.service.GetRates(r.Context())
	if err != nil {
		h.logger.Error("failed to get rates", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (h *HTTPRatesHandler) Convert(w http.ResponseWriter, r *http.Request) {
	req, err := request.ParseConvertRequest(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.service.Convert(r.Context(), req.From, req.To, req.Amount)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("conversion failed", "from", req.From, "to", req.To, "error", err)
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, response.ConvertResponse{
		From:      conv.From.String(),
		To:        conv.To.String(),
		Amount:    conv.Amount,
		Rate:      conv.Rate,
		Result:    conv.Result,
		Formatted: conv.Formatted,
		Symbol:    conv.To.Info().Symbol,
		Timestamp: conv.Timestamp,
	})
}

func (h *HTTPRatesHandler) Matrix(w http.ResponseWriter, r *http.Request) {
	table, matrix, err := h.service.Matrix(r.Context())
	if err != nil {
		h.logger.Error("failed to build rate matrix", "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	resp := response.MatrixResponse{
		Rates:     make([]response.MatrixEntry, 0, len(matrix)),
		Timestamp: table.Timestamp(),
	}
	for _, m := range matrix {
		resp.Rates = append(resp.Rates, response.MatrixEntry{
			Pair: m.Pair.String(),
			From: m.Pair.From.String(),
			To:   m.Pair.To.String(),
			Rate: m.Rate,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPRatesHandler) Health(w http.ResponseWriter, r *http.Request) {
	if !h.service.Ready() {
		writeError(w, http.StatusServiceUnavailable, domain.ErrRatesUnavailable.Error())
		return
	}
	writeJSON(w, http.StatusOK, response.HealthResponse{Status: "ok"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrUnsupportedCurrency):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRatesUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes before writing the header so an encoding failure can
// still be reported as a 500.
func writeJSON(w http.ResponseWriter, status int, body any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(response.ErrorResponse{Error: "failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, response.ErrorResponse{Error: msg})
}
