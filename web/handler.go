// Package web serves the net-mode selects as a small JSON API.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/lte-dashboard/exporter/logging"
	"github.com/lte-dashboard/exporter/selects"
)

const requestIDHeader = "X-Request-ID"

// SelectService is what the API needs from the select manager.
type SelectService interface {
	States() []selects.State
	Select(item string) (*selects.Select, bool)
	SelectOption(ctx context.Context, item, option string) error
}

// Handler serves the select API.
type Handler struct {
	service SelectService
	logger  *slog.Logger
	mux     *http.ServeMux
}

type selectOptionRequest struct {
	Option string `json:"option"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

// NewHandler creates the API handler.
func NewHandler(service SelectService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		service: service,
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	h.mux.HandleFunc("GET /api/selects", h.listSelects)
	h.mux.HandleFunc("GET /api/selects/{item}", h.getSelect)
	h.mux.HandleFunc("POST /api/selects/{item}", h.selectOption)
	return h
}

// ServeHTTP tags the request with an id and dispatches it.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(requestIDHeader, requestID)

	logger := h.logger.With(slog.String("request_id", requestID))
	ctx := logging.WithLogger(r.Context(), logger)
	h.mux.ServeHTTP(w, r.WithContext(ctx))
}

func (h *Handler) listSelects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.States())
}

func (h *Handler) getSelect(w http.ResponseWriter, r *http.Request) {
	s, ok := h.service.Select(r.PathValue("item"))
	if !ok {
		writeError(w, http.StatusNotFound, selects.ErrUnknownSelect)
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

func (h *Handler) selectOption(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())
	item := r.PathValue("item")

	var req selectOptionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	err := h.service.SelectOption(r.Context(), item, req.Option)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, selects.ErrUnknownSelect):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, selects.ErrInvalidOption):
		writeError(w, http.StatusBadRequest, err)
	default:
		logger.ErrorContext(r.Context(), "Failed to apply option",
			slog.String("item", item), slog.String("option", req.Option), slog.Any("error", err))
		writeError(w, http.StatusBadGateway, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{
		Error:     err.Error(),
		RequestID: w.Header().Get(requestIDHeader),
	})
}
