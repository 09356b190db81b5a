/**
 * @description
 * HTTP handlers for the narration service.
 */
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wcpay/narration-service/internal/app"
	"github.com/wcpay/narration-service/internal/domain"
	"github.com/wcpay/narration-service/internal/store"
	"github.com/wcpay/narration-service/internal/timeline"
)

const maxRenderBody = 1 << 20

// Handler holds the application service that handlers will interact with.
type Handler struct {
	service *app.Service
	logger  *slog.Logger
}

// NewHandler creates a new Handler with the given service.
func NewHandler(service *app.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

type timelineResponse struct {
	ChargeID string          `json:"charge_id,omitempty"`
	Items    []timeline.Item `json:"items"`
}

type renderTimelineRequest struct {
	Events   json.RawMessage `json:"events"`
	BankName string          `json:"bank_name"`
}

type renderDisputeRequest struct {
	Dispute json.RawMessage `json:"dispute"`
	Charge  json.RawMessage `json:"charge"`
	View    string          `json:"view"`
}

type renderFeesRequest struct {
	Event json.RawMessage `json:"event"`
}

func (h *Handler) handleGetTimeline(w http.ResponseWriter, r *http.Request) {
	chargeID := chi.URLParam(r, "chargeID")
	items, err := h.service.Timeline(r.Context(), chargeID)
	if err != nil {
		h.writeServiceError(w, "get_timeline", err)
		return
	}
	writeJSON(w, http.StatusOK, timelineResponse{ChargeID: chargeID, Items: items})
}

func (h *Handler) handleGetFees(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Fees(r.Context(), chi.URLParam(r, "chargeID"))
	if err != nil {
		h.writeServiceError(w, "get_fees", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleGetDetails(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Details(r.Context(), chi.URLParam(r, "chargeID"))
	if err != nil {
		h.writeServiceError(w, "get_details", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleGetDisputeNarrative(w http.ResponseWriter, r *http.Request) {
	detailsView := strings.EqualFold(r.URL.Query().Get("view"), "details")
	narrative, err := h.service.DisputeNarrative(r.Context(), chi.URLParam(r, "disputeID"), detailsView)
	if err != nil {
		h.writeServiceError(w, "get_dispute_narrative", err)
		return
	}
	writeJSON(w, http.StatusOK, narrative)
}

func (h *Handler) handleRenderTimeline(w http.ResponseWriter, r *http.Request) {
	var req renderTimelineRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Events) == 0 {
		writeError(w, http.StatusBadRequest, "events are required")
		return
	}
	events, err := domain.DecodeTimelineEvents(req.Events)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, timelineResponse{Items: h.service.RenderTimeline(events, strings.TrimSpace(req.BankName))})
}

func (h *Handler) handleRenderDispute(w http.ResponseWriter, r *http.Request) {
	var req renderDisputeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Dispute) == 0 {
		writeError(w, http.StatusBadRequest, "dispute is required")
		return
	}
	d, err := domain.DecodeDispute(req.Dispute)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var pm *domain.PaymentMethodDetails
	if len(req.Charge) > 0 && string(req.Charge) != "null" {
		charge, err := domain.DecodeCharge(req.Charge)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		pm = charge.PaymentMethodDetails
	}

	narrative := h.service.RenderDispute(d, pm, strings.EqualFold(req.View, "details"))
	writeJSON(w, http.StatusOK, narrative)
}

func (h *Handler) handleRenderFees(w http.ResponseWriter, r *http.Request) {
	var req renderFeesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Event) == 0 {
		writeError(w, http.StatusBadRequest, "event is required")
		return
	}
	event, err := domain.DecodeTimelineEvent(req.Event)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.service.RenderFees(event))
}

func (h *Handler) writeServiceError(w http.ResponseWriter, endpoint string, err error) {
	status, message := mapServiceError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "endpoint", endpoint, "error", err)
	}
	writeError(w, status, message)
}

// mapServiceError translates service errors into an HTTP status and message.
func mapServiceError(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrChargeNotFound):
		return http.StatusNotFound, "Payment not found."
	case errors.Is(err, store.ErrDisputeNotFound):
		return http.StatusNotFound, "Dispute not found."
	case errors.Is(err, app.ErrNoCapture):
		return http.StatusNotFound, "Payment has not been captured."
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "08") {
		return http.StatusServiceUnavailable, "Storage is temporarily unavailable."
	}

	return http.StatusInternalServerError, "Could not render the requested record."
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRenderBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not read request body")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// writeJSON writes JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
