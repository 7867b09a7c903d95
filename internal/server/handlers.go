package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/parceldesk/shipbridge/internal/hostorders"
	"github.com/parceldesk/shipbridge/pkg/carrier"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch carrier.KindOf(err) {
	case carrier.KindInvalidData:
		status = http.StatusBadRequest
	case carrier.KindUnauthorized:
		status = http.StatusUnauthorized
	case carrier.KindNotFound:
		status = http.StatusNotFound
	case carrier.KindRateLimited:
		status = http.StatusTooManyRequests
	case carrier.KindUnavailable:
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// handleEstimate answers a serviceability query for a pickup/delivery
// postcode pair. Sits behind the per-IP rate limiter.
func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pickup := q.Get("pickup_postcode")
	delivery := q.Get("delivery_postcode")
	if pickup == "" || delivery == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "pickup_postcode and delivery_postcode are required"})
		return
	}

	weight := 0.5
	if raw := q.Get("weight"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "weight must be a positive number of kilograms"})
			return
		}
		weight = parsed
	}
	cod := q.Get("cod") == "true" || q.Get("cod") == "1"

	estimate, err := s.carrier.CheckServiceability(r.Context(), pickup, delivery, weight, cod)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, estimate)
}

// handleTrack returns the stored tracking record for a waybill. When the
// record is linked to a host order with a known customer, the caller must
// present that customer's identity; any mismatch or lookup failure is
// reported as not found so callers cannot probe for waybills they do not own.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	awb := chi.URLParam(r, "awb")

	record, ok := s.trackSvc.Get(awb)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "tracking record not found"})
		return
	}

	if record.HostOrderID != "" {
		order, err := s.orders.GetOrder(r.Context(), record.HostOrderID)
		if err != nil {
			// Ambiguity during ownership verification denies access.
			if !errors.Is(err, hostorders.ErrNotFound) {
				s.logger.Warn("Ownership check failed, denying access",
					zap.String("awb", awb), zap.Error(err))
			}
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "tracking record not found"})
			return
		}
		if order.CustomerID != "" && r.Header.Get("X-Customer-Id") != order.CustomerID {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "tracking record not found"})
			return
		}
	}

	writeJSON(w, http.StatusOK, record)
}

// handleWebhook ingests a carrier push notification. The shared secret is
// compared in constant time; a missing server-side secret is a deployment
// fault and is reported as such rather than as an auth failure.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.cfg.WebhookSecret == "" {
		s.logger.Error("Webhook secret is not configured, rejecting all pushes")
		s.metrics.RecordWebhook("misconfigured")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "webhook endpoint is not configured"})
		return
	}

	provided := r.Header.Get("x-api-key")
	if subtle.ConstantTimeCompare([]byte(provided), []byte(s.cfg.WebhookSecret)) != 1 {
		s.metrics.RecordWebhook("unauthorized")
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid api key"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.metrics.RecordWebhook("invalid")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unreadable body"})
		return
	}

	if _, err := s.trackSvc.ProcessPush(r.Context(), body); err != nil {
		s.metrics.RecordWebhook("invalid")
		writeError(w, err)
		return
	}

	s.metrics.RecordWebhook("accepted")
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleSync forces a pull-based reconciliation for one waybill.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	awb := chi.URLParam(r, "awb")
	regenerate := r.URL.Query().Get("regenerate_docs") == "true"

	record, err := s.trackSvc.Sync(r.Context(), awb, regenerate)
	if err != nil {
		s.metrics.RecordSync("error")
		writeError(w, err)
		return
	}

	s.metrics.RecordSync("ok")
	writeJSON(w, http.StatusOK, record)
}

type createShipmentRequest struct {
	OrderID string `json:"order_id"`
	Items   []struct {
		LineID   string `json:"line_id"`
		Quantity int    `json:"quantity"`
	} `json:"items"`
}

// handleCreateShipment runs the full shipment pipeline for a host order.
func (s *Server) handleCreateShipment(w http.ResponseWriter, r *http.Request) {
	var req createShipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}
	if req.OrderID == "" || len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "order_id and items are required"})
		return
	}

	order, err := s.orders.GetOrder(r.Context(), req.OrderID)
	if err != nil {
		if errors.Is(err, hostorders.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "order not found"})
			return
		}
		writeError(w, err)
		return
	}

	items := make([]carrier.FulfillmentItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, carrier.FulfillmentItem{LineID: it.LineID, Quantity: it.Quantity})
	}

	shipment, err := s.carrier.CreateShipment(r.Context(), items, order)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.trackSvc.RecordShipment(shipment, order.ID); err != nil {
		s.logger.Warn("Failed to seed tracking record for new shipment",
			zap.String("awb", shipment.Waybill), zap.Error(err))
	}

	writeJSON(w, http.StatusCreated, shipment)
}
