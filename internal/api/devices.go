package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-zigbee/internal/bridges/zigbee"
)

// handleHealth reports liveness and the state of every broker connection.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	conns := s.bridge.Connections()
	status := zigbee.HealthHealthy
	for _, c := range conns {
		if !c.Connected {
			status = zigbee.HealthDegraded
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          status,
		"version":         s.version,
		"uptime_seconds":  int64(time.Since(s.startedAt).Seconds()),
		"devices_managed": s.bridge.DeviceCount(),
		"connections":     conns,
		"ws_clients":      s.hub.ClientCount(),
	})
}

// handleListDevices returns a snapshot of every registered device.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.bridge.Devices(r.Context())
	if err != nil {
		writeBridgeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// handleGetDevice returns one device.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	desc, err := s.bridge.DescribeDevice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeBridgeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, desc)
}

// propertyResponse is returned by both property routes.
type propertyResponse struct {
	DeviceID string `json:"device_id"`
	Property string `json:"property"`
	Value    any    `json:"value"`
}

// handleGetProperty returns a property's cached value.
func (s *Server) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	id, name := chi.URLParam(r, "id"), chi.URLParam(r, "name")
	desc, err := s.bridge.DescribeDevice(r.Context(), id)
	if err != nil {
		writeBridgeError(w, err)
		return
	}
	prop, ok := desc.Properties[name]
	if !ok {
		writeNotFound(w, "property not found: "+name)
		return
	}
	writeJSON(w, http.StatusOK, propertyResponse{DeviceID: id, Property: name, Value: prop.Value})
}

type setPropertyRequest struct {
	Value any `json:"value"`
}

// handleSetProperty validates and writes a property value.
func (s *Server) handleSetProperty(w http.ResponseWriter, r *http.Request) {
	id, name := chi.URLParam(r, "id"), chi.URLParam(r, "name")

	var req setPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	value, err := s.bridge.SetProperty(r.Context(), id, name, req.Value)
	if err != nil {
		writeBridgeError(w, err)
		return
	}
	s.logger.Info("property set",
		"device_id", id,
		"property", name,
		"value", value,
		"subject", r.Context().Value(ctxKeySubject),
		"request_id", r.Context().Value(ctxKeyRequestID),
	)
	writeJSON(w, http.StatusOK, propertyResponse{DeviceID: id, Property: name, Value: value})
}

const (
	defaultPairingTimeout = 60 * time.Second
	maxPairingTimeout     = 254 * time.Second
)

type startPairingRequest struct {
	TimeoutSeconds int `json:"timeout_seconds"`
}

// handleStartPairing asks the bridge to refresh its device list.
func (s *Server) handleStartPairing(w http.ResponseWriter, r *http.Request) {
	var req startPairingRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "invalid JSON body")
			return
		}
	}
	if req.TimeoutSeconds < 0 {
		writeBadRequest(w, "timeout_seconds must not be negative")
		return
	}

	timeout := time.Duration(req.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = defaultPairingTimeout
	}
	timeout = min(timeout, maxPairingTimeout)

	if err := s.bridge.StartPairing(r.Context(), timeout); err != nil {
		writeBridgeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":          "pairing",
		"timeout_seconds": int(timeout.Seconds()),
	})
}

// handleCancelPairing cancels a pairing window.
func (s *Server) handleCancelPairing(w http.ResponseWriter, r *http.Request) {
	if err := s.bridge.CancelPairing(r.Context()); err != nil {
		writeBridgeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// handleDeviceHistory returns the device's recent property changes and events.
func (s *Server) handleDeviceHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeNotFound(w, "history is disabled")
		return
	}

	id := chi.URLParam(r, "id")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := s.history.History(r.Context(), id, limit)
	if err != nil {
		s.logger.Error("history query failed", "device_id", id, "error", err)
		writeInternalError(w, "history query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": id,
		"entries":   entries,
		"count":     len(entries),
	})
}
