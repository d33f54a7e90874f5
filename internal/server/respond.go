package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/tidewater/seabridge/internal/fulfill"
	"github.com/tidewater/seabridge/internal/gateway"
	"github.com/tidewater/seabridge/internal/opensea"
)

// writeOK writes {ok:true} merged with the payload fields.
func (s *Server) writeOK(w http.ResponseWriter, payload map[string]any) {
	body := map[string]any{"ok": true}
	for k, v := range payload {
		body[k] = v
	}
	s.writeJSON(w, http.StatusOK, body)
}

// writeError writes {ok:false, error} with an optional upstream status.
func (s *Server) writeError(w http.ResponseWriter, httpStatus int, message string, upstreamStatus int) {
	body := map[string]any{"ok": false, "error": message}
	if upstreamStatus != 0 {
		body["status"] = upstreamStatus
	}
	s.writeJSON(w, httpStatus, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "err", err)
	}
}

// writeServiceError maps service-layer failures onto the wire. Validation
// rejections are the caller's fault; upstream failures keep the upstream
// status; a missing credential is our own misconfiguration.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var vErr *gateway.ValidationError
	if errors.As(err, &vErr) {
		s.writeError(w, http.StatusBadRequest, vErr.Error(), 0)
		return
	}
	var fErr *fulfill.ValidationError
	if errors.As(err, &fErr) {
		s.writeError(w, http.StatusBadRequest, fErr.Error(), 0)
		return
	}
	if errors.Is(err, opensea.ErrMissingAPIKey) {
		s.writeError(w, http.StatusInternalServerError, "marketplace credential not configured", 0)
		return
	}
	var apiErr *opensea.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		s.writeError(w, status, apiErr.Message, apiErr.Status)
		return
	}
	s.logger.Error("request failed", "err", err)
	s.writeError(w, http.StatusInternalServerError, "internal error", 0)
}

// sanitizeNumbers re-decodes raw upstream JSON with number preservation and
// converts every integer wider than float64's exact range into a decimal
// string, recursively. Clients reading the response with default JSON
// parsers would otherwise corrupt wei amounts and token ids.
func sanitizeNumbers(raw json.RawMessage) any {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return json.RawMessage(raw)
	}
	return sanitizeValue(v)
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = sanitizeValue(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = sanitizeValue(item)
		}
		return val
	case json.Number:
		return sanitizeNumber(val)
	default:
		return v
	}
}

// float64 represents integers exactly up to 2^53; anything longer than 15
// digits is at risk.
func sanitizeNumber(n json.Number) any {
	s := n.String()
	if strings.ContainsAny(s, ".eE") {
		return n
	}
	digits := strings.TrimPrefix(s, "-")
	if len(digits) > 15 {
		return s
	}
	return n
}
