package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"
)

const healthCheckTimeout = 10 * time.Second

// healthHandler reports the service, extraction backends, active rubric and certificate state
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "hirescore",
		"version": s.version,
	}
	healthy := true

	if s.backends != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		models := s.backends.GetModelInfo(ctx)
		cancel()

		response["ai_models"] = models
		for _, info := range models {
			if info != nil && !info.Available {
				healthy = false
			}
		}
	}

	current := s.store.Current()
	response["rubric"] = map[string]any{
		"sections":   current.Len(),
		"weight_sum": current.WeightSum(),
	}

	if certStatus := s.checkCertificateHealth(); certStatus != nil {
		response["certificates"] = certStatus
		if ok, _ := certStatus["healthy"].(bool); !ok {
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// checkCertificateHealth reports certificate expiry, or nil when TLS is off
func (s *Server) checkCertificateHealth() map[string]any {
	if s.certs == nil {
		return nil
	}

	total, failed, lastError := s.certs.Reloads()
	certStatus := map[string]any{
		"reloads":         total,
		"reload_failures": failed,
	}
	if lastError != "" {
		certStatus["last_reload_error"] = lastError
	}

	timeToExpiry := s.certs.TimeToExpiry()

	const (
		criticalThreshold = 24 * time.Hour
		warningThreshold  = 7 * 24 * time.Hour
	)

	certStatus["time_to_expiry"] = timeToExpiry.String()
	switch {
	case timeToExpiry <= 0:
		certStatus["healthy"] = false
		certStatus["status"] = "expired"
	case timeToExpiry <= criticalThreshold:
		certStatus["healthy"] = false
		certStatus["status"] = "critical"
	case timeToExpiry <= warningThreshold:
		certStatus["healthy"] = true
		certStatus["status"] = "warning"
	default:
		certStatus["healthy"] = true
		certStatus["status"] = "ok"
	}
	return certStatus
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "hirescore",
		"version": s.version,
		"server": map[string]any{
			"max_request_size_bytes": s.cfg.MaxRequestSize,
			"auth_enabled":           len(s.apiKeys) > 0,
		},
	}

	if s.rateLimiter != nil {
		stats := s.rateLimiter.GetStats()
		stats["enabled"] = true
		stats["by_ip"] = s.cfg.RateLimit.ByIP
		stats["by_api_key"] = s.cfg.RateLimit.ByAPIKey
		response["rate_limiting"] = stats
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if s.backends != nil {
		response["extraction"] = s.backends.Stats()
	}

	writeJSON(w, http.StatusOK, response)
}

// readBody reads the request body, reporting an oversized body distinctly
func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return body, nil
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := readBody(r)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) // headers are already sent
}
