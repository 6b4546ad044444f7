package web

import (
	"context"
	"net/http"
	"time"

	"github.com/JonMunkholm/pricing/internal/core"
	"github.com/JonMunkholm/pricing/internal/logging"
)

const healthCheckTimeout = 2 * time.Second

type healthResponse struct {
	Status      string                   `json:"status"`
	Store       string                   `json:"store"`
	Submissions core.UploadLimiterStatus `json:"submissions"`
}

// handleHealth reports store reachability and submission slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := healthResponse{
		Status:      "ok",
		Store:       "ok",
		Submissions: s.service.LimiterStatus(),
	}
	status := http.StatusOK

	if err := s.service.Ping(ctx); err != nil {
		logging.FromContext(r.Context()).Warn("health check failed", "error", err)
		resp.Status = "degraded"
		resp.Store = "unreachable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
