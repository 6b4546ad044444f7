package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/pricing/internal/core"
)

// handleAuditTrail lists recent submissions, newest first.
//
// Query params: groupId (optional), limit (1-500, default 50).
func (s *Server) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	q := core.AuditQuery{GroupID: strings.TrimSpace(r.URL.Query().Get("groupId"))}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			s.respondError(w, r, &requestError{
				err:    errors.New("invalid limit"),
				fields: map[string]string{"limit": "must be a positive integer"},
			})
			return
		}
		q.Limit = limit
	}

	entries, err := s.service.AuditTrail(r.Context(), q)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
