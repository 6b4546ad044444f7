package web

import (
	"net/http"

	"github.com/JonMunkholm/pricing/internal/sheet"
	"github.com/go-chi/chi/v5"
)

// ============================================================================
// Customer and Group Handlers
// ============================================================================

func (s *Server) handleSearchCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := s.service.SearchCustomers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.service.ListGroups(r.Context(), chi.URLParam(r, "customerId"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := s.service.GetGroup(r.Context(), chi.URLParam(r, "groupId"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (s *Server) handleGetGroupItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.GetGroupItems(r.Context(), chi.URLParam(r, "groupId"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// bulkAddRequest carries positional rows, either as a JSON grid or as text
// pasted from a spreadsheet. Rows wins when both are set.
type bulkAddRequest struct {
	Rows [][]string `json:"rows" validate:"max=5000"`
	Data string     `json:"data" validate:"required_without=Rows"`
}

// handleBulkAdd appends position-addressed rows to an existing group.
func (s *Server) handleBulkAdd(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	var req bulkAddRequest
	if err := decodeJSONBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	rows := req.Rows
	if len(rows) == 0 {
		rows = sheet.DecodePaste(req.Data)
	}

	ctx := WithRequestMetadata(r.Context(), r)
	result, err := s.service.BulkAdd(ctx, chi.URLParam(r, "groupId"), rows)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}
