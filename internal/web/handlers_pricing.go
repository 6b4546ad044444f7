package web

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/pricing/internal/core"
	"github.com/JonMunkholm/pricing/internal/sheet"
	"github.com/JonMunkholm/pricing/internal/web/templates"
)

// ============================================================================
// Pricing Submission Handlers
// ============================================================================

// handleCreatePricing accepts a multipart pricing submission and stores it
// as a new group or an addendum. Nothing is stored unless every row passes.
func (s *Server) handleCreatePricing(w http.ResponseWriter, r *http.Request) {
	upload, err := readUpload(w, r, s.cfg.Upload.MaxFileSize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	customFields, err := parseCustomFields(r.FormValue("customHeaderFields"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	sub := core.Submission{
		Type:          core.GroupType(strings.TrimSpace(r.FormValue("type"))),
		CustomerID:    strings.TrimSpace(r.FormValue("customerId")),
		GroupName:     strings.TrimSpace(r.FormValue("groupName")),
		Description:   strings.TrimSpace(r.FormValue("description")),
		Template:      strings.TrimSpace(r.FormValue("template")),
		CustomFields:  customFields,
		TargetGroupID: strings.TrimSpace(r.FormValue("targetGroupId")),
		Upload:        upload,
	}

	ctx := WithRequestMetadata(r.Context(), r)
	result, err := s.service.CreatePricing(ctx, sub)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusCreated)
		if err := templates.SubmissionSummary(result.GroupID, result.GroupName, result.ItemCount).Render(ctx, w); err != nil {
			slog.Error("render submission summary", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// handlePreviewPricing validates an upload without storing it.
func (s *Server) handlePreviewPricing(w http.ResponseWriter, r *http.Request) {
	upload, err := readUpload(w, r, s.cfg.Upload.MaxFileSize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	preview, err := s.service.PreviewPricing(WithRequestMetadata(r.Context(), r), upload)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// handleDownloadTemplate streams the blank pricing workbook.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	// Encode fully first so a failure can still become an error response.
	var buf bytes.Buffer
	if err := s.service.WriteTemplate(&buf); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", sheet.XLSXContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+core.TemplateFilename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("write template", "error", err)
	}
}
