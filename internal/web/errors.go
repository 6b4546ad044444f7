package web

// errors.go turns service errors into responses.
//
// Every failure is logged with the technical error and request ID, then
// returned as the user-facing message from core.MapError. Responses carry the
// individual problems (missing columns, failing rows) in "errors" so a client
// can list them all. HTMX requests get an HTML fragment instead of JSON.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/pricing/internal/core"
	"github.com/JonMunkholm/pricing/internal/logging"
	"github.com/JonMunkholm/pricing/internal/web/templates"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Action  string   `json:"action,omitempty"`
	Code    string   `json:"code"`
	Errors  []string `json:"errors"`
}

// respondError logs err and writes the mapped user message with a status
// derived from the error kind.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)
	details := errorDetails(err)

	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "10")
	}

	if isHTMX(r) {
		renderErrorPartial(w, r, userMsg, details, status)
		return
	}
	writeJSON(w, status, ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
		Errors:  details,
	})
}

// detailer is implemented by request errors that list individual problems.
type detailer interface {
	Details() []string
}

func errorDetails(err error) []string {
	if details := core.ErrorDetails(err); details != nil {
		return details
	}
	var d detailer
	if errors.As(err, &d) {
		return d.Details()
	}
	return []string{}
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	var (
		missing *core.InputMissingError
		media   *core.UnsupportedMediaTypeError
		decode  *core.DecodeError
		schema  *core.SchemaError
		rows    core.ValidationErrors
	)

	switch {
	case errors.Is(err, errFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &missing),
		errors.As(err, &decode),
		errors.Is(err, core.ErrInvalidSubmissionType),
		errors.Is(err, core.ErrNoPricingRows):
		return http.StatusBadRequest
	case errors.As(err, &media):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &schema), errors.As(err, &rows):
		return http.StatusUnprocessableEntity
	case core.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManySubmissions):
		return http.StatusTooManyRequests
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// renderErrorPartial writes the error alert fragment for HTMX swaps.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, details []string, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code, details).Render(r.Context(), w); err != nil {
		slog.Error("render error alert", "error", err)
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// writeJSON encodes v as JSON with the given status.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// writeError writes a bare JSON error for failures raised outside the service,
// such as rate limiting.
func writeError(w http.ResponseWriter, status int, err error) {
	msg := core.MapError(err)
	writeJSON(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
		Errors:  []string{},
	})
}
