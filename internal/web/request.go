package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"slices"
	"strings"

	"github.com/JonMunkholm/pricing/internal/core"
	"github.com/go-playground/validator/v10"
)

var (
	errBadRequest   = errors.New("invalid request body")
	errFileTooLarge = errors.New("file too large")
	errRateLimited  = errors.New("rate limit exceeded")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// requestError is a malformed or invalid request body. Fields maps JSON field
// names to what is wrong with them.
type requestError struct {
	err    error
	fields map[string]string
}

func (e *requestError) Error() string {
	if e.err == nil {
		return errBadRequest.Error()
	}
	return fmt.Sprintf("%s: %v", errBadRequest, e.err)
}

func (e *requestError) Is(target error) bool { return target == errBadRequest }

func (e *requestError) Unwrap() error { return e.err }

// Details lists field problems as "field message", sorted by field.
func (e *requestError) Details() []string {
	out := make([]string, 0, len(e.fields))
	for field, msg := range e.fields {
		out = append(out, field+" "+msg)
	}
	slices.Sort(out)
	return out
}

// decodeJSONBody decodes a JSON request into dest, rejecting unknown fields,
// and runs struct validation.
func decodeJSONBody(r *http.Request, dest any) error {
	defer func() {
		io.Copy(io.Discard, r.Body)
	}()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return &requestError{err: err, fields: map[string]string{"body": err.Error()}}
	}
	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return &requestError{err: err}
	}

	fields := make(map[string]string, len(errs))
	for _, fieldErr := range errs {
		fields[fieldErr.Field()] = validationMessage(fieldErr)
	}
	return &requestError{err: errors.New("validation failed"), fields: fields}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "max":
		return fmt.Sprintf("must have at most %s entries", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	}
	return "is invalid"
}

// readUpload parses a multipart pricing form. The file part wins over
// pastedData when both are present.
func readUpload(w http.ResponseWriter, r *http.Request, maxSize int64) (core.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			return core.Upload{}, fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, maxSize)
		}
		return core.Upload{}, &requestError{err: err, fields: map[string]string{"form": "must be multipart/form-data"}}
	}

	u := core.Upload{Pasted: r.FormValue("pastedData")}

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return u, nil
	case err != nil:
		return core.Upload{}, &requestError{err: err, fields: map[string]string{"file": "could not be read"}}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return core.Upload{}, fmt.Errorf("read upload: %w", err)
	}

	u.Filename = header.Filename
	u.ContentType = header.Header.Get("Content-Type")
	u.Data = data
	return u, nil
}

// parseCustomFields reads the customHeaderFields JSON object. Values are
// stored as text; numbers and booleans keep their JSON spelling.
func parseCustomFields(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, &requestError{err: err, fields: map[string]string{"customHeaderFields": "must be a JSON object"}}
	}

	out := make(map[string]string, len(fields))
	for k, v := range fields {
		switch v := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = v
		default:
			b, _ := json.Marshal(v)
			out[k] = string(b)
		}
	}
	return out, nil
}
