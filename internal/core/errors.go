package core

import (
	"errors"
	"fmt"
	"strings"
)

// InputMissingError reports a required submission field that was not sent.
type InputMissingError struct {
	Field string
}

func (e *InputMissingError) Error() string {
	return fmt.Sprintf("missing input: %s", e.Field)
}

// UnsupportedMediaTypeError reports an upload whose declared type is not a
// spreadsheet format we read.
type UnsupportedMediaTypeError struct {
	Filename    string
	ContentType string
}

func (e *UnsupportedMediaTypeError) Error() string {
	return fmt.Sprintf("unsupported media type: %q (%s)", e.Filename, e.ContentType)
}

// DecodeError wraps a failure to read bytes as tabular data.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode spreadsheet: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// SchemaError lists every required column absent from the header row.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// RowError is one validation failure tied to a spreadsheet row number.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("Row %d: %s", e.Row, e.Message)
}

// ValidationErrors is the batch of row failures for one submission.
type ValidationErrors []RowError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	return fmt.Sprintf("%d rows failed validation; first: %s", len(e), e[0].Error())
}

// Messages returns each failure as "Row n: message".
func (e ValidationErrors) Messages() []string {
	out := make([]string, len(e))
	for i, re := range e {
		out[i] = re.Error()
	}
	return out
}

// NotFoundError reports a referenced record that does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ErrorDetails returns the individual messages carried by err, for responses
// that list every problem. Errors without details return nil.
func ErrorDetails(err error) []string {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve.Messages()
	}

	var se *SchemaError
	if errors.As(err, &se) {
		out := make([]string, len(se.Missing))
		for i, name := range se.Missing {
			out[i] = fmt.Sprintf("Missing required column: %s", name)
		}
		return out
	}

	return nil
}
