package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage is what a user sees in place of a technical error. Code is
// quoted to support; the catalog below is the lookup table.
type UserMessage struct {
	Message string
	Action  string
	Code    string
}

// catalog holds every support code. Codes are grouped by prefix:
// PRC pricing data, VAL input validation, FILE upload handling, DB storage,
// UPL submission load, RATE request throttling, ERR anything unrecognised.
var catalog = map[string]UserMessage{
	"PRC001": {Message: "Pricing group not found", Action: "Check the group ID or create a new pricing group"},
	"PRC002": {Message: "Customer not found", Action: "Search for the customer again and reselect it"},

	"VAL001": {Message: "Invalid date format detected", Action: "Use YYYY-MM-DD, MM/DD/YYYY, or Jan 15, 2024"},
	"VAL002": {Message: "Invalid number format detected", Action: "Remove currency symbols and use standard decimal format"},
	"VAL003": {Message: "A required field is missing", Action: "Fill in the missing field and submit again"},
	"VAL004": {Message: "Required columns are missing from the file", Action: "Download the template and check your column headers"},
	"VAL005": {Message: "Some rows failed validation; nothing was saved", Action: "Fix the listed rows and submit the whole file again"},
	"VAL006": {Message: "Unknown pricing submission type", Action: "Choose either new pricing or an addendum"},
	"VAL007": {Message: "The request body is not valid", Action: "Check the listed fields and send the request again"},

	"FILE001": {Message: "File exceeds the maximum upload size", Action: "Split the file into smaller submissions"},
	"FILE002": {Message: "The file could not be read as a spreadsheet", Action: "Save the file as .xlsx or .csv and try again"},
	"FILE004": {Message: "No file or pasted data was provided", Action: "Select a spreadsheet or paste rows copied from one"},
	"FILE005": {Message: "The file has no rows", Action: "Add a header row and at least one pricing row"},
	"FILE006": {Message: "Unsupported file type", Action: "Upload an .xlsx or .csv file, or paste rows from a spreadsheet"},

	"DB001": {Message: "A record with this ID already exists", Action: "Please submit again to generate new identifiers"},
	"DB003": {Message: "Referenced record does not exist", Action: "Check that the customer and pricing group exist"},
	"DB004": {Message: "Unable to connect to database", Action: "Please try again in a few moments"},
	"DB005": {Message: "Database connection was interrupted", Action: "Please try again"},
	"DB006": {Message: "Operation timed out", Action: "Try a smaller file or try again later"},
	"DB007": {Message: "Database was busy with conflicting operations", Action: "Please try again"},

	"UPL002": {Message: "System is busy processing other submissions", Action: "Please wait a moment and try again"},
	"UPL004": {Message: "Request was cancelled", Action: "Please try again"},
	"UPL005": {Message: "Request timed out", Action: "Try a smaller file or check your connection"},

	"RATE001": {Message: "Too many requests", Action: "Please wait a moment before trying again"},

	"ERR000": {Message: "An unexpected error occurred", Action: "Please try again or contact support"},
}

// lookup returns the catalog entry for code with Code filled in.
func lookup(code string) UserMessage {
	msg, ok := catalog[code]
	if !ok {
		code = "ERR000"
		msg = catalog[code]
	}
	msg.Code = code
	return msg
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

func pattern(substr, code string) errorPattern {
	return errorPattern{pattern: substr, msg: lookup(code)}
}

// errorPatterns match lower-cased error text for errors that carry no type,
// mostly driver and context errors. Order matters: the first hit wins.
var errorPatterns = []errorPattern{
	pattern("duplicate key", "DB001"),
	pattern("violates foreign key", "DB003"),
	pattern("connection refused", "DB004"),
	pattern("connection reset", "DB005"),
	pattern("timeout", "DB006"),
	pattern("deadlock", "DB007"),

	pattern("invalid date", "VAL001"),
	pattern("invalid number", "VAL002"),
	pattern("missing required column", "VAL004"),
	pattern("invalid submission type", "VAL006"),
	pattern("invalid request body", "VAL007"),

	pattern("file too large", "FILE001"),
	pattern("request body too large", "FILE001"),
	pattern("no rows found", "FILE005"),

	pattern("too many concurrent submissions", "UPL002"),
	pattern("context canceled", "UPL004"),
	pattern("context deadline exceeded", "UPL005"),

	pattern("rate limit", "RATE001"),
}

// MapError picks the UserMessage for err. Typed errors are checked with
// errors.As before any text matching; nil maps to the zero UserMessage.
//
//	MapError(&SchemaError{Missing: []string{"Status"}}).Code // "VAL004"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	if msg, ok := mapTyped(err); ok {
		return msg
	}
	if msg, ok := matchPattern(err); ok {
		return msg
	}
	return lookup("ERR000")
}

func mapTyped(err error) (UserMessage, bool) {
	var (
		missing  *InputMissingError
		media    *UnsupportedMediaTypeError
		decode   *DecodeError
		schema   *SchemaError
		rows     ValidationErrors
		notFound *NotFoundError
	)

	switch {
	case errors.As(err, &missing):
		if missing.Field == "file" {
			return lookup("FILE004"), true
		}
		msg := lookup("VAL003")
		msg.Message = fmt.Sprintf("%s is required", missing.Field)
		return msg, true

	case errors.As(err, &media):
		return lookup("FILE006"), true

	case errors.As(err, &decode):
		// A decode failure caused by size or cancellation reports that cause.
		if msg, ok := matchPattern(decode.Err); ok {
			return msg, true
		}
		return lookup("FILE002"), true

	case errors.As(err, &schema):
		return lookup("VAL004"), true

	case errors.As(err, &rows):
		msg := lookup("VAL005")
		msg.Message = fmt.Sprintf("%d row(s) failed validation; nothing was saved", len(rows))
		return msg, true

	case errors.As(err, &notFound):
		if notFound.Resource == "customer" {
			return lookup("PRC002"), true
		}
		return lookup("PRC001"), true
	}
	return UserMessage{}, false
}

func matchPattern(err error) (UserMessage, bool) {
	if err == nil {
		return UserMessage{}, false
	}
	text := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(text, p.pattern) {
			return p.msg, true
		}
	}
	return UserMessage{}, false
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != "ERR000"
}
