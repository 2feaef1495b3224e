package ingest

// error_messages.go maps technical errors to messages an uploader can act on.
//
// Every message carries a code that users can quote to support:
//
//	DB001-DB007    store constraint and connection errors
//	VAL001-VAL004  row validation errors
//	FILE001-FILE007 payload and upload file errors
//	UPL001-UPL003  upload slot and request lifecycle errors
//	RATE001        request throttling
//	ERR000         anything else; check the logs for the original error
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Store constraints
	{"duplicate key", UserMessage{"A question with this content already exists", "Remove duplicate questions from your file", "DB001"}},
	{"violates unique", UserMessage{"A duplicate value was found", "Check for duplicate entries in your CSV", "DB002"}},
	{"violates check", UserMessage{"A value was rejected by the database", "Review the reported rows and correct their values", "DB003"}},

	// Store connectivity
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB005"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB007"}},

	// Request lifecycle, ahead of the generic timeout pattern
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "UPL002"}},
	{"context deadline exceeded", UserMessage{"Upload took too long to process", "Split the file into smaller files and upload them separately", "UPL003"}},
	{"timeout", UserMessage{"Operation timed out", "Try uploading a smaller file or try again later", "DB006"}},

	// Row validation
	{"missing required columns", UserMessage{"A row has fewer columns than required", "Make sure every row has content, category, company and year", "VAL004"}},
	{"is required", UserMessage{"Required field is empty", "Ensure all required columns have values", "VAL003"}},
	{"exceeds", UserMessage{"A value is longer than allowed", "Shorten the reported values", "VAL001"}},
	{"must be exactly", UserMessage{"A value has the wrong length", "Use a 4-digit year such as 2024", "VAL002"}},

	// Payload and file
	{"file too large", UserMessage{"File exceeds the maximum upload size", "Split the file into smaller chunks", "FILE001"}},
	{"not valid utf-8", UserMessage{"File contains invalid characters", "Save file as UTF-8 encoding", "FILE003"}},
	{"ingestion aborted", UserMessage{"File is not a valid CSV", "Ensure file is comma-separated with balanced quotes", "FILE002"}},
	{"no file provided", UserMessage{"No file was selected", "Please select a CSV file to upload", "FILE004"}},
	{"empty payload", UserMessage{"The uploaded file has no questions", "Add at least one row below the header", "FILE005"}},
	{"empty file", UserMessage{"The uploaded file is empty", "Please upload a CSV file with data rows", "FILE005"}},
	{"not a csv file", UserMessage{"Only CSV files are accepted", "Export your sheet as .csv and upload it again", "FILE006"}},
	{"invalid upload form", UserMessage{"The upload could not be read", "Send the file as multipart form data in a field named file", "FILE007"}},

	// Upload slots and throttling
	{"too many concurrent uploads", UserMessage{"System is busy processing other uploads", "Please wait a moment and try again", "UPL001"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Unknown errors map to ERR000.
//
// Example:
//
//	msg := MapError(errors.New(`duplicate key value violates unique constraint "questions_content_key"`))
//	// msg.Code == "DB001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
