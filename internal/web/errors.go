package web

// errors.go turns request failures into JSON error responses.
//
// The technical error is logged with the request id; the client receives the
// mapped user message and its support code.

import (
	"net/http"

	"github.com/cockroachdb/errors"

	"github.com/JonMunkholm/questionbank/internal/ingest"
	"github.com/JonMunkholm/questionbank/internal/logging"
)

// Upload request failures. Their texts are matched by ingest.MapError.
var (
	errNoFile      = errors.New("no file provided")
	errEmptyFile   = errors.New("empty file")
	errNotCSV      = errors.New("not a csv file")
	errFileTooBig  = errors.New("file too large")
	errInvalidForm = errors.New("invalid upload form")
	errRateLimited = errors.New("rate limit exceeded")
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes its user-facing form with statusCode.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	msg := ingest.MapError(err)

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", msg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request error", args...)
	}

	writeJSON(w, statusCode, ErrorResponse{
		Error:   err.Error(),
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.respondError(w, r, errRateLimited, http.StatusTooManyRequests)
}
