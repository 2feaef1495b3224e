package web

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/JonMunkholm/questionbank/internal/logging"
)

// maxFormMemory is the part of a multipart upload kept in memory; the rest
// spills to a temporary file.
const maxFormMemory = 8 << 20

// handleUpload ingests a CSV file posted as the multipart field "file" and
// responds with the ingestion report. Row-level problems are part of the
// report; only request-level problems produce an error status.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Ingest.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) || strings.Contains(err.Error(), "request body too large") {
			s.respondError(w, r, errors.Wrapf(errFileTooBig, "limit is %d bytes", maxSize), http.StatusRequestEntityTooLarge)
			return
		}
		s.respondError(w, r, errors.Wrapf(err, "%s", errInvalidForm), http.StatusBadRequest)
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		s.respondError(w, r, errors.Wrapf(errNotCSV, "%s", header.Filename), http.StatusBadRequest)
		return
	}
	if header.Size == 0 {
		s.respondError(w, r, errEmptyFile, http.StatusBadRequest)
		return
	}

	if !s.limiter.TryAcquire() {
		logging.FromContext(r.Context()).Info("waiting for upload slot", "active", s.limiter.ActiveCount())
		if err := s.limiter.Acquire(r.Context()); err != nil {
			s.respondError(w, r, err, http.StatusServiceUnavailable)
			return
		}
	}
	defer s.limiter.Release()

	ctx, runID := withIngestRun(r.Context())
	w.Header().Set("X-Ingest-ID", runID.String())

	logging.WithFields(ctx, "file", header.Filename, "size", header.Size, "run_id", runID.String()).
		Info("upload received")

	report := s.ingester.Ingest(ctx, file)
	writeJSON(w, http.StatusOK, report)
}
