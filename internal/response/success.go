package response

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/GregMSThompson/ca-portal/pkg/logger"
)

type SuccessEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// File is an attachment download. Size is optional; zero omits Content-Length.
type File struct {
	ContentType string
	FileName    string
	Size        int64
	Body        io.Reader
}

func (h *responseHandler) WriteSuccess(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(SuccessEnvelope{Success: true, Data: data}); err != nil {
		// headers are gone, nothing left but to log
		logger.FromContext(r.Context()).Error("failed to encode success response", "error", err)
	}
}

// WriteFile streams f as an attachment. A copy failure after the headers are
// written is logged since the status can no longer change.
func (h *responseHandler) WriteFile(w http.ResponseWriter, r *http.Request, f File) {
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.FileName}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if f.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(f.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, f.Body)
	if err != nil {
		logger.FromContext(r.Context()).Warn("file write interrupted", "file", f.FileName, "written", n, "error", err)
	}
}
