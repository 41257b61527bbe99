package response

import (
	"log/slog"
	"net/http"
)

// ResponseHandler writes every API response. JSON bodies use the
// {success,data} and {success,error} envelopes; files are streamed raw.
type ResponseHandler interface {
	WriteSuccess(w http.ResponseWriter, r *http.Request, status int, data any)
	WriteFile(w http.ResponseWriter, r *http.Request, f File)
	WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string)
	HandleError(w http.ResponseWriter, r *http.Request, err error)
}

type responseHandler struct {
	Log *slog.Logger
}

func New(log *slog.Logger) *responseHandler {
	return &responseHandler{Log: log}
}
