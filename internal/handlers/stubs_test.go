package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/GregMSThompson/ca-portal/internal/middleware"
	"github.com/GregMSThompson/ca-portal/internal/response"
	"github.com/GregMSThompson/ca-portal/pkg/helpers"
	"github.com/GregMSThompson/ca-portal/pkg/logger"
)

type stubResponseHandler struct {
	writeSuccessCalled bool
	writeSuccessStatus int
	writeSuccessData   any

	writeFileCalled bool
	writeFile       response.File

	handleErrorCalled bool
	handleError       error

	errorWriteCalled bool
	errorWriteStatus int
	errorWriteCode   string
}

func (s *stubResponseHandler) WriteSuccess(w http.ResponseWriter, _ *http.Request, status int, data any) {
	s.writeSuccessCalled = true
	s.writeSuccessStatus = status
	s.writeSuccessData = data

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"success":true}`))
}

// WriteFile records the file and writes it for real so header assertions hold.
func (s *stubResponseHandler) WriteFile(w http.ResponseWriter, r *http.Request, f response.File) {
	s.writeFileCalled = true
	s.writeFile = f
	response.New(slog.New(logger.NewTestHandler(slog.LevelInfo))).WriteFile(w, r, f)
}

func (s *stubResponseHandler) WriteError(w http.ResponseWriter, _ *http.Request, status int, code, _ string) {
	s.errorWriteCalled = true
	s.errorWriteStatus = status
	s.errorWriteCode = code
	w.WriteHeader(status)
}

func (s *stubResponseHandler) HandleError(w http.ResponseWriter, _ *http.Request, err error) {
	s.handleErrorCalled = true
	s.handleError = err
	w.WriteHeader(http.StatusInternalServerError)
}

// authedCtx returns a test context carrying the identity FirebaseAuth and LoadRole would set.
func authedCtx(uid, role string) context.Context {
	ctx := context.WithValue(helpers.TestCtx(), middleware.UIDKey, uid)
	return context.WithValue(ctx, middleware.RoleKey, role)
}
