package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GregMSThompson/ca-portal/internal/errs"
)

func TestSignInWithPassword(t *testing.T) {
	var gotKey, gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"idToken":"id-1","refreshToken":"rt-1","expiresIn":"3600","localId":"uid-1","email":"a@example.com"}`))
	}))
	defer srv.Close()

	c := NewREST(srv.URL, srv.URL, "web-key")
	sess, err := c.SignInWithPassword(context.Background(), "a@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignInWithPassword error: %v", err)
	}
	if gotKey != "web-key" || gotPath != "/v1/accounts:signInWithPassword" {
		t.Fatalf("unexpected request key=%q path=%q", gotKey, gotPath)
	}
	if gotBody["returnSecureToken"] != true {
		t.Fatalf("returnSecureToken not set: %v", gotBody)
	}
	if sess.UID != "uid-1" || sess.IDToken != "id-1" || sess.ExpiresIn != 3600 {
		t.Fatalf("unexpected session: %+v", sess)
	}
}

func TestSignInInvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"INVALID_LOGIN_CREDENTIALS"}}`))
	}))
	defer srv.Close()

	c := NewREST(srv.URL, srv.URL, "k")
	_, err := c.SignInWithPassword(context.Background(), "a@example.com", "wrong")
	var unauth *errs.UnauthorizedError
	if !errors.As(err, &unauth) {
		t.Fatalf("expected UnauthorizedError, got %v", err)
	}
}

func TestRefreshSessionSendsForm(t *testing.T) {
	var grant, token string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		grant = r.PostForm.Get("grant_type")
		token = r.PostForm.Get("refresh_token")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id_token":"id-2","refresh_token":"rt-2","expires_in":"3600","user_id":"uid-1"}`))
	}))
	defer srv.Close()

	c := NewREST(srv.URL, srv.URL, "k")
	sess, err := c.RefreshSession(context.Background(), "rt-1")
	if err != nil {
		t.Fatalf("RefreshSession error: %v", err)
	}
	if grant != "refresh_token" || token != "rt-1" {
		t.Fatalf("unexpected form grant=%q token=%q", grant, token)
	}
	if sess.IDToken != "id-2" || sess.UID != "uid-1" {
		t.Fatalf("unexpected session: %+v", sess)
	}
}

func TestConfirmPasswordResetErrors(t *testing.T) {
	cases := map[string]func(error) bool{
		"EXPIRED_OOB_CODE": func(err error) bool {
			var v *errs.ValidationError
			return errors.As(err, &v)
		},
		"WEAK_PASSWORD : Password should be at least 6 characters": func(err error) bool {
			var v *errs.ValidationError
			return errors.As(err, &v) && v.Fields["newPassword"] != ""
		},
		"SOMETHING_NEW": func(err error) bool {
			var e *errs.ExternalServiceError
			return errors.As(err, &e) && !e.Transient
		},
	}
	for msg, check := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": 400, "message": msg}})
		}))
		err := NewREST(srv.URL, srv.URL, "k").ConfirmPasswordReset(context.Background(), "oob", "abcdef")
		srv.Close()
		if !check(err) {
			t.Fatalf("message %q mapped to unexpected error %v", msg, err)
		}
	}
}

func TestServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewREST(srv.URL, srv.URL, "k").RefreshSession(context.Background(), "rt")
	var ext *errs.ExternalServiceError
	if !errors.As(err, &ext) || !ext.Transient {
		t.Fatalf("expected transient ExternalServiceError, got %v", err)
	}
}
