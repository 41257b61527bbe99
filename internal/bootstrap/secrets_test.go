package bootstrap

import (
	"context"
	"testing"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/ca-portal/internal/client/mailer"
	"github.com/GregMSThompson/ca-portal/internal/config"
	"github.com/GregMSThompson/ca-portal/pkg/helpers"
)

type stubSecrets struct {
	values    map[string]string
	requested []string
}

func (s *stubSecrets) AccessSecretVersion(_ context.Context, req *secretmanagerpb.AccessSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	s.requested = append(s.requested, req.GetName())
	v, ok := s.values[req.GetName()]
	if !ok {
		return nil, status.Error(codes.NotFound, "no such secret")
	}
	return &secretmanagerpb.AccessSecretVersionResponse{
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(v)},
	}, nil
}

func TestResolveSecrets(t *testing.T) {
	cfg := &config.Config{
		SendGridAPIKey:    "sm://projects/p/secrets/sendgrid",
		MinioSecretKey:    "sm://projects/p/secrets/minio/versions/3",
		FirebaseWebAPIKey: "plain-key",
	}
	if !needsSecrets(cfg) {
		t.Fatalf("config with sm:// values should need secrets")
	}
	sm := &stubSecrets{values: map[string]string{
		"projects/p/secrets/sendgrid/versions/latest": "SG.key\n",
		"projects/p/secrets/minio/versions/3":         "minio-secret",
	}}

	if err := ResolveSecrets(helpers.TestCtx(), sm, cfg); err != nil {
		t.Fatalf("ResolveSecrets error: %v", err)
	}
	if cfg.SendGridAPIKey != "SG.key" || cfg.MinioSecretKey != "minio-secret" || cfg.FirebaseWebAPIKey != "plain-key" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(sm.requested) != 2 {
		t.Fatalf("plain values should not be looked up: %v", sm.requested)
	}
	if needsSecrets(cfg) {
		t.Fatalf("resolved config should not need secrets")
	}
}

func TestResolveSecretsMissing(t *testing.T) {
	cfg := &config.Config{SendGridAPIKey: "sm://projects/p/secrets/gone"}
	if err := ResolveSecrets(helpers.TestCtx(), &stubSecrets{}, cfg); err == nil {
		t.Fatalf("missing secret should fail")
	}
}

func TestInitMailer(t *testing.T) {
	if _, ok := InitMailer(&config.Config{}).(mailer.LogOnly); !ok {
		t.Fatalf("no API key should select the logging mailer")
	}
	if _, ok := InitMailer(&config.Config{SendGridAPIKey: "SG.x"}).(*mailer.SendGrid); !ok {
		t.Fatalf("API key should select SendGrid")
	}
}

func TestInitFirebaseNeedsProjectWithEmulator(t *testing.T) {
	t.Setenv("FIREBASE_AUTH_EMULATOR_HOST", "localhost:9099")

	if _, err := InitFirebase(helpers.TestCtx(), ""); err == nil {
		t.Fatalf("expected error without a project ID")
	}
}
