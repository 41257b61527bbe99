package bootstrap

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/ca-portal/internal/config"
)

// secretPrefix marks a config value as a Secret Manager reference, e.g.
// sm://projects/p/secrets/sendgrid-api-key/versions/latest
const secretPrefix = "sm://"

type secretAccessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// secretFields lists the config values that may hold secret references.
func secretFields(cfg *config.Config) []*string {
	return []*string{
		&cfg.FirebaseWebAPIKey,
		&cfg.MinioAccessKey,
		&cfg.MinioSecretKey,
		&cfg.SendGridAPIKey,
	}
}

func needsSecrets(cfg *config.Config) bool {
	for _, f := range secretFields(cfg) {
		if strings.HasPrefix(*f, secretPrefix) {
			return true
		}
	}
	return false
}

// ResolveSecrets replaces every sm:// value in cfg with the secret payload.
func ResolveSecrets(ctx context.Context, client secretAccessor, cfg *config.Config) error {
	for _, f := range secretFields(cfg) {
		if !strings.HasPrefix(*f, secretPrefix) {
			continue
		}
		name := strings.TrimPrefix(*f, secretPrefix)
		if !strings.Contains(name, "/versions/") {
			name += "/versions/latest"
		}
		res, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("secret %s not found", name)
		}
		if err != nil {
			return fmt.Errorf("access secret %s: %w", name, err)
		}
		*f = strings.TrimSpace(string(res.GetPayload().GetData()))
	}
	return nil
}

func InitSecretManager(ctx context.Context) (*secretmanager.Client, error) {
	return secretmanager.NewClient(ctx)
}
