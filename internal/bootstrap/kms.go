package bootstrap

import (
	"context"

	kms "cloud.google.com/go/kms/apiv1"

	"github.com/GregMSThompson/ca-portal/internal/crypto"
)

// FieldCipher encrypts KYC identifiers at rest.
type FieldCipher interface {
	Encrypt(ctx context.Context, plaintext string) (string, error)
	Decrypt(ctx context.Context, ciphertext string) (string, error)
}

// InitCipher uses Cloud KMS when a key is configured and stores plaintext otherwise.
func InitCipher(ctx context.Context, keyName string) (FieldCipher, *kms.KeyManagementClient, error) {
	if keyName == "" {
		return crypto.NewPlain(), nil, nil
	}
	client, err := kms.NewKeyManagementClient(ctx)
	if err != nil {
		return nil, nil, err
	}
	return crypto.NewKMS(client, keyName), client, nil
}
