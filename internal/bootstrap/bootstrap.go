package bootstrap

import (
	"context"
	"log/slog"

	"cloud.google.com/go/firestore"
	kms "cloud.google.com/go/kms/apiv1"
	"cloud.google.com/go/storage"
	"firebase.google.com/go/v4/auth"

	"github.com/GregMSThompson/ca-portal/internal/config"
	"github.com/GregMSThompson/ca-portal/pkg/logger"
)

type Bootstrap struct {
	Log       *slog.Logger
	Firestore *firestore.Client
	Firebase  *auth.Client
	Objects   ObjectStore
	Cipher    FieldCipher
	Mailer    Mailer

	gcs *storage.Client
	kms *kms.KeyManagementClient
}

func Run(ctx context.Context, cfg *config.Config) (*Bootstrap, error) {
	var err error
	bs := new(Bootstrap)

	bs.Log = logger.New(cfg.LogLevel, logger.NewCloudRunHandler)

	if needsSecrets(cfg) {
		sm, err := InitSecretManager(ctx)
		if err != nil {
			return bs, err
		}
		err = ResolveSecrets(ctx, sm, cfg)
		sm.Close()
		if err != nil {
			return bs, err
		}
	}

	bs.Firestore, err = InitFirestore(ctx, cfg.ProjectID)
	if err != nil {
		return bs, err
	}
	bs.Firebase, err = InitFirebase(ctx, cfg.ProjectID)
	if err != nil {
		return bs, err
	}
	bs.Objects, bs.gcs, err = InitObjectStore(ctx, cfg)
	if err != nil {
		return bs, err
	}
	bs.Cipher, bs.kms, err = InitCipher(ctx, cfg.KMSKeyName)
	if err != nil {
		return bs, err
	}
	bs.Mailer = InitMailer(cfg)

	bs.Log.Info("bootstrap complete",
		"project", cfg.ProjectID,
		"storage_driver", cfg.StorageDriver,
		"kms", cfg.KMSKeyName != "",
		"sendgrid", cfg.SendGridAPIKey != "")
	return bs, nil
}

func (bs *Bootstrap) Close() {
	if bs.Firestore != nil {
		bs.Firestore.Close()
	}
	if bs.gcs != nil {
		bs.gcs.Close()
	}
	if bs.kms != nil {
		bs.kms.Close()
	}
}
