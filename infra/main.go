package main

import (
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/GregMSThompson/ca-portal/infra/cloudrun"
	"github.com/GregMSThompson/ca-portal/infra/docker"
	"github.com/GregMSThompson/ca-portal/infra/firestore"
	"github.com/GregMSThompson/ca-portal/infra/identity"
	"github.com/GregMSThompson/ca-portal/infra/kms"
	"github.com/GregMSThompson/ca-portal/infra/provider"
	"github.com/GregMSThompson/ca-portal/infra/secret"
	"github.com/GregMSThompson/ca-portal/infra/storage"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		// set default provider with the correct project
		prov, err := provider.SetupDefaultProvider(ctx)
		if err != nil {
			return err
		}

		// enable identity platform for email/password sign-in
		ident, err := identity.SetupIdentity(ctx, prov)
		if err != nil {
			return err
		}

		// enable firestore and create a database for the project
		if err := firestore.SetupFirestore(ctx, prov); err != nil {
			return err
		}

		// service account shared by the api and the worker
		sa, err := cloudrun.CreateServiceAccount(ctx, prov)
		if err != nil {
			return err
		}

		// document bucket
		bucket, err := storage.SetupDocumentBucket(ctx, prov, sa)
		if err != nil {
			return err
		}

		// kyc field encryption key
		kmsSvc, err := kms.SetupKMS(ctx, prov)
		if err != nil {
			return err
		}
		keyName, err := kms.CreateKey(ctx, prov, kmsSvc, sa, "ca-portal", "kyc")
		if err != nil {
			return err
		}

		// runtime secrets
		secrets, err := secret.SetupSecretManager(ctx, prov, sa)
		if err != nil {
			return err
		}

		// create docker repo
		repo, err := docker.CreateCloudrunRepo(ctx, prov)
		if err != nil {
			return err
		}

		return cloudrun.SetupCloudRun(ctx, prov, cloudrun.Resources{
			ServiceAccount: sa,
			Bucket:         bucket,
			KMSKeyName:     keyName,
			Secrets:        secrets,
		}, ident, repo)
	})
}
