package storage

import (
	"fmt"

	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/serviceaccount"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/storage"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

// SetupDocumentBucket creates the private bucket for client uploads and lets
// the service account read, write and sign URLs for its objects.
func SetupDocumentBucket(ctx *pulumi.Context, prov *gcp.Provider, sa *serviceaccount.Account) (*storage.Bucket, error) {
	gcpCfg := config.New(ctx, "gcp")
	appCfg := config.New(ctx, "app")
	projectID := gcpCfg.Require("project")
	region := gcpCfg.Require("region")
	origin := appCfg.Require("origin")

	bucket, err := storage.NewBucket(ctx, "documentBucket", &storage.BucketArgs{
		Name:                     pulumi.String(fmt.Sprintf("%s-client-documents", projectID)),
		Location:                 pulumi.String(region),
		UniformBucketLevelAccess: pulumi.Bool(true),
		PublicAccessPrevention:   pulumi.String("enforced"),
		Versioning: &storage.BucketVersioningArgs{
			Enabled: pulumi.Bool(true),
		},
		// replaced uploads keep one noncurrent version for 30 days
		LifecycleRules: storage.BucketLifecycleRuleArray{
			&storage.BucketLifecycleRuleArgs{
				Action: &storage.BucketLifecycleRuleActionArgs{Type: pulumi.String("Delete")},
				Condition: &storage.BucketLifecycleRuleConditionArgs{
					DaysSinceNoncurrentTime: pulumi.Int(30),
				},
			},
		},
		// signed download urls are fetched by the browser
		Cors: storage.BucketCorArray{
			&storage.BucketCorArgs{
				Origins:         pulumi.StringArray{pulumi.String(origin)},
				Methods:         pulumi.StringArray{pulumi.String("GET")},
				ResponseHeaders: pulumi.StringArray{pulumi.String("Content-Type")},
				MaxAgeSeconds:   pulumi.Int(3600),
			},
		},
	},
		pulumi.Provider(prov),
	)
	if err != nil {
		return nil, err
	}

	member := sa.Email.ApplyT(func(email string) string {
		return fmt.Sprintf("serviceAccount:%s", email)
	}).(pulumi.StringOutput)

	_, err = storage.NewBucketIAMMember(ctx, "documentBucketObjectAdmin", &storage.BucketIAMMemberArgs{
		Bucket: bucket.Name,
		Role:   pulumi.String("roles/storage.objectAdmin"),
		Member: member,
	},
		pulumi.Provider(prov),
	)
	if err != nil {
		return nil, err
	}

	// V4 signing without a key file goes through IAM signBlob on the account itself
	_, err = serviceaccount.NewIAMMember(ctx, "apiTokenCreator", &serviceaccount.IAMMemberArgs{
		ServiceAccountId: sa.Name,
		Role:             pulumi.String("roles/iam.serviceAccountTokenCreator"),
		Member:           member,
	},
		pulumi.Provider(prov),
	)
	if err != nil {
		return nil, err
	}

	return bucket, nil
}
