package cloudrun

import (
	"fmt"

	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/projects"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/serviceaccount"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

// projectRoles are granted to the portal service account at project level.
// Bucket, key and secret access are granted on the resources themselves.
var projectRoles = map[string]string{
	"firestoreAccess":    "roles/datastore.user",
	"firebaseAuthAccess": "roles/firebaseauth.admin", // role claims and client deletion
	"logWriter":          "roles/logging.logWriter",
}

// CreateServiceAccount creates the identity shared by the api and worker.
func CreateServiceAccount(ctx *pulumi.Context, prov *gcp.Provider) (*serviceaccount.Account, error) {
	gcpCfg := config.New(ctx, "gcp")
	projectID := gcpCfg.Require("project")

	sa, err := serviceaccount.NewAccount(ctx, "portalServiceAccount", &serviceaccount.AccountArgs{
		AccountId:   pulumi.String("ca-portal"),
		DisplayName: pulumi.String("CA Portal Service Account"),
	},
		pulumi.Provider(prov),
	)
	if err != nil {
		return nil, err
	}

	member := sa.Email.ApplyT(func(email string) string {
		return fmt.Sprintf("serviceAccount:%s", email)
	}).(pulumi.StringOutput)

	for name, role := range projectRoles {
		_, err = projects.NewIAMMember(ctx, name, &projects.IAMMemberArgs{
			Role:    pulumi.String(role),
			Member:  member,
			Project: pulumi.String(projectID),
		},
			pulumi.Provider(prov),
		)
		if err != nil {
			return nil, err
		}
	}

	return sa, nil
}
