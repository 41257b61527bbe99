package cloudrun

import (
	"fmt"
	"strconv"

	"github.com/pulumi/pulumi-docker/sdk/v4/go/docker"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/cloudrun"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/projects"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/serviceaccount"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/storage"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"

	"github.com/GregMSThompson/ca-portal/infra/common"
	"github.com/GregMSThompson/ca-portal/infra/secret"
)

// Resources are the stack outputs the services are configured from.
type Resources struct {
	ServiceAccount *serviceaccount.Account
	Bucket         *storage.Bucket
	KMSKeyName     pulumi.StringOutput
	Secrets        *secret.Manager
}

type secretRefs struct {
	sendGridAPIKey    pulumi.StringOutput
	firebaseWebAPIKey pulumi.StringOutput
}

func SetupCloudRun(ctx *pulumi.Context, prov *gcp.Provider, r Resources, res ...pulumi.Resource) error {
	apiImg, err := buildImage(ctx, "api", res...)
	if err != nil {
		return err
	}

	workerImg, err := buildImage(ctx, "worker", res...)
	if err != nil {
		return err
	}

	sr, err := createSecrets(ctx, r.Secrets)
	if err != nil {
		return err
	}

	srv, err := enableCloudRun(ctx, prov)
	if err != nil {
		return err
	}

	env := sharedEnv(ctx, r, sr)

	api, err := createAPIService(ctx, apiImg, r.ServiceAccount, env, prov, srv)
	if err != nil {
		return err
	}

	if _, err := createWorkerService(ctx, workerImg, r.ServiceAccount, env, prov, srv); err != nil {
		return err
	}

	return setIAMAccessPolicy(ctx, api, prov)
}

func buildImage(ctx *pulumi.Context, name string, res ...pulumi.Resource) (*docker.Image, error) {
	gcpCfg := config.New(ctx, "gcp")
	projectID := gcpCfg.Require("project")
	region := gcpCfg.Require("region")

	hash, err := common.GenerateHash("../")
	if err != nil {
		return nil, err
	}

	return docker.NewImage(ctx, name+"Image", &docker.ImageArgs{
		Build: docker.DockerBuildArgs{
			Platform:   pulumi.String("linux/amd64"),
			Context:    pulumi.String(".."), // build from repo root
			Dockerfile: pulumi.String("../Dockerfile"),
			Args: pulumi.StringMap{
				"CMD": pulumi.String(name),
			},
		},
		ImageName: pulumi.String(fmt.Sprintf("%s-docker.pkg.dev/%s/ca-portal/%s:%s", region, projectID, name, hash)),
	},
		pulumi.DependsOn(res),
	)
}

func enableCloudRun(ctx *pulumi.Context, prov *gcp.Provider) (*projects.Service, error) {
	return projects.NewService(ctx, "cloudRunService", &projects.ServiceArgs{
		Service: pulumi.String("run.googleapis.com"),
	},
		pulumi.Provider(prov),
	)
}

// secretRef is resolved by the binaries at startup from Secret Manager.
func secretRef(projectID string, id pulumi.StringOutput) pulumi.StringOutput {
	return id.ApplyT(func(s string) string {
		return fmt.Sprintf("sm://projects/%s/secrets/%s", projectID, s)
	}).(pulumi.StringOutput)
}

func envVar(name string, value pulumi.StringInput) *cloudrun.ServiceTemplateSpecContainerEnvArgs {
	return &cloudrun.ServiceTemplateSpecContainerEnvArgs{
		Name:  pulumi.String(name),
		Value: value,
	}
}

func sharedEnv(ctx *pulumi.Context, r Resources, sr *secretRefs) cloudrun.ServiceTemplateSpecContainerEnvArray {
	gcpCfg := config.New(ctx, "gcp")
	crCfg := config.New(ctx, "cloudrun")
	appCfg := config.New(ctx, "app")

	projectID := gcpCfg.Require("project")

	return cloudrun.ServiceTemplateSpecContainerEnvArray{
		envVar("PROJECTID", pulumi.String(projectID)),
		envVar("REGION", pulumi.String(gcpCfg.Require("region"))),
		envVar("LOGLEVEL", pulumi.String(crCfg.Require("logLevel"))),
		envVar("STORAGEDRIVER", pulumi.String("gcs")),
		envVar("STORAGEBUCKET", r.Bucket.Name),
		// one Google front end hop sits between clients and the service
		envVar("TRUSTEDPROXYHOPS", pulumi.String("1")),
		envVar("KMSKEYNAME", r.KMSKeyName),
		envVar("PASSWORDRESETURL", pulumi.String(appCfg.Require("passwordResetUrl"))),
		envVar("MAILFROM", pulumi.String(appCfg.Require("mailFrom"))),
		envVar("SENDGRIDAPIKEY", secretRef(projectID, sr.sendGridAPIKey)),
		envVar("FIREBASEWEBAPIKEY", secretRef(projectID, sr.firebaseWebAPIKey)),
	}
}

func createAPIService(ctx *pulumi.Context,
	img *docker.Image,
	sa *serviceaccount.Account,
	env cloudrun.ServiceTemplateSpecContainerEnvArray,
	prov *gcp.Provider,
	res ...pulumi.Resource) (*cloudrun.Service, error) {
	gcpCfg := config.New(ctx, "gcp")
	crCfg := config.New(ctx, "cloudrun")

	region := gcpCfg.Require("region")
	timeout, _ := strconv.Atoi(crCfg.Require("timeout"))

	return cloudrun.NewService(ctx, "apiService", &cloudrun.ServiceArgs{
		Location: pulumi.String(region),

		Template: &cloudrun.ServiceTemplateArgs{
			Metadata: &cloudrun.ServiceTemplateMetadataArgs{
				Annotations: pulumi.StringMap{
					// Autoscaling bounds
					"autoscaling.knative.dev/minScale": pulumi.String(crCfg.Require("minScale")),
					"autoscaling.knative.dev/maxScale": pulumi.String(crCfg.Require("maxScale")),

					// Instance sizing
					"run.googleapis.com/cpu":    pulumi.String(crCfg.Require("cpu")),
					"run.googleapis.com/memory": pulumi.String(crCfg.Require("memory")),

					// Allow throttling when idle (reduces cost)
					"run.googleapis.com/cpu-throttling": pulumi.String("true"),

					"run.googleapis.com/container-concurrency": pulumi.String(crCfg.Require("concurrency")),
				},
			},

			Spec: &cloudrun.ServiceTemplateSpecArgs{
				ServiceAccountName: sa.Email,
				TimeoutSeconds:     pulumi.Int(timeout),

				Containers: cloudrun.ServiceTemplateSpecContainerArray{
					&cloudrun.ServiceTemplateSpecContainerArgs{
						Image: img.ImageName,
						Ports: cloudrun.ServiceTemplateSpecContainerPortArray{
							&cloudrun.ServiceTemplateSpecContainerPortArgs{
								ContainerPort: pulumi.Int(8080),
							},
						},
						Envs: env,
					},
				},
			},
		},
	},
		pulumi.Provider(prov),
		pulumi.DependsOn(res),
	)
}

// createWorkerService runs the reminder scheduler. It keeps one instance with
// an unthrottled CPU so cron ticks fire between requests.
func createWorkerService(ctx *pulumi.Context,
	img *docker.Image,
	sa *serviceaccount.Account,
	env cloudrun.ServiceTemplateSpecContainerEnvArray,
	prov *gcp.Provider,
	res ...pulumi.Resource) (*cloudrun.Service, error) {
	gcpCfg := config.New(ctx, "gcp")
	region := gcpCfg.Require("region")

	return cloudrun.NewService(ctx, "workerService", &cloudrun.ServiceArgs{
		Location: pulumi.String(region),
		Metadata: &cloudrun.ServiceMetadataArgs{
			Annotations: pulumi.StringMap{
				"run.googleapis.com/ingress": pulumi.String("internal"),
			},
		},

		Template: &cloudrun.ServiceTemplateArgs{
			Metadata: &cloudrun.ServiceTemplateMetadataArgs{
				Annotations: pulumi.StringMap{
					"autoscaling.knative.dev/minScale":  pulumi.String("1"),
					"autoscaling.knative.dev/maxScale":  pulumi.String("1"),
					"run.googleapis.com/cpu-throttling": pulumi.String("false"),
				},
			},

			Spec: &cloudrun.ServiceTemplateSpecArgs{
				ServiceAccountName: sa.Email,

				Containers: cloudrun.ServiceTemplateSpecContainerArray{
					&cloudrun.ServiceTemplateSpecContainerArgs{
						Image: img.ImageName,
						Ports: cloudrun.ServiceTemplateSpecContainerPortArray{
							&cloudrun.ServiceTemplateSpecContainerPortArgs{
								ContainerPort: pulumi.Int(8080),
							},
						},
						Envs: env,
					},
				},
			},
		},
	},
		pulumi.Provider(prov),
		pulumi.DependsOn(res),
	)
}

func setIAMAccessPolicy(ctx *pulumi.Context, svc *cloudrun.Service, prov *gcp.Provider) error {
	gcpCfg := config.New(ctx, "gcp")
	region := gcpCfg.Require("region")

	// signup, login and password reset are unauthenticated; the api verifies ID tokens itself
	_, err := cloudrun.NewIamMember(ctx, "apiPublicInvoker", &cloudrun.IamMemberArgs{
		Service:  svc.Name,
		Location: pulumi.String(region),
		Role:     pulumi.String("roles/run.invoker"),
		Member:   pulumi.String("allUsers"),
	},
		pulumi.Provider(prov),
	)
	return err
}

func createSecrets(ctx *pulumi.Context, sm *secret.Manager) (*secretRefs, error) {
	var err error
	sr := new(secretRefs)

	appCfg := config.New(ctx, "app")

	sr.sendGridAPIKey, err = sm.Add(ctx, "sendGridApiKeySecret", "sendGridApiKey", appCfg.RequireSecret("sendGridApiKey"))
	if err != nil {
		return nil, err
	}

	sr.firebaseWebAPIKey, err = sm.Add(ctx, "firebaseWebApiKeySecret", "firebaseWebApiKey", appCfg.RequireSecret("firebaseWebApiKey"))
	if err != nil {
		return nil, err
	}

	return sr, nil
}
