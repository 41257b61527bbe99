package provider

import (
	"strings"

	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

// SetupDefaultProvider pins every portal resource to one project and region and
// stamps them with labels that let billing and audit reports isolate client
// KYC storage from the rest of the project.
func SetupDefaultProvider(ctx *pulumi.Context) (*gcp.Provider, error) {
	gcpCfg := config.New(ctx, "gcp")
	appCfg := config.New(ctx, "app")

	return gcp.NewProvider(ctx, "gcpProvider", &gcp.ProviderArgs{
		Project:             pulumi.String(gcpCfg.Require("project")),
		Region:              pulumi.String(gcpCfg.Require("region")),
		UserProjectOverride: pulumi.Bool(true),
		DefaultLabels:       pulumi.ToStringMap(portalLabels(ctx.Stack(), appCfg.Get("firm"))),
	})
}

// portalLabels builds the default resource labels. GCP label values allow only
// lowercase letters, digits, dashes and underscores.
func portalLabels(stack, firm string) map[string]string {
	labels := map[string]string{
		"system":     "client-document-portal",
		"data-class": "client-kyc",
		"env":        labelValue(stack),
	}
	if firm != "" {
		labels["firm"] = labelValue(firm)
	}
	return labels
}

func labelValue(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	out := b.String()
	if len(out) > 63 {
		out = out[:63]
	}
	return out
}
