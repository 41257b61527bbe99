package firestore

import (
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/firestore"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/projects"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

func SetupFirestore(ctx *pulumi.Context, prov *gcp.Provider) error {
	svc, err := enableFireStore(ctx, prov)
	if err != nil {
		return err
	}

	db, err := createDatabase(ctx, prov, svc)
	if err != nil {
		return err
	}

	return createBackupSchedule(ctx, prov, db)
}

func enableFireStore(ctx *pulumi.Context, prov *gcp.Provider) (*projects.Service, error) {
	return projects.NewService(ctx, "firestore", &projects.ServiceArgs{
		Service: pulumi.String("firestore.googleapis.com"),
	},
		pulumi.Provider(prov),
	)
}

// createDatabase provisions the (default) database. Client records and KYC
// ciphertext live here, so deletes are blocked and PITR is on.
func createDatabase(ctx *pulumi.Context, prov *gcp.Provider, res ...pulumi.Resource) (*firestore.Database, error) {
	gcpCfg := config.New(ctx, "gcp")
	projectID := gcpCfg.Require("project")
	region := gcpCfg.Require("region")

	return firestore.NewDatabase(ctx, "firestoreDatabase", &firestore.DatabaseArgs{
		Project:                       pulumi.String(projectID),
		Name:                          pulumi.String("(default)"),
		LocationId:                    pulumi.String(region),
		Type:                          pulumi.String("FIRESTORE_NATIVE"),
		DeleteProtectionState:         pulumi.String("DELETE_PROTECTION_ENABLED"),
		PointInTimeRecoveryEnablement: pulumi.String("POINT_IN_TIME_RECOVERY_ENABLED"),
	},
		pulumi.Provider(prov),
		pulumi.DependsOn(res),
	)
}

// createBackupSchedule keeps two weeks of daily backups.
func createBackupSchedule(ctx *pulumi.Context, prov *gcp.Provider, db *firestore.Database) error {
	_, err := firestore.NewBackupSchedule(ctx, "firestoreDailyBackup", &firestore.BackupScheduleArgs{
		Database:        db.Name,
		Retention:       pulumi.String("1209600s"),
		DailyRecurrence: &firestore.BackupScheduleDailyRecurrenceArgs{},
	},
		pulumi.Provider(prov),
	)
	return err
}
