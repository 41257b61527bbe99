package bootstrap

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
)

// InitFirestore connects to the default database. An empty project ID is
// detected from the environment. FIRESTORE_EMULATOR_HOST redirects the client.
func InitFirestore(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore: %w", err)
	}
	return client, nil
}

// InitFirebase returns the admin auth client used to verify ID tokens, manage
// accounts and set role claims. FIREBASE_AUTH_EMULATOR_HOST redirects it, and
// the emulator needs an explicit project ID.
func InitFirebase(ctx context.Context, projectID string) (*auth.Client, error) {
	if projectID == "" && os.Getenv("FIREBASE_AUTH_EMULATOR_HOST") != "" {
		return nil, fmt.Errorf("firebase: PROJECTID is required with the auth emulator")
	}
	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("firebase: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth: %w", err)
	}
	return client, nil
}
