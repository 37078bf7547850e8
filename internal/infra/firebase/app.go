// internal/infra/firebase/app.go
package firebaseinfra

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// NewAuthClient initializes the Firebase App and returns its Auth client.
// An empty credentialsFile uses Application Default Credentials.
func NewAuthClient(ctx context.Context, projectID, credentialsFile string, log *zap.Logger) (*firebaseauth.Client, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var opts []option.ClientOption
	if f := strings.TrimSpace(credentialsFile); f != "" {
		opts = append(opts, option.WithCredentialsFile(f))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: strings.TrimSpace(projectID)}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app init failed: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth init failed: %w", err)
	}

	log.Info("firebase auth initialized", zap.String("project", projectID))
	return client, nil
}
