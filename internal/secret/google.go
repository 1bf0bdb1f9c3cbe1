package secret

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/option"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rezkam/dbsettings/internal/domain"
)

var tracer = otel.Tracer("github.com/rezkam/dbsettings/internal/secret")

// SecretVersionAccessor is the subset of the Secret Manager client used here.
// *secretmanager.Client satisfies it.
type SecretVersionAccessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// GoogleCloud reads the latest version of secrets from Google Cloud Secret Manager.
type GoogleCloud struct {
	client    SecretVersionAccessor
	projectID string
}

// NewGoogleCloud wraps an existing client. A nil client or an empty project
// ID makes every lookup return its default.
func NewGoogleCloud(client SecretVersionAccessor, projectID string) *GoogleCloud {
	return &GoogleCloud{
		client:    client,
		projectID: projectID,
	}
}

// NewGoogleCloudClient creates a Secret Manager client using Application
// Default Credentials, or credentialsFile when it is set.
func NewGoogleCloudClient(ctx context.Context, credentialsFile string) (*secretmanager.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create secret manager client: %w", domain.ErrSecretAuthentication, err)
	}
	return client, nil
}

// SecretVersionName returns the resource name of the latest version of key.
func SecretVersionName(projectID, key string) string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, key)
}

// Get returns the payload of the latest version of the secret name as a string.
func (g *GoogleCloud) Get(ctx context.Context, name string, def any) (any, error) {
	ctx, span := tracer.Start(ctx, "secret.GoogleCloud.Get")
	defer span.End()
	span.SetAttributes(attribute.String("secret.name", name))

	if g.client == nil {
		slog.WarnContext(ctx, "secret manager client unavailable, using default", "secret", name)
		return def, nil
	}
	if g.projectID == "" {
		slog.WarnContext(ctx, "GOOGLE_PROJECT_ID is not set, using default", "secret", name)
		return def, nil
	}

	resp, err := g.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: SecretVersionName(g.projectID, name),
	})
	if err != nil {
		return g.fallback(ctx, name, def, err)
	}
	if resp.GetPayload() == nil {
		return def, nil
	}

	return string(resp.GetPayload().GetData()), nil
}

func (g *GoogleCloud) fallback(ctx context.Context, name string, def any, err error) (any, error) {
	switch classifyGRPC(err) {
	case domain.ErrSecretNotFound:
		slog.DebugContext(ctx, "secret not found, using default", "secret", name)
		return def, nil
	case domain.ErrSecretAuthentication:
		slog.WarnContext(ctx, "secret manager authentication failed, using default", "secret", name, "error", err)
		return def, nil
	case domain.ErrSecretPermissionDenied:
		slog.ErrorContext(ctx, "no permission to read secret", "secret", name, "error", err)
		span := trace.SpanFromContext(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, "permission denied")
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSecretPermissionDenied, name, err)
	default:
		return nil, fmt.Errorf("failed to access secret %s: %w", name, err)
	}
}

// Close closes the underlying client.
func (g *GoogleCloud) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// classifyGRPC maps a gRPC status to a secret store error kind, or nil when
// the status has no special meaning.
func classifyGRPC(err error) error {
	switch status.Code(err) {
	case grpccodes.NotFound:
		return domain.ErrSecretNotFound
	case grpccodes.Unauthenticated:
		return domain.ErrSecretAuthentication
	case grpccodes.PermissionDenied:
		return domain.ErrSecretPermissionDenied
	}
	if errors.Is(err, domain.ErrSecretAuthentication) {
		return domain.ErrSecretAuthentication
	}
	return nil
}
