package secret

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/rezkam/dbsettings/internal/domain"
)

// ObjectReader reads a whole object by name.
type ObjectReader interface {
	ReadObject(ctx context.Context, name string) ([]byte, error)
	Close() error
}

// Bucket reads each parameter from its own Cloud Storage object named
// "<prefix><name>".
type Bucket struct {
	objects ObjectReader
	prefix  string
}

// NewBucket wraps an object reader.
func NewBucket(objects ObjectReader, prefix string) *Bucket {
	return &Bucket{objects: objects, prefix: prefix}
}

// GCSObjectReader reads objects from a single Cloud Storage bucket.
type GCSObjectReader struct {
	client *storage.Client
	bucket string
}

// NewGCSObjectReader creates a storage client for bucket.
// It assumes the client is authenticated (e.g. via GOOGLE_APPLICATION_CREDENTIALS)
// unless credentialsFile is set.
func NewGCSObjectReader(ctx context.Context, bucket, credentialsFile string) (*GCSObjectReader, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSObjectReader{client: client, bucket: bucket}, nil
}

// ReadObject returns the full content of the named object.
func (r *GCSObjectReader) ReadObject(ctx context.Context, name string) ([]byte, error) {
	rd, err := r.client.Bucket(r.bucket).Object(name).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer rd.Close()

	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}

// Close closes the storage client.
func (r *GCSObjectReader) Close() error {
	return r.client.Close()
}

// Get returns the object content with trailing line breaks removed.
func (b *Bucket) Get(ctx context.Context, name string, def any) (any, error) {
	if b.objects == nil {
		return def, nil
	}

	object := b.prefix + name
	data, err := b.objects.ReadObject(ctx, object)
	if err != nil {
		switch classifyStorage(err) {
		case domain.ErrSecretNotFound:
			slog.DebugContext(ctx, "secret object not found, using default", "object", object)
			return def, nil
		case domain.ErrSecretAuthentication:
			slog.WarnContext(ctx, "storage authentication failed, using default", "object", object, "error", err)
			return def, nil
		case domain.ErrSecretPermissionDenied:
			slog.ErrorContext(ctx, "no permission to read secret object", "object", object, "error", err)
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrSecretPermissionDenied, name, err)
		default:
			return nil, fmt.Errorf("failed to read secret object %s: %w", object, err)
		}
	}

	return strings.TrimRight(string(data), "\r\n"), nil
}

// Close closes the object reader.
func (b *Bucket) Close() error {
	if b.objects == nil {
		return nil
	}
	return b.objects.Close()
}

func classifyStorage(err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return domain.ErrSecretNotFound
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return domain.ErrSecretNotFound
		case http.StatusUnauthorized:
			return domain.ErrSecretAuthentication
		case http.StatusForbidden:
			return domain.ErrSecretPermissionDenied
		}
	}

	// The gRPC transport reports the same conditions as status codes.
	return classifyGRPC(err)
}
