package secret

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rezkam/dbsettings/internal/config"
)

// New selects the provider for the process. DEVELOP_MODE always wins and
// yields Mock; otherwise SECRET_BACKEND picks the store. A store whose client
// cannot be created for lack of credentials degrades to returning defaults.
func New(ctx context.Context, develop bool, cfg config.SecretsConfig) (Provider, error) {
	if develop {
		slog.InfoContext(ctx, "develop mode enabled, using mock secret provider")
		return NewMock(), nil
	}

	switch cfg.Backend {
	case config.SecretBackendGCP, "":
		client, err := NewGoogleCloudClient(ctx, cfg.GoogleCredentialsFile)
		if err != nil {
			slog.WarnContext(ctx, "secret manager unavailable, defaults will be used", "error", err)
			return NewGoogleCloud(nil, cfg.GoogleProjectID), nil
		}
		slog.InfoContext(ctx, "using google cloud secret provider", "project", cfg.GoogleProjectID)
		return NewGoogleCloud(client, cfg.GoogleProjectID), nil

	case config.SecretBackendVault:
		v, err := NewVaultFromEnv(cfg.VaultSecretPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create vault provider: %w", err)
		}
		slog.InfoContext(ctx, "using vault secret provider", "path", cfg.VaultSecretPath)
		return v, nil

	case config.SecretBackendGCS:
		reader, err := NewGCSObjectReader(ctx, cfg.GCSBucket, cfg.GoogleCredentialsFile)
		if err != nil {
			slog.WarnContext(ctx, "storage client unavailable, defaults will be used", "error", err)
			return NewBucket(nil, cfg.GCSPrefix), nil
		}
		slog.InfoContext(ctx, "using cloud storage secret provider", "bucket", cfg.GCSBucket)
		return NewBucket(reader, cfg.GCSPrefix), nil

	default:
		return nil, fmt.Errorf("unknown secret backend: %s", cfg.Backend)
	}
}
