package secret

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	vault "github.com/hashicorp/vault/api"

	"github.com/rezkam/dbsettings/internal/domain"
)

// KVReader reads a KV v2 secret. *vault.KVv2 satisfies it.
type KVReader interface {
	Get(ctx context.Context, secretPath string) (*vault.KVSecret, error)
}

// Vault reads parameters as keys of a single HashiCorp Vault KV v2 secret.
type Vault struct {
	kv   KVReader
	path string
}

// NewVault wraps a KV v2 reader. path is relative to the mount.
func NewVault(kv KVReader, path string) *Vault {
	return &Vault{kv: kv, path: path}
}

// NewVaultFromEnv builds a Vault provider from VAULT_ADDR / VAULT_TOKEN and a
// "<mount>/<path>" secret location.
func NewVaultFromEnv(secretPath string) (*Vault, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}

	client, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}

	mount, rel := splitMount(secretPath)
	if client.Token() == "" {
		// Vault answers a missing token with 403, which would read as permission denied.
		slog.Warn("VAULT_TOKEN is not set, vault lookups will use defaults", "path", secretPath)
		return NewVault(nil, rel), nil
	}
	return NewVault(client.KVv2(mount), rel), nil
}

// Get returns the value stored under key name in the configured secret.
func (v *Vault) Get(ctx context.Context, name string, def any) (any, error) {
	if v.kv == nil || v.path == "" {
		return def, nil
	}

	sec, err := v.kv.Get(ctx, v.path)
	if err != nil {
		switch classifyVault(err) {
		case domain.ErrSecretNotFound:
			slog.DebugContext(ctx, "vault secret not found, using default", "path", v.path, "secret", name)
			return def, nil
		case domain.ErrSecretAuthentication:
			slog.WarnContext(ctx, "vault authentication failed, using default", "secret", name, "error", err)
			return def, nil
		case domain.ErrSecretPermissionDenied:
			slog.ErrorContext(ctx, "no permission to read vault secret", "path", v.path, "secret", name, "error", err)
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrSecretPermissionDenied, name, err)
		default:
			return nil, fmt.Errorf("vault get %s: %w", v.path, err)
		}
	}

	if sec == nil || sec.Data == nil {
		return def, nil
	}
	raw, ok := sec.Data[name]
	if !ok || raw == nil {
		return def, nil
	}
	return plainValue(raw), nil
}

// plainValue unwraps json.Number, which the SDK decodes numbers into, to an
// int, or to its string form when it is not an integer.
func plainValue(raw any) any {
	n, ok := raw.(json.Number)
	if !ok {
		return raw
	}
	if i, err := n.Int64(); err == nil {
		return int(i)
	}
	return n.String()
}

// Close is a no-op; the Vault SDK client holds no resources that need releasing.
func (v *Vault) Close() error {
	return nil
}

func classifyVault(err error) error {
	if errors.Is(err, vault.ErrSecretNotFound) {
		return domain.ErrSecretNotFound
	}

	var respErr *vault.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case http.StatusNotFound:
			return domain.ErrSecretNotFound
		case http.StatusUnauthorized:
			return domain.ErrSecretAuthentication
		case http.StatusForbidden:
			return domain.ErrSecretPermissionDenied
		}
	}
	return nil
}

func splitMount(p string) (mount, rel string) {
	parts := strings.SplitN(strings.Trim(p, "/"), "/", 2)
	mount = parts[0]
	if len(parts) == 2 {
		rel = parts[1]
	}
	return mount, rel
}
