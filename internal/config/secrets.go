package config

// Secret backends selectable through SECRET_BACKEND when DEVELOP_MODE is off.
const (
	SecretBackendGCP   = "gcp"
	SecretBackendVault = "vault"
	SecretBackendGCS   = "gcs"
)

// SecretsConfig holds secret provider configuration.
type SecretsConfig struct {
	Backend string `env:"SECRET_BACKEND" default:"gcp" validate:"oneof=gcp vault gcs"`

	// GoogleProjectID scopes Secret Manager lookups. When empty every lookup
	// falls back to its default value.
	GoogleProjectID string `env:"GOOGLE_PROJECT_ID"`

	// GoogleCredentialsFile overrides Application Default Credentials.
	GoogleCredentialsFile string `env:"GOOGLE_SECRET_CREDENTIALS_FILE"`

	// VaultSecretPath is the KV v2 secret holding one key per parameter, as
	// "<mount>/<path>". VAULT_ADDR and VAULT_TOKEN are read by the Vault SDK.
	VaultSecretPath string `env:"VAULT_SECRET_PATH" default:"secret/dbsettings" validate:"required_if=Backend vault"`

	GCSBucket string `env:"GCS_SECRET_BUCKET" validate:"required_if=Backend gcs"`
	GCSPrefix string `env:"GCS_SECRET_PREFIX" default:"secrets/"`
}
