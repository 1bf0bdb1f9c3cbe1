package secret

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	vault "github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/dbsettings/internal/domain"
	"github.com/rezkam/dbsettings/internal/validation"
)

type fakeKV struct {
	paths  []string
	secret *vault.KVSecret
	err    error
}

func (f *fakeKV) Get(_ context.Context, secretPath string) (*vault.KVSecret, error) {
	f.paths = append(f.paths, secretPath)
	return f.secret, f.err
}

func TestVault_Success(t *testing.T) {
	kv := &fakeKV{secret: &vault.KVSecret{Data: map[string]any{
		"DB_HOST": "db.internal",
		"DB_PORT": json.Number("5432"),
	}}}
	v := NewVault(kv, "dbsettings")

	got, err := v.Get(context.Background(), "DB_HOST", "localhost")
	require.NoError(t, err)
	assert.Equal(t, "db.internal", got)

	got, err = v.Get(context.Background(), "DB_PORT", "5432")
	require.NoError(t, err)
	assert.Equal(t, 5432, got)
	assert.Equal(t, []string{"dbsettings", "dbsettings"}, kv.paths)
}

func TestVault_NumericValues(t *testing.T) {
	kv := &fakeKV{secret: &vault.KVSecret{Data: map[string]any{
		"DB_PORT": json.Number("5432"),
		"DB_PASS": json.Number("1.5"),
		"DB_USER": true,
	}}}
	v := NewVault(kv, "dbsettings")

	port, err := v.Get(context.Background(), "DB_PORT", "")
	require.NoError(t, err)
	assert.Equal(t, 5432, port)

	pass, err := v.Get(context.Background(), "DB_PASS", "")
	require.NoError(t, err)
	assert.Equal(t, "1.5", pass)

	// Anything else is left for the validator to reject.
	user, err := v.Get(context.Background(), "DB_USER", "")
	require.NoError(t, err)
	assert.Equal(t, true, user)
}

func TestVault_NumericPortServedOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/secret/data/dbsettings", r.URL.Path)
		assert.Equal(t, "test-token", r.Header.Get("X-Vault-Token"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"data":{"DB_PORT":5432,"DB_HOST":"db.internal"},"metadata":{"version":1}}}`)
	}))
	defer srv.Close()

	t.Setenv("VAULT_ADDR", srv.URL)
	t.Setenv("VAULT_TOKEN", "test-token")

	v, err := NewVaultFromEnv("secret/dbsettings")
	require.NoError(t, err)

	port, err := v.Get(context.Background(), "DB_PORT", "")
	require.NoError(t, err)
	assert.Equal(t, 5432, port)

	validated, err := validation.NewParameterValidator(validation.StringOrInt).Validate(domain.ParamPort, port)
	require.NoError(t, err)
	assert.Equal(t, 5432, validated)
}

func TestNewVaultFromEnv_MissingTokenUsesDefaults(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"errors":["permission denied"]}`)
	}))
	defer srv.Close()

	t.Setenv("VAULT_ADDR", srv.URL)
	t.Setenv("VAULT_TOKEN", "")

	v, err := NewVaultFromEnv("secret/dbsettings")
	require.NoError(t, err)
	assert.Nil(t, v.kv)

	got, err := v.Get(context.Background(), "DB_PASS", "from-env")
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)
	assert.Zero(t, requests)
}

func TestVault_MissingKeyUsesDefault(t *testing.T) {
	v := NewVault(&fakeKV{secret: &vault.KVSecret{Data: map[string]any{}}}, "dbsettings")

	got, err := v.Get(context.Background(), "DB_NAME", "app")
	require.NoError(t, err)
	assert.Equal(t, "app", got)
}

func TestVault_ErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantDefault bool
		wantErr     error
	}{
		{name: "secret not found", err: fmt.Errorf("%w: at dbsettings", vault.ErrSecretNotFound), wantDefault: true},
		{name: "404", err: &vault.ResponseError{StatusCode: 404}, wantDefault: true},
		{name: "401", err: &vault.ResponseError{StatusCode: 401}, wantDefault: true},
		{name: "403", err: &vault.ResponseError{StatusCode: 403}, wantErr: domain.ErrSecretPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVault(&fakeKV{err: tt.err}, "dbsettings")

			got, err := v.Get(context.Background(), "DB_USER", "default")
			if tt.wantDefault {
				require.NoError(t, err)
				assert.Equal(t, "default", got)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSplitMount(t *testing.T) {
	mount, rel := splitMount("secret/dbsettings/prod")
	assert.Equal(t, "secret", mount)
	assert.Equal(t, "dbsettings/prod", rel)

	mount, rel = splitMount("/kv/")
	assert.Equal(t, "kv", mount)
	assert.Equal(t, "", rel)
}
