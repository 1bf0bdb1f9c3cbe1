// Package settings resolves the database connection parameters and formats
// them into a connection URL.
package settings

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/rezkam/dbsettings/internal/domain"
)

// SecretProvider fetches a named secret with a fallback default.
type SecretProvider interface {
	Get(ctx context.Context, name string, def any) (any, error)
}

// ParameterValidator guards the type of a resolved value.
type ParameterValidator interface {
	Validate(name domain.ParameterName, value any) (any, error)
}

// DefaultFunc returns the fallback value for a parameter.
type DefaultFunc func(name domain.ParameterName) any

// EnvDefaults uses the environment variable of the same name as the default,
// or an empty string when it is unset.
func EnvDefaults(name domain.ParameterName) any {
	return os.Getenv(name.String())
}

// DatabaseSettings assembles a connection URL from secret-backed parameters.
type DatabaseSettings struct {
	scheme    string
	secrets   SecretProvider
	validator ParameterValidator
	defaults  DefaultFunc
}

// NewDatabaseSettings creates an assembler. A nil defaults function means EnvDefaults.
func NewDatabaseSettings(scheme string, secrets SecretProvider, validator ParameterValidator, defaults DefaultFunc) *DatabaseSettings {
	if defaults == nil {
		defaults = EnvDefaults
	}
	return &DatabaseSettings{
		scheme:    scheme,
		secrets:   secrets,
		validator: validator,
		defaults:  defaults,
	}
}

// Parameter resolves a single parameter through the secret provider and the validator.
func (s *DatabaseSettings) Parameter(ctx context.Context, name domain.ParameterName, def any) (domain.Parameter, error) {
	value, err := s.secrets.Get(ctx, name.String(), def)
	if err != nil {
		return domain.Parameter{}, fmt.Errorf("failed to resolve %s: %w", name, err)
	}

	value, err = s.validator.Validate(name, value)
	if err != nil {
		return domain.Parameter{}, err
	}

	return domain.Parameter{Name: name, Value: value, Default: def}, nil
}

// Parameters resolves every connection parameter concurrently. The first
// failure cancels the remaining lookups.
func (s *DatabaseSettings) Parameters(ctx context.Context) (map[domain.ParameterName]domain.Parameter, error) {
	resolved := make([]domain.Parameter, len(domain.ConnectionParameters))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range domain.ConnectionParameters {
		g.Go(func() error {
			p, err := s.Parameter(gctx, name, s.defaults(name))
			if err != nil {
				return err
			}
			resolved[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	params := make(map[domain.ParameterName]domain.Parameter, len(resolved))
	for _, p := range resolved {
		params[p.Name] = p
	}
	return params, nil
}

// URL resolves the parameters and formats the connection URL.
func (s *DatabaseSettings) URL(ctx context.Context) (string, error) {
	params, err := s.Parameters(ctx)
	if err != nil {
		return "", err
	}

	return FormatURL(s.scheme,
		params[domain.ParamUser].Value,
		params[domain.ParamPassword].Value,
		params[domain.ParamHost].Value,
		params[domain.ParamPort].Value,
		params[domain.ParamName].Value,
	), nil
}

// FormatURL builds "<scheme>://<user>:<pass>@<host>:<port>/<name>". Values
// are inserted verbatim.
func FormatURL(scheme string, user, pass, host, port, name any) string {
	return fmt.Sprintf("%s://%v:%v@%v:%v/%v", scheme, user, pass, host, port, name)
}

// Settings is the resolved process configuration handed to the engine factory.
type Settings struct {
	databaseURL string
}

// URLSource produces a connection URL.
type URLSource interface {
	URL(ctx context.Context) (string, error)
}

// NewSettings resolves the database URL once.
func NewSettings(ctx context.Context, db URLSource) (*Settings, error) {
	url, err := db.URL(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build database url: %w", err)
	}
	return &Settings{databaseURL: url}, nil
}

// DatabaseURL returns the assembled connection URL.
func (s *Settings) DatabaseURL() string {
	return s.databaseURL
}
