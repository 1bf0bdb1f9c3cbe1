// Package secret resolves named values from a secret store, falling back to a
// caller supplied default when the store has nothing usable.
//
// Every provider follows the same contract: a missing secret, missing
// credentials, or a missing project/client returns the default unchanged and
// no error. A permission error is surfaced as domain.ErrSecretPermissionDenied
// so a misconfigured IAM binding never silently degrades to defaults.
package secret

import (
	"context"
)

// Provider fetches a secret value by name.
type Provider interface {
	// Get returns the value stored under name, or def when the store cannot
	// supply one.
	Get(ctx context.Context, name string, def any) (any, error)

	// Close releases the underlying client, if any.
	Close() error
}

// MockPlaceholder is returned by Mock when no default is supplied.
const MockPlaceholder = "mock"

// Mock never talks to a secret store. It is selected by DEVELOP_MODE.
type Mock struct{}

// NewMock creates a mock provider.
func NewMock() *Mock {
	return &Mock{}
}

// Get returns def, or MockPlaceholder when def is nil.
func (m *Mock) Get(_ context.Context, _ string, def any) (any, error) {
	if def == nil {
		return MockPlaceholder, nil
	}
	return def, nil
}

// Close is a no-op.
func (m *Mock) Close() error {
	return nil
}
