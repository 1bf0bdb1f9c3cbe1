package domain

import (
	"errors"
	"fmt"
)

// Secret store errors.
var (
	// ErrSecretAuthentication indicates the secret store rejected or could not find credentials.
	ErrSecretAuthentication = errors.New("secret store authentication failed")

	// ErrSecretPermissionDenied indicates the caller is authenticated but not allowed to read the secret.
	// Providers surface it instead of falling back to the default value.
	ErrSecretPermissionDenied = errors.New("permission denied for secret")

	// ErrSecretNotFound indicates the secret does not exist.
	// Providers recover from it locally by returning the default value.
	ErrSecretNotFound = errors.New("secret not found")
)

// ErrParameterType is the sentinel matched by every *ParameterTypeError.
var ErrParameterType = errors.New("invalid database parameter type")

// Database connectivity errors.
var (
	// ErrDatabase is the root of all database connectivity errors.
	ErrDatabase = errors.New("database error")

	// ErrWrongHostOrPort indicates the database host could not be resolved.
	ErrWrongHostOrPort = fmt.Errorf("%w: invalid host or port", ErrDatabase)

	// ErrInvalidCredentials indicates the server rejected the username or password.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", ErrDatabase)

	// ErrWrongDatabaseName indicates the requested database does not exist on the server.
	ErrWrongDatabaseName = fmt.Errorf("%w: wrong database name", ErrDatabase)

	// ErrConnectionRefused indicates the server actively refused the connection.
	ErrConnectionRefused = fmt.Errorf("%w: connection refused", ErrDatabase)
)

// ParameterTypeError reports a resolved parameter whose value has a type that
// is not allowed in a connection URL.
type ParameterTypeError struct {
	Name    string
	Value   any
	Type    string
	Allowed string
}

func (e *ParameterTypeError) Error() string {
	return fmt.Sprintf("invalid type for database parameter '%s'. Value '%v' has type '%s'. Allowed types: %s.",
		e.Name, e.Value, e.Type, e.Allowed)
}

// Is lets errors.Is(err, ErrParameterType) match any ParameterTypeError.
func (e *ParameterTypeError) Is(target error) bool {
	return target == ErrParameterType
}

// DatabaseError is a low-level driver failure translated into one of the
// database connectivity kinds above.
type DatabaseError struct {
	Kind    error
	Message string
	Err     error
}

func (e *DatabaseError) Error() string {
	return e.Message
}

// Unwrap exposes both the kind and the driver error to errors.Is and errors.As.
func (e *DatabaseError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
