package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rezkam/dbsettings/internal/domain"
)

// PostgreSQL SQLSTATE codes the health check recognises.
const (
	sqlStateInvalidAuthorization = "28000"
	sqlStateInvalidPassword      = "28P01"
	sqlStateInvalidCatalogName   = "3D000"
)

// WithHealthCheck wraps open so that the returned engine has answered a ping.
// Failures from open or the ping are passed through TranslateError; the
// engine is closed when the ping fails.
func WithHealthCheck(open OpenFunc) OpenFunc {
	return func(ctx context.Context) (*Engine, error) {
		engine, err := open(ctx)
		if err != nil {
			return nil, TranslateError(ctx, err)
		}

		if err := engine.Ping(ctx); err != nil {
			if closeErr := engine.Close(); closeErr != nil {
				slog.ErrorContext(ctx, "failed to close engine after failed probe", "error", closeErr)
			}
			return nil, TranslateError(ctx, err)
		}

		return engine, nil
	}
}

// TranslateError maps the four connectivity failures a bootstrap can hit
// (unresolvable host, rejected credentials, unknown database, refused
// connection) to *domain.DatabaseError. Anything else is returned unchanged.
func TranslateError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var (
		kind   error
		reason string
		cause  error = err
	)

	var dnsErr *net.DNSError
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &dnsErr):
		kind, reason, cause = domain.ErrWrongHostOrPort, "was provided invalid host or port for connection to database", dnsErr
	case errors.As(err, &pgErr) && (pgErr.Code == sqlStateInvalidPassword || pgErr.Code == sqlStateInvalidAuthorization):
		kind, reason, cause = domain.ErrInvalidCredentials, "was provided invalid username or password for connection to database", pgErr
	case errors.As(err, &pgErr) && pgErr.Code == sqlStateInvalidCatalogName:
		kind, reason, cause = domain.ErrWrongDatabaseName, "was provided wrong database name", pgErr
	case errors.Is(err, syscall.ECONNREFUSED):
		kind, reason = domain.ErrConnectionRefused, "problem with connection to a remote computer"
	default:
		return err
	}

	message := fmt.Sprintf("%s. Trigger error: %T. Message: %v", reason, cause, cause)
	slog.ErrorContext(ctx, message)

	return &domain.DatabaseError{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}
