package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"connector-catalog/internal/config"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
)

// SQLSTATE too_many_connections
const codeTooManyConnections = "53300"

// ErrPoolExhausted is returned once every retry hit connection exhaustion.
var ErrPoolExhausted = errors.New("database connection pool exhausted")

// Querier is the read boundary every repository executes through.
// *sql.DB, *sql.Conn and *sql.Tx all satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// RetryPolicy bounds the exponential backoff used for pool exhaustion.
type RetryPolicy struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryPolicy retries three times starting at 100ms, capped at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:     3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
	}
}

// PolicyFromConfig converts the configured retry settings.
func PolicyFromConfig(cfg config.RetryConfig) RetryPolicy {
	return RetryPolicy{
		Attempts:     cfg.Attempts,
		InitialDelay: config.Duration(cfg.InitialDelayMS),
		MaxDelay:     config.Duration(cfg.MaxDelayMS),
	}
}

func (p RetryPolicy) backoff() retry.Backoff {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	b := retry.NewExponential(p.InitialDelay)
	if p.MaxDelay > 0 {
		b = retry.WithCappedDuration(p.MaxDelay, b)
	}
	return retry.WithMaxRetries(uint64(attempts-1), b)
}

// IsPoolExhausted reports whether err carries SQLSTATE 53300.
func IsPoolExhausted(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeTooManyConnections
}

// QueryWithRetry runs a parameterized query. Only connection exhaustion is
// retried; every other error is returned on the first attempt.
func QueryWithRetry(ctx context.Context, q Querier, policy RetryPolicy, query string, args ...any) (*sql.Rows, error) {
	var rows *sql.Rows

	err := retry.Do(ctx, policy.backoff(), func(ctx context.Context) error {
		r, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			if IsPoolExhausted(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		rows = r
		return nil
	})
	if err != nil {
		if IsPoolExhausted(err) {
			return nil, fmt.Errorf("%w after %d attempts: %v", ErrPoolExhausted, policy.Attempts, err)
		}
		return nil, err
	}

	return rows, nil
}
