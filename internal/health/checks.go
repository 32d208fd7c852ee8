package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck fails when the database does not answer a ping.
func PingCheck(db Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := db.Ping(ctx); err != nil {
			return errors.Wrap(err, "database ping")
		}
		return nil
	}
}

// GoroutineCountCheck fails when more than limit goroutines are running.
func GoroutineCountCheck(limit int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > limit {
			return errors.Errorf("goroutine count %d exceeds limit %d", n, limit)
		}
		return nil
	}
}
