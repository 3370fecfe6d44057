package health

import (
	"context"
	"net"
	"runtime"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck fails when the process runs more than threshold
// goroutines.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", n, threshold)
		}
		return nil
	}
}

// Pinger is implemented by connection pools such as pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck fails when p cannot be pinged.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		return p.Ping(ctx)
	}
}

// DialCheck fails when none of addrs accepts a TCP connection.
func DialCheck(addrs ...string) CheckFunc {
	return func(ctx context.Context) error {
		var d net.Dialer
		var lastErr error
		for _, addr := range addrs {
			conn, err := d.DialContext(ctx, "tcp", addr)
			if err == nil {
				return conn.Close()
			}
			lastErr = err
		}
		if lastErr == nil {
			return errors.New("no addresses to dial")
		}
		return errors.Wrap(lastErr, "dial")
	}
}
