package app

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"

	"github.com/xenking/kart-checkout/pkg/health"
)

// goroutineCheck fails when the goroutine count exceeds threshold, which
// usually means a leak.
func goroutineCheck(threshold int) health.CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", n, threshold)
		}
		return nil
	}
}
