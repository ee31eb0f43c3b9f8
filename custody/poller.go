package custody

import (
	"context"
	"fmt"
	"time"

	agentwallet "github.com/agentwallet/agentwallet-go"
)

// DefaultPollInterval is the wait between status observations while an
// operation is pending.
const DefaultPollInterval = 2 * time.Second

// pollOperation fetches an operation's state at a fixed interval until
// it reaches a terminal status. Terminal results return immediately with
// no extra wait. Context cancellation or deadline expiry surfaces as
// ErrTimeout so callers can bound how long they wait for custody.
func pollOperation[T any](ctx context.Context, interval time.Duration, fetch func(context.Context) (T, agentwallet.Status, error)) (T, error) {
	var zero T
	for {
		result, status, err := fetch(ctx)
		if err != nil {
			return zero, err
		}
		if status.Terminal() {
			return result, nil
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return zero, fmt.Errorf("%w: %v", agentwallet.ErrTimeout, ctx.Err())
		}
	}
}
