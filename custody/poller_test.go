package custody

import (
	"context"
	"errors"
	"testing"
	"time"

	agentwallet "github.com/agentwallet/agentwallet-go"
)

func TestPollOperationImmediateTerminal(t *testing.T) {
	calls := 0
	start := time.Now()
	result, err := pollOperation(context.Background(), time.Hour, func(ctx context.Context) (string, agentwallet.Status, error) {
		calls++
		return "done", agentwallet.StatusSuccess, nil
	})
	if err != nil {
		t.Fatalf("pollOperation: %v", err)
	}
	if result != "done" {
		t.Errorf("result = %q", result)
	}
	if calls != 1 {
		t.Errorf("fetch called %d times, want 1", calls)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("terminal result waited %v", elapsed)
	}
}

func TestPollOperationWaitsBetweenObservations(t *testing.T) {
	calls := 0
	result, err := pollOperation(context.Background(), time.Millisecond, func(ctx context.Context) (int, agentwallet.Status, error) {
		calls++
		if calls < 3 {
			return 0, agentwallet.StatusPending, nil
		}
		return 42, agentwallet.StatusFailed, nil
	})
	if err != nil {
		t.Fatalf("pollOperation: %v", err)
	}
	if result != 42 {
		t.Errorf("result = %d", result)
	}
	if calls != 3 {
		t.Errorf("fetch called %d times, want 3", calls)
	}
}

func TestPollOperationFetchError(t *testing.T) {
	wantErr := errors.New("boom")
	_, err := pollOperation(context.Background(), time.Millisecond, func(ctx context.Context) (int, agentwallet.Status, error) {
		return 0, "", wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want %v", err, wantErr)
	}
}

func TestPollOperationContextDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := pollOperation(ctx, time.Hour, func(ctx context.Context) (int, agentwallet.Status, error) {
		return 0, agentwallet.StatusPending, nil
	})
	if !errors.Is(err, agentwallet.ErrTimeout) {
		t.Errorf("error = %v, want ErrTimeout", err)
	}
}

func TestPollOperationCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pollOperation(ctx, time.Hour, func(ctx context.Context) (int, agentwallet.Status, error) {
		return 0, agentwallet.StatusPending, nil
	})
	if !errors.Is(err, agentwallet.ErrTimeout) {
		t.Errorf("error = %v, want ErrTimeout", err)
	}
}
