package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

var errBusy = errors.New("busy")

func onlyBusy(err error) bool { return errors.Is(err, errBusy) }

func fast(attempts int) *Backoff {
	return &Backoff{
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		MaxAttempts:  attempts,
		Retryable:    onlyBusy,
	}
}

func TestBackoff_SuccessAfterRetries(t *testing.T) {
	calls := 0
	err := fast(5).Do(context.Background(), func(attempt int) error {
		calls++
		if attempt < 3 {
			return errBusy
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestBackoff_NonRetryableReturnedAsIs(t *testing.T) {
	fatal := fmt.Errorf("no such device")
	calls := 0
	err := fast(5).Do(context.Background(), func(int) error {
		calls++
		return fatal
	})
	if err != fatal {
		t.Fatalf("expected the original error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestBackoff_BudgetExhausted(t *testing.T) {
	calls := 0
	err := fast(3).Do(context.Background(), func(int) error {
		calls++
		return errBusy
	})
	if !errors.Is(err, errBusy) {
		t.Fatalf("expected wrapped errBusy, got %v", err)
	}
	if !strings.Contains(err.Error(), "3 attempts") {
		t.Errorf("error should mention the attempt count: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestBackoff_ZeroAttemptsMeansOnce(t *testing.T) {
	calls := 0
	_ = fast(0).Do(context.Background(), func(int) error {
		calls++
		return errBusy
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestBackoff_ContextCancelled(t *testing.T) {
	b := fast(10)
	b.InitialDelay = time.Hour
	b.MaxDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Do(ctx, func(int) error { return errBusy })
	if err == nil || !strings.Contains(err.Error(), "cancelled") {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestDeviceBackoff(t *testing.T) {
	b := DeviceBackoff(onlyBusy)
	if b.MaxAttempts < 2 {
		t.Errorf("device policy should retry at least once")
	}
	if b.MaxDelay > time.Second {
		t.Errorf("device policy should give up quickly, MaxDelay=%v", b.MaxDelay)
	}
}

func TestAddJitter_Bounds(t *testing.T) {
	d := 100 * time.Millisecond
	for i := 0; i < 100; i++ {
		j := addJitter(d)
		if j < 75*time.Millisecond || j > 125*time.Millisecond {
			t.Fatalf("jitter out of range: %v", j)
		}
	}
}
