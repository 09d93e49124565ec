package retry

import (
	"context"
	"errors"
	"testing"
)

func TestDoStopsOnSuccess(t *testing.T) {
	calls := 0
	done, err := NoDelayPolicy(5).Do(context.Background(), func(ctx context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !done {
		t.Fatalf("expected done")
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	done, err := NoDelayPolicy(5).Do(context.Background(), func(ctx context.Context) (bool, error) {
		calls++
		return false, nil
	})
	if done {
		t.Fatalf("expected not done")
	}
	if err != nil {
		t.Fatalf("expected nil err, got %v", err)
	}
	if calls != 5 {
		t.Fatalf("expected 5 calls, got %d", calls)
	}
}

func TestDoReturnsLastError(t *testing.T) {
	wantErr := errors.New("db down")
	done, err := NoDelayPolicy(2).Do(context.Background(), func(ctx context.Context) (bool, error) {
		return false, wantErr
	})
	if done {
		t.Fatalf("expected not done")
	}
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}

func TestDoRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := UserLookupPolicy()
	done, err := p.Do(ctx, func(ctx context.Context) (bool, error) {
		return false, nil
	})
	if done {
		t.Fatalf("expected not done")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWaitScheduleFrontLoaded(t *testing.T) {
	p := UserLookupPolicy()
	if p.MaxAttempts != 5 {
		t.Fatalf("expected 5 attempts, got %d", p.MaxAttempts)
	}
	if p.wait(0) <= p.wait(1) {
		t.Fatalf("expected first wait to be the longest: %v vs %v", p.wait(0), p.wait(1))
	}
	if p.wait(10) != p.wait(len(p.Waits)-1) {
		t.Fatalf("expected overflow to reuse last wait")
	}
}
