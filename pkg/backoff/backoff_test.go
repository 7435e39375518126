package backoff

import (
	"context"
	"testing"
	"time"
)

func TestDelay_Linear(t *testing.T) {
	t.Parallel()
	cfg := &Config{Increment: 500 * time.Millisecond, Max: 10 * time.Second, MaxJitter: 50 * time.Millisecond}

	for attempt := 1; attempt <= 3; attempt++ {
		want := time.Duration(attempt) * 500 * time.Millisecond
		got := Delay(Linear, attempt, cfg)
		if got < want || got >= want+50*time.Millisecond {
			t.Errorf("attempt %d: expected delay in [%v, %v), got %v", attempt, want, want+50*time.Millisecond, got)
		}
	}
}

func TestDelay_Exponential(t *testing.T) {
	t.Parallel()
	cfg := &Config{Base: 100 * time.Millisecond, Max: 10 * time.Second, MaxJitter: 50 * time.Millisecond}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
	}

	for _, tc := range cases {
		got := Delay(Exponential, tc.attempt, cfg)
		if got < tc.want || got >= tc.want+50*time.Millisecond {
			t.Errorf("attempt %d: expected delay in [%v, %v), got %v", tc.attempt, tc.want, tc.want+50*time.Millisecond, got)
		}
	}
}

func TestDelay_UnknownPolicyFallsBackToLinear(t *testing.T) {
	t.Parallel()
	cfg := &Config{Increment: 200 * time.Millisecond, Max: 10 * time.Second, MaxJitter: time.Millisecond}

	got := Delay(Policy("fibonacci"), 2, cfg)
	want := 400 * time.Millisecond
	if got < want || got >= want+time.Millisecond {
		t.Errorf("expected linear fallback delay around %v, got %v", want, got)
	}
}

func TestDelay_CappedAtMax(t *testing.T) {
	t.Parallel()
	cfg := &Config{Base: time.Second, Max: 2 * time.Second, MaxJitter: time.Millisecond}

	got := Delay(Exponential, 10, cfg)
	if got >= 2*time.Second+time.Millisecond {
		t.Errorf("expected delay capped at max plus jitter, got %v", got)
	}
}

func TestDelay_AttemptBelowOne(t *testing.T) {
	t.Parallel()
	cfg := &Config{Increment: 100 * time.Millisecond, MaxJitter: time.Millisecond}

	got := Delay(Linear, 0, cfg)
	if got < 100*time.Millisecond {
		t.Errorf("expected attempt 0 to be treated as 1, got %v", got)
	}
}

func TestDelay_DefaultsWithNilConfig(t *testing.T) {
	t.Parallel()

	// Default linear increment is 500ms
	got := Delay(Linear, 1, nil)
	if got < 500*time.Millisecond {
		t.Errorf("expected default increment of 500ms, got %v", got)
	}
}

func TestSleep_CompletesFullDuration(t *testing.T) {
	t.Parallel()

	start := time.Now()
	if err := Sleep(context.Background(), 20*time.Millisecond); err != nil {
		t.Fatalf("Sleep failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("expected sleep of at least 20ms, got %v", elapsed)
	}
}

func TestSleep_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Sleep(ctx, time.Minute); err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestSleep_ZeroDuration(t *testing.T) {
	t.Parallel()

	if err := Sleep(context.Background(), 0); err != nil {
		t.Errorf("expected nil for zero duration, got %v", err)
	}
}
