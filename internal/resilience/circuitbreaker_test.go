package resilience

import (
	"errors"
	"testing"
	"time"
)

var errTest = errors.New("backend unavailable")

func failN(cb *CircuitBreaker, n int) {
	for range n {
		_ = cb.Execute(func() error { return errTest })
	}
}

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "openai"})
	if cb.maxFailures != 5 {
		t.Errorf("maxFailures = %d, want 5", cb.maxFailures)
	}
	if cb.resetTimeout != 30*time.Second {
		t.Errorf("resetTimeout = %v, want 30s", cb.resetTimeout)
	}
	if cb.halfOpenMax != 3 {
		t.Errorf("halfOpenMax = %d, want 3", cb.halfOpenMax)
	}
	if got := cb.State(); got != StateClosed {
		t.Errorf("initial state = %v, want closed", got)
	}
}

func TestCircuitBreaker_ClosedAllowsCalls(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "openai", MaxFailures: 3})
	called := false
	if err := cb.Execute(func() error { called = true; return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("fn was not called")
	}
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:         "openai",
		MaxFailures:  3,
		ResetTimeout: time.Hour,
	})

	failN(cb, 3)
	if got := cb.State(); got != StateOpen {
		t.Fatalf("state = %v, want open after 3 failures", got)
	}

	err := cb.Execute(func() error { return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "openai", MaxFailures: 3})

	failN(cb, 2)
	_ = cb.Execute(func() error { return nil })
	if got := cb.State(); got != StateClosed {
		t.Fatalf("state = %v, want closed (success resets the counter)", got)
	}

	failN(cb, 2)
	if got := cb.State(); got != StateClosed {
		t.Fatal("should still be closed after 2 failures post-reset")
	}
}

func TestCircuitBreaker_HalfOpenTransitions(t *testing.T) {
	t.Parallel()

	newOpen := func(halfOpenMax int) *CircuitBreaker {
		cb := NewCircuitBreaker(CircuitBreakerConfig{
			Name:         "elevenlabs",
			MaxFailures:  2,
			ResetTimeout: 10 * time.Millisecond,
			HalfOpenMax:  halfOpenMax,
		})
		failN(cb, 2)
		time.Sleep(15 * time.Millisecond)
		return cb
	}

	t.Run("reports half-open after timeout", func(t *testing.T) {
		cb := newOpen(2)
		if got := cb.State(); got != StateHalfOpen {
			t.Fatalf("state = %v, want half-open after timeout", got)
		}
	})

	t.Run("closes after successful probes", func(t *testing.T) {
		cb := newOpen(2)
		for i := range 2 {
			if err := cb.Execute(func() error { return nil }); err != nil {
				t.Fatalf("probe %d: unexpected error: %v", i, err)
			}
		}
		if got := cb.State(); got != StateClosed {
			t.Fatalf("state = %v, want closed after successful probes", got)
		}
	})

	t.Run("re-opens on probe failure", func(t *testing.T) {
		cb := newOpen(3)
		if err := cb.Execute(func() error { return errTest }); err == nil {
			t.Fatal("expected error from failing probe")
		}
		// State() would report half-open again once the fresh lastFailure
		// ages past the timeout, so read the raw state.
		cb.mu.Lock()
		s := cb.state
		cb.mu.Unlock()
		if s != StateOpen {
			t.Fatalf("state = %v, want open after half-open failure", s)
		}
	})
}

func TestCircuitBreaker_ManualReset(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:         "openai",
		MaxFailures:  2,
		ResetTimeout: time.Hour,
	})

	failN(cb, 2)
	if got := cb.State(); got != StateOpen {
		t.Fatal("expected open")
	}

	cb.Reset()
	if got := cb.State(); got != StateClosed {
		t.Fatalf("state = %v, want closed after reset", got)
	}
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("unexpected error after reset: %v", err)
	}
}

func TestState_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
