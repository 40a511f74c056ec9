package translate

import (
	"testing"
	"time"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: 10 * time.Millisecond, HalfOpenMax: 1})

	if !cb.Allow() {
		t.Fatalf("Allow() = false on a fresh breaker, want true")
	}
	cb.RecordFailure()
	if cb.State() != CircuitStateClosed {
		t.Fatalf("State() = %v after 1 failure, want closed", cb.State())
	}
	cb.RecordFailure()
	if cb.State() != CircuitStateOpen {
		t.Fatalf("State() = %v after 2 failures, want open", cb.State())
	}
	if cb.Allow() {
		t.Fatalf("Allow() = true while open, want false")
	}
}

func TestCircuitBreakerHalfOpenRecovers(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: 5 * time.Millisecond, HalfOpenMax: 1})
	cb.RecordFailure()
	if cb.State() != CircuitStateOpen {
		t.Fatalf("State() = %v, want open", cb.State())
	}

	time.Sleep(10 * time.Millisecond)
	if cb.State() != CircuitStateHalfOpen {
		t.Fatalf("State() = %v after backoff elapsed, want half_open", cb.State())
	}

	cb.RecordSuccess()
	if cb.State() != CircuitStateClosed {
		t.Fatalf("State() = %v after probe success, want closed", cb.State())
	}
}

func TestNewNoopReturnsInputUnchanged(t *testing.T) {
	tr := NewNoop()
	got, err := tr.Translate(nil, "Toshkent Savdo MChJ")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "Toshkent Savdo MChJ" {
		t.Errorf("Translate() = %q, want unchanged input", got)
	}
}
