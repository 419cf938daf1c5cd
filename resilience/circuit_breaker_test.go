package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker("proxy", 3, time.Hour)

	if !cb.Allow() {
		t.Fatal("expected closed breaker to allow")
	}

	failure := errors.New("boom")
	cb.RecordResult(failure)
	cb.RecordResult(failure)
	if cb.State() != CircuitClosed {
		t.Errorf("expected breaker closed below threshold, got %v", cb.State())
	}

	cb.RecordResult(failure)
	if cb.State() != CircuitOpen {
		t.Errorf("expected breaker open at threshold, got %v", cb.State())
	}
	if cb.Allow() {
		t.Error("expected open breaker to deny")
	}
}

func TestCircuitBreakerSuccessResetsCount(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker("proxy", 2, time.Hour)

	cb.RecordResult(errors.New("boom"))
	cb.RecordResult(nil)
	cb.RecordResult(errors.New("boom"))

	if cb.State() != CircuitClosed {
		t.Errorf("expected success to reset the failure count, got %v", cb.State())
	}
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker("proxy", 1, 20*time.Millisecond)

	cb.RecordResult(errors.New("boom"))
	if cb.Allow() {
		t.Fatal("expected open breaker to deny")
	}

	time.Sleep(30 * time.Millisecond)

	if !cb.Allow() {
		t.Fatal("expected breaker to probe after reset timeout")
	}
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("expected half-open state, got %v", cb.State())
	}

	cb.RecordResult(nil)
	if cb.State() != CircuitClosed {
		t.Errorf("expected successful probe to close the breaker, got %v", cb.State())
	}
}
