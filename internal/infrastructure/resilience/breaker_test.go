package resilience

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func fail() error    { return errBoom }
func succeed() error { return nil }

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 3, OpenTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		if err := b.Execute(fail); !errors.Is(err, errBoom) {
			t.Fatalf("attempt %d: expected boom, got %v", i, err)
		}
	}

	if b.State() != StateOpen {
		t.Errorf("expected open state, got %s", b.State())
	}
	if err := b.Execute(succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 1, MaxProbes: 1, OpenTimeout: 10 * time.Millisecond})

	if err := b.Execute(fail); !errors.Is(err, errBoom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if b.State() != StateOpen {
		t.Fatalf("expected open state, got %s", b.State())
	}

	time.Sleep(20 * time.Millisecond)

	if b.State() != StateHalfOpen {
		t.Fatalf("expected half-open state, got %s", b.State())
	}
	if err := b.Execute(succeed); err != nil {
		t.Fatalf("probe should pass: %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed state after probe, got %s", b.State())
	}
}

func TestBreakerReopensOnHalfOpenFailure(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 1, OpenTimeout: 10 * time.Millisecond})

	b.Execute(fail)
	time.Sleep(20 * time.Millisecond)

	if err := b.Execute(fail); !errors.Is(err, errBoom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if b.State() != StateOpen {
		t.Errorf("expected reopened state, got %s", b.State())
	}
}

func TestBreakerStateChangeCallback(t *testing.T) {
	var transitions []string
	b := New("registry", Settings{
		FailureThreshold: 1,
		OpenTimeout:      time.Minute,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	b.Execute(fail)

	if len(transitions) != 1 || transitions[0] != "closed->open" {
		t.Errorf("unexpected transitions: %v", transitions)
	}
}
