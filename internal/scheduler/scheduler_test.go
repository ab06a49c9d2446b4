package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestEveryRejectsBadSpec(t *testing.T) {
	s := New()
	if err := s.Every("every now and then", "bad", func() {}); err == nil {
		t.Fatal("expected error for malformed spec")
	}
}

func TestRunsUntilStopped(t *testing.T) {
	s := New()
	var n atomic.Int64
	if err := s.Every("@every 1s", "tick", func() { n.Add(1) }); err != nil {
		t.Fatalf("every: %v", err)
	}
	s.Start()

	deadline := time.Now().Add(3 * time.Second)
	for n.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if n.Load() == 0 {
		t.Fatal("job never ran")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	after := n.Load()
	time.Sleep(1500 * time.Millisecond)
	if n.Load() != after {
		t.Fatalf("job ran after Stop: %d -> %d", after, n.Load())
	}
	if s.Runs("tick") != after {
		t.Fatalf("Runs = %d, want %d", s.Runs("tick"), after)
	}

	s.Start()
	time.Sleep(1200 * time.Millisecond)
	if n.Load() != after {
		t.Fatal("restart after Stop ran jobs")
	}
}

func TestStopBeforeStart(t *testing.T) {
	s := New()
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
