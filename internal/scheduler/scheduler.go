// Package scheduler runs the periodic clock and reminder ticks on a cron
// engine and tears them down cleanly.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	appLog "evcal/internal/log"
)

// cronLogger routes cron's own logging into internal/log.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...interface{}) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...interface{}) {
	appLog.Error("cron: "+msg, err, kv...)
}

// Scheduler owns a cron instance. Once Stop returns no job body runs again.
type Scheduler struct {
	c       *cron.Cron
	mu      sync.Mutex
	started bool
	stopped atomic.Bool
	runs    sync.Map // job name -> *atomic.Int64
}

func New() *Scheduler {
	logger := cronLogger{}
	return &Scheduler{
		c: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// Every registers fn under name. spec is any robfig/cron spec, including
// descriptors such as "@every 1s".
func (s *Scheduler) Every(spec, name string, fn func()) error {
	counter := new(atomic.Int64)
	s.runs.Store(name, counter)
	_, err := s.c.AddFunc(spec, func() {
		if s.stopped.Load() {
			return
		}
		start := time.Now()
		fn()
		counter.Add(1)
		appLog.Debug("scheduler: job done", "job", name, "took", time.Since(start).String())
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	appLog.Info("scheduler: job registered", "job", name, "spec", spec)
	return nil
}

// Runs reports how many times the named job has completed.
func (s *Scheduler) Runs(name string) int64 {
	v, ok := s.runs.Load(name)
	if !ok {
		return 0
	}
	return v.(*atomic.Int64).Load()
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped.Load() {
		return
	}
	s.started = true
	s.c.Start()
}

// Stop halts the schedule and waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.stopped.Store(true)
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return nil
	}
	select {
	case <-s.c.Stop().Done():
		appLog.Info("scheduler: stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
