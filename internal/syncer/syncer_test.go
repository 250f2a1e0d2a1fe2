package syncer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type countingSyncer struct {
	calls atomic.Int32
}

func (c *countingSyncer) Sync(context.Context) {
	c.calls.Add(1)
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

// TestStopDuringWarmUpNeverSyncs covers the case where a replica shuts
// down before the daemon's warm-up delay has elapsed: Sync must never
// have been called, and Stop must return promptly rather than blocking
// for the full warm-up.
func TestStopDuringWarmUpNeverSyncs(t *testing.T) {
	s := &countingSyncer{}
	d := New(s, testLogger())
	d.Start()

	done := make(chan struct{})
	go func() {
		d.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return promptly during warm-up")
	}

	if s.calls.Load() != 0 {
		t.Errorf("expected no Sync calls during warm-up, got %d", s.calls.Load())
	}
}

// TestDaemonLifecycle verifies Start followed immediately by Stop
// leaves the daemon's done channel closed and does not panic or hang,
// regardless of whether the warm-up raced the stop signal.
func TestDaemonLifecycle(t *testing.T) {
	s := &countingSyncer{}
	d := New(s, testLogger())
	d.Start()
	d.Stop()

	select {
	case <-d.done:
	default:
		t.Fatal("expected done channel to be closed after Stop")
	}
}
