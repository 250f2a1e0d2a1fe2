package mempool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type fakeMiner struct {
	size     atomic.Int32
	mineHits atomic.Int32
}

func (f *fakeMiner) MempoolSize() int { return int(f.size.Load()) }

func (f *fakeMiner) TryMine(context.Context) bool {
	f.mineHits.Add(1)
	f.size.Store(0)
	return true
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

// TestAutoMineTriggersOnThreshold verifies the daemon mines once the
// mempool size crosses the configured threshold, without waiting for
// the interval to elapse.
func TestAutoMineTriggersOnThreshold(t *testing.T) {
	miner := &fakeMiner{}
	miner.size.Store(5)

	d := NewAutoMineDaemon(miner, 3, time.Hour, 10*time.Millisecond, testLogger())
	d.Start()
	defer d.Stop()

	deadline := time.After(2 * time.Second)
	for miner.mineHits.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected auto-mine to trigger on threshold, it did not")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// TestAutoMineSkipsEmptyMempool verifies the daemon never mines an
// empty mempool even once the interval has long since elapsed.
func TestAutoMineSkipsEmptyMempool(t *testing.T) {
	miner := &fakeMiner{}

	d := NewAutoMineDaemon(miner, 3, 20*time.Millisecond, 10*time.Millisecond, testLogger())
	d.Start()
	defer d.Stop()

	time.Sleep(100 * time.Millisecond)
	if miner.mineHits.Load() != 0 {
		t.Errorf("expected no mine attempts against an empty mempool, got %d", miner.mineHits.Load())
	}
}

// TestAutoMineTriggersOnInterval verifies the daemon mines once the
// interval elapses even when the mempool never crosses the threshold.
func TestAutoMineTriggersOnInterval(t *testing.T) {
	miner := &fakeMiner{}
	miner.size.Store(1)

	d := NewAutoMineDaemon(miner, 100, 20*time.Millisecond, 10*time.Millisecond, testLogger())
	d.Start()
	defer d.Stop()

	deadline := time.After(2 * time.Second)
	for miner.mineHits.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected auto-mine to trigger once the interval elapsed")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
