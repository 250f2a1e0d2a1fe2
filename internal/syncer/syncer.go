// Package syncer runs the periodic consensus reconciliation daemon: a
// 10-second warm-up followed by a reconciliation cycle every 30
// seconds, for as long as the replica runs. The actual reconciliation
// logic (chain adoption, mempool merge, peer discovery) lives in
// internal/replica.Node.Sync, which already serializes itself under
// the coarse mutex; this package is only the scheduling loop, grounded
// on the teacher's consensus.ConsensusEngine.Start goroutine-plus-stop-
// channel shape.
package syncer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	warmUp   = 10 * time.Second
	interval = 30 * time.Second
)

// Syncer is the minimal interface the daemon drives. internal/replica.Node
// satisfies it.
type Syncer interface {
	Sync(ctx context.Context)
}

// Daemon runs Syncer.Sync on a fixed schedule until Stop is called.
type Daemon struct {
	syncer Syncer
	log    *logrus.Logger

	stop chan struct{}
	done chan struct{}
}

// New returns a Daemon that is not yet running; call Start to begin.
func New(syncer Syncer, log *logrus.Logger) *Daemon {
	return &Daemon{
		syncer: syncer,
		log:    log,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start begins the warm-up and periodic reconciliation loop in a
// background goroutine. It returns immediately.
func (d *Daemon) Start() {
	go d.run()
}

func (d *Daemon) run() {
	defer close(d.done)

	select {
	case <-time.After(warmUp):
	case <-d.stop:
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.runOnce()
	for {
		select {
		case <-ticker.C:
			d.runOnce()
		case <-d.stop:
			return
		}
	}
}

func (d *Daemon) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), interval)
	defer cancel()
	d.log.Debug("syncer: running reconciliation cycle")
	d.syncer.Sync(ctx)
}

// Stop signals the background loop to exit and waits for it to finish.
func (d *Daemon) Stop() {
	close(d.stop)
	<-d.done
}
