package docstore

import (
	"sync/atomic"

	"github.com/alecgard/taskhub/internal/metrics"
	"go.mongodb.org/mongo-driver/event"
)

// poolTracker counts connections from driver pool events. The mongo driver
// has no pool snapshot API, so the counts are kept here.
type poolTracker struct {
	open     atomic.Int32
	acquired atomic.Int32
}

func (p *poolTracker) monitor() *event.PoolMonitor {
	return &event.PoolMonitor{Event: p.handle}
}

func (p *poolTracker) handle(e *event.PoolEvent) {
	switch e.Type {
	case event.ConnectionCreated:
		p.open.Add(1)
	case event.ConnectionClosed:
		p.open.Add(-1)
	case event.GetSucceeded:
		p.acquired.Add(1)
	case event.ConnectionReturned:
		p.acquired.Add(-1)
	}
}

func (p *poolTracker) stats() metrics.PoolStats {
	open, acquired := p.open.Load(), p.acquired.Load()
	idle := open - acquired
	if idle < 0 {
		idle = 0
	}
	return metrics.PoolStats{Total: open, Idle: idle, Acquired: acquired}
}

// PoolStats reports connections across all servers the client talks to.
func (d *DB) PoolStats() metrics.PoolStats {
	return d.pool.stats()
}
