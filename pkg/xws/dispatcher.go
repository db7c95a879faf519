package xws

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// job is one enqueued call.
type job struct {
	id   string
	name string
	ctx  context.Context
	run  func(ctx context.Context, id string)
}

// DispatcherConfig sizes the pool that runs enqueued calls.
type DispatcherConfig struct {
	// NumWorkers is the number of background workers (defaults to 3).
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint
}

// dispatcher executes enqueued calls on a fixed set of workers.
type dispatcher struct {
	queue  chan job
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

func newDispatcher(c DispatcherConfig, logger *slog.Logger) (*dispatcher, error) {
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	d := &dispatcher{
		queue:  make(chan job, c.QueueSize),
		logger: logger,
	}

	d.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go d.worker(i)
	}

	return d, nil
}

// submit queues j without blocking.
func (d *dispatcher) submit(j job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrClientClosed
	}

	j.id = uuid.NewString()
	select {
	case d.queue <- j:
		d.logger.Debug("call queued", "call_id", j.id, "call", j.name)
		return nil
	default:
		d.logger.Error("call not queued, queue full", "call", j.name)
		return ErrQueueFull
	}
}

// close stops accepting calls and waits for queued ones to drain.
func (d *dispatcher) close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *dispatcher) worker(id uint) {
	defer d.wg.Done()
	d.logger.Debug("worker started", "worker_id", id)

	for j := range d.queue {
		d.process(j)
	}

	d.logger.Debug("worker stopped", "worker_id", id)
}

func (d *dispatcher) process(j job) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("call panicked",
				"call_id", j.id,
				"call", j.name,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()

	d.logger.Debug("call started", "call_id", j.id, "call", j.name)
	j.run(j.ctx, j.id)
	d.logger.Debug("call finished", "call_id", j.id, "call", j.name)
}
