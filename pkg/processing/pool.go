// Package processing delivers applied orientations to subscribers off the
// frame loop.
package processing

import (
	"sync"
	"time"

	customlog "github.com/open-teleop/follower/pkg/log"
	"github.com/open-teleop/follower/pkg/orientation"
)

// UpdateHandler consumes one applied update
type UpdateHandler func(u *orientation.Update) error

type namedHandler struct {
	name    string
	handler UpdateHandler
}

// ProcessingPool queues updates and hands them to every registered handler
// from a single worker, so handlers see updates in order.
type ProcessingPool struct {
	name      string
	logger    customlog.Logger
	queue     chan *orientation.Update
	queueSize int
	handlers  []namedHandler
	running   bool
	wg        sync.WaitGroup
	mu        sync.Mutex
	metricsMu sync.Mutex
	metrics   PoolMetrics
}

// PoolMetrics tracks metrics for a processing pool
type PoolMetrics struct {
	ProcessedCount    int64 `json:"processed"`
	ErrorCount        int64 `json:"errors"`
	QueuedCount       int64 `json:"queued"`
	DroppedCount      int64 `json:"dropped"`
	LastProcessedTime int64 `json:"last_processed_ns"`
	ProcessingTimeAvg int64 `json:"processing_time_avg_us"`
	ProcessingTimeMax int64 `json:"processing_time_max_us"`
}

// NewProcessingPool creates a new processing pool
func NewProcessingPool(name string, queueSize int, logger customlog.Logger) *ProcessingPool {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &ProcessingPool{
		name:      name,
		logger:    logger,
		queueSize: queueSize,
	}
}

// AddHandler registers a handler. Handlers added after Start are picked up
// from the next update on.
func (p *ProcessingPool) AddHandler(name string, handler UpdateHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, namedHandler{name: name, handler: handler})
	p.logger.Debugf("Registered %s handler on %s pool", name, p.name)
}

// Submit queues an update without blocking. It returns false when the pool
// is stopped or the queue is full; the update is then discarded.
func (p *ProcessingPool) Submit(u *orientation.Update) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return false
	}

	select {
	case p.queue <- u:
		p.metricsMu.Lock()
		p.metrics.QueuedCount++
		p.metricsMu.Unlock()
		return true
	default:
		p.metricsMu.Lock()
		p.metrics.DroppedCount++
		p.metricsMu.Unlock()
		p.logger.Warnf("%s pool queue is full, discarding update #%d", p.name, u.Seq)
		return false
	}
}

// Start starts the worker
func (p *ProcessingPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}

	p.queue = make(chan *orientation.Update, p.queueSize)
	p.running = true
	p.logger.Infof("Starting %s pool (queue=%d)", p.name, p.queueSize)

	p.wg.Add(1)
	go p.worker(p.queue)
}

// Stop drains the queue and waits for the worker
func (p *ProcessingPool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.queue)
	p.mu.Unlock()

	p.logger.Infof("Stopping %s pool", p.name)
	p.wg.Wait()
	p.logMetrics()
}

func (p *ProcessingPool) worker(queue <-chan *orientation.Update) {
	defer p.wg.Done()

	for u := range queue {
		p.mu.Lock()
		handlers := append([]namedHandler(nil), p.handlers...)
		p.mu.Unlock()

		startTime := time.Now()
		var failed int64
		for _, h := range handlers {
			if err := h.handler(u); err != nil {
				failed++
				p.logger.Errorf("%s handler failed on update #%d: %v", h.name, u.Seq, err)
			}
		}
		processingTime := time.Since(startTime).Microseconds()

		p.metricsMu.Lock()
		p.metrics.ProcessedCount++
		p.metrics.ErrorCount += failed
		p.metrics.LastProcessedTime = time.Now().UnixNano()
		if p.metrics.ProcessingTimeAvg == 0 {
			p.metrics.ProcessingTimeAvg = processingTime
		} else {
			// Simple moving average
			p.metrics.ProcessingTimeAvg = (p.metrics.ProcessingTimeAvg + processingTime) / 2
		}
		if processingTime > p.metrics.ProcessingTimeMax {
			p.metrics.ProcessingTimeMax = processingTime
		}
		p.metricsMu.Unlock()
	}
}

// GetMetrics returns a copy of the current metrics
func (p *ProcessingPool) GetMetrics() PoolMetrics {
	p.metricsMu.Lock()
	defer p.metricsMu.Unlock()

	return p.metrics
}

func (p *ProcessingPool) logMetrics() {
	metrics := p.GetMetrics()

	p.logger.Infof("%s pool metrics: processed=%d, errors=%d, dropped=%d, avg_time=%dµs, max_time=%dµs",
		p.name, metrics.ProcessedCount, metrics.ErrorCount, metrics.DroppedCount,
		metrics.ProcessingTimeAvg, metrics.ProcessingTimeMax)
}

// GetName returns the pool name
func (p *ProcessingPool) GetName() string {
	return p.name
}
