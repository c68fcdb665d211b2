// Package receiver keeps a TCP connection to the motion sensor bridge open
// and publishes every message it reads.
package receiver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/open-teleop/follower/pkg/config"
	customlog "github.com/open-teleop/follower/pkg/log"
)

// Common errors
var (
	// ErrGiveUp is returned by Run once MaxAttempts consecutive dials failed
	ErrGiveUp = errors.New("receiver gave up connecting")
	// ErrPeerClosed reports an orderly close from the bridge
	ErrPeerClosed = errors.New("peer closed the connection")
)

// Sink receives each decoded message. The latest.Slot satisfies it.
type Sink interface {
	Publish(text string) uint64
}

// Options controls dialing, framing and reconnection
type Options struct {
	Address              string
	ChunkSize            int
	Framing              string
	Delimiter            string
	MaxFrameSize         int
	DialTimeout          time.Duration
	ReadTimeout          time.Duration
	ReconnectInterval    time.Duration
	MaxReconnectInterval time.Duration
	MaxAttempts          int
}

// OptionsFromConfig converts the receiver config section
func OptionsFromConfig(cfg config.ReceiverConfig) Options {
	return Options{
		Address:              cfg.Address,
		ChunkSize:            cfg.ChunkSize,
		Framing:              cfg.Framing,
		Delimiter:            cfg.Delimiter,
		MaxFrameSize:         cfg.MaxFrameSize,
		DialTimeout:          cfg.DialTimeout(),
		ReadTimeout:          cfg.ReadTimeout(),
		ReconnectInterval:    cfg.ReconnectInterval(),
		MaxReconnectInterval: cfg.MaxReconnectInterval(),
		MaxAttempts:          cfg.MaxAttempts,
	}
}

// Stats is a snapshot of receiver counters
type Stats struct {
	Address       string `json:"address"`
	Connected     bool   `json:"connected"`
	Session       string `json:"session,omitempty"`
	Connects      int64  `json:"connects"`
	DialFailures  int64  `json:"dial_failures"`
	Disconnects   int64  `json:"disconnects"`
	Frames        int64  `json:"frames"`
	Bytes         int64  `json:"bytes"`
	DroppedFrames int64  `json:"dropped_frames"`
	LastError     string `json:"last_error,omitempty"`
}

// Receiver dials the bridge, reads messages into a Sink and redials with
// exponential backoff whenever the connection ends.
type Receiver struct {
	opts   Options
	sink   Sink
	logger customlog.Logger
	framer Framer
	dialer *net.Dialer

	mu    sync.Mutex
	stats Stats
}

// NewReceiver validates the options and creates a Receiver
func NewReceiver(opts Options, sink Sink, logger customlog.Logger) (*Receiver, error) {
	if opts.Address == "" {
		return nil, fmt.Errorf("receiver address cannot be empty")
	}
	if opts.ChunkSize <= 0 {
		return nil, fmt.Errorf("receiver chunk size must be positive, got %d", opts.ChunkSize)
	}
	if opts.ReconnectInterval <= 0 {
		return nil, fmt.Errorf("receiver reconnect interval must be positive, got %v", opts.ReconnectInterval)
	}
	if opts.MaxReconnectInterval < opts.ReconnectInterval {
		opts.MaxReconnectInterval = opts.ReconnectInterval
	}
	framer, err := NewFramer(opts.Framing, opts.Delimiter, opts.MaxFrameSize)
	if err != nil {
		return nil, err
	}

	return &Receiver{
		opts:   opts,
		sink:   sink,
		logger: logger,
		framer: framer,
		dialer: &net.Dialer{Timeout: opts.DialTimeout},
		stats:  Stats{Address: opts.Address},
	}, nil
}

// Run blocks until ctx is cancelled, returning nil, or until MaxAttempts
// consecutive dials failed, returning an error wrapping ErrGiveUp.
// Transport faults never escape; they are logged and followed by a redial.
func (r *Receiver) Run(ctx context.Context) error {
	backoff := r.opts.ReconnectInterval
	failures := 0

	r.logger.Infof("Receiver started for %s (framing=%s, chunk=%d bytes)", r.opts.Address, r.opts.Framing, r.opts.ChunkSize)
	defer r.logger.Infof("Receiver for %s stopped", r.opts.Address)

	for {
		if ctx.Err() != nil {
			return nil
		}

		conn, err := r.dialer.DialContext(ctx, "tcp", r.opts.Address)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			failures++
			r.recordDialFailure(err)
			if r.opts.MaxAttempts > 0 && failures >= r.opts.MaxAttempts {
				r.logger.Errorf("Giving up on %s after %d failed attempts: %v", r.opts.Address, failures, err)
				return fmt.Errorf("%w: %d attempts to %s: %w", ErrGiveUp, failures, r.opts.Address, err)
			}
			r.logger.Warnf("Connection to %s failed (attempt %d), retrying in %v: %v", r.opts.Address, failures, backoff, err)
			if !sleep(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, r.opts.MaxReconnectInterval)
			continue
		}
		failures = 0

		session := uuid.NewString()
		sessionLogger := r.logger.WithField("session", session)
		r.recordConnect(session)
		sessionLogger.Infof("Connected to %s", conn.RemoteAddr())

		frames, err := r.serve(ctx, conn)
		conn.Close()
		r.recordDisconnect(err)

		if ctx.Err() != nil {
			return nil
		}
		if frames > 0 {
			backoff = r.opts.ReconnectInterval
		}
		if errors.Is(err, ErrPeerClosed) {
			sessionLogger.Warnf("Bridge closed the connection after %d messages, reconnecting in %v", frames, backoff)
		} else {
			sessionLogger.Errorf("Connection error after %d messages, reconnecting in %v: %v", frames, backoff, err)
		}
		if !sleep(ctx, backoff) {
			return nil
		}
		backoff = nextBackoff(backoff, r.opts.MaxReconnectInterval)
	}
}

// serve reads from conn until it fails, returning the number of messages published
func (r *Receiver) serve(ctx context.Context, conn net.Conn) (int64, error) {
	// Closing the connection is the only way to interrupt a blocked Read
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	r.framer.Reset()
	buf := make([]byte, r.opts.ChunkSize)
	var frames int64

	for {
		if r.opts.ReadTimeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(r.opts.ReadTimeout)); err != nil {
				return frames, fmt.Errorf("failed to set read deadline: %w", err)
			}
		}

		n, err := conn.Read(buf)
		if n > 0 {
			msgs := r.framer.Feed(buf[:n])
			for _, msg := range msgs {
				r.sink.Publish(msg)
			}
			frames += int64(len(msgs))
			r.recordRead(n, len(msgs), r.framer.Dropped())
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return frames, ErrPeerClosed
			}
			return frames, err
		}
	}
}

// Stats returns a copy of the counters
func (r *Receiver) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *Receiver) recordDialFailure(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.DialFailures++
	r.stats.LastError = err.Error()
}

func (r *Receiver) recordConnect(session string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Connects++
	r.stats.Connected = true
	r.stats.Session = session
}

func (r *Receiver) recordDisconnect(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Disconnects++
	r.stats.Connected = false
	if err != nil {
		r.stats.LastError = err.Error()
	}
}

func (r *Receiver) recordRead(n, frames int, dropped int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Bytes += int64(n)
	r.stats.Frames += int64(frames)
	r.stats.DroppedFrames = dropped
}

func nextBackoff(cur, ceiling time.Duration) time.Duration {
	next := cur * 2
	if next > ceiling {
		return ceiling
	}
	return next
}

// sleep waits for d and reports false if ctx ended first
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
