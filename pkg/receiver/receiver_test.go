package receiver

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/open-teleop/follower/pkg/config"
	"github.com/open-teleop/follower/pkg/latest"
	customlog "github.com/open-teleop/follower/pkg/log"
)

// recordingSink keeps every published message
type recordingSink struct {
	mu   sync.Mutex
	msgs []string
	seen chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{seen: make(chan struct{}, 100)}
}

func (s *recordingSink) Publish(text string) uint64 {
	s.mu.Lock()
	s.msgs = append(s.msgs, text)
	n := len(s.msgs)
	s.mu.Unlock()
	select {
	case s.seen <- struct{}{}:
	default:
	}
	return uint64(n)
}

func (s *recordingSink) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.msgs...)
}

func (s *recordingSink) waitFor(t *testing.T, n int) []string {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		if msgs := s.messages(); len(msgs) >= n {
			return msgs
		}
		select {
		case <-s.seen:
		case <-deadline:
			t.Fatalf("Timed out waiting for %d messages, got %q", n, s.messages())
		}
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("Condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func testOptions(addr string) Options {
	return Options{
		Address:              addr,
		ChunkSize:            1024,
		Framing:              config.FramingDelimited,
		Delimiter:            "#",
		MaxFrameSize:         4096,
		DialTimeout:          time.Second,
		ReconnectInterval:    10 * time.Millisecond,
		MaxReconnectInterval: 40 * time.Millisecond,
	}
}

func startReceiver(t *testing.T, opts Options, sink Sink) (*Receiver, context.CancelFunc, <-chan error) {
	t.Helper()
	r, err := NewReceiver(opts, sink, customlog.NewNopLogger())
	if err != nil {
		t.Fatalf("NewReceiver failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	t.Cleanup(cancel)
	return r, cancel, done
}

func listen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	return ln
}

func TestReceiverPublishesDelimitedMessages(t *testing.T) {
	ln := listen(t)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("a;1 0 0 0,b#a;0 1 0 0,b#"))
		time.Sleep(time.Second)
	}()

	sink := newRecordingSink()
	r, _, _ := startReceiver(t, testOptions(ln.Addr().String()), sink)

	msgs := sink.waitFor(t, 2)
	if msgs[0] != "a;1 0 0 0,b" || msgs[1] != "a;0 1 0 0,b" {
		t.Errorf("Unexpected messages %q", msgs)
	}

	// Counters are recorded right after the messages are published
	var stats Stats
	eventually(t, func() bool {
		stats = r.Stats()
		return stats.Frames == 2
	})
	if stats.Connects != 1 || stats.Bytes != 24 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	if !stats.Connected || stats.Session == "" {
		t.Errorf("Expected an active session, got %+v", stats)
	}
}

func TestReceiverReconnectsWithFreshConnection(t *testing.T) {
	ln := listen(t)
	go func() {
		for _, payload := range []string{"a;1 0 0 0,b#", "a;0 0 0 1,b#"} {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Write([]byte(payload))
			conn.Close()
		}
	}()

	slot := latest.NewSlot()
	sink := newRecordingSink()
	r, _, _ := startReceiver(t, testOptions(ln.Addr().String()), multiSink{slot, sink})

	sink.waitFor(t, 2)
	if text, seq := slot.Load(); text != "a;0 0 0 1,b" || seq != 2 {
		t.Errorf("Expected second connection's message at seq 2, got %q at %d", text, seq)
	}
	eventually(t, func() bool { return r.Stats().Connects >= 2 })
}

func TestReceiverGivesUpAfterMaxAttempts(t *testing.T) {
	ln := listen(t)
	addr := ln.Addr().String()
	ln.Close()

	opts := testOptions(addr)
	opts.MaxAttempts = 2
	sink := newRecordingSink()
	r, _, done := startReceiver(t, opts, sink)

	select {
	case err := <-done:
		if !errors.Is(err, ErrGiveUp) {
			t.Errorf("Expected ErrGiveUp, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("Receiver did not give up")
	}

	if len(sink.messages()) != 0 {
		t.Errorf("Expected no messages, got %q", sink.messages())
	}
	if stats := r.Stats(); stats.DialFailures != 2 || stats.LastError == "" {
		t.Errorf("Expected 2 dial failures with an error, got %+v", stats)
	}
}

func TestReceiverStopsOnCancelDuringBlockedRead(t *testing.T) {
	ln := listen(t)
	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		accepted <- conn
	}()

	_, cancel, done := startReceiver(t, testOptions(ln.Addr().String()), newRecordingSink())

	var conn net.Conn
	select {
	case conn = <-accepted:
		defer conn.Close()
	case <-time.After(3 * time.Second):
		t.Fatalf("Receiver never connected")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected nil on cancel, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("Receiver did not stop after cancel")
	}
}

func TestReceiverReadTimeoutTriggersRedial(t *testing.T) {
	ln := listen(t)
	conns := make(chan net.Conn, 4)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conns <- conn
		}
	}()

	opts := testOptions(ln.Addr().String())
	opts.ReadTimeout = 30 * time.Millisecond
	startReceiver(t, opts, newRecordingSink())

	for i := 0; i < 2; i++ {
		select {
		case conn := <-conns:
			defer conn.Close()
		case <-time.After(3 * time.Second):
			t.Fatalf("Expected connection %d after read timeout", i+1)
		}
	}
}

func TestReceiverRawModeLastChunkWins(t *testing.T) {
	ln := listen(t)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("a;1 0 0 0,b"))
		time.Sleep(time.Second)
	}()

	opts := testOptions(ln.Addr().String())
	opts.Framing = config.FramingRaw
	sink := newRecordingSink()
	startReceiver(t, opts, sink)

	msgs := sink.waitFor(t, 1)
	if msgs[0] != "a;1 0 0 0,b" {
		t.Errorf("Expected raw chunk, got %q", msgs[0])
	}
}

func TestNewReceiverValidation(t *testing.T) {
	logger := customlog.NewNopLogger()
	if _, err := NewReceiver(Options{}, newRecordingSink(), logger); err == nil {
		t.Errorf("Expected error for empty address")
	}
	opts := testOptions("localhost:65432")
	opts.Framing = "bogus"
	if _, err := NewReceiver(opts, newRecordingSink(), logger); err == nil {
		t.Errorf("Expected error for unknown framing")
	}
	opts = OptionsFromConfig(config.Default().Receiver)
	if opts.Address != "localhost:65432" || opts.ChunkSize != 1024 {
		t.Errorf("Unexpected options from defaults %+v", opts)
	}
	if _, err := NewReceiver(opts, newRecordingSink(), logger); err != nil {
		t.Errorf("Expected defaults to be valid, got %v", err)
	}
}

func TestNextBackoff(t *testing.T) {
	if got := nextBackoff(500*time.Millisecond, 10*time.Second); got != time.Second {
		t.Errorf("Expected 1s, got %v", got)
	}
	if got := nextBackoff(8*time.Second, 10*time.Second); got != 10*time.Second {
		t.Errorf("Expected ceiling 10s, got %v", got)
	}
}

type multiSink []Sink

func (m multiSink) Publish(text string) uint64 {
	var seq uint64
	for _, s := range m {
		seq = s.Publish(text)
	}
	return seq
}
