package replay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	customlog "github.com/open-teleop/follower/pkg/log"
)

// Server plays a recording to one connected client at a time
type Server struct {
	rows     []Row
	interval time.Duration
	loop     bool
	logger   customlog.Logger
}

// NewServer creates a server sending rateHz rows per second
func NewServer(rows []Row, rateHz float64, loop bool, logger customlog.Logger) (*Server, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("nothing to replay")
	}
	if rateHz <= 0 {
		return nil, fmt.Errorf("replay rate must be positive, got %v", rateHz)
	}
	interval := time.Duration(float64(time.Second) / rateHz)
	if interval <= 0 {
		return nil, fmt.Errorf("replay rate %v is too high, the interval rounds to zero", rateHz)
	}
	return &Server{
		rows:     rows,
		interval: interval,
		loop:     loop,
		logger:   logger,
	}, nil
}

// Serve accepts clients on ln until ctx is cancelled. Without looping it
// returns once a client has received the whole recording.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	s.logger.Infof("Replaying %d samples on %s every %v (loop=%v)", len(s.rows), ln.Addr(), s.interval, s.loop)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}

		s.logger.Infof("Follower connected from %s", conn.RemoteAddr())
		done, err := s.stream(ctx, conn)
		conn.Close()

		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil:
			s.logger.Warnf("Follower %s dropped: %v", conn.RemoteAddr(), err)
		case done:
			s.logger.Infof("Recording sent to %s", conn.RemoteAddr())
			return nil
		}
	}
}

// stream writes rows until the recording ends, or forever when looping.
// It reports whether the whole recording went out.
func (s *Server) stream(ctx context.Context, conn net.Conn) (bool, error) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		for _, row := range s.rows {
			if _, err := conn.Write([]byte(row.Line())); err != nil {
				return false, err
			}
			select {
			case <-ctx.Done():
				return false, nil
			case <-ticker.C:
			}
		}
		if !s.loop {
			return true, nil
		}
	}
}

// ListenAndServe listens on address and serves until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, address string) error {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	err = s.Serve(ctx, ln)
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
