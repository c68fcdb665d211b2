// Package follower runs the object that follows the motion sensor: a
// receiver feeding the latest message into a slot, and a frame loop that
// applies it to the scene object.
package follower

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/open-teleop/follower/pkg/config"
	"github.com/open-teleop/follower/pkg/latest"
	customlog "github.com/open-teleop/follower/pkg/log"
	"github.com/open-teleop/follower/pkg/orientation"
	"github.com/open-teleop/follower/pkg/processing"
	"github.com/open-teleop/follower/pkg/receiver"
	"github.com/open-teleop/follower/pkg/scene"
)

// ObjectName is the name of the followed scene object
const ObjectName = "follower"

// Observer is called after each applied update, off the frame loop
type Observer func(u *orientation.Update) error

// Status represents the follower state served by the API
type Status struct {
	Running       bool                     `json:"running"`
	Object        scene.Snapshot           `json:"object"`
	Receiver      receiver.Stats           `json:"receiver"`
	ReceiverError string                   `json:"receiver_error,omitempty"`
	Applier       orientation.ApplierStats `json:"applier"`
	Fanout        processing.PoolMetrics   `json:"fanout"`
	LastSeq       uint64                   `json:"last_seq"`
}

// FollowerService owns the receiver, the applier and the object they drive
type FollowerService struct {
	cfg      *config.Config
	logger   customlog.Logger
	slot     *latest.Slot
	receiver *receiver.Receiver
	applier  *orientation.Applier
	object   *scene.Object
	pool     *processing.ProcessingPool

	mu          sync.RWMutex
	running     bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	receiverErr error
	last        *orientation.Update
}

// NewFollowerService creates a new follower service instance
func NewFollowerService(cfg *config.Config, logger customlog.Logger) (*FollowerService, error) {
	slot := latest.NewSlot()

	rcv, err := receiver.NewReceiver(receiver.OptionsFromConfig(cfg.Receiver), slot, logger.WithField(customlog.ComponentField, "receiver"))
	if err != nil {
		return nil, fmt.Errorf("failed to create receiver: %w", err)
	}

	object := scene.NewObject(ObjectName)

	return &FollowerService{
		cfg:      cfg,
		logger:   logger,
		slot:     slot,
		receiver: rcv,
		applier:  orientation.NewApplier(slot, object, logger.WithField(customlog.ComponentField, "applier")),
		object:   object,
		pool:     processing.NewProcessingPool("fanout", cfg.Applier.FrameRateHz, logger),
	}, nil
}

// AddObserver registers an observer for applied updates
func (s *FollowerService) AddObserver(name string, o Observer) {
	s.pool.AddHandler(name, processing.UpdateHandler(o))
}

// Start launches the receiver and the frame loop. They stop when ctx is
// cancelled or Stop is called.
func (s *FollowerService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("follower service already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.receiverErr = nil
	s.pool.Start()

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := s.receiver.Run(runCtx); err != nil {
			s.logger.Errorf("Receiver stopped, object keeps its last orientation: %v", err)
			s.mu.Lock()
			s.receiverErr = err
			s.mu.Unlock()
		}
	}()
	go func() {
		defer s.wg.Done()
		s.frameLoop(runCtx)
	}()

	s.logger.Infof("Follower service started (%d frames/s)", s.cfg.Applier.FrameRateHz)
	return nil
}

// Stop cancels the receiver and frame loop and waits for them
func (s *FollowerService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.pool.Stop()
	s.logger.Infof("Follower service stopped")
}

func (s *FollowerService) frameLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Applier.FrameInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Frame()
		}
	}
}

// Frame runs one applier step and returns the applied update, if any.
// It is driven by the frame loop after Start and must not be called concurrently.
func (s *FollowerService) Frame() *orientation.Update {
	u, _ := s.applier.Poll()
	if u == nil {
		return nil
	}

	s.mu.Lock()
	s.last = u
	s.mu.Unlock()

	s.pool.Submit(u)
	return u
}

// Object returns the followed scene object
func (s *FollowerService) Object() *scene.Object {
	return s.object
}

// LastUpdate returns the most recently applied update, nil before the first
func (s *FollowerService) LastUpdate() *orientation.Update {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Status returns the current follower state
func (s *FollowerService) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := Status{
		Running:  s.running,
		Object:   s.object.Snapshot(),
		Receiver: s.receiver.Stats(),
		Applier:  s.applier.Stats(),
		Fanout:   s.pool.GetMetrics(),
	}
	if s.receiverErr != nil {
		status.ReceiverError = s.receiverErr.Error()
	}
	if s.last != nil {
		status.LastSeq = s.last.Seq
	}
	return status
}

// GetOrientationHandler handles API requests for the follower state
func (s *FollowerService) GetOrientationHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":      "success",
		"orientation": s.Status(),
	})
}
