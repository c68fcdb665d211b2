package orientation

import (
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	customlog "github.com/open-teleop/follower/pkg/log"
)

// Update is what one successful poll applies to the target
type Update struct {
	Movement Movement   `json:"movement"`
	Rotation mgl64.Quat `json:"rotation"`
	Label    string     `json:"label"`
	Seq      uint64     `json:"seq"`
	Time     time.Time  `json:"time"`
}

// Result describes one Apply step.
// Processed is the marker to pass as last on the next step.
type Result struct {
	Changed   bool
	Processed string
	Update    *Update
}

// Apply is the per-frame step with no side effects.
// When current equals last nothing happens. Otherwise current becomes the new
// marker even if it fails to parse, so a bad message is reported once.
func Apply(current, last string) (Result, error) {
	if current == last {
		return Result{Processed: last}, nil
	}

	res := Result{Changed: true, Processed: current}
	m, err := ParseMovement(current)
	if err != nil {
		return res, err
	}
	res.Update = &Update{
		Movement: m,
		Rotation: m.Rotation(),
		Label:    m.Label(),
	}
	return res, nil
}

// Source yields the latest received message and its sequence number
type Source interface {
	Load() (string, uint64)
}

// Target receives applied orientations
type Target interface {
	SetRotation(q mgl64.Quat)
	SetLabel(text string)
}

// ApplierStats counts poll outcomes
type ApplierStats struct {
	Polls     int64 `json:"polls"`
	Applied   int64 `json:"applied"`
	Malformed int64 `json:"malformed"`
	Unchanged int64 `json:"unchanged"`
}

// Applier polls a Source once per frame and snaps the Target to each new orientation.
// Poll must be called from a single goroutine.
type Applier struct {
	source    Source
	target    Target
	logger    customlog.Logger
	processed string

	polls     atomic.Int64
	applied   atomic.Int64
	malformed atomic.Int64
	unchanged atomic.Int64
}

// NewApplier creates an Applier with an empty processed marker
func NewApplier(source Source, target Target, logger customlog.Logger) *Applier {
	return &Applier{
		source: source,
		target: target,
		logger: logger,
	}
}

// Poll runs one frame. It returns the applied update, or nil when the message
// was unchanged or malformed. Malformed messages are logged and the error is
// returned for callers that want it; the target keeps its last good value.
func (a *Applier) Poll() (*Update, error) {
	a.polls.Add(1)
	current, seq := a.source.Load()

	res, err := Apply(current, a.processed)
	a.processed = res.Processed
	if err != nil {
		a.malformed.Add(1)
		a.logger.Warnf("Skipping orientation message #%d: %v", seq, err)
		return nil, err
	}
	if !res.Changed {
		a.unchanged.Add(1)
		return nil, nil
	}

	u := res.Update
	u.Seq = seq
	u.Time = time.Now()
	a.target.SetRotation(u.Rotation)
	a.target.SetLabel(u.Label)
	a.applied.Add(1)
	a.logger.Debugf("Applied orientation #%d: w=%v x=%v y=%v z=%v", seq, u.Movement.W, u.Movement.X, u.Movement.Y, u.Movement.Z)
	return u, nil
}

// Processed returns the last message the applier consumed
func (a *Applier) Processed() string {
	return a.processed
}

// Stats returns a copy of the poll counters
func (a *Applier) Stats() ApplierStats {
	return ApplierStats{
		Polls:     a.polls.Load(),
		Applied:   a.applied.Load(),
		Malformed: a.malformed.Load(),
		Unchanged: a.unchanged.Load(),
	}
}
