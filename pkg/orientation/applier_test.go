package orientation

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	customlog "github.com/open-teleop/follower/pkg/log"
)

type fakeSource struct {
	text string
	seq  uint64
}

func (s *fakeSource) Load() (string, uint64) { return s.text, s.seq }

func (s *fakeSource) publish(text string) {
	s.seq++
	s.text = text
}

type fakeTarget struct {
	rotation  mgl64.Quat
	label     string
	rotations int
	labels    int
}

func (t *fakeTarget) SetRotation(q mgl64.Quat) {
	t.rotation = q
	t.rotations++
}

func (t *fakeTarget) SetLabel(text string) {
	t.label = text
	t.labels++
}

func newTestApplier() (*fakeSource, *fakeTarget, *Applier) {
	src := &fakeSource{}
	tgt := &fakeTarget{rotation: mgl64.QuatIdent()}
	return src, tgt, NewApplier(src, tgt, customlog.NewNopLogger())
}

func TestApplyUnchangedIsNoop(t *testing.T) {
	res, err := Apply("a;1 0 0 0,b", "a;1 0 0 0,b")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if res.Changed || res.Update != nil {
		t.Errorf("Expected no-op result, got %+v", res)
	}
	if res.Processed != "a;1 0 0 0,b" {
		t.Errorf("Expected marker to stay, got %q", res.Processed)
	}

	res, err = Apply("", "")
	if err != nil || res.Changed {
		t.Errorf("Expected initial empty state to be a no-op, got %+v err=%v", res, err)
	}
}

func TestApplyChanged(t *testing.T) {
	res, err := Apply("a;10 20 30 40,b", "")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !res.Changed || res.Processed != "a;10 20 30 40,b" {
		t.Errorf("Expected changed result with new marker, got %+v", res)
	}
	if res.Update == nil {
		t.Fatalf("Expected update")
	}
	assertQuat(t, res.Update.Rotation, -20, 40, 30, 10)
	if res.Update.Label != "w: 10\n x: -20\n y: 30\n z:-40" {
		t.Errorf("Unexpected label %q", res.Update.Label)
	}
}

func TestApplyMalformedAdvancesMarker(t *testing.T) {
	res, err := Apply("garbage", "a;1 0 0 0,b")
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("Expected ErrMalformed, got %v", err)
	}
	if !res.Changed || res.Processed != "garbage" || res.Update != nil {
		t.Errorf("Expected marker to advance without update, got %+v", res)
	}
}

func TestPollSecondPollWithSameValueDoesNothing(t *testing.T) {
	src, tgt, a := newTestApplier()
	src.publish("a;10 20 30 40,b")

	if u, err := a.Poll(); err != nil || u == nil {
		t.Fatalf("Expected first poll to apply, got %v err=%v", u, err)
	}
	if u, err := a.Poll(); err != nil || u != nil {
		t.Errorf("Expected second poll to be a no-op, got %v err=%v", u, err)
	}
	if tgt.rotations != 1 || tgt.labels != 1 {
		t.Errorf("Expected exactly one apply, got %d rotations and %d labels", tgt.rotations, tgt.labels)
	}
}

func TestPollIdenticalSuccessiveMessagesApplyOnce(t *testing.T) {
	src, tgt, a := newTestApplier()

	src.publish("a;1 0 0 0,b")
	a.Poll()
	src.publish("a;1 0 0 0,b")
	a.Poll()

	if tgt.rotations != 1 {
		t.Errorf("Expected one apply for byte-identical messages, got %d", tgt.rotations)
	}
	stats := a.Stats()
	if stats.Polls != 2 || stats.Applied != 1 || stats.Unchanged != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestPollMalformedKeepsLastGood(t *testing.T) {
	src, tgt, a := newTestApplier()

	src.publish("a;10 20 30 40,b")
	a.Poll()
	goodRotation, goodLabel := tgt.rotation, tgt.label

	src.publish("a;1 2 3,b")
	u, err := a.Poll()
	if !errors.Is(err, ErrMalformed) || u != nil {
		t.Fatalf("Expected malformed poll, got %v err=%v", u, err)
	}
	if tgt.rotation != goodRotation || tgt.label != goodLabel {
		t.Errorf("Expected target to keep last good orientation")
	}

	// The bad message is reported once, not on every frame
	if _, err := a.Poll(); err != nil {
		t.Errorf("Expected repeated malformed message to be skipped silently, got %v", err)
	}

	src.publish("a;1 0 0 0,b")
	u, err = a.Poll()
	if err != nil || u == nil {
		t.Fatalf("Expected recovery on next well-formed message, got %v err=%v", u, err)
	}
	assertQuat(t, tgt.rotation, 0, 0, 0, 1)
	if tgt.label != "w: 1\n x: -0\n y: 0\n z:-0" {
		t.Errorf("Unexpected label %q", tgt.label)
	}

	stats := a.Stats()
	if stats.Malformed != 1 || stats.Applied != 2 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestPollStampsSequence(t *testing.T) {
	src, _, a := newTestApplier()
	src.publish("a;1 0 0 0,b")
	src.publish("a;0 1 0 0,b")

	u, err := a.Poll()
	if err != nil || u == nil {
		t.Fatalf("Expected update, got %v err=%v", u, err)
	}
	if u.Seq != 2 {
		t.Errorf("Expected seq 2 (intermediate message skipped), got %d", u.Seq)
	}
	if u.Time.IsZero() {
		t.Errorf("Expected update time to be set")
	}
	if a.Processed() != "a;0 1 0 0,b" {
		t.Errorf("Unexpected processed marker %q", a.Processed())
	}
}
