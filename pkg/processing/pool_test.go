package processing

import (
	"errors"
	"sync"
	"testing"

	customlog "github.com/open-teleop/follower/pkg/log"
	"github.com/open-teleop/follower/pkg/orientation"
)

func TestPoolDeliversInOrderToEveryHandler(t *testing.T) {
	pool := NewProcessingPool("fanout", 16, customlog.NewNopLogger())

	var mu sync.Mutex
	var first, second []uint64
	pool.AddHandler("first", func(u *orientation.Update) error {
		mu.Lock()
		defer mu.Unlock()
		first = append(first, u.Seq)
		return nil
	})
	pool.AddHandler("second", func(u *orientation.Update) error {
		mu.Lock()
		defer mu.Unlock()
		second = append(second, u.Seq)
		return errors.New("subscriber gone")
	})

	pool.Start()
	for seq := uint64(1); seq <= 5; seq++ {
		if !pool.Submit(&orientation.Update{Seq: seq}) {
			t.Fatalf("Submit %d rejected", seq)
		}
	}
	pool.Stop()

	for i, seq := range first {
		if seq != uint64(i+1) {
			t.Errorf("Expected update %d at position %d, got %d", i+1, i, seq)
		}
	}
	if len(first) != 5 || len(second) != 5 {
		t.Errorf("Expected 5 deliveries per handler, got %d and %d", len(first), len(second))
	}

	m := pool.GetMetrics()
	if m.ProcessedCount != 5 || m.ErrorCount != 5 || m.QueuedCount != 5 {
		t.Errorf("Unexpected metrics %+v", m)
	}
}

func TestPoolDropsWhenFull(t *testing.T) {
	pool := NewProcessingPool("fanout", 1, customlog.NewNopLogger())

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	pool.AddHandler("slow", func(u *orientation.Update) error {
		started <- struct{}{}
		<-release
		return nil
	})
	pool.Start()

	pool.Submit(&orientation.Update{Seq: 1})
	<-started
	// Worker is busy with #1, so #2 fills the queue and #3 is dropped
	if !pool.Submit(&orientation.Update{Seq: 2}) {
		t.Errorf("Expected #2 to be queued")
	}
	if pool.Submit(&orientation.Update{Seq: 3}) {
		t.Errorf("Expected #3 to be dropped")
	}
	close(release)
	pool.Stop()

	if m := pool.GetMetrics(); m.DroppedCount != 1 || m.ProcessedCount != 2 {
		t.Errorf("Unexpected metrics %+v", m)
	}
}

func TestPoolRejectsWhenStopped(t *testing.T) {
	pool := NewProcessingPool("fanout", 4, customlog.NewNopLogger())
	if pool.Submit(&orientation.Update{Seq: 1}) {
		t.Errorf("Expected submit before Start to be rejected")
	}
	pool.Start()
	pool.Start()
	pool.Stop()
	pool.Stop()
	if pool.Submit(&orientation.Update{Seq: 2}) {
		t.Errorf("Expected submit after Stop to be rejected")
	}
	if pool.GetName() != "fanout" {
		t.Errorf("Expected name fanout, got %s", pool.GetName())
	}
}
