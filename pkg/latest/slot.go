// Package latest provides a single-slot exchange where the newest value
// overwrites the previous one.
package latest

import "sync/atomic"

type entry struct {
	text string
	seq  uint64
}

// Slot holds the most recently published message.
// Publish and Load may be called from different goroutines.
type Slot struct {
	cur atomic.Pointer[entry]
}

// NewSlot returns a slot holding the empty string at sequence 0
func NewSlot() *Slot {
	s := &Slot{}
	s.cur.Store(&entry{})
	return s
}

// Publish replaces the held value and returns its sequence number.
// Only one goroutine is expected to publish.
func (s *Slot) Publish(text string) uint64 {
	seq := s.Seq() + 1
	s.cur.Store(&entry{text: text, seq: seq})
	return seq
}

// Load returns the held value and the sequence number of the write that produced it
func (s *Slot) Load() (string, uint64) {
	e := s.cur.Load()
	if e == nil {
		return "", 0
	}
	return e.text, e.seq
}

// Seq returns the sequence number of the latest write
func (s *Slot) Seq() uint64 {
	e := s.cur.Load()
	if e == nil {
		return 0
	}
	return e.seq
}
