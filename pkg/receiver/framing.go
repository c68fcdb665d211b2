package receiver

import (
	"bytes"
	"fmt"

	"github.com/open-teleop/follower/pkg/config"
)

// Framer turns raw socket reads into messages
type Framer interface {
	// Feed consumes one read and returns the messages it completed
	Feed(chunk []byte) []string
	// Reset discards any partial message, called on every new connection
	Reset()
	// Dropped reports how many partial messages were discarded for size
	Dropped() int64
}

// NewFramer builds the framer for a framing mode
func NewFramer(mode, delimiter string, maxFrameSize int) (Framer, error) {
	switch mode {
	case config.FramingRaw:
		return &rawFramer{}, nil
	case config.FramingDelimited:
		if delimiter == "" {
			return nil, fmt.Errorf("delimited framing needs a delimiter")
		}
		return &delimitedFramer{delim: []byte(delimiter), max: maxFrameSize}, nil
	default:
		return nil, fmt.Errorf("unknown framing mode: %s", mode)
	}
}

// rawFramer publishes every read as one message, whatever its content
type rawFramer struct{}

func (f *rawFramer) Feed(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}
	return []string{decodeASCII(chunk)}
}

func (f *rawFramer) Reset()         {}
func (f *rawFramer) Dropped() int64 { return 0 }

// delimitedFramer accumulates bytes and cuts a message at each delimiter.
// Empty messages are skipped. A message that outgrows max is dropped whole:
// everything up to and including its delimiter is discarded.
type delimitedFramer struct {
	delim      []byte
	max        int
	pending    []byte
	discarding bool
	dropped    int64
}

func (f *delimitedFramer) Feed(chunk []byte) []string {
	if f.discarding {
		// pending holds at most len(delim)-1 bytes here, in case the
		// delimiter straddles two reads
		buf := append(f.pending, chunk...)
		i := bytes.Index(buf, f.delim)
		if i < 0 {
			if k := len(f.delim) - 1; len(buf) > k {
				buf = buf[len(buf)-k:]
			}
			f.pending = append([]byte(nil), buf...)
			return nil
		}
		chunk = buf[i+len(f.delim):]
		f.pending = nil
		f.discarding = false
	}

	f.pending = append(f.pending, chunk...)

	var out []string
	for {
		i := bytes.Index(f.pending, f.delim)
		if i < 0 {
			break
		}
		if i > 0 {
			out = append(out, decodeASCII(f.pending[:i]))
		}
		f.pending = f.pending[i+len(f.delim):]
	}

	if f.max > 0 && len(f.pending) > f.max {
		f.dropped++
		f.pending = nil
		f.discarding = true
	}
	if len(f.pending) == 0 {
		f.pending = nil
	}
	return out
}

func (f *delimitedFramer) Reset() {
	f.pending = nil
	f.discarding = false
}

func (f *delimitedFramer) Dropped() int64 {
	return f.dropped
}

// decodeASCII maps every byte above 0x7F to '?'
func decodeASCII(b []byte) string {
	clean := true
	for _, c := range b {
		if c >= 0x80 {
			clean = false
			break
		}
	}
	if clean {
		return string(b)
	}

	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 0x80 {
			c = '?'
		}
		out[i] = c
	}
	return string(out)
}
