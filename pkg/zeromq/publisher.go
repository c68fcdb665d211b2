// Package zeromq fans applied orientations out to other processes over a
// ZeroMQ PUB socket.
package zeromq

import (
	"errors"
	"fmt"
	"sync"

	customlog "github.com/open-teleop/follower/pkg/log"
	"github.com/open-teleop/follower/pkg/orientation"
	"github.com/pebbe/zmq4"
)

// Common errors
var (
	ErrPublisherClosed = errors.New("zeromq publisher is closed")
	ErrInvalidMessage  = errors.New("invalid message format")
)

// Publisher sends every applied orientation on a PUB socket as two frames:
// the topic, then an Orientation flatbuffer.
type Publisher struct {
	socket  *zmq4.Socket
	address string
	topic   string
	logger  customlog.Logger
	running bool
	sent    int64
	mu      sync.Mutex
}

// NewPublisher creates a PUB socket bound to bindAddress
func NewPublisher(bindAddress, topic string, logger customlog.Logger) (*Publisher, error) {
	if topic == "" {
		return nil, fmt.Errorf("publisher topic cannot be empty")
	}

	socket, err := zmq4.NewSocket(zmq4.PUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}

	// Pending messages are dropped on close
	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	if err := socket.Bind(bindAddress); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", bindAddress, err)
	}

	logger.Infof("Orientation publisher bound to %s (topic=%s)", bindAddress, topic)

	return &Publisher{
		socket:  socket,
		address: bindAddress,
		topic:   topic,
		logger:  logger,
		running: true,
	}, nil
}

// PublishMessage sends a message with the given topic
func (p *Publisher) PublishMessage(topic string, message []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return ErrPublisherClosed
	}

	if _, err := p.socket.Send(topic, zmq4.SNDMORE); err != nil {
		return fmt.Errorf("failed to send topic: %w", err)
	}
	if _, err := p.socket.SendBytes(message, 0); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	p.sent++
	return nil
}

// PublishUpdate encodes u and sends it on the configured topic
func (p *Publisher) PublishUpdate(u *orientation.Update) error {
	return p.PublishMessage(p.topic, EncodeOrientation(u))
}

// Sent returns how many messages went out
func (p *Publisher) Sent() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sent
}

// Close releases the socket. Later publishes return ErrPublisherClosed.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.running = false
	if p.socket != nil {
		p.socket.Close()
		p.socket = nil
	}
	p.logger.Infof("Orientation publisher on %s closed after %d messages", p.address, p.sent)
}
