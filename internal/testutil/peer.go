package testutil

import (
	"fmt"
	"sync"

	"github.com/mcoot/lightsduel/internal/protocol"
)

// Sent is one message captured by a RecordingPeer
type Sent struct {
	Action  protocol.Action
	Payload any
}

// RecordingPeer is an in-memory connection that records every message sent to it.
// Each payload is run through the wire encoder so unencodable payloads fail the send.
type RecordingPeer struct {
	id string

	mu      sync.Mutex
	sent    []Sent
	sendErr error
}

// NewRecordingPeer creates a RecordingPeer with the given connection id
func NewRecordingPeer(id string) *RecordingPeer {
	return &RecordingPeer{id: id}
}

// ID returns the connection id
func (p *RecordingPeer) ID() string {
	return p.id
}

// Send records the message
func (p *RecordingPeer) Send(action protocol.Action, payload any) error {
	if _, err := protocol.Encode(action, payload); err != nil {
		return fmt.Errorf("recording peer %s: %w", p.id, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sendErr != nil {
		return p.sendErr
	}
	p.sent = append(p.sent, Sent{Action: action, Payload: payload})
	return nil
}

// FailSends makes every following Send return err
func (p *RecordingPeer) FailSends(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sendErr = err
}

// Messages returns a copy of everything sent so far
func (p *RecordingPeer) Messages() []Sent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Sent(nil), p.sent...)
}

// Actions returns the action of every message sent so far
func (p *RecordingPeer) Actions() []protocol.Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	actions := make([]protocol.Action, len(p.sent))
	for i, m := range p.sent {
		actions[i] = m.Action
	}
	return actions
}

// Last returns the most recent message
func (p *RecordingPeer) Last() (Sent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sent) == 0 {
		return Sent{}, false
	}
	return p.sent[len(p.sent)-1], true
}

// Reset discards recorded messages
func (p *RecordingPeer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = nil
}
