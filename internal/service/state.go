package service

import (
	"errors"
	"sync"
)

// State is the submit state of a client. Surfaces render the disabled form
// and the processing indicator from it.
type State int

const (
	StateReady State = iota
	StateAwaitingResponse
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateAwaitingResponse:
		return "awaiting_response"
	default:
		return "unknown"
	}
}

var ErrBusy = errors.New("a query is already awaiting its response")

// SubmitMachine is the two-state machine Ready <-> AwaitingResponse. Begin
// only succeeds from Ready, so at most one query is in flight.
type SubmitMachine struct {
	mu    sync.Mutex
	state State
}

func (m *SubmitMachine) Begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateReady {
		return ErrBusy
	}
	m.state = StateAwaitingResponse
	return nil
}

func (m *SubmitMachine) End() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = StateReady
}

func (m *SubmitMachine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}
