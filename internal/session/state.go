package session

import (
	"fmt"
	"sync"
)

// State is a capture session state.
type State int

const (
	Idle State = iota
	Capturing
	AwaitingLocatorChoice
	AwaitingActionChoice
	AwaitingWaitChoice
	AwaitingModifierChoices
	Synthesizing
	Persisting
	Stopped
)

var stateNames = [...]string{
	Idle:                    "idle",
	Capturing:               "capturing",
	AwaitingLocatorChoice:   "awaiting-locator",
	AwaitingActionChoice:    "awaiting-action",
	AwaitingWaitChoice:      "awaiting-wait",
	AwaitingModifierChoices: "awaiting-modifiers",
	Synthesizing:            "synthesizing",
	Persisting:              "persisting",
	Stopped:                 "stopped",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s State) bool {
	return s == Stopped
}

// IsAwaiting reports whether s waits on a user choice.
func IsAwaiting(s State) bool {
	switch s {
	case AwaitingLocatorChoice, AwaitingActionChoice, AwaitingWaitChoice, AwaitingModifierChoices:
		return true
	default:
		return false
	}
}

func isAllowedTransition(from, to State) bool {
	if IsTerminal(from) {
		return false
	}
	// Stop is honoured from every state except Persisting, which finishes first.
	if to == Stopped {
		return from != Persisting
	}
	switch from {
	case Idle:
		return to == Capturing
	case Capturing:
		return to == AwaitingLocatorChoice || to == Idle
	case AwaitingLocatorChoice:
		return to == AwaitingActionChoice || to == Idle
	case AwaitingActionChoice:
		return to == AwaitingWaitChoice || to == Idle
	case AwaitingWaitChoice:
		return to == AwaitingModifierChoices || to == Idle
	case AwaitingModifierChoices:
		return to == Synthesizing || to == Idle
	case Synthesizing:
		return to == Persisting || to == AwaitingModifierChoices || to == Idle
	case Persisting:
		return to == Idle
	default:
		return false
	}
}

// machine holds the current state. Transitions name the expected prior state
// so an out-of-order caller fails instead of silently overwriting.
type machine struct {
	mu    sync.Mutex
	state State
}

func (m *machine) current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *machine) transition(from, to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != from {
		return fmt.Errorf("invalid transition: expected %s, got %s", from, m.state)
	}
	if !isAllowedTransition(from, to) {
		return fmt.Errorf("disallowed transition: %s -> %s", from, to)
	}
	m.state = to
	return nil
}

// reset returns to Idle from wherever the cycle stopped.
func (m *machine) reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Idle {
		return nil
	}
	if !isAllowedTransition(m.state, Idle) {
		return fmt.Errorf("disallowed transition: %s -> %s", m.state, Idle)
	}
	m.state = Idle
	return nil
}

func (m *machine) stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Stopped
}
