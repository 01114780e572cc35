package store

import (
	"sync"

	"github.com/yukikurage/oppuss/internal/metrics"
)

// MutationState is the lifecycle of one optimistic change.
type MutationState int

const (
	// Pending: applied locally, gateway call in flight.
	Pending MutationState = iota
	// Confirmed: the gateway accepted the change.
	Confirmed
	// RolledBack: the gateway rejected the change and the prior state was restored.
	RolledBack
)

func (s MutationState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Confirmed:
		return "confirmed"
	case RolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// Observer is told about every mutation state transition.
type Observer func(store, op string, state MutationState)

// MetricsObserver counts transitions in m.
func MetricsObserver(m *metrics.Metrics) Observer {
	return func(store, _ string, state MutationState) {
		m.StoreMutation(store, state.String())
	}
}

// Mutation is one optimistic change. While pending it holds the closure that
// restores the state it replaced; Confirm and Rollback are terminal and only
// the first of them has any effect.
type Mutation struct {
	Store string
	Op    string

	mu       sync.Mutex
	state    MutationState
	revert   func()
	observer Observer
}

func newMutation(store, op string, observer Observer, revert func()) *Mutation {
	m := &Mutation{
		Store:    store,
		Op:       op,
		state:    Pending,
		revert:   revert,
		observer: observer,
	}
	m.emit(Pending)
	return m
}

func (m *Mutation) State() MutationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mutation) Confirm() {
	if m.transition(Confirmed) {
		m.emit(Confirmed)
	}
}

// Rollback runs the revert closure and marks the mutation rolled back.
func (m *Mutation) Rollback() {
	m.mu.Lock()
	if m.state != Pending {
		m.mu.Unlock()
		return
	}
	m.state = RolledBack
	revert := m.revert
	m.revert = nil
	m.mu.Unlock()

	if revert != nil {
		revert()
	}
	m.emit(RolledBack)
}

func (m *Mutation) transition(to MutationState) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Pending {
		return false
	}
	m.state = to
	m.revert = nil
	return true
}

func (m *Mutation) emit(state MutationState) {
	if m.observer != nil {
		m.observer(m.Store, m.Op, state)
	}
}
