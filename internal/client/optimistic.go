// AngelaMos | 2026
// optimistic.go

package client

import (
	"context"
	"sync"
)

type State string

const (
	StateIdle       State = "idle"
	StatePending    State = "pending"
	StateCommitted  State = "committed"
	StateRolledBack State = "rolled_back"
)

// Optimistic holds a value that is shown tentatively while a mutation is in
// flight, then either committed from the server's answer or rolled back.
type Optimistic[T any] struct {
	mu        sync.Mutex
	committed T
	shown     T
	state     State
	ticket    uint64
	settled   uint64
}

func NewOptimistic[T any](initial T) *Optimistic[T] {
	return &Optimistic[T]{
		committed: initial,
		shown:     initial,
		state:     StateIdle,
	}
}

// View returns the value to display and the transition state.
func (o *Optimistic[T]) View() (T, State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.shown, o.state
}

// Apply shows project(shown) while send runs. A failed send restores
// the committed value. Results older than one already settled are dropped,
// and only the newest Apply changes what is displayed.
func (o *Optimistic[T]) Apply(
	ctx context.Context,
	project func(T) T,
	send func(ctx context.Context) (T, error),
) (T, error) {
	o.mu.Lock()
	o.ticket++
	ticket := o.ticket
	o.shown = project(o.shown)
	o.state = StatePending
	o.mu.Unlock()

	result, err := send(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()

	latest := ticket == o.ticket

	if err != nil {
		if latest {
			o.shown = o.committed
			o.state = StateRolledBack
		}
		return o.committed, err
	}

	if ticket < o.settled {
		return o.committed, nil
	}

	o.committed = result
	o.settled = ticket
	if latest {
		o.shown = result
		o.state = StateCommitted
	}
	return result, nil
}

// Tally is a post's vote counters together with the caller's own vote.
type Tally struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
	Vote      int `json:"vote"`
}

// ProjectVote returns t as it will look once the caller's vote becomes next.
func ProjectVote(t Tally, next int) Tally {
	switch t.Vote {
	case 1:
		t.Upvotes--
	case -1:
		t.Downvotes--
	}
	switch next {
	case 1:
		t.Upvotes++
	case -1:
		t.Downvotes++
	}
	t.Vote = next
	return t
}
