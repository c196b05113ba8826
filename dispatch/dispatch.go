// Package dispatch provides the deferred work context: a single consumer
// goroutine that runs the FSM-update-and-output step outside the edge
// handlers, serializing every mutation of shared state.
package dispatch

import "context"

// Dispatcher coalesces triggers into at most one pending run. However many
// times Kick fires before the previous run completes, the step function
// executes at most once more.
type Dispatcher struct {
	step  func()
	kickC chan struct{}
	done  chan struct{}
}

func New(step func()) *Dispatcher {
	return &Dispatcher{
		step:  step,
		kickC: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Kick requests a run. It never blocks; a request arriving while one is
// already pending is coalesced into it.
func (d *Dispatcher) Kick() {
	select {
	case d.kickC <- struct{}{}:
	default:
	}
}

// Start launches the consumer. The loop exits when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	go func() {
		defer close(d.done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-d.kickC:
				d.step()
			}
		}
	}()
}

// Wait blocks until the consumer goroutine has exited. Cancel the Start
// context first; teardown is cancel-and-wait, never fire-and-forget.
func (d *Dispatcher) Wait() {
	<-d.done
}
