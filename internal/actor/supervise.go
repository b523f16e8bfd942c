package actor

import "fmt"

// ExitPolicy selects what a supervising actor does when a watched dependent
// terminates abnormally.
type ExitPolicy int

const (
	// PolicyPropagate kills the supervisor with the dependent's cause.
	PolicyPropagate ExitPolicy = iota
	// PolicyAbsorb converts the termination into a state-cleanup callback
	// on the supervisor; the supervisor keeps running.
	PolicyAbsorb
)

// Supervise records a supervision relationship from h to child. Under
// PolicyPropagate an abnormal child exit kills h. Under PolicyAbsorb the
// absorb callback is invoked with the child's exit cause (which may be nil
// for a normal exit, so absorb callbacks must tolerate redundant cleanup).
func (h *Handle) Supervise(child *Handle, policy ExitPolicy, absorb func(cause error)) {
	child.Watch(func(cause error) {
		switch policy {
		case PolicyAbsorb:
			if absorb != nil {
				absorb(cause)
			}
		case PolicyPropagate:
			if cause != nil {
				h.Kill(fmt.Errorf("linked actor %s crashed: %w", child.Name(), cause))
			}
		}
	})
}

// Link establishes mutual fate-sharing between two actors: the abnormal
// termination of either kills the other. Normal exits do not propagate.
func Link(a, b *Handle) {
	a.Supervise(b, PolicyPropagate, nil)
	b.Supervise(a, PolicyPropagate, nil)
}
