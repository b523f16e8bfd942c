package session

import (
	"context"

	"github.com/DavidAlphaFox/erlymud/internal/actor"
)

// Peer is the view of a session that a handler may use: enough to link
// against it and to push output at it, nothing more.
type Peer interface {
	Handle() *actor.Handle
	Notify(msg string)
}

// Result is the only state a finished request carries back into its
// session: optional output plus explicit handler-stack operations.
type Result struct {
	Output string
	// Push adds a handler on top of the stack after Pop is applied.
	Push Handler
	// Pop removes the current top handler.
	Pop bool
	// Quit ends the session after Output is written.
	Quit bool
}

// Handler interprets input lines for a session. The session never parses
// input itself; it runs the top handler of its stack against each line in
// a one-shot request actor.
type Handler interface {
	// Prompt is written before each read while this handler is on top.
	Prompt() string
	// HandleLine parses and executes a single line. It may message any
	// actor it likes; stack changes come back through the Result only.
	HandleLine(ctx context.Context, peer Peer, line string) (Result, error)
}
