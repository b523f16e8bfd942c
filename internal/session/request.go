package session

import (
	"context"

	"github.com/google/uuid"

	"github.com/DavidAlphaFox/erlymud/internal/actor"
)

// request is the transient one-shot actor that executes a single input
// line against a handler and terminates. Its result is only read after its
// handle reports completion; a request killed by the watchdog never has
// its result read.
type request struct {
	h   *actor.Handle
	res Result
}

func newRequest(ctx context.Context, h Handler, peer Peer, line string) *request {
	r := &request{}
	r.h = actor.Spawn(ctx, "request-"+uuid.NewString()[:8], func(ctx context.Context) error {
		res, err := h.HandleLine(ctx, peer, line)
		if err != nil {
			return err
		}
		r.res = res
		return nil
	})
	return r
}
