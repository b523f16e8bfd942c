package listener

import (
	"context"
	"io"
	"log/slog"

	"github.com/DavidAlphaFox/erlymud/internal/player"
	"github.com/DavidAlphaFox/erlymud/internal/session"
)

// ConnectionManager turns an accepted network stream into the actor chain
// for one player: a connection actor, a session actor seeded with the
// login handler, and whatever the login handler spawns from there.
type ConnectionManager struct {
	deps player.Deps
	opts []session.Opt
}

func NewConnectionManager(deps player.Deps, opts ...session.Opt) *ConnectionManager {
	return &ConnectionManager{
		deps: deps,
		opts: opts,
	}
}

// AcceptConnection blocks until the player's session is over.
func (m *ConnectionManager) AcceptConnection(ctx context.Context, rw io.ReadWriter) {
	conn := session.NewConnection(ctx, rw)
	conn.WriteLine("Welcome to ErlyMUD!")

	sess := session.NewSession(ctx, conn, player.NewLoginHandler(m.deps), m.opts...)

	select {
	case <-ctx.Done():
	case <-sess.Handle().Done():
		if cause := sess.Handle().Cause(); cause != nil {
			slog.InfoContext(ctx, "session ended", "cause", cause)
		}
	}
}
