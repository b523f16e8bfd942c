package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/DavidAlphaFox/erlymud/internal/actor"
	"github.com/DavidAlphaFox/erlymud/internal/game"
)

// DefaultRequestTimeout bounds how long a single command may run before the
// watchdog gives up on it.
const DefaultRequestTimeout = 30 * time.Second

var (
	ErrConnectionLost = errors.New("connection lost")
	ErrRequestTimeout = errors.New("request timed out")
)

// Session drives one player's input loop. It holds a stack of handlers —
// top of stack is the active interpreter — and runs each input line in a
// fresh one-shot request actor, waiting for that request to terminate
// before reading the next line. Commands from one session are therefore
// never reordered and never run concurrently.
//
// The session fate-shares with its connection: if either dies abnormally
// the other is killed too. A stuck request does not kill the session; the
// watchdog kills the request and the session resumes.
type Session struct {
	h       *actor.Handle
	conn    *Connection
	stack   []Handler // owned by the session goroutine
	timeout time.Duration
}

type Opt func(*Session)

// WithRequestTimeout overrides the watchdog timeout for stuck requests.
func WithRequestTimeout(d time.Duration) Opt {
	return func(s *Session) {
		s.timeout = d
	}
}

// NewSession spawns the session actor over conn with root as the initial
// handler (typically the login interpreter).
func NewSession(ctx context.Context, conn *Connection, root Handler, opts ...Opt) *Session {
	s := &Session{
		conn:    conn,
		stack:   []Handler{root},
		timeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.h = actor.Spawn(ctx, "session", s.run)
	actor.Link(conn.Handle(), s.h)

	return s
}

func (s *Session) Handle() *actor.Handle {
	return s.h
}

// Notify writes an out-of-band line to the player: room events, tells,
// announcements. Safe to call from any goroutine.
func (s *Session) Notify(msg string) {
	s.conn.WriteLine(msg)
}

func (s *Session) run(ctx context.Context) error {
	for len(s.stack) > 0 {
		s.conn.Write(s.top().Prompt())

		select {
		case <-ctx.Done():
			return ctx.Err()

		case line, ok := <-s.conn.Lines():
			if !ok {
				// The socket is gone. Abnormal by design: the rest of the
				// chain (user, living) is torn down through the links.
				return ErrConnectionLost
			}
			quit, err := s.dispatch(ctx, line)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		}
	}
	return nil
}

func (s *Session) top() Handler {
	return s.stack[len(s.stack)-1]
}

// dispatch runs one line through a one-shot request actor and applies the
// resulting stack operations.
func (s *Session) dispatch(ctx context.Context, line string) (quit bool, err error) {
	req := newRequest(ctx, s.top(), s, line)

	watchdog := time.NewTimer(s.timeout)
	defer watchdog.Stop()

	select {
	case <-ctx.Done():
		req.h.Kill(ctx.Err())
		return false, ctx.Err()

	case <-watchdog.C:
		// Do not wait for the kill to land: a request stuck in code that
		// ignores its context would starve the session forever.
		req.h.Kill(ErrRequestTimeout)
		slog.WarnContext(ctx, "request watchdog fired", "request", req.h.Name(), "line", line)
		s.conn.WriteLine("Command aborted.")
		return false, nil

	case <-req.h.Done():
	}

	if cause := req.h.Cause(); cause != nil {
		var userErr *game.UserError
		if errors.As(cause, &userErr) {
			s.conn.WriteLine(userErr.Message)
			return false, nil
		}
		// A crashed request is absorbed: log it, tell the player something
		// went wrong, keep the session alive.
		slog.WarnContext(ctx, "request failed", "request", req.h.Name(), "cause", cause)
		s.conn.WriteLine("Something went wrong.")
		return false, nil
	}

	res := req.res
	if res.Output != "" {
		s.conn.WriteLine(res.Output)
	}
	if res.Pop {
		s.stack = s.stack[:len(s.stack)-1]
	}
	if res.Push != nil {
		s.stack = append(s.stack, res.Push)
	}
	return res.Quit, nil
}
