package session

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/DavidAlphaFox/erlymud/internal/actor"
)

// Connection owns one player's raw stream: a reader actor that decodes
// newline-delimited input into a channel, and a serialized writer. Protocol
// negotiation (telnet options, ssh channels) happens before the stream gets
// here.
type Connection struct {
	h     *actor.Handle
	lines chan string

	mu sync.Mutex
	rw io.ReadWriter
}

func NewConnection(ctx context.Context, rw io.ReadWriter) *Connection {
	c := &Connection{
		rw:    rw,
		lines: make(chan string, 8),
	}

	c.h = actor.Spawn(ctx, "connection", func(ctx context.Context) error {
		defer close(c.lines)

		scanner := bufio.NewScanner(rw)
		for scanner.Scan() {
			select {
			case c.lines <- scanner.Text():
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		// nil on a clean EOF: the player hung up.
		return scanner.Err()
	})

	return c
}

func (c *Connection) Handle() *actor.Handle {
	return c.h
}

// Lines returns the decoded input stream. The channel closes when the
// connection is gone.
func (c *Connection) Lines() <-chan string {
	return c.lines
}

// Write sends raw text to the player.
func (c *Connection) Write(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = c.rw.Write([]byte(msg))
}

// WriteLine sends one line of output to the player.
func (c *Connection) WriteLine(msg string) {
	c.Write(msg + "\n")
}
