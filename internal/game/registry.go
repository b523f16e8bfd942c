package game

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/DavidAlphaFox/erlymud/internal/display"
)

// Registry is the process-wide table of logged-on users. It is constructed
// once at startup and handed to every component that needs it; there is no
// ambient global.
//
// The registry supervises its users with an absorb policy: a User actor's
// death — graceful or crash — is converted into unregistration and a
// logout announcement, never into the registry's own failure. A registered
// entry therefore always names a live User, up to the instant its death
// signal is processed.
type Registry struct {
	mu    sync.Mutex
	users map[string]*User
	pub   Publisher
}

func NewRegistry(pub Publisher) *Registry {
	return &Registry{
		users: make(map[string]*User),
		pub:   pub,
	}
}

// Register adds a user to the who-is-online table. A name that is already
// registered to a live user is rejected; a stale entry for a dead user is
// overwritten.
func (g *Registry) Register(u *User) error {
	key := normalize(u.Name())

	g.mu.Lock()
	if existing, ok := g.users[key]; ok && existing.Handle().Alive() {
		g.mu.Unlock()
		return fmt.Errorf("user %q: %w", u.Name(), ErrUserExists)
	}
	g.users[key] = u
	g.mu.Unlock()

	u.Handle().Watch(func(cause error) {
		g.unregister(key, u)
		if cause != nil {
			slog.Warn("user terminated abnormally", "user", u.Name(), "cause", cause)
		}
		g.Announce(display.Message("logout", u.Name(), ""))
	})

	g.Announce(display.Message("login", u.Name(), ""))
	return nil
}

// unregister removes the entry for key, but only if it still names u: a
// late death signal must not evict a fresh login under the same name.
func (g *Registry) unregister(key string, u *User) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.users[key] == u {
		delete(g.users, key)
	}
}

// Lookup returns the live user registered under name.
func (g *Registry) Lookup(name string) (*User, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	u, ok := g.users[normalize(name)]
	if !ok || !u.Handle().Alive() {
		return nil, false
	}
	return u, true
}

// Who returns the names of everyone online, sorted.
func (g *Registry) Who() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	names := make([]string, 0, len(g.users))
	for _, u := range g.users {
		if u.Handle().Alive() {
			names = append(names, u.Name())
		}
	}
	sort.Strings(names)
	return names
}

// Announce publishes a world-wide notice to every subscribed user.
func (g *Registry) Announce(msg string) {
	if g.pub == nil {
		return
	}
	if err := g.pub.Publish(SubjectAnnounce, []byte(msg)); err != nil {
		slog.Warn("failed to publish announcement", "error", err)
	}
}
