package game

import (
	"context"
	"fmt"
	"strings"

	"github.com/DavidAlphaFox/erlymud/internal/actor"
	"github.com/DavidAlphaFox/erlymud/internal/world"
)

func normalize(name string) string {
	return strings.ToLower(name)
}

// User is the actor owning an authenticated account for the duration of a
// login. It spawns and fate-shares with its Living, and it holds the user's
// message subscriptions: the private tell subject and the world announce
// subject.
type User struct {
	h       *actor.Handle
	account *Account
	living  *Living
	notify  func(string)
}

// NewUser brings an authenticated account into the world: it creates the
// Living, links the two, places the Living in startRoom, and wires up
// messaging. On any failure everything spawned so far is torn down.
func NewUser(ctx context.Context, account *Account, rooms *world.Manager, broker Broker, notify func(string), startRoom string) (*User, error) {
	u := &User{
		account: account,
		notify:  notify,
	}
	u.living = NewLiving(ctx, account.Name, rooms, notify)

	var subs []func()
	u.h = actor.Spawn(ctx, "user-"+normalize(account.Name), func(ctx context.Context) error {
		<-ctx.Done()
		for _, unsub := range subs {
			unsub()
		}
		u.living.h.Stop()
		return ctx.Err()
	})
	actor.Link(u.h, u.living.h)

	unsubTell, err := broker.Subscribe(PlayerSubject(account.Name), func(data []byte) {
		notify(string(data))
	})
	if err != nil {
		u.h.Kill(fmt.Errorf("subscribing to tells: %w", err))
		return nil, err
	}
	subs = append(subs, unsubTell)

	unsubAnnounce, err := broker.Subscribe(SubjectAnnounce, func(data []byte) {
		notify(string(data))
	})
	if err != nil {
		u.h.Kill(fmt.Errorf("subscribing to announcements: %w", err))
		return nil, err
	}
	subs = append(subs, unsubAnnounce)

	if err := u.living.StartIn(ctx, startRoom); err != nil {
		u.h.Kill(err)
		return nil, err
	}

	return u, nil
}

func (u *User) Handle() *actor.Handle {
	return u.h
}

func (u *User) Name() string {
	return u.account.Name
}

func (u *User) Living() *Living {
	return u.living
}

// Notify delivers a line of output to the user's session.
func (u *User) Notify(msg string) {
	if u.notify != nil {
		u.notify(msg)
	}
}

// Quit tears the user down gracefully: the living departs its room, then
// the user actor stops, which releases subscriptions and lets the registry
// unregister it.
func (u *User) Quit(ctx context.Context) error {
	if err := u.living.Quit(ctx); err != nil {
		return err
	}
	u.h.Stop()
	return nil
}
