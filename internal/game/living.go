package game

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/DavidAlphaFox/erlymud/internal/actor"
	"github.com/DavidAlphaFox/erlymud/internal/display"
	"github.com/DavidAlphaFox/erlymud/internal/world"
)

// opposites maps a movement direction to the direction an observer in the
// destination room sees the mover arrive from.
var opposites = map[string]string{
	"north": "south",
	"south": "north",
	"east":  "west",
	"west":  "east",
	"up":    "below",
	"down":  "above",
}

// Living is a user's in-game incarnation. It owns the transient game state:
// current room and carried inventory. The living's actor mostly idles; its
// handle is what rooms supervise and what the user links against, so
// killing it exercises the crash-containment paths.
type Living struct {
	h      *actor.Handle
	name   string
	rooms  *world.Manager
	notify func(string)

	mu        sync.Mutex
	room      *world.Room
	inventory []world.Object
}

func NewLiving(ctx context.Context, name string, rooms *world.Manager, notify func(string)) *Living {
	l := &Living{
		name:   name,
		rooms:  rooms,
		notify: notify,
	}
	l.h = actor.Spawn(ctx, "living-"+normalize(name), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	return l
}

func (l *Living) Handle() *actor.Handle {
	return l.h
}

func (l *Living) Name() string {
	return l.name
}

// Notify satisfies world.Occupant. Delivery goes to the player's
// connection; a slow or gone connection must not block a room actor.
func (l *Living) Notify(msg string) {
	if l.notify != nil {
		l.notify(msg)
	}
}

// Room returns the living's current room, which may be nil before the
// living has entered the world.
func (l *Living) Room() *world.Room {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.room
}

func (l *Living) setRoom(r *world.Room) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.room = r
}

// StartIn places the living in its first room.
func (l *Living) StartIn(ctx context.Context, roomId string) error {
	r, err := l.rooms.GetRoom(ctx, roomId)
	if err != nil {
		return fmt.Errorf("entering start room %q: %w", roomId, err)
	}
	if err := r.Enter(ctx, l, ""); err != nil {
		return err
	}
	l.setRoom(r)
	return nil
}

// MoveTo walks the living through the exit in the given direction. A
// missing exit, and a destination room that does not exist, are
// player-visible failures, not system errors.
func (l *Living) MoveTo(ctx context.Context, dir string) (string, error) {
	cur := l.Room()
	if cur == nil {
		return "", NewUserError("You are nowhere.")
	}

	dest, ok, err := cur.ExitTo(ctx, dir)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", NewUserError("You can't go that way.")
	}

	next, err := l.rooms.GetRoom(ctx, dest)
	if errors.Is(err, world.ErrRoomNotFound) {
		return "", NewUserError(fmt.Sprintf("You head %s, but there is no room there.", dir))
	}
	if err != nil {
		return "", err
	}

	if err := cur.Leave(ctx, l, dir); err != nil {
		return "", err
	}
	if err := next.Enter(ctx, l, opposites[dir]); err != nil {
		return "", err
	}
	l.setRoom(next)

	return next.Look(ctx, l)
}

// Look renders the current room.
func (l *Living) Look(ctx context.Context) (string, error) {
	cur := l.Room()
	if cur == nil {
		return "", NewUserError("You are nowhere.")
	}
	return cur.Look(ctx, l)
}

// Say relays speech to everyone else in the room.
func (l *Living) Say(ctx context.Context, text string) (string, error) {
	cur := l.Room()
	if cur == nil {
		return "", NewUserError("There is nobody to hear you.")
	}
	err := cur.Broadcast(ctx, l, display.Message("say", l.name, text))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("You say, %q", text), nil
}

// Emote relays a free-form action to everyone else in the room.
func (l *Living) Emote(ctx context.Context, text string) (string, error) {
	cur := l.Room()
	if cur == nil {
		return "", NewUserError("There is nobody to see you.")
	}
	msg := display.Message("emote", l.name, text)
	if err := cur.Broadcast(ctx, l, msg); err != nil {
		return "", err
	}
	return msg, nil
}

// Take picks up a non-attached object from the current room.
func (l *Living) Take(ctx context.Context, name string) (string, error) {
	cur := l.Room()
	if cur == nil {
		return "", NewUserError("There is nothing here.")
	}

	obj, err := cur.Take(ctx, name)
	switch {
	case errors.Is(err, world.ErrObjectNotFound):
		return "", NewUserError(fmt.Sprintf("There is no %s here.", name))
	case errors.Is(err, world.ErrObjectFixed):
		return "", NewUserError(fmt.Sprintf("You can't take the %s.", name))
	case err != nil:
		return "", err
	}

	l.mu.Lock()
	l.inventory = append(l.inventory, obj)
	l.mu.Unlock()

	return fmt.Sprintf("You take the %s.", obj.Name), nil
}

// Drop puts a carried object down in the current room.
func (l *Living) Drop(ctx context.Context, name string) (string, error) {
	cur := l.Room()
	if cur == nil {
		return "", NewUserError("There is nowhere to drop it.")
	}

	l.mu.Lock()
	i := slices.IndexFunc(l.inventory, func(o world.Object) bool {
		return strings.EqualFold(o.Name, name)
	})
	if i < 0 {
		l.mu.Unlock()
		return "", NewUserError(fmt.Sprintf("You are not carrying a %s.", name))
	}
	obj := l.inventory[i]
	l.inventory = slices.Delete(l.inventory, i, i+1)
	l.mu.Unlock()

	if err := cur.Drop(ctx, obj); err != nil {
		// Put it back rather than lose it.
		l.mu.Lock()
		l.inventory = append(l.inventory, obj)
		l.mu.Unlock()
		return "", err
	}

	return fmt.Sprintf("You drop the %s.", obj.Name), nil
}

// InventoryNames lists carried object names in pickup order.
func (l *Living) InventoryNames() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	names := make([]string, 0, len(l.inventory))
	for _, o := range l.inventory {
		names = append(names, o.Name)
	}
	return names
}

// Quit leaves the world gracefully: departs the current room with a
// farewell announcement and stops the living's actor.
func (l *Living) Quit(ctx context.Context) error {
	cur := l.Room()
	if cur != nil {
		if err := cur.Leave(ctx, l, ""); err != nil {
			return err
		}
		l.setRoom(nil)
	}
	l.h.Stop()
	return nil
}
