package world

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/DavidAlphaFox/erlymud/internal/actor"
	"github.com/DavidAlphaFox/erlymud/internal/display"
)

// Occupant is a living that can stand in a room. Implemented by game.Living;
// declared here so the room package stays free of game dependencies.
type Occupant interface {
	Handle() *actor.Handle
	Name() string
	// Notify delivers a line of output to the occupant. It must not block.
	Notify(msg string)
}

// Room owns one room's mutable state. All reads and writes go through the
// room's goroutine, so two players acting on the same room always observe
// some total order of their operations.
//
// The room supervises its occupants with an absorb policy: an occupant that
// crashes is removed from the occupant list, and the room keeps running.
type Room struct {
	id    string
	h     *actor.Handle
	calls chan func(*roomState)
}

type roomState struct {
	title     string
	brief     string
	long      string
	exits     map[string]string
	resets    []ObjectSpec
	objects   []Object
	occupants []Occupant
}

func newRoom(ctx context.Context, id string, rec *Record) *Room {
	st := &roomState{
		title: rec.Title,
		brief: rec.Brief,
		long:  rec.Long,
		exits: make(map[string]string, len(rec.Exits)),
	}
	for dir, dest := range rec.Exits {
		st.exits[dir] = dest
	}
	for _, spec := range rec.Objects {
		st.objects = append(st.objects, spawnObject(spec, true))
	}
	for _, spec := range rec.Resets {
		st.resets = append(st.resets, spec)
		st.objects = append(st.objects, spawnObject(spec, false))
	}

	r := &Room{
		id:    id,
		calls: make(chan func(*roomState)),
	}
	r.h = actor.Spawn(ctx, "room-"+id, func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case fn := <-r.calls:
				fn(st)
			}
		}
	})

	return r
}

// NewObject creates a detached object instance that may move between room
// and player inventories.
func NewObject(name, description string) Object {
	return Object{
		InstanceId:  uuid.NewString(),
		Name:        name,
		Description: description,
	}
}

func spawnObject(spec ObjectSpec, attached bool) Object {
	return Object{
		InstanceId:  uuid.NewString(),
		Name:        spec.Name,
		Description: spec.Description,
		Attached:    attached,
	}
}

func (r *Room) Id() string {
	return r.id
}

func (r *Room) Handle() *actor.Handle {
	return r.h
}

// Alive reports whether the room actor is still running. Cached handles
// must be checked before use; a dead room is reloaded by the manager.
func (r *Room) Alive() bool {
	return r.h.Alive()
}

// call runs fn on the room goroutine and waits for it to complete.
func (r *Room) call(ctx context.Context, fn func(*roomState)) error {
	done := make(chan struct{})
	wrapped := func(st *roomState) {
		fn(st)
		close(done)
	}

	select {
	case r.calls <- wrapped:
	case <-r.h.Done():
		return fmt.Errorf("room %s: %w", r.id, ErrRoomDown)
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Room) Name(ctx context.Context) (string, error) {
	var title string
	err := r.call(ctx, func(st *roomState) {
		title = st.title
	})
	return title, err
}

// ExitTo returns the destination room id in the given direction. Exits are
// asymmetric; there is no requirement that the destination links back.
func (r *Room) ExitTo(ctx context.Context, dir string) (string, bool, error) {
	var (
		dest string
		ok   bool
	)
	err := r.call(ctx, func(st *roomState) {
		dest, ok = st.exits[dir]
	})
	return dest, ok, err
}

func (r *Room) AddExit(ctx context.Context, dir, dest string) error {
	if dir == "" || dest == "" {
		return fmt.Errorf("exit direction and destination are required")
	}
	return r.call(ctx, func(st *roomState) {
		st.exits[dir] = dest
	})
}

func (r *Room) SetLong(ctx context.Context, text string) error {
	return r.call(ctx, func(st *roomState) {
		st.long = text
	})
}

func (r *Room) AddObject(ctx context.Context, obj Object) error {
	if obj.Name == "" {
		return fmt.Errorf("object name is required")
	}
	return r.call(ctx, func(st *roomState) {
		st.objects = append(st.objects, obj)
	})
}

func (r *Room) AddReset(ctx context.Context, spec ObjectSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	return r.call(ctx, func(st *roomState) {
		st.resets = append(st.resets, spec)
		st.objects = append(st.objects, spawnObject(spec, false))
	})
}

// Reset respawns any reset object that is no longer present, matching the
// durable reset specs by name.
func (r *Room) Reset(ctx context.Context) error {
	return r.call(ctx, func(st *roomState) {
		for _, spec := range st.resets {
			present := slices.ContainsFunc(st.objects, func(o Object) bool {
				return !o.Attached && strings.EqualFold(o.Name, spec.Name)
			})
			if !present {
				st.objects = append(st.objects, spawnObject(spec, false))
			}
		}
	})
}

// Enter places occ in the room and announces it to the other occupants.
// fromDir is the direction occ arrived from; empty means occ appeared
// rather than walked in. The room begins supervising occ: if occ's actor
// dies while inside, the room cleans up its occupant list instead of dying.
func (r *Room) Enter(ctx context.Context, occ Occupant, fromDir string) error {
	err := r.call(ctx, func(st *roomState) {
		if occupantIndex(st, occ) >= 0 {
			return
		}
		msg := display.Message("enter", occ.Name(), "")
		if fromDir != "" {
			msg = display.Message("arrive", occ.Name(), fromDir)
		}
		for _, other := range st.occupants {
			other.Notify(msg)
		}
		st.occupants = append(st.occupants, occ)
	})
	if err != nil {
		return err
	}

	r.h.Supervise(occ.Handle(), actor.PolicyAbsorb, func(cause error) {
		// Runs on the dying occupant's goroutine; hand the cleanup to the
		// room without blocking the death signal.
		go r.reap(occ, cause)
	})

	return nil
}

// Leave removes occ from the room. toDir is the direction occ walked out;
// empty means occ is leaving the world.
func (r *Room) Leave(ctx context.Context, occ Occupant, toDir string) error {
	return r.call(ctx, func(st *roomState) {
		i := occupantIndex(st, occ)
		if i < 0 {
			return
		}
		st.occupants = slices.Delete(st.occupants, i, i+1)

		msg := display.Message("depart", occ.Name(), "")
		if toDir != "" {
			msg = display.Message("leave", occ.Name(), toDir)
		}
		for _, other := range st.occupants {
			other.Notify(msg)
		}
	})
}

// reap handles a supervised occupant's death. A normal exit means the
// occupant already left through Leave; removal here is a no-op. An abnormal
// exit is absorbed into a contained state update.
func (r *Room) reap(occ Occupant, cause error) {
	err := r.call(context.Background(), func(st *roomState) {
		i := occupantIndex(st, occ)
		if i < 0 {
			return
		}
		st.occupants = slices.Delete(st.occupants, i, i+1)

		if cause != nil {
			slog.Warn("occupant died in room", "room", r.id, "occupant", occ.Name(), "cause", cause)
			for _, other := range st.occupants {
				other.Notify(display.Message("vanish", occ.Name(), ""))
			}
		}
	})
	if err != nil {
		// The room itself is gone; nothing left to clean up.
		slog.Debug("skipping occupant cleanup", "room", r.id, "error", err)
	}
}

func occupantIndex(st *roomState, occ Occupant) int {
	return slices.IndexFunc(st.occupants, func(o Occupant) bool {
		return o.Handle() == occ.Handle()
	})
}

// Broadcast delivers a rendered message to every occupant except from.
func (r *Room) Broadcast(ctx context.Context, from Occupant, msg string) error {
	return r.call(ctx, func(st *roomState) {
		for _, other := range st.occupants {
			if from != nil && other.Handle() == from.Handle() {
				continue
			}
			other.Notify(msg)
		}
	})
}

// Take removes the named non-attached object from the room and returns it.
func (r *Room) Take(ctx context.Context, name string) (Object, error) {
	var (
		obj    Object
		callEr error
	)
	err := r.call(ctx, func(st *roomState) {
		i := slices.IndexFunc(st.objects, func(o Object) bool {
			return strings.EqualFold(o.Name, name)
		})
		if i < 0 {
			callEr = ErrObjectNotFound
			return
		}
		if st.objects[i].Attached {
			callEr = ErrObjectFixed
			return
		}
		obj = st.objects[i]
		st.objects = slices.Delete(st.objects, i, i+1)
	})
	if err != nil {
		return Object{}, err
	}
	return obj, callEr
}

// Drop places an object into the room's inventory.
func (r *Room) Drop(ctx context.Context, obj Object) error {
	return r.call(ctx, func(st *roomState) {
		st.objects = append(st.objects, obj)
	})
}

// OccupantNames returns the display names of everyone in the room.
func (r *Room) OccupantNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.call(ctx, func(st *roomState) {
		for _, o := range st.occupants {
			names = append(names, o.Name())
		}
	})
	return names, err
}

// Look renders the room from viewer's perspective.
func (r *Room) Look(ctx context.Context, viewer Occupant) (string, error) {
	var b strings.Builder
	err := r.call(ctx, func(st *roomState) {
		b.WriteString(st.title)
		b.WriteString("\n")

		desc := st.brief
		if st.long != "" {
			desc = st.long
		}
		b.WriteString(display.Wrap(desc))
		b.WriteString("\n")

		dirs := make([]string, 0, len(st.exits))
		for dir := range st.exits {
			dirs = append(dirs, dir)
		}
		sort.Strings(dirs)
		if len(dirs) == 0 {
			b.WriteString("There are no obvious exits.\n")
		} else {
			b.WriteString(fmt.Sprintf("Exits: %s.\n", strings.Join(dirs, ", ")))
		}

		var items []string
		for _, o := range st.objects {
			items = append(items, o.Name)
		}
		if len(items) > 0 {
			b.WriteString(fmt.Sprintf("You see: %s.\n", strings.Join(items, ", ")))
		}

		var others []string
		for _, o := range st.occupants {
			if viewer != nil && o.Handle() == viewer.Handle() {
				continue
			}
			others = append(others, o.Name())
		}
		if len(others) > 0 {
			b.WriteString(fmt.Sprintf("Also here: %s.\n", strings.Join(others, ", ")))
		}
	})
	if err != nil {
		return "", err
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
