package world

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	goerrors "github.com/pixil98/go-errors"
)

// Manager is the room coordinator. Lookups hit a shared index first: an
// uncoordinated concurrent read plus a caller-side liveness check, with no
// locking on the hot path. Only a miss — or a hit on a dead actor — falls
// through to the single coordinator goroutine, which serializes every load
// and creation so at most one load per room id is ever in flight.
//
// The index is a best-effort pointer cache, not a source of truth: entries
// may point at dead actors until the next lookup repairs them, and
// crash-recovery simply overwrites the stale entry.
type Manager struct {
	loader Loader
	index  sync.Map // room id -> *Room
	reqs   chan managerReq
}

type managerReq struct {
	id     string
	create bool
	reply  chan managerResp
}

type managerResp struct {
	room *Room
	err  error
}

func NewManager(loader Loader) *Manager {
	return &Manager{
		loader: loader,
		reqs:   make(chan managerReq),
	}
}

// Start runs the coordinator loop until ctx is canceled. Rooms are spawned
// under ctx, so process shutdown stops every room actor. Satisfies
// service.Worker.
func (m *Manager) Start(ctx context.Context) error {
	slog.InfoContext(ctx, "room manager started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-m.reqs:
			var resp managerResp
			if req.create {
				resp.room, resp.err = m.createRoom(ctx, req.id)
			} else {
				resp.room, resp.err = m.loadRoom(ctx, req.id)
			}
			req.reply <- resp
		}
	}
}

// GetRoom returns the live actor for id, loading it from durable storage if
// no live actor exists. Concurrent calls for the same missing id receive
// the same actor.
func (m *Manager) GetRoom(ctx context.Context, id string) (*Room, error) {
	if r, ok := m.lookup(id); ok {
		return r, nil
	}
	return m.ask(ctx, id, false)
}

// NewRoom creates a blank room actor for an id that does not yet exist,
// either live in the index or loadable from disk. Unlike GetRoom, an
// existing room is an error.
func (m *Manager) NewRoom(ctx context.Context, id string) (*Room, error) {
	if !roomIdPattern.MatchString(id) {
		return nil, fmt.Errorf("invalid room id %q", id)
	}
	return m.ask(ctx, id, true)
}

// lookup is the uncoordinated fast path: a concurrent index read followed
// by the caller's own liveness probe. The index is allowed to hold dead
// handles; trusting one without the probe is the bug this design exists to
// prevent.
func (m *Manager) lookup(id string) (*Room, bool) {
	v, ok := m.index.Load(id)
	if !ok {
		return nil, false
	}
	r := v.(*Room)
	if !r.Alive() {
		return nil, false
	}
	return r, true
}

func (m *Manager) ask(ctx context.Context, id string, create bool) (*Room, error) {
	req := managerReq{
		id:     id,
		create: create,
		reply:  make(chan managerResp, 1),
	}

	select {
	case m.reqs <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case resp := <-req.reply:
		return resp.room, resp.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// loadRoom runs on the coordinator goroutine.
func (m *Manager) loadRoom(ctx context.Context, id string) (*Room, error) {
	// Another caller may have repaired the index while this request was
	// queued.
	if r, ok := m.lookup(id); ok {
		return r, nil
	}

	rec, err := m.loader.Load(id)
	if err != nil {
		return nil, err
	}

	r := newRoom(ctx, id, rec)
	// Overwrites any stale entry left behind by a crashed actor.
	m.index.Store(id, r)
	slog.InfoContext(ctx, "room loaded", "room", id)
	return r, nil
}

// createRoom runs on the coordinator goroutine.
func (m *Manager) createRoom(ctx context.Context, id string) (*Room, error) {
	if _, ok := m.lookup(id); ok {
		return nil, fmt.Errorf("room %q: %w", id, ErrRoomExists)
	}

	// A room that is not live but still loadable from disk also already
	// exists; creation must not shadow durable content.
	_, err := m.loader.Load(id)
	if err == nil {
		return nil, fmt.Errorf("room %q: %w", id, ErrRoomExists)
	}
	if !errors.Is(err, ErrRoomNotFound) {
		return nil, err
	}

	r := newRoom(ctx, id, &Record{
		Title: id,
		Brief: "An empty room.",
		Exits: map[string]string{},
	})
	m.index.Store(id, r)
	slog.InfoContext(ctx, "room created", "room", id)
	return r, nil
}

// Tick forwards a reset pass to every live room. Dead rooms are skipped;
// they respawn their resets from the durable record on next load anyway.
func (m *Manager) Tick(ctx context.Context) error {
	el := goerrors.NewErrorList()
	m.index.Range(func(_, v any) bool {
		r := v.(*Room)
		if !r.Alive() {
			return true
		}
		if err := r.Reset(ctx); err != nil {
			el.Add(fmt.Errorf("resetting room %s: %w", r.Id(), err))
		}
		return true
	})
	return el.Err()
}
