package world

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"

	"github.com/DavidAlphaFox/erlymud/internal/actor"
)

type testOccupant struct {
	h    *actor.Handle
	name string

	mu   sync.Mutex
	msgs []string
}

func newTestOccupant(t *testing.T, name string) *testOccupant {
	t.Helper()
	o := &testOccupant{name: name}
	o.h = actor.Spawn(context.Background(), "occupant-"+name, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	t.Cleanup(o.h.Stop)
	return o
}

func (o *testOccupant) Handle() *actor.Handle { return o.h }
func (o *testOccupant) Name() string          { return o.name }

func (o *testOccupant) Notify(msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msg)
}

func (o *testOccupant) messages() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.msgs...)
}

func testRoom(t *testing.T, id string, rec *Record) *Room {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return newRoom(ctx, id, rec)
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition never held: %s", what)
}

func TestRoom_EnterAndLeaveNotifyOthers(t *testing.T) {
	ctx := context.Background()
	r := testRoom(t, "hall", &Record{
		Title: "Great Hall",
		Brief: "A vaulted hall.",
		Exits: map[string]string{},
	})

	alice := newTestOccupant(t, "Alice")
	bob := newTestOccupant(t, "Bob")

	if err := r.Enter(ctx, alice, ""); err != nil {
		t.Fatalf("enter alice: %v", err)
	}
	if err := r.Enter(ctx, bob, "north"); err != nil {
		t.Fatalf("enter bob: %v", err)
	}

	testutil.AssertEqual(t, "alice saw bob arrive", strings.Join(alice.messages(), "|"), "Bob arrives from the north.")
	testutil.AssertEqual(t, "bob saw nothing", len(bob.messages()), 0)

	if err := r.Leave(ctx, bob, "south"); err != nil {
		t.Fatalf("leave bob: %v", err)
	}
	testutil.AssertEqual(t, "alice saw bob leave",
		strings.Join(alice.messages(), "|"),
		"Bob arrives from the north.|Bob leaves south.")

	names, err := r.OccupantNames(ctx)
	if err != nil {
		t.Fatalf("occupant names: %v", err)
	}
	testutil.AssertEqual(t, "occupants", strings.Join(names, ","), "Alice")
}

func TestRoom_EnterIsIdempotent(t *testing.T) {
	ctx := context.Background()
	r := testRoom(t, "hall", &Record{Title: "Hall", Brief: "A hall.", Exits: map[string]string{}})

	alice := newTestOccupant(t, "Alice")
	if err := r.Enter(ctx, alice, ""); err != nil {
		t.Fatalf("enter: %v", err)
	}
	if err := r.Enter(ctx, alice, ""); err != nil {
		t.Fatalf("re-enter: %v", err)
	}

	names, err := r.OccupantNames(ctx)
	if err != nil {
		t.Fatalf("occupant names: %v", err)
	}
	testutil.AssertEqual(t, "occupants", strings.Join(names, ","), "Alice")
}

func TestRoom_OccupantCrashIsContained(t *testing.T) {
	ctx := context.Background()
	r := testRoom(t, "hall", &Record{Title: "Hall", Brief: "A hall.", Exits: map[string]string{}})

	alice := newTestOccupant(t, "Alice")
	bob := newTestOccupant(t, "Bob")
	if err := r.Enter(ctx, alice, ""); err != nil {
		t.Fatalf("enter alice: %v", err)
	}
	if err := r.Enter(ctx, bob, ""); err != nil {
		t.Fatalf("enter bob: %v", err)
	}

	bob.h.Kill(errors.New("boom"))

	eventually(t, "bob reaped from room", func() bool {
		names, err := r.OccupantNames(ctx)
		if err != nil {
			return false
		}
		return len(names) == 1 && names[0] == "Alice"
	})

	// The room survives the occupant's crash.
	testutil.AssertEqual(t, "room alive", r.Alive(), true)

	eventually(t, "alice notified of the vanish", func() bool {
		msgs := alice.messages()
		return len(msgs) > 0 && msgs[len(msgs)-1] == "Bob vanishes in a puff of smoke."
	})
}

func TestRoom_NormalLeaveIsNotAVanish(t *testing.T) {
	ctx := context.Background()
	r := testRoom(t, "hall", &Record{Title: "Hall", Brief: "A hall.", Exits: map[string]string{}})

	alice := newTestOccupant(t, "Alice")
	bob := newTestOccupant(t, "Bob")
	if err := r.Enter(ctx, alice, ""); err != nil {
		t.Fatalf("enter alice: %v", err)
	}
	if err := r.Enter(ctx, bob, ""); err != nil {
		t.Fatalf("enter bob: %v", err)
	}
	if err := r.Leave(ctx, bob, "east"); err != nil {
		t.Fatalf("leave bob: %v", err)
	}

	bob.h.Stop()
	<-bob.h.Done()

	// Give the (idempotent) reap a moment to run.
	time.Sleep(50 * time.Millisecond)
	for _, msg := range alice.messages() {
		if strings.Contains(msg, "vanishes") {
			t.Errorf("unexpected vanish notice after a normal leave: %q", msg)
		}
	}
}

func TestRoom_TakeAndDrop(t *testing.T) {
	ctx := context.Background()
	r := testRoom(t, "armory", &Record{
		Title:   "Armory",
		Brief:   "Racks of steel.",
		Exits:   map[string]string{},
		Objects: []ObjectSpec{{Name: "weapon rack"}},
		Resets:  []ObjectSpec{{Name: "sword", Description: "A plain sword."}},
	})

	tests := map[string]struct {
		name    string
		wantErr error
	}{
		"reset object can be taken": {
			name: "Sword",
		},
		"attached object cannot": {
			name:    "weapon rack",
			wantErr: ErrObjectFixed,
		},
		"unknown object": {
			name:    "halberd",
			wantErr: ErrObjectNotFound,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			obj, err := r.Take(ctx, tt.name)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("take: %v", err)
			}
			testutil.AssertEqual(t, "object name", obj.Name, "sword")

			if err := r.Drop(ctx, obj); err != nil {
				t.Fatalf("drop: %v", err)
			}
		})
	}
}

func TestRoom_ResetRespawnsMissingObjects(t *testing.T) {
	ctx := context.Background()
	r := testRoom(t, "armory", &Record{
		Title:  "Armory",
		Brief:  "Racks of steel.",
		Exits:  map[string]string{},
		Resets: []ObjectSpec{{Name: "sword"}},
	})

	if _, err := r.Take(ctx, "sword"); err != nil {
		t.Fatalf("take: %v", err)
	}
	if _, err := r.Take(ctx, "sword"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected object gone, got %v", err)
	}

	if err := r.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := r.Take(ctx, "sword"); err != nil {
		t.Fatalf("take after reset: %v", err)
	}

	// A second reset while the object is present must not duplicate it.
	if err := r.Drop(ctx, NewObject("sword", "")); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if err := r.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := r.Take(ctx, "sword"); err != nil {
		t.Fatalf("take: %v", err)
	}
	if _, err := r.Take(ctx, "sword"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected a single respawn, got %v", err)
	}
}

func TestRoom_Look(t *testing.T) {
	ctx := context.Background()
	r := testRoom(t, "square", &Record{
		Title:   "Town Square",
		Brief:   "The bustling heart of town.",
		Exits:   map[string]string{"north": "market", "east": "alley"},
		Objects: []ObjectSpec{{Name: "fountain"}},
	})

	alice := newTestOccupant(t, "Alice")
	bob := newTestOccupant(t, "Bob")
	if err := r.Enter(ctx, alice, ""); err != nil {
		t.Fatalf("enter alice: %v", err)
	}
	if err := r.Enter(ctx, bob, ""); err != nil {
		t.Fatalf("enter bob: %v", err)
	}

	out, err := r.Look(ctx, alice)
	if err != nil {
		t.Fatalf("look: %v", err)
	}

	want := "Town Square\n" +
		"The bustling heart of town.\n" +
		"Exits: east, north.\n" +
		"You see: fountain.\n" +
		"Also here: Bob."
	testutil.AssertEqual(t, "look output", out, want)
}

func TestRoom_LongDescriptionOverridesBrief(t *testing.T) {
	ctx := context.Background()
	r := testRoom(t, "square", &Record{
		Title: "Town Square",
		Brief: "A square.",
		Long:  "A wide cobbled plaza, worn smooth by generations of feet.",
		Exits: map[string]string{},
	})

	out, err := r.Look(ctx, nil)
	if err != nil {
		t.Fatalf("look: %v", err)
	}
	if !strings.Contains(out, "cobbled plaza") {
		t.Errorf("expected long description, got %q", out)
	}
	if strings.Contains(out, "A square.") {
		t.Errorf("brief should be hidden when a long description is set: %q", out)
	}
}

func TestRoom_CallOnDeadRoom(t *testing.T) {
	r := testRoom(t, "hall", &Record{Title: "Hall", Brief: "A hall.", Exits: map[string]string{}})

	r.Handle().Kill(errors.New("boom"))
	<-r.Handle().Done()

	_, err := r.Name(context.Background())
	if !errors.Is(err, ErrRoomDown) {
		t.Fatalf("expected ErrRoomDown, got %v", err)
	}
}

func TestRoom_Broadcast(t *testing.T) {
	ctx := context.Background()
	r := testRoom(t, "hall", &Record{Title: "Hall", Brief: "A hall.", Exits: map[string]string{}})

	alice := newTestOccupant(t, "Alice")
	bob := newTestOccupant(t, "Bob")
	if err := r.Enter(ctx, alice, ""); err != nil {
		t.Fatalf("enter alice: %v", err)
	}
	if err := r.Enter(ctx, bob, ""); err != nil {
		t.Fatalf("enter bob: %v", err)
	}

	if err := r.Broadcast(ctx, alice, `Alice says, "hi"`); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	msgs := bob.messages()
	testutil.AssertEqual(t, "bob heard it", msgs[len(msgs)-1], `Alice says, "hi"`)
	for _, msg := range alice.messages() {
		if strings.Contains(msg, "says") {
			t.Errorf("sender must not hear their own broadcast: %q", msg)
		}
	}
}
