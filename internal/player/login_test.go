package player

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/pixil98/go-testutil"

	"github.com/DavidAlphaFox/erlymud/internal/actor"
	"github.com/DavidAlphaFox/erlymud/internal/game"
	"github.com/DavidAlphaFox/erlymud/internal/session"
	"github.com/DavidAlphaFox/erlymud/internal/storage"
	"github.com/DavidAlphaFox/erlymud/internal/world"
)

// testBroker is a synchronous in-process stand-in for the messaging server.
type testBroker struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]func([]byte)
}

func newTestBroker() *testBroker {
	return &testBroker{subs: map[string]map[int]func([]byte){}}
}

func (b *testBroker) Publish(subject string, data []byte) error {
	b.mu.Lock()
	handlers := make([]func([]byte), 0, len(b.subs[subject]))
	for _, h := range b.subs[subject] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(data)
	}
	return nil
}

func (b *testBroker) Subscribe(subject string, handler func(data []byte)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[subject] == nil {
		b.subs[subject] = map[int]func([]byte){}
	}
	id := b.next
	b.next++
	b.subs[subject][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[subject], id)
	}, nil
}

type stubLoader struct {
	recs map[string]*world.Record
}

func (l *stubLoader) Load(id string) (*world.Record, error) {
	rec, ok := l.recs[id]
	if !ok {
		return nil, fmt.Errorf("room %q: %w", id, world.ErrRoomNotFound)
	}
	cp := *rec
	return &cp, nil
}

// fakePeer stands in for a session: an idle actor handle plus an output
// sink.
type fakePeer struct {
	h *actor.Handle

	mu    sync.Mutex
	lines []string
}

func newFakePeer(t *testing.T) *fakePeer {
	t.Helper()
	p := &fakePeer{}
	p.h = actor.Spawn(context.Background(), "fake-session", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	t.Cleanup(p.h.Stop)
	return p
}

func (p *fakePeer) Handle() *actor.Handle { return p.h }

func (p *fakePeer) Notify(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = append(p.lines, msg)
}

func (p *fakePeer) received(substr string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, l := range p.lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

func newDeps(t *testing.T) Deps {
	t.Helper()

	accounts, err := storage.NewFileStore[*game.Account](t.TempDir())
	if err != nil {
		t.Fatalf("account store: %v", err)
	}

	rooms := world.NewManager(&stubLoader{recs: map[string]*world.Record{
		"square": {
			Title: "Town Square",
			Brief: "The bustling heart of town.",
			Exits: map[string]string{"north": "market"},
		},
		"market": {
			Title:   "Market",
			Brief:   "Stalls in every direction.",
			Exits:   map[string]string{"south": "square"},
			Objects: []world.ObjectSpec{{Name: "stall"}},
			Resets:  []world.ObjectSpec{{Name: "apple"}},
		},
	}})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = rooms.Start(ctx) }()

	broker := newTestBroker()
	return Deps{
		Accounts:  accounts,
		Registry:  game.NewRegistry(broker),
		Rooms:     rooms,
		Broker:    broker,
		StartRoom: "square",
	}
}

// drive feeds lines one at a time and returns the last result, failing the
// test on any handler error.
func drive(t *testing.T, h session.Handler, peer session.Peer, lines ...string) session.Result {
	t.Helper()
	var res session.Result
	for _, line := range lines {
		var err error
		res, err = h.HandleLine(context.Background(), peer, line)
		if err != nil {
			t.Fatalf("handling %q: %v", line, err)
		}
	}
	return res
}

func TestLoginHandler_NewAccount(t *testing.T) {
	deps := newDeps(t)
	h := NewLoginHandler(deps)
	peer := newFakePeer(t)

	testutil.AssertEqual(t, "initial prompt", h.Prompt(), "By what name do you wish to be known? ")

	res := drive(t, h, peer, "bob")
	testutil.AssertEqual(t, "confirm prompt", h.Prompt(), "Did I get that right, Bob (Y/N)? ")

	res = drive(t, h, peer, "y", "secret", "secret")
	if !strings.Contains(res.Output, "Welcome, Bob!") {
		t.Errorf("expected welcome, got %q", res.Output)
	}
	if !strings.Contains(res.Output, "Town Square") {
		t.Errorf("expected the start room look, got %q", res.Output)
	}
	testutil.AssertEqual(t, "pop login handler", res.Pop, true)
	if _, ok := res.Push.(*GameHandler); !ok {
		t.Fatalf("expected a game handler push, got %T", res.Push)
	}

	acct := deps.Accounts.Get("bob")
	if acct == nil {
		t.Fatal("account was not saved")
	}
	testutil.AssertEqual(t, "account name", acct.Name, "Bob")
	testutil.AssertEqual(t, "password verifies", acct.CheckPassword("secret"), true)
	if acct.Password == "secret" {
		t.Error("password stored in plaintext")
	}

	_, online := deps.Registry.Lookup("bob")
	testutil.AssertEqual(t, "registered", online, true)
}

func TestLoginHandler_NameValidation(t *testing.T) {
	tests := map[string]string{
		"too short":  "x",
		"digits":     "bob7",
		"spaces":     "bo b",
		"too long":   strings.Repeat("a", 21),
		"empty line": "",
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			h := NewLoginHandler(newDeps(t))
			res := drive(t, h, newFakePeer(t), input)
			testutil.AssertEqual(t, "output", res.Output, "Invalid name, please try another.")
			testutil.AssertEqual(t, "still asking for a name", h.Prompt(), "By what name do you wish to be known? ")
		})
	}
}

func TestLoginHandler_ConfirmNo(t *testing.T) {
	h := NewLoginHandler(newDeps(t))
	peer := newFakePeer(t)

	res := drive(t, h, peer, "bob", "n")
	testutil.AssertEqual(t, "output", res.Output, "Ok, let's try again.")
	testutil.AssertEqual(t, "back to name", h.Prompt(), "By what name do you wish to be known? ")
}

func TestLoginHandler_NewPasswordRules(t *testing.T) {
	h := NewLoginHandler(newDeps(t))
	peer := newFakePeer(t)

	drive(t, h, peer, "bob", "y")

	res := drive(t, h, peer, "abc")
	testutil.AssertEqual(t, "short password", res.Output, "Illegal password.")

	res = drive(t, h, peer, "BOB")
	testutil.AssertEqual(t, "password equal to name", res.Output, "Illegal password.")

	res = drive(t, h, peer, "secret", "different")
	testutil.AssertEqual(t, "mismatch", res.Output, "Passwords don't match... start over.")

	res = drive(t, h, peer, "secret", "secret")
	if !strings.Contains(res.Output, "Welcome, Bob!") {
		t.Errorf("expected welcome after restart, got %q", res.Output)
	}
}

func TestLoginHandler_ExistingAccount(t *testing.T) {
	deps := newDeps(t)

	hash, err := game.HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := deps.Accounts.Save("bob", &game.Account{Name: "Bob", Password: hash}); err != nil {
		t.Fatalf("save: %v", err)
	}

	h := NewLoginHandler(deps)
	peer := newFakePeer(t)

	drive(t, h, peer, "bob")
	testutil.AssertEqual(t, "password prompt", h.Prompt(), "Password: ")

	res := drive(t, h, peer, "hunter2")
	if !strings.Contains(res.Output, "Welcome, Bob!") {
		t.Errorf("expected welcome, got %q", res.Output)
	}
}

func TestLoginHandler_WrongPasswordTerminatesAfterThreeTries(t *testing.T) {
	deps := newDeps(t)

	hash, err := game.HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := deps.Accounts.Save("bob", &game.Account{Name: "Bob", Password: hash}); err != nil {
		t.Fatalf("save: %v", err)
	}

	h := NewLoginHandler(deps)
	peer := newFakePeer(t)
	drive(t, h, peer, "bob")

	res := drive(t, h, peer, "guess1")
	testutil.AssertEqual(t, "first try", res.Output, "Wrong password.")
	testutil.AssertEqual(t, "not quitting yet", res.Quit, false)

	res = drive(t, h, peer, "guess2")
	testutil.AssertEqual(t, "second try", res.Output, "Wrong password.")

	res = drive(t, h, peer, "guess3")
	testutil.AssertEqual(t, "third try", res.Output, "Too many failed attempts.")
	testutil.AssertEqual(t, "session ends", res.Quit, true)
}

func TestLoginHandler_DuplicateLoginRejected(t *testing.T) {
	deps := newDeps(t)

	first := NewLoginHandler(deps)
	drive(t, first, newFakePeer(t), "bob", "y", "secret", "secret")

	second := NewLoginHandler(deps)
	peer := newFakePeer(t)
	res := drive(t, second, peer, "bob", "secret")
	testutil.AssertEqual(t, "rejected", res.Output, "That user is already logged in.")
	testutil.AssertEqual(t, "back to name prompt", second.Prompt(), "By what name do you wish to be known? ")
}
