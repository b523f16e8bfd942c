package game

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DavidAlphaFox/erlymud/internal/world"
)

// memBroker is an in-process Broker that dispatches synchronously, standing
// in for the embedded messaging server.
type memBroker struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]func([]byte)

	published []string
}

func newMemBroker() *memBroker {
	return &memBroker{subs: map[string]map[int]func([]byte){}}
}

func (b *memBroker) Publish(subject string, data []byte) error {
	b.mu.Lock()
	b.published = append(b.published, subject+": "+string(data))
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

func (b *memBroker) Subscribe(subject string, handler func(data []byte)) (func(), error) {
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

func (b *memBroker) publishedMessages() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.published...)
}

// stubLoader serves room records out of a map.
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

// lineSink collects notify output for assertions.
type lineSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *lineSink) notify(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, msg)
}

func (s *lineSink) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func (s *lineSink) contains(substr string) bool {
	for _, l := range s.all() {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

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
