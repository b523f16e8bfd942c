package actor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

func waitDone(t *testing.T, h *Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("actor %s did not terminate", h.Name())
	}
}

func TestSpawn_NormalExit(t *testing.T) {
	h := Spawn(context.Background(), "worker", func(ctx context.Context) error {
		return nil
	})

	waitDone(t, h)
	testutil.AssertEqual(t, "alive", h.Alive(), false)
	if h.Cause() != nil {
		t.Errorf("expected nil cause, got %v", h.Cause())
	}
}

func TestSpawn_AbnormalExit(t *testing.T) {
	boom := errors.New("boom")
	h := Spawn(context.Background(), "worker", func(ctx context.Context) error {
		return boom
	})

	waitDone(t, h)
	if !errors.Is(h.Cause(), boom) {
		t.Errorf("expected cause to wrap boom, got %v", h.Cause())
	}
}

func TestSpawn_PanicBecomesAbnormalExit(t *testing.T) {
	h := Spawn(context.Background(), "worker", func(ctx context.Context) error {
		panic("blew up")
	})

	waitDone(t, h)
	if h.Cause() == nil {
		t.Fatal("expected abnormal cause from panic")
	}
	testutil.AssertErrorContains(t, h.Cause(), "panicked")
}

func TestHandle_Kill(t *testing.T) {
	h := Spawn(context.Background(), "worker", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	testutil.AssertEqual(t, "alive before kill", h.Alive(), true)

	cause := errors.New("forced")
	h.Kill(cause)
	waitDone(t, h)

	if !errors.Is(h.Cause(), cause) {
		t.Errorf("expected kill cause, got %v", h.Cause())
	}
}

func TestHandle_StopIsNormal(t *testing.T) {
	h := Spawn(context.Background(), "worker", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	h.Stop()
	waitDone(t, h)

	if h.Cause() != nil {
		t.Errorf("expected nil cause after Stop, got %v", h.Cause())
	}
}

func TestHandle_WatchAfterExit(t *testing.T) {
	boom := errors.New("boom")
	h := Spawn(context.Background(), "worker", func(ctx context.Context) error {
		return boom
	})
	waitDone(t, h)

	var got error
	h.Watch(func(cause error) { got = cause })

	if !errors.Is(got, boom) {
		t.Errorf("expected watcher to fire immediately with boom, got %v", got)
	}
}

func TestLink_PropagatesAbnormalExit(t *testing.T) {
	idle := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	a := Spawn(context.Background(), "a", idle)
	b := Spawn(context.Background(), "b", idle)
	Link(a, b)

	a.Kill(errors.New("boom"))
	waitDone(t, a)
	waitDone(t, b)

	testutil.AssertErrorContains(t, b.Cause(), "linked actor a crashed")
}

func TestLink_NormalExitDoesNotPropagate(t *testing.T) {
	idle := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	a := Spawn(context.Background(), "a", idle)
	b := Spawn(context.Background(), "b", idle)
	Link(a, b)

	a.Stop()
	waitDone(t, a)

	// Give any (incorrect) propagation a moment to land.
	time.Sleep(20 * time.Millisecond)
	testutil.AssertEqual(t, "b alive", b.Alive(), true)

	b.Stop()
	waitDone(t, b)
}

func TestSupervise_AbsorbReceivesCause(t *testing.T) {
	idle := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	sup := Spawn(context.Background(), "sup", idle)
	child := Spawn(context.Background(), "child", idle)

	absorbed := make(chan error, 1)
	sup.Supervise(child, PolicyAbsorb, func(cause error) {
		absorbed <- cause
	})

	boom := errors.New("boom")
	child.Kill(boom)
	waitDone(t, child)

	select {
	case cause := <-absorbed:
		if !errors.Is(cause, boom) {
			t.Errorf("expected absorbed cause boom, got %v", cause)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("absorb callback never fired")
	}

	// The supervisor outlives the child.
	testutil.AssertEqual(t, "supervisor alive", sup.Alive(), true)
	sup.Stop()
	waitDone(t, sup)
}
