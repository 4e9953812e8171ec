package distress

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestManager(p *fakeProvider, clock *fakeClock) *Manager {
	m := NewManager(p, nil)
	m.now = clock.Now
	m.tickEvery = time.Hour
	return m
}

func TestManagerStartRequiresUser(t *testing.T) {
	m := newTestManager(&fakeProvider{granted: true}, &fakeClock{now: time.Now()})

	_, err := m.Start(context.Background(), "  ")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestManagerSnapshotUnknownUserIsIdle(t *testing.T) {
	m := newTestManager(&fakeProvider{granted: true}, &fakeClock{now: time.Now()})

	snap := m.Snapshot("nobody")
	if snap.Active {
		t.Fatal("expected idle")
	}
	if snap.Elapsed != "00:00" {
		t.Fatalf("expected 00:00, got %q", snap.Elapsed)
	}
}

func TestManagerStopUnknownUserIsNoop(t *testing.T) {
	m := newTestManager(&fakeProvider{granted: true}, &fakeClock{now: time.Now()})
	m.Stop("nobody")
	m.Stop("")
}

func TestManagerSessionsAreIsolatedPerUser(t *testing.T) {
	p := &fakeProvider{granted: true}
	m := newTestManager(p, &fakeClock{now: time.Now()})

	if _, err := m.Start(context.Background(), "alice"); err != nil {
		t.Fatal(err)
	}

	if !m.Snapshot("alice").Active {
		t.Fatal("expected alice active")
	}
	if m.Snapshot("bob").Active {
		t.Fatal("expected bob idle")
	}

	m.Stop("bob")
	if !m.Snapshot("alice").Active {
		t.Fatal("stopping bob must not touch alice")
	}

	m.Stop("alice")
	if m.Snapshot("alice").Active {
		t.Fatal("expected alice idle after stop")
	}
}

func TestManagerSubscribeSeesSharedSession(t *testing.T) {
	p := &fakeProvider{granted: true}
	m := newTestManager(p, &fakeClock{now: time.Now()})

	// Dos vistas del mismo usuario observan el mismo objeto.
	var homeSaw, mapSaw Snapshot
	unsubHome := m.Subscribe("alice", func(s Snapshot) { homeSaw = s })
	unsubMap := m.Subscribe("alice", func(s Snapshot) { mapSaw = s })
	defer unsubHome()
	defer unsubMap()

	if _, err := m.Start(context.Background(), "alice"); err != nil {
		t.Fatal(err)
	}
	if !homeSaw.Active || !mapSaw.Active {
		t.Fatal("both observers must see activation")
	}

	m.Stop("alice")
	if homeSaw.Active || mapSaw.Active {
		t.Fatal("both observers must see cancellation")
	}
}
