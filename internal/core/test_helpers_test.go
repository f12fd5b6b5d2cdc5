package core

import (
	"context"
	"testing"
	"time"

	"github.com/pbystrov/directchat-server/internal/store"
	"github.com/pbystrov/directchat-server/internal/store/sqlite"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.Setup)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func newBenchStore() (store.Store, error) {
	return sqlite.NewWithSetup(":memory:", sqlite.Setup)
}

func newTestHub(t *testing.T) (*Hub, store.Store) {
	t.Helper()

	st := newTestStore(t)
	return NewHub(st, nil), st
}

func createUser(t *testing.T, st store.Store, username string) *store.User {
	t.Helper()

	u, err := st.CreateUser(context.Background(), username, username, "", "hash")
	if err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return u
}

func connect(t *testing.T, hub *Hub, user *store.User) *Client {
	t.Helper()

	c := NewClient("conn-"+user.Username, user, 0)
	hub.Connect(t.Context(), c)
	return c
}

// mustEvent drains the client's event channel until an event of the
// wanted kind arrives, discarding everything else.
func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// mustNoEvent asserts that no event of the given kind arrives within the
// window. Other kinds are discarded.
func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v: %+v", kind, ev)
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}
