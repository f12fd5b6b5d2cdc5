package core

import (
	"fmt"
	"sync"
	"testing"

	"github.com/pbystrov/directchat-server/internal/store"
)

func testClient(userID int64, username, connID string) *Client {
	return NewClient(connID, &store.User{ID: userID, Username: username, Name: username}, 0)
}

func TestRegistryUpsertReportsExistingPresence(t *testing.T) {
	r := NewRegistry()

	first := testClient(1, "alice", "tab-1")
	if wasOnline := r.Upsert(first); wasOnline {
		t.Fatalf("first upsert must report the user as previously offline")
	}

	second := testClient(1, "alice", "tab-2")
	if wasOnline := r.Upsert(second); !wasOnline {
		t.Fatalf("second upsert must report the user as already online")
	}

	entry := r.Get(1)
	if entry == nil || entry.Client != second {
		t.Fatalf("last writer must win: expected tab-2's client to be registered")
	}
}

func TestRegistryRemoveClientGuardsAgainstStaleTabs(t *testing.T) {
	r := NewRegistry()

	old := testClient(1, "alice", "tab-1")
	r.Upsert(old)
	fresh := testClient(1, "alice", "tab-2")
	r.Upsert(fresh)

	// The stale tab closing must not knock the fresh connection offline.
	if removed := r.RemoveClient(old); removed {
		t.Fatalf("removing a replaced connection must be a no-op")
	}
	if r.Get(1) == nil {
		t.Fatalf("user must still be online")
	}

	if removed := r.RemoveClient(fresh); !removed {
		t.Fatalf("removing the current connection must succeed")
	}
	if r.Get(1) != nil {
		t.Fatalf("user must be offline after the current connection leaves")
	}
	if removed := r.RemoveClient(fresh); removed {
		t.Fatalf("double remove must be a no-op")
	}
}

func TestRegistryFindByUsername(t *testing.T) {
	r := NewRegistry()
	r.Upsert(testClient(1, "alice", "a"))
	r.Upsert(testClient(2, "bob", "b"))

	if entry := r.FindByUsername("bob"); entry == nil || entry.UserID != 2 {
		t.Fatalf("expected to find bob's entry")
	}
	if entry := r.FindByUsername("nobody"); entry != nil {
		t.Fatalf("expected nil for unknown username")
	}
}

func TestRegistryConcurrentUpserts(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			for tab := 0; tab < 10; tab++ {
				c := testClient(id, fmt.Sprintf("user-%d", id), fmt.Sprintf("conn-%d-%d", id, tab))
				r.Upsert(c)
			}
		}(int64(i + 1))
	}
	wg.Wait()

	online := r.Online()
	if len(online) != 50 {
		t.Fatalf("expected 50 online users, got %d", len(online))
	}
	for id := int64(1); id <= 50; id++ {
		if r.Get(id) == nil {
			t.Fatalf("user %d missing from registry", id)
		}
	}
}
