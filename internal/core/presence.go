package core

import "sync"

// PresenceEntry records one online user and the connection that pushes
// reach them through. At most one entry exists per user.
type PresenceEntry struct {
	UserID    int64
	Username  string
	Name      string
	AvatarURL string
	Client    *Client
}

// Registry is the authoritative in-memory view of who is online right now.
// It is keyed by user ID with per-key atomicity: upserts for different
// users never block each other, and for the same user the last writer
// wins. A Registry is owned by the Hub that created it; there is no
// package-level instance.
type Registry struct {
	entries sync.Map // int64 -> *PresenceEntry
}

// NewRegistry constructs an empty presence registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Upsert registers the client's connection as the user's live one and
// reports whether the user was already online. A reconnect from another
// tab replaces the stored connection in place.
func (r *Registry) Upsert(c *Client) (wasOnline bool) {
	entry := &PresenceEntry{
		UserID:    c.UserID,
		Username:  c.Username,
		Name:      c.Name,
		AvatarURL: c.AvatarURL,
		Client:    c,
	}
	_, loaded := r.entries.Swap(c.UserID, entry)
	return loaded
}

// RemoveClient removes the user's entry only if it still belongs to the
// given connection. It reports whether an entry was removed. The guard
// keeps a stale tab's disconnect from knocking a newer connection of the
// same user offline.
func (r *Registry) RemoveClient(c *Client) bool {
	for {
		v, ok := r.entries.Load(c.UserID)
		if !ok {
			return false
		}
		entry := v.(*PresenceEntry)
		if entry.Client != c {
			return false
		}
		if r.entries.CompareAndDelete(c.UserID, v) {
			return true
		}
	}
}

// Get returns the user's entry, or nil if they are offline.
func (r *Registry) Get(userID int64) *PresenceEntry {
	v, ok := r.entries.Load(userID)
	if !ok {
		return nil
	}
	return v.(*PresenceEntry)
}

// FindByUsername returns the entry of the online user with the given
// username, or nil.
func (r *Registry) FindByUsername(username string) *PresenceEntry {
	var found *PresenceEntry
	r.entries.Range(func(_, v any) bool {
		entry := v.(*PresenceEntry)
		if entry.Username == username {
			found = entry
			return false
		}
		return true
	})
	return found
}

// Online returns a snapshot of the currently online user IDs.
func (r *Registry) Online() map[int64]struct{} {
	online := make(map[int64]struct{})
	r.entries.Range(func(k, _ any) bool {
		online[k.(int64)] = struct{}{}
		return true
	})
	return online
}

// ForEach calls fn for a snapshot of every registered entry.
func (r *Registry) ForEach(fn func(*PresenceEntry)) {
	r.entries.Range(func(_, v any) bool {
		fn(v.(*PresenceEntry))
		return true
	})
}
