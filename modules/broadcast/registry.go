package broadcast

import (
	"sync"

	"github.com/jaevor/go-nanoid"
)

// Conn is the writable half of a live client connection.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// newEntryID generates short ids distinguishing connection attempts of the
// same user.
var newEntryID = func() func() string {
	gen, err := nanoid.Standard(12)
	if err != nil {
		panic(err)
	}
	return gen
}()

// Entry associates one user identity with one live connection. Writes go
// through Send, which serializes them; the underlying connection does not
// tolerate concurrent writers.
type Entry struct {
	ID     string
	UserID string

	conn Conn
	mu   sync.Mutex
}

// NewEntry creates a registry entry for a user's connection.
func NewEntry(userID string, conn Conn) *Entry {
	return &Entry{
		ID:     newEntryID(),
		UserID: userID,
		conn:   conn,
	}
}

// Send writes a JSON payload to the connection.
func (e *Entry) Send(v any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conn.WriteJSON(v)
}

// Close closes the underlying connection.
func (e *Entry) Close() error {
	return e.conn.Close()
}

// Registry maps user identities to their single live connection. A user has
// at most one entry; registering again replaces the previous one.
type Registry struct {
	entries map[string]*Entry
	mu      sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
	}
}

// Register stores the entry under its user identity and returns the entry it
// replaced, if any. The caller decides what to do with the replaced handle;
// the registry no longer routes to it either way.
func (r *Registry) Register(entry *Entry) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	replaced := r.entries[entry.UserID]
	r.entries[entry.UserID] = entry
	return replaced
}

// Deregister removes the entry for userID only if entryID still identifies
// the current one. A stale deregistration from a superseded connection is a
// no-op, so a quick reconnect is never torn down by its predecessor's
// cleanup.
func (r *Registry) Deregister(userID, entryID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.entries[userID]; ok && current.ID == entryID {
		delete(r.entries, userID)
	}
}

// Lookup returns the live entry for a user, if any.
func (r *Registry) Lookup(userID string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[userID]
	return entry, ok
}

// Len returns the number of connected users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// CloseAll closes every registered connection and empties the registry.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range r.entries {
		_ = entry.Close()
	}
	r.entries = make(map[string]*Entry)
}
