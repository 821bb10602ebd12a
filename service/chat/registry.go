package chat

import (
	"sync"
)

// PresenceMirror mirrors registry mutations into shared storage so other
// nodes can see who is online here. Implemented on Redis in
// service/storage; nil-safe via the noop default.
type PresenceMirror interface {
	Online(userID string)
	Offline(userID string)
}

type noopMirror struct{}

func (noopMirror) Online(string)  {}
func (noopMirror) Offline(string) {}

// Registry is the process-wide connection registry: every live transport
// in byConn, the addressable (userId-bearing) subset in byUser. All
// mutation happens under one mutex; hooks fire after the lock is
// released so they can read the registry freely.
type Registry struct {
	mu     sync.Mutex
	byConn map[string]*Client // conn_id -> client (every connection)
	byUser map[string]*Client // user_id -> client (at most one per user)

	mirror   PresenceMirror
	onMutate func() // presence re-broadcast hook, set once during wiring
}

func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[string]*Client),
		byUser: make(map[string]*Client),
		mirror: noopMirror{},
	}
}

// SetMirror installs the shared-presence hook. Call before serving.
func (r *Registry) SetMirror(m PresenceMirror) {
	if m != nil {
		r.mirror = m
	}
}

// OnMutate installs the callback fired after every byUser mutation.
// Call before serving; the callback runs outside the registry lock.
func (r *Registry) OnMutate(fn func()) { r.onMutate = fn }

// Attach records a live connection. Attach alone does not make the
// connection addressable.
func (r *Registry) Attach(c *Client) {
	if c == nil {
		return
	}
	r.mu.Lock()
	r.byConn[c.ConnID] = c
	r.mu.Unlock()
}

// Register binds userID to the client, evicting any prior binding
// (last connection wins). Always succeeds. Returns the evicted client,
// if any, so the caller can close it.
func (r *Registry) Register(userID string, c *Client) (evicted *Client) {
	if userID == "" || c == nil {
		return nil
	}
	r.mu.Lock()
	r.byConn[c.ConnID] = c
	if prev, ok := r.byUser[userID]; ok && prev.ConnID != c.ConnID {
		delete(r.byConn, prev.ConnID)
		evicted = prev
	}
	r.byUser[userID] = c
	r.mu.Unlock()

	r.mirror.Online(userID)
	r.mutated()
	return evicted
}

// Unregister removes the user's binding if it still belongs to connID
// (a disconnect must not tear down a newer connection that already
// replaced it). Empty connID removes unconditionally. No-op when the
// user is absent.
func (r *Registry) Unregister(userID, connID string) {
	if userID == "" {
		return
	}
	r.mu.Lock()
	cur, ok := r.byUser[userID]
	if ok && (connID == "" || cur.ConnID == connID) {
		delete(r.byUser, userID)
	} else {
		ok = false
	}
	r.mu.Unlock()

	if ok {
		r.mirror.Offline(userID)
		r.mutated()
	}
}

// Detach removes a connection entirely, including its user binding when
// it is still the current one. Called from the transport teardown path.
func (r *Registry) Detach(c *Client) {
	if c == nil {
		return
	}
	r.mu.Lock()
	delete(r.byConn, c.ConnID)
	userGone := false
	if c.UserID != "" {
		if cur, ok := r.byUser[c.UserID]; ok && cur.ConnID == c.ConnID {
			delete(r.byUser, c.UserID)
			userGone = true
		}
	}
	r.mu.Unlock()

	if userGone {
		r.mirror.Offline(c.UserID)
		r.mutated()
	}
}

// Lookup returns the user's current client, nil when offline. Pure read.
func (r *Registry) Lookup(userID string) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byUser[userID]
}

// Snapshot returns the set of online user IDs, order unspecified.
func (r *Registry) Snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.byUser))
	for u := range r.byUser {
		out = append(out, u)
	}
	return out
}

// Clients returns every live connection, addressable or not.
func (r *Registry) Clients() []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Client, 0, len(r.byConn))
	for _, c := range r.byConn {
		out = append(out, c)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byUser)
}

func (r *Registry) mutated() {
	if r.onMutate != nil {
		r.onMutate()
	}
}
