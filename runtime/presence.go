// Package runtime hosts the presence-and-delivery core: the presence
// registry, the delivery tracker, the fan-out router, and the session
// lifecycle manager. It orchestrates delivery without containing
// transport or storage logic; those live behind the contract ports.
package runtime

import (
	"sync"

	"team-chat/domain"
)

type connSet map[domain.ConnID]struct{}

// Presence tracks which users are currently reachable and through
// which connections. It is a derived cache over live sessions and is
// never the durable source of truth for "user exists".
//
// Presence is safe for concurrent use. A reader can never observe a
// user simultaneously present and absent for the same connection:
// both maps are mutated under one lock.
type Presence struct {
	mu        sync.RWMutex
	users     map[domain.ConnID]domain.UserID // conn -> owning user
	userConns map[domain.UserID]connSet       // user -> live conns
}

func NewPresence() *Presence {
	return &Presence{
		users:     make(map[domain.ConnID]domain.UserID),
		userConns: make(map[domain.UserID]connSet),
	}
}

// Register binds a connection to a user and reports whether it was
// the user's first live connection. The first/last decision is made
// under the registry lock; deciding it with a separate IsPresent call
// would race concurrent transitions of the same user. Re-registering
// the same connection for another user rebinds it, keeping the
// invariant of at most one session per connection id.
func (p *Presence) Register(conn domain.ConnID, user domain.UserID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if prev, ok := p.users[conn]; ok {
		p.dropConn(prev, conn)
	}
	p.users[conn] = user

	conns, ok := p.userConns[user]
	if !ok {
		conns = make(connSet)
		p.userConns[user] = conns
	}
	first := len(conns) == 0
	conns[conn] = struct{}{}
	return first
}

// Unregister removes a connection and returns the user it belonged to
// and whether it was that user's last live connection, both decided
// under the registry lock. Unknown connections are a no-op returning
// ok=false: disconnect events may arrive for sessions that never
// completed registration.
func (p *Presence) Unregister(conn domain.ConnID) (user domain.UserID, last, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	user, ok = p.users[conn]
	if !ok {
		return "", false, false
	}
	delete(p.users, conn)
	p.dropConn(user, conn)
	return user, len(p.userConns[user]) == 0, true
}

// dropConn removes conn from the user's set and cleans up empty sets
// to prevent the map from growing over time. Callers hold p.mu.
func (p *Presence) dropConn(user domain.UserID, conn domain.ConnID) {
	if conns, ok := p.userConns[user]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(p.userConns, user)
		}
	}
}

// IsPresent reports whether the user has at least one live connection.
func (p *Presence) IsPresent(user domain.UserID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.userConns[user]) > 0
}

// ConnectionsFor returns a snapshot of the user's live connections.
// The slice is a copy; the transport call happens outside this lock.
func (p *Presence) ConnectionsFor(user domain.UserID) []domain.ConnID {
	p.mu.RLock()
	defer p.mu.RUnlock()

	conns, ok := p.userConns[user]
	if !ok {
		return nil
	}
	res := make([]domain.ConnID, 0, len(conns))
	for c := range conns {
		res = append(res, c)
	}
	return res
}

// OnlineUsers returns a snapshot of every user with at least one
// connection.
func (p *Presence) OnlineUsers() []domain.UserID {
	p.mu.RLock()
	defer p.mu.RUnlock()

	res := make([]domain.UserID, 0, len(p.userConns))
	for u := range p.userConns {
		res = append(res, u)
	}
	return res
}

// Count returns the number of live connections.
func (p *Presence) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.users)
}
