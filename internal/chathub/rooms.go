package chathub

import "sync"

// Rooms tracks connected clients and the case rooms they have joined.
// All mutation happens under mu and never spans I/O.
type Rooms struct {
	mu          sync.RWMutex
	clients     map[string]Client            // connID -> client
	rooms       map[string]map[string]Client // room -> connID -> client
	memberships map[string]map[string]struct{}
}

// NewRooms returns an empty registry.
func NewRooms() *Rooms {
	return &Rooms{
		clients:     make(map[string]Client),
		rooms:       make(map[string]map[string]Client),
		memberships: make(map[string]map[string]struct{}),
	}
}

// Attach starts tracking c.
func (r *Rooms) Attach(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.GetConnID()] = c
	if r.memberships[c.GetConnID()] == nil {
		r.memberships[c.GetConnID()] = make(map[string]struct{})
	}
}

// Detach forgets c and removes it from every room. It returns the rooms left.
func (r *Rooms) Detach(c Client) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := c.GetConnID()
	left := make([]string, 0, len(r.memberships[id]))
	for room := range r.memberships[id] {
		left = append(left, room)
		r.leaveLocked(room, id)
	}
	delete(r.memberships, id)
	delete(r.clients, id)
	return left
}

// Join subscribes c to room. It reports false when c is not attached.
func (r *Rooms) Join(room string, c Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := c.GetConnID()
	if _, ok := r.clients[id]; !ok {
		return false
	}

	members := r.rooms[room]
	if members == nil {
		members = make(map[string]Client)
		r.rooms[room] = members
	}
	members[id] = c
	r.memberships[id][room] = struct{}{}
	return true
}

// Leave unsubscribes c from room. Leaving a room twice is harmless.
func (r *Rooms) Leave(room string, c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(room, c.GetConnID())
}

// Members returns a snapshot of the room, skipping excludeConn when set.
func (r *Rooms) Members(room, excludeConn string) []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[room]
	out := make([]Client, 0, len(members))
	for id, c := range members {
		if excludeConn != "" && id == excludeConn {
			continue
		}
		out = append(out, c)
	}
	return out
}

// IsMember reports whether the connection has joined room.
func (r *Rooms) IsMember(room, connID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[room][connID]
	return ok
}

// Count returns the number of attached clients.
func (r *Rooms) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Close clears the registry and returns every client it held.
func (r *Rooms) Close() []Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	r.clients = make(map[string]Client)
	r.rooms = make(map[string]map[string]Client)
	r.memberships = make(map[string]map[string]struct{})
	return out
}

func (r *Rooms) leaveLocked(room, connID string) {
	members := r.rooms[room]
	if members == nil {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
	if m, ok := r.memberships[connID]; ok {
		delete(m, room)
	}
}
