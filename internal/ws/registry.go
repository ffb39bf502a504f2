package ws

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"campus-chat-service/internal/models"
	"campus-chat-service/internal/observability"
)

// Registry is the process-wide presence map from user id to live
// connection. It is the only shared mutable state in the service: every
// read-modify-write of the map happens under the mutex, and the derived
// online-user broadcast works from a snapshot taken under the same lock.
//
// Connections that never announced an identity are tracked so they receive
// broadcasts, but they cannot be addressed by Notify.
type Registry struct {
	mu    sync.RWMutex
	conns map[int]*Client
	anon  map[*Client]struct{}
	log   *logrus.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *logrus.Logger) *Registry {
	return &Registry{
		conns: make(map[int]*Client),
		anon:  make(map[*Client]struct{}),
		log:   log,
	}
}

// Register binds userID to client and broadcasts the new online set. A
// second connection from the same user replaces the first; the replaced
// connection is closed and gets no further deliveries.
func (r *Registry) Register(userID int, client *Client) {
	r.mu.Lock()
	prev := r.conns[userID]
	r.conns[userID] = client
	r.mu.Unlock()

	if prev != nil && prev != client {
		prev.close()
	}
	r.broadcastOnline()
}

// Unregister removes userID's entry only while it still points at client,
// so a replaced connection's teardown cannot evict its successor.
func (r *Registry) Unregister(userID int, client *Client) {
	r.mu.Lock()
	current, ok := r.conns[userID]
	removed := ok && current == client
	if removed {
		delete(r.conns, userID)
	}
	r.mu.Unlock()

	if removed {
		r.broadcastOnline()
	}
}

// RegisterAnonymous tracks a connection with no authenticated identity.
func (r *Registry) RegisterAnonymous(client *Client) {
	r.mu.Lock()
	r.anon[client] = struct{}{}
	r.mu.Unlock()

	r.broadcastOnline()
}

// UnregisterAnonymous stops tracking an anonymous connection. The online
// set did not change, so nothing is broadcast.
func (r *Registry) UnregisterAnonymous(client *Client) {
	r.mu.Lock()
	delete(r.anon, client)
	r.mu.Unlock()
}

// Lookup returns the live connection for userID.
func (r *Registry) Lookup(userID int) (*Client, bool) {
	r.mu.RLock()
	client, ok := r.conns[userID]
	r.mu.RUnlock()
	return client, ok
}

// SnapshotIDs returns the sorted ids of all online users.
func (r *Registry) SnapshotIDs() []int {
	r.mu.RLock()
	ids := make([]int, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Ints(ids)
	return ids
}

// broadcastOnline pushes the current online-user set to every connection,
// named and anonymous. A failed connection is closed here; its read loop
// handles deregistration, which re-broadcasts the shrunken set.
func (r *Registry) broadcastOnline() {
	payload, err := json.Marshal(models.PushEvent{Event: models.EventOnlineUsers, Data: r.SnapshotIDs()})
	if err != nil {
		return
	}

	r.mu.RLock()
	clients := make([]*Client, 0, len(r.conns)+len(r.anon))
	for _, client := range r.conns {
		clients = append(clients, client)
	}
	for client := range r.anon {
		clients = append(clients, client)
	}
	r.mu.RUnlock()

	for _, client := range clients {
		if err := client.write(payload); err != nil {
			r.log.WithError(err).Warn("websocket write failed during online broadcast")
			client.close()
		}
	}
}

// Notify pushes one event frame to userID's live connection. An offline
// user or a failed write is a silent no-op: the message store is the
// durable record and the push is a latency optimization only.
func (r *Registry) Notify(userID int, event string, payload any) {
	client, ok := r.Lookup(userID)
	if !ok {
		observability.IncNotify(event, "offline")
		return
	}

	frame, err := json.Marshal(models.PushEvent{Event: event, Data: payload})
	if err != nil {
		observability.IncNotify(event, "error")
		return
	}

	if err := client.write(frame); err != nil {
		r.log.WithError(err).WithField("user_id", userID).Warn("websocket push failed")
		client.close()
		observability.IncNotify(event, "error")
		return
	}
	observability.IncNotify(event, "delivered")
}
