// Package room maintains live-connection membership per incident and
// multicasts timeline events to it.
package room

import (
	"log/slog"
	"sync"
)

// Connection is a live subscriber capable of receiving structured
// messages. Send returns an error when delivery is no longer possible;
// the broadcaster then drops the connection from its room.
type Connection interface {
	Send(message any) error
}

// Broadcaster maps incident identities to their set of live connections.
// Its lock is independent from the store's so slow broadcasts never
// contend with timeline reads or writes.
type Broadcaster struct {
	mu    sync.Mutex
	rooms map[int64]map[Connection]struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{rooms: make(map[int64]map[Connection]struct{})}
}

// Connect registers a connection into the incident's room, creating the
// room if absent. The connection must have completed its handshake.
func (b *Broadcaster) Connect(incidentID int64, conn Connection) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.rooms[incidentID]
	if !ok {
		r = make(map[Connection]struct{})
		b.rooms[incidentID] = r
	}
	r[conn] = struct{}{}

	recordRoomConnections(b.countLocked())
}

// Disconnect removes a connection from the incident's room; an empty room
// is deleted so the directory never holds dangling entries.
func (b *Broadcaster) Disconnect(incidentID int64, conn Connection) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.removeLocked(incidentID, conn)
	recordRoomConnections(b.countLocked())
}

// Broadcast delivers the message to every connection currently in the
// incident's room. Membership is snapshotted under the lock and delivery
// happens without it, so a slow or blocked recipient cannot stall new
// registrations or other rooms. A failed delivery marks the connection
// dead and it is pruned afterward. Broadcasting to a nonexistent or empty
// room is a no-op.
func (b *Broadcaster) Broadcast(incidentID int64, message any) {
	b.mu.Lock()
	conns := make([]Connection, 0, len(b.rooms[incidentID]))
	for conn := range b.rooms[incidentID] {
		conns = append(conns, conn)
	}
	b.mu.Unlock()

	if len(conns) == 0 {
		return
	}

	var dead []Connection
	for _, conn := range conns {
		if err := conn.Send(message); err != nil {
			slog.Debug("dropping dead room connection",
				"incident_id", incidentID,
				"error", err,
			)
			dead = append(dead, conn)
		}
	}

	recordBroadcast(len(conns), len(dead))

	if len(dead) == 0 {
		return
	}

	b.mu.Lock()
	for _, conn := range dead {
		b.removeLocked(incidentID, conn)
	}
	recordRoomConnections(b.countLocked())
	b.mu.Unlock()
}

// RoomSize returns the current number of connections in the incident's
// room.
func (b *Broadcaster) RoomSize(incidentID int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.rooms[incidentID])
}

func (b *Broadcaster) removeLocked(incidentID int64, conn Connection) {
	r, ok := b.rooms[incidentID]
	if !ok {
		return
	}
	delete(r, conn)
	if len(r) == 0 {
		delete(b.rooms, incidentID)
	}
}

func (b *Broadcaster) countLocked() int {
	total := 0
	for _, r := range b.rooms {
		total += len(r)
	}
	return total
}
