package core

import "strconv"

// UserGroup is the broadcast address for direct, user-addressed events.
// Every connection of the user that has joined it receives the event.
func UserGroup(userID int) string {
	return "user-" + strconv.Itoa(userID)
}

// ChatGroup is the broadcast address for a chat room.
func ChatGroup(chatID int) string {
	return "chat-" + strconv.Itoa(chatID)
}

// ConnSink delivers an event to a single live connection. Deliver reports
// false when the connection is gone; the registry treats that as a leave.
type ConnSink interface {
	Deliver(connID string, e *Event) bool
}

// GroupRegistry tracks which live connections are interested in which
// logical group key. It holds no durable state: group membership reflects
// who is currently listening, not who is authorized, and is rebuilt from
// explicit joins after every reconnect.
type GroupRegistry struct {
	// groups maps a group key to the set of joined connection ids.
	groups *SyncMap[string, map[string]struct{}]
	// byConn maps a connection id to the group keys it has joined, so a
	// disconnect can tear all of them down in one call.
	byConn *SyncMap[string, map[string]struct{}]
	sink   ConnSink
}

func NewGroupRegistry(sink ConnSink) *GroupRegistry {
	return &GroupRegistry{
		groups: NewSyncMap[string, map[string]struct{}](),
		byConn: NewSyncMap[string, map[string]struct{}](),
		sink:   sink,
	}
}

func (r *GroupRegistry) Join(key string, connID string) {
	r.groups.LoadAndStore(key, func(members map[string]struct{}, ok bool) map[string]struct{} {
		if !ok {
			members = make(map[string]struct{})
		}
		members[connID] = struct{}{}
		return members
	})
	r.byConn.LoadAndStore(connID, func(keys map[string]struct{}, ok bool) map[string]struct{} {
		if !ok {
			keys = make(map[string]struct{})
		}
		keys[key] = struct{}{}
		return keys
	})
}

func (r *GroupRegistry) Leave(key string, connID string) {
	r.groups.LoadAndDelete(key, func(members map[string]struct{}, ok bool) (map[string]struct{}, bool) {
		if !ok {
			return nil, false
		}
		delete(members, connID)
		return members, len(members) > 0
	})
	r.byConn.LoadAndDelete(connID, func(keys map[string]struct{}, ok bool) (map[string]struct{}, bool) {
		if !ok {
			return nil, false
		}
		delete(keys, key)
		return keys, len(keys) > 0
	})
}

// LeaveAll removes the connection from every group it has joined. Called
// on connection teardown.
func (r *GroupRegistry) LeaveAll(connID string) {
	var joined []string
	r.byConn.View(connID, func(keys map[string]struct{}, ok bool) {
		for key := range keys {
			joined = append(joined, key)
		}
	})
	for _, key := range joined {
		r.Leave(key, connID)
	}
}

// Connections returns the ids of the connections currently joined to key.
// The member set is snapshotted under the lock; Join and Leave mutate the
// inner maps in place, so the live map must never escape it.
func (r *GroupRegistry) Connections(key string) []string {
	var ids []string
	r.groups.View(key, func(members map[string]struct{}, ok bool) {
		if !ok {
			return
		}
		ids = make([]string, 0, len(members))
		for id := range members {
			ids = append(ids, id)
		}
	})
	return ids
}

// Broadcast delivers the event to every connection joined to key.
func (r *GroupRegistry) Broadcast(key string, e *Event) {
	for _, connID := range r.Connections(key) {
		if !r.sink.Deliver(connID, e) {
			r.Leave(key, connID)
		}
	}
}

// BroadcastExcept delivers the event to every connection joined to key
// except the given one. Used for typing relays where the caller already
// knows its own state.
func (r *GroupRegistry) BroadcastExcept(key string, exceptConnID string, e *Event) {
	for _, connID := range r.Connections(key) {
		if connID == exceptConnID {
			continue
		}
		if !r.sink.Deliver(connID, e) {
			r.Leave(key, connID)
		}
	}
}

// SendTo delivers the event to a single connection, bypassing groups.
func (r *GroupRegistry) SendTo(connID string, e *Event) {
	r.sink.Deliver(connID, e)
}
