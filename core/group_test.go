package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink captures deliveries per connection. Connections listed in
// dead refuse delivery, simulating a closed websocket.
type recordingSink struct {
	mu        sync.Mutex
	delivered map[string][]*Event
	dead      map[string]bool
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		delivered: make(map[string][]*Event),
		dead:      make(map[string]bool),
	}
}

func (s *recordingSink) Deliver(connID string, e *Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dead[connID] {
		return false
	}
	s.delivered[connID] = append(s.delivered[connID], e)
	return true
}

func (s *recordingSink) events(connID string) []*Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delivered[connID]
}

func (s *recordingSink) kill(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dead[connID] = true
}

func testEvent(t *testing.T, eventType string) *Event {
	t.Helper()
	e, err := NewEvent(eventType, map[string]string{"k": "v"})
	require.Nil(t, err)
	return e
}

func TestGroupKeys(t *testing.T) {
	assert.Equal(t, "user-7", UserGroup(7))
	assert.Equal(t, "chat-12", ChatGroup(12))
}

func TestGroupRegistryBroadcast(t *testing.T) {

	t.Run("delivers to every joined connection", func(t *testing.T) {
		sink := newRecordingSink()
		r := NewGroupRegistry(sink)
		r.Join(ChatGroup(1), "a")
		r.Join(ChatGroup(1), "b")
		r.Join(ChatGroup(2), "c")

		r.Broadcast(ChatGroup(1), testEvent(t, "Ping"))

		assert.Len(t, sink.events("a"), 1)
		assert.Len(t, sink.events("b"), 1)
		assert.Len(t, sink.events("c"), 0)
	})

	t.Run("multiple connections of one user", func(t *testing.T) {
		sink := newRecordingSink()
		r := NewGroupRegistry(sink)
		// same user on two devices
		r.Join(UserGroup(1), "phone")
		r.Join(UserGroup(1), "laptop")

		r.Broadcast(UserGroup(1), testEvent(t, "Ping"))

		assert.Len(t, sink.events("phone"), 1)
		assert.Len(t, sink.events("laptop"), 1)
	})

	t.Run("failed delivery evicts the connection", func(t *testing.T) {
		sink := newRecordingSink()
		r := NewGroupRegistry(sink)
		r.Join(ChatGroup(1), "a")
		r.Join(ChatGroup(1), "b")
		sink.kill("b")

		r.Broadcast(ChatGroup(1), testEvent(t, "Ping"))

		got := r.Connections(ChatGroup(1))
		assert.Equal(t, []string{"a"}, got)
	})
}

func TestGroupRegistryBroadcastExcept(t *testing.T) {
	sink := newRecordingSink()
	r := NewGroupRegistry(sink)
	r.Join(ChatGroup(1), "a")
	r.Join(ChatGroup(1), "b")
	r.Join(ChatGroup(1), "c")

	r.BroadcastExcept(ChatGroup(1), "b", testEvent(t, "Typing"))

	assert.Len(t, sink.events("a"), 1)
	assert.Len(t, sink.events("b"), 0)
	assert.Len(t, sink.events("c"), 1)
}

func TestGroupRegistryLeave(t *testing.T) {

	t.Run("left connection stops receiving", func(t *testing.T) {
		sink := newRecordingSink()
		r := NewGroupRegistry(sink)
		r.Join(ChatGroup(1), "a")
		r.Join(ChatGroup(1), "b")

		r.Leave(ChatGroup(1), "b")
		r.Broadcast(ChatGroup(1), testEvent(t, "Ping"))

		assert.Len(t, sink.events("a"), 1)
		assert.Len(t, sink.events("b"), 0)
	})

	t.Run("leave unknown group or connection is a no-op", func(t *testing.T) {
		sink := newRecordingSink()
		r := NewGroupRegistry(sink)
		r.Leave(ChatGroup(1), "ghost")
		assert.Nil(t, r.Connections(ChatGroup(1)))
	})

	t.Run("leave all on disconnect", func(t *testing.T) {
		sink := newRecordingSink()
		r := NewGroupRegistry(sink)
		r.Join(ChatGroup(1), "a")
		r.Join(ChatGroup(2), "a")
		r.Join(UserGroup(7), "a")
		r.Join(ChatGroup(1), "b")

		r.LeaveAll("a")

		assert.Equal(t, []string{"b"}, r.Connections(ChatGroup(1)))
		assert.Nil(t, r.Connections(ChatGroup(2)))
		assert.Nil(t, r.Connections(UserGroup(7)))
	})
}

func TestGroupRegistryConnections(t *testing.T) {
	sink := newRecordingSink()
	r := NewGroupRegistry(sink)
	r.Join(ChatGroup(1), "a")
	r.Join(ChatGroup(1), "b")

	got := r.Connections(ChatGroup(1))
	sort.Strings(got)
	assert.Equal(t, []string{"a", "b"}, got)
}

// Run with -race: broadcasts snapshot the member set under the registry
// lock while joins and leaves mutate it in place.
func TestGroupRegistryConcurrentMembership(t *testing.T) {
	sink := newRecordingSink()
	r := NewGroupRegistry(sink)
	e := testEvent(t, "Ping")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				connID := fmt.Sprintf("conn-%d-%d", n, j)
				r.Join(ChatGroup(1), connID)
				r.Join(UserGroup(n), connID)
				r.Leave(ChatGroup(1), connID)
				r.LeaveAll(connID)
			}
		}(i)
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				r.Broadcast(ChatGroup(1), e)
				r.BroadcastExcept(ChatGroup(1), "conn-0-0", e)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, r.Connections(ChatGroup(1)))
}

func TestGroupRegistrySendTo(t *testing.T) {
	sink := newRecordingSink()
	r := NewGroupRegistry(sink)

	// SendTo bypasses group membership entirely
	r.SendTo("a", testEvent(t, "Error"))
	assert.Len(t, sink.events("a"), 1)
}

func TestEventCodec(t *testing.T) {
	e, err := NewEvent("ReceiveMessage", map[string]interface{}{"content": "hi"})
	require.Nil(t, err)

	b, err := json.Marshal(e)
	require.Nil(t, err)
	// connection-scoped fields never hit the wire
	assert.NotContains(t, string(b), "ConnID")
	assert.NotContains(t, string(b), "Sender")

	var decoded Event
	require.Nil(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "ReceiveMessage", decoded.Type)

	var payload map[string]interface{}
	require.Nil(t, json.Unmarshal(decoded.Payload, &payload))
	assert.Equal(t, "hi", payload["content"])
}
