package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Event is the wire envelope for both client commands and server
// broadcasts. ConnID and Sender are attached by the connection layer on
// inbound events and never serialized.
type Event struct {
	ConnID  string          `json:"-"`
	Sender  int             `json:"-"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (e Event) String() string {
	return fmt.Sprintf("Event{Conn: %s, Sender: %d, Type: %s, Payload.Size: %d}",
		e.ConnID, e.Sender, e.Type, len(e.Payload))
}

func NewEvent(t string, payload interface{}) (*Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}
	return &Event{Type: t, Payload: b}, nil
}

func EncodeEvent(w io.Writer, e *Event) error {
	if err := json.NewEncoder(w).Encode(e); err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return nil
}

func DecodeEvent(r io.Reader, e *Event) error {
	if err := json.NewDecoder(r).Decode(e); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	return nil
}

// EventTransport is the inbound side of the connection layer.
type EventTransport interface {
	Receive() <-chan *Event
}

type EventHandler func(context.Context, *Event) error

// EventRouter dispatches inbound command events to registered handlers.
// Every command runs on its own goroutine; no global lock serializes
// unrelated commands. Handlers emit resulting events through the registry.
type EventRouter struct {
	listeners map[string]EventHandler
	ctx       context.Context
	transport EventTransport
	registry  *GroupRegistry
	logger    *slog.Logger
}

func NewEventRouter(ctx context.Context, logger *slog.Logger, transport EventTransport, registry *GroupRegistry) *EventRouter {
	return &EventRouter{
		listeners: make(map[string]EventHandler),
		ctx:       ctx,
		transport: transport,
		registry:  registry,
		logger:    logger,
	}
}

func (em *EventRouter) Registry() *GroupRegistry {
	return em.registry
}

func (em *EventRouter) Listen(wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-em.ctx.Done():
			return
		case e, ok := <-em.transport.Receive():
			if !ok {
				return
			}
			em.logger.Debug(fmt.Sprintf("received: %v", e))
			handler, ok := em.listeners[e.Type]
			if !ok {
				em.logger.Error(fmt.Sprintf("no handler for %s", e.Type))
				continue
			}
			go func() {
				if err := handler(em.ctx, e); err != nil {
					em.logger.Error(fmt.Sprintf("%s handler: %s", e.Type, err))
				}
			}()
		}
	}
}

func (em *EventRouter) On(eventType string, handler EventHandler) {
	if _, ok := em.listeners[eventType]; ok {
		panic(fmt.Sprintf("handler(%s): already registered", eventType))
	}
	em.listeners[eventType] = handler
}

// EmitToGroup broadcasts an event to every connection in the group.
func (em *EventRouter) EmitToGroup(group, t string, payload interface{}) error {
	e, err := NewEvent(t, payload)
	if err != nil {
		return err
	}
	em.registry.Broadcast(group, e)
	return nil
}

// EmitToGroupExcept broadcasts to the group, skipping one connection.
func (em *EventRouter) EmitToGroupExcept(group, exceptConnID, t string, payload interface{}) error {
	e, err := NewEvent(t, payload)
	if err != nil {
		return err
	}
	em.registry.BroadcastExcept(group, exceptConnID, e)
	return nil
}

// EmitToConn sends an event to a single connection.
func (em *EventRouter) EmitToConn(connID, t string, payload interface{}) error {
	e, err := NewEvent(t, payload)
	if err != nil {
		return err
	}
	em.registry.SendTo(connID, e)
	return nil
}
