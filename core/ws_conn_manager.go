package core

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/net/context"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

var defaultUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ConnManager owns every live websocket connection. It is the ConnSink the
// group registry delivers through, and the EventTransport the router reads
// inbound commands from.
type ConnManager struct {
	// conns groups a user's connections; byID resolves a connection id
	// for delivery.
	conns   map[int][]*Conn
	byID    map[string]*Conn
	mu      sync.RWMutex
	connWg  *sync.WaitGroup
	context context.Context
	logger  *slog.Logger

	onConnectionOpened func(context.Context, int, string)
	onConnectionClosed func(context.Context, int, string)

	receivedEvent chan *Event

	upgrader        websocket.Upgrader
	ReadStreamSize  int
	WriteStreamSize int
}

type ManagerOption func(*ConnManager)

func WithCheckOrigin(f func(r *http.Request) bool) ManagerOption {
	return func(m *ConnManager) {
		m.upgrader.CheckOrigin = f
	}
}

func NewConnManager(ctx context.Context, wg *sync.WaitGroup, logger *slog.Logger, opts ...ManagerOption) *ConnManager {
	m := &ConnManager{
		connWg:             wg,
		conns:              make(map[int][]*Conn),
		byID:               make(map[string]*Conn),
		logger:             logger,
		context:            ctx,
		upgrader:           defaultUpgrader,
		ReadStreamSize:     100,
		WriteStreamSize:    100,
		onConnectionOpened: func(context.Context, int, string) {},
		onConnectionClosed: func(context.Context, int, string) {},
	}

	for _, opt := range opts {
		opt(m)
	}

	m.receivedEvent = make(chan *Event, m.ReadStreamSize)

	return m
}

func (m *ConnManager) Receive() <-chan *Event {
	return m.receivedEvent
}

func (m *ConnManager) OnConnectionOpened(f func(context.Context, int, string)) {
	m.onConnectionOpened = f
}

func (m *ConnManager) OnConnectionClosed(f func(context.Context, int, string)) {
	m.onConnectionClosed = f
}

func (m *ConnManager) IsUserConnected(userID int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.conns[userID]
	return ok
}

// ConnIDs returns the ids of the user's live connections.
func (m *ConnManager) ConnIDs(userID int) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conns := m.conns[userID]
	ids := make([]string, 0, len(conns))
	for _, c := range conns {
		ids = append(ids, c.id)
	}
	return ids
}

// Connect upgrades the request and starts the connection's read and write
// loops. userID must already be authenticated by the caller.
func (m *ConnManager) Connect(userID int, w http.ResponseWriter, r *http.Request) error {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	id := uuid.New().String()
	wsConn := &Conn{
		userID:      userID,
		id:          id,
		conn:        conn,
		context:     m.context,
		writeStream: make(chan *Event, m.WriteStreamSize),
		readStream:  m.receivedEvent,
		ticker:      time.NewTicker(pingPeriod),
		logger:      m.logger.With(slog.String("connection", fmt.Sprintf("%d:%s", userID, id))),
		notifyDisconnect: func() {
			m.disconnect(userID, id)
		},
	}

	m.mu.Lock()
	m.conns[userID] = append(m.conns[userID], wsConn)
	m.byID[id] = wsConn
	m.mu.Unlock()

	m.connWg.Add(1)
	go func() {
		defer m.connWg.Done()
		wsConn.readLoop()
	}()
	m.connWg.Add(1)
	go func() {
		defer m.connWg.Done()
		wsConn.writeLoop()
	}()

	m.onConnectionOpened(m.context, userID, id)

	return nil
}

func (m *ConnManager) disconnect(userID int, connID string) {
	m.mu.Lock()
	conns, ok := m.conns[userID]
	if !ok {
		m.mu.Unlock()
		return
	}

	idx := slices.IndexFunc(conns, func(c *Conn) bool { return c.id == connID })
	if idx == -1 {
		m.mu.Unlock()
		return
	}
	conns[idx].close()
	conns = slices.Delete(conns, idx, idx+1)
	if len(conns) == 0 {
		delete(m.conns, userID)
	} else {
		m.conns[userID] = conns
	}
	delete(m.byID, connID)
	m.mu.Unlock()

	m.onConnectionClosed(m.context, userID, connID)
}

// CloseAll disconnects every live connection. Used on shutdown.
func (m *ConnManager) CloseAll() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.byID))
	userIDs := make(map[string]int, len(m.byID))
	for id, c := range m.byID {
		ids = append(ids, id)
		userIDs[id] = c.userID
	}
	m.mu.RUnlock()

	for _, id := range ids {
		m.disconnect(userIDs[id], id)
	}
}

// Deliver sends an event to a connection. It reports false when the
// connection does not exist or its write buffer is full; a full buffer
// disconnects the client, mirroring slow-consumer eviction.
func (m *ConnManager) Deliver(connID string, e *Event) bool {
	m.mu.RLock()
	conn, ok := m.byID[connID]
	if !ok {
		m.mu.RUnlock()
		return false
	}
	// The send happens under the read lock so a concurrent disconnect
	// cannot close the stream mid-send.
	select {
	case conn.writeStream <- e:
		m.mu.RUnlock()
		return true
	default:
		m.mu.RUnlock()
		m.disconnect(conn.userID, conn.id)
		return false
	}
}
