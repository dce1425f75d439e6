package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/controller"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     localOrigin,
}

// WSManager handles WebSocket connections and broadcasting
type WSManager struct {
	server     *Server
	clients    map[*WebSocketClient]bool
	clientsMu  sync.Mutex
	broadcast  chan []byte
	unregister chan *WebSocketClient
	shutdown   chan struct{}
	stopOnce   sync.Once
}

// WebSocketClient represents a connected status viewer
type WebSocketClient struct {
	manager *WSManager
	conn    *websocket.Conn
	send    chan []byte
	ip      string
}

func newWSManager(s *Server) *WSManager {
	return &WSManager{
		server:     s,
		clients:    make(map[*WebSocketClient]bool),
		broadcast:  make(chan []byte),
		unregister: make(chan *WebSocketClient),
		shutdown:   make(chan struct{}),
	}
}

func (m *WSManager) start() {
	logger := m.server.logger
	for {
		select {
		case client := <-m.unregister:
			m.clientsMu.Lock()
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				close(client.send)
				logger.Infof("WS: Client disconnected from %s. Total clients: %d", client.ip, len(m.clients))
			}
			m.clientsMu.Unlock()

		case message := <-m.broadcast:
			m.clientsMu.Lock()
			for client := range m.clients {
				select {
				case client.send <- message:
				default:
					// too slow to keep up
					close(client.send)
					delete(m.clients, client)
				}
			}
			m.clientsMu.Unlock()

		case <-m.shutdown:
			m.clientsMu.Lock()
			for client := range m.clients {
				close(client.send)
				delete(m.clients, client)
			}
			m.clientsMu.Unlock()
			return
		}
	}
}

// add registers a client unless the manager is shut down
func (m *WSManager) add(c *WebSocketClient) bool {
	select {
	case <-m.shutdown:
		return false
	default:
	}
	m.clientsMu.Lock()
	m.clients[c] = true
	n := len(m.clients)
	m.clientsMu.Unlock()
	m.server.logger.Infof("WS: Client connected from %s. Total clients: %d", c.ip, n)
	return true
}

func (m *WSManager) stop() {
	m.stopOnce.Do(func() { close(m.shutdown) })
}

func (m *WSManager) publish(t protocol.MessageType, payload interface{}) {
	data, err := protocol.Encode(t, payload)
	if err != nil {
		m.server.logger.Errorf("WS: Failed to encode %s message: %v", t, err)
		return
	}
	select {
	case m.broadcast <- data:
	case <-m.shutdown:
	}
}

// BroadcastStatus sends a status message to all clients
func (m *WSManager) BroadcastStatus(st controller.Status) {
	m.publish(protocol.TypeStatus, st)
}

// BroadcastProfile sends a profile switch notification to all clients
func (m *WSManager) BroadcastProfile(name string) {
	m.publish(protocol.TypeProfile, protocol.ProfilePayload{Profile: name})
}

// reply queues data for a single client if it is still registered
func (m *WSManager) reply(c *WebSocketClient, data []byte) {
	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()
	if !m.clients[c] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (m *WSManager) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.server.logger.Warnf("WS: Failed to upgrade connection: %v", err)
		return
	}

	client := &WebSocketClient{
		manager: m,
		conn:    conn,
		send:    make(chan []byte, 64),
		ip:      r.RemoteAddr,
	}

	// new clients start from the current status
	if data, err := protocol.Encode(protocol.TypeStatus, m.server.ctl.Status()); err == nil {
		client.send <- data
	}

	if !m.add(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump pumps messages from the websocket connection to the hub.
func (c *WebSocketClient) readPump() {
	defer func() {
		select {
		case c.manager.unregister <- c:
		case <-c.manager.shutdown:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.manager.server.logger.Warnf("WS: Read error: %v", err)
			}
			return
		}
		c.handleMessage(message)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WebSocketClient) handleMessage(data []byte) {
	s := c.manager.server
	msg, err := protocol.Decode(data)
	if err != nil {
		c.sendError(err)
		return
	}

	switch msg.Type {
	case protocol.TypeProfile:
		var payload protocol.ProfilePayload
		if err := protocol.DecodePayload(msg, &payload); err != nil {
			c.sendError(err)
			return
		}
		s.logger.Infof("WS: Received switch request to '%s' from %s", payload.Profile, c.ip)
		// the switch callback broadcasts the result
		if err := s.profiles.SwitchToProfile(payload.Profile); err != nil {
			c.sendError(err)
		}

	case protocol.TypePause:
		var payload protocol.PausePayload
		if err := protocol.DecodePayload(msg, &payload); err != nil {
			c.sendError(err)
			return
		}
		if err := s.ctl.SetPaused(payload.Paused); err != nil {
			c.sendError(err)
		}

	case protocol.TypeSyncRequest:
		names, err := s.profiles.ListProfiles()
		if err != nil {
			c.sendError(err)
			return
		}
		resp, err := protocol.Encode(protocol.TypeSyncResponse, protocol.SyncResponsePayload{
			Status:   s.ctl.Status(),
			Profile:  s.profiles.Current().Name,
			Profiles: names,
		})
		if err == nil {
			c.manager.reply(c, resp)
		}

	case protocol.TypePing:
		if resp, err := protocol.Encode(protocol.TypePing, nil); err == nil {
			c.manager.reply(c, resp)
		}

	default:
		s.logger.Debugf("WS: Ignoring message type %q from %s", msg.Type, c.ip)
	}
}

func (c *WebSocketClient) sendError(err error) {
	if data, encErr := protocol.Encode(protocol.TypeError, protocol.ErrorPayload{Error: err.Error()}); encErr == nil {
		c.manager.reply(c, data)
	}
}
