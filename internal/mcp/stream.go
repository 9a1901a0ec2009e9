package mcp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tourscout/api/schemas"
	"github.com/xkilldash9x/tourscout/internal/search"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Matches the permissive CORS policy of the HTTP routes.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	// Time allowed to write a message to the peer.
	writeWait      = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait       = 60 * time.Second
	// Must be less than pongWait.
	pingPeriod     = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 8192

	sendChannelSize = 256
)

// wsClient is one /ws/v1/search connection. Searches it starts are cancelled
// when the connection goes away.
type wsClient struct {
	server *Server
	conn   *websocket.Conn
	send   chan WSMessage
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger
}

// handleSearchStream upgrades the connection and streams the state of each
// requested search, then its listings.
func (s *Server) handleSearchStream() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Hijacked connections are invisible to http.Server.Shutdown.
		s.wg.Add(1)
		defer s.wg.Done()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written an HTTP error.
			s.logger.Error("Failed to upgrade connection to WebSocket", zap.Error(err))
			return
		}
		s.logger.Info("WebSocket connection established.", zap.String("remoteAddr", r.RemoteAddr))

		ctx, cancel := context.WithCancel(s.baseCtx)
		client := &wsClient{
			server: s,
			conn:   conn,
			send:   make(chan WSMessage, sendChannelSize),
			ctx:    ctx,
			cancel: cancel,
			log:    s.logger.With(zap.String("remoteAddr", r.RemoteAddr)),
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			client.writePump()
		}()
		client.readPump()
	}
}

// readPump owns all reads. It returns when the peer disconnects, the read
// deadline passes or the server shuts down.
func (c *wsClient) readPump() {
	defer func() {
		c.cancel()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Error("Failed to set initial read deadline", zap.Error(err))
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Unblock ReadJSON on shutdown.
	stop := context.AfterFunc(c.ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		var incoming WSMessage
		if err := c.conn.ReadJSON(&incoming); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.log.Warn("WebSocket closed unexpectedly", zap.Error(err))
			} else {
				c.log.Debug("WebSocket connection closed.", zap.Error(err))
			}
			return
		}
		c.log.Debug("Received message from client", zap.Stringer("message", incoming))
		c.processMessage(incoming)
	}
}

// writePump owns all writes and keeps the connection alive with pings.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case message := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.Error("Failed to set write deadline", zap.Error(err))
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.log.Warn("Error writing message to WebSocket", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Warn("Error sending ping", zap.Error(err))
				return
			}
		}
	}
}

func (c *wsClient) processMessage(msg WSMessage) {
	switch msg.Type {
	case MsgTypeSearchRequest:
		requestID := msg.RequestID
		if requestID == "" {
			requestID = uuid.NewString()
		}
		params, err := mapToStruct[SearchParams](msg.Data)
		if err != nil {
			c.sendError(requestID, fmt.Sprintf("Invalid search parameters: %v", err))
			return
		}
		req, err := params.Request()
		if err != nil {
			c.sendError(requestID, err.Error())
			return
		}

		// Searches run off the read loop so pongs and closes keep flowing.
		c.server.wg.Add(1)
		go func() {
			defer c.server.wg.Done()
			c.runSearch(requestID, req)
		}()

	default:
		c.log.Warn("Received unknown message type from client", zap.String("type", string(msg.Type)))
		c.sendError(msg.RequestID, fmt.Sprintf("Unknown or unsupported message type: %s", msg.Type))
	}
}

func (c *wsClient) runSearch(requestID string, req schemas.SearchRequest) {
	observe := func(st search.State) {
		c.sendMessage(MsgTypeStatusUpdate, requestID, map[string]interface{}{
			"state": st.String(),
		})
	}

	tours, err := c.server.svc.SearchWithObserver(c.ctx, req, observe)
	if err != nil {
		c.sendError(requestID, err.Error())
		return
	}
	c.sendMessage(MsgTypeSearchResult, requestID, map[string]interface{}{
		"tours": tours,
		"count": len(tours),
	})
}

// sendMessage queues msg for the write pump. Messages for a closed or
// saturated connection are dropped.
func (c *wsClient) sendMessage(t MessageType, requestID string, data map[string]interface{}) {
	msg := newWSMessage(t, requestID, data)
	select {
	case <-c.ctx.Done():
	case c.send <- msg:
	default:
		c.log.Error("WebSocket send buffer full, dropping message.", zap.Stringer("message", msg))
	}
}

func (c *wsClient) sendError(requestID, message string) {
	c.sendMessage(MsgTypeSystemError, requestID, map[string]interface{}{
		"error": message,
	})
}
