package httpx

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"chessx/internal/game"
	"chessx/internal/gamesync"
	"chessx/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	wsWriteWait     = 5 * time.Second
	wsSubscribeSize = 16
)

// wsMessage is what clients send. Document carries a full game written by
// another client, for peers that relay sync documents over the socket.
type wsMessage struct {
	Type     string             `json:"type"`
	Move     string             `json:"move,omitempty"`
	N        int                `json:"n,omitempty"`
	Level    int                `json:"level,omitempty"`
	Apply    bool               `json:"apply,omitempty"`
	Document *gamesync.Document `json:"document,omitempty"`
}

// wsReply is what the server sends.
type wsReply struct {
	Type     string        `json:"type"`
	State    *session.View `json:"state,omitempty"`
	Events   []game.Event  `json:"events,omitempty"`
	Remote   bool          `json:"remote,omitempty"`
	Move     string        `json:"move,omitempty"`
	Fallback bool          `json:"fallback,omitempty"`
	Message  string        `json:"message,omitempty"`
}

// wsClient serializes writes to one connection.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) send(msg wsReply) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteJSON(msg)
}

func (c *wsClient) sendError(message string) {
	if err := c.send(wsReply{Type: "error", Message: message}); err != nil {
		log.Println("Error sending error message:", err)
	}
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade failed:", err)
		return
	}
	client := &wsClient{conn: conn}
	defer conn.Close()

	updates, unsubscribe := s.session.Subscribe(wsSubscribeSize)
	defer unsubscribe()

	view := s.session.View()
	if err := client.send(wsReply{Type: "state", State: &view}); err != nil {
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case up, ok := <-updates:
				if !ok {
					return
				}
				v := up.View
				if err := client.send(wsReply{Type: "update", State: &v, Events: up.Events, Remote: up.Remote}); err != nil {
					log.Printf("websocket write: %v", err)
					cancel()
					conn.Close()
					return
				}
			}
		}
	}()

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("websocket read: %v", err)
			}
			return
		}
		s.handleSocketMessage(ctx, client, msg)
	}
}

// handleSocketMessage runs one client command. State changes reach the
// client through its update subscription; only errors and suggestions are
// answered directly.
func (s *Server) handleSocketMessage(ctx context.Context, client *wsClient, msg wsMessage) {
	var err error
	switch msg.Type {
	case "state":
		view := s.session.View()
		err = client.send(wsReply{Type: "state", State: &view})
	case "move":
		var m game.Move
		if m, err = game.ParseMove(msg.Move); err == nil {
			_, err = s.session.Move(ctx, m)
		}
	case "undo":
		_, err = s.session.Undo(ctx, stepsBody{N: msg.N}.steps())
	case "redo":
		_, err = s.session.Redo(ctx, stepsBody{N: msg.N}.steps())
	case "reset":
		err = s.session.Reset(ctx)
	case "suggest":
		level := msg.Level
		if level <= 0 {
			level = s.defaultLevel
		}
		var res session.SuggestResult
		if res, err = s.session.Suggest(ctx, level, msg.Apply); err == nil {
			err = client.send(wsReply{
				Type:     "suggestion",
				Move:     res.Suggestion.Move.String(),
				Fallback: res.Suggestion.Fallback,
			})
		}
	case "sync":
		if msg.Document == nil {
			client.sendError("missing document")
			return
		}
		err = s.session.Relay(ctx, *msg.Document)
	default:
		client.sendError("unknown message type " + msg.Type)
		return
	}
	if err != nil {
		client.sendError(err.Error())
	}
}
