package httpx

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"chessx/internal/game"
	"chessx/internal/gamesync"
)

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func readReply(t *testing.T, conn *websocket.Conn, want string) wsReply {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg wsReply
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read %s: %v", want, err)
		}
		if msg.Type == want {
			return msg
		}
	}
}

func TestWebSocketMoveBroadcastsToAllClients(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	a := dial(t, ts)
	defer a.Close()
	b := dial(t, ts)
	defer b.Close()

	if first := readReply(t, a, "state"); first.State == nil || len(first.State.Pieces) != 32 {
		t.Fatalf("initial state = %+v", first)
	}
	readReply(t, b, "state")

	if err := a.WriteJSON(wsMessage{Type: "move", Move: "e2e4"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	up := readReply(t, b, "update")
	if up.State.LastMove != "e2e4" {
		t.Fatalf("b saw last move %q", up.State.LastMove)
	}
	if len(up.Events) == 0 || up.Events[len(up.Events)-1].Kind != game.EventMoved {
		t.Fatalf("events = %+v", up.Events)
	}
}

func TestWebSocketErrorsAndSuggestion(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts)
	defer conn.Close()
	readReply(t, conn, "state")

	conn.WriteJSON(wsMessage{Type: "move", Move: "e2e5"})
	if msg := readReply(t, conn, "error"); !strings.Contains(msg.Message, "illegal move") {
		t.Fatalf("error = %q", msg.Message)
	}

	conn.WriteJSON(wsMessage{Type: "bogus"})
	readReply(t, conn, "error")

	conn.WriteJSON(wsMessage{Type: "suggest", Level: 2})
	if msg := readReply(t, conn, "suggestion"); msg.Move == "" {
		t.Fatalf("empty suggestion")
	}
}

func TestWebSocketSyncAdoptsDocument(t *testing.T) {
	srv, store := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts)
	defer conn.Close()
	readReply(t, conn, "state")

	remote := game.NewEngine()
	m, _ := game.ParseMove("c2c4")
	remote.Move(m)
	doc := gamesync.Document{GameID: "test", UpdatedBy: "peer", Revision: 1000, Game: remote.Save(true)}
	if err := conn.WriteJSON(wsMessage{Type: "sync", Document: &doc}); err != nil {
		t.Fatalf("write: %v", err)
	}
	up := readReply(t, conn, "update")
	if up.State.LastMove != "c2c4" {
		t.Fatalf("update = %+v", up)
	}

	// The store write follows the published update.
	var stored gamesync.Document
	var err error
	for attempt := 0; attempt < 100; attempt++ {
		if stored, err = store.Load(context.Background(), "test"); err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("relayed game was not stored: %v", err)
	}
	if stored.Revision >= 1000 || stored.Game.Current.MoveCount() != 1 {
		t.Fatalf("stored = rev %d, %d moves", stored.Revision, stored.Game.Current.MoveCount())
	}

	doc.GameID = "other"
	conn.WriteJSON(wsMessage{Type: "sync", Document: &doc})
	if msg := readReply(t, conn, "error"); !strings.Contains(msg.Message, "another game") {
		t.Fatalf("error = %q", msg.Message)
	}
}
