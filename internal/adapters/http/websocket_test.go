package http_test

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"

	handler "github.com/samirrijal/arnav/internal/adapters/http"
	"github.com/samirrijal/arnav/internal/core/domain"
)

func serveApp(t *testing.T, deps *handler.Dependencies) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	go app.Listener(ln)
	t.Cleanup(func() { _ = app.Shutdown() })
	return ln.Addr().String()
}

func dialNavigate(t *testing.T, addr, query string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws/navigate?"+query, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func receive(t *testing.T, conn *websocket.Conn, out any) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}

func TestNavigateWebSocket_Session(t *testing.T) {
	addr := serveApp(t, makeDeps())
	conn := dialNavigate(t, addr, "destination=Manzana&session=ws-1")

	var hello struct {
		SessionID string        `json:"session_id"`
		Target    domain.Target `json:"target"`
	}
	receive(t, conn, &hello)
	if hello.SessionID != "ws-1" || hello.Target.Name != "Manzana" {
		t.Fatalf("unexpected greeting %+v", hello)
	}

	// No reply until both sensors have reported.
	send(t, conn, `{"type":"orientation","alpha":90,"beta":90,"gamma":0}`)

	// Missing axis: rejected, previous orientation kept.
	send(t, conn, `{"type":"orientation","beta":90,"gamma":0}`)
	var rejected map[string]string
	receive(t, conn, &rejected)
	if rejected["error"] == "" {
		t.Fatalf("expected an error for an incomplete reading, got %v", rejected)
	}

	send(t, conn, `{"type":"location","location":{"lat":25.6487015,"lon":-100.2898314}}`)
	var st domain.NavigationState
	receive(t, conn, &st)
	if !st.Visible || st.Target.Name != "Manzana" {
		t.Errorf("expected a visible Manzana marker, got %+v", st)
	}
	if st.ETAMinutes < 5 || st.ETAMinutes > 6 {
		t.Errorf("expected a 5-6 minute walk, got %d", st.ETAMinutes)
	}

	send(t, conn, `{"type":"target","destination":"queue"}`)
	var switched struct {
		Target domain.Target `json:"target"`
	}
	receive(t, conn, &switched)
	if switched.Target.Mode != domain.ModeQueue || switched.Target.QueueID != 1 {
		t.Errorf("expected queue 1, got %+v", switched.Target)
	}
}

func TestNavigateWebSocket_UnknownDestination(t *testing.T) {
	addr := serveApp(t, makeDeps())
	conn := dialNavigate(t, addr, "destination=Sprite")

	var msg map[string]string
	receive(t, conn, &msg)
	if msg["error"] == "" {
		t.Fatalf("expected an error, got %v", msg)
	}
}

func TestNavigateWebSocket_BadMessages(t *testing.T) {
	addr := serveApp(t, makeDeps())
	conn := dialNavigate(t, addr, "")

	var hello struct {
		Target domain.Target `json:"target"`
	}
	receive(t, conn, &hello)
	if hello.Target.Name != "CocaCola" {
		t.Fatalf("expected the default destination, got %+v", hello.Target)
	}

	for _, msg := range []string{
		`not json`,
		`{"type":"teleport"}`,
		`{"type":"location"}`,
		`{"type":"location","location":{"lat":120,"lon":0}}`,
	} {
		send(t, conn, msg)
		var reply map[string]any
		receive(t, conn, &reply)
		if _, ok := reply["error"]; !ok {
			t.Errorf("%s: expected an error reply, got %v", msg, reply)
		}
	}
}
