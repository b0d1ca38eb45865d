package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatservice "github.com/zhouzirui/appt-dashboard/internal/service/chat"
)

type stubSender struct {
	reply string
	err   error
}

func (s stubSender) SendChat(context.Context, string, string) (string, error) {
	return s.reply, s.err
}

func setupRouter(sender chatservice.Sender) (*chi.Mux, *chatservice.Service, string) {
	chatSvc := chatservice.NewService(sender)
	snap, _ := chatSvc.CreateWidget(context.Background())
	handler := New(chatSvc)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, chatSvc, snap.WidgetID
}

func postJSON(r http.Handler, path string, body any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeSnapshot(t *testing.T, resp *httptest.ResponseRecorder) SnapshotView {
	t.Helper()
	var snap SnapshotView
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return snap
}

func TestSendReturnsTranscript(t *testing.T) {
	r, _, id := setupRouter(stubSender{reply: "**hi**"})

	resp := postJSON(r, "/chat/"+id+"/send", map[string]string{"text": "hello"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	snap := decodeSnapshot(t, resp)
	if len(snap.Messages) != 2 {
		t.Fatalf("unexpected transcript %+v", snap.Messages)
	}
	if snap.Messages[0].Role != schema.User || snap.Messages[0].Text != "hello" || snap.Messages[0].HTML != "" {
		t.Fatalf("unexpected user entry %+v", snap.Messages[0])
	}
	if snap.Messages[1].Role != schema.Assistant || !strings.Contains(snap.Messages[1].HTML, "<strong>hi</strong>") {
		t.Fatalf("unexpected assistant entry %+v", snap.Messages[1])
	}
}

func TestSendBlankAddsNothing(t *testing.T) {
	r, _, id := setupRouter(stubSender{reply: "hi"})

	snap := decodeSnapshot(t, postJSON(r, "/chat/"+id+"/send", map[string]string{"text": "   "}))
	if len(snap.Messages) != 0 {
		t.Fatalf("blank input added entries: %+v", snap.Messages)
	}
}

func TestSendFailureIsInlineEntry(t *testing.T) {
	r, _, id := setupRouter(stubSender{err: errors.New("Service Unavailable")})

	resp := postJSON(r, "/chat/"+id+"/send", map[string]string{"text": "hello"})
	if resp.Code != http.StatusOK {
		t.Fatalf("backend failure must not fail the request, got %d", resp.Code)
	}
	snap := decodeSnapshot(t, resp)
	if snap.Messages[1].Text != "Error: Service Unavailable" {
		t.Fatalf("unexpected error entry %+v", snap.Messages[1])
	}
}

func TestAssistantHTMLOmitsRawMarkup(t *testing.T) {
	r, _, id := setupRouter(stubSender{reply: "<script>alert(1)</script>"})

	snap := decodeSnapshot(t, postJSON(r, "/chat/"+id+"/send", map[string]string{"text": "hello"}))
	if strings.Contains(snap.Messages[1].HTML, "<script>") {
		t.Fatalf("raw html leaked: %s", snap.Messages[1].HTML)
	}
}

func TestFailedEntryKeepsHTMLErrorText(t *testing.T) {
	body := "<html><body><h1>502 Bad Gateway</h1></body></html>"
	r, _, id := setupRouter(stubSender{err: errors.New(body)})

	snap := decodeSnapshot(t, postJSON(r, "/chat/"+id+"/send", map[string]string{"text": "hello"}))
	entry := snap.Messages[1]
	if !entry.Failed || entry.HTML != "" {
		t.Fatalf("failed entry must not be rendered as markdown: %+v", entry)
	}
	if entry.Text != "Error: "+body {
		t.Fatalf("failure text altered: %q", entry.Text)
	}
}

func TestOpenCloseAndSnapshot(t *testing.T) {
	r, _, id := setupRouter(stubSender{})

	if snap := decodeSnapshot(t, postJSON(r, "/chat/"+id+"/open", nil)); !snap.Open {
		t.Fatal("expected open widget")
	}

	req := httptest.NewRequest(http.MethodGet, "/chat/"+id+"/", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if snap := decodeSnapshot(t, resp); !snap.Open || snap.WidgetID != id {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	if snap := decodeSnapshot(t, postJSON(r, "/chat/"+id+"/close", nil)); snap.Open {
		t.Fatal("expected closed widget")
	}
}

func TestUnknownWidget(t *testing.T) {
	r, _, _ := setupRouter(stubSender{})

	resp := postJSON(r, "/chat/missing/send", map[string]string{"text": "hello"})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestSendInvalidBody(t *testing.T) {
	r, _, id := setupRouter(stubSender{})

	req := httptest.NewRequest(http.MethodPost, "/chat/"+id+"/send", strings.NewReader("{"))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func readSnapshot(t *testing.T, conn *websocket.Conn) SnapshotView {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var msg struct {
		Type string       `json:"type"`
		Data SnapshotView `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if msg.Type != "snapshot" {
		t.Fatalf("unexpected message type %q", msg.Type)
	}
	return msg.Data
}

func TestWebSocketPushesSnapshotsAndDropsWidget(t *testing.T) {
	r, chatSvc, id := setupRouter(stubSender{reply: "hi"})
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	if snap := readSnapshot(t, conn); snap.Open || len(snap.Messages) != 0 {
		t.Fatalf("unexpected initial snapshot %+v", snap)
	}

	resp, err := http.Post(srv.URL+"/chat/"+id+"/open", "application/json", nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	resp.Body.Close()

	if snap := readSnapshot(t, conn); !snap.Open {
		t.Fatalf("expected open snapshot, got %+v", snap)
	}

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for chatSvc.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("widget not dropped after the socket closed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocketUnknownWidget(t *testing.T) {
	r, _, _ := setupRouter(stubSender{})
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/missing/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial failure")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 response, got %+v", resp)
	}
}
