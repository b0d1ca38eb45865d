package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRespondError(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, http.StatusNotFound, "widget not found")

	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if body := strings.TrimSpace(rr.Body.String()); body != `{"error":"widget not found"}` {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestSendSSEEvent(t *testing.T) {
	rr := httptest.NewRecorder()
	SetupSSEHeaders(rr)

	if err := SendSSEEvent(rr, rr, "state", map[string]string{"status": "loading"}); err != nil {
		t.Fatalf("SendSSEEvent err: %v", err)
	}

	if got := rr.Body.String(); got != "event: state\ndata: {\"status\":\"loading\"}\n\n" {
		t.Fatalf("unexpected frame %q", got)
	}
	if !rr.Flushed {
		t.Fatal("expected flush")
	}
	if rr.Header().Get("Content-Type") != "text/event-stream" {
		t.Fatal("missing event-stream content type")
	}
}
