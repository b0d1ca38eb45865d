package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/zhouzirui/appt-dashboard/internal/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(config.BackendConfig{BaseURL: srv.URL + "/", Timeout: 5 * time.Second})
}

func TestFetchUsersDecodesCollection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`[{"id":7,"name":"Ada","date_of_birth":"1990-01-02"}]`))
	})

	users, err := client.FetchUsers(context.Background())
	if err != nil {
		t.Fatalf("FetchUsers err: %v", err)
	}
	if len(users) != 1 || users[0].ID != 7 || users[0].Name != "Ada" || users[0].DateOfBirth != "1990-01-02" {
		t.Fatalf("unexpected users: %+v", users)
	}
}

func TestFetchAppointmentsNullBodyIsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`))
	})

	items, err := client.FetchAppointments(context.Background())
	if err != nil {
		t.Fatalf("FetchAppointments err: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", items)
	}
}

func TestNon2xxCarriesBodyText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("database asleep"))
	})

	_, err := client.FetchUsers(context.Background())
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T %v", err, err)
	}
	if apiErr.Error() != "database asleep" {
		t.Fatalf("unexpected message %q", apiErr.Error())
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("unexpected status %d", apiErr.StatusCode)
	}
}

func TestNon2xxEmptyBodyFallsBackToStatusText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.FetchLogs(context.Background())
	if err == nil || err.Error() != "Not Found" {
		t.Fatalf("expected status text, got %v", err)
	}
}

func TestTransportFailureIsNormalized(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(config.BackendConfig{BaseURL: url, Timeout: time.Second})
	_, err := client.FetchUsers(context.Background())

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T %v", err, err)
	}
	if apiErr.StatusCode != 0 || apiErr.Text == "" {
		t.Fatalf("unexpected transport error: %+v", apiErr)
	}
	if apiErr.URL != url+"/users" {
		t.Fatalf("unexpected url %s", apiErr.URL)
	}
}

func TestSendChatPostsMessageAndDefaultModel(t *testing.T) {
	var got ChatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"reply":"hi"}`))
	})

	reply, err := client.SendChat(context.Background(), "hello", "")
	if err != nil {
		t.Fatalf("SendChat err: %v", err)
	}
	if reply != "hi" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if got.Message != "hello" || got.Model != DefaultChatModel {
		t.Fatalf("unexpected request body %+v", got)
	}
}

func TestSendChatMissingReplyIsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"other":"field"}`))
	})

	reply, err := client.SendChat(context.Background(), "hello", "custom-model")
	if err != nil {
		t.Fatalf("SendChat err: %v", err)
	}
	if reply != "" {
		t.Fatalf("expected empty reply, got %q", reply)
	}
}

func TestFetchRawKeepsNon2xx(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("warming up"))
	})

	raw, err := client.FetchRaw(context.Background(), "/users")
	if err != nil {
		t.Fatalf("FetchRaw err: %v", err)
	}
	if raw.Status != "503 Service Unavailable" || raw.Body != "warming up" {
		t.Fatalf("unexpected raw response %+v", raw)
	}
}
