package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zhouzirui/appt-dashboard/internal/config"
	"github.com/zhouzirui/appt-dashboard/internal/model/appointment"
	"github.com/zhouzirui/appt-dashboard/internal/model/member"
	"github.com/zhouzirui/appt-dashboard/internal/service/backend"
	chatService "github.com/zhouzirui/appt-dashboard/internal/service/chat"
	"github.com/zhouzirui/appt-dashboard/internal/service/view"
)

type emptySource struct{}

func (emptySource) FetchUsers(context.Context) ([]member.Member, error) { return nil, nil }

func (emptySource) FetchAppointments(context.Context) ([]appointment.Appointment, error) {
	return nil, nil
}

func (emptySource) FetchRaw(context.Context, string) (backend.RawResponse, error) {
	return backend.RawResponse{}, nil
}

type echoSender struct{}

func (echoSender) SendChat(_ context.Context, message, _ string) (string, error) { return message, nil }

func setupRouter() (http.Handler, *chatService.Service) {
	cfg := &config.Config{
		Security: config.SecurityConfig{
			CSRFKey:        []byte("0123456789abcdef0123456789abcdef"),
			TrustedOrigins: []string{"localhost:8080"},
		},
	}
	chatSvc := chatService.NewService(echoSender{})
	return NewRouter(cfg, view.All(emptySource{}), chatSvc), chatSvc
}

func TestHealthz(t *testing.T) {
	r, _ := setupRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if resp.Code != http.StatusOK || strings.TrimSpace(resp.Body.String()) != `{"status":"ok"}` {
		t.Fatalf("unexpected healthz response %d %s", resp.Code, resp.Body.String())
	}
}

func TestChatPostRequiresCSRFToken(t *testing.T) {
	r, chatSvc := setupRouter()
	snap, err := chatSvc.CreateWidget(context.Background())
	if err != nil {
		t.Fatalf("CreateWidget err: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/chat/"+snap.WidgetID+"/send", strings.NewReader(`{"text":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
	widget, _ := chatSvc.GetWidget(context.Background(), snap.WidgetID)
	if n := len(widget.Snapshot().Messages); n != 0 {
		t.Fatalf("rejected request reached the widget: %d entries", n)
	}
}

func TestPageCarriesCSRFTokenAndSecurityHeaders(t *testing.T) {
	r, _ := setupRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/members", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if strings.Contains(resp.Body.String(), `<meta name="csrf-token" content="">`) {
		t.Fatal("page rendered without a csrf token")
	}
	if resp.Header().Get("Content-Security-Policy") == "" {
		t.Fatal("missing security headers")
	}
}

func TestAPIViewsRoute(t *testing.T) {
	r, _ := setupRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/views/members", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}
