package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/zhouzirui/appt-dashboard/internal/config"
	"github.com/zhouzirui/appt-dashboard/internal/model/appointment"
	"github.com/zhouzirui/appt-dashboard/internal/model/member"
)

// DefaultChatModel is sent with every chat message.
const DefaultChatModel = "gpt-3.5-turbo"

// Error is the single failure kind returned by Client. Error() yields the
// response body text, the status text when the body is empty, or the
// transport error text.
type Error struct {
	URL        string
	StatusCode int
	Text       string
}

func (e *Error) Error() string {
	return e.Text
}

// Client talks to the appointment backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client rooted at cfg.BaseURL.
func NewClient(cfg config.BackendConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// BaseURL returns the resolved backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues GET path and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post issues POST path with body encoded as JSON and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, payload, out)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, out any) error {
	url := c.baseURL + path

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return c.fail(url, &Error{URL: url, Text: err.Error()})
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(url, &Error{URL: url, Text: err.Error()})
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fail(url, &Error{URL: url, StatusCode: resp.StatusCode, Text: err.Error()})
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := string(data)
		if text == "" {
			text = http.StatusText(resp.StatusCode)
		}
		return c.fail(url, &Error{URL: url, StatusCode: resp.StatusCode, Text: text})
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return c.fail(url, &Error{URL: url, StatusCode: resp.StatusCode, Text: err.Error()})
	}
	return nil
}

func (c *Client) fail(url string, err *Error) error {
	log.Printf("[backend] request failed: url=%s status=%d err=%s", url, err.StatusCode, err.Text)
	return err
}

// FetchUsers returns the member collection. A null body yields an empty slice.
func (c *Client) FetchUsers(ctx context.Context) ([]member.Member, error) {
	var users []member.Member
	if err := c.Get(ctx, "/users", &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []member.Member{}
	}
	return users, nil
}

// FetchAppointments returns the appointment collection in backend order.
func (c *Client) FetchAppointments(ctx context.Context) ([]appointment.Appointment, error) {
	var items []appointment.Appointment
	if err := c.Get(ctx, "/appointments", &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []appointment.Appointment{}
	}
	return items, nil
}

// FetchLogs returns the backend action log undecoded. No view renders it yet.
func (c *Client) FetchLogs(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, "/logs", &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
	Model   string `json:"model"`
}

// ChatResponse is the body returned by POST /chat.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// SendChat posts message to /chat. An empty model selects DefaultChatModel.
// A response without a reply field yields an empty reply.
func (c *Client) SendChat(ctx context.Context, message, model string) (string, error) {
	if model == "" {
		model = DefaultChatModel
	}

	var resp ChatResponse
	if err := c.Post(ctx, "/chat", ChatRequest{Message: message, Model: model}, &resp); err != nil {
		return "", err
	}
	return resp.Reply, nil
}

// RawResponse is an undecoded backend response.
type RawResponse struct {
	Status string
	Body   string
}

// FetchRaw issues GET path and returns the status line and body text as-is.
// Non-2xx responses are not errors here; only transport failures are.
func (c *Client) FetchRaw(ctx context.Context, path string) (RawResponse, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return RawResponse{}, c.fail(url, &Error{URL: url, Text: err.Error()})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return RawResponse{}, c.fail(url, &Error{URL: url, Text: err.Error()})
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return RawResponse{}, c.fail(url, &Error{URL: url, StatusCode: resp.StatusCode, Text: err.Error()})
	}

	return RawResponse{
		Status: fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		Body:   string(data),
	}, nil
}
