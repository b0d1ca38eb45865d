package chat

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/zhouzirui/appt-dashboard/internal/model/chat"
	"github.com/zhouzirui/appt-dashboard/internal/service/backend"
)

// ErrorPrefix starts the assistant entry that replaces a failed reply.
const ErrorPrefix = "Error: "

// Sender delivers one chat message to the backend.
type Sender interface {
	SendChat(ctx context.Context, message, model string) (string, error)
}

// Widget is the floating chat of one page load.
type Widget struct {
	id        string
	createdAt time.Time
	sender    Sender

	mu       sync.Mutex
	open     bool
	sending  bool
	messages []chat.Message
	lastSeen time.Time
	subs     map[int]chan chat.Snapshot
	nextSub  int
}

func newWidget(id string, sender Sender, now time.Time) *Widget {
	return &Widget{
		id:        id,
		createdAt: now,
		sender:    sender,
		messages:  make([]chat.Message, 0, 16),
		lastSeen:  now,
		subs:      make(map[int]chan chat.Snapshot),
	}
}

// ID returns the widget identifier.
func (w *Widget) ID() string {
	return w.id
}

// Open shows the chat window.
func (w *Widget) Open() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.open = true
	w.touchLocked()
	w.notifyLocked()
}

// Close hides the chat window. The transcript is kept.
func (w *Widget) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.open = false
	w.touchLocked()
	w.notifyLocked()
}

// Send appends text as a user message, asks the backend for a reply and
// appends it. Failures become an assistant entry prefixed with "Error: ".
// It reports false, and does nothing, when text is blank.
func (w *Widget) Send(ctx context.Context, text string) bool {
	msg := strings.TrimSpace(text)
	if msg == "" {
		return false
	}

	w.mu.Lock()
	w.messages = append(w.messages, chat.UserMessage(msg))
	w.sending = true
	w.touchLocked()
	w.notifyLocked()
	w.mu.Unlock()

	// a send is never cancelled once issued
	reply, err := w.sender.SendChat(context.WithoutCancel(ctx), msg, backend.DefaultChatModel)

	var answer chat.Message
	if err != nil {
		log.Printf("[chat] widget=%s send failed: %v", w.id, err)
		answer = chat.FailedMessage(ErrorPrefix + err.Error())
	} else {
		answer = chat.AssistantMessage(reply)
	}

	w.mu.Lock()
	w.messages = append(w.messages, answer)
	w.sending = false
	w.touchLocked()
	w.notifyLocked()
	w.mu.Unlock()

	return true
}

// Snapshot returns a copy of the visible state.
func (w *Widget) Snapshot() chat.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Subscribe returns a channel that always holds the latest snapshot after a
// change, and a cancel func that releases it.
func (w *Widget) Subscribe() (<-chan chat.Snapshot, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextSub
	w.nextSub++
	ch := make(chan chat.Snapshot, 1)
	w.subs[id] = ch
	w.touchLocked()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			delete(w.subs, id)
			w.touchLocked()
		})
	}
	return ch, cancel
}

func (w *Widget) idle(now time.Time, ttl time.Duration) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.subs) == 0 && now.Sub(w.lastSeen) > ttl
}

func (w *Widget) snapshotLocked() chat.Snapshot {
	return chat.Snapshot{
		WidgetID:  w.id,
		Open:      w.open,
		Sending:   w.sending,
		Messages:  append([]chat.Message(nil), w.messages...),
		CreatedAt: w.createdAt,
	}
}

func (w *Widget) touchLocked() {
	w.lastSeen = time.Now()
}

// notifyLocked replaces any unread snapshot so slow readers only see the latest.
func (w *Widget) notifyLocked() {
	if len(w.subs) == 0 {
		return
	}
	snap := w.snapshotLocked()
	for _, ch := range w.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
