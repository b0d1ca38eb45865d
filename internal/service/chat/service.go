package chat

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zhouzirui/appt-dashboard/internal/model/chat"
)

// DefaultIdleTTL is how long a widget without subscribers survives untouched.
const DefaultIdleTTL = 30 * time.Minute

var (
	ErrWidgetRequired = errors.New("widget id is required")
	ErrWidgetNotFound = errors.New("widget not found")
)

// Service keeps the widgets of the page loads currently open.
type Service struct {
	sender  Sender
	idleTTL time.Duration

	mu      sync.RWMutex
	widgets map[string]*Widget
}

// NewService bootstraps the in-memory widget registry.
func NewService(sender Sender) *Service {
	return &Service{
		sender:  sender,
		idleTTL: DefaultIdleTTL,
		widgets: make(map[string]*Widget),
	}
}

// CreateWidget provisions a fresh, closed widget with an empty transcript.
func (s *Service) CreateWidget(_ context.Context) (chat.Snapshot, error) {
	w := newWidget(uuid.NewString(), s.sender, time.Now().UTC())

	s.mu.Lock()
	s.widgets[w.ID()] = w
	s.mu.Unlock()

	return w.Snapshot(), nil
}

// GetWidget retrieves a widget by identifier.
func (s *Service) GetWidget(_ context.Context, widgetID string) (*Widget, error) {
	if widgetID == "" {
		return nil, ErrWidgetRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.widgets[widgetID]
	if !ok {
		return nil, ErrWidgetNotFound
	}
	return w, nil
}

// DropWidget forgets a widget and its transcript.
func (s *Service) DropWidget(_ context.Context, widgetID string) {
	s.mu.Lock()
	delete(s.widgets, widgetID)
	s.mu.Unlock()
}

// Count reports how many widgets are held.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.widgets)
}

// Sweep drops widgets that have no subscriber and were idle longer than the TTL.
func (s *Service) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for id, w := range s.widgets {
		if w.idle(now, s.idleTTL) {
			delete(s.widgets, id)
			dropped++
		}
	}
	return dropped
}

// RunSweeper calls Sweep every interval until ctx ends.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.Sweep(now); n > 0 {
				log.Printf("[chat] swept %d idle widgets", n)
			}
		}
	}
}
