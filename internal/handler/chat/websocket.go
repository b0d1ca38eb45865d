package chat

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/appt-dashboard/internal/model/chat"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	writeWait    = 10 * time.Second
)

type outgoingMessage struct {
	Type      string      `json:"type"`
	WidgetID  string      `json:"widgetId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// handleWebSocket 推送挂件状态快照；连接关闭即视为页面卸载，挂件随之丢弃
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	widgetID := chi.URLParam(r, "widgetID")
	widget, ok := h.widget(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	defer h.chatSvc.DropWidget(context.Background(), widgetID)

	updates, cancel := widget.Subscribe()
	defer cancel()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// 页面不发送业务消息，读循环只用于感知断开
	go func() {
		defer stop()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("[websocket] widget=%s read error: %v", widgetID, err)
				}
				return
			}
		}
	}()
	go pingLoop(ctx, conn)

	if err := sendSnapshot(conn, widget.Snapshot()); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("[websocket] widget=%s disconnected", widgetID)
			return
		case snap := <-updates:
			if err := sendSnapshot(conn, snap); err != nil {
				log.Printf("[websocket] widget=%s write failed: %v", widgetID, err)
				return
			}
		}
	}
}

func sendSnapshot(conn *websocket.Conn, snap chat.Snapshot) error {
	msg := outgoingMessage{
		Type:      "snapshot",
		WidgetID:  snap.WidgetID,
		Data:      renderSnapshot(snap),
		Timestamp: time.Now().Unix(),
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

// pingLoop 定期发送ping消息
func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
