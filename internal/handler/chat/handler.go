package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/zhouzirui/appt-dashboard/internal/model/chat"
	chatService "github.com/zhouzirui/appt-dashboard/internal/service/chat"
	"github.com/zhouzirui/appt-dashboard/pkg/utils"
)

// mdRenderer 不开启 WithUnsafe，回复中的原始 HTML 会被省略
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// Handler 聊天挂件的HTTP处理器
type Handler struct {
	chatSvc  *chatService.Service
	upgrader websocket.Upgrader
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/chat/{widgetID}", func(r chi.Router) {
		r.Get("/", h.handleSnapshot)
		r.Get("/ws", h.handleWebSocket)
		r.Post("/open", h.handleOpen)
		r.Post("/close", h.handleClose)
		r.Post("/send", h.handleSend)
	})
}

// MessageView is a transcript entry as sent to the page.
type MessageView struct {
	Role   schema.RoleType `json:"role"`
	Text   string          `json:"text"`
	HTML   string          `json:"html,omitempty"`
	Failed bool            `json:"failed,omitempty"`
}

// SnapshotView is the widget state as sent to the page.
type SnapshotView struct {
	WidgetID string        `json:"widgetId"`
	Open     bool          `json:"open"`
	Sending  bool          `json:"sending"`
	Messages []MessageView `json:"messages"`
}

// renderSnapshot 将助手回复渲染为HTML，失败条目保持原文
func renderSnapshot(snap chat.Snapshot) SnapshotView {
	out := SnapshotView{
		WidgetID: snap.WidgetID,
		Open:     snap.Open,
		Sending:  snap.Sending,
		Messages: make([]MessageView, 0, len(snap.Messages)),
	}
	for _, m := range snap.Messages {
		mv := MessageView{Role: m.Role, Text: m.Text, Failed: m.Failed}
		if m.Role == schema.Assistant && !m.Failed {
			mv.HTML = renderMarkdown(m.Text)
		}
		out.Messages = append(out.Messages, mv)
	}
	return out
}

func renderMarkdown(md string) string {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return ""
	}
	return buf.String()
}

func (h *Handler) widget(w http.ResponseWriter, r *http.Request) (*chatService.Widget, bool) {
	widget, err := h.chatSvc.GetWidget(r.Context(), chi.URLParam(r, "widgetID"))
	if err != nil {
		respondServiceError(w, err)
		return nil, false
	}
	return widget, true
}

// handleSnapshot 返回挂件当前状态
func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	widget, ok := h.widget(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, renderSnapshot(widget.Snapshot()))
}

// handleOpen 打开聊天窗口
func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	widget, ok := h.widget(w, r)
	if !ok {
		return
	}
	widget.Open()
	utils.RespondJSON(w, http.StatusOK, renderSnapshot(widget.Snapshot()))
}

// handleClose 关闭聊天窗口，保留对话记录
func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	widget, ok := h.widget(w, r)
	if !ok {
		return
	}
	widget.Close()
	utils.RespondJSON(w, http.StatusOK, renderSnapshot(widget.Snapshot()))
}

// handleSend 发送一条消息并等待回复，失败会以助手消息的形式写入记录
func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	widget, ok := h.widget(w, r)
	if !ok {
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	widget.Send(r.Context(), payload.Text)
	utils.RespondJSON(w, http.StatusOK, renderSnapshot(widget.Snapshot()))
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chatService.ErrWidgetRequired):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chatService.ErrWidgetNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}
