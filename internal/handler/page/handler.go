package page

import (
	"embed"
	"html/template"
	"io/fs"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"

	"github.com/zhouzirui/appt-dashboard/internal/service/chat"
	"github.com/zhouzirui/appt-dashboard/internal/service/loader"
	"github.com/zhouzirui/appt-dashboard/internal/service/view"
	"github.com/zhouzirui/appt-dashboard/pkg/utils"
)

// Brand and Badge are fixed labels of the page chrome.
const (
	Brand = "APPT SYSTEM"
	Badge = "Admin User"
)

//go:embed templates/*.html static/*
var assets embed.FS

var templates = template.Must(template.ParseFS(assets, "templates/*.html"))

// NavItem is one sidebar link.
type NavItem struct {
	Label  string
	Path   string
	Active bool
}

// shell 是页面外壳模板的数据
type shell struct {
	Brand     string
	Badge     string
	Title     string
	Nav       []NavItem
	Loading   string
	CSRFToken string
	WidgetID  string
}

// Handler 渲染仪表盘页面
type Handler struct {
	views   []view.Definition
	chatSvc *chat.Service
	opts    []loader.Option
}

// New 创建页面处理器
func New(views []view.Definition, chatSvc *chat.Service, opts ...loader.Option) *Handler {
	return &Handler{
		views:   views,
		chatSvc: chatSvc,
		opts:    opts,
	}
}

// RegisterRoutes 注册页面和静态资源路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	static, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	for _, def := range h.views {
		r.Get(def.Path, h.handleView(def))
	}
}

// handleView streams one view: the shell with its loading indicator first,
// then the cold-start notice if loading drags on, then the final fragment.
func (h *Handler) handleView(def view.Definition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}

		widget, err := h.chatSvc.CreateWidget(r.Context())
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")

		data := shell{
			Brand:     Brand,
			Badge:     Badge,
			Title:     def.Title,
			Nav:       h.nav(def),
			Loading:   def.Loading,
			CSRFToken: csrf.Token(r),
			WidgetID:  widget.WidgetID,
		}
		if !h.render(w, "head", data) {
			return
		}
		flusher.Flush()

		ctx := r.Context()
		v := loader.Mount(ctx, def.Name, def.Ops, h.opts...)
		defer v.Unmount()

		noticeShown := false
		for {
			select {
			case <-ctx.Done():
				log.Printf("[page] %s: client gone before the view settled", def.Name)
				return
			case state, ok := <-v.Updates():
				if !ok {
					h.render(w, "foot", data)
					return
				}

				switch {
				case state.Status == loader.StatusError:
					h.render(w, "error", state.Err)
				case state.Status == loader.StatusReady:
					h.render(w, def.Name, def.Project(state))
				case state.LongLoading && !noticeShown:
					noticeShown = true
					h.render(w, "coldstart", nil)
				}
				flusher.Flush()
			}
		}
	}
}

func (h *Handler) nav(active view.Definition) []NavItem {
	items := make([]NavItem, 0, len(h.views))
	for _, def := range h.views {
		items = append(items, NavItem{
			Label:  def.Title,
			Path:   def.Path,
			Active: def.Name == active.Name,
		})
	}
	return items
}

func (h *Handler) render(w http.ResponseWriter, name string, data any) bool {
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("[page] render %s failed: %v", name, err)
		return false
	}
	return true
}
