package stream

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/appt-dashboard/internal/service/loader"
	"github.com/zhouzirui/appt-dashboard/internal/service/view"
	"github.com/zhouzirui/appt-dashboard/pkg/utils"
)

// Handler streams view lifecycles via Server-Sent Events
type Handler struct {
	views []view.Definition
	opts  []loader.Option
}

// New creates a new stream handler
func New(views []view.Definition, opts ...loader.Option) *Handler {
	return &Handler{
		views: views,
		opts:  opts,
	}
}

// StateResponse is the JSON body of a settled view.
type StateResponse struct {
	Name  string       `json:"name"`
	State loader.State `json:"state"`
	Model any          `json:"model,omitempty"`
}

// RegisterRoutes registers the view data routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/views/{name}", h.handleState)
	r.Get("/views/{name}/events", h.handleEvents)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (view.Definition, bool) {
	name := chi.URLParam(r, "name")
	def, ok := view.Find(h.views, name)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "view not found")
	}
	return def, ok
}

// handleState mounts the view, waits for it to settle and returns the outcome.
// A failed load answers 502 with the backend's error text.
func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	def, ok := h.lookup(w, r)
	if !ok {
		return
	}

	v := loader.Mount(r.Context(), def.Name, def.Ops, h.opts...)
	defer v.Unmount()

	state := v.Wait(r.Context())
	switch state.Status {
	case loader.StatusReady:
		utils.RespondJSON(w, http.StatusOK, StateResponse{Name: def.Name, State: state, Model: def.Project(state)})
	case loader.StatusError:
		utils.RespondJSON(w, http.StatusBadGateway, StateResponse{Name: def.Name, State: state})
	default:
		log.Printf("[stream] %s: client gone before the view settled", def.Name)
	}
}

// handleEvents emits a "state" event per lifecycle step and a final "ready"
// event carrying the view model.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	def, ok := h.lookup(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	utils.SetupSSEHeaders(w)

	ctx := r.Context()
	log.Printf("[sse] opening view stream for %s", def.Name)

	v := loader.Mount(ctx, def.Name, def.Ops, h.opts...)
	defer v.Unmount()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[sse] closing view stream for %s", def.Name)
			return
		case state, ok := <-v.Updates():
			if !ok {
				return
			}
			if err := utils.SendSSEEvent(w, flusher, "state", state); err != nil {
				return
			}
			if state.Status == loader.StatusReady {
				if err := utils.SendSSEEvent(w, flusher, "ready", def.Project(state)); err != nil {
					return
				}
			}
		}
	}
}
