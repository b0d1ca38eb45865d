package view

import (
	"context"

	"github.com/zhouzirui/appt-dashboard/internal/service/loader"
)

// RawPanel shows one endpoint's raw response.
type RawPanel struct {
	Path   string `json:"path"`
	Status string `json:"status"`
	Body   string `json:"body"`
	Err    string `json:"error,omitempty"`
}

// DebugModel is the Debug view model.
type DebugModel struct {
	Panels []RawPanel `json:"panels"`
}

var debugPaths = []string{"/users", "/appointments"}

// Debug fetches raw backend responses. A failing endpoint fills its own panel
// instead of failing the view.
func Debug(src Source) Definition {
	ops := make([]loader.Op, 0, len(debugPaths))
	for _, path := range debugPaths {
		path := path
		ops = append(ops, loader.Op{Name: path, Fetch: func(ctx context.Context) (any, error) {
			raw, err := src.FetchRaw(ctx, path)
			if err != nil {
				return RawPanel{Path: path, Status: "error", Err: err.Error()}, nil
			}
			return RawPanel{Path: path, Status: raw.Status, Body: raw.Body}, nil
		}})
	}

	return Definition{
		Name:    "debug",
		Title:   "Debug",
		Path:    "/debug",
		Loading: "Fetching raw responses...",
		Ops:     ops,
		Project: func(state loader.State) any {
			model := DebugModel{Panels: make([]RawPanel, 0, len(debugPaths))}
			for _, path := range debugPaths {
				if panel, ok := loader.Result[RawPanel](state, path); ok {
					model.Panels = append(model.Panels, panel)
				}
			}
			return model
		},
	}
}
