package chat

import "time"

// Snapshot captures a widget's visible state at one moment.
type Snapshot struct {
	WidgetID  string    `json:"widgetId"`
	Open      bool      `json:"open"`
	Sending   bool      `json:"sending"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
}
