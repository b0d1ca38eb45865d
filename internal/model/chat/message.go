package chat

import "github.com/cloudwego/eino/schema"

// Message is one transcript entry. Role is schema.User or schema.Assistant.
type Message struct {
	Role schema.RoleType `json:"role"`
	Text string          `json:"text"`

	// Failed marks the entry that replaced a reply after a failed send.
	Failed bool `json:"failed,omitempty"`
}

// UserMessage builds a transcript entry typed by the operator.
func UserMessage(text string) Message {
	m := schema.UserMessage(text)
	return Message{Role: m.Role, Text: m.Content}
}

// AssistantMessage builds a transcript entry carrying a reply.
func AssistantMessage(text string) Message {
	m := schema.AssistantMessage(text, nil)
	return Message{Role: m.Role, Text: m.Content}
}

// FailedMessage builds the assistant entry shown instead of a reply.
func FailedMessage(text string) Message {
	msg := AssistantMessage(text)
	msg.Failed = true
	return msg
}
