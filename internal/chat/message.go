package chat

import (
	"fmt"
	"strings"
)

// Role identifies the speaker of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleSystem, RoleUser, RoleAssistant:
		return r, nil
	default:
		return "", fmt.Errorf("unsupported role: %q", s)
	}
}

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation builds the two-turn conversation sent for a chat request.
// An empty persona drops the system turn.
func Conversation(persona, userInput string) []Message {
	msgs := make([]Message, 0, 2)
	if strings.TrimSpace(persona) != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: persona})
	}
	return append(msgs, Message{Role: RoleUser, Content: userInput})
}

// FormatTrainingText renders a question/answer pair with the delimiter scheme
// used for fine-tuning data.
func FormatTrainingText(question, answer string) string {
	return "<|user|>\n" + question + "\n<|assistant|>\n" + answer
}

// RawPrompt renders a bare question the same way training data was formatted,
// leaving the assistant turn open.
func RawPrompt(question string) string {
	return FormatTrainingText(question, "")
}
