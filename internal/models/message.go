package models

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatTurn is one turn of a conversation as supplied by the client.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
