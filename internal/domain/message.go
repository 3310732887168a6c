package domain

// Turn is one prior message of a conversation.
type Turn struct {
	Role string `json:"role"` // system | user | assistant
	Text string `json:"text"`
}

// ChatRequest is what the request-handling collaborator submits.
type ChatRequest struct {
	ConversationID string  `json:"conversation_id,omitempty"`
	Messages       []Turn  `json:"messages"`
	MaxTokens      int     `json:"max_tokens,omitempty"`
	Temperature    float64 `json:"temperature,omitempty"`
	TopP           float64 `json:"top_p,omitempty"`
	UseTools       *bool   `json:"use_tools,omitempty"` // nil means enabled
}

// ToolsEnabled reports whether tool use is on, defaulting to true.
func (r ChatRequest) ToolsEnabled() bool {
	return r.UseTools == nil || *r.UseTools
}

// ChatResponse is returned to the request-handling collaborator.
type ChatResponse struct {
	ConversationID string       `json:"conversation_id,omitempty"`
	Text           string       `json:"text"`
	ToolCalls      []ToolResult `json:"tool_calls"`
}
