package providers

import "context"

type ProviderInfo struct {
	Name  string `json:"name"`
	Model string `json:"model"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type GenerateRequest struct {
	Operation   string  `json:"operation"`
	System      string  `json:"system"`
	Question    string  `json:"question"`
	Context     string  `json:"context,omitempty"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type GenerateResponse struct {
	Text string `json:"text"`
}

type LLMProvider interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error)
}

// Messages lays out the chat in the order every provider sends it: the
// system instruction, the extracted file text when present, then the question.
func (r GenerateRequest) Messages() []Message {
	out := make([]Message, 0, 3)
	if r.System != "" {
		out = append(out, Message{Role: RoleSystem, Content: r.System})
	}
	if r.Context != "" {
		out = append(out, Message{Role: RoleUser, Content: "Context from the uploaded file:\n" + r.Context})
	}
	out = append(out, Message{Role: RoleUser, Content: r.Question})
	return out
}
