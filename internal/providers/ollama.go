package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// OllamaProvider runs chat completions against a local Ollama server.
type OllamaProvider struct {
	model  string
	client *api.Client
}

func NewOllamaProvider(baseURL, model string, timeout time.Duration) (*OllamaProvider, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "http://localhost:11434"
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse ollama base url: %w", err)
	}
	return &OllamaProvider{
		model:  model,
		client: api.NewClient(u, &http.Client{Timeout: timeout}),
	}, nil
}

func (o *OllamaProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	info := ProviderInfo{Name: "ollama", Model: o.model}
	msgs := req.Messages()
	chat := make([]api.Message, 0, len(msgs))
	for _, m := range msgs {
		chat = append(chat, api.Message{Role: m.Role, Content: m.Content})
	}
	stream := false
	opts := map[string]any{"temperature": req.Temperature}
	if req.MaxTokens > 0 {
		opts["num_predict"] = req.MaxTokens
	}
	var b strings.Builder
	err := o.client.Chat(ctx, &api.ChatRequest{
		Model:    o.model,
		Messages: chat,
		Stream:   &stream,
		Options:  opts,
	}, func(r api.ChatResponse) error {
		b.WriteString(r.Message.Content)
		return nil
	})
	if err != nil {
		return GenerateResponse{}, info, fmt.Errorf("ollama chat request failed: %w", err)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return GenerateResponse{}, info, fmt.Errorf("ollama returned empty content")
	}
	return GenerateResponse{Text: text}, info, nil
}
