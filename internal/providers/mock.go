package providers

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MockProvider answers without any network call, for local runs and tests.
type MockProvider struct {
	reply string
}

func NewMockProvider(reply string) *MockProvider {
	return &MockProvider{reply: reply}
}

func (m *MockProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	_ = ctx
	info := ProviderInfo{Name: "mock", Model: "mock-llm-v1"}
	if m.reply != "" {
		return GenerateResponse{Text: m.reply}, info, nil
	}
	text := fmt.Sprintf("Mock answer to %q.", strings.TrimSpace(req.Question))
	if req.Context != "" {
		text += fmt.Sprintf(" Context had %d characters.", utf8.RuneCountInString(req.Context))
	}
	return GenerateResponse{Text: text}, info, nil
}
