package providers

import (
	"context"
	"fmt"
	"time"

	"askdoc/internal/config"
)

var knownProviders = map[string]bool{
	"mock":      true,
	"openai":    true,
	"groq":      true,
	"anthropic": true,
	"ollama":    true,
}

// Manager routes every call to one primary provider, the first non-mock
// entry of the configured list. There is no failover, so only the primary is
// built; the other entries are validated and kept for reporting.
type Manager struct {
	refs     []ProviderRef
	primary  LLMProvider
	primaryI int
}

func NewManager(cfg config.Config) (*Manager, error) {
	refs := ParseProviderList(cfg.LLMProviders)
	for _, ref := range refs {
		if !knownProviders[ref.Name] {
			return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
		}
	}
	i := preferredIndex(refs)
	p, err := buildProvider(refs[i], cfg)
	if err != nil {
		return nil, err
	}
	return &Manager{refs: refs, primary: p, primaryI: i}, nil
}

// Configured returns the parsed provider list in configured order.
func (m *Manager) Configured() []ProviderRef {
	out := make([]ProviderRef, len(m.refs))
	copy(out, m.refs)
	return out
}

func (m *Manager) Primary() (LLMProvider, ProviderRef) {
	return m.primary, m.refs[m.primaryI]
}

// Generate calls the primary provider and wraps any failure in an
// UpstreamError.
func (m *Manager) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	p, ref := m.Primary()
	resp, info, err := p.Generate(ctx, req)
	if info.Name == "" {
		info.Name = ref.Name
	}
	if err != nil {
		return GenerateResponse{}, info, NewUpstreamError(info.Name, err)
	}
	return resp, info, nil
}

// ProviderNames lists the configured refs as written, e.g. "openai:gpt-4o".
func ProviderNames(refs []ProviderRef) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.Raw)
	}
	return out
}

func preferredIndex(refs []ProviderRef) int {
	for i, r := range refs {
		if r.Name != "mock" {
			return i
		}
	}
	return 0
}

func buildProvider(ref ProviderRef, cfg config.Config) (LLMProvider, error) {
	timeout := time.Duration(cfg.LLMTimeoutSecs) * time.Second
	model := func(fallback string) string {
		if ref.Model != "" {
			return ref.Model
		}
		return fallback
	}
	switch ref.Name {
	case "mock":
		return NewMockProvider(ref.Model), nil
	case "openai":
		return NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIBaseURL, model(cfg.OpenAIModel), timeout), nil
	case "groq":
		return NewGroqProvider(cfg.GroqKey, cfg.GroqBaseURL, model(cfg.GroqModel), timeout), nil
	case "anthropic":
		return NewAnthropicProvider(cfg.AnthropicKey, cfg.AnthropicURL, model(cfg.AnthropicModel), timeout), nil
	case "ollama":
		return NewOllamaProvider(cfg.OllamaBaseURL, model(cfg.OllamaModel), timeout)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
}
