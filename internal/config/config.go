package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIAddr     string `yaml:"api_addr"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	UploadLimit string `yaml:"upload_limit"`
	CORSOrigins string `yaml:"cors_origins"`

	LLMProviders   string  `yaml:"llm_providers"`
	LLMMaxTokens   int     `yaml:"llm_max_tokens"`
	LLMTemperature float64 `yaml:"llm_temperature"`
	LLMTimeoutSecs int     `yaml:"llm_timeout_seconds"`
	SystemPrompt   string  `yaml:"system_prompt"`

	OpenAIKey      string `yaml:"-"`
	OpenAIBaseURL  string `yaml:"openai_base_url"`
	OpenAIModel    string `yaml:"openai_model"`
	GroqKey        string `yaml:"-"`
	GroqBaseURL    string `yaml:"groq_base_url"`
	GroqModel      string `yaml:"groq_model"`
	AnthropicKey   string `yaml:"-"`
	AnthropicURL   string `yaml:"anthropic_base_url"`
	AnthropicModel string `yaml:"anthropic_model"`
	OllamaBaseURL  string `yaml:"ollama_base_url"`
	OllamaModel    string `yaml:"ollama_model"`

	FreeTextMode    string `yaml:"free_text_mode"`
	MaxContextChars int    `yaml:"max_context_chars"`

	TikaURL           string `yaml:"tika_url"`
	TikaTimeoutSecs   int    `yaml:"tika_timeout_seconds"`
	MaxArchiveEntries int    `yaml:"max_archive_entries"`
	MaxEntryBytes     int    `yaml:"max_entry_bytes"`
	MaxArchiveBytes   int    `yaml:"max_archive_bytes"`
}

func Default() Config {
	return Config{
		APIAddr:           ":3000",
		LogLevel:          "info",
		LogFormat:         "json",
		UploadLimit:       "32M",
		CORSOrigins:       "*",
		LLMProviders:      "openai",
		LLMMaxTokens:      500,
		LLMTemperature:    0.7,
		SystemPrompt:      "You are an assistant that answers assignment questions.",
		OpenAIBaseURL:     "https://api.openai.com/v1",
		OpenAIModel:       "gpt-3.5-turbo",
		GroqBaseURL:       "https://api.groq.com/openai/v1",
		GroqModel:         "llama-3.1-8b-instant",
		AnthropicModel:    "claude-3-5-haiku-latest",
		OllamaBaseURL:     "http://localhost:11434",
		OllamaModel:       "llama3.2",
		FreeTextMode:      "llm",
		MaxArchiveEntries: 1000,
		TikaTimeoutSecs:   30,
		MaxEntryBytes:     64 << 20,
		MaxArchiveBytes:   256 << 20,
	}
}

// Load applies, in order: defaults, the optional YAML file at path, then the
// environment. An empty path falls back to ASKDOC_CONFIG_FILE.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("ASKDOC_CONFIG_FILE")
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(c *Config) {
	c.APIAddr = getenv("ASKDOC_API_ADDR", c.APIAddr)
	if port := os.Getenv("PORT"); port != "" && os.Getenv("ASKDOC_API_ADDR") == "" {
		c.APIAddr = ":" + port
	}
	c.LogLevel = getenv("ASKDOC_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getenv("ASKDOC_LOG_FORMAT", c.LogFormat)
	c.UploadLimit = getenv("ASKDOC_UPLOAD_LIMIT", c.UploadLimit)
	c.CORSOrigins = getenv("ASKDOC_CORS_ORIGINS", c.CORSOrigins)

	c.LLMProviders = getenv("ASKDOC_LLM_PROVIDERS", c.LLMProviders)
	c.LLMMaxTokens = getenvInt("ASKDOC_LLM_MAX_TOKENS", c.LLMMaxTokens)
	c.LLMTemperature = getenvFloat("ASKDOC_LLM_TEMPERATURE", c.LLMTemperature)
	c.LLMTimeoutSecs = getenvInt("ASKDOC_LLM_TIMEOUT_SECONDS", c.LLMTimeoutSecs)
	c.SystemPrompt = getenv("ASKDOC_SYSTEM_PROMPT", c.SystemPrompt)

	c.OpenAIKey = getenv("OPENAI_API_KEY", c.OpenAIKey)
	c.OpenAIBaseURL = getenv("ASKDOC_OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.OpenAIModel = getenv("ASKDOC_OPENAI_MODEL", c.OpenAIModel)
	c.GroqKey = getenv("GROQ_API_KEY", c.GroqKey)
	c.GroqBaseURL = getenv("ASKDOC_GROQ_BASE_URL", c.GroqBaseURL)
	c.GroqModel = getenv("ASKDOC_GROQ_MODEL", c.GroqModel)
	c.AnthropicKey = getenv("ANTHROPIC_API_KEY", c.AnthropicKey)
	c.AnthropicURL = getenv("ASKDOC_ANTHROPIC_BASE_URL", c.AnthropicURL)
	c.AnthropicModel = getenv("ASKDOC_ANTHROPIC_MODEL", c.AnthropicModel)
	c.OllamaBaseURL = getenv("ASKDOC_OLLAMA_BASE_URL", c.OllamaBaseURL)
	c.OllamaModel = getenv("ASKDOC_OLLAMA_MODEL", c.OllamaModel)

	c.FreeTextMode = getenv("ASKDOC_FREE_TEXT_MODE", c.FreeTextMode)
	c.MaxContextChars = getenvInt("ASKDOC_MAX_CONTEXT_CHARS", c.MaxContextChars)

	c.TikaURL = getenv("ASKDOC_TIKA_URL", c.TikaURL)
	c.TikaTimeoutSecs = getenvInt("ASKDOC_TIKA_TIMEOUT_SECONDS", c.TikaTimeoutSecs)
	c.MaxArchiveEntries = getenvInt("ASKDOC_MAX_ARCHIVE_ENTRIES", c.MaxArchiveEntries)
	c.MaxEntryBytes = getenvInt("ASKDOC_MAX_ENTRY_BYTES", c.MaxEntryBytes)
	c.MaxArchiveBytes = getenvInt("ASKDOC_MAX_ARCHIVE_BYTES", c.MaxArchiveBytes)
}

func getenv(k, fallback string) string {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(k string, fallback float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
