package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"askdoc/internal/models"
	"askdoc/internal/providers"
	"askdoc/internal/util"

	"go.uber.org/zap"
)

const (
	NoAnswer = "no answer found"
	Apology  = "Sorry, I could not generate an answer at the moment."
)

// Mode picks how free text (non-tabular extraction output) is answered.
type Mode string

const (
	ModeLLM   Mode = "llm"
	ModeRegex Mode = "regex"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeLLM:
		return ModeLLM, nil
	case ModeRegex:
		return ModeRegex, nil
	default:
		return "", fmt.Errorf("unknown free text mode %q", s)
	}
}

type Options struct {
	Mode            Mode
	SystemPrompt    string
	MaxTokens       int
	Temperature     float64
	MaxContextChars int
}

type Resolver struct {
	llm  providers.LLMProvider
	opts Options
	log  *zap.Logger
}

func NewResolver(llm providers.LLMProvider, opts Options, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Mode == "" {
		opts.Mode = ModeLLM
	}
	return &Resolver{llm: llm, opts: opts, log: log}
}

// Resolve answers a question. A nil doc means no file was uploaded. The
// result is never empty.
func (r *Resolver) Resolve(ctx context.Context, question string, doc *models.Document) []string {
	if doc == nil {
		return r.Ask(ctx, question, "")
	}
	if len(doc.Records) > 0 {
		answers := LookupAnswer(doc.Records)
		if answers[0] != NoAnswer || strings.TrimSpace(doc.FreeText) == "" {
			return answers
		}
		// rows had no answer, but other files in the upload did carry text
		r.log.Debug("no answer in records, using free text", zap.Int("records", len(doc.Records)))
		return r.freeText(ctx, question, doc.Text)
	}
	if records, err := DecodeRecords(doc.Text); err == nil && len(records) > 0 {
		return LookupAnswer(records)
	}
	return r.freeText(ctx, question, doc.Text)
}

func (r *Resolver) freeText(ctx context.Context, question, text string) []string {
	if r.opts.Mode == ModeRegex {
		return MatchQuestion(question, text)
	}
	return r.Ask(ctx, question, text)
}

// Ask forwards the question, with the extracted text as context when given,
// to the LLM. Upstream failures become the apology answer.
func (r *Resolver) Ask(ctx context.Context, question, fileText string) []string {
	op := "ask"
	if fileText != "" {
		op = "ask_with_file"
	}
	resp, info, err := r.llm.Generate(ctx, providers.GenerateRequest{
		Operation:   op,
		System:      r.opts.SystemPrompt,
		Question:    question,
		Context:     util.TruncateRunes(fileText, r.opts.MaxContextChars),
		MaxTokens:   r.opts.MaxTokens,
		Temperature: r.opts.Temperature,
	})
	if err != nil {
		kind := providers.ClassifyError(err)
		var up *providers.UpstreamError
		if errors.As(err, &up) {
			kind = up.Kind
		}
		r.log.Warn("llm call failed",
			zap.String("operation", op),
			zap.String("provider", info.Name),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return []string{Apology}
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		r.log.Warn("llm returned empty answer", zap.String("provider", info.Name))
		return []string{Apology}
	}
	r.log.Info("llm answered",
		zap.String("operation", op),
		zap.String("provider", info.Name),
		zap.String("model", info.Model),
		zap.Int("answer_len", len(text)),
	)
	return []string{text}
}
