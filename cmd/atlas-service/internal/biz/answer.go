package biz

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"atlashub/cmd/atlas-service/internal/domain"
)

const (
	// maxPayloadChars caps the serialized query data embedded in the
	// provider prompt.
	maxPayloadChars = 3000

	truncationMarker = "\n[dados truncados]"

	providerCallTimeout = 30 * time.Second

	maxSuggestions = 3

	// maxHistoryTurns bounds how much conversation history rides along
	// on each provider call.
	maxHistoryTurns = 6
)

const systemPrompt = `Você é o assistente do Atlas, um hub de inteligência sobre dados políticos brasileiros.
Responda em português, de forma clara e objetiva, usando apenas os dados fornecidos.
Nunca invente nomes, números ou partidos que não estejam nos dados.
Quando os dados estiverem vazios, diga que nada foi encontrado.`

// Answer is the generated reply plus its provenance.
type Answer struct {
	Text         string
	UsedProvider bool
	Provider     string
	Suggestions  []string
}

// AnswerGenerator turns a query result into natural-language text by
// walking the configured providers in order and falling back to the
// deterministic templates when every provider fails. Provider failure
// is never surfaced to the caller.
type AnswerGenerator struct {
	providers []domain.Provider
	timeout   time.Duration
	log       *log.Helper
}

// NewAnswerGenerator creates a generator over the given provider chain;
// the slice order is the failover order. An empty chain is valid and
// means template-only answers.
func NewAnswerGenerator(providers []domain.Provider, logger log.Logger) *AnswerGenerator {
	return &AnswerGenerator{
		providers: providers,
		timeout:   providerCallTimeout,
		log:       log.NewHelper(log.With(logger, "module", "answer-generator")),
	}
}

// Generate produces the answer for a classified query, its result and
// the recent conversation history. It always returns a usable answer;
// the template path is the floor.
func (g *AnswerGenerator) Generate(ctx context.Context, intent domain.Intent, message string, history []domain.Turn, result *domain.QueryResult) *Answer {
	messages := providerMessages(history, g.buildPrompt(intent, message, result))

	text, winner, err := g.tryProviders(ctx, messages)
	if err != nil {
		if len(g.providers) > 0 {
			g.log.Warnf("answer degraded to template: %v", err)
		}
		return &Answer{
			Text:        RenderTemplate(result),
			Suggestions: SuggestionsFor(intent),
		}
	}

	return &Answer{
		Text:         text,
		UsedProvider: true,
		Provider:     winner.Name(),
		Suggestions:  g.suggestions(ctx, winner, intent, result),
	}
}

// providerMessages prepends the tail of the conversation to the final
// user prompt so follow-up questions keep their context.
func providerMessages(history []domain.Turn, prompt string) []domain.ProviderMessage {
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	messages := make([]domain.ProviderMessage, 0, len(history)+1)
	for _, turn := range history {
		messages = append(messages, domain.ProviderMessage{Role: string(turn.Role), Content: turn.Text})
	}
	return append(messages, domain.ProviderMessage{Role: "user", Content: prompt})
}

// tryProviders walks the chain in order and returns the first usable
// text with the provider that produced it; ErrNoProvider means the
// chain is empty or exhausted.
func (g *AnswerGenerator) tryProviders(ctx context.Context, messages []domain.ProviderMessage) (string, domain.Provider, error) {
	for _, p := range g.providers {
		text, err := g.callProvider(ctx, p, messages)
		if err != nil {
			MetricProviderAttempts.WithLabelValues(p.Name(), "error").Inc()
			g.log.Warnf("provider %s failed: %v", p.Name(), err)
			continue
		}
		MetricProviderAttempts.WithLabelValues(p.Name(), "ok").Inc()
		return text, p, nil
	}
	return "", nil, domain.ErrNoProvider
}

func (g *AnswerGenerator) callProvider(ctx context.Context, p domain.Provider, messages []domain.ProviderMessage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "provider.generate")
	span.SetAttributes(attribute.String("provider.name", p.Name()))
	defer span.End()

	text, err := p.Generate(ctx, systemPrompt, messages)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("provider %s returned empty text", p.Name())
	}
	return text, nil
}

// buildPrompt assembles the user prompt: the original question plus the
// serialized query data, truncated to keep provider costs bounded.
func (g *AnswerGenerator) buildPrompt(intent domain.Intent, message string, result *domain.QueryResult) string {
	payload := "{}"
	if result != nil {
		if raw, err := json.Marshal(result); err == nil {
			payload = string(raw)
		}
	}
	payload = truncatePayload(payload)

	var b strings.Builder
	fmt.Fprintf(&b, "Pergunta do usuário: %s\n", message)
	fmt.Fprintf(&b, "Intenção identificada: %s\n", intent)
	fmt.Fprintf(&b, "Dados da consulta (JSON):\n%s\n", payload)
	b.WriteString("Responda a pergunta com base nesses dados.")
	return b.String()
}

// truncatePayload caps the payload on a rune boundary so the provider
// never receives invalid UTF-8.
func truncatePayload(payload string) string {
	if len(payload) <= maxPayloadChars {
		return payload
	}
	cut := maxPayloadChars
	for cut > 0 && !utf8.RuneStart(payload[cut]) {
		cut--
	}
	return payload[:cut] + truncationMarker
}

// suggestions asks the provider that answered for follow-up questions
// and degrades to the fixed lists on any failure. Suggestion failure
// never affects the main answer.
func (g *AnswerGenerator) suggestions(ctx context.Context, p domain.Provider, intent domain.Intent, result *domain.QueryResult) []string {
	if p == nil {
		return SuggestionsFor(intent)
	}

	prompt := fmt.Sprintf(
		"Sugira %d perguntas curtas de acompanhamento sobre dados políticos brasileiros, uma por linha, sem numeração. A última consulta foi do tipo %q com %d resultados.",
		maxSuggestions, intent, resultCount(result),
	)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := p.Generate(ctx, systemPrompt, []domain.ProviderMessage{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		g.log.Debugf("suggestion generation failed: %v", err)
		return SuggestionsFor(intent)
	}

	parsed := parseSuggestions(text)
	if len(parsed) == 0 {
		return SuggestionsFor(intent)
	}
	return parsed
}

func resultCount(result *domain.QueryResult) int {
	if result == nil {
		return 0
	}
	return result.Count
}

// parseSuggestions splits provider output into at most maxSuggestions
// cleaned lines.
func parseSuggestions(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•0123456789. ")
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}
