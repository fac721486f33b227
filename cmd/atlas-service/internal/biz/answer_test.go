package biz

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"

	"atlashub/cmd/atlas-service/internal/domain"
)

// MockProvider is a fake language-model endpoint.
type MockProvider struct {
	NameVal      string
	GenerateFunc func(ctx context.Context, systemPrompt string, messages []domain.ProviderMessage) (string, error)
}

func (m *MockProvider) Name() string {
	return m.NameVal
}

func (m *MockProvider) Generate(ctx context.Context, systemPrompt string, messages []domain.ProviderMessage) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, systemPrompt, messages)
	}
	return "resposta gerada", nil
}

func newTestGenerator(providers ...domain.Provider) *AnswerGenerator {
	return NewAnswerGenerator(providers, log.NewStdLogger(os.Stdout))
}

func statsResult() *domain.QueryResult {
	return &domain.QueryResult{
		Type:  domain.QueryStatistics,
		Count: 120,
		Stats: &domain.Statistics{Total: 120, ByGroup: []domain.GroupCount{{Group: "PT", Count: 40}}},
	}
}

func TestAnswerGenerator_FailoverOrder(t *testing.T) {
	var calls []string
	failing := &MockProvider{
		NameVal: "primary",
		GenerateFunc: func(ctx context.Context, _ string, _ []domain.ProviderMessage) (string, error) {
			calls = append(calls, "primary")
			return "", errors.New("rate limited")
		},
	}
	healthy := &MockProvider{
		NameVal: "secondary",
		GenerateFunc: func(ctx context.Context, _ string, _ []domain.ProviderMessage) (string, error) {
			calls = append(calls, "secondary")
			return "resposta do segundo", nil
		},
	}

	g := newTestGenerator(failing, healthy)
	answer := g.Generate(context.Background(), domain.IntentStatistics, "quantos?", nil, statsResult())

	assert.Equal(t, "resposta do segundo", answer.Text)
	assert.True(t, answer.UsedProvider)
	assert.Equal(t, "secondary", answer.Provider)
	assert.Equal(t, "primary", calls[0])
}

func TestAnswerGenerator_SuggestionsUseSucceedingProvider(t *testing.T) {
	var calls []string
	failing := &MockProvider{
		NameVal: "primary",
		GenerateFunc: func(ctx context.Context, _ string, _ []domain.ProviderMessage) (string, error) {
			calls = append(calls, "primary")
			return "", errors.New("timeout")
		},
	}
	healthy := &MockProvider{
		NameVal: "secondary",
		GenerateFunc: func(ctx context.Context, _ string, _ []domain.ProviderMessage) (string, error) {
			calls = append(calls, "secondary")
			return "resposta", nil
		},
	}

	g := newTestGenerator(failing, healthy)
	answer := g.Generate(context.Background(), domain.IntentStatistics, "quantos?", nil, statsResult())

	assert.Equal(t, "secondary", answer.Provider)
	// the dead primary is hit once for the answer and never again for
	// the suggestion call
	assert.Equal(t, []string{"primary", "secondary", "secondary"}, calls)
}

func TestAnswerGenerator_HistoryReachesProvider(t *testing.T) {
	var got []domain.ProviderMessage
	capture := &MockProvider{
		NameVal: "capture",
		GenerateFunc: func(ctx context.Context, _ string, messages []domain.ProviderMessage) (string, error) {
			if got == nil {
				got = messages
			}
			return "ok", nil
		},
	}

	history := []domain.Turn{
		{Role: domain.RoleUser, Text: "Políticos do PT"},
		{Role: domain.RoleAssistant, Text: "Encontrei 2 políticos:"},
	}

	g := newTestGenerator(capture)
	g.Generate(context.Background(), domain.IntentFollowUp, "E quantos foram eleitos?", history, statsResult())

	if assert.Len(t, got, 3) {
		assert.Equal(t, "user", got[0].Role)
		assert.Equal(t, "Políticos do PT", got[0].Content)
		assert.Equal(t, "assistant", got[1].Role)
		assert.Equal(t, "Encontrei 2 políticos:", got[1].Content)
		assert.Contains(t, got[2].Content, "E quantos foram eleitos?")
	}
}

func TestProviderMessagesCapsHistory(t *testing.T) {
	var history []domain.Turn
	for i := 0; i < 12; i++ {
		history = append(history, domain.Turn{Role: domain.RoleUser, Text: fmt.Sprintf("mensagem %d", i)})
	}

	messages := providerMessages(history, "pergunta atual")

	assert.Len(t, messages, maxHistoryTurns+1)
	assert.Equal(t, "mensagem 6", messages[0].Content)
	assert.Equal(t, "pergunta atual", messages[len(messages)-1].Content)
}

func TestAnswerGenerator_AllProvidersFailFallsToTemplate(t *testing.T) {
	failing := &MockProvider{
		NameVal: "broken",
		GenerateFunc: func(ctx context.Context, _ string, _ []domain.ProviderMessage) (string, error) {
			return "", errors.New("unavailable")
		},
	}

	g := newTestGenerator(failing)
	answer := g.Generate(context.Background(), domain.IntentStatistics, "quantos?", nil, statsResult())

	assert.False(t, answer.UsedProvider)
	assert.Empty(t, answer.Provider)
	assert.Contains(t, answer.Text, "Total: 120")
	assert.NotEmpty(t, answer.Suggestions)
}

func TestAnswerGenerator_NoProvidersUsesTemplate(t *testing.T) {
	g := newTestGenerator()
	answer := g.Generate(context.Background(), domain.IntentStatistics, "quantos?", nil, statsResult())

	assert.False(t, answer.UsedProvider)
	assert.Contains(t, answer.Text, "Total: 120")
	assert.Equal(t, SuggestionsFor(domain.IntentStatistics), answer.Suggestions)
}

func TestAnswerGenerator_EmptyProviderTextCountsAsFailure(t *testing.T) {
	empty := &MockProvider{
		NameVal: "empty",
		GenerateFunc: func(ctx context.Context, _ string, _ []domain.ProviderMessage) (string, error) {
			return "   ", nil
		},
	}

	g := newTestGenerator(empty)
	answer := g.Generate(context.Background(), domain.IntentStatistics, "quantos?", nil, statsResult())

	assert.False(t, answer.UsedProvider)
	assert.Contains(t, answer.Text, "Total: 120")
}

func TestAnswerGenerator_PromptCarriesTruncatedPayload(t *testing.T) {
	var gotPrompt string
	capture := &MockProvider{
		NameVal: "capture",
		GenerateFunc: func(ctx context.Context, _ string, messages []domain.ProviderMessage) (string, error) {
			// keep the main prompt, not the later suggestion prompt
			if gotPrompt == "" {
				gotPrompt = messages[len(messages)-1].Content
			}
			return "ok", nil
		},
	}

	result := &domain.QueryResult{Type: domain.QueryByGroup}
	for i := 0; i < 200; i++ {
		result.Records = append(result.Records, domain.Record{
			SubjectID:   int64(i),
			SubjectName: strings.Repeat("x", 40),
			Group:       "PT",
			Year:        2024,
		})
	}
	result.Count = len(result.Records)

	g := newTestGenerator(capture)
	g.Generate(context.Background(), domain.IntentByGroup, "políticos do PT", nil, result)

	assert.Contains(t, gotPrompt, "[dados truncados]")
	assert.LessOrEqual(t, len(gotPrompt), maxPayloadChars+500)
}

func TestTruncatePayloadKeepsValidUTF8(t *testing.T) {
	// one leading ASCII byte shifts every two-byte rune off the cap
	// boundary, so a byte-index cut would split a rune
	payload := "a" + strings.Repeat("ã", maxPayloadChars)

	out := truncatePayload(payload)

	assert.True(t, utf8.ValidString(out))
	assert.True(t, strings.HasSuffix(out, truncationMarker))
	assert.LessOrEqual(t, len(out), maxPayloadChars+len(truncationMarker))

	assert.Equal(t, "curto", truncatePayload("curto"))
}

func TestParseSuggestions(t *testing.T) {
	text := "- Quem é Ana Souza?\n2. Políticos do PT\n\n* Estatísticas gerais\nQuarta pergunta"
	parsed := parseSuggestions(text)

	assert.Len(t, parsed, maxSuggestions)
	assert.Equal(t, "Quem é Ana Souza?", parsed[0])
	assert.Equal(t, "Políticos do PT", parsed[1])
	assert.Equal(t, "Estatísticas gerais", parsed[2])
}
