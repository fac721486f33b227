package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/sony/gobreaker"

	"atlashub/cmd/atlas-service/internal/domain"
)

// OpenAIProvider speaks the OpenAI chat-completions wire format. A
// configurable base URL covers every compatible backend (OpenAI, Groq,
// local gateways).
type OpenAIProvider struct {
	name       string
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	log        *log.Helper
}

// NewOpenAIProvider creates an adapter for one OpenAI-compatible
// endpoint.
func NewOpenAIProvider(name, baseURL, apiKey, model string, logger log.Logger) *OpenAIProvider {
	return &OpenAIProvider{
		name:    name,
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		breaker: newProviderBreaker(name),
		log:     log.NewHelper(log.With(logger, "module", "provider-"+name)),
	}
}

func (p *OpenAIProvider) Name() string {
	return p.name
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate sends one chat completion through the circuit breaker.
func (p *OpenAIProvider) Generate(ctx context.Context, systemPrompt string, messages []domain.ProviderMessage) (string, error) {
	reqMessages := make([]openAIMessage, 0, len(messages)+1)
	if systemPrompt != "" {
		reqMessages = append(reqMessages, openAIMessage{Role: "system", Content: systemPrompt})
	}
	for _, m := range messages {
		reqMessages = append(reqMessages, openAIMessage{Role: m.Role, Content: m.Content})
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.call(ctx, &openAIRequest{
			Model:       p.model,
			Messages:    reqMessages,
			Temperature: 0.3,
		})
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			p.log.Warnf("circuit open, skipping provider %s", p.name)
		}
		return "", err
	}
	return result.(string), nil
}

func (p *OpenAIProvider) call(ctx context.Context, req *openAIRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		fmt.Sprintf("%s/chat/completions", p.baseURL),
		bytes.NewReader(body),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("provider %s request failed: status=%d, body=%s", p.name, resp.StatusCode, string(respBody))
	}

	var chatResp openAIResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("provider %s error: %s", p.name, chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("provider %s returned no choices", p.name)
	}
	return chatResp.Choices[0].Message.Content, nil
}
