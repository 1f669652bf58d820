package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"iacgen/internal/domain/entity"
	"iacgen/internal/domain/repository"
	"iacgen/internal/infrastructure/metrics"
)

// ChatGenerator calls an OpenAI-compatible chat-completions endpoint. Any
// transport, status or decode failure comes back as entity.ModelFailureError
// so the session controller aborts instead of burning retry budget.
type ChatGenerator struct {
	apiKey    string
	baseURL   string
	model     string
	client    *http.Client
	maxTokens int
}

func NewChatGenerator(apiKey, baseURL, model string, maxTokens int, timeout time.Duration) repository.CodeGenerator {
	if maxTokens <= 0 {
		maxTokens = 4000
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &ChatGenerator{
		apiKey:    apiKey,
		baseURL:   baseURL,
		model:     model,
		client:    &http.Client{Timeout: timeout},
		maxTokens: maxTokens,
	}
}

func (g *ChatGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	metrics.IncLLMRequest(g.model)

	request := map[string]interface{}{
		"model": g.model,
		"messages": []map[string]string{
			{
				"role":    "user",
				"content": prompt,
			},
		},
		"max_tokens":  g.maxTokens,
		"temperature": 1,
	}

	response, err := g.makeRequest(ctx, request)
	if err != nil {
		metrics.IncError("llm", "make_request")
		return "", &entity.ModelFailureError{Err: err}
	}

	content, err := parseResponse(response)
	if err != nil {
		metrics.IncError("llm", "parse_response")
		return "", &entity.ModelFailureError{Err: err}
	}

	return content, nil
}

func (g *ChatGenerator) makeRequest(ctx context.Context, request map[string]interface{}) (map[string]interface{}, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("close body err: %s", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("model api error: %d - %s", resp.StatusCode, string(body))
	}

	var response map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return response, nil
}

func parseResponse(response map[string]interface{}) (string, error) {
	choices, ok := response["choices"].([]interface{})
	if !ok || len(choices) == 0 {
		return "", fmt.Errorf("invalid response format: no choices")
	}

	choice, ok := choices[0].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("invalid response format: invalid choice")
	}

	message, ok := choice["message"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("invalid response format: no message")
	}

	content, ok := message["content"].(string)
	if !ok {
		return "", fmt.Errorf("invalid response format: no content")
	}

	return content, nil
}
