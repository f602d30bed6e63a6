package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"taskforge/internal/domain"
)

// openAIRequest/Response mirror the OpenAI Chat Completions wire shape.
// Grounded on the teacher's OpenAIMessage/OpenAIRequest/OpenAIResponse
// (internal/perception/client_types.go); XAI/OpenRouter reuse this same
// shape in the teacher via type aliases since they are OpenAI-compatible —
// this adapter plays that same dual role here (selected by base URL).
type openAIRequest struct {
	Model       string        `json:"model"`
	Messages    []httpMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type openAIChoice struct {
	Message httpMessage `json:"message"`
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// OpenAIAdapter is a hand-rolled HTTP client for OpenAI-compatible chat
// completion APIs (OpenAI itself, and any OpenAI-wire-compatible provider
// selected purely by base URL/model), matching the teacher's no-vendor-SDK
// idiom used for every non-Gemini provider.
type OpenAIAdapter struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	maxRetries int
}

// NewOpenAIAdapter constructs an adapter bound to one model.
func NewOpenAIAdapter(apiKey, baseURL, model string, timeout time.Duration, maxRetries int) *OpenAIAdapter {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &OpenAIAdapter{apiKey: apiKey, baseURL: baseURL, model: model, httpClient: &http.Client{Timeout: timeout}, maxRetries: maxRetries}
}

func (o *OpenAIAdapter) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var out string
	err := withRetry(ctx, defaultRetryConfig(o.maxRetries), func(ctx context.Context) error {
		text, err := o.completeOnce(ctx, systemPrompt, userPrompt)
		if err != nil {
			return err
		}
		out = text
		return nil
	})
	return out, err
}

func (o *OpenAIAdapter) completeOnce(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []httpMessage{}
	if systemPrompt != "" {
		messages = append(messages, httpMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, httpMessage{Role: "user", Content: userPrompt})

	reqBody := openAIRequest{Model: o.model, Messages: messages, Temperature: 0.1}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", domain.ErrParse, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", domain.ErrConfigInvalid, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrProviderTransient, err)
	}
	defer resp.Body.Close()

	var parsed openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrParse, err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", fmt.Errorf("%w: status %d", domain.ErrProviderTransient, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		msg := ""
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("openai request failed: status %d: %s", resp.StatusCode, msg)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", domain.ErrParse)
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// GenerateEnhancement implements llmport.TaskEnhancementPort.
func (o *OpenAIAdapter) GenerateEnhancement(ctx context.Context, task *domain.Task) (domain.Enhancement, error) {
	prompt := fmt.Sprintf("Suggest one concrete improvement for this task titled %q. Reply with the improvement only.", task.Title)
	content, err := o.complete(ctx, enhancementSystemPrompt, prompt)
	if err != nil {
		return domain.Enhancement{}, err
	}
	return domain.Enhancement{TaskID: task.ID, Timestamp: time.Now().UTC(), EnhancementType: "clarity", Content: content}, nil
}

// GenerateComprehensionTest implements llmport.ComprehensionTestPort.
func (o *OpenAIAdapter) GenerateComprehensionTest(ctx context.Context, task *domain.Task, testType string) (domain.ComprehensionTest, error) {
	prompt := fmt.Sprintf("Write one %s comprehension question (no more than 15 words) that verifies understanding of the task titled %q.", testType, task.Title)
	question, err := o.complete(ctx, comprehensionSystemPrompt, prompt)
	if err != nil {
		return domain.ComprehensionTest{}, err
	}
	return domain.ComprehensionTest{TaskID: task.ID, Timestamp: time.Now().UTC(), TestType: testType, Question: question}, nil
}
