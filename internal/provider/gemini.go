package provider

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"taskforge/internal/domain"
	"taskforge/internal/llmport"
)

// geminiMaxBatchSize mirrors the teacher's embedding.genai.go maxBatchSize.
const geminiMaxBatchSize = 100

// GeminiAdapter wraps the official google.golang.org/genai SDK, grounded on
// the teacher's internal/embedding/genai.go GenAIEngine. Used for the
// Embedder and Vision roles, where an official SDK exists (unlike the
// hand-rolled Anthropic/OpenAI-style text adapters).
type GeminiAdapter struct {
	client    *genai.Client
	model     string
	dimension int
}

// NewGeminiAdapter constructs a Gemini-backed adapter for a given model and
// embedding dimension.
func NewGeminiAdapter(ctx context.Context, apiKey, model string, dimension int) (*GeminiAdapter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("%w: constructing genai client: %v", domain.ErrConfigInvalid, err)
	}
	return &GeminiAdapter{client: client, model: model, dimension: dimension}, nil
}

// EmbeddingDimension implements llmport.EmbeddingPort.
func (g *GeminiAdapter) EmbeddingDimension() int { return g.dimension }

// GenerateEmbedding implements llmport.EmbeddingPort.
func (g *GeminiAdapter) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vecs, err := g.GenerateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// GenerateEmbeddings implements llmport.EmbeddingPort, batching up to
// geminiMaxBatchSize texts per request as the teacher does.
func (g *GeminiAdapter) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += geminiMaxBatchSize {
		end := start + geminiMaxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		contents := make([]*genai.Content, 0, len(batch))
		for _, t := range batch {
			contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
		}

		var resp *genai.EmbedContentResponse
		err := withRetry(ctx, defaultRetryConfig(3), func(ctx context.Context) error {
			r, callErr := g.client.Models.EmbedContent(ctx, g.model, contents, &genai.EmbedContentConfig{})
			if callErr != nil {
				return fmt.Errorf("%w: %v", domain.ErrProviderTransient, callErr)
			}
			resp = r
			return nil
		})
		if err != nil {
			return nil, err
		}

		for _, e := range resp.Embeddings {
			vec := make([]float32, len(e.Values))
			copy(vec, e.Values)
			if len(vec) != g.dimension {
				return nil, fmt.Errorf("%w: embedding length %d != configured dimension %d", domain.ErrDimensionMismatch, len(vec), g.dimension)
			}
			result = append(result, vec)
		}
	}
	return result, nil
}

// DescribeImage implements llmport.VisionPort.
func (g *GeminiAdapter) DescribeImage(ctx context.Context, base64Data, mimeType, hint string) (llmport.VisionResult, error) {
	return g.describe(ctx, base64Data, mimeType, hint)
}

// DescribePage implements llmport.VisionPort's page-level analog.
func (g *GeminiAdapter) DescribePage(ctx context.Context, base64Data, mimeType, hint string) (llmport.VisionResult, error) {
	return g.describe(ctx, base64Data, mimeType, hint)
}

func (g *GeminiAdapter) describe(ctx context.Context, base64Data, mimeType, hint string) (llmport.VisionResult, error) {
	start := time.Now()
	prompt := "Describe this image."
	if hint != "" {
		prompt = hint
	}
	part := genai.NewPartFromBytes([]byte(base64Data), mimeType)
	content := genai.NewContentFromParts([]*genai.Part{part, genai.NewPartFromText(prompt)}, genai.RoleUser)

	var text string
	err := withRetry(ctx, defaultRetryConfig(3), func(ctx context.Context) error {
		resp, callErr := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{content}, &genai.GenerateContentConfig{})
		if callErr != nil {
			return fmt.Errorf("%w: %v", domain.ErrProviderTransient, callErr)
		}
		text = resp.Text()
		return nil
	})
	if err != nil {
		return llmport.VisionResult{}, err
	}
	return llmport.VisionResult{Description: text, ProcessingMs: time.Since(start).Milliseconds()}, nil
}
