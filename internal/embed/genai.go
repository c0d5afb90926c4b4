package embed

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GenAI is an Embedder backed by the Gemini embedding API.
type GenAI struct {
	client *genai.Client
	model  string
}

// NewGenAI creates a Gemini embedding client.
func NewGenAI(ctx context.Context, apiKey, model string) (*GenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("embed: missing embedding API key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("embed: genai client: %w", err)
	}
	return &GenAI{client: client, model: model}, nil
}

// Embed implements Embedder.
func (g *GenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}
	res, err := g.client.Models.EmbedContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if res == nil || len(res.Embeddings) == 0 || res.Embeddings[0] == nil {
		return nil, fmt.Errorf("embed: empty embedding result")
	}
	return res.Embeddings[0].Values, nil
}
