package embedding

import (
	"PriceLens-Backend/internal/utils"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 5 * time.Second

type (
	httpProvider struct {
		baseURL    string
		dimensions int
		client     *http.Client
	}

	embedRequest struct {
		Texts []string `json:"texts"`
	}

	embedResponse struct {
		Vectors [][]float32 `json:"vectors"`
	}
)

// NewHTTPProvider talks to the model service configured under AI_MODEL_URL.
func NewHTTPProvider(dimensions int) Embedder {
	return &httpProvider{
		baseURL:    utils.GetConfig("AI_MODEL_URL"),
		dimensions: dimensions,
		client:     &http.Client{Timeout: defaultTimeout},
	}
}

func (p *httpProvider) Dimensions() int {
	return p.dimensions
}

func (p *httpProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (p *httpProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Texts: texts})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var parsed embedResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadVector, err)
	}

	if len(parsed.Vectors) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d vectors, got %d", ErrBadVector, len(texts), len(parsed.Vectors))
	}
	for _, vec := range parsed.Vectors {
		if len(vec) != p.dimensions {
			return nil, fmt.Errorf("%w: expected %d dimensions, got %d", ErrBadVector, p.dimensions, len(vec))
		}
	}

	return parsed.Vectors, nil
}
