package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type CohereProvider struct {
	ApiKey string
	client *http.Client
}

func NewCohereProvider(apiKey string) EmbeddingProvider {
	return &CohereProvider{
		ApiKey: apiKey,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type cohereEmbedRequest struct {
	Model     string   `json:"model"`
	Texts     []string `json:"texts"`
	InputType string   `json:"input_type"`
}

type cohereEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (p *CohereProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	inputType := "search_document"
	if taskType == TaskRetrievalQuery {
		inputType = "search_query"
	}

	reqBody := cohereEmbedRequest{
		Model:     "embed-multilingual-v3.0",
		Texts:     []string{text},
		InputType: inputType,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		"POST",
		"https://api.cohere.com/v1/embed",
		bytes.NewBuffer(jsonBody),
	)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+p.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	resByte, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error from cohere response, code %d, body %s", res.StatusCode, string(resByte))
	}

	var parsed cohereEmbedResponse
	if err := json.Unmarshal(resByte, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Embeddings) == 0 {
		return nil, fmt.Errorf("cohere returned no embeddings")
	}

	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{
			Values: parsed.Embeddings[0],
		},
	}, nil
}
