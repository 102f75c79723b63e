package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// vertexMaxInstances is the per-request instance limit of the text embedding models.
const vertexMaxInstances = 250

// VertexEndpoint returns the regional Vertex AI REST base URL for location.
func VertexEndpoint(location string) string {
	return "https://" + location + "-aiplatform.googleapis.com"
}

// VertexProvider calls a Vertex AI text embedding model through its :predict method.
type VertexProvider struct {
	url        string
	token      string
	httpClient *http.Client
}

// NewVertexProvider returns a provider for model in project/location. baseURL overrides
// the regional endpoint when non-empty. The token is sent as a bearer access token.
func NewVertexProvider(baseURL, project, location, model, token string, timeout time.Duration) *VertexProvider {
	if baseURL == "" {
		baseURL = VertexEndpoint(location)
	}
	return &VertexProvider{
		url: fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/google/models/%s:predict",
			strings.TrimRight(baseURL, "/"), project, location, model),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// EmbedBatch embeds texts, splitting them into requests of at most vertexMaxInstances.
func (v *VertexProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += vertexMaxInstances {
		vecs, err := v.predict(ctx, texts[start:min(start+vertexMaxInstances, len(texts))])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

type vertexInstance struct {
	Content string `json:"content"`
}

func (v *VertexProvider) predict(ctx context.Context, texts []string) ([][]float32, error) {
	instances := make([]vertexInstance, len(texts))
	for i, t := range texts {
		instances[i] = vertexInstance{Content: t}
	}
	payload, err := json.Marshal(map[string]interface{}{"instances": instances})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if v.token != "" {
		req.Header.Set("Authorization", "Bearer "+v.token)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vertex predict: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("vertex API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out struct {
		Predictions []struct {
			Embeddings struct {
				Values []float32 `json:"values"`
			} `json:"embeddings"`
		} `json:"predictions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("vertex predict decode: %w", err)
	}
	vecs := make([][]float32, len(out.Predictions))
	for i, p := range out.Predictions {
		vecs[i] = p.Embeddings.Values
	}
	return vecs, nil
}

// Close is a no-op; the HTTP client holds no session.
func (v *VertexProvider) Close() error {
	return nil
}
