package translate

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

var languageNames = map[string]string{
	"th": "Thai",
	"en": "English",
	"pi": "Pali",
}

// OllamaTranslator asks a chat model on an Ollama server for a translation.
type OllamaTranslator struct {
	baseURL    string
	model      string
	token      string
	httpClient *http.Client
}

// NewOllamaTranslator returns a translator using model at baseURL.
func NewOllamaTranslator(baseURL, model, token string, timeout time.Duration) *OllamaTranslator {
	return &OllamaTranslator{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Translate sends a single non-streaming chat request.
func (o *OllamaTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if o.baseURL == "" || o.model == "" {
		return "", fmt.Errorf("%w: ollama endpoint or model is not configured", ErrUnavailable)
	}

	system := fmt.Sprintf("Translate the user's %s text into %s. Reply with the translation only, no explanation.",
		languageName(source), languageName(target))
	payload, err := json.Marshal(map[string]interface{}{
		"model": o.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": text},
		},
		"stream": false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.token != "" {
		req.Header.Set("Authorization", "Bearer "+o.token)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderCall, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: ollama API error (%d): %s", ErrProviderCall, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrProviderCall, err)
	}
	translated := strings.TrimSpace(out.Message.Content)
	if translated == "" {
		return text, nil
	}
	return translated, nil
}

func languageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}
