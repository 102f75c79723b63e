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

// DefaultGoogleEndpoint is the Cloud Translation REST base URL.
const DefaultGoogleEndpoint = "https://translation.googleapis.com"

// GoogleTranslator calls Cloud Translation v3 translateText with a bearer access token.
type GoogleTranslator struct {
	projectID  string
	token      string
	endpoint   string
	httpClient *http.Client
}

// NewGoogleTranslator returns a translator for projectID. An empty endpoint uses DefaultGoogleEndpoint.
func NewGoogleTranslator(projectID, token, endpoint string, timeout time.Duration) *GoogleTranslator {
	if endpoint == "" {
		endpoint = DefaultGoogleEndpoint
	}
	return &GoogleTranslator{
		projectID:  projectID,
		token:      token,
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Translate returns the concatenated translations of text, or text itself when the
// response carries none.
func (g *GoogleTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if g.projectID == "" {
		return "", fmt.Errorf("%w: GOOGLE_PROJECT_ID (or GOOGLE_CLOUD_PROJECT) is not set", ErrUnavailable)
	}
	if g.token == "" {
		return "", fmt.Errorf("%w: GOOGLE_ACCESS_TOKEN is not set", ErrUnavailable)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"contents":           []string{text},
		"mimeType":           "text/plain",
		"sourceLanguageCode": source,
		"targetLanguageCode": target,
	})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/v3/projects/%s/locations/global:translateText", g.endpoint, g.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("x-goog-user-project", g.projectID)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderCall, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: translate API error (%d): %s", ErrProviderCall, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrProviderCall, err)
	}
	var sb strings.Builder
	for _, t := range out.Translations {
		sb.WriteString(t.TranslatedText)
	}
	if sb.Len() == 0 {
		return text, nil
	}
	return sb.String(), nil
}
