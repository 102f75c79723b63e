package translate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGoogleTranslator_Translate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/projects/proj-1/locations/global:translateText" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["sourceLanguageCode"] != "th" || body["targetLanguageCode"] != "en" || body["mimeType"] != "text/plain" {
			t.Errorf("body = %v", body)
		}
		_, _ = w.Write([]byte(`{"translations":[{"translatedText":"the "},{"translatedText":"teaching"}]}`))
	}))
	defer srv.Close()

	g := NewGoogleTranslator("proj-1", "tok", srv.URL, time.Second)
	got, err := g.Translate(context.Background(), "ธรรม", "th", "en")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "the teaching" {
		t.Errorf("got %q", got)
	}
}

func TestGoogleTranslator_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "permission denied", http.StatusForbidden)
	}))
	defer srv.Close()

	if _, err := NewGoogleTranslator("p", "", srv.URL, time.Second).Translate(context.Background(), "x", "th", "en"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("missing token: err = %v", err)
	}
	if _, err := NewGoogleTranslator("p", "tok", srv.URL, time.Second).Translate(context.Background(), "x", "th", "en"); !errors.Is(err, ErrProviderCall) {
		t.Errorf("403: err = %v", err)
	}
}

func TestGoogleTranslator_EmptyResponseKeepsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"translations":[]}`))
	}))
	defer srv.Close()
	got, err := NewGoogleTranslator("p", "tok", srv.URL, time.Second).Translate(context.Background(), "ธรรม", "th", "en")
	if err != nil || got != "ธรรม" {
		t.Errorf("got %q, %v", got, err)
	}
}

func TestOllamaTranslator_Translate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body struct {
			Model    string              `json:"model"`
			Messages []map[string]string `json:"messages"`
			Stream   bool                `json:"stream"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Model != "qwen3" || body.Stream || len(body.Messages) != 2 || body.Messages[1]["content"] != "ธรรม" {
			t.Errorf("body = %+v", body)
		}
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"  dharma\n"}}`))
	}))
	defer srv.Close()

	o := NewOllamaTranslator(srv.URL, "qwen3", "", time.Second)
	got, err := o.Translate(context.Background(), "ธรรม", "th", "en")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "dharma" {
		t.Errorf("got %q", got)
	}
	if _, err := NewOllamaTranslator("", "", "", 0).Translate(context.Background(), "x", "th", "en"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("unconfigured: err = %v", err)
	}
}
