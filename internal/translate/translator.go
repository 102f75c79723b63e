// Package translate normalizes native-script queries into the embedding model's working
// language before they are embedded.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUnavailable means the provider is not configured (for example, missing credentials).
	ErrUnavailable = errors.New("translation provider unavailable")
	// ErrProviderCall means a translate call failed.
	ErrProviderCall = errors.New("translation provider call failed")
)

// Translator maps text from one language to another.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Provider names accepted by New.
const (
	ProviderNone   = "none"
	ProviderGoogle = "google"
	ProviderOllama = "ollama"
)

// Options selects and configures a translation provider.
type Options struct {
	Provider  string
	ProjectID string
	Endpoint  string
	Token     string
	Model     string
	Timeout   time.Duration
}

// New returns the translator named by opts.Provider, or nil for "none" and "".
// Missing credentials are not an error here; the translator reports ErrUnavailable per call.
func New(opts Options) (Translator, error) {
	switch strings.ToLower(opts.Provider) {
	case "", ProviderNone:
		return nil, nil
	case ProviderGoogle:
		return NewGoogleTranslator(opts.ProjectID, opts.Token, opts.Endpoint, opts.Timeout), nil
	case ProviderOllama:
		return NewOllamaTranslator(opts.Endpoint, opts.Model, opts.Token, opts.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown translation provider %q", opts.Provider)
	}
}
