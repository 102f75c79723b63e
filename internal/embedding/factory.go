package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Provider names accepted by NewFactory.
const (
	ProviderOllama = "ollama"
	ProviderONNX   = "onnx"
	ProviderVertex = "vertex"
	ProviderMock   = "mock"
)

// Options selects and configures a provider.
type Options struct {
	Provider   string
	Endpoint   string
	Model      string
	Token      string
	ProjectID  string
	Location   string
	Dimensions int
	ModelPath  string
	MaxTokens  int
	Timeout    time.Duration
}

// ResolveIdentity derives the (endpoint, model) identity for opts, failing with
// ErrProviderInit when the provider cannot be addressed.
func ResolveIdentity(opts Options) (Identity, error) {
	switch strings.ToLower(opts.Provider) {
	case ProviderOllama:
		if opts.Endpoint == "" {
			return Identity{}, fmt.Errorf("%w: ollama endpoint is not configured", ErrProviderInit)
		}
		if opts.Model == "" {
			return Identity{}, fmt.Errorf("%w: ollama model is not configured", ErrProviderInit)
		}
		return Identity{Endpoint: strings.TrimRight(opts.Endpoint, "/"), Model: opts.Model}, nil
	case ProviderONNX:
		if opts.ModelPath == "" {
			return Identity{}, fmt.Errorf("%w: onnx model_path is not configured", ErrProviderInit)
		}
		return Identity{Endpoint: "onnx", Model: opts.ModelPath}, nil
	case ProviderVertex:
		if opts.ProjectID == "" {
			return Identity{}, fmt.Errorf("%w: vertex project is not configured (GOOGLE_PROJECT_ID)", ErrProviderInit)
		}
		if opts.Location == "" || opts.Model == "" {
			return Identity{}, fmt.Errorf("%w: vertex location and model are required", ErrProviderInit)
		}
		return Identity{Endpoint: opts.ProjectID + "/" + opts.Location, Model: opts.Model}, nil
	case ProviderMock:
		return Identity{Endpoint: "mock", Model: fmt.Sprintf("bow-%d", mockDims(opts.Dimensions))}, nil
	default:
		return Identity{}, fmt.Errorf("%w: unknown embedding provider %q", ErrProviderInit, opts.Provider)
	}
}

// NewFactory returns a Factory that builds the provider named by opts for a resolved identity.
func NewFactory(opts Options) Factory {
	return func(ctx context.Context, id Identity) (Provider, error) {
		switch strings.ToLower(opts.Provider) {
		case ProviderOllama:
			return NewOllamaProvider(id.Endpoint, id.Model, opts.Token, opts.Timeout), nil
		case ProviderONNX:
			p, err := NewONNXProvider(id.Model, opts.Dimensions, opts.MaxTokens)
			if err != nil {
				return nil, err
			}
			return p, nil
		case ProviderVertex:
			project, location, ok := strings.Cut(id.Endpoint, "/")
			if !ok {
				return nil, fmt.Errorf("%w: vertex identity %q is not project/location", ErrProviderInit, id.Endpoint)
			}
			return NewVertexProvider(opts.Endpoint, project, location, id.Model, opts.Token, opts.Timeout), nil
		case ProviderMock:
			return NewMockProvider(mockDims(opts.Dimensions)), nil
		default:
			return nil, fmt.Errorf("%w: unknown embedding provider %q", ErrProviderInit, opts.Provider)
		}
	}
}

func mockDims(n int) int {
	if n <= 0 {
		return DefaultMockDimensions
	}
	return n
}
