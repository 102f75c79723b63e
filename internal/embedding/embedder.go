// Package embedding turns text into L2-normalized vectors through a pluggable provider.
package embedding

import (
	"context"
	"errors"
)

var (
	// ErrProviderInit is returned when a provider cannot be constructed or fails its liveness probe.
	ErrProviderInit = errors.New("embedding provider init failed")
	// ErrProviderCall is returned when an embed call fails or returns a malformed response.
	ErrProviderCall = errors.New("embedding provider call failed")
)

// Provider is the raw embedding capability. Vectors are returned in input order and
// need not be normalized.
type Provider interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Close() error
}

// Identity names the provider endpoint and model a client talks to. Vectors produced
// under different identities must never share an index.
type Identity struct {
	Endpoint string `json:"endpoint"`
	Model    string `json:"model"`
}

// String returns "endpoint#model".
func (id Identity) String() string {
	return id.Endpoint + "#" + id.Model
}
