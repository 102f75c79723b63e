//go:build !cgo
// +build !cgo

package embedding

import (
	"context"
	"fmt"
)

// ONNXProvider stub type when built without CGO (see onnx.go for real implementation).
type ONNXProvider struct{}

// NewONNXProvider returns ErrProviderInit when built without CGO (ONNX not available).
func NewONNXProvider(_ string, _, _ int) (*ONNXProvider, error) {
	return nil, fmt.Errorf("%w: onnx provider requires CGO; build with CGO_ENABLED=1 and onnxruntime", ErrProviderInit)
}

// EmbedBatch is never reachable on the stub.
func (p *ONNXProvider) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, fmt.Errorf("%w: onnx provider unavailable", ErrProviderCall)
}

// Close is a no-op.
func (p *ONNXProvider) Close() error { return nil }
