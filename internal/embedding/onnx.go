//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	ortInit    sync.Once
	ortInitErr error
)

// ONNXProvider runs a local sentence-embedding model through ONNX Runtime.
// It requires CGO and the onnxruntime shared library.
type ONNXProvider struct {
	session    *ort.AdvancedSession
	dimensions int
	maxTokens  int
	tokenizer  Tokenizer
	// Pre-allocated tensors for Run(); we update input data and read output.
	inputIDsTensor      *ort.Tensor[int64]
	attentionMaskTensor *ort.Tensor[int64]
	tokenTypeIDsTensor  *ort.Tensor[int64]
	outputTensor        *ort.Tensor[float32]
	mu                  sync.Mutex
}

// NewONNXProvider loads modelPath. InitializeEnvironment is called if not already done.
func NewONNXProvider(modelPath string, dimensions, maxTokens int) (*ONNXProvider, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: onnx provider needs positive dimensions", ErrProviderInit)
	}
	ortInit.Do(func() { ortInitErr = ort.InitializeEnvironment() })
	if ortInitErr != nil {
		return nil, fmt.Errorf("%w: onnx runtime: %v", ErrProviderInit, ortInitErr)
	}

	tokenizer := &SimpleTokenizer{}
	inputIDs, attentionMask, tokenTypeIDs := tokenizer.Tokenize("", maxTokens)
	seqLen := int64(len(inputIDs))

	p := &ONNXProvider{dimensions: dimensions, maxTokens: int(seqLen), tokenizer: tokenizer}
	var err error
	if p.inputIDsTensor, err = ort.NewTensor(ort.NewShape(1, seqLen), inputIDs); err != nil {
		return nil, fmt.Errorf("%w: input_ids tensor: %v", ErrProviderInit, err)
	}
	if p.attentionMaskTensor, err = ort.NewTensor(ort.NewShape(1, seqLen), attentionMask); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("%w: attention_mask tensor: %v", ErrProviderInit, err)
	}
	if p.tokenTypeIDsTensor, err = ort.NewTensor(ort.NewShape(1, seqLen), tokenTypeIDs); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("%w: token_type_ids tensor: %v", ErrProviderInit, err)
	}
	if p.outputTensor, err = ort.NewTensor(ort.NewShape(1, int64(dimensions)), make([]float32, dimensions)); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("%w: output tensor: %v", ErrProviderInit, err)
	}

	p.session, err = ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"output"},
		[]ort.ArbitraryTensor{p.inputIDsTensor, p.attentionMaskTensor, p.tokenTypeIDsTensor},
		[]ort.ArbitraryTensor{p.outputTensor},
		nil,
	)
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("%w: onnx session for %s: %v", ErrProviderInit, modelPath, err)
	}
	return p, nil
}

// EmbedBatch runs the model once per text; the session is not safe for concurrent Run calls.
func (p *ONNXProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return nil, fmt.Errorf("onnx provider is closed")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		inputIDs, attentionMask, tokenTypeIDs := p.tokenizer.Tokenize(text, p.maxTokens)
		copy(p.inputIDsTensor.GetData(), inputIDs)
		copy(p.attentionMaskTensor.GetData(), attentionMask)
		copy(p.tokenTypeIDsTensor.GetData(), tokenTypeIDs)

		if err := p.session.Run(); err != nil {
			return nil, fmt.Errorf("inference failed: %w", err)
		}
		emb := make([]float32, p.dimensions)
		copy(emb, p.outputTensor.GetData())
		out[i] = emb
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (p *ONNXProvider) Dimensions() int {
	return p.dimensions
}

// Close destroys the session and tensors.
func (p *ONNXProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if p.session != nil {
		err = p.session.Destroy()
		p.session = nil
	}
	if p.inputIDsTensor != nil {
		_ = p.inputIDsTensor.Destroy()
	}
	if p.attentionMaskTensor != nil {
		_ = p.attentionMaskTensor.Destroy()
	}
	if p.tokenTypeIDsTensor != nil {
		_ = p.tokenTypeIDsTensor.Destroy()
	}
	if p.outputTensor != nil {
		_ = p.outputTensor.Destroy()
	}
	p.inputIDsTensor, p.attentionMaskTensor, p.tokenTypeIDsTensor, p.outputTensor = nil, nil, nil, nil
	return err
}
