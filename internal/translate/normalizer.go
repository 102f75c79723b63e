package translate

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Thai Unicode block bounds.
const (
	ThaiBlockStart rune = '\u0e00'
	ThaiBlockEnd   rune = '\u0e7f'
)

// Normalizer decides per query whether translation is needed before embedding.
// It never fails: any translation problem degrades to the original query.
type Normalizer struct {
	translator  Translator
	source      string
	target      string
	scriptStart rune
	scriptEnd   rune
	logger      *zap.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLanguages sets the source and target language codes (default th -> en).
func WithLanguages(source, target string) Option {
	return func(n *Normalizer) {
		if source != "" {
			n.source = source
		}
		if target != "" {
			n.target = target
		}
	}
}

// WithScript sets the Unicode range that marks a query as native script.
func WithScript(start, end rune) Option {
	return func(n *Normalizer) {
		if start > 0 && end >= start {
			n.scriptStart, n.scriptEnd = start, end
		}
	}
}

// WithLogger sets the logger used for fallback warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(n *Normalizer) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// NewNormalizer returns a Normalizer. A nil translator disables translation.
func NewNormalizer(translator Translator, opts ...Option) *Normalizer {
	n := &Normalizer{
		translator:  translator,
		source:      "th",
		target:      "en",
		scriptStart: ThaiBlockStart,
		scriptEnd:   ThaiBlockEnd,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// LooksNative reports whether text contains any rune from the native script block.
func (n *Normalizer) LooksNative(text string) bool {
	return strings.ContainsFunc(text, func(r rune) bool {
		return r >= n.scriptStart && r <= n.scriptEnd
	})
}

// NormalizeForEmbedding returns the translated query for native-script input and the
// query unchanged otherwise, or whenever translation is unavailable or fails.
func (n *Normalizer) NormalizeForEmbedding(ctx context.Context, query string) string {
	if query == "" || !n.LooksNative(query) {
		return query
	}
	if n.translator == nil {
		n.logger.Debug("No translation provider configured; using original query")
		return query
	}
	translated, err := n.translator.Translate(ctx, query, n.source, n.target)
	if err != nil {
		n.logger.Warn("Translation failed; using original query",
			zap.String("source", n.source),
			zap.String("target", n.target),
			zap.Error(err))
		return query
	}
	if strings.TrimSpace(translated) == "" {
		return query
	}
	return translated
}
