// Package prompt assembles personalized generation prompts from a name and a list of wishes,
// enriching each wish with related dictionary terms.
package prompt

import (
	"context"
	"strings"

	"github.com/hyperjump/palilex/internal/models"
	"go.uber.org/zap"
)

// SystemPrompt instructs the generation model. The model call itself happens elsewhere.
const SystemPrompt = `You are a Thai Buddhist monk and an expert in the Pali language and the Buddhist scriptures.
You write Pali chants in Thai script that bless the people who recite them.
Each request gives a person's name and wishes, together with related Pali terms.
Write one personalized Pali chant in Thai script for that person, then its Thai translation.
Always answer in Thai, using exactly this layout:
PALI{{<the chant>}}
TRANSLATION{{<the translation>}}
Here is the user's information:
`

// DefaultMaxTerms bounds the number of terms rendered into one prompt.
const DefaultMaxTerms = 64

// Enricher expands a single wish into related terms.
type Enricher interface {
	Enrich(ctx context.Context, term string) ([]string, error)
	EnrichLexical(term string) ([]string, error)
}

// Builder renders user prompts.
type Builder struct {
	enricher Enricher
	maxTerms int
	logger   *zap.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithMaxTerms caps the rendered term list. n <= 0 disables the cap.
func WithMaxTerms(n int) Option {
	return func(b *Builder) { b.maxTerms = n }
}

// WithLogger sets the logger used for enrichment fallbacks.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder returns a Builder that enriches wishes through enricher.
func NewBuilder(enricher Enricher, opts ...Option) *Builder {
	b := &Builder{enricher: enricher, maxTerms: DefaultMaxTerms, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build validates req and returns the system and user prompts.
func (b *Builder) Build(ctx context.Context, req *models.PromptRequest) (*models.PromptResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &models.PromptResponse{
		System: SystemPrompt,
		User:   b.BuildUserPrompt(ctx, req.Name, req.Wishes, *req.Retrieve),
	}, nil
}

// BuildUserPrompt renders "Name: <name>\nWishes:\n<terms>\n", one term per line.
// With retrieve set each wish is followed by its enrichment; a semantic failure degrades
// to lexical terms for that wish. Repeated terms are rendered once.
func (b *Builder) BuildUserPrompt(ctx context.Context, name string, wishes []string, retrieve bool) string {
	terms := wishes
	if retrieve {
		terms = make([]string, 0, len(wishes)*4)
		for _, wish := range wishes {
			terms = append(terms, b.enrich(ctx, wish)...)
		}
	}
	terms = dedupe(terms, b.maxTerms)

	var sb strings.Builder
	sb.WriteString("Name: ")
	sb.WriteString(name)
	sb.WriteString("\nWishes:\n")
	sb.WriteString(strings.Join(terms, "\n"))
	sb.WriteString("\n")
	return sb.String()
}

func (b *Builder) enrich(ctx context.Context, wish string) []string {
	terms, err := b.enricher.Enrich(ctx, wish)
	if err == nil {
		return terms
	}
	b.logger.Warn("Enrichment failed; using lexical terms only",
		zap.String("wish", wish),
		zap.Error(err))
	terms, err = b.enricher.EnrichLexical(wish)
	if err != nil {
		b.logger.Warn("Lexical enrichment failed; using the wish as is",
			zap.String("wish", wish),
			zap.Error(err))
		return []string{wish}
	}
	return terms
}

func dedupe(terms []string, max int) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}
