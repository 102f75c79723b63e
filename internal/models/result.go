package models

// Search result sources. Scores from different sources are not comparable.
const (
	SourceLexical  = "lexical"
	SourceSemantic = "semantic"
	SourceHeadword = "headword"
)

// SearchResult is a single search hit. Lexical scores are in [0,100], semantic scores
// are cosine similarity in [-1,1]; higher is more similar on both paths.
type SearchResult struct {
	NativeSpelling string  `json:"native_spelling"`
	RomanSpelling  string  `json:"roman_spelling"`
	Definition     string  `json:"definition,omitempty"`
	Score          float64 `json:"score"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Query     string          `json:"query"`
	Source    string          `json:"source"`
	Results   []*SearchResult `json:"results"`
	QueryTime int64           `json:"query_time_ms"`
}

// EnrichResponse carries the flattened term list for one free-text term.
type EnrichResponse struct {
	Term  string   `json:"term"`
	Terms []string `json:"terms"`
}

// PromptResponse holds the assembled generation prompt.
type PromptResponse struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// BuildResponse describes a completed vector index build.
type BuildResponse struct {
	BuildID    string `json:"build_id"`
	Count      int    `json:"count"`
	Dimensions int    `json:"dimensions"`
	Model      string `json:"model"`
}
