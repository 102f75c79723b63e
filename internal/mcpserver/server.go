// Package mcpserver exposes the retrieval engine as MCP tools.
package mcpserver

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/hyperjump/palilex/internal/config"
	"github.com/hyperjump/palilex/internal/models"
	"github.com/hyperjump/palilex/internal/prompt"
	"github.com/hyperjump/palilex/internal/search"
)

// Tool names.
const (
	ToolLexicalSearch  = "lexical_search"
	ToolSemanticSearch = "semantic_search"
	ToolEnrich         = "enrich"
	ToolLookup         = "lookup"
	ToolBuildPrompt    = "build_prompt"
	ToolStatus         = "status"
)

// SearchArgs are the arguments of the search and lookup tools.
type SearchArgs struct {
	Query       string  `json:"query" jsonschema:"the search text"`
	Limit       int     `json:"limit,omitempty" jsonschema:"maximum number of results"`
	ScoreCutoff float64 `json:"score_cutoff,omitempty" jsonschema:"minimum lexical score in [0,100]"`
}

// SearchOutput is returned by the search and lookup tools.
type SearchOutput struct {
	Query   string                 `json:"query"`
	Source  string                 `json:"source"`
	Results []*models.SearchResult `json:"results"`
}

// EnrichArgs are the arguments of the enrich tool.
type EnrichArgs struct {
	Term string `json:"term" jsonschema:"one free-text term or wish"`
}

// PromptArgs are the arguments of the build_prompt tool.
type PromptArgs struct {
	Name     string   `json:"name" jsonschema:"the person's name"`
	Wishes   []string `json:"wishes" jsonschema:"the person's wishes"`
	Retrieve *bool    `json:"retrieve,omitempty" jsonschema:"enrich each wish with related terms (default true)"`
}

// Server wraps an MCP server whose tools call the engine.
type Server struct {
	engine  *search.Engine
	prompts *prompt.Builder
	logger  *zap.Logger
	server  *mcp.Server
}

// New creates the MCP server and registers its tools.
func New(engine *search.Engine, prompts *prompt.Builder, cfg *config.MCPConfig, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine:  engine,
		prompts: prompts,
		logger:  logger,
		server:  mcp.NewServer(&mcp.Implementation{Name: cfg.Name, Version: version}, nil),
	}
	s.registerTools()
	return s
}

// MCP returns the underlying server, for connecting custom transports.
func (s *Server) MCP() *mcp.Server {
	return s.server
}

// Run serves over stdio until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Starting MCP server on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolLexicalSearch,
		Description: "Fuzzy-match a Thai-script spelling against dictionary headwords. Scores are 0-100.",
	}, s.lexicalSearch)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolSemanticSearch,
		Description: "Find dictionary entries whose definitions are closest in meaning to the query. Thai queries are translated first.",
	}, s.semanticSearch)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolEnrich,
		Description: "Expand one term into itself plus lexically and semantically related Thai headwords.",
	}, s.enrich)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolLookup,
		Description: "Look up headwords by Roman (Pali) spelling with typo and prefix tolerance.",
	}, s.lookup)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolBuildPrompt,
		Description: "Build the system and user prompts for a personalized chant from a name and wishes.",
	}, s.buildPrompt)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolStatus,
		Description: "Report dictionary size, vector index state and embedding client state.",
	}, s.status)
}

func (s *Server) lexicalSearch(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, SearchOutput, error) {
	cfg := s.engine.Config()
	cutoff := args.ScoreCutoff
	if cutoff == 0 {
		cutoff = cfg.DefaultScoreCutoff
	}
	results, err := s.engine.LexicalSearch(args.Query, orDefault(args.Limit, cfg.DefaultLimit), cutoff)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, searchOutput(args.Query, models.SourceLexical, results), nil
}

func (s *Server) semanticSearch(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, SearchOutput, error) {
	results, err := s.engine.SemanticSearch(ctx, args.Query, orDefault(args.Limit, s.engine.Config().DefaultK))
	if err != nil {
		s.logger.Warn("semantic_search tool failed", zap.Error(err))
		return nil, SearchOutput{}, err
	}
	return nil, searchOutput(args.Query, models.SourceSemantic, results), nil
}

func (s *Server) lookup(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, SearchOutput, error) {
	results, err := s.engine.LookupRoman(ctx, args.Query, orDefault(args.Limit, s.engine.Config().DefaultLimit))
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, searchOutput(args.Query, models.SourceHeadword, results), nil
}

func (s *Server) enrich(ctx context.Context, req *mcp.CallToolRequest, args EnrichArgs) (*mcp.CallToolResult, models.EnrichResponse, error) {
	term := strings.TrimSpace(args.Term)
	terms, err := s.engine.Enrich(ctx, term)
	if err != nil {
		s.logger.Warn("enrich tool failed", zap.Error(err))
		return nil, models.EnrichResponse{}, err
	}
	return nil, models.EnrichResponse{Term: term, Terms: terms}, nil
}

func (s *Server) buildPrompt(ctx context.Context, req *mcp.CallToolRequest, args PromptArgs) (*mcp.CallToolResult, models.PromptResponse, error) {
	resp, err := s.prompts.Build(ctx, &models.PromptRequest{Name: args.Name, Wishes: args.Wishes, Retrieve: args.Retrieve})
	if err != nil {
		return nil, models.PromptResponse{}, err
	}
	return nil, *resp, nil
}

// status reports through an untyped output: the index build time has no object schema.
func (s *Server) status(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	return nil, s.engine.Status(), nil
}

func searchOutput(query, source string, results []*models.SearchResult) SearchOutput {
	if results == nil {
		results = []*models.SearchResult{}
	}
	return SearchOutput{Query: query, Source: source, Results: results}
}

func orDefault(n, def int) int {
	if n == 0 {
		return def
	}
	return n
}
