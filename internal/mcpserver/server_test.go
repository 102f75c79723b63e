package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/hyperjump/palilex/internal/config"
	"github.com/hyperjump/palilex/internal/dictionary"
	"github.com/hyperjump/palilex/internal/embedding"
	"github.com/hyperjump/palilex/internal/models"
	"github.com/hyperjump/palilex/internal/prompt"
	"github.com/hyperjump/palilex/internal/search"
	"github.com/hyperjump/palilex/internal/translate"
	"github.com/hyperjump/palilex/internal/vector"
)

func connect(t *testing.T) (*mcp.ClientSession, *embedding.MockProvider) {
	t.Helper()
	ctx := context.Background()
	provider := embedding.NewMockProvider(16)
	clients := embedding.NewClientCache(func(ctx context.Context, id embedding.Identity) (embedding.Provider, error) {
		return provider, nil
	}, zap.NewNop())
	table := dictionary.NewTable("test", []models.DictionaryEntry{
		{RomanSpelling: "dhamma", NativeSpelling: "ธรรม", Definition: "the teaching"},
		{RomanSpelling: "buddha", NativeSpelling: "พุทธ", Definition: "awakened one"},
	})
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	engine, err := search.NewEngine(ctx, table, clients,
		embedding.Identity{Endpoint: "mock", Model: "bow-16"},
		translate.NewNormalizer(nil),
		vector.NewStore(t.TempDir()),
		&cfg.Search, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = engine.Close() })

	srv := New(engine, prompt.NewBuilder(engine), &cfg.MCP, "test", zap.NewNop())
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := srv.MCP().Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect failed: %v", err)
	}
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "palilex-test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect failed: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session, provider
}

func callTool[T any](t *testing.T, session *mcp.ClientSession, name string, args map[string]any) T {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool %s: %v", name, err)
	}
	if result.IsError {
		t.Fatalf("tool %s returned error: %+v", name, result.Content)
	}
	var raw []byte
	if result.StructuredContent != nil {
		if raw, err = json.Marshal(result.StructuredContent); err != nil {
			t.Fatal(err)
		}
	} else if len(result.Content) == 1 {
		if text, ok := result.Content[0].(*mcp.TextContent); ok {
			raw = []byte(text.Text)
		}
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %s output: %v", name, err)
	}
	return out
}

func TestTools_listed(t *testing.T) {
	session, _ := connect(t)
	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{
		ToolLexicalSearch: false, ToolSemanticSearch: false, ToolEnrich: false,
		ToolLookup: false, ToolBuildPrompt: false, ToolStatus: false,
	}
	for _, tool := range res.Tools {
		if _, ok := want[tool.Name]; ok {
			want[tool.Name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("tool %s not listed", name)
		}
	}
}

func TestLexicalSearchTool(t *testing.T) {
	session, _ := connect(t)
	out := callTool[SearchOutput](t, session, ToolLexicalSearch, map[string]any{"query": "ธัมมะ", "limit": 1})
	if out.Source != models.SourceLexical || len(out.Results) != 1 || out.Results[0].NativeSpelling != "ธรรม" {
		t.Errorf("output = %+v", out)
	}
}

func TestSemanticSearchTool(t *testing.T) {
	session, _ := connect(t)
	out := callTool[SearchOutput](t, session, ToolSemanticSearch, map[string]any{"query": "teaching", "limit": 1})
	if len(out.Results) != 1 || out.Results[0].Definition != "the teaching" {
		t.Errorf("output = %+v", out)
	}
}

func TestSemanticSearchTool_providerError(t *testing.T) {
	session, provider := connect(t)
	provider.FailWith(func([]string) error { return errors.New("unauthorized") })
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      ToolSemanticSearch,
		Arguments: map[string]any{"query": "teaching"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !result.IsError {
		t.Error("expected a tool error result")
	}
}

func TestEnrichTool(t *testing.T) {
	session, _ := connect(t)
	out := callTool[models.EnrichResponse](t, session, ToolEnrich, map[string]any{"term": "ธรรม"})
	if out.Term != "ธรรม" || len(out.Terms) < 2 || out.Terms[0] != "ธรรม" {
		t.Errorf("output = %+v", out)
	}
}

func TestLookupTool(t *testing.T) {
	session, _ := connect(t)
	out := callTool[SearchOutput](t, session, ToolLookup, map[string]any{"query": "buddah"})
	if out.Source != models.SourceHeadword || len(out.Results) == 0 || out.Results[0].RomanSpelling != "buddha" {
		t.Errorf("output = %+v", out)
	}
}

func TestBuildPromptTool(t *testing.T) {
	session, _ := connect(t)
	out := callTool[models.PromptResponse](t, session, ToolBuildPrompt, map[string]any{
		"name": "Somchai", "wishes": []string{"health"}, "retrieve": false,
	})
	if out.User != "Name: Somchai\nWishes:\nhealth\n" || out.System == "" {
		t.Errorf("output = %+v", out)
	}
}

func TestStatusTool(t *testing.T) {
	session, _ := connect(t)
	out := callTool[search.Status](t, session, ToolStatus, map[string]any{})
	if out.Dictionary.Entries != 2 || out.Index.State != vector.StateAbsent {
		t.Errorf("status = %+v", out)
	}
}
