package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/hyperjump/palilex/internal/cli"
	"github.com/hyperjump/palilex/internal/config"
	"github.com/hyperjump/palilex/internal/models"
	"github.com/hyperjump/palilex/internal/search"
)

// searchCommand describes one of the result-list commands (search, semantic, lookup).
type searchCommand struct {
	name    string
	path    string
	source  string
	summary string
	// lexical commands accept --score-cutoff.
	lexical      bool
	defaultLimit func(config.SearchConfig) int
	run          func(ctx context.Context, engine *search.Engine, query string, limit int, cutoff float64) ([]*models.SearchResult, error)
}

var lexicalCommand = searchCommand{
	name:         "search",
	path:         "/api/v1/search",
	source:       models.SourceLexical,
	summary:      "Fuzzy-match a Thai spelling against the dictionary. Scores are 0-100.",
	lexical:      true,
	defaultLimit: func(c config.SearchConfig) int { return c.DefaultLimit },
	run: func(_ context.Context, engine *search.Engine, q string, limit int, cutoff float64) ([]*models.SearchResult, error) {
		return engine.LexicalSearch(q, limit, cutoff)
	},
}

var semanticCommand = searchCommand{
	name:         "semantic",
	path:         "/api/v1/search/semantic",
	source:       models.SourceSemantic,
	summary:      "Find entries whose definitions are closest in meaning. Thai queries are translated first.",
	defaultLimit: func(c config.SearchConfig) int { return c.DefaultK },
	run: func(ctx context.Context, engine *search.Engine, q string, k int, _ float64) ([]*models.SearchResult, error) {
		return engine.SemanticSearch(ctx, q, k)
	},
}

var lookupCommand = searchCommand{
	name:         "lookup",
	path:         "/api/v1/lookup",
	source:       models.SourceHeadword,
	summary:      "Match romanized Pali headwords (typo tolerant).",
	defaultLimit: func(c config.SearchConfig) int { return c.DefaultLimit },
	run: func(ctx context.Context, engine *search.Engine, q string, limit int, _ float64) ([]*models.SearchResult, error) {
		return engine.LookupRoman(ctx, q, limit)
	},
}

func printSearchUsage(fs *flag.FlagSet, cmd searchCommand) {
	fmt.Fprintf(fs.Output(), "Usage: palilex %s [flags] <query>\n\n%s\n", cmd.name, cmd.summary)
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces.\n\n")
	fs.PrintDefaults()
}

func runSearch(cmd searchCommand) {
	args := searchArgsReorder(os.Args[2:])
	defaults := searchDefaultsFromConfig(searchConfigPathFromArgs(args, defaultConfigPath))

	fs := flag.NewFlagSet(cmd.name, flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = search the dictionary directly)")
	limit := fs.Int("limit", cmd.defaultLimit(defaults), "number of results")
	cutoff := defaults.DefaultScoreCutoff
	if cmd.lexical {
		fs.Float64Var(&cutoff, "score-cutoff", defaults.DefaultScoreCutoff, "minimum lexical score (0-100)")
	}
	outputFormat := fs.String("output", "text", "output format: text, compact or json")
	fs.Usage = func() { printSearchUsage(fs, cmd) }
	_ = fs.Parse(args)

	query := buildSearchQuery(fs.Args())
	if query == "" {
		printSearchUsage(fs, cmd)
		os.Exit(1)
	}
	format := parseFormat(*outputFormat)

	var response *models.SearchResponse
	var err error
	if *serverURL != "" {
		params := url.Values{"q": {query}, "limit": {strconv.Itoa(*limit)}}
		if cmd.lexical {
			params.Set("score_cutoff", strconv.FormatFloat(cutoff, 'f', -1, 64))
		}
		response = &models.SearchResponse{}
		err = getJSON(*serverURL, cmd.path, params, response)
	} else {
		response, err = searchDirect(*configPath, cmd, query, *limit, cutoff)
	}
	if err != nil {
		fatalf("Search failed: %v", err)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func searchDirect(configPath string, cmd searchCommand, query string, limit int, cutoff float64) (*models.SearchResponse, error) {
	var response *models.SearchResponse
	err := withComponents(configPath, func(ctx context.Context, c *Components) error {
		start := time.Now()
		results, err := cmd.run(ctx, c.Engine, query, limit, cutoff)
		if err != nil {
			return err
		}
		response = &models.SearchResponse{
			Query:     query,
			Source:    cmd.source,
			Results:   results,
			QueryTime: time.Since(start).Milliseconds(),
		}
		return nil
	})
	return response, err
}

// withComponents runs fn against freshly initialized components and releases them afterwards.
func withComponents(configPath string, fn func(ctx context.Context, c *Components) error) error {
	cfg, _, logger := setup(configPath, false, false)
	defer logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()
	return fn(ctx, components)
}

// commonFlags registers the flags every one-shot command accepts.
func commonFlags(fs *flag.FlagSet) (configPath, serverURL, outputFormat *string) {
	configPath = fs.String("config", defaultConfigPath, "config file path")
	serverURL = fs.String("server", "", "server URL (empty = use the dictionary directly)")
	outputFormat = fs.String("output", "text", "output format: text, compact or json")
	return configPath, serverURL, outputFormat
}

func runEnrich() {
	fs := flag.NewFlagSet("enrich", flag.ExitOnError)
	configPath, serverURL, outputFormat := commonFlags(fs)
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	term := buildSearchQuery(fs.Args())
	if term == "" {
		fmt.Fprintln(os.Stderr, "Usage: palilex enrich [flags] <term>")
		os.Exit(1)
	}
	format := parseFormat(*outputFormat)

	response := &models.EnrichResponse{Term: term}
	var err error
	if *serverURL != "" {
		err = getJSON(*serverURL, "/api/v1/enrich", url.Values{"q": {term}}, response)
	} else {
		err = withComponents(*configPath, func(ctx context.Context, c *Components) error {
			terms, err := c.Engine.Enrich(ctx, term)
			response.Terms = terms
			return err
		})
	}
	if err != nil {
		fatalf("Enrich failed: %v", err)
	}
	if err := cli.WriteTerms(os.Stdout, response, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runPrompt() {
	fs := flag.NewFlagSet("prompt", flag.ExitOnError)
	configPath, serverURL, outputFormat := commonFlags(fs)
	name := fs.String("name", "", "name of the person the chant is for")
	retrieve := fs.Bool("retrieve", true, "enrich wishes with dictionary terms")
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	req := &models.PromptRequest{Name: *name, Wishes: fs.Args(), Retrieve: retrieve}
	if err := req.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n\nUsage: palilex prompt --name <name> [flags] <wish>...\n", err)
		os.Exit(1)
	}
	format := parseFormat(*outputFormat)

	response := &models.PromptResponse{}
	var err error
	if *serverURL != "" {
		err = postJSON(*serverURL, "/api/v1/prompt", req, response)
	} else {
		err = withComponents(*configPath, func(ctx context.Context, c *Components) error {
			resp, err := c.Prompts.Build(ctx, req)
			if resp != nil {
				response = resp
			}
			return err
		})
	}
	if err != nil {
		fatalf("Prompt failed: %v", err)
	}
	if err := writePrompt(os.Stdout, response, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func writePrompt(w io.Writer, response *models.PromptResponse, format cli.OutputFormat) error {
	switch format {
	case cli.OutputJSON:
		return cli.WriteJSON(w, response)
	case cli.OutputCompact:
		_, err := fmt.Fprint(w, response.User)
		return err
	default:
		_, err := fmt.Fprintf(w, "# system\n%s\n\n# user\n%s", response.System, response.User)
		return err
	}
}

func runBuildIndex() {
	fs := flag.NewFlagSet("build-index", flag.ExitOnError)
	configPath, serverURL, outputFormat := commonFlags(fs)
	_ = fs.Parse(os.Args[2:])
	format := parseFormat(*outputFormat)

	response := &models.BuildResponse{}
	var err error
	if *serverURL != "" {
		err = postJSON(*serverURL, "/api/v1/index/build", nil, response)
	} else {
		err = withComponents(*configPath, func(ctx context.Context, c *Components) error {
			resp, err := c.Engine.BuildIndex(ctx)
			if resp != nil {
				response = resp
			}
			return err
		})
	}
	if err != nil {
		fatalf("Index build failed: %v", err)
	}
	if format == cli.OutputJSON {
		if err := cli.WriteJSON(os.Stdout, response); err != nil {
			fatalf("Output failed: %v", err)
		}
		return
	}
	fmt.Printf("Built index %s: %d vectors x %d dims (model %s)\n",
		response.BuildID, response.Count, response.Dimensions, response.Model)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath, serverURL, outputFormat := commonFlags(fs)
	_ = fs.Parse(os.Args[2:])
	format := parseFormat(*outputFormat)

	var status search.Status
	var err error
	if *serverURL != "" {
		err = getJSON(*serverURL, "/api/v1/status", nil, &status)
	} else {
		err = withComponents(*configPath, func(_ context.Context, c *Components) error {
			status = c.Engine.Status()
			return nil
		})
	}
	if err != nil {
		fatalf("Status failed: %v", err)
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}
