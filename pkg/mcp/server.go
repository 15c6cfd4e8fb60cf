package mcp

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"

	model "skipgram-go/internal/model/ngram"
	"skipgram-go/internal/service"
	"skipgram-go/internal/service/ngram"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const defaultPrefixLimit = 50

type NGramServer struct {
	server       *mcp.Server
	ngramService *service.NGramService
	logger       *zap.Logger
	handler      *mcp.StreamableHTTPHandler
}

type CountParams struct {
	Corpus   string   `json:"corpus" jsonschema:"the name of the corpus to query"`
	Tokens   []string `json:"tokens,omitempty" jsonschema:"the n-gram as a list of tokens"`
	Text     string   `json:"text,omitempty" jsonschema:"text to tokenize when tokens is empty"`
	Language string   `json:"language,omitempty" jsonschema:"tokenizer used for text"`
	Skip     int      `json:"skip,omitempty" jsonschema:"number of tokens skipped between the first and the last token"`
}

type PrefixParams struct {
	Corpus string   `json:"corpus" jsonschema:"the name of the corpus to query"`
	Prefix []string `json:"prefix,omitempty" jsonschema:"leading tokens every result must start with"`
	Order  int      `json:"order,omitempty" jsonschema:"n-gram length, 0 for every length"`
	Skip   *int     `json:"skip,omitempty" jsonschema:"skip value, omitted for every skip"`
	Limit  int      `json:"limit,omitempty" jsonschema:"maximum number of results"`
}

type StatsParams struct {
	Corpus string `json:"corpus" jsonschema:"the name of the corpus to describe"`
}

func NewNGramServer(ngramService *service.NGramService, logger *zap.Logger) *NGramServer {
	server := &NGramServer{
		ngramService: ngramService,
		logger:       logger,
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "SkipGram",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "ngramCount",
		Description: "Count how often a token sequence occurs in a corpus with the given skip. Returns the count and whether the sequence occurs with any skip",
	}, server.handleCount)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "ngramsWithPrefix",
		Description: "List the n-grams of a corpus that start with a prefix, with their skip and count",
	}, server.handlePrefix)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "corpusStats",
		Description: "Describe a corpus: files, tokens, languages and per length/skip entry counts",
	}, server.handleStats)

	server.handler = mcp.NewStreamableHTTPHandler(func(req *http.Request) *mcp.Server {
		return mcpServer
	}, nil)

	server.server = mcpServer
	return server
}

func textResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
	}
}

func (s *NGramServer) corpus(name string) (*service.CorpusManager, *mcp.CallToolResult) {
	cm, err := s.ngramService.GetCorpusManager(name)
	if err != nil {
		s.logger.Error("Corpus not found", zap.String("corpus", name), zap.Error(err))
		return nil, textResult("Corpus not found: %s", name)
	}
	return cm, nil
}

func (s *NGramServer) handleCount(ctx context.Context, req *mcp.CallToolRequest, args CountParams) (*mcp.CallToolResult, any, error) {
	s.logger.Info("Handling ngramCount request", zap.String("corpus", args.Corpus), zap.Strings("tokens", args.Tokens))

	cm, notFound := s.corpus(args.Corpus)
	if notFound != nil {
		return notFound, nil, nil
	}

	tokens, err := cm.QueryTokens(ctx, args.Tokens, args.Text, args.Language)
	if err != nil {
		return textResult("Failed to tokenize query: %v", err), nil, nil
	}
	count, err := cm.Count(tokens, args.Skip)
	if err != nil {
		return textResult("Failed to count: %v", err), nil, nil
	}

	return textResult("%q with skip %d occurs %d times in corpus '%s' (present with any skip: %t)",
		strings.Join(tokens, " "), args.Skip, count, args.Corpus, cm.Contains(tokens)), nil, nil
}

func (s *NGramServer) handlePrefix(ctx context.Context, req *mcp.CallToolRequest, args PrefixParams) (*mcp.CallToolResult, any, error) {
	s.logger.Info("Handling ngramsWithPrefix request", zap.String("corpus", args.Corpus), zap.Strings("prefix", args.Prefix))

	cm, notFound := s.corpus(args.Corpus)
	if notFound != nil {
		return notFound, nil, nil
	}

	orders, skips := ngram.All(), ngram.All()
	if args.Order > 0 {
		orders = ngram.Only(args.Order)
	}
	if args.Skip != nil {
		skips = ngram.Only(*args.Skip)
	}
	limit := args.Limit
	if limit <= 0 {
		limit = defaultPrefixLimit
	}

	entries, err := cm.NgramsWithPrefix(orders, skips, args.Prefix, limit)
	if err != nil {
		return textResult("Failed to list n-grams: %v", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: formatEntries(args.Corpus, entries)}},
	}, nil, nil
}

func (s *NGramServer) handleStats(ctx context.Context, req *mcp.CallToolRequest, args StatsParams) (*mcp.CallToolResult, any, error) {
	s.logger.Info("Handling corpusStats request", zap.String("corpus", args.Corpus))

	cm, notFound := s.corpus(args.Corpus)
	if notFound != nil {
		return notFound, nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: formatStats(cm.GetStats())}},
	}, nil, nil
}

func formatEntries(corpus string, entries []model.Entry[string]) string {
	if len(entries) == 0 {
		return fmt.Sprintf("No n-grams found in corpus '%s'.", corpus)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d n-grams in corpus '%s':\n", len(entries), corpus)
	for _, e := range entries {
		fmt.Fprintf(&sb, "  %s\tskip=%d\tcount=%d\n", e.Tokens.String(), e.Skip, e.Count)
	}
	return sb.String()
}

func formatStats(stats service.CorpusStats) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Corpus '%s'\n", stats.Name)
	fmt.Fprintf(&sb, "Files: %d\n", stats.TotalFiles)
	fmt.Fprintf(&sb, "Tokens: %d\n", stats.TotalTokens)
	for _, lang := range slices.Sorted(maps.Keys(stats.LanguageCounts)) {
		fmt.Fprintf(&sb, "Language %s: %d files\n", lang, stats.LanguageCounts[lang])
	}
	fmt.Fprintf(&sb, "Max order: %d, max skip: %d\n", stats.Global.MaxOrder, stats.Global.MaxSkip)
	fmt.Fprintf(&sb, "Unique entries: %d, total count: %d\n", stats.Global.Unique, stats.Global.Total)
	for _, st := range stats.Global.Strata {
		fmt.Fprintf(&sb, "  order=%d skip=%d unique=%d total=%d\n", st.Key.Order, st.Key.Skip, st.Unique, st.Total)
	}
	return sb.String()
}

// SetupHTTPRoutes serves the streamable HTTP transport on /mcp
func (s *NGramServer) SetupHTTPRoutes(router *gin.Engine) {
	router.Any("/mcp", gin.WrapH(s.handler))
}
