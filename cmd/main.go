package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"skipgram-go/internal/config"
	"skipgram-go/internal/controller"
	"skipgram-go/internal/handler"
	"skipgram-go/internal/service"
	"skipgram-go/internal/service/tokenizer"
	"skipgram-go/pkg/mcp"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	var appConfigPath = flag.String("app", "", "Path to app configuration file")
	var corporaConfigPath = flag.String("corpora", "", "Path to corpora configuration file")
	var corpusName = flag.String("corpus", "default", "Corpus name used with -path")
	var path = flag.String("path", "", "Directory to ingest into -corpus")
	var language = flag.String("language", "", "Tokenizer for every file, detected by extension when empty")
	var maxOrder = flag.Int("order", 0, "Override ngram.max_order")
	var maxSkip = flag.Int("skip", -1, "Override ngram.max_skip")
	var top = flag.Int("top", 10, "Number of most frequent entries printed per order")
	var memStats = flag.Bool("memstats", false, "Print heap usage after ingestion")
	var serve = flag.Bool("serve", false, "Serve the HTTP API and MCP endpoint after ingestion")
	var watch = flag.Bool("watch", false, "Keep ingested directories in sync while serving")
	var logFile = flag.String("log", "", "Also write logs to this file")
	flag.Parse()

	cfg, err := config.LoadConfig(*appConfigPath, *corporaConfigPath)
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	if *maxOrder > 0 {
		cfg.NGram.MaxOrder = *maxOrder
	}
	if *maxSkip >= 0 {
		cfg.NGram.MaxSkip = *maxSkip
	}

	logger, err := newLogger(cfg.App.LogLevel, *logFile)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded successfully", zap.Any("config", cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, err := tokenizer.NewDefaultRegistry(logger)
	if err != nil {
		logger.Fatal("Failed to initialize tokenizers", zap.Error(err))
	}
	defer registry.Close()

	ngramService := service.NewNGramService(cfg, registry, logger)

	before := readHeap()
	results, err := ngramService.ProcessConfiguredCorpora(ctx)
	if err != nil {
		logger.Fatal("Failed to process configured corpora", zap.Error(err))
	}
	if *path != "" {
		res, err := ngramService.ProcessDirectory(ctx, *corpusName, *path, *language)
		if err != nil {
			logger.Fatal("Failed to process directory", zap.String("path", *path), zap.Error(err))
		}
		results = append(results, res)
	}

	for _, res := range results {
		cm, err := ngramService.GetCorpusManager(res.Corpus)
		if err != nil {
			continue
		}
		printReport(os.Stdout, res, cm, *top)
	}
	if *memStats {
		printHeap(os.Stdout, before, readHeap())
	}

	if !*serve {
		return
	}

	if *watch {
		for _, res := range results {
			startWatcher(ctx, ngramService, res, logger)
		}
	}

	ngramController := controller.NewNGramController(ngramService, logger)
	mcpServer := mcp.NewNGramServer(ngramService, logger)
	router := handler.SetupRouter(ngramController, mcpServer, logger)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down server")
		srv.Shutdown(context.Background())
	}()

	logger.Info("Starting server", zap.Int("port", cfg.App.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func startWatcher(ctx context.Context, ns *service.NGramService, res *service.ProcessResult, logger *zap.Logger) {
	dw, err := ns.WatchDirectory(res.Corpus, res.Root, res.Language)
	if err != nil {
		logger.Error("Failed to watch directory", zap.String("path", res.Root), zap.Error(err))
		return
	}
	go func() {
		if err := dw.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Watcher stopped", zap.String("path", res.Root), zap.Error(err))
		}
	}()
}

func newLogger(level, logFile string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	cfgZap := zap.NewProductionConfig()
	cfgZap.Level.SetLevel(lvl)
	cfgZap.OutputPaths = []string{"stderr"}
	if logFile != "" {
		cfgZap.OutputPaths = append(cfgZap.OutputPaths, logFile)
	}
	return cfgZap.Build()
}
