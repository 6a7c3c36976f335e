// Package main is the Mitsukeru CLI entry point.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/nitobe/mitsukeru/internal/cli"
	"github.com/nitobe/mitsukeru/internal/config"
	"github.com/nitobe/mitsukeru/internal/embedding"
	"github.com/nitobe/mitsukeru/internal/extract"
	"github.com/nitobe/mitsukeru/internal/generate"
	"github.com/nitobe/mitsukeru/internal/ingest"
	"github.com/nitobe/mitsukeru/internal/models"
	"github.com/nitobe/mitsukeru/internal/rag"
	"github.com/nitobe/mitsukeru/internal/server"
	"github.com/nitobe/mitsukeru/internal/storage"
	"github.com/nitobe/mitsukeru/internal/vector"
	"github.com/nitobe/mitsukeru/internal/verify"
	"github.com/nitobe/mitsukeru/internal/watcher"
	"github.com/nitobe/mitsukeru/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/mitsukeru/config.yaml"

// loadConfig loads config from path. When path is the default, a
// config.yaml in the current directory takes precedence so running from
// the project dir picks up the project's config.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// Provider overrides (MITSUKERU_API_KEY) may live in a local .env.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "server":
		runServer()
	case "load":
		runLoad()
	case "verify":
		runVerify()
	case "retrieve":
		runRetrieve()
	case "generate":
		runGenerate()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("mitsukeru version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// Components holds the initialized service graph.
type Components struct {
	Store     storage.Store
	Embedder  embedding.Embedder
	Generator generate.Generator
	Registry  *vector.Registry
	Corpus    *rag.Corpus
	RAG       *rag.Engine
	Verifier  *verify.Engine
}

// Close releases all resources in reverse initialization order.
func (c *Components) Close() {
	if c.Generator != nil {
		_ = c.Generator.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	embedder, err := embedding.NewProviderClient(embedding.ProviderConfig{
		BaseURL: cfg.Provider.BaseURL,
		Model:   cfg.Provider.EmbedModel,
		APIKey:  cfg.Provider.APIKey,
		Timeout: cfg.Provider.Timeout,
	}, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	generator, err := generate.NewClient(generate.ClientConfig{
		BaseURL:     cfg.Provider.BaseURL,
		Model:       cfg.Provider.GenerateModel,
		APIKey:      cfg.Provider.APIKey,
		Temperature: cfg.Provider.Temperature,
		MaxTokens:   cfg.Provider.MaxTokens,
		Timeout:     cfg.Provider.Timeout,
	}, logger)
	if err != nil {
		_ = embedder.Close()
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}

	registry := vector.NewRegistry()
	corpus := rag.NewCorpus(registry, store, embedder, cfg.Retrieval.CollectionName, logger)
	if err := corpus.Rebuild(ctx); err != nil {
		logger.Warn("initial corpus build failed; corpus is empty until reload", zap.Error(err))
	}

	ragEngine := rag.NewEngine(corpus, embedder, generator, rag.EngineConfig{
		TopK:                cfg.Retrieval.TopK,
		SimilarityThreshold: cfg.Retrieval.SimilarityThreshold,
	}, logger)

	verifier := verify.NewEngine(registry, embedder, logger)
	if len(cfg.Verify.Keywords) > 0 {
		if err := verifier.SetKeywords(ctx, cfg.Verify.Keywords); err != nil {
			logger.Warn("configured keywords not embedded; set them via the API", zap.Error(err))
		}
	}

	return &Components{
		Store:     store,
		Embedder:  embedder,
		Generator: generator,
		Registry:  registry,
		Corpus:    corpus,
		RAG:       ragEngine,
		Verifier:  verifier,
	}, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedPath),
		zap.Bool("debug", debugMode))

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	// Load snippet files present at startup, then rebuild once.
	loader := ingest.NewLoader(components.Store, logger)
	if n, err := loader.LoadDir(ctx, cfg.Storage.SnippetsDir); err != nil {
		logger.Warn("snippet directory load failed", zap.Error(err))
	} else if n > 0 {
		if err := components.Corpus.Rebuild(ctx); err != nil {
			logger.Warn("corpus rebuild failed", zap.Error(err))
		}
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var watch *watcher.Watcher
	if cfg.Watch.Enabled {
		watch = watcher.New(cfg.Storage.SnippetsDir, cfg.Watch.Debounce, func() {
			reloadCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			if _, err := loader.LoadDir(reloadCtx, cfg.Storage.SnippetsDir); err != nil {
				logger.Warn("snippet reload failed", zap.Error(err))
				return
			}
			if err := components.Corpus.Rebuild(reloadCtx); err != nil {
				logger.Warn("corpus rebuild failed", zap.Error(err))
			}
		}, logger)
		if err := watch.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
	}

	srv := server.NewServer(
		components.Verifier,
		components.RAG,
		components.Corpus,
		components.Store,
		loader,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watch != nil {
		watch.Stop()
	}
	watchCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

func runLoad() {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := zap.NewNop()

	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	loader := ingest.NewLoader(store, logger)
	ctx := context.Background()

	total := 0
	if fs.NArg() > 0 {
		for _, path := range fs.Args() {
			n, err := loader.LoadFile(ctx, path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Load failed: %v\n", err)
				os.Exit(1)
			}
			total += n
		}
	} else {
		n, err := loader.LoadDir(ctx, cfg.Storage.SnippetsDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Load failed: %v\n", err)
			os.Exit(1)
		}
		total = n
	}
	fmt.Printf("Loaded %d snippets. Restart the server or POST /api/v1/snippets/reload to re-embed.\n", total)
}

func runVerify() {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	filePath := fs.String("file", "", "verify a document file (txt, pdf, docx, xlsx) instead of stdin text")
	numResults := fs.Int("results", 0, "overall ranking size (default from config)")
	topSentences := fs.Int("sentences", 0, "matches per keyword (default from config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var document string
	switch {
	case *filePath != "":
		content, err := os.ReadFile(*filePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", *filePath, err)
			os.Exit(1)
		}
		document, err = extract.Extract(*filePath, content)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Extraction failed: %v\n", err)
			os.Exit(1)
		}
	case fs.NArg() > 0:
		document = strings.Join(fs.Args(), " ")
	default:
		fmt.Fprintln(os.Stderr, "Usage: mitsukeru verify [flags] <text>  (or -file <path>)")
		os.Exit(1)
	}

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, zap.NewNop())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	req := models.VerifyRequest{
		Document:     document,
		NumResults:   orDefault(*numResults, cfg.Verify.DefaultResults),
		TopSentences: orDefault(*topSentences, cfg.Verify.DefaultTopSentences),
	}
	if err := req.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	report, err := components.Verifier.Verify(ctx, req.Document, req.NumResults, req.TopSentences)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Verification failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteVerifyReport(os.Stdout, report, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runRetrieve() {
	fs := flag.NewFlagSet("retrieve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	topK := fs.Int("top-k", 0, "number of snippets (default from config)")
	threshold := fs.Float64("threshold", -2, "similarity threshold in [-1, 1] (default from config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mitsukeru retrieve [flags] <query>")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, zap.NewNop())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	query := &models.RetrieveQuery{
		Query: strings.TrimSpace(strings.Join(fs.Args(), " ")),
		TopK:  *topK,
	}
	if *threshold >= -1 {
		query.Threshold = threshold
	}

	resp, err := components.RAG.Retrieve(ctx, query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Retrieval failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteRetrieveResponse(os.Stdout, resp, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runGenerate() {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	interactive := fs.Bool("i", false, "interactive mode: read queries from stdin until EOF")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, zap.NewNop())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	answer := func(text string) {
		resp, err := components.RAG.Answer(ctx, &models.RetrieveQuery{Query: text})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Generation failed: %v\n", err)
			return
		}
		if err := cli.WriteGenerateResponse(os.Stdout, resp, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		}
	}

	if *interactive {
		fmt.Println("Enter a request per line (Ctrl-D to exit):")
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "exit" || line == "quit" {
				break
			}
			answer(line)
		}
		return
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mitsukeru generate [flags] <request>  (or -i for interactive mode)")
		os.Exit(1)
	}
	answer(strings.TrimSpace(strings.Join(fs.Args(), " ")))
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	count, err := store.CountSnippets(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to count snippets: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Config:          %s\n", resolvedPath)
	fmt.Printf("Database:        %s\n", cfg.Storage.DatabasePath)
	fmt.Printf("Snippets dir:    %s\n", cfg.Storage.SnippetsDir)
	fmt.Printf("Stored snippets: %d\n", count)
	fmt.Printf("Embed model:     %s\n", cfg.Provider.EmbedModel)
	fmt.Printf("Generate model:  %s\n", cfg.Provider.GenerateModel)
	fmt.Printf("Keywords:        %d configured\n", len(cfg.Verify.Keywords))
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func printUsage() {
	fmt.Println(`mitsukeru - keyword verification and code snippet retrieval

Usage:
  mitsukeru server [flags]              Start the HTTP server
  mitsukeru load [flags] [files...]     Load snippet JSON files into storage
  mitsukeru verify [flags] <text>       Score text against the configured keywords
  mitsukeru retrieve [flags] <query>    Find snippets relevant to a query
  mitsukeru generate [flags] <request>  Generate code grounded on retrieved snippets
  mitsukeru status [flags]              Show storage and config status
  mitsukeru version                     Show version
  mitsukeru help                        Show this help

Common flags:
  -config <path>   config file path (default ` + defaultConfigPath + `,
                   or ./config.yaml when present)
  -output <fmt>    text or json (verify, retrieve, generate)

Examples:
  mitsukeru server -debug
  mitsukeru load snippets/basics.json
  mitsukeru verify -file report.pdf
  mitsukeru retrieve how to parse JSON
  mitsukeru generate -i`)
}
