// Package main is the Quizzy CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/BillStark001/quizzy/internal/cli"
	"github.com/BillStark001/quizzy/internal/config"
	"github.com/BillStark001/quizzy/internal/docstore"
	"github.com/BillStark001/quizzy/internal/indexer"
	"github.com/BillStark001/quizzy/internal/keyword"
	"github.com/BillStark001/quizzy/internal/models"
	"github.com/BillStark001/quizzy/internal/search"
	"github.com/BillStark001/quizzy/internal/server"
	"github.com/BillStark001/quizzy/internal/storage"
	"github.com/BillStark001/quizzy/internal/watcher"
	"github.com/BillStark001/quizzy/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/quizzy/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used instead.
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
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "server":
		runServer()
	case "import":
		runImport()
	case "search":
		runSearch()
	case "tags":
		runTags()
	case "reindex":
		runReindex()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("quizzy version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`Usage: quizzy <command> [flags]

Commands:
  server    run the Quizzy API server
  import    import a batch file of questions/papers/records
  search    search questions or papers
  tags      autocomplete tags and keywords for a prefix
  reindex   rebuild the search indices
  status    show collection counts
  version   print the version
`)
}

// components holds the wired core, shared by server startup.
type components struct {
	Storage storage.Storage
	Store   *docstore.Store
	Indexer *indexer.Indexer
	Engine  *search.Engine
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*components, error) {
	st, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	tokenizer := keyword.NewTokenizer()
	cache := search.NewScoreCache(cfg.Search.CacheCapacity)
	engine := search.NewEngine(st, tokenizer, cache, &cfg.Search)
	store := docstore.NewStore(st,
		docstore.WithCache(cache),
		docstore.WithLogger(logger),
	)
	idx := indexer.NewIndexer(st, tokenizer,
		indexer.WithCache(cache),
		indexer.WithLogger(logger),
	)
	return &components{Storage: st, Store: store, Indexer: idx, Engine: engine}, nil
}

func (c *components) Close() {
	_ = c.Storage.Close()
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
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
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(cfg.Import.Directories) > 0 {
		watchOpts := []watcher.WatcherOption{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		importWatcher := watcher.NewWatcher(
			cfg.Import.Directories,
			cfg.Import.Extensions,
			func(path string) {
				count, err := components.Store.ImportBatchFile(context.Background(), path)
				if err != nil {
					logger.Warn("batch import failed", zap.String("path", path), zap.Error(err))
					return
				}
				logger.Info("batch imported", zap.String("path", path), zap.Int("count", count))
				if _, err := components.Indexer.RefreshSearchIndices(context.Background(), false); err != nil {
					logger.Warn("index refresh after import failed", zap.Error(err))
				}
			},
			watchOpts...,
		)
		if err := importWatcher.Start(ctx); err != nil {
			logger.Fatal("Failed to start import watcher", zap.Error(err))
		}
		defer importWatcher.Stop()
	}

	srv := server.NewServer(components.Engine, components.Store, components.Indexer, &cfg.Server, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	case sig := <-sigCh:
		logger.Info("Shutting down", zap.String("signal", sig.String()))
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Warn("Shutdown error", zap.Error(err))
		}
	}
}

// apiBase resolves the server address for client commands.
func apiBase(fs *flag.FlagSet, args []string) (string, []string) {
	addr := fs.String("addr", "", "server address (host:port); defaults to the config server")
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(args)
	if *addr != "" {
		return "http://" + *addr, fs.Args()
	}
	if cfg, _, err := loadConfig(*configPath); err == nil {
		return fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port), fs.Args()
	}
	return "http://localhost:8360", fs.Args()
}

func postJSON(url string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, utils.Truncate(string(data), 200))
	}
	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	base, args := apiBase(fs, os.Args[2:])
	if len(args) < 1 {
		fmt.Println("Usage: quizzy import <batch.json>")
		os.Exit(1)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Printf("Failed to read batch file: %v\n", err)
		os.Exit(1)
	}
	var batch docstore.Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		fmt.Printf("Failed to parse batch file: %v\n", err)
		os.Exit(1)
	}
	total := 0
	imports := []struct {
		path  string
		items interface{}
		count int
	}{
		{"/api/v1/questions/import", batch.Questions, len(batch.Questions)},
		{"/api/v1/papers/import", batch.Papers, len(batch.Papers)},
		{"/api/v1/records/import", batch.Records, len(batch.Records)},
	}
	for _, imp := range imports {
		if imp.count == 0 {
			continue
		}
		if err := postJSON(base+imp.path, imp.items, nil); err != nil {
			fmt.Printf("Import failed: %v\n", err)
			os.Exit(1)
		}
		total += imp.count
	}
	fmt.Printf("Imported %d documents\n", total)
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	collection := fs.String("collection", "questions", "collection to search (questions or papers)")
	byTags := fs.Bool("tags", false, "search the tag space instead of free text")
	pageSize := fs.Int("page-size", 0, "results per page")
	pageIndex := fs.Int("page", 0, "0-based page index")
	format := fs.String("format", "text", "output format (text or json)")
	base, args := apiBase(fs, os.Args[2:])
	if len(args) < 1 {
		fmt.Println("Usage: quizzy search [flags] <query>")
		os.Exit(1)
	}

	path := "/api/v1/search/" + *collection
	if *byTags {
		path += "/tags"
	}
	query := &models.SearchQuery{Query: args[0], PageSize: *pageSize, PageIndex: *pageIndex}
	var response models.SearchResponse
	if err := postJSON(base+path, query, &response); err != nil {
		fmt.Printf("Search failed: %v\n", err)
		os.Exit(1)
	}
	_ = cli.WriteSearchResults(os.Stdout, &response, cli.ParseFormat(*format))
}

func runTags() {
	fs := flag.NewFlagSet("tags", flag.ExitOnError)
	format := fs.String("format", "text", "output format (text or json)")
	base, args := apiBase(fs, os.Args[2:])
	if len(args) < 1 {
		fmt.Println("Usage: quizzy tags [flags] <prefix>")
		os.Exit(1)
	}
	resp, err := http.Get(base + "/api/v1/tags?q=" + url.QueryEscape(args[0]))
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	var suggestions models.TagSuggestions
	if err := json.NewDecoder(resp.Body).Decode(&suggestions); err != nil {
		fmt.Printf("Failed to decode response: %v\n", err)
		os.Exit(1)
	}
	_ = cli.WriteTagSuggestions(os.Stdout, &suggestions, cli.ParseFormat(*format))
}

func runReindex() {
	fs := flag.NewFlagSet("reindex", flag.ExitOnError)
	force := fs.Bool("force", false, "re-index every document even if fresh")
	base, _ := apiBase(fs, os.Args[2:])
	url := base + "/api/v1/index/refresh"
	if *force {
		url += "?force=true"
	}
	var out struct {
		Reindexed int `json:"reindexed"`
	}
	if err := postJSON(url, map[string]string{}, &out); err != nil {
		fmt.Printf("Reindex failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Re-indexed %d documents\n", out.Reindexed)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	base, _ := apiBase(fs, os.Args[2:])
	resp, err := http.Get(base + "/api/v1/status")
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	fmt.Println(string(data))
}
