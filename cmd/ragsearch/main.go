// Package main is the ragsearch CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/ragsearch/internal/cli"
	"github.com/hyperjump/ragsearch/internal/config"
	"github.com/hyperjump/ragsearch/internal/database"
	"github.com/hyperjump/ragsearch/internal/embedding"
	"github.com/hyperjump/ragsearch/internal/indexer"
	"github.com/hyperjump/ragsearch/internal/llm"
	"github.com/hyperjump/ragsearch/internal/metrics"
	"github.com/hyperjump/ragsearch/internal/models"
	"github.com/hyperjump/ragsearch/internal/search"
	"github.com/hyperjump/ragsearch/internal/server"
	"github.com/hyperjump/ragsearch/internal/sqlquery"
	"github.com/hyperjump/ragsearch/internal/tabular"
	"github.com/hyperjump/ragsearch/internal/watcher"
	"github.com/hyperjump/ragsearch/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/ragsearch/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if it exists, so running from a project dir uses the
// project's config. Returns the config and the path that was actually loaded.
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
	command := os.Args[1]
	switch command {
	case "serve", "server":
		runServe()
	case "search":
		runSearch()
	case "sql":
		runSQL()
	case "status":
		runStatus()
	case "init":
		runInit()
	case "version", "--version", "-v":
		fmt.Printf("ragsearch version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	dataPath := fs.String("data", "", "data file to ingest (overrides data.path)")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, loadedPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *dataPath != "" {
		cfg.Data.Path = *dataPath
	}
	debugMode := *debug || cfg.Debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Info("Config loaded", zap.String("path", loadedPath), zap.Bool("debug", debugMode))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components, err := initializeComponents(ctx, cfg, logger, true)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	if cfg.Data.Path != "" {
		if _, err := components.Reloader.Reload(ctx); err != nil {
			logger.Fatal("Failed to load data", zap.String("path", cfg.Data.Path), zap.Error(err))
		}
	} else {
		logger.Warn("No data file configured; queries return 409 until data is loaded")
	}

	if cfg.Data.Watch && cfg.Data.Path != "" {
		w := watcher.NewWatcher(cfg.Data.Path, components.Reloader.OnChange,
			watcher.WithLogger(logger),
			watcher.WithDebounce(cfg.Data.Debounce))
		if err := w.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer w.Stop()
		logger.Info("Watching data file", zap.String("path", w.Path()))
	}

	opts := []server.Option{server.WithMetrics(components.Metrics)}
	if components.SQL != nil {
		opts = append(opts, server.WithSQL(components.SQL))
	}
	srv := server.NewServer(components.Engine, cfg, logger, opts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, "Usage: ragsearch search [flags] <query>\n\nFlags:\n")
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  ragsearch search "red widget"
  ragsearch search red widget                 # same as above
  ragsearch search --top-k 10 --output json red widget
  ragsearch search --server "" --data ./products.csv widget
`)
}

// joinArgs joins positional args with spaces so multi-word queries work the same
// with or without shell quoting.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// reorderArgs moves flags that appear after the query to the front so that
// flag.Parse() sees them. The flag package stops at the first non-flag argument.
func reorderArgs(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = ingest the data file in-process)")
	dataPath := fs.String("data", "", "data file to ingest in direct mode (overrides data.path)")
	topK := fs.Int("top-k", 0, "number of results (0 = configured default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	queryStr := joinArgs(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	query := &models.SearchQuery{Query: queryStr, TopK: *topK}

	var response *models.SearchResponse
	if *serverURL != "" {
		response = new(models.SearchResponse)
		if err := postJSON(*serverURL+"/api/v1/search", query, response); err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		components, logger := directComponents(*configPath, *dataPath, false)
		defer logger.Sync()
		defer components.Close()
		response, err = components.Engine.Search(context.Background(), query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runSQL() {
	fs := flag.NewFlagSet("sql", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = query the configured database directly)")
	dataPath := fs.String("data", "", "data file to load in direct mode (overrides data.path)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	question := joinArgs(fs.Args())
	if question == "" {
		fmt.Fprintln(os.Stderr, "Usage: ragsearch sql [flags] <question>")
		fs.PrintDefaults()
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var response *models.SQLResponse
	if *serverURL != "" {
		response = new(models.SQLResponse)
		if err := postJSON(*serverURL+"/api/v1/sql", &models.SQLQuery{Query: question}, response); err != nil {
			fmt.Fprintf(os.Stderr, "SQL query failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		components, logger := directComponents(*configPath, *dataPath, true)
		defer logger.Sync()
		defer components.Close()
		if components.SQL == nil {
			fmt.Fprintln(os.Stderr, "SQL is not configured: set llm.provider and database.dsn")
			os.Exit(1)
		}
		response, err = components.SQL.Ask(context.Background(), question)
		if err != nil {
			var qe *sqlquery.QueryError
			if errors.As(err, &qe) {
				fmt.Fprintf(os.Stderr, "Generated SQL: %s\n", qe.SQL)
			}
			fmt.Fprintf(os.Stderr, "SQL query failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cli.WriteSQLResult(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// directComponents loads config and ingests the data file in-process. It exits on failure.
func directComponents(configPath, dataPath string, withSQL bool) (*Components, *zap.Logger) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if dataPath != "" {
		cfg.Data.Path = dataPath
	}
	logger, err := utils.NewCLILogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	if cfg.Data.Path == "" {
		fmt.Fprintln(os.Stderr, "No data file: set data.path or pass --data")
		os.Exit(1)
	}
	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger, withSQL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if _, err := components.Reloader.Reload(ctx); err != nil {
		components.Close()
		fmt.Fprintf(os.Stderr, "Failed to load data: %v\n", err)
		os.Exit(1)
	}
	return components, logger
}

// postJSON posts body to url and decodes a 200 response into out.
func postJSON(url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(b, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = show local config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var status map[string]any
	if *serverURL != "" {
		status, err = statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, loadedPath, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		status = localStatus(cfg, loadedPath)
	}

	if format == cli.OutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}
	writeStatusText(os.Stdout, status, "")
}

func statusViaHTTP(serverURL string) (map[string]any, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	var status map[string]any
	if err := decodeResponse(resp, &status); err != nil {
		return nil, err
	}
	return status, nil
}

// localStatus describes the configuration without loading any data.
func localStatus(cfg *config.Config, path string) map[string]any {
	return map[string]any{
		"config_path": path,
		"sql_enabled": cfg.SQLEnabled(),
		"config": map[string]any{
			"data_path":          cfg.Data.Path,
			"watch":              cfg.Data.Watch,
			"embedding_provider": cfg.Embedding.Provider,
			"dimension":          cfg.Embedding.Dimensions,
			"metric":             cfg.Index.Metric,
			"metadata_backend":   cfg.Index.MetadataBackend,
			"preprocess":         cfg.Search.Preprocess,
			"default_top_k":      cfg.Search.DefaultTopK,
		},
	}
}

// writeStatusText prints status keys in sorted order, nesting maps by indent.
func writeStatusText(w io.Writer, status map[string]any, indent string) {
	keys := make([]string, 0, len(status))
	for k := range status {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := status[k].(type) {
		case map[string]any:
			fmt.Fprintf(w, "%s%s:\n", indent, k)
			writeStatusText(w, v, indent+"  ")
		default:
			fmt.Fprintf(w, "%s%s: %v\n", indent, k, v)
		}
	}
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "config file to create")
	dataPath := fs.String("data", "", "data file to ingest")
	force := fs.Bool("force", false, "overwrite an existing config file")
	_ = fs.Parse(os.Args[2:])

	if _, err := os.Stat(*configPath); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "Config %s already exists (use --force to overwrite)\n", *configPath)
		os.Exit(1)
	}
	cfg := &config.Config{Data: config.DataConfig{Path: *dataPath}}
	config.ApplyDefaults(cfg)
	if err := config.Save(*configPath, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Config written: %s\n", *configPath)
}

// Components holds initialized services.
type Components struct {
	Embedder embedding.Embedder
	Metrics  *metrics.Metrics
	Indexer  *indexer.Indexer
	Engine   *search.Engine
	Reloader *watcher.Reloader
	DB       database.Querier
	SQL      *sqlquery.Engine
}

// Close releases the served index, the database and the embedder.
func (c *Components) Close() {
	if c.Engine != nil {
		_ = c.Engine.Close()
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

// initializeComponents wires the retrieval pipeline and, when withSQL is set and
// configured, the NL-to-SQL path. No data is loaded; call Reloader.Reload.
func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger, withSQL bool) (*Components, error) {
	m := metrics.New()
	embedder, err := embedding.New(cfg.Embedding, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	c := &Components{Embedder: embedder, Metrics: m}

	c.Indexer = indexer.NewIndexer(embedder, cfg, indexer.WithLogger(logger), indexer.WithMetrics(m))
	c.Engine = search.NewEngine(embedder, cfg, nil, search.WithLogger(logger), search.WithMetrics(m))

	reloadOpts := []watcher.ReloaderOption{watcher.WithReloadLogger(logger)}
	if withSQL && cfg.SQLEnabled() {
		gen, err := llm.New(cfg.LLM, logger)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize llm: %w", err)
		}
		db, err := database.Open(ctx, cfg.Database.DSN)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		c.DB = db
		c.SQL = sqlquery.NewEngine(sqlquery.NewTranslator(gen), db,
			sqlquery.WithLogger(logger),
			sqlquery.WithMetrics(m),
			sqlquery.WithTimeout(cfg.LLM.Timeout),
			sqlquery.WithTable(cfg.Database.Table))
		if cfg.Database.LoadData {
			reloadOpts = append(reloadOpts, watcher.WithDatabase(db, cfg.Database.Table))
		}
		logger.Info("SQL path enabled", zap.String("llm", cfg.LLM.Provider), zap.String("table", cfg.Database.Table))
	}
	c.Reloader = watcher.NewReloader(cfg.Data.Path, tabular.Options{Sheet: cfg.Data.Sheet}, c.Indexer, c.Engine, reloadOpts...)
	return c, nil
}

func printUsage() {
	fmt.Println(`ragsearch - retrieval over tabular data with an optional NL-to-SQL path

Usage:
  ragsearch serve [flags]            Ingest the data file and start the HTTP server
  ragsearch search [flags] <query>   Retrieve the rows most similar to a query
  ragsearch sql [flags] <question>   Answer a question with generated SQL
  ragsearch status [flags]           Show index and configuration status
  ragsearch init [flags]             Write a default config file
  ragsearch version                  Show version
  ragsearch help                     Show this help

Serve Flags:
  --config string    Config file path (default: /usr/local/etc/ragsearch/config.yaml)
  --data string      Data file to ingest (overrides data.path)
  --debug            Enable debug logging

Search Flags:
  --config string    Config file path (direct mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" to ingest in-process.
  --data string      Data file for direct mode
  --top-k int        Number of results (default from config)
  --output string    Output format: text or json (default: text)

SQL Flags:
  --config string    Config file path (direct mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" to query the database directly.
  --data string      Data file for direct mode
  --output string    Output format: text or json (default: text)

Status Flags:
  --config string    Config file path (direct mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" for local config.
  --output string    Output format: text or json (default: text)

Init Flags:
  --config string    Config file to create (default: config.yaml)
  --data string      Data file path to record
  --force            Overwrite an existing file

Examples:
  ragsearch init --data ./products.csv
  ragsearch serve --config ./config.yaml
  ragsearch search "red widget"
  ragsearch search --output json --top-k 3 red widget
  ragsearch sql "how many products cost more than 10"
  ragsearch status --output json`)
}
