// Package main is the Kalima CLI entry point.
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
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kalima/internal/canonical"
	"github.com/hyperjump/kalima/internal/cli"
	"github.com/hyperjump/kalima/internal/config"
	"github.com/hyperjump/kalima/internal/ingest"
	"github.com/hyperjump/kalima/internal/lexicon"
	"github.com/hyperjump/kalima/internal/models"
	"github.com/hyperjump/kalima/internal/segment"
	"github.com/hyperjump/kalima/internal/server"
	"github.com/hyperjump/kalima/internal/storage"
	"github.com/hyperjump/kalima/internal/watcher"
	"github.com/hyperjump/kalima/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/kalima/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if it exists, so "kalima server" from a project directory
// uses that project's config. Returns the config and the path actually loaded.
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
	case "server":
		runServer()
	case "resolve":
		runResolve()
	case "segment":
		runSegment()
	case "id":
		runID()
	case "lookup":
		runLookup()
	case "import":
		runImport()
	case "status":
		runStatus()
	case "watch":
		runWatch()
	case "version", "--version", "-v":
		fmt.Printf("kalima version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Storage   storage.Storage
	Lexicon   *lexicon.BleveIndex
	Cache     *segment.Cache
	Ingest    *ingest.Service
	Suggester *lexicon.Suggester
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Lexicon != nil {
		_ = c.Lexicon.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	lex, err := lexicon.NewBleveIndex(cfg.Storage.LexiconIndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize lexicon index: %w", err)
	}
	cache := segment.NewCache(cfg.Resolver.SegmentCacheSize)
	return &Components{
		Storage:   store,
		Lexicon:   lex,
		Cache:     cache,
		Ingest:    ingest.New(store, ingestOptions(cfg, logger, lex, cache)...),
		Suggester: lexicon.NewSuggester(lex, lexicon.WithMaxDistance(cfg.Lexicon.SuggestMaxDistance)),
	}, nil
}

func ingestOptions(cfg *config.Config, logger *zap.Logger, lex lexicon.Index, cache *segment.Cache) []ingest.Option {
	opts := []ingest.Option{
		ingest.WithLogger(logger),
		ingest.WithSegmentCache(cache),
		ingest.WithSplitAffixes(cfg.Resolver.SplitAffixesOrDefault()),
	}
	if lex != nil {
		opts = append(opts, ingest.WithLexicon(lex))
	}
	if cfg.Resolver.DeterministicOccurrenceIDs {
		opts = append(opts, ingest.WithOccurrenceIDs(canonical.OccurrenceTokenID))
	}
	return opts
}

// setup loads config and builds a logger for commands that touch storage directly.
func setup(configPath string, debug bool) (*config.Config, string, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return cfg, resolved, logger
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (imports, directory changes, resolves)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, logger := setup(*configPath, *debug)
	defer logger.Sync()
	debugMode := cfg.Debug || *debug
	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	svc, suggester := components.Ingest, components.Suggester
	watchOpts := []watcher.Option{
		watcher.WithRecursive(cfg.Import.RecursiveOrDefault()),
		watcher.WithDebounce(time.Duration(cfg.Import.DebounceMS) * time.Millisecond),
	}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watchSvc := watcher.New(
		cfg.Import.Directories,
		cfg.Import.Extensions,
		func(ctx context.Context, path string) error {
			if err := svc.ImportPath(ctx, path); err != nil {
				return err
			}
			if err := suggester.Refresh(); err != nil {
				logger.Warn("suggester refresh failed", zap.Error(err))
			}
			return nil
		},
		watchOpts...,
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	go watchSvc.ImportExisting()

	srv := server.NewServer(
		svc,
		components.Storage,
		components.Lexicon,
		cfg,
		logger,
		server.WithWatch(watchSvc, resolvedConfigPath),
		server.WithSuggester(suggester),
		server.WithSegmentCache(components.Cache),
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	watchSvc.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// argsReorder moves any flags (and their values) that appear after the positional
// arguments to the front so that flag.Parse() sees them. Go's flag package stops at
// the first non-flag argument, so "kalima lookup كتاب -limit 5" would otherwise
// leave -limit unparsed.
func argsReorder(args []string) []string {
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

// joinArgs joins positional args with spaces so multi-word input works the same
// with or without shell quoting.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// parseVerseRef accepts "2:255" or "2 255".
func parseVerseRef(args []string) (int, int, error) {
	parts := args
	if len(args) == 1 {
		parts = strings.Split(args[0], ":")
	}
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("verse must be surah:ayah, got %q", strings.Join(args, " "))
	}
	surah, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || surah <= 0 {
		return 0, 0, fmt.Errorf("invalid surah %q", parts[0])
	}
	ayah, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || ayah <= 0 {
		return 0, 0, fmt.Errorf("invalid ayah %q", parts[1])
	}
	return surah, ayah, nil
}

func outputFormat(s string) cli.OutputFormat {
	format, err := cli.ParseFormat(s)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return format
}

func runResolve() {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct storage mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage)")
	noSplit := fs.Bool("no-split", false, "keep every word whole instead of splitting affixes")
	persist := fs.Bool("persist", false, "store the resolved tokens and their universal entities")
	output := fs.String("output", "text", "output format: text, compact, or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	surah, ayah, err := parseVerseRef(fs.Args())
	if err != nil {
		fmt.Println("Usage: kalima resolve [flags] <surah:ayah>")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	format := outputFormat(*output)
	var split *bool
	if *noSplit {
		f := false
		split = &f
	}

	var verse models.VerseResolution
	if *serverURL != "" {
		endpoint := fmt.Sprintf("%s/api/v1/verses/%d/%d/tokens", *serverURL, surah, ayah)
		body := map[string]interface{}{"persist": *persist}
		if split != nil {
			body["split_affixes"] = *split
		}
		if err := doJSON(http.MethodPost, endpoint, body, http.StatusOK, &verse); err != nil {
			fmt.Fprintf(os.Stderr, "Resolve failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, logger := setup(*configPath, false)
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		res, err := components.Ingest.ResolveVerse(context.Background(), surah, ayah, ingest.ResolveOptions{
			SplitAffixes: split,
			Persist:      *persist,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Resolve failed: %v\n", err)
			os.Exit(1)
		}
		verse = models.VerseResolution{Surah: surah, Ayah: ayah, Lemmas: res.Lemmas, Tokens: res.Tokens}
	}
	if err := cli.WriteVerse(os.Stdout, &verse, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runSegment() {
	fs := flag.NewFlagSet("segment", flag.ExitOnError)
	noSplit := fs.Bool("no-split", false, "keep every word whole")
	cacheSize := fs.Int("cache", 1024, "segmentation cache size")
	output := fs.String("output", "text", "output format: text, compact, or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	text := joinArgs(fs.Args())
	if text == "" {
		fmt.Println("Usage: kalima segment [flags] <arabic text>")
		os.Exit(1)
	}
	format := outputFormat(*output)
	svc := ingest.New(nil,
		ingest.WithSegmentCache(segment.NewCache(*cacheSize)),
		ingest.WithSplitAffixes(!*noSplit),
	)
	if err := cli.WriteSegments(os.Stdout, svc.SegmentText(text, nil), format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// parseFields reads key=value arguments.
func parseFields(args []string) (map[string]string, error) {
	fields := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("expected key=value, got %q", a)
		}
		fields[strings.TrimSpace(k)] = v
	}
	return fields, nil
}

// splitList splits a comma-separated field into its non-empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// deriveEntity computes the canonical id of one universal entity from its fields.
// List fields (token_ids, sequence) are comma-separated.
func deriveEntity(kind string, f map[string]string) (canonical.Entity, error) {
	switch kind {
	case "root":
		return canonical.Root(f["root_norm"])
	case "token":
		return canonical.Token(f["lemma_norm"], f["pos"], f["root_norm"])
	case "span":
		return canonical.Span(f["span_type"], splitList(f["token_ids"]))
	case "sentence":
		return canonical.Sentence(f["kind"], splitList(f["sequence"]))
	case "valency":
		return canonical.Valency(f["verb_lemma_norm"], f["prep_token_id"], canonical.FrameType(f["frame_type"]))
	case "lexicon":
		return canonical.Lexicon(f["lemma_norm"], f["pos"], f["root_norm"], f["valency_id"], f["sense_key"])
	case "grammar":
		return canonical.Grammar(f["grammar_id"])
	case "synset":
		return canonical.Synset(f["synset_key"])
	case "synset-member":
		return canonical.SynsetMember(f["synset_id"], f["token_id"])
	}
	return canonical.Entity{}, fmt.Errorf("unknown entity type %q", kind)
}

func runID() {
	fs := flag.NewFlagSet("id", flag.ExitOnError)
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Println("Usage: kalima id <root|token|span|sentence|valency|lexicon|grammar|synset|synset-member> key=value ...")
		os.Exit(1)
	}
	fields, err := parseFields(fs.Args()[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	e, err := deriveEntity(fs.Arg(0), fields)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if outputFormat(*output) == cli.OutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(e)
		return
	}
	fmt.Printf("id:              %s\n", e.ID)
	fmt.Printf("canonical_input: %s\n", e.CanonicalInput)
}

func runLookup() {
	fs := flag.NewFlagSet("lookup", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct storage mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use the lexicon index directly)")
	limit := fs.Int("limit", 10, "number of lemmas")
	output := fs.String("output", "text", "output format: text, compact, or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	query := joinArgs(fs.Args())
	if query == "" {
		fmt.Println("Usage: kalima lookup [flags] <lemma, root or gloss>")
		os.Exit(1)
	}
	format := outputFormat(*output)

	var res lexicon.SearchResult
	if *serverURL != "" {
		endpoint := fmt.Sprintf("%s/api/v1/lexicon/search?q=%s&limit=%d", *serverURL, url.QueryEscape(query), *limit)
		if err := doJSON(http.MethodGet, endpoint, nil, http.StatusOK, &res); err != nil {
			fmt.Fprintf(os.Stderr, "Lookup failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, logger := setup(*configPath, false)
		defer logger.Sync()
		lex, err := lexicon.NewBleveIndex(cfg.Storage.LexiconIndexPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open lexicon: %v\n", err)
			os.Exit(1)
		}
		defer lex.Close()
		hits, err := lex.Search(context.Background(), query, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Lookup failed: %v\n", err)
			os.Exit(1)
		}
		res = lexicon.SearchResult{Query: query, Hits: hits}
		if len(hits) == 0 {
			sg := lexicon.NewSuggester(lex, lexicon.WithMaxDistance(cfg.Lexicon.SuggestMaxDistance))
			res.Suggestions, _ = sg.Suggest(query)
		}
	}
	if err := cli.WriteLexicon(os.Stdout, &res, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// collectImportFiles lists the files under root with one of exts, sorted. A file
// root is returned as is.
func collectImportFiles(root string, exts []string, recursive bool) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}
	allowed := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		allowed[strings.ToLower(e)] = struct{}{}
	}
	var files []string
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (!recursive || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := allowed[strings.ToLower(filepath.Ext(path))]; ok {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = import into storage directly)")
	output := fs.String("output", "text", "output format: text, compact, or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Println("Usage: kalima import [flags] <file-or-directory>")
		os.Exit(1)
	}
	format := outputFormat(*output)
	cfg, _, logger := setup(*configPath, false)
	defer logger.Sync()

	root, _ := filepath.Abs(fs.Arg(0))
	files, err := collectImportFiles(root, cfg.Import.Extensions, cfg.Import.RecursiveOrDefault())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", root, err)
		os.Exit(1)
	}

	importOne := func(path string) (ingest.FileResult, error) {
		var res ingest.FileResult
		err := doJSON(http.MethodPost, *serverURL+"/api/v1/imports", map[string]string{"path": path}, http.StatusOK, &res)
		return res, err
	}
	if *serverURL == "" {
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		importOne = func(path string) (ingest.FileResult, error) {
			return components.Ingest.ImportFile(context.Background(), path)
		}
	}

	results := make([]ingest.FileResult, 0, len(files))
	failed := 0
	for _, path := range files {
		res, err := importOne(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Import %s failed: %v\n", path, err)
			failed++
			continue
		}
		results = append(results, res)
	}
	if err := cli.WriteImports(os.Stdout, results, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// statusConfigResponse holds configuration info returned by status.
type statusConfigResponse struct {
	SplitAffixes               bool   `json:"split_affixes"`
	DeterministicOccurrenceIDs bool   `json:"deterministic_occurrence_ids"`
	DatabasePath               string `json:"database_path,omitempty"`
	LexiconIndexPath           string `json:"lexicon_index_path,omitempty"`
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Lemmas              int64                 `json:"lemmas"`
	LexiconEntries      uint64                `json:"lexicon_entries"`
	SegmentCacheEntries int                   `json:"segment_cache_entries"`
	DiskUsageBytes      *int64                `json:"disk_usage_bytes,omitempty"`
	Config              *statusConfigResponse `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct storage mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage)")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		if err := doJSON(http.MethodGet, *serverURL+"/api/v1/status", nil, http.StatusOK, &status); err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, logger := setup(*configPath, false)
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		lemmas, err := components.Storage.CountLemmas(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count lemmas failed: %v\n", err)
			os.Exit(1)
		}
		docs, _ := components.Lexicon.DocCount()
		status = statusResponse{
			Lemmas:         lemmas,
			LexiconEntries: docs,
			Config: &statusConfigResponse{
				SplitAffixes:               cfg.Resolver.SplitAffixesOrDefault(),
				DeterministicOccurrenceIDs: cfg.Resolver.DeterministicOccurrenceIDs,
				DatabasePath:               cfg.Storage.DatabasePath,
				LexiconIndexPath:           cfg.Storage.LexiconIndexPath,
			},
		}
		if diskBytes, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.LexiconIndexPath); err == nil {
			status.DiskUsageBytes = &diskBytes
		}
	}

	switch *output {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		writeStatusText(os.Stdout, &status)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *output)
		os.Exit(1)
	}
}

func writeStatusText(w io.Writer, status *statusResponse) {
	fmt.Fprintf(w, "lemmas:             %d   # lemmas in storage\n", status.Lemmas)
	fmt.Fprintf(w, "lexicon_entries:    %d   # lemmas in the lexicon index\n", status.LexiconEntries)
	if status.SegmentCacheEntries > 0 {
		fmt.Fprintf(w, "segment_cache:      %d   # memoized segmentations\n", status.SegmentCacheEntries)
	}
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # storage + indices on disk\n", *status.DiskUsageBytes)
	}
	if status.Config == nil {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# configuration")
	fmt.Fprintf(w, "split_affixes:      %t\n", status.Config.SplitAffixes)
	fmt.Fprintf(w, "deterministic_ids:  %t\n", status.Config.DeterministicOccurrenceIDs)
	if status.Config.DatabasePath != "" {
		fmt.Fprintf(w, "database_path:      %s\n", status.Config.DatabasePath)
	}
	if status.Config.LexiconIndexPath != "" {
		fmt.Fprintf(w, "lexicon_index_path: %s\n", status.Config.LexiconIndexPath)
	}
}

func runWatch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: kalima watch <add|remove|list> [path]")
		fmt.Println("  kalima watch add <path>     Watch a directory and import what it holds")
		fmt.Println("  kalima watch remove <path>  Stop watching a directory")
		fmt.Println("  kalima watch list           List watched directories")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	noImport := fs.Bool("no-import", false, "on add, only import files that change from now on")
	_ = fs.Parse(argsReorder(os.Args[3:]))
	endpoint := *serverURL + "/api/v1/imports/directories"

	switch sub {
	case "add":
		if fs.NArg() < 1 {
			fmt.Println("Usage: kalima watch add <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		body := map[string]interface{}{"path": path, "import": !*noImport}
		if err := doJSON(http.MethodPost, endpoint, body, http.StatusCreated, nil); err != nil {
			fmt.Printf("Add failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added: %s\n", path)
	case "remove":
		if fs.NArg() < 1 {
			fmt.Println("Usage: kalima watch remove <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		if err := doJSON(http.MethodDelete, endpoint+"?path="+url.QueryEscape(path), nil, http.StatusOK, nil); err != nil {
			fmt.Printf("Remove failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Removed: %s\n", path)
	case "list":
		var out struct {
			Directories []string `json:"directories"`
		}
		if err := doJSON(http.MethodGet, endpoint, nil, http.StatusOK, &out); err != nil {
			fmt.Printf("List failed: %v\n", err)
			os.Exit(1)
		}
		for _, d := range out.Directories {
			fmt.Println(d)
		}
	default:
		fmt.Printf("Unknown watch subcommand: %s\n", sub)
		os.Exit(1)
	}
}

// doJSON sends body as JSON and decodes the response into out when it is not nil.
// A status other than want is returned as an error carrying the response body.
func doJSON(method, endpoint string, body interface{}, want int, out interface{}) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, endpoint, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func printUsage() {
	fmt.Println(`kalima - Quranic lemma, token and canonical-id service

Usage:
  kalima server [flags]                  Start the HTTP server
  kalima resolve [flags] <surah:ayah>    Resolve a verse into tokens and lemmas
  kalima segment [flags] <text>          Split Arabic words into affixes and stems
  kalima id <entity> key=value ...       Derive the canonical id of an entity
  kalima lookup [flags] <query>          Search the lexicon
  kalima import [flags] <path>           Import lemma rows or grammar sources
  kalima status [flags]                  Show storage and index status
  kalima watch <add|remove|list>         Manage watched import directories
  kalima version                         Show version
  kalima help                            Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/kalima/config.yaml)
  --debug            Enable debug logging

Resolve Flags:
  --server string    Server URL (default: http://localhost:8080). Use --server "" for direct storage.
  --no-split         Keep every word whole
  --persist          Store tokens, universal entities and grammar links
  --output string    text, compact, or json (default: text)

Import Flags:
  --config string    Config file path (extensions and recursion come from import:)
  --server string    Import through a running server instead of opening storage

Examples:
  kalima server
  kalima resolve 2:255
  kalima resolve --persist --output json 1:1
  kalima segment وَبِالْآخِرَةِ هُمْ يُوقِنُونَ
  kalima id token lemma_norm=كتاب pos=noun
  kalima id span span_type=idafa token_ids=t1,t2
  kalima lookup كتاب
  kalima import ./data/quran_lemmas.xlsx
  kalima watch add /path/to/lemma-sheets`)
}
