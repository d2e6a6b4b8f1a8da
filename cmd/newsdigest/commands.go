package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/newsdigest"
	"github.com/poiesic/newsdigest/api"
	"github.com/poiesic/newsdigest/config"
	"github.com/poiesic/newsdigest/core"
	"github.com/poiesic/newsdigest/pipeline"
	"github.com/poiesic/newsdigest/reembed"
	"github.com/poiesic/newsdigest/sink"
	"github.com/poiesic/newsdigest/storage"
	"github.com/poiesic/newsdigest/storage/badger"
	"github.com/urfave/cli/v2"
)

// loadSettings reads the environment and applies global flag overrides.
func loadSettings(c *cli.Context) (*config.Settings, error) {
	settings, err := config.Load(c.String("env-file"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("db") {
		settings.DatabasePath = c.String("db")
	}
	if c.IsSet("sources") {
		settings.SourcesFile = c.String("sources")
	}
	return settings, nil
}

func openDigest(c *cli.Context) (*newsdigest.Digest, error) {
	settings, err := loadSettings(c)
	if err != nil {
		return nil, err
	}
	return newsdigest.Open(c.Context, settings, newsdigest.WithLogger(slog.Default()))
}

// openStore opens only the database, for commands that never call a model.
func openStore(c *cli.Context) (storage.Store, error) {
	settings, err := loadSettings(c)
	if err != nil {
		return nil, err
	}
	store, err := badger.NewStore(settings.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

func runCommand(c *cli.Context) error {
	backfill := c.Int("backfill")
	if backfill < 0 || backfill > 30 {
		return fmt.Errorf("backfill must be between 0 and 30, got %d", backfill)
	}

	digest, err := openDigest(c)
	if err != nil {
		return err
	}
	defer digest.Close()

	orch, err := digest.NewOrchestrator(c.Context)
	if err != nil {
		return err
	}

	result, err := orch.Run(c.Context, pipeline.RunOptions{BackfillDays: backfill})
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	if c.Bool("json") {
		data, err := sink.Encode(result.Payload)
		if err != nil {
			return err
		}
		_, err = c.App.Writer.Write(append(data, '\n'))
		return err
	}

	stats := result.Payload.Stats
	fmt.Fprintf(c.App.Writer, "Run %s completed\n", result.RunID)
	fmt.Fprintf(c.App.Writer, "  items:             %d\n", stats.TotalItems)
	fmt.Fprintf(c.App.Writer, "  persisted:         %d\n", stats.PersistedCount)
	fmt.Fprintf(c.App.Writer, "  failed:            %d\n", stats.FailedItems)
	fmt.Fprintf(c.App.Writer, "  collection errors: %d\n", stats.CollectionErrors)
	return nil
}

func serveCommand(c *cli.Context) error {
	settings, err := loadSettings(c)
	if err != nil {
		return err
	}
	if c.IsSet("port") {
		settings.Port = c.Int("port")
	}
	if c.IsSet("schedule") {
		settings.Schedule = c.String("schedule")
	}

	logger := slog.Default()
	digest, err := newsdigest.Open(c.Context, settings, newsdigest.WithLogger(logger))
	if err != nil {
		return err
	}
	defer digest.Close()

	orch, err := digest.NewOrchestrator(c.Context)
	if err != nil {
		return err
	}
	searcher, err := digest.NewSearcher()
	if err != nil {
		return err
	}

	if !logger.Enabled(c.Context, slog.LevelDebug) {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.NewHandlers(orch, digest.Store(), searcher, logger))
	addr := net.JoinHostPort("", strconv.Itoa(settings.Port))
	server := api.NewServer(addr, router, orch, logger)

	if settings.Schedule != "" {
		if err := server.StartCron(settings.Schedule, pipeline.RunOptions{BackfillDays: c.Int("backfill")}); err != nil {
			return err
		}
		if next, ok := server.NextRun(); ok {
			logger.Info("next scheduled run", "at", next.Format(time.RFC3339))
		}
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Duration("shutdown-timeout"))
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func itemsCommand(c *cli.Context) error {
	query := storage.ItemQuery{
		Topic:       c.String("topic"),
		ArticleType: core.ArticleType(strings.ToLower(c.String("type"))),
		Limit:       c.Int("limit"),
	}
	if query.ArticleType != "" && !core.IsKnownArticleType(query.ArticleType) {
		return fmt.Errorf("unknown article type %q", c.String("type"))
	}

	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	items, err := store.RecentItems(c.Context, query)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(c.App.Writer, "No items found")
		return nil
	}
	for _, item := range items {
		fmt.Fprintf(c.App.Writer, "%s  %-8s %-16s %s\n",
			item.PublishedAt.Format("2006-01-02"), item.ArticleType, item.PrimaryTopic(), item.Title)
	}
	return nil
}

func runsCommand(c *cli.Context) error {
	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.RecentRuns(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(c.App.Writer, "No runs recorded")
		return nil
	}
	for _, run := range runs {
		fmt.Fprintf(c.App.Writer, "%s  %-9s collected=%d processed=%d persisted=%d errors=%d\n",
			run.RunID, run.Status, run.Counts.Collected, run.Counts.Processed,
			run.Counts.Persisted, run.Counts.CollectionErrors)
		if run.ErrorMessage != "" {
			fmt.Fprintf(c.App.Writer, "    %s\n", run.ErrorMessage)
		}
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errors.New("a search query is required")
	}

	digest, err := openDigest(c)
	if err != nil {
		return err
	}
	defer digest.Close()

	searcher, err := digest.NewSearcher()
	if err != nil {
		return err
	}
	results, err := searcher.Search(c.Context, query, c.Int("limit"))
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Fprintf(c.App.Writer, "%d: %s [%0.3f]\n", i+1, hit.Item.Title, hit.Score)
		for _, u := range hit.Item.OriginalURLs {
			fmt.Fprintf(c.App.Writer, "   %s\n", u)
		}
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	cfg := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		OnlyMissing:    c.Bool("only-missing"),
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if cfg.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if cfg.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	digest, err := openDigest(c)
	if err != nil {
		return err
	}
	defer digest.Close()

	reembedder, err := digest.NewReembedder(cfg, c.App.ErrWriter)
	if err != nil {
		return err
	}
	if _, err := reembedder.Run(c.Context); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
