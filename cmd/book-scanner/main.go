package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/book-scanner/internal/catalog"
	"github.com/zombor/book-scanner/internal/scanning"
	"github.com/zombor/book-scanner/internal/session"
	"github.com/zombor/book-scanner/internal/telemetry"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("book-scanner")
	var (
		port         = fs.IntLong("port", 8080, "HTTP server port")
		catalogURL   = fs.StringLong("catalog-url", catalog.DefaultBaseURL, "Google Books API base URL")
		apiKey       = fs.StringLong("api-key", "", "Google Books API key (optional, or set GOOGLE_BOOKS_API_KEY env var)")
		userAgent    = fs.StringLong("user-agent", "book-scanner/"+version, "User-Agent sent to the catalog")
		rateLimit    = fs.Float64Long("rate-limit", 0, "Catalog requests per second (0 = unlimited)")
		cacheSize    = fs.IntLong("cache-size", 0, "Catalog lookup cache entries (0 = disabled)")
		cacheTTL     = fs.DurationLong("cache-ttl", 10*time.Minute, "Catalog lookup cache entry lifetime")
		sessionIdle  = fs.DurationLong("session-idle", 30*time.Minute, "Discard sessions idle longer than this")
		scanCooldown = fs.DurationLong("scan-cooldown", session.DefaultScanCooldown, "Ignore repeat decodes of the same value within this window")
		authUser     = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass     = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		otlpEndpoint = fs.StringLong("otlp-endpoint", "", "OTLP/HTTP traces URL, e.g. http://localhost:4318/v1/traces (optional)")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("BOOK_SCANNER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "book-scanner", version, *otlpEndpoint)
	if err != nil {
		slog.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Error("Failed to flush traces", "error", err)
		}
	}()

	// Get API key from flag or environment
	key := *apiKey
	if key == "" {
		key = os.Getenv("GOOGLE_BOOKS_API_KEY")
	}
	if key == "" {
		slog.Warn("No Google Books API key configured, using anonymous quota")
	}

	slog.Info("Initializing catalog client...", "url", *catalogURL, "rate_limit", *rateLimit, "cache_size", *cacheSize)
	client, err := catalog.New(ctx,
		catalog.WithBaseURL(*catalogURL),
		catalog.WithAPIKey(key),
		catalog.WithUserAgent(*userAgent),
		catalog.WithRateLimit(*rateLimit),
		catalog.WithCache(*cacheSize, *cacheTTL),
	)
	if err != nil {
		slog.Error("Failed to initialize catalog client", "error", err)
		os.Exit(1)
	}

	store := session.NewMemoryStore()
	defer store.Close()

	// Initialize service
	sessionService := session.NewService(store, scanning.NewInterpreter(client), client)
	sessionService.SetScanCooldown(*scanCooldown)

	if *sessionIdle > 0 {
		go expireSessions(ctx, sessionService, *sessionIdle)
	}

	// Initialize server
	basicAuth := session.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := session.NewServer(sessionService, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	<-ctx.Done()

	slog.Info("Shutting down...")
}

// expireSessions periodically discards idle sessions until ctx is done
func expireSessions(ctx context.Context, service *session.Service, maxIdle time.Duration) {
	ticker := time.NewTicker(maxIdle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := service.ExpireIdle(maxIdle); err != nil {
				slog.Error("Failed to expire sessions", "error", err)
			}
		}
	}
}
