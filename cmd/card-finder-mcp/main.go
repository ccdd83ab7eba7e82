package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ironsheep/card-finder-mcp/internal/capture"
	"github.com/ironsheep/card-finder-mcp/internal/config"
	"github.com/ironsheep/card-finder-mcp/internal/features"
	"github.com/ironsheep/card-finder-mcp/internal/httpapi"
	"github.com/ironsheep/card-finder-mcp/internal/logging"
	"github.com/ironsheep/card-finder-mcp/internal/match"
	"github.com/ironsheep/card-finder-mcp/internal/server"
	"github.com/ironsheep/card-finder-mcp/internal/service"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	fmt.Println("card-finder-mcp - MCP server for locating card images inside screenshots")
	fmt.Println()
	fmt.Println("Usage: card-finder-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v      Print version information")
	fmt.Println("  --help, -h         Print this help message")
	fmt.Println("  --config FILE      Load configuration from a JSON file")
	fmt.Println("  --http ADDR        Serve HTTP on ADDR instead of MCP over stdio")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  CARD_FINDER_LOG_LEVEL=debug          Log level (debug|info|warn|error)")
	fmt.Println("  CARD_FINDER_THRESHOLD=0.4            Default ratio-test threshold")
	fmt.Println("  CARD_FINDER_MIN_MATCHES=4            Default minimum good matches")
	fmt.Println("  CARD_FINDER_MATCHER=flann            Matcher (flann|bruteforce)")
	fmt.Println("  CARD_FINDER_MAX_REQUEST_BYTES=N      Largest accepted request")
	fmt.Println("  CARD_FINDER_HTTP_ADDR=:8080          Same as --http")
	fmt.Println()
	fmt.Println("Without --http the server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

func main() {
	var (
		showVersion bool
		showHelp    bool
		configPath  string
		httpAddr    string
	)

	flags := flag.NewFlagSet("card-finder-mcp", flag.ExitOnError)
	flags.Usage = usage
	flags.BoolVar(&showVersion, "version", false, "print version information")
	flags.BoolVar(&showVersion, "v", false, "print version information")
	flags.BoolVar(&showHelp, "help", false, "print help")
	flags.BoolVar(&showHelp, "h", false, "print help")
	flags.StringVar(&configPath, "config", "", "configuration file")
	flags.StringVar(&httpAddr, "http", "", "HTTP listen address")
	_ = flags.Parse(os.Args[1:])

	switch {
	case showVersion:
		fmt.Printf("card-finder-mcp %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	case showHelp:
		usage()
		return
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}
	if httpAddr != "" {
		cfg.Server.HTTPAddr = httpAddr
	}

	// Logs go to stderr (stdout is for MCP protocol)
	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Debug("card finder starting",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
		zap.String("matcher", cfg.Match.Matcher))

	source, err := features.New(cfg.Match.Matcher)
	if err != nil {
		logger.Fatal("invalid matcher", zap.Error(err))
	}
	defaults := match.Thresholds{Ratio: cfg.Match.Threshold, MinMatches: cfg.Match.MinMatches}
	svc := service.New(match.NewEngine(source), defaults, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.HTTPAddr != "" {
		err = runHTTP(ctx, cfg, svc, logger)
	} else {
		err = runStdio(ctx, cfg, svc, logger)
	}
	if err != nil && err != context.Canceled {
		logger.Fatal("server error", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runStdio serves MCP until stdin closes or a signal arrives. The read loop
// blocks on stdin, so a signal returns without waiting for it.
func runStdio(ctx context.Context, cfg *config.Config, svc *service.Service, logger *zap.Logger) error {
	srv := server.New(svc, logger, server.Options{
		Version:         Version,
		MaxRequestBytes: cfg.Server.MaxRequestBytes,
		Capturer:        capture.New(logger),
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("received shutdown signal")
		return nil
	}
}

func runHTTP(ctx context.Context, cfg *config.Config, svc *service.Service, logger *zap.Logger) error {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	httpapi.RegisterRoutes(router, svc, logger, int64(cfg.Server.MaxRequestBytes))

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("http api listening", zap.String("addr", cfg.Server.HTTPAddr))
	return httpapi.Serve(ctx, srv, nil, 15*time.Second, logger)
}
