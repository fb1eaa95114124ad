package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/labstack/echo/v4"
	_ "github.com/lib/pq"
	"github.com/magiconair/properties"

	errorpages "github.com/dgduncan/go-error-pages"
	"github.com/dgduncan/go-error-pages/echopage"
	"github.com/dgduncan/go-error-pages/sources/dynamodb"
	"github.com/dgduncan/go-error-pages/sources/local"
	"github.com/dgduncan/go-error-pages/sources/postgres"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "listen address")
		configFile = flag.String("config", "", "properties file mapping error.page.<status> to page paths")
		prefix     = flag.String("prefix", errorpages.DefaultPrefix, "key prefix of error page entries")
		root       = flag.String("root", "", "directory relative page paths are resolved against")
		static     = flag.String("static", ".", "directory served as content")
		dsn        = flag.String("postgres", "", "load pages from this PostgreSQL database")
		table      = flag.String("dynamodb-table", "", "load pages from this DynamoDB table")
		compress   = flag.Bool("compress", false, "encode error pages as the client accepts")
		useEcho    = flag.Bool("echo", false, "serve through echo instead of net/http")
		debug      = flag.Bool("debug", false, "log at debug level")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	index, err := loadIndex(*configFile, *prefix)
	if err != nil {
		logger.Error("unable to load error page configuration", "file", *configFile, "error", err)
		os.Exit(1)
	}
	if index.Len() == 0 {
		logger.Warn("no error pages configured, every error renders the default page")
	}

	source, err := newSource(ctx, *dsn, *table, *root)
	if err != nil {
		logger.Error("unable to create page source", "error", err)
		os.Exit(1)
	}

	pages := errorpages.NewErrorPages(
		errorpages.NewPageCache(source, logger),
		index,
		&errorpages.Config{Compression: *compress},
		logger,
	)

	if *useEcho {
		err = serveEcho(ctx, *addr, *static, pages)
	} else {
		err = serveHTTP(ctx, *addr, *static, pages)
	}
	if err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}

	stats := pages.Stats()
	logger.Info("server stopped",
		"rendered", stats.Rendered,
		"fallbacks", stats.Fallbacks,
		"write_failures", stats.WriteFailures)
}

func loadIndex(file, prefix string) (errorpages.Index, error) {
	if file == "" {
		return errorpages.NewIndex(), nil
	}

	p, err := properties.LoadFile(file, properties.UTF8)
	if err != nil {
		return errorpages.Index{}, err
	}

	return errorpages.LoadIndex(p.Map(), prefix), nil
}

func newSource(ctx context.Context, dsn, table, root string) (errorpages.Source, error) {
	switch {
	case dsn != "":
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, err
		}
		return postgres.New(ctx, db, &postgres.Config{CreateTable: true})

	case table != "":
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, err
		}
		return dynamodb.New(awsdynamodb.NewFromConfig(cfg), &dynamodb.Config{Table: table})

	default:
		return local.FileSource{Root: root}, nil
	}
}

func serveHTTP(ctx context.Context, addr, static string, pages *errorpages.ErrorPages) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           pages.Middleware(http.FileServer(http.Dir(static))),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func serveEcho(ctx context.Context, addr, static string, pages *errorpages.ErrorPages) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(echopage.Middleware(pages))
	e.Static("/", static)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)
	}()

	if err := e.Start(addr); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
