// Command highlightd serves tokenization over HTTP, so a web front end can
// highlight source text without embedding the synlex engine in-process.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/aldenbrook/synlex"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	grammarDir := os.Getenv("HIGHLIGHTD_GRAMMAR_DIR")
	if grammarDir == "" {
		grammarDir = "/usr/share/highlight/grammars"
	}
	cat := synlex.NewCatalogFromDir(grammarDir, true, synlex.WithLogger(logger))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := cat.Watch(ctx); err != nil && err != context.Canceled {
			logger.Error("grammar watch stopped", zap.Error(err))
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	srv := &server{catalog: cat, logger: logger}
	e.POST("/tokenize", srv.tokenize)
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	addr := os.Getenv("HIGHLIGHTD_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

type server struct {
	catalog *synlex.Catalog
	logger  *zap.Logger
}

type tokenizeRequest struct {
	Scope string   `json:"scope"`
	Lines []string `json:"lines"`
}

type tokenizeResponse struct {
	Tokens [][]synlex.Token `json:"tokens"`
}

// tokenize handles POST /tokenize: {"scope": string, "lines": []string} ->
// {"tokens": [[{"text","scopes"}, ...], ...]}, one token array per input
// line, reusing a single ParseState across the request's lines so
// push/set/pop state carries over exactly as it would scanning a real file.
func (s *server) tokenize(c echo.Context) error {
	var req tokenizeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	grammar, err := s.catalog.FromScope(req.Scope)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}

	state := synlex.NewParseState(grammar)
	resp := tokenizeResponse{Tokens: make([][]synlex.Token, 0, len(req.Lines))}
	for _, line := range req.Lines {
		tokens, err := state.ParseLine(line)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		resp.Tokens = append(resp.Tokens, tokens)
	}
	return c.JSON(http.StatusOK, resp)
}
