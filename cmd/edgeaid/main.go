package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carrycooldude/EdgeAIApp/internal/config"
	"github.com/carrycooldude/EdgeAIApp/internal/edge"
	"github.com/carrycooldude/EdgeAIApp/internal/logger"
	"github.com/carrycooldude/EdgeAIApp/internal/params"
	"github.com/carrycooldude/EdgeAIApp/internal/server"
)

var (
	addr          = flag.String("addr", ":8080", "HTTP listen address")
	assetsDir     = flag.String("assets", "", "Directory holding weights, vocabulary and model config")
	historyPath   = flag.String("history", "", "SQLite file recording generations (empty disables)")
	maxTokens     = flag.Int("max-tokens", config.DefaultMaxTokens, "Default token limit for requests that omit one")
	seed          = flag.Int64("seed", params.DefaultSeed, "Seed for the reproducible parameter build")
	noNative      = flag.Bool("no-native", false, "Skip the native accelerator tiers")
	liteRunner    = flag.String("lite-runner", edge.DefaultLiteRunner, "Binary name of the lite runtime")
	npuRunner     = flag.String("npu-runner", edge.DefaultNPURunner, "Binary name of the NPU delegate runtime")
	flightAddr    = flag.String("flight-addr", edge.DefaultFlightAddr, "Arrow Flight address of the vendor service")
	socketNetwork = flag.String("socket-network", edge.DefaultSocketProto, "Network of the vendor daemon socket: unix or tcp")
	socketAddr    = flag.String("socket-addr", edge.DefaultSocketAddr, "Address of the vendor daemon socket")
	logLevel      = flag.String("log-level", "info", "Log level: trace, debug, info, warn, error")
	logFormat     = flag.String("log-format", "json", "Log format: console or json")
)

func main() {
	flag.Parse()
	logger.Setup(*logLevel, *logFormat)

	opts := edge.DefaultOptions()
	opts.AssetsDir = *assetsDir
	opts.HistoryPath = *historyPath
	opts.MaxTokens = *maxTokens
	opts.Seed = *seed
	opts.DisableNative = *noNative
	opts.LiteRunner = *liteRunner
	opts.NPURunner = *npuRunner
	opts.FlightAddr = *flightAddr
	opts.SocketNetwork = *socketNetwork
	opts.SocketAddr = *socketAddr

	svc := edge.NewService(opts)
	if err := svc.Initialize(context.Background()); err != nil {
		logger.Log.Err("initialization failed", err)
		os.Exit(1)
	}

	srv := server.New(svc)

	idle := make(chan struct{})
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		logger.Log.Info("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			logger.Log.Err("shutdown failed", err)
		}
		svc.Release()
		close(idle)
	}()

	if err := srv.Start(*addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Err("server failed", err)
		os.Exit(1)
	}
	<-idle
	logger.Log.Info("server stopped")
}
