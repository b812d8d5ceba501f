package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carrycooldude/EdgeAIApp/internal/config"
	"github.com/carrycooldude/EdgeAIApp/internal/edge"
	"github.com/carrycooldude/EdgeAIApp/internal/logger"
	"github.com/carrycooldude/EdgeAIApp/internal/params"
)

var (
	prompt        = flag.String("prompt", "", "Prompt to generate from (reads stdin when empty)")
	maxTokens     = flag.Int("n", config.DefaultMaxTokens, "Maximum number of tokens to generate")
	temperature   = flag.Float64("temperature", 0, "Sampling temperature forwarded to native tiers (0 uses the default)")
	assetsDir     = flag.String("assets", "", "Directory holding weights, vocabulary and model config")
	historyPath   = flag.String("history", "", "SQLite file recording generations (empty disables)")
	recent        = flag.Int("recent", 0, "Print the last N history entries and exit")
	seed          = flag.Int64("seed", params.DefaultSeed, "Seed for the reproducible parameter build")
	noNative      = flag.Bool("no-native", false, "Skip the native accelerator tiers")
	liteRunner    = flag.String("lite-runner", edge.DefaultLiteRunner, "Binary name of the lite runtime")
	npuRunner     = flag.String("npu-runner", edge.DefaultNPURunner, "Binary name of the NPU delegate runtime")
	flightAddr    = flag.String("flight-addr", edge.DefaultFlightAddr, "Arrow Flight address of the vendor service")
	socketNetwork = flag.String("socket-network", edge.DefaultSocketProto, "Network of the vendor daemon socket: unix or tcp")
	socketAddr    = flag.String("socket-addr", edge.DefaultSocketAddr, "Address of the vendor daemon socket")
	metricsAddr   = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address while running (empty disables)")
	timeout       = flag.Duration("timeout", 0, "Overall deadline for the run (0 disables)")
	logLevel      = flag.String("log-level", "info", "Log level: trace, debug, info, warn, error")
	logFormat     = flag.String("log-format", "console", "Log format: console or json")
)

func main() {
	flag.Parse()
	logger.Setup(*logLevel, *logFormat)

	opts := edge.DefaultOptions()
	opts.AssetsDir = *assetsDir
	opts.HistoryPath = *historyPath
	opts.Seed = *seed
	opts.DisableNative = *noNative
	opts.LiteRunner = *liteRunner
	opts.NPURunner = *npuRunner
	opts.FlightAddr = *flightAddr
	opts.SocketNetwork = *socketNetwork
	opts.SocketAddr = *socketAddr

	svc := edge.NewService(opts)
	defer svc.Release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Log.Warn("metrics listener failed", "error", err.Error())
			}
		}()
	}

	if *recent > 0 {
		if err := printHistory(ctx, svc, *recent); err != nil {
			logger.Log.Err("reading history", err)
			os.Exit(1)
		}
		return
	}

	text := *prompt
	if text == "" {
		in, err := io.ReadAll(os.Stdin)
		if err != nil {
			logger.Log.Err("reading prompt from stdin", err)
			os.Exit(1)
		}
		text = strings.TrimSpace(string(in))
	}

	res, err := svc.Generate(ctx, edge.Request{
		Prompt:      text,
		MaxTokens:   *maxTokens,
		Temperature: *temperature,
	})
	if err != nil {
		logger.Log.Err("generation failed", err)
		os.Exit(1)
	}

	fmt.Println(res.Text)

	kv := []interface{}{
		"tier", res.Tier,
		"tokens", res.TokensGenerated,
		"duration_ms", res.Duration.Milliseconds(),
		"substituted", res.Substituted,
	}
	if res.Duration > 0 {
		kv = append(kv, "tokens_per_sec",
			fmt.Sprintf("%.2f", float64(res.TokensGenerated)/res.Duration.Seconds()))
	}
	logger.Log.Info("run finished", kv...)
}

func printHistory(ctx context.Context, svc *edge.Service, limit int) error {
	entries, err := svc.History(ctx, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("history is empty")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s [%s] %q -> %s\n",
			e.CreatedAt.Format(time.RFC3339), e.Tier, e.Prompt, e.Response)
	}
	return nil
}
