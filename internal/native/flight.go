package native

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/carrycooldude/EdgeAIApp/internal/logger"
)

// Action types understood by the vendor inference service.
const (
	ActionInitialize = "initialize"
	ActionGenerate   = "generate"
	ActionRelease    = "release"
)

// DefaultFlightTimeout bounds the initialize round trip. Generation
// itself runs under the caller's context.
const DefaultFlightTimeout = 5 * time.Second

type generateRequest struct {
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}

// FlightRuntime talks to a vendor inference service over Arrow Flight
// actions. gRPC dials lazily, so readiness is probed with a real
// initialize round trip rather than by the dial succeeding.
type FlightRuntime struct {
	addr    string
	timeout time.Duration
	client  flight.Client
}

func NewFlightRuntime(addr string) *FlightRuntime {
	return &FlightRuntime{addr: addr, timeout: DefaultFlightTimeout}
}

func (r *FlightRuntime) Initialize(ctx context.Context, modelPath string) bool {
	client, err := flight.NewClientWithMiddleware(r.addr, nil, nil,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		logger.Log.Debug("flight client creation failed", "addr", r.addr, "error", err.Error())
		return false
	}

	probeCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	reply, err := doAction(probeCtx, client, ActionInitialize, []byte(modelPath))
	if err != nil || reply != "OK" {
		logger.Log.Debug("flight service not ready", "addr", r.addr, "reply", reply)
		client.Close()
		return false
	}
	r.client = client
	return true
}

func (r *FlightRuntime) RunInference(ctx context.Context, text string, maxTokens int) (string, error) {
	if r.client == nil {
		return SentinelNotInitialized, nil
	}
	body, err := json.Marshal(generateRequest{Prompt: text, MaxTokens: maxTokens})
	if err != nil {
		return "", fmt.Errorf("flight runtime: %w", err)
	}
	return doAction(ctx, r.client, ActionGenerate, body)
}

func (r *FlightRuntime) Release() {
	if r.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	doAction(ctx, r.client, ActionRelease, nil)
	cancel()
	r.client.Close()
	r.client = nil
}

// doAction runs one action and returns the first result body. A
// service that answers with no results counts as an empty reply.
func doAction(ctx context.Context, client flight.Client, actionType string, body []byte) (string, error) {
	stream, err := client.DoAction(ctx, &flight.Action{Type: actionType, Body: body})
	if err != nil {
		return "", fmt.Errorf("flight action %s: %w", actionType, err)
	}
	res, err := stream.Recv()
	if err == io.EOF {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("flight action %s: %w", actionType, err)
	}
	return strings.TrimSpace(string(res.Body)), nil
}
