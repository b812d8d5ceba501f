package native

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/flight"
)

// stubFlightService answers the three actions the runtime issues.
type stubFlightService struct {
	flight.BaseFlightServer
	initReply   string
	initialized bool
}

func (s *stubFlightService) DoAction(action *flight.Action, stream flight.FlightService_DoActionServer) error {
	switch action.Type {
	case ActionInitialize:
		s.initialized = true
		return stream.Send(&flight.Result{Body: []byte(s.initReply)})
	case ActionGenerate:
		if !s.initialized {
			return stream.Send(&flight.Result{Body: []byte(SentinelNotInitialized)})
		}
		var req generateRequest
		if err := json.Unmarshal(action.Body, &req); err != nil {
			return err
		}
		reply := fmt.Sprintf("flight reply to %q with %d tokens", req.Prompt, req.MaxTokens)
		return stream.Send(&flight.Result{Body: []byte(reply)})
	case ActionRelease:
		s.initialized = false
		return stream.Send(&flight.Result{Body: []byte("OK")})
	}
	return fmt.Errorf("unknown action %q", action.Type)
}

func startStubFlightService(t *testing.T, initReply string) string {
	t.Helper()
	srv := flight.NewServerWithMiddleware(nil)
	if err := srv.Init("localhost:0"); err != nil {
		t.Fatalf("flight server init: %v", err)
	}
	srv.RegisterFlightService(&stubFlightService{initReply: initReply})
	go srv.Serve()
	t.Cleanup(srv.Shutdown)
	return srv.Addr().String()
}

func TestFlightRuntimeRoundTrip(t *testing.T) {
	addr := startStubFlightService(t, "OK")

	r := NewFlightRuntime(addr)
	if !r.Initialize(context.Background(), "/models/weights.eaiw") {
		t.Fatal("Initialize failed against live service")
	}
	defer r.Release()

	out, err := r.RunInference(context.Background(), "hello over flight", 6)
	if err != nil {
		t.Fatalf("RunInference failed: %v", err)
	}
	want := `flight reply to "hello over flight" with 6 tokens`
	if out != want {
		t.Errorf("out = %q, want %q", out, want)
	}
}

func TestFlightRuntimeInitRejected(t *testing.T) {
	addr := startStubFlightService(t, "BUSY")

	r := NewFlightRuntime(addr)
	if r.Initialize(context.Background(), "/models/weights.eaiw") {
		t.Error("Initialize succeeded despite rejection")
	}
}

func TestFlightRuntimeServiceAbsent(t *testing.T) {
	r := NewFlightRuntime("127.0.0.1:1")
	if r.Initialize(context.Background(), "") {
		t.Error("Initialize succeeded with nothing listening")
	}
}

func TestFlightRuntimeRunWithoutInit(t *testing.T) {
	r := NewFlightRuntime("127.0.0.1:1")
	out, err := r.RunInference(context.Background(), "hello", 4)
	if err != nil {
		t.Fatalf("RunInference errored: %v", err)
	}
	if out != SentinelNotInitialized {
		t.Errorf("out = %q, want %q", out, SentinelNotInitialized)
	}
}

func TestFlightRuntimeRunAfterRelease(t *testing.T) {
	addr := startStubFlightService(t, "OK")

	r := NewFlightRuntime(addr)
	if !r.Initialize(context.Background(), "") {
		t.Fatal("Initialize failed")
	}
	r.Release()

	out, err := r.RunInference(context.Background(), "hello", 4)
	if err != nil {
		t.Fatalf("RunInference errored: %v", err)
	}
	if out != SentinelNotInitialized {
		t.Errorf("out = %q, want %q", out, SentinelNotInitialized)
	}
}
