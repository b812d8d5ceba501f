package native

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/carrycooldude/EdgeAIApp/internal/logger"
)

// DefaultSocketTimeout bounds every read and write on the wire. The
// daemon answers in milliseconds when it answers at all.
const DefaultSocketTimeout = 5 * time.Second

// SocketRuntime speaks a line protocol to a local inference daemon:
//
//	-> INIT <model-path>
//	<- OK | NOT_INITIALIZED
//	-> GEN <max-tokens> <prompt>
//	<- <reply line> | NOT_INITIALIZED | NOOP
//	-> BYE
//
// Prompts are flattened to a single line before sending. A daemon that
// is not listening makes the tier unavailable, nothing more.
type SocketRuntime struct {
	network string
	addr    string
	timeout time.Duration

	conn net.Conn
	r    *bufio.Reader
}

// NewSocketRuntime wraps a daemon endpoint, e.g. ("unix",
// "/run/edgeai.sock") or ("tcp", "127.0.0.1:7071").
func NewSocketRuntime(network, addr string) *SocketRuntime {
	return &SocketRuntime{network: network, addr: addr, timeout: DefaultSocketTimeout}
}

func (r *SocketRuntime) Initialize(ctx context.Context, modelPath string) bool {
	d := net.Dialer{Timeout: r.timeout}
	conn, err := d.DialContext(ctx, r.network, r.addr)
	if err != nil {
		logger.Log.Debug("inference daemon not reachable",
			"network", r.network, "addr", r.addr)
		return false
	}
	r.conn = conn
	r.r = bufio.NewReader(conn)

	r.conn.SetDeadline(time.Now().Add(r.timeout))
	reply, err := r.roundTrip("INIT " + flatten(modelPath))
	if err != nil || reply != "OK" {
		logger.Log.Debug("daemon rejected init", "reply", reply)
		r.Release()
		return false
	}
	return true
}

func (r *SocketRuntime) RunInference(ctx context.Context, text string, maxTokens int) (string, error) {
	if r.conn == nil {
		return SentinelNotInitialized, nil
	}
	deadline := time.Now().Add(r.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	r.conn.SetDeadline(deadline)
	return r.roundTrip(fmt.Sprintf("GEN %d %s", maxTokens, flatten(text)))
}

func (r *SocketRuntime) Release() {
	if r.conn == nil {
		return
	}
	r.conn.SetDeadline(time.Now().Add(r.timeout))
	fmt.Fprint(r.conn, "BYE\n")
	r.conn.Close()
	r.conn = nil
	r.r = nil
}

func (r *SocketRuntime) roundTrip(line string) (string, error) {
	if _, err := fmt.Fprintf(r.conn, "%s\n", line); err != nil {
		return "", fmt.Errorf("socket runtime write: %w", err)
	}
	reply, err := r.r.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("socket runtime read: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

// flatten keeps the wire format one line per message.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
