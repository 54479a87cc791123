package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httptransport "github.com/example/court-scheduler/internal/http"
	"github.com/example/court-scheduler/internal/logging"
	"github.com/example/court-scheduler/internal/protocol"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type result struct {
	status int
	body   envelope
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startServer(t *testing.T, handler httptransport.Handler, cfg Config) (*Server, string) {
	t.Helper()

	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}
	srv, err := New(handler, cfg)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	served := make(chan error, 1)
	go func() { served <- srv.Serve(context.Background(), ln) }()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		assert.NoError(t, srv.Shutdown(ctx))
		select {
		case err := <-served:
			assert.ErrorIs(t, err, ErrServerClosed)
		case <-time.After(2 * time.Second):
			t.Error("serve did not return after shutdown")
		}
	})
	return srv, ln.Addr().String()
}

func roundTrip(t *testing.T, addr, raw string) result {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(2*time.Second)))

	_, err = io.WriteString(conn, raw)
	require.NoError(t, err)

	reader := bufio.NewReader(conn)
	statusLine, err := reader.ReadString('\n')
	require.NoError(t, err)
	fields := strings.Fields(statusLine)
	require.GreaterOrEqual(t, len(fields), 2)

	var res result
	res.status, err = strconv.Atoi(fields[1])
	require.NoError(t, err)

	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if line == "\r\n" {
			break
		}
	}
	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &res.body))
	return res
}

func echoHandler() httptransport.Handler {
	return httptransport.HandlerFunc(func(_ context.Context, req *protocol.Request) *protocol.Response {
		resp, err := protocol.NewResponse(protocol.StatusOK, req.Method+" "+req.Path, nil)
		if err != nil {
			panic(err)
		}
		return resp
	})
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Config{})
	require.Error(t, err)

	_, err = New(echoHandler(), Config{ConnTimeout: -time.Second})
	require.Error(t, err)

	srv, err := New(echoHandler(), Config{})
	require.NoError(t, err)
	assert.Equal(t, protocol.DefaultMaxRequestBytes, srv.cfg.MaxRequestBytes)
}

func TestServeRoundTrip(t *testing.T) {
	t.Parallel()

	_, addr := startServer(t, echoHandler(), Config{ConnTimeout: time.Second})

	res := roundTrip(t, addr, "GET /schedule HTTP/1.1\r\nHost: x\r\n\r\n")
	assert.Equal(t, protocol.StatusOK, res.status)
	assert.True(t, res.body.Success)
	assert.Equal(t, "GET /schedule", res.body.Message)
}

func TestServeWaitsForDeclaredBody(t *testing.T) {
	t.Parallel()

	var got atomic.Value
	handler := httptransport.HandlerFunc(func(_ context.Context, req *protocol.Request) *protocol.Response {
		got.Store(string(req.Body))
		return protocol.Error(protocol.StatusOK, "ok")
	})
	_, addr := startServer(t, handler, Config{ConnTimeout: time.Second})

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	body := `{"day":"MON","hour":9}`
	head := "POST /reservations HTTP/1.1\r\nContent-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n"
	_, err = io.WriteString(conn, head)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	_, err = io.WriteString(conn, body)
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	reply, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(reply), "HTTP/1.1 200 OK\r\n"))
	assert.Equal(t, body, got.Load())
}

func TestServeMalformedRequest(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	handler := httptransport.HandlerFunc(func(context.Context, *protocol.Request) *protocol.Response {
		calls.Add(1)
		return protocol.Error(protocol.StatusOK, "ok")
	})
	_, addr := startServer(t, handler, Config{})

	res := roundTrip(t, addr, "garbage\r\n\r\n")
	assert.Equal(t, protocol.StatusBadRequest, res.status)
	assert.False(t, res.body.Success)
	assert.Equal(t, "Malformed HTTP request", res.body.Message)
	assert.Zero(t, calls.Load())
}

func TestServeOversizedRequest(t *testing.T) {
	t.Parallel()

	_, addr := startServer(t, echoHandler(), Config{MaxRequestBytes: 64})

	raw := "POST /login HTTP/1.1\r\nContent-Length: 200\r\n\r\n" + strings.Repeat("x", 200)
	res := roundTrip(t, addr, raw)
	assert.Equal(t, protocol.StatusBadRequest, res.status)
	assert.Equal(t, "Malformed HTTP request", res.body.Message)
}

func TestServeEmptyConnection(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	handler := httptransport.HandlerFunc(func(context.Context, *protocol.Request) *protocol.Response {
		calls.Add(1)
		return protocol.Error(protocol.StatusOK, "ok")
	})
	_, addr := startServer(t, handler, Config{})

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	require.NoError(t, conn.(*net.TCPConn).CloseWrite())
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	reply, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Empty(t, reply)
	assert.Zero(t, calls.Load())
	_ = conn.Close()

	res := roundTrip(t, addr, "GET /x HTTP/1.1\r\n\r\n")
	assert.Equal(t, protocol.StatusOK, res.status)
}

func TestServeRecoversPanic(t *testing.T) {
	t.Parallel()

	handler := httptransport.HandlerFunc(func(context.Context, *protocol.Request) *protocol.Response {
		panic("boom")
	})
	_, addr := startServer(t, handler, Config{})

	res := roundTrip(t, addr, "GET /schedule HTTP/1.1\r\n\r\n")
	assert.Equal(t, protocol.StatusInternalServerError, res.status)
	assert.Equal(t, "Internal server error", res.body.Message)

	res = roundTrip(t, addr, "GET /schedule HTTP/1.1\r\n\r\n")
	assert.Equal(t, protocol.StatusInternalServerError, res.status, "server keeps accepting after a panic")
}

func TestServeNilResponse(t *testing.T) {
	t.Parallel()

	handler := httptransport.HandlerFunc(func(context.Context, *protocol.Request) *protocol.Response {
		return nil
	})
	_, addr := startServer(t, handler, Config{})

	res := roundTrip(t, addr, "GET / HTTP/1.1\r\n\r\n")
	assert.Equal(t, protocol.StatusInternalServerError, res.status)
}

func TestServeAttachesConnectionLogger(t *testing.T) {
	t.Parallel()

	var hasLogger atomic.Bool
	handler := httptransport.HandlerFunc(func(ctx context.Context, _ *protocol.Request) *protocol.Response {
		hasLogger.Store(logging.FromContext(ctx) != nil)
		return protocol.Error(protocol.StatusOK, "ok")
	})
	_, addr := startServer(t, handler, Config{})

	roundTrip(t, addr, "GET / HTTP/1.1\r\n\r\n")
	assert.True(t, hasLogger.Load())
}

func TestServeConcurrentConnections(t *testing.T) {
	t.Parallel()

	const clients = 20
	release := make(chan struct{})
	var inFlight atomic.Int32
	handler := httptransport.HandlerFunc(func(context.Context, *protocol.Request) *protocol.Response {
		if inFlight.Add(1) == clients {
			close(release)
		}
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		return protocol.Error(protocol.StatusOK, "ok")
	})
	_, addr := startServer(t, handler, Config{ConnTimeout: 5 * time.Second})

	var wg sync.WaitGroup
	statuses := make(chan int, clients)
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			statuses <- roundTrip(t, addr, "GET / HTTP/1.1\r\n\r\n").status
		}()
	}
	wg.Wait()
	close(statuses)

	for status := range statuses {
		assert.Equal(t, protocol.StatusOK, status)
	}
	assert.Equal(t, int32(clients), inFlight.Load())
	select {
	case <-release:
	default:
		t.Fatal("connections were not handled concurrently")
	}
}

func TestShutdownWaitsForInFlight(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	proceed := make(chan struct{})
	handler := httptransport.HandlerFunc(func(context.Context, *protocol.Request) *protocol.Response {
		close(entered)
		<-proceed
		return protocol.Error(protocol.StatusOK, "ok")
	})

	srv, err := New(handler, Config{Logger: discardLogger()})
	require.NoError(t, err)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	served := make(chan error, 1)
	go func() { served <- srv.Serve(context.Background(), ln) }()

	replies := make(chan result, 1)
	go func() { replies <- roundTrip(t, ln.Addr().String(), "GET / HTTP/1.1\r\n\r\n") }()
	<-entered

	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, srv.Shutdown(short), context.DeadlineExceeded)
	require.ErrorIs(t, <-served, ErrServerClosed)

	_, err = net.DialTimeout("tcp", ln.Addr().String(), 200*time.Millisecond)
	assert.Error(t, err, "listener should be closed")

	close(proceed)
	ctx, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel2()
	require.NoError(t, srv.Shutdown(ctx))
	assert.Equal(t, protocol.StatusOK, (<-replies).status)

	other, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	assert.ErrorIs(t, srv.Serve(context.Background(), other), ErrServerClosed)
}

func TestServeStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv, err := New(echoHandler(), Config{Logger: discardLogger()})
	require.NoError(t, err)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx, ln) }()

	cancel()
	select {
	case err := <-served:
		assert.ErrorIs(t, err, ErrServerClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not stop after context cancellation")
	}
}

// flakyListener fails Accept with a transient error until failures run out or
// it is closed, then reports net.ErrClosed.
type flakyListener struct {
	mu       sync.Mutex
	failures int
	calls    int
	closed   bool
}

func (l *flakyListener) Accept() (net.Conn, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.closed || l.failures == 0 {
		return nil, net.ErrClosed
	}
	if l.failures > 0 {
		l.failures--
	}
	return nil, &net.OpError{Op: "accept", Net: "tcp", Err: syscall.EMFILE}
}

func (l *flakyListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

func (l *flakyListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
}

func (l *flakyListener) acceptCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func TestNextAcceptDelay(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 5*time.Millisecond, nextAcceptDelay(0))
	assert.Equal(t, 10*time.Millisecond, nextAcceptDelay(5*time.Millisecond))
	assert.Equal(t, time.Second, nextAcceptDelay(640*time.Millisecond))
	assert.Equal(t, time.Second, nextAcceptDelay(time.Second))
}

func TestServeBacksOffOnAcceptErrors(t *testing.T) {
	t.Parallel()

	srv, err := New(echoHandler(), Config{Logger: discardLogger()})
	require.NoError(t, err)
	ln := &flakyListener{failures: 4}

	start := time.Now()
	err = srv.Serve(context.Background(), ln)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrServerClosed)
	assert.Equal(t, 5, ln.acceptCalls())
	// 5ms + 10ms + 20ms + 40ms of waiting between the failed accepts.
	assert.GreaterOrEqual(t, elapsed, 75*time.Millisecond)
}

func TestServeBackoffStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv, err := New(echoHandler(), Config{Logger: discardLogger()})
	require.NoError(t, err)
	ln := &flakyListener{failures: -1}

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx, ln) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-served:
		assert.ErrorIs(t, err, ErrServerClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("serve kept retrying accept after cancellation")
	}
	// Backoff keeps the retry count far below a busy loop.
	assert.Less(t, ln.acceptCalls(), 20)
}
