package wsconn

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcFrame struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// nodeServer mimics a Solana websocket endpoint. handle runs once per accepted connection.
func nodeServer(t *testing.T, handle func(ctx context.Context, conn *websocket.Conn)) (*httptest.Server, string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Logf("accept: %v", err)
			return
		}
		defer conn.CloseNow()
		if handle != nil {
			handle(r.Context(), conn)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

// answerSubscriptions replies to every logsSubscribe with a subscription id and one notification.
func answerSubscriptions(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var req rpcFrame
		if json.Unmarshal(data, &req) != nil || req.Method != "logsSubscribe" {
			continue
		}
		ack, _ := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": 42})
		note, _ := json.Marshal(map[string]any{
			"jsonrpc": "2.0",
			"method":  "logsNotification",
			"params":  map[string]any{"subscription": 42, "result": map[string]any{"value": map[string]any{"signature": "sig"}}},
		})
		if conn.Write(ctx, websocket.MessageText, ack) != nil || conn.Write(ctx, websocket.MessageText, note) != nil {
			return
		}
	}
}

func holdOpen(ctx context.Context, conn *websocket.Conn) {
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}

func testConfig(url string) Config {
	cfg := DefaultConfig(url, "solana_ws")
	cfg.PingInterval = 0
	cfg.InitialBackoff = 20 * time.Millisecond
	cfg.MaxBackoff = 40 * time.Millisecond
	return cfg
}

func subscribe(c *Client, id int) ConnectHandler {
	return func(ctx context.Context) error {
		return c.SendJSON(ctx, map[string]any{
			"jsonrpc": "2.0",
			"id":      id,
			"method":  "logsSubscribe",
			"params":  []any{map[string]any{"mentions": []string{"675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"}}},
		})
	}
}

func TestClient_Connect(t *testing.T) {
	_, url := nodeServer(t, holdOpen)

	c, err := New(testConfig(url))
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, c.Connect(ctx))
	assert.Equal(t, StateConnected, c.State())
	assert.True(t, c.IsConnected())
}

func TestClient_ConnectFailure(t *testing.T) {
	c, err := New(testConfig("ws://127.0.0.1:1"))
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.Error(t, c.Connect(ctx))
	assert.Equal(t, StateDisconnected, c.State())
}

func TestClient_ConnectWithRetryGivesUp(t *testing.T) {
	cfg := testConfig("ws://127.0.0.1:1")
	cfg.MaxReconnects = 2

	c, err := New(cfg)
	require.NoError(t, err)
	defer c.Close()

	err = c.ConnectWithRetry(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestClient_SubscriptionRoundTrip(t *testing.T) {
	_, url := nodeServer(t, answerSubscriptions)

	c, err := New(testConfig(url))
	require.NoError(t, err)
	defer c.Close()

	frames := make(chan rpcFrame, 4)
	c.OnMessage(func(_ context.Context, msg []byte) {
		var f rpcFrame
		if json.Unmarshal(msg, &f) == nil {
			frames <- f
		}
	})
	c.OnConnect(subscribe(c, 1))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Connect(ctx))

	var got []rpcFrame
	for len(got) < 2 {
		select {
		case f := <-frames:
			got = append(got, f)
		case <-ctx.Done():
			t.Fatalf("received %d frames, want 2", len(got))
		}
	}
	assert.Equal(t, 1, got[0].ID, "subscription ack")
	assert.Equal(t, "logsNotification", got[1].Method)
}

func TestClient_ResubscribesAfterDrop(t *testing.T) {
	var accepted atomic.Int32
	_, url := nodeServer(t, func(ctx context.Context, conn *websocket.Conn) {
		if accepted.Add(1) == 1 {
			return
		}
		answerSubscriptions(ctx, conn)
	})

	c, err := New(testConfig(url))
	require.NoError(t, err)
	defer c.Close()

	var notes atomic.Int32
	c.OnMessage(func(_ context.Context, msg []byte) {
		if strings.Contains(string(msg), "logsNotification") {
			notes.Add(1)
		}
	})
	c.OnConnect(subscribe(c, 7))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.ConnectWithRetry(ctx))

	assert.Eventually(t, func() bool { return notes.Load() >= 1 }, 2*time.Second, 10*time.Millisecond,
		"subscription should be reissued on the second connection")
	assert.GreaterOrEqual(t, accepted.Load(), int32(2))
}

func TestClient_StateTransitions(t *testing.T) {
	release := make(chan struct{})
	_, url := nodeServer(t, func(ctx context.Context, conn *websocket.Conn) {
		<-release
	})

	cfg := testConfig(url)
	cfg.AutoReconnect = false
	c, err := New(cfg)
	require.NoError(t, err)

	var mu sync.Mutex
	var states []State
	c.OnStateChange(func(s State, _ error) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Connect(ctx))

	close(release)
	assert.Eventually(t, func() bool { return c.State() == StateDisconnected }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, c.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateConnecting, StateConnected, StateDisconnected, StateClosed}, states)
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	_, url := nodeServer(t, holdOpen)

	c, err := New(testConfig(url))
	require.NoError(t, err)
	require.NoError(t, c.Connect(context.Background()))

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, StateClosed, c.State())
	assert.Error(t, c.Connect(context.Background()), "closed client must not reconnect")
}

func TestClient_ConcurrentSend(t *testing.T) {
	var received atomic.Int32
	_, url := nodeServer(t, func(ctx context.Context, conn *websocket.Conn) {
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
			received.Add(1)
		}
	})

	c, err := New(testConfig(url))
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Connect(context.Background()))

	const senders = 10
	var wg sync.WaitGroup
	for i := range senders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, subscribe(c, i)(context.Background()))
		}()
	}
	wg.Wait()

	assert.Eventually(t, func() bool { return received.Load() == senders }, 2*time.Second, 10*time.Millisecond)
}

func TestClient_OversizedMessageDropsConnection(t *testing.T) {
	_, url := nodeServer(t, func(ctx context.Context, conn *websocket.Conn) {
		_ = conn.Write(ctx, websocket.MessageText, []byte(strings.Repeat("x", 2048)))
		holdOpen(ctx, conn)
	})

	cfg := testConfig(url)
	cfg.MaxMessageSize = 512
	cfg.AutoReconnect = false
	c, err := New(cfg)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Connect(context.Background()))
	assert.Eventually(t, func() bool { return c.State() == StateDisconnected }, 2*time.Second, 10*time.Millisecond)
}

func TestClient_SendWhileDisconnected(t *testing.T) {
	c, err := New(testConfig("ws://127.0.0.1:1"))
	require.NoError(t, err)
	defer c.Close()

	assert.Error(t, c.Send(context.Background(), []byte("x")))
}

func TestNew_RequiresURL(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestNextBackoff(t *testing.T) {
	assert.Equal(t, 2*time.Second, nextBackoff(time.Second, 30*time.Second))
	assert.Equal(t, 30*time.Second, nextBackoff(20*time.Second, 30*time.Second))
}
