package raydium

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/pool-sniper/internal/apperror"
	"github.com/fd1az/pool-sniper/internal/logger"
	"github.com/fd1az/pool-sniper/internal/solana"
)

type fakeFetcher struct {
	calls    atomic.Int32
	notFound int32
	tx       *solana.Transaction
}

func (f *fakeFetcher) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	if f.calls.Add(1) <= f.notFound {
		return nil, apperror.NotFound(apperror.CodeTransactionNotFound, signature)
	}
	return f.tx, nil
}

// logsServer answers the subscribe request and then pushes notifications.
func logsServer(t *testing.T, notifications ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		ctx := r.Context()
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var req struct {
			ID     uint64 `json:"id"`
			Method string `json:"method"`
		}
		if json.Unmarshal(data, &req) != nil || req.Method != "logsSubscribe" {
			return
		}
		ack, _ := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": 7})
		_ = conn.Write(ctx, websocket.MessageText, ack)

		for _, n := range notifications {
			_ = conn.Write(ctx, websocket.MessageText, []byte(n))
		}
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}))
}

func notification(signature string, failed bool, logs ...string) string {
	var errField any
	if failed {
		errField = map[string]any{"InstructionError": []any{0, "Custom"}}
	}
	b, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"method":  "logsNotification",
		"params": map[string]any{
			"subscription": 7,
			"result": map[string]any{
				"context": map[string]any{"slot": 99},
				"value":   map[string]any{"signature": signature, "err": errField, "logs": logs},
			},
		},
	})
	return string(b)
}

func TestSource_EmitsDecodedPools(t *testing.T) {
	server := logsServer(t,
		notification("swapSig", false, "Program log: ray_log: AAAA"),
		notification("failedSig", true, "Program log: initialize2: InitializeInstruction2"),
		notification(testSignature, false, "Program log: initialize2: InitializeInstruction2 { nonce: 254 }"),
	)
	defer server.Close()

	fetcher := &fakeFetcher{
		notFound: 1,
		tx: &solana.Transaction{
			Signature: testSignature,
			Slot:      99,
			BlockTime: time.Now().Unix(),
			Instructions: []solana.Instruction{
				{ProgramID: solana.RaydiumAMMV4Program, Accounts: ammAccounts(testBaseMint, solana.WrappedSOLMint), Data: initialize2Data},
			},
		},
	}

	cfg := DefaultSourceConfig("ws" + strings.TrimPrefix(server.URL, "http"))
	cfg.FetchDelay = 10 * time.Millisecond
	src, err := NewSource(cfg, fetcher, logger.NewDiscard())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := src.Events(ctx)
	require.NoError(t, err)

	select {
	case opp := <-events:
		assert.Equal(t, testSignature, opp.ID)
		assert.Equal(t, testPool, opp.Pool)
		assert.Equal(t, testBaseMint, opp.BaseMint)
	case <-ctx.Done():
		t.Fatal("timed out waiting for opportunity")
	}

	// One not-found retry, and only the pool-creation notification was resolved.
	assert.Equal(t, int32(2), fetcher.calls.Load())

	require.NoError(t, src.Close())
	_, open := <-events
	assert.False(t, open, "events channel should be closed")

	_, err = src.Events(ctx)
	assert.Error(t, err, "second start should fail")
}

func TestNewSource_RequiresPrograms(t *testing.T) {
	cfg := DefaultSourceConfig("ws://localhost:1")
	cfg.Programs = nil
	_, err := NewSource(cfg, &fakeFetcher{}, logger.NewDiscard())
	assert.Error(t, err)
}
