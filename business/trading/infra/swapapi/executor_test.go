package swapapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/pool-sniper/business/trading/domain"
	"github.com/fd1az/pool-sniper/internal/apperror"
	"github.com/fd1az/pool-sniper/internal/logger"
	"github.com/fd1az/pool-sniper/internal/solana"
)

const (
	testWallet = "H4tGwnuuaJKBnA5J4Q7K1jcDQSjd3odTGCK8uU5qxd4m"
	testSig    = "2soASZVz6NaEUZtRyCbf3hAdpPAAiecRovUSi99FFw9GJGQTbdoPFaFctNx1Nzt2FzPMLj5JjBnkXJm6CGofULNX"
)

func testOrder() domain.TradeOrder {
	return domain.TradeOrder{
		PoolID:             "3gLESRnfLgzAqu6PwGhBwsiBsnQ7BAtyWHhZ5zNcDPMF",
		TokenMint:          "Ef37CudiH2EeQegAn9gGUjKrGCwf5ksMzXnSAPpWtv17",
		AmountIn:           50_000_000,
		MaxSlippagePercent: decimal.NewFromInt(5),
		Deadline:           1_760_000_300,
	}
}

func newTestExecutor(t *testing.T, handler http.HandlerFunc) *Executor {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	e, err := NewExecutor(Config{BaseURL: server.URL, Token: "secret", Wallet: testWallet, Timeout: time.Second}, logger.NewDiscard())
	require.NoError(t, err)
	return e
}

func TestExecutor_Execute(t *testing.T) {
	e := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, swapEndpoint, r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req SwapRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, testWallet, req.Wallet)
		assert.Equal(t, solana.WrappedSOLMint, req.InputMint)
		assert.Equal(t, uint64(50_000_000), req.AmountIn)
		assert.Equal(t, uint16(500), req.SlippageBps)
		assert.Equal(t, int64(1_760_000_300), req.Deadline)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"signature":"` + testSig + `","inAmount":"50000000","outAmount":"123456789"}`))
	})

	res, err := e.Execute(context.Background(), testOrder())
	require.NoError(t, err)
	assert.Equal(t, testSig, res.Signature)
	assert.Equal(t, uint64(50_000_000), res.ExecutedAmount)
	assert.Equal(t, uint64(123_456_789), res.AmountOut)
	assert.False(t, res.Simulated)
}

func TestExecutor_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   apperror.Code
	}{
		{"slippage", http.StatusConflict, apperror.CodePriceImpactExceeded},
		{"timeout", http.StatusGatewayTimeout, apperror.CodeExecutionTimeout},
		{"rejected", http.StatusBadRequest, apperror.CodeExecutionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := e.Execute(context.Background(), testOrder())
			assert.Equal(t, tt.want, apperror.GetCode(err))
		})
	}
}

func TestExecutor_InvalidSignature(t *testing.T) {
	e := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"signature":"not-a-signature"}`))
	})

	_, err := e.Execute(context.Background(), testOrder())
	assert.Equal(t, apperror.CodeExecutionFailed, apperror.GetCode(err))
}

func TestExecutor_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	e := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	for range 3 {
		_, err := e.Execute(context.Background(), testOrder())
		require.Error(t, err)
	}
	_, err := e.Execute(context.Background(), testOrder())
	assert.Equal(t, apperror.CodeCircuitOpen, apperror.GetCode(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestNewExecutor_RequiresURL(t *testing.T) {
	_, err := NewExecutor(Config{}, logger.NewDiscard())
	assert.Equal(t, apperror.CodeConfigurationError, apperror.GetCode(err))
}
