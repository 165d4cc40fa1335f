package quote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Azurepeal/matrixswap-lib/common/errors"
	"github.com/Azurepeal/matrixswap-lib/common/types"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testRequest() *types.QuoteRequest {
	return &types.QuoteRequest{
		SourceChain:      types.ChainBNB,
		DestinationChain: types.ChainBNB,
		TokenInAddr:      "0x1111111111111111111111111111111111111111",
		TokenOutAddr:     "0x2222222222222222222222222222222222222222",
		Amount:           "1000000000000000000",
		SlippageBps:      50,
		MaxEdge:          DefaultMaxEdge,
		MaxSplit:         DefaultMaxSplit,
	}
}

const goodResponse = `{
	"dexAgg": {
		"expectedAmountOut": "123456789",
		"metamaskSwapTransaction": {
			"to": "0x3333333333333333333333333333333333333333",
			"data": "0xdeadbeef",
			"value": "0",
			"gasLimit": "21000"
		}
	},
	"singleDexes": [
		{"dexId": "pancakeswap", "expectedAmountOut": "123000000"},
		{"dexId": "biswap", "expectedAmountOut": "122000000"}
	],
	"ts": 1700000000
}`

func TestCalculate(t *testing.T) {
	t.Run("normalizes the provider response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, calculatePath, r.URL.Path)
			w.Write([]byte(goodResponse))
		}))
		defer server.Close()

		client := NewClient(DefaultRetryPolicy, testLogger())
		q, err := client.Calculate(context.Background(), server.URL, testRequest())
		require.NoError(t, err)
		require.Equal(t, "123456789", q.ExpectedAmountOut)
		require.Equal(t, types.ChainBNB, q.Chain)
		require.Equal(t, "0x3333333333333333333333333333333333333333", q.Transaction.To)
		require.Len(t, q.SingleDexes, 2)
		require.Equal(t, "pancakeswap", q.SingleDexes[0].DexID)
		require.False(t, q.FetchedAt.IsZero())
	})

	t.Run("recovers within the attempt budget", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte(goodResponse))
		}))
		defer server.Close()

		client := NewClient(RetryPolicy{MaxAttempts: 3}, testLogger())
		q, err := client.Calculate(context.Background(), server.URL, testRequest())
		require.NoError(t, err)
		require.Equal(t, "123456789", q.ExpectedAmountOut)
		require.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("stops after exhausting attempts", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewClient(RetryPolicy{MaxAttempts: 3}, testLogger())
		_, err := client.Calculate(context.Background(), server.URL, testRequest())
		require.Error(t, err)
		require.True(t, pkgerrors.Is(err, errors.ErrQuoteFetchFailed))
		require.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("provider-reported error counts as a failed attempt", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.Write([]byte(`{"error": "no liquidity"}`))
		}))
		defer server.Close()

		client := NewClient(RetryPolicy{MaxAttempts: 2}, testLogger())
		_, err := client.Calculate(context.Background(), server.URL, testRequest())
		require.True(t, pkgerrors.Is(err, errors.ErrQuoteFetchFailed))
		require.Contains(t, err.Error(), "no liquidity")
		require.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cancel()
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewClient(RetryPolicy{MaxAttempts: 5}, testLogger())
		_, err := client.Calculate(ctx, server.URL, testRequest())
		require.ErrorIs(t, err, context.Canceled)
	})
}
