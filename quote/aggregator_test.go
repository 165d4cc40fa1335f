package quote

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Azurepeal/matrixswap-lib/common/errors"
	"github.com/Azurepeal/matrixswap-lib/common/types"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func quoteServer(t *testing.T, calls *int32, out string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		fmt.Fprintf(w, `{"dexAgg": {"expectedAmountOut": %q, "metamaskSwapTransaction": {"to": "0x3333333333333333333333333333333333333333", "data": "0x", "value": "0"}}}`, out)
	}))
}

func TestFetchQuote(t *testing.T) {
	t.Run("zero amount never hits the network", func(t *testing.T) {
		var calls int32
		server := quoteServer(t, &calls, "1")
		defer server.Close()

		agg := NewAggregator(NewClient(DefaultRetryPolicy, testLogger()), testLogger())

		for _, amt := range []string{"", "0"} {
			req := testRequest()
			req.Amount = amt
			q, err := agg.FetchQuote(context.Background(), server.URL, req)
			require.NoError(t, err)
			require.Nil(t, q)
		}
		require.Equal(t, int32(0), atomic.LoadInt32(&calls))
	})

	t.Run("nonzero amount fetches", func(t *testing.T) {
		server := quoteServer(t, nil, "777")
		defer server.Close()

		agg := NewAggregator(NewClient(DefaultRetryPolicy, testLogger()), testLogger())
		q, err := agg.FetchQuote(context.Background(), server.URL, testRequest())
		require.NoError(t, err)
		require.Equal(t, "777", q.ExpectedAmountOut)
	})
}

func TestFetchRoute(t *testing.T) {
	legRequests := func(srcEndpoint, dstEndpoint string) [2]LegRequest {
		src := testRequest()
		dst := testRequest()
		dst.SourceChain = types.ChainPolygon
		dst.DestinationChain = types.ChainPolygon
		return [2]LegRequest{
			{Endpoint: srcEndpoint, Request: src, FromSymbol: "CAKE", ToSymbol: "axlUSDC"},
			{Endpoint: dstEndpoint, Request: dst, FromSymbol: "axlUSDC", ToSymbol: "WMATIC"},
		}
	}

	t.Run("both legs fetched concurrently", func(t *testing.T) {
		src := quoteServer(t, nil, "111")
		defer src.Close()
		dst := quoteServer(t, nil, "222")
		defer dst.Close()

		agg := NewAggregator(NewClient(DefaultRetryPolicy, testLogger()), testLogger())
		route, err := agg.FetchRoute(context.Background(), legRequests(src.URL, dst.URL))
		require.NoError(t, err)
		require.True(t, route.Chained())
		require.Equal(t, "222", route.ExpectedOut())
		require.Equal(t, types.ChainBNB, route.TargetChain())
		require.Equal(t, "111", route.Legs[0].Quote.ExpectedAmountOut)
	})

	t.Run("one failing leg fails the route", func(t *testing.T) {
		src := quoteServer(t, nil, "111")
		defer src.Close()
		dst := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer dst.Close()

		agg := NewAggregator(NewClient(RetryPolicy{MaxAttempts: 1}, testLogger()), testLogger())
		route, err := agg.FetchRoute(context.Background(), legRequests(src.URL, dst.URL))
		require.Error(t, err)
		require.Nil(t, route)
	})

	t.Run("zero amount on either leg quotes nothing", func(t *testing.T) {
		legs := legRequests("http://unused", "http://unused")
		legs[1].Request.Amount = "0"

		agg := NewAggregator(NewClient(DefaultRetryPolicy, testLogger()), testLogger())
		route, err := agg.FetchRoute(context.Background(), legs)
		require.NoError(t, err)
		require.Nil(t, route)
	})
}

func TestBuildRouteCandidates(t *testing.T) {
	bnbTokens := []types.Token{
		{Address: "0xaaa1", Symbol: "axlUSDC", Decimals: 6},
		{Address: "0xaaa2", Symbol: "wAXL", Decimals: 6},
		{Address: "0xaaa3", Symbol: "CAKE", Decimals: 18},
	}
	polygonTokens := []types.Token{
		{Address: "0xbbb1", Symbol: "axlUSDC", Decimals: 6},
		{Address: "0xbbb2", Symbol: "wAXL", Decimals: 6},
		{Address: "0xbbb3", Symbol: "WMATIC", Decimals: 18},
	}
	params := func() RouteParams {
		return RouteParams{
			FromConfig:   &types.ChainConfig{Name: types.ChainBNB, QuoteEndpoint: "https://bnb.example"},
			ToConfig:     &types.ChainConfig{Name: types.ChainPolygon, QuoteEndpoint: "https://polygon.example"},
			FromTokens:   bnbTokens,
			ToTokens:     polygonTokens,
			TokenInAddr:  "0xaaa3",
			TokenOutAddr: "0xbbb3",
			RawAmount:    "2",
			SlippageBps:  50,
		}
	}

	t.Run("one candidate per shared intermediate", func(t *testing.T) {
		candidates, err := BuildRouteCandidates(params())
		require.NoError(t, err)
		// CAKE itself has no pairing on polygon; axlUSDC and wAXL do.
		require.Len(t, candidates, 2)

		for _, legs := range candidates {
			require.Equal(t, legs[0].ToSymbol, legs[1].FromSymbol)
			require.Equal(t, "https://bnb.example", legs[0].Endpoint)
			require.Equal(t, "https://polygon.example", legs[1].Endpoint)
			// Leg one spends the 18-decimals input token, leg two the
			// 6-decimals intermediate.
			require.Equal(t, "2000000000000000000", legs[0].Request.Amount)
			require.Equal(t, "2000000", legs[1].Request.Amount)
			require.Equal(t, types.ChainBNB, legs[0].Request.SourceChain)
			require.Equal(t, types.ChainPolygon, legs[1].Request.SourceChain)
		}
	})

	t.Run("input token must be on the source list", func(t *testing.T) {
		p := params()
		p.TokenInAddr = "0xdead"
		_, err := BuildRouteCandidates(p)
		require.True(t, pkgerrors.Is(err, errors.ErrNoRouteFound))
	})

	t.Run("no shared intermediate", func(t *testing.T) {
		p := params()
		p.ToTokens = []types.Token{{Address: "0xbbb3", Symbol: "WMATIC", Decimals: 18}}
		p.TokenOutAddr = "0xbbb3"
		_, err := BuildRouteCandidates(p)
		require.True(t, pkgerrors.Is(err, errors.ErrNoRouteFound))
	})

	t.Run("invalid amount", func(t *testing.T) {
		p := params()
		p.RawAmount = "abc"
		_, err := BuildRouteCandidates(p)
		require.True(t, pkgerrors.Is(err, errors.ErrInvalidAmount))
	})
}
