package jupiter

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"web3-copytrade/internal/worker/config"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const quoteBody = `{"inputMint":"So11111111111111111111111111111111111111112","inAmount":"5000000000","outputMint":"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v","outAmount":"750000000","otherAmountThreshold":"746250000","swapMode":"ExactIn","slippageBps":50,"priceImpactPct":"0","routePlan":[{"swapInfo":{"ammKey":"amm","label":"Orca","inputMint":"So11111111111111111111111111111111111111112","outputMint":"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v","inAmount":"5000000000","outAmount":"750000000","feeAmount":"0","feeMint":"So11111111111111111111111111111111111111112"},"percent":100}],"contextSlot":1}`

func newTestClient(baseURL string) *Client {
	return NewClient(config.JupiterConfig{BaseURL: baseURL, APIKey: "k", Timeout: 2, WrapUnwrapSol: true}, zap.NewNop())
}

func TestGetQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "So11111111111111111111111111111111111111112", q.Get("inputMint"))
		assert.Equal(t, "5000000000", q.Get("amount"))
		assert.Equal(t, "50", q.Get("slippageBps"))
		assert.Equal(t, "k", r.Header.Get("X-API-Key"))
		_, _ = w.Write([]byte(quoteBody))
	}))
	defer srv.Close()

	quote, raw, err := newTestClient(srv.URL).GetQuote(context.Background(), QuoteParams{
		InputMint:   "So11111111111111111111111111111111111111112",
		OutputMint:  "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Amount:      "5000000000",
		SlippageBps: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, "750000000", quote.OutAmount)
	require.Len(t, quote.RoutePlan, 1)
	assert.Equal(t, "Orca", quote.RoutePlan[0].SwapInfo.Label)
	assert.JSONEq(t, quoteBody, string(raw))
}

func TestGetQuoteNoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Could not find any route","errorCode":"COULD_NOT_FIND_ANY_ROUTE"}`))
	}))
	defer srv.Close()

	_, _, err := newTestClient(srv.URL).GetQuote(context.Background(), QuoteParams{Amount: "1"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.NoRoute())
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Could not find any route", apiErr.Message)
}

func TestGetQuoteServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, _, err := newTestClient(srv.URL).GetQuote(context.Background(), QuoteParams{Amount: "1"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.False(t, apiErr.NoRoute())
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
}

func TestSwap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/swap", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		var req map[string]interface{}
		assert.NoError(t, sonic.Unmarshal(body, &req))
		assert.Equal(t, "User111", req["userPublicKey"])
		assert.Equal(t, true, req["wrapAndUnwrapSol"])
		quote, _ := req["quoteResponse"].(map[string]interface{})
		assert.Equal(t, "750000000", quote["outAmount"])

		_, _ = w.Write([]byte(`{"swapTransaction":"AQID","lastValidBlockHeight":100}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Swap(context.Background(), []byte(quoteBody), "User111")
	require.NoError(t, err)
	assert.Equal(t, "AQID", resp.SwapTransaction)
	assert.Equal(t, uint64(100), resp.LastValidBlockHeight)
}

func TestSwapEmptyTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Swap(context.Background(), []byte(quoteBody), "User111")
	var apiErr *APIError
	assert.True(t, errors.As(err, &apiErr))
}
