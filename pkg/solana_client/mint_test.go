package solana_client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRPCServer(t *testing.T, calls *atomic.Int32, result string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req map[string]interface{}
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		id, _ := sonic.MarshalString(req["id"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + id + `,"result":` + result + `}`))
	}))
}

func TestMintDecimalsCached(t *testing.T) {
	var calls atomic.Int32
	srv := newRPCServer(t, &calls, `{"context":{"slot":1},"value":{"amount":"1000000","decimals":6,"uiAmount":1,"uiAmountString":"1"}}`)
	defer srv.Close()

	m := NewMintDecimals(Init(srv.URL))
	mint := "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

	d, err := m.Decimals(context.Background(), mint)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), d)

	d, err = m.Decimals(context.Background(), mint)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), d)
	assert.Equal(t, int32(1), calls.Load())
}

func TestMintDecimalsNativeSOL(t *testing.T) {
	var calls atomic.Int32
	srv := newRPCServer(t, &calls, `null`)
	defer srv.Close()

	d, err := NewMintDecimals(Init(srv.URL)).Decimals(context.Background(), WSOLMint)
	require.NoError(t, err)
	assert.Equal(t, uint8(9), d)
	assert.Zero(t, calls.Load())
}

func TestGetSOLBalance(t *testing.T) {
	var calls atomic.Int32
	srv := newRPCServer(t, &calls, `{"context":{"slot":1},"value":1500000000}`)
	defer srv.Close()

	bal, err := GetSOLBalance(context.Background(), Init(srv.URL), "So11111111111111111111111111111111111111112")
	require.NoError(t, err)
	assert.Equal(t, "1.5", bal.String())
}
