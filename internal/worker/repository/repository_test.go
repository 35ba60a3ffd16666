package repository

import (
	"testing"
	"web3-copytrade/internal/worker/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWithoutOptionalClients(t *testing.T) {
	repo, err := New(config.Config{Solana: config.SolanaConfig{RpcURL: "http://127.0.0.1:8899"}}, zap.NewNop())
	require.NoError(t, err)
	defer repo.Close()

	assert.Nil(t, repo.GetDB())
	assert.Nil(t, repo.GetRDB())
	assert.Nil(t, repo.GetMQ())
	assert.Nil(t, repo.GetES())
	assert.NotNil(t, repo.GetSolanaClient())
}
