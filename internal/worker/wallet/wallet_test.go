package wallet

import (
	"testing"
	"web3-copytrade/internal/worker/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAddRemove(t *testing.T) {
	r := NewRegistry()

	w, err := r.Add(model.TrackedWallet{Address: " A ", Label: "whale"})
	require.NoError(t, err)
	assert.Equal(t, "A", w.Address)
	assert.False(t, w.CreatedAt.IsZero())

	_, err = r.Add(model.TrackedWallet{Address: "B"})
	require.NoError(t, err)
	_, err = r.Add(model.TrackedWallet{Address: "C"})
	require.NoError(t, err)

	_, err = r.Add(model.TrackedWallet{Address: "A"})
	assert.ErrorIs(t, err, ErrAlreadyTracked)

	require.NoError(t, r.Remove("B"))
	assert.ErrorIs(t, r.Remove("B"), ErrNotFound)
	assert.Equal(t, []string{"A", "C"}, r.Addresses())
	assert.True(t, r.Contains("C"))
	assert.False(t, r.Contains("B"))

	// 删除后索引仍正确
	require.NoError(t, r.Remove("C"))
	assert.Equal(t, []string{"A"}, r.Addresses())
	assert.Equal(t, 1, r.Len())
}

func TestRegistrySnapshotIsCopy(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Add(model.TrackedWallet{Address: "A"})

	snap := r.Snapshot()
	_, _ = r.Add(model.TrackedWallet{Address: "B"})
	snap[0].Label = "changed"

	assert.Len(t, snap, 1)
	assert.Empty(t, r.Snapshot()[0].Label)
}
