package utils

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestToBaseUnits(t *testing.T) {
	assert.Equal(t, "5000000000", ToBaseUnits(decimal.NewFromInt(5), 9).String())
	assert.Equal(t, "1234567", ToBaseUnits(decimal.RequireFromString("1.2345678"), 6).String())
	assert.Equal(t, "0", ToBaseUnits(decimal.RequireFromString("0.0000001"), 6).String())
}

func TestAdjustDecimals(t *testing.T) {
	got := AdjustDecimals(big.NewInt(1_500_000_000), 9)
	assert.True(t, got.Equal(decimal.RequireFromString("1.5")))
}

func TestIsUnixSeconds(t *testing.T) {
	assert.True(t, IsUnixSeconds(1_700_000_000))
	assert.False(t, IsUnixSeconds(1_700_000_000_000))
	assert.False(t, IsUnixSeconds(-1))
}

func TestIsValidSolanaAddress(t *testing.T) {
	assert.True(t, IsValidSolanaAddress("So11111111111111111111111111111111111111112"))
	assert.True(t, IsValidSolanaAddress("JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"))
	assert.False(t, IsValidSolanaAddress(""))
	assert.False(t, IsValidSolanaAddress("0x15272209c6996e7dfa88c7463b899f4754794444"))
	assert.False(t, IsValidSolanaAddress("abc"))
}

func TestNormalizeAddresses(t *testing.T) {
	got := NormalizeAddresses([]string{" a ", "b", "", "a", "c"})
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestGetHashBucket(t *testing.T) {
	b := GetHashBucket("wallet", 16)
	assert.Less(t, b, uint32(16))
	assert.Equal(t, b, GetHashBucket("wallet", 16))
}
