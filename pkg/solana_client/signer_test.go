package solana_client

import (
	"encoding/hex"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPrivateKeyFormats(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	arr, err := sonic.MarshalString(ints)
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"base58": key.String(),
		"hex":    hex.EncodeToString(key),
		"json":   arr,
	} {
		t.Run(name, func(t *testing.T) {
			got, err := LoadPrivateKey(raw)
			require.NoError(t, err)
			assert.Equal(t, key.PublicKey(), got.PublicKey())
		})
	}
}

func TestLoadPrivateKeyInvalid(t *testing.T) {
	for _, raw := range []string{"", "   ", "[1,2,3]", "[999]", "not-a-key"} {
		_, err := LoadPrivateKey(raw)
		assert.ErrorIs(t, err, ErrInvalidPrivateKey, raw)
	}
}

func TestSignTransaction(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	to := solana.NewWallet().PublicKey()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(1000, key.PublicKey(), to).Build(),
		},
		solana.Hash{},
		solana.TransactionPayer(key.PublicKey()),
	)
	require.NoError(t, err)
	unsigned, err := tx.MarshalBinary()
	require.NoError(t, err)

	signer := NewSigner(key, nil, false)
	assert.Equal(t, key.PublicKey().String(), signer.PublicKey())

	signed, err := signer.SignTransaction(unsigned)
	require.NoError(t, err)

	decoded, err := solana.TransactionFromBytes(signed)
	require.NoError(t, err)
	require.Len(t, decoded.Signatures, 1)
	assert.NoError(t, decoded.VerifySignatures())
}

func TestSignTransactionRejectsGarbage(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	_, err = NewSigner(key, nil, false).SignTransaction([]byte{0x01})
	assert.Error(t, err)
}

func TestSignTransactionForeignPayer(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	other := solana.NewWallet()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(1000, other.PublicKey(), key.PublicKey()).Build(),
		},
		solana.Hash{},
		solana.TransactionPayer(other.PublicKey()),
	)
	require.NoError(t, err)
	unsigned, err := tx.MarshalBinary()
	require.NoError(t, err)

	_, err = NewSigner(key, nil, false).SignTransaction(unsigned)
	assert.Error(t, err)
}
