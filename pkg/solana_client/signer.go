package solana_client

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

var ErrInvalidPrivateKey = errors.New("invalid private key")

// LoadPrivateKey 支持 base58、hex 以及 JSON 字节数组（solana-keygen 格式）
func LoadPrivateKey(raw string) (solana.PrivateKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidPrivateKey)
	}

	var key solana.PrivateKey
	switch {
	case strings.HasPrefix(raw, "["):
		var ints []int
		if err := sonic.UnmarshalString(raw, &ints); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
		}
		key = make(solana.PrivateKey, len(ints))
		for i, n := range ints {
			if n < 0 || n > 255 {
				return nil, fmt.Errorf("%w: byte %d out of range", ErrInvalidPrivateKey, i)
			}
			key[i] = byte(n)
		}
	case len(raw) == 128 && isHex(raw):
		b, err := hex.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
		}
		key = b
	default:
		k, err := solana.PrivateKeyFromBase58(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
		}
		key = k
	}

	if len(key) != 64 {
		return nil, fmt.Errorf("%w: expected 64 bytes, got %d", ErrInvalidPrivateKey, len(key))
	}
	return key, nil
}

func isHex(s string) bool {
	for _, c := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}

// Signer 持有跟单钱包私钥，签名聚合器返回的交易并提交到链上
type Signer struct {
	key           solana.PrivateKey
	client        *rpc.Client
	skipPreflight bool
}

func NewSigner(key solana.PrivateKey, client *rpc.Client, skipPreflight bool) *Signer {
	return &Signer{key: key, client: client, skipPreflight: skipPreflight}
}

func (s *Signer) PublicKey() string {
	return s.key.PublicKey().String()
}

// SignTransaction 反序列化交易并用本钱包签名，返回签名后的字节
func (s *Signer) SignTransaction(blob []byte) ([]byte, error) {
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(blob))
	if err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}

	owner := s.key.PublicKey()
	if _, err := tx.Sign(func(pub solana.PublicKey) *solana.PrivateKey {
		if pub.Equals(owner) {
			return &s.key
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	out, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}
	return out, nil
}

// SendTransaction 提交已签名交易，返回交易签名
func (s *Signer) SendTransaction(ctx context.Context, signed []byte) (string, error) {
	if s.client == nil {
		return "", errors.New("solana rpc client not configured")
	}
	sig, err := s.client.SendRawTransactionWithOpts(ctx, signed, rpc.TransactionOpts{
		SkipPreflight:       s.skipPreflight,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return "", err
	}
	return sig.String(), nil
}
