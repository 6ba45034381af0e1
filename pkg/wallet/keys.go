package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeyManager holds one private key and the address derived from it. The
// rescue uses three of them: the executor (compromised account), the
// sponsor (gas funder) and the relay identity.
type KeyManager struct {
	privateKey *ecdsa.PrivateKey // The wallet's private key
	address    common.Address    // The derived Ethereum address
}

// NewKeyManager creates a new key manager from a private key string.
// It accepts a hex-encoded private key (with or without 0x prefix).
//
// Example:
//
//	km, err := NewKeyManager("0x1234...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	address := km.GetAddress()
func NewKeyManager(privateKeyHex string) (*KeyManager, error) {
	privateKeyHex = strings.TrimSpace(privateKeyHex)
	if privateKeyHex == "" {
		return nil, NewWalletError(ErrCodeInvalidPrivateKey, "private key cannot be empty", nil, "")
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, NewWalletError(ErrCodeInvalidPrivateKey, "invalid private key", err, "")
	}

	return NewKeyManagerFromKey(privateKey), nil
}

// NewKeyManagerFromKey wraps an already parsed private key.
func NewKeyManagerFromKey(privateKey *ecdsa.PrivateKey) *KeyManager {
	return &KeyManager{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}
}

// GetAddress returns the Ethereum address associated with this key manager.
func (km *KeyManager) GetAddress() common.Address {
	return km.address
}

// SignText produces an EIP-191 personal_sign signature over text, with the
// recovery id shifted to 27/28 as wallets and relays expect.
func (km *KeyManager) SignText(text []byte) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash(text), km.privateKey)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// SignTx signs tx for the given chain using the latest signer the chain
// supports.
func (km *KeyManager) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), km.privateKey)
	if err != nil {
		return nil, NewWalletError(ErrCodeSigningFailed, fmt.Sprintf("failed to sign transaction for %s", km.address.Hex()), err, "")
	}
	return signed, nil
}
