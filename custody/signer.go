package custody

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	agentwallet "github.com/agentwallet/agentwallet-go"
)

// Signer determines who authorizes custody operations. A custodial
// signer delegates everything to the custody service; a keypair signer
// holds a local key and must co-sign approval messages before an
// operation can proceed.
type Signer interface {
	// Custodial reports whether the custody service signs on its own,
	// without external approvals.
	Custodial() bool

	// Address returns the signer's EVM address, empty for custodial.
	Address() string

	// SignHash signs a hex-encoded approval message with EIP-191
	// personal-message semantics and returns the hex signature.
	SignHash(hexMessage string) (string, error)

	// Tag attributes approvals, formatted "<scheme>:<address>".
	Tag() string
}

// CustodialSigner delegates all signing to the custody service.
type CustodialSigner struct{}

// Custodial implements Signer.
func (CustodialSigner) Custodial() bool { return true }

// Address implements Signer.
func (CustodialSigner) Address() string { return "" }

// SignHash implements Signer. Custodial signers hold no key material.
func (CustodialSigner) SignHash(string) (string, error) {
	return "", fmt.Errorf("%w: custodial signer cannot sign locally", agentwallet.ErrConfiguration)
}

// Tag implements Signer.
func (CustodialSigner) Tag() string { return "" }

// KeypairSigner holds a local secp256k1 key and co-signs custody
// approval messages.
type KeypairSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewKeypairSigner creates a signer from a hex-encoded private key.
// The 0x prefix is optional.
func NewKeypairSigner(hexKey string) (*KeypairSigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", agentwallet.ErrInvalidKey, err)
	}
	return newKeypairSigner(key), nil
}

func newKeypairSigner(key *ecdsa.PrivateKey) *KeypairSigner {
	return &KeypairSigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

// Custodial implements Signer.
func (s *KeypairSigner) Custodial() bool { return false }

// Address implements Signer.
func (s *KeypairSigner) Address() string { return s.address.Hex() }

// SignHash implements Signer. The message is the hex payload from a
// pending approval; it is hashed with the EIP-191 personal-message
// prefix before signing, and the recovery byte is shifted to 27/28.
func (s *KeypairSigner) SignHash(hexMessage string) (string, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(hexMessage, "0x"))
	if err != nil {
		return "", fmt.Errorf("%w: approval message is not hex: %v", agentwallet.ErrProtocol, err)
	}

	sig, err := crypto.Sign(accounts.TextHash(raw), s.key)
	if err != nil {
		return "", fmt.Errorf("sign approval message: %w", err)
	}
	sig[64] += 27

	return hexutil.Encode(sig), nil
}

// Tag implements Signer.
func (s *KeypairSigner) Tag() string {
	return "evm-keypair:" + s.address.Hex()
}
