package custody

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"

	agentwallet "github.com/agentwallet/agentwallet-go"
)

// NewKeypairSignerFromMnemonic derives a signer from a BIP39 mnemonic
// phrase. The accountIndex selects which HD account to use (typically 0).
// Derivation path: m/44'/60'/0'/0/{accountIndex}
func NewKeypairSignerFromMnemonic(mnemonic string, accountIndex uint32) (*KeypairSigner, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, agentwallet.ErrInvalidMnemonic
	}

	seed := bip39.NewSeed(mnemonic, "")
	key, err := deriveEthereumKey(seed, accountIndex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", agentwallet.ErrInvalidMnemonic, err)
	}
	return newKeypairSigner(key), nil
}

// NewKeypairSignerFromKeystore loads a signer from an encrypted geth
// keystore file.
func NewKeypairSignerFromKeystore(keystorePath, password string) (*KeypairSigner, error) {
	data, err := os.ReadFile(keystorePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", agentwallet.ErrInvalidKeystore, err)
	}

	var keyJSON struct {
		Crypto keystore.CryptoJSON `json:"crypto"`
	}
	if err := json.Unmarshal(data, &keyJSON); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON format", agentwallet.ErrInvalidKeystore)
	}

	privateKeyBytes, err := keystore.DecryptDataV3(keyJSON.Crypto, password)
	if err != nil {
		return nil, fmt.Errorf("%w: decryption failed", agentwallet.ErrInvalidKeystore)
	}

	key, err := crypto.ToECDSA(privateKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid private key", agentwallet.ErrInvalidKeystore)
	}
	return newKeypairSigner(key), nil
}

// deriveEthereumKey derives an Ethereum private key from a BIP39 seed.
// Follows BIP44 path: m/44'/60'/0'/0/{index}
func deriveEthereumKey(seed []byte, index uint32) (*ecdsa.PrivateKey, error) {
	masterKey, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, err
	}

	// 44' = BIP44 purpose
	key, err := masterKey.NewChildKey(bip32.FirstHardenedChild + 44)
	if err != nil {
		return nil, err
	}

	// 60' = Ethereum coin type
	key, err = key.NewChildKey(bip32.FirstHardenedChild + 60)
	if err != nil {
		return nil, err
	}

	// 0' = account 0
	key, err = key.NewChildKey(bip32.FirstHardenedChild + 0)
	if err != nil {
		return nil, err
	}

	// 0 = external chain
	key, err = key.NewChildKey(0)
	if err != nil {
		return nil, err
	}

	key, err = key.NewChildKey(index)
	if err != nil {
		return nil, err
	}

	return crypto.ToECDSA(key.Key)
}
