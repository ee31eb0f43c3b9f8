// Package agentwallet provides wallet clients and DEX plugins for agent
// frameworks: a custody-backed EVM smart wallet, a keypair-held Solana
// wallet, and tool adapters exposing their operations to MCP agents.
package agentwallet

import "fmt"

// ChainType represents the blockchain virtual machine family.
type ChainType int

const (
	// ChainTypeUnknown represents an unrecognized network.
	ChainTypeUnknown ChainType = iota
	// ChainTypeEVM represents Ethereum Virtual Machine chains.
	ChainTypeEVM
	// ChainTypeSolana represents Solana clusters.
	ChainTypeSolana
)

// Chain identifies the network a wallet client operates on.
type Chain struct {
	// Type is the virtual machine family.
	Type ChainType

	// Network is the network identifier (e.g. "base", "solana").
	Network string

	// ID is the EVM chain id. Zero for Solana networks.
	ID int64
}

// evmChainIDs maps supported EVM network identifiers to their chain ids.
var evmChainIDs = map[string]int64{
	"ethereum":       1,
	"sepolia":        11155111,
	"base":           8453,
	"base-sepolia":   84532,
	"polygon":        137,
	"polygon-amoy":   80002,
	"optimism":       10,
	"arbitrum":       42161,
	"avalanche":      43114,
	"avalanche-fuji": 43113,
}

// solanaNetworks is the set of supported Solana cluster identifiers.
var solanaNetworks = map[string]bool{
	"solana":         true,
	"solana-devnet":  true,
	"solana-testnet": true,
}

// NetworkType returns the chain family of a network identifier,
// or ChainTypeUnknown if it is not recognized.
func NetworkType(network string) ChainType {
	if _, ok := evmChainIDs[network]; ok {
		return ChainTypeEVM
	}
	if solanaNetworks[network] {
		return ChainTypeSolana
	}
	return ChainTypeUnknown
}

// ChainID returns the EVM chain id for a network identifier.
func ChainID(network string) (int64, error) {
	id, ok := evmChainIDs[network]
	if !ok {
		return 0, fmt.Errorf("%w: %s is not a supported EVM network", ErrInvalidNetwork, network)
	}
	return id, nil
}

// ResolveChain resolves a network identifier into a Chain.
func ResolveChain(network string) (Chain, error) {
	switch NetworkType(network) {
	case ChainTypeEVM:
		id, err := ChainID(network)
		if err != nil {
			return Chain{}, err
		}
		return Chain{Type: ChainTypeEVM, Network: network, ID: id}, nil
	case ChainTypeSolana:
		return Chain{Type: ChainTypeSolana, Network: network}, nil
	default:
		return Chain{}, fmt.Errorf("%w: %s", ErrInvalidNetwork, network)
	}
}

// ValidateAddress validates that an address is well formed for the network type.
//
// For EVM networks the address must be a 0x-prefixed hex string (42 characters).
// For Solana networks the address must be base58 encoded (32-44 characters).
func ValidateAddress(network, address string) error {
	if address == "" {
		return fmt.Errorf("%w: address cannot be empty", ErrInvalidAddress)
	}

	switch NetworkType(network) {
	case ChainTypeEVM:
		if len(address) != 42 || (address[0:2] != "0x" && address[0:2] != "0X") {
			return fmt.Errorf("%w: %q is not a 0x-prefixed hex address", ErrInvalidAddress, address)
		}
		for i := 2; i < len(address); i++ {
			c := address[i]
			if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
				return fmt.Errorf("%w: %q is not a 0x-prefixed hex address", ErrInvalidAddress, address)
			}
		}

	case ChainTypeSolana:
		if len(address) < 32 || len(address) > 44 {
			return fmt.Errorf("%w: %q is not a base58 address", ErrInvalidAddress, address)
		}
		// Base58 excludes 0, O, I and l.
		for i := 0; i < len(address); i++ {
			c := address[i]
			if !((c >= '1' && c <= '9') || (c >= 'A' && c <= 'Z' && c != 'I' && c != 'O') || (c >= 'a' && c <= 'z' && c != 'l')) {
				return fmt.Errorf("%w: %q is not a base58 address", ErrInvalidAddress, address)
			}
		}

	default:
		return fmt.Errorf("%w: %s", ErrInvalidNetwork, network)
	}

	return nil
}
