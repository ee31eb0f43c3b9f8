package custody

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	agentwallet "github.com/agentwallet/agentwallet-go"
)

// ensRegistryAddress is the ENS registry, deployed at the same address
// on mainnet and the common testnets.
var ensRegistryAddress = common.HexToAddress("0x00000000000C2E074eC69A0dBb2997BA6C7d2e1e")

const ensRegistryABI = `[{"name":"resolver","type":"function","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]}]`

const ensResolverABI = `[{"name":"addr","type":"function","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]}]`

// ENSResolver resolves ENS names to addresses through a ChainReader
// connected to a network that serves the ENS registry.
type ENSResolver struct {
	reader   ChainReader
	registry abi.ABI
	resolver abi.ABI
}

// NewENSResolver creates a resolver over the given reader.
func NewENSResolver(reader ChainReader) *ENSResolver {
	registry, _ := abi.JSON(strings.NewReader(ensRegistryABI))
	resolver, _ := abi.JSON(strings.NewReader(ensResolverABI))
	return &ENSResolver{reader: reader, registry: registry, resolver: resolver}
}

// Resolve looks up the address an ENS name points at. Names without a
// registered resolver or with no address record fail with
// ErrInvalidAddress.
func (r *ENSResolver) Resolve(ctx context.Context, name string) (string, error) {
	node := Namehash(name)

	resolverAddr, err := r.callAddressMethod(ctx, r.registry, ensRegistryAddress, "resolver", node)
	if err != nil {
		return "", fmt.Errorf("ENS registry lookup for %s: %w", name, err)
	}
	if resolverAddr == (common.Address{}) {
		return "", fmt.Errorf("%w: no ENS resolver for %s", agentwallet.ErrInvalidAddress, name)
	}

	addr, err := r.callAddressMethod(ctx, r.resolver, resolverAddr, "addr", node)
	if err != nil {
		return "", fmt.Errorf("ENS address lookup for %s: %w", name, err)
	}
	if addr == (common.Address{}) {
		return "", fmt.Errorf("%w: ENS name %s has no address record", agentwallet.ErrInvalidAddress, name)
	}
	return addr.Hex(), nil
}

func (r *ENSResolver) callAddressMethod(ctx context.Context, contract abi.ABI, at common.Address, method string, node [32]byte) (common.Address, error) {
	input, err := contract.Pack(method, node)
	if err != nil {
		return common.Address{}, fmt.Errorf("encode %s: %w", method, err)
	}
	output, err := r.reader.CallContract(ctx, ethereum.CallMsg{To: &at, Data: input}, nil)
	if err != nil {
		return common.Address{}, err
	}
	values, err := contract.Unpack(method, output)
	if err != nil {
		return common.Address{}, fmt.Errorf("decode %s result: %w", method, err)
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %s returned a non-address value", agentwallet.ErrProtocol, method)
	}
	return addr, nil
}

// Namehash computes the EIP-137 hash of an ENS name: labels are hashed
// right to left onto a zero node. Names are lowercased first.
func Namehash(name string) [32]byte {
	var node [32]byte
	if name == "" {
		return node
	}
	labels := strings.Split(strings.ToLower(name), ".")
	for i := len(labels) - 1; i >= 0; i-- {
		labelHash := crypto.Keccak256([]byte(labels[i]))
		copy(node[:], crypto.Keccak256(node[:], labelHash))
	}
	return node
}
