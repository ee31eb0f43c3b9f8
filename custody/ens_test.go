package custody

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	agentwallet "github.com/agentwallet/agentwallet-go"
)

func TestNamehash(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", "0000000000000000000000000000000000000000000000000000000000000000"},
		{"eth", "93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae"},
		{"foo.eth", "de9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f"},
	}

	for _, tt := range tests {
		node := Namehash(tt.name)
		if got := hex.EncodeToString(node[:]); got != tt.want {
			t.Errorf("Namehash(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestNamehashCaseInsensitive(t *testing.T) {
	if Namehash("Foo.ETH") != Namehash("foo.eth") {
		t.Error("namehash must lowercase before hashing")
	}
}

// fakeReader serves canned eth_call results keyed by target address.
type fakeReader struct {
	results map[common.Address][]byte
}

func (f *fakeReader) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (f *fakeReader) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return f.results[*call.To], nil
}

func TestENSResolverResolve(t *testing.T) {
	resolverAddr := common.HexToAddress("0x1111111111111111111111111111111111111111")
	target := common.HexToAddress("0x2222222222222222222222222222222222222222")

	reader := &fakeReader{results: map[common.Address][]byte{
		ensRegistryAddress: common.LeftPadBytes(resolverAddr.Bytes(), 32),
		resolverAddr:       common.LeftPadBytes(target.Bytes(), 32),
	}}

	got, err := NewENSResolver(reader).Resolve(context.Background(), "foo.eth")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != target.Hex() {
		t.Errorf("Resolve = %s, want %s", got, target.Hex())
	}
}

func TestENSResolverNoResolver(t *testing.T) {
	reader := &fakeReader{results: map[common.Address][]byte{
		ensRegistryAddress: common.LeftPadBytes(common.Address{}.Bytes(), 32),
	}}

	_, err := NewENSResolver(reader).Resolve(context.Background(), "nobody.eth")
	if !errors.Is(err, agentwallet.ErrInvalidAddress) {
		t.Errorf("error = %v, want ErrInvalidAddress", err)
	}
}

func TestSmartWalletResolveAddress(t *testing.T) {
	w := newTestWallet(t, &fakeAPI{})

	// Hex addresses resolve locally to checksum form.
	got, err := w.ResolveAddress(context.Background(), "0x742d35cc6634c0532925a3b844bc9e7595f251e3")
	if err != nil {
		t.Fatalf("ResolveAddress: %v", err)
	}
	if got != common.HexToAddress("0x742d35cc6634c0532925a3b844bc9e7595f251e3").Hex() {
		t.Errorf("ResolveAddress = %s", got)
	}

	// ENS names need a configured resolver.
	if _, err := w.ResolveAddress(context.Background(), "foo.eth"); !errors.Is(err, agentwallet.ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
}

func TestSmartWalletBalanceOf(t *testing.T) {
	reader := &balanceReader{balance: big.NewInt(1500000000000000000)}
	w := newTestWallet(t, &fakeAPI{}, WithChainReader(reader))

	balance, err := w.BalanceOf(context.Background(), testWalletAddress)
	if err != nil {
		t.Fatalf("BalanceOf: %v", err)
	}
	if balance.Symbol != "ETH" || balance.Decimals != 18 {
		t.Errorf("balance = %+v", balance)
	}
	if balance.Value != "1.5" {
		t.Errorf("Value = %q, want 1.5", balance.Value)
	}
	if balance.InBaseUnits != "1500000000000000000" {
		t.Errorf("InBaseUnits = %q", balance.InBaseUnits)
	}
}

type balanceReader struct {
	balance *big.Int
}

func (r *balanceReader) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return r.balance, nil
}

func (r *balanceReader) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return nil, nil
}
