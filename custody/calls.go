package custody

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"

	agentwallet "github.com/agentwallet/agentwallet-go"
)

// BuildCall converts one EVMTransaction into its wire representation.
// It is pure: no network access, no chain state.
//
// With neither Call nor Data the result is a plain value transfer with
// data "0x". With Call, the function is ABI-encoded. With Data, the
// calldata passes through untouched.
func BuildCall(tx agentwallet.EVMTransaction) (agentwallet.Call, error) {
	if tx.To == "" {
		return agentwallet.Call{}, fmt.Errorf("%w: transaction recipient is required", agentwallet.ErrInvalidArgument)
	}
	if tx.Value != nil && tx.Value.Sign() < 0 {
		return agentwallet.Call{}, fmt.Errorf("%w: transaction value must not be negative", agentwallet.ErrInvalidArgument)
	}
	if tx.Call != nil && tx.Data != "" {
		return agentwallet.Call{}, fmt.Errorf("%w: transaction cannot carry both a contract call and raw calldata", agentwallet.ErrInvalidArgument)
	}

	value := "0"
	if tx.Value != nil {
		value = tx.Value.String()
	}

	data := "0x"
	switch {
	case tx.Call != nil:
		encoded, err := encodeCall(tx.Call)
		if err != nil {
			return agentwallet.Call{}, err
		}
		data = encoded
	case tx.Data != "":
		data = tx.Data
		if !strings.HasPrefix(data, "0x") {
			data = "0x" + data
		}
	}

	return agentwallet.Call{To: tx.To, Value: value, Data: data}, nil
}

// BuildCalls converts a batch in order. Any invalid transaction fails
// the whole batch.
func BuildCalls(txs []agentwallet.EVMTransaction) ([]agentwallet.Call, error) {
	calls := make([]agentwallet.Call, 0, len(txs))
	for i, tx := range txs {
		call, err := BuildCall(tx)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		calls = append(calls, call)
	}
	return calls, nil
}

func encodeCall(call *agentwallet.ContractCall) (string, error) {
	if call.FunctionName == "" {
		return "", fmt.Errorf("%w: contract call requires a function name", agentwallet.ErrInvalidArgument)
	}
	parsed, err := abi.JSON(strings.NewReader(call.ABI))
	if err != nil {
		return "", fmt.Errorf("%w: parse ABI: %v", agentwallet.ErrInvalidArgument, err)
	}
	packed, err := parsed.Pack(call.FunctionName, call.Args...)
	if err != nil {
		return "", fmt.Errorf("%w: encode %s: %v", agentwallet.ErrInvalidArgument, call.FunctionName, err)
	}
	return hexutil.Encode(packed), nil
}
