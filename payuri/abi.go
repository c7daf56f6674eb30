package payuri

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// erc20TransferABI is the fragment of the ERC-20 ABI needed to encode a
// transfer(address,uint256) call. Its 4-byte selector is 0xa9059cbb.
const erc20TransferABI = `[{"name":"transfer","type":"function","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}]`

var transferABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc20TransferABI))
	if err != nil {
		panic(fmt.Sprintf("payuri: invalid erc20 transfer ABI: %v", err))
	}
	return parsed
}()

// EncodeTransferCalldata ABI-encodes an ERC-20 transfer(address,uint256) call:
// the 4-byte selector followed by the left-padded recipient and the big-endian
// amount, 32 bytes each. The encoding is a pure function of its inputs and
// round-trips through DecodeTransferCalldata.
func EncodeTransferCalldata(to common.Address, amount *big.Int) ([]byte, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("transfer amount must be non-negative")
	}
	return transferABI.Pack("transfer", to, amount)
}

// DecodeTransferCalldata decodes calldata produced by EncodeTransferCalldata,
// recovering the exact recipient and amount. It rejects calldata whose
// selector is not transfer(address,uint256).
func DecodeTransferCalldata(data []byte) (common.Address, *big.Int, error) {
	method := transferABI.Methods["transfer"]
	if len(data) < 4 || !bytes.Equal(data[:4], method.ID) {
		return common.Address{}, nil, fmt.Errorf("calldata does not begin with the transfer selector")
	}
	values, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("failed to unpack transfer arguments: %w", err)
	}
	to, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, nil, fmt.Errorf("unexpected type for transfer recipient")
	}
	amount, ok := values[1].(*big.Int)
	if !ok {
		return common.Address{}, nil, fmt.Errorf("unexpected type for transfer amount")
	}
	return to, amount, nil
}
