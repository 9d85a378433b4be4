package evm

import (
	"errors"
	"fmt"
	"math/big"

	"btp-bootstrap/core"
	"btp-bootstrap/shared/evm"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var ErrArgCount = errors.New("argument count mismatch")

// toCoreError turns a node revert into a core.RevertError and keeps the original
// message as context. Other errors pass through.
func toCoreError(err error) error {
	reason, ok := evm.RevertReason(err)
	if !ok {
		return err
	}
	return fmt.Errorf("%w (%s)", core.Reverted(reason), err)
}

// convertArgs maps chain-agnostic step arguments onto the Go types the abi packer
// expects: hex strings for addresses and plain integers for uint8 and uint256.
func convertArgs(inputs abi.Arguments, args []interface{}) ([]interface{}, error) {
	if len(inputs) != len(args) {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrArgCount, len(inputs), len(args))
	}
	out := make([]interface{}, len(args))
	for i, arg := range args {
		v, err := convertArg(inputs[i].Type, arg)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", inputs[i].Name, err)
		}
		out[i] = v
	}
	return out, nil
}

func convertArg(t abi.Type, arg interface{}) (interface{}, error) {
	switch t.T {
	case abi.AddressTy:
		switch v := arg.(type) {
		case string:
			if !common.IsHexAddress(v) {
				return nil, fmt.Errorf("invalid address %q", v)
			}
			return common.HexToAddress(v), nil
		case common.Address:
			return v, nil
		}
	case abi.SliceTy:
		if t.Elem.T != abi.AddressTy {
			return arg, nil
		}
		if v, ok := arg.([]string); ok {
			addrs := make([]common.Address, 0, len(v))
			for _, s := range v {
				if !common.IsHexAddress(s) {
					return nil, fmt.Errorf("invalid address %q", s)
				}
				addrs = append(addrs, common.HexToAddress(s))
			}
			return addrs, nil
		}
	case abi.UintTy:
		n, ok := toUint64(arg)
		if !ok {
			return arg, nil
		}
		switch t.Size {
		case 8:
			if n > 255 {
				return nil, fmt.Errorf("%d overflows uint8", n)
			}
			return uint8(n), nil
		case 256:
			return new(big.Int).SetUint64(n), nil
		}
	}
	return arg, nil
}

func toUint64(arg interface{}) (uint64, bool) {
	switch v := arg.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
