package btp

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

var ErrUnexpectedOutput = errors.New("unexpected call output")

type LinkStatus string

const (
	LinkVerified   = LinkStatus("verified")
	LinkUnverified = LinkStatus("unverified")
	LinkUnlinked   = LinkStatus("unlinked")
)

// Registration is one (string,address) tuple held by a BMC: a verifier keyed by
// network or a service keyed by name. Field order follows the contract tuple.
type Registration struct {
	Key     string
	Address common.Address
}

type VerifierStats struct {
	Height *big.Int
	Extra  []byte
}

// LinkStats is the getStatus tuple, field for field.
type LinkStats struct {
	RxSeq         *big.Int
	TxSeq         *big.Int
	Verifier      VerifierStats
	CurrentHeight *big.Int
}

type Balance struct {
	Usable     *big.Int
	Locked     *big.Int
	Refundable *big.Int
}

// Coin is a side's native coin as registered on the counterpart's BSH.
type Coin struct {
	Name     string
	Symbol   string
	Decimals uint64
}

// Amount formats raw units with the coin decimals.
func (c Coin) Amount(units *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(units, -int32(c.Decimals))
}

// Find returns the registrations under key.
func Find(regs []Registration, key string) []Registration {
	found := make([]Registration, 0)
	for _, r := range regs {
		if r.Key == key {
			found = append(found, r)
		}
	}
	return found
}

// DecodeRegistrations reads a (string,address)[] output.
func DecodeRegistrations(out []interface{}) ([]Registration, error) {
	if len(out) != 1 {
		return nil, fmt.Errorf("%w: want 1 value, got %d", ErrUnexpectedOutput, len(out))
	}
	regs := new([]Registration)
	if err := convert(out[0], regs); err != nil {
		return nil, err
	}
	return *regs, nil
}

// convert copies an abi-decoded tuple into proto. abi.ConvertType panics on a
// shape mismatch.
func convert(in, proto interface{}) (err error) {
	if in == nil {
		return fmt.Errorf("%w: nil value", ErrUnexpectedOutput)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrUnexpectedOutput, r)
		}
	}()
	abi.ConvertType(in, proto)
	return nil
}

func DecodeStrings(out []interface{}) ([]string, error) {
	if len(out) != 1 {
		return nil, fmt.Errorf("%w: want 1 value, got %d", ErrUnexpectedOutput, len(out))
	}
	v, ok := out[0].([]string)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not string[]", ErrUnexpectedOutput, out[0])
	}
	return v, nil
}

func DecodeString(out []interface{}) (string, error) {
	if len(out) != 1 {
		return "", fmt.Errorf("%w: want 1 value, got %d", ErrUnexpectedOutput, len(out))
	}
	v, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("%w: %T is not string", ErrUnexpectedOutput, out[0])
	}
	return v, nil
}

func DecodeAddresses(out []interface{}) ([]common.Address, error) {
	if len(out) != 1 {
		return nil, fmt.Errorf("%w: want 1 value, got %d", ErrUnexpectedOutput, len(out))
	}
	v, ok := out[0].([]common.Address)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not address[]", ErrUnexpectedOutput, out[0])
	}
	return v, nil
}

func decodeInts(out []interface{}, n int) ([]*big.Int, error) {
	if len(out) != n {
		return nil, fmt.Errorf("%w: want %d values, got %d", ErrUnexpectedOutput, n, len(out))
	}
	ints := make([]*big.Int, 0, n)
	for _, o := range out {
		v, ok := o.(*big.Int)
		if !ok {
			return nil, fmt.Errorf("%w: %T is not uint256", ErrUnexpectedOutput, o)
		}
		ints = append(ints, v)
	}
	return ints, nil
}

func DecodeLinkStats(out []interface{}) (*LinkStats, error) {
	if len(out) != 1 {
		return nil, fmt.Errorf("%w: want 1 value, got %d", ErrUnexpectedOutput, len(out))
	}
	stats := new(LinkStats)
	if err := convert(out[0], stats); err != nil {
		return nil, err
	}
	if stats.RxSeq == nil || stats.TxSeq == nil || stats.Verifier.Height == nil || stats.CurrentHeight == nil {
		return nil, fmt.Errorf("%w: incomplete link stats", ErrUnexpectedOutput)
	}
	return stats, nil
}

func DecodeBalance(out []interface{}) (*Balance, error) {
	v, err := decodeInts(out, 3)
	if err != nil {
		return nil, err
	}
	return &Balance{Usable: v[0], Locked: v[1], Refundable: v[2]}, nil
}
