package evm

import (
	"errors"
	"testing"

	"btp-bootstrap/core"
	"btp-bootstrap/shared/evm"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCoreError(t *testing.T) {
	err := toCoreError(errors.New("execution reverted: BMCRevertAlreadyExistsLink"))
	var revert *core.RevertError
	require.ErrorAs(t, err, &revert)
	assert.Equal(t, "BMCRevertAlreadyExistsLink", revert.Reason)
	assert.Equal(t, core.KindAlreadyRegistered, core.Classify(err))

	plain := errors.New("dial tcp: i/o timeout")
	assert.Equal(t, plain, toCoreError(plain))
}

func TestConvertArgs(t *testing.T) {
	bsh, err := evm.ContractABI("bsh")
	require.NoError(t, err)
	out, err := convertArgs(bsh.Methods["register"].Inputs, []interface{}{"ICX", "ICX", uint64(18)})
	require.NoError(t, err)
	assert.Equal(t, uint8(18), out[2])

	_, err = convertArgs(bsh.Methods["register"].Inputs, []interface{}{"ICX", "ICX", uint64(300)})
	assert.Error(t, err)

	out, err = convertArgs(bsh.Methods["getBalanceOf"].Inputs, []interface{}{"0x70e789d2f5d469ea30e0525dbfdd5515d6ead30d", "ICX"})
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x70e789d2f5d469ea30e0525dbfdd5515d6ead30d"), out[0])

	bmc, err := evm.ContractABI("bmc")
	require.NoError(t, err)
	out, err = convertArgs(bmc.Methods["addRelay"].Inputs, []interface{}{"btp://0x97.bsc/0x01", []string{"0xAD50f33C3346F8e3403c510ee75FEBA1D904fa3F"}})
	require.NoError(t, err)
	assert.Len(t, out[1], 1)

	_, err = convertArgs(bmc.Methods["addLink"].Inputs, []interface{}{})
	assert.ErrorIs(t, err, ErrArgCount)

	_, err = convertArgs(bmc.Methods["addVerifier"].Inputs, []interface{}{"0x97.bsc", "not-an-address"})
	assert.Error(t, err)

	out, err = convertArgs(bmc.Methods["getStatus"].Inputs, []interface{}{"btp://0x1.icon/cx01"})
	require.NoError(t, err)
	assert.Equal(t, "btp://0x1.icon/cx01", out[0])
}
