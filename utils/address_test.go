package utils_test

import (
	"testing"

	"btp-bootstrap/utils"

	"github.com/stretchr/testify/assert"
)

func TestIsHexAddress(t *testing.T) {
	assert.True(t, utils.IsHexAddress("0x70E789D2f5D469eA30e0525DbfDD5515d6EAd30D"))
	assert.True(t, utils.IsHexAddress("70E789D2f5D469eA30e0525DbfDD5515d6EAd30D"))
	assert.False(t, utils.IsHexAddress("0x70E789D2f5D469eA30e0525DbfDD5515d6EAd30"))
	assert.False(t, utils.IsHexAddress("hx275c118617610e65ba572ac0a621ddd13255242b"))
	assert.False(t, utils.IsHexAddress(""))
}

func TestSameAddress(t *testing.T) {
	assert.True(t, utils.SameAddress("0x70e789d2f5d469ea30e0525dbfdd5515d6ead30d", "70E789D2f5D469eA30e0525DbfDD5515d6EAd30D"))
	assert.False(t, utils.SameAddress("0x70e789d2f5d469ea30e0525dbfdd5515d6ead30d", "0xAD50f33C3346F8e3403c510ee75FEBA1D904fa3F"))
	assert.False(t, utils.SameAddress("bad", "bad"))
}

func TestSplitNetwork(t *testing.T) {
	id, label, ok := utils.SplitNetwork("0x97.bsc")
	assert.True(t, ok)
	assert.Equal(t, "0x97", id)
	assert.Equal(t, "bsc", label)

	id, label, ok = utils.SplitNetwork("1234.pra")
	assert.True(t, ok)
	assert.Equal(t, "1234", id)
	assert.Equal(t, "pra", label)

	for _, bad := range []string{"", "bsc", ".bsc", "0x97.", "0x97/x.bsc"} {
		_, _, ok = utils.SplitNetwork(bad)
		assert.False(t, ok, bad)
	}
}

func TestBtpAddress(t *testing.T) {
	addr := utils.BtpAddress("0x97.bsc", "0xAD50f33C3346F8e3403c510ee75FEBA1D904fa3F")
	assert.Equal(t, "btp://0x97.bsc/0xAD50f33C3346F8e3403c510ee75FEBA1D904fa3F", addr)

	net, contract, err := utils.ParseBtpAddress(addr)
	assert.NoError(t, err)
	assert.Equal(t, "0x97.bsc", net)
	assert.Equal(t, "0xAD50f33C3346F8e3403c510ee75FEBA1D904fa3F", contract)

	_, _, err = utils.ParseBtpAddress("0x97.bsc/0xAD50")
	assert.Error(t, err)
	_, _, err = utils.ParseBtpAddress("btp://0x97.bsc")
	assert.Error(t, err)
	_, _, err = utils.ParseBtpAddress("btp://bsc/0xAD50")
	assert.Error(t, err)
}
