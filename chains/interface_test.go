package chains_test

import (
	"testing"

	"btp-bootstrap/chains"
	"btp-bootstrap/core"

	"github.com/ChainSafe/log15"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDial(t *testing.T) {
	c, err := chains.Dial(&core.ChainConfig{Name: "bsc", Type: chains.TypeMock}, log15.New())
	require.NoError(t, err)
	assert.Equal(t, "bsc", c.Name())

	_, err = chains.Dial(&core.ChainConfig{Name: "sol", Type: "solana"}, log15.New())
	assert.EqualError(t, err, "unrecognized chain type: solana")
}

func TestDialEvmNeedsOptions(t *testing.T) {
	_, err := chains.Dial(&core.ChainConfig{Name: "bsc", Type: chains.TypeEvm}, log15.New())
	assert.Error(t, err)
}
