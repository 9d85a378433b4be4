package mock_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"btp-bootstrap/chains/mock"
	"btp-bootstrap/core"
	"btp-bootstrap/models/btp"

	"github.com/ChainSafe/log15"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const relayer = "0xAD50f33C3346F8e3403c510ee75FEBA1D904fa3F"

func newClient(t *testing.T) (*mock.Client, core.ContractRef) {
	logger := log15.New()
	logger.SetHandler(log15.DiscardHandler())
	c := mock.NewClient("bsc", logger)
	addr, err := c.Deploy(context.Background(), "bmc", "0x97.bsc")
	require.NoError(t, err)
	return c, core.ContractRef{Chain: "SRC", Name: "bmc", Address: addr}
}

func TestDeployAndLookup(t *testing.T) {
	c, bmc := newClient(t)
	got, err := c.Lookup(context.Background(), "bmc")
	require.NoError(t, err)
	assert.Equal(t, bmc.Address, got)

	got, err = c.Lookup(context.Background(), "bsh")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = c.Deploy(context.Background(), "bmv", "not-an-address", "0x1.icon")
	assert.ErrorIs(t, err, mock.ErrBadArgs)
}

func TestVerifierRegistration(t *testing.T) {
	c, bmc := newClient(t)
	ctx := context.Background()
	bmv, err := c.Deploy(ctx, "bmv", bmc.Address, "0x1.icon")
	require.NoError(t, err)

	require.NoError(t, c.Call(ctx, bmc, "addVerifier", "0x1.icon", bmv))
	err = c.Call(ctx, bmc, "addVerifier", "0x1.icon", bmv)
	assert.True(t, core.IsAlreadyRegistered(err))

	out, err := c.Read(ctx, bmc, "getVerifiers")
	require.NoError(t, err)
	verifiers, err := btp.DecodeRegistrations(out)
	require.NoError(t, err)
	assert.Equal(t, []btp.Registration{{Key: "0x1.icon", Address: common.HexToAddress(bmv)}}, verifiers)
}

func TestLinkAndRelays(t *testing.T) {
	c, bmc := newClient(t)
	ctx := context.Background()
	link := "btp://0x1.icon/cx0000000000000000000000000000000000000001"

	err := c.Call(ctx, bmc, "addRelay", link, []string{relayer})
	var revert *core.RevertError
	require.ErrorAs(t, err, &revert)
	assert.Equal(t, mock.RevertNotExistsLink, revert.Reason)

	_, err = c.Read(ctx, bmc, "getStatus", link)
	assert.Error(t, err)

	require.NoError(t, c.Call(ctx, bmc, "addLink", link))
	assert.True(t, core.IsAlreadyRegistered(c.Call(ctx, bmc, "addLink", link)))
	require.NoError(t, c.Call(ctx, bmc, "addRelay", link, []string{relayer}))
	assert.True(t, core.IsAlreadyRegistered(c.Call(ctx, bmc, "addRelay", link, []string{relayer})))

	out, err := c.Read(ctx, bmc, "getRelays", link)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{common.HexToAddress(relayer)}, out[0])

	out, err = c.Read(ctx, bmc, "getStatus", link)
	require.NoError(t, err)
	stats, err := btp.DecodeLinkStats(out)
	require.NoError(t, err)
	assert.Zero(t, stats.RxSeq.Sign())
	assert.Equal(t, int64(1), stats.CurrentHeight.Int64())

	out, err = c.Read(ctx, bmc, "getBmcBtpAddress")
	require.NoError(t, err)
	assert.Equal(t, "btp://0x97.bsc/"+bmc.Address, out[0])
}

func TestCoinRegistrationAndBalance(t *testing.T) {
	c, bmc := newClient(t)
	ctx := context.Background()
	bshAddr, err := c.Deploy(ctx, "bsh", bmc.Address, "nativecoin", "BNB")
	require.NoError(t, err)
	bsh := core.ContractRef{Chain: "SRC", Name: "bsh", Address: bshAddr}

	require.NoError(t, c.Call(ctx, bsh, "register", "ICX", "ICX", uint64(18)))
	err = c.Call(ctx, bsh, "register", "ICX", "ICX", uint64(18))
	assert.Equal(t, core.KindAlreadyRegistered, core.Classify(err))

	out, err := c.Read(ctx, bsh, "coinNames")
	require.NoError(t, err)
	assert.Equal(t, []string{"BNB", "ICX"}, out[0])

	require.NoError(t, c.SetBalance(bshAddr, relayer, "ICX", big.NewInt(5)))
	out, err = c.Read(ctx, bsh, "getBalanceOf", relayer, "ICX")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5), out[0])
}

func TestFaultInjection(t *testing.T) {
	c, bmc := newClient(t)
	boom := errors.New("node unavailable")
	c.Fail("getLinks", boom)
	_, err := c.Read(context.Background(), bmc, "getLinks")
	assert.ErrorIs(t, err, boom)

	c.Heal("getLinks")
	_, err = c.Read(context.Background(), bmc, "getLinks")
	assert.NoError(t, err)
	assert.Equal(t, 3, c.Calls())
}
