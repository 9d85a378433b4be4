package evm

import (
	"errors"
	"testing"

	"btp-bootstrap/store"
	"btp-bootstrap/utils"

	"github.com/ChainSafe/log15"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingBook struct{}

func (failingBook) GetAddress(chain, name string) (string, error) { return "", nil }

func (failingBook) PutAddress(chain, name, address string) error {
	return errors.New("disk full")
}

func TestRecordDeployed(t *testing.T) {
	logger := log15.New()
	logger.SetHandler(log15.DiscardHandler())
	book, err := store.NewMemStore()
	require.NoError(t, err)
	defer book.Close()

	address := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	want := utils.NormalizeAddress(address.Hex())
	require.NoError(t, recordDeployed(book, "bsc", "bmv:0x3.icon", logger)(address))
	got, err := book.GetAddress("bsc", "bmv:0x3.icon")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	err = recordDeployed(failingBook{}, "bsc", "bmc", logger)(address)
	assert.EqualError(t, err, "record bmc at "+want+": disk full")
}
