package mock

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// revert reasons of the bridge contracts
const (
	RevertAlreadyExistsBMV  = "BMCRevertAlreadyExistsBMV"
	RevertAlreadyExistsBSH  = "BMCRevertAlreadyExistsBSH"
	RevertAlreadyExistsLink = "BMCRevertAlreadyExistsLink"
	RevertAlreadyExistsBMR  = "BMCRevertAlreadyExistsBMR"
	RevertNotExistsLink     = "BMCRevertNotExistsLink"
	RevertInvalidAddress    = "BMCRevertInvalidAddress"
	RevertExistToken        = "ExistToken"
)

type entry struct {
	key     string
	address common.Address
}

// entries keeps registration order, as the contracts return it.
type entries []entry

func (e entries) find(key string) int {
	for i, v := range e {
		if v.key == key {
			return i
		}
	}
	return -1
}

func (e entries) verifiers() []verifierTuple {
	out := make([]verifierTuple, 0, len(e))
	for _, v := range e {
		out = append(out, verifierTuple{Net: v.key, Addr: v.address})
	}
	return out
}

func (e entries) services() []serviceTuple {
	out := make([]serviceTuple, 0, len(e))
	for _, v := range e {
		out = append(out, serviceTuple{Svc: v.key, Addr: v.address})
	}
	return out
}

// tuples as the BMC encodes them
type verifierTuple struct {
	Net  string
	Addr common.Address
}

type serviceTuple struct {
	Svc  string
	Addr common.Address
}

type verifierStatsTuple struct {
	Height *big.Int
	Extra  []byte
}

type linkStatsTuple struct {
	RxSeq         *big.Int
	TxSeq         *big.Int
	Verifier      verifierStatsTuple
	CurrentHeight *big.Int
}

type bmc struct {
	network   string
	verifiers entries
	services  entries
	links     []string
	relays    map[string][]common.Address
}

type bmv struct {
	bmc     common.Address
	network string
}

type balance struct {
	usable, locked, refundable *big.Int
}

type bsh struct {
	bmc         common.Address
	serviceName string
	coins       []string
	balances    map[string]balance // owner/coin
}

func newBmc(network string) *bmc {
	return &bmc{network: network, relays: make(map[string][]common.Address)}
}

func (b *bmc) hasLink(link string) bool {
	for _, l := range b.links {
		if l == link {
			return true
		}
	}
	return false
}

func newBsh(bmcAddr common.Address, serviceName, nativeCoin string) *bsh {
	return &bsh{
		bmc:         bmcAddr,
		serviceName: serviceName,
		coins:       []string{nativeCoin},
		balances:    make(map[string]balance),
	}
}

func (b *bsh) hasCoin(name string) bool {
	for _, c := range b.coins {
		if c == name {
			return true
		}
	}
	return false
}
