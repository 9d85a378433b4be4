package evm

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Contract interfaces the bootstrap tool calls. Deploy uses the constructor of the
// loaded build artifact; every call and read goes through these definitions.
var contractABIs = map[string]abi.ABI{}

func init() {
	for name, raw := range map[string]string{
		"bmc": rawBmcABI,
		"bmv": rawBmvABI,
		"bsh": rawBshABI,
	} {
		a, err := abi.JSON(strings.NewReader(raw))
		if err != nil {
			panic(fmt.Sprintf("parse %s abi: %s", name, err))
		}
		contractABIs[name] = a
	}
}

// ContractABI returns the call interface of a bridge contract.
func ContractABI(name string) (abi.ABI, error) {
	a, ok := contractABIs[name]
	if !ok {
		return abi.ABI{}, fmt.Errorf("no abi for contract %s", name)
	}
	return a, nil
}

const rawBmcABI = `[
  {"type":"constructor","inputs":[{"name":"_net","type":"string"}]},
  {"type":"function","name":"addVerifier","stateMutability":"nonpayable",
   "inputs":[{"name":"_net","type":"string"},{"name":"_addr","type":"address"}],"outputs":[]},
  {"type":"function","name":"addService","stateMutability":"nonpayable",
   "inputs":[{"name":"_svc","type":"string"},{"name":"_addr","type":"address"}],"outputs":[]},
  {"type":"function","name":"addLink","stateMutability":"nonpayable",
   "inputs":[{"name":"_link","type":"string"}],"outputs":[]},
  {"type":"function","name":"addRelay","stateMutability":"nonpayable",
   "inputs":[{"name":"_link","type":"string"},{"name":"_addrs","type":"address[]"}],"outputs":[]},
  {"type":"function","name":"getVerifiers","stateMutability":"view","inputs":[],
   "outputs":[{"name":"","type":"tuple[]","components":[
     {"name":"net","type":"string"},{"name":"addr","type":"address"}]}]},
  {"type":"function","name":"getServices","stateMutability":"view","inputs":[],
   "outputs":[{"name":"","type":"tuple[]","components":[
     {"name":"svc","type":"string"},{"name":"addr","type":"address"}]}]},
  {"type":"function","name":"getLinks","stateMutability":"view","inputs":[],
   "outputs":[{"name":"","type":"string[]"}]},
  {"type":"function","name":"getRelays","stateMutability":"view",
   "inputs":[{"name":"_link","type":"string"}],
   "outputs":[{"name":"","type":"address[]"}]},
  {"type":"function","name":"getStatus","stateMutability":"view",
   "inputs":[{"name":"_link","type":"string"}],
   "outputs":[{"name":"_linkStats","type":"tuple","components":[
     {"name":"rxSeq","type":"uint256"},{"name":"txSeq","type":"uint256"},
     {"name":"verifier","type":"tuple","components":[{"name":"height","type":"uint256"},{"name":"extra","type":"bytes"}]},
     {"name":"currentHeight","type":"uint256"}]}]},
  {"type":"function","name":"getBmcBtpAddress","stateMutability":"view","inputs":[],
   "outputs":[{"name":"","type":"string"}]}
]`

const rawBmvABI = `[
  {"type":"constructor","inputs":[{"name":"_bmc","type":"address"},{"name":"_net","type":"string"}]}
]`

const rawBshABI = `[
  {"type":"constructor","inputs":[{"name":"_bmc","type":"address"},{"name":"_serviceName","type":"string"},
   {"name":"_nativeCoin","type":"string"}]},
  {"type":"function","name":"register","stateMutability":"nonpayable",
   "inputs":[{"name":"_name","type":"string"},{"name":"_symbol","type":"string"},{"name":"_decimals","type":"uint8"}],
   "outputs":[]},
  {"type":"function","name":"coinNames","stateMutability":"view","inputs":[],
   "outputs":[{"name":"","type":"string[]"}]},
  {"type":"function","name":"getBalanceOf","stateMutability":"view",
   "inputs":[{"name":"_owner","type":"address"},{"name":"_coinName","type":"string"}],
   "outputs":[{"name":"_usableBalance","type":"uint256"},{"name":"_lockedBalance","type":"uint256"},
              {"name":"_refundableBalance","type":"uint256"}]}
]`
