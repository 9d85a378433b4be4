package mock

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"btp-bootstrap/config"
	"btp-bootstrap/core"
	"btp-bootstrap/shared/evm"
	"btp-bootstrap/utils"

	"github.com/ChainSafe/log15"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrBadArgs = errors.New("bad arguments")

// Client is an in-memory chain hosting the bridge contracts. It answers like a
// live node: registrations revert with the contracts' reasons and read results
// pass through the contract abi, so callers decode exactly what an EVM node returns.
type Client struct {
	mu sync.Mutex

	name     string
	deployer common.Address
	nonce    uint64
	latest   map[string]common.Address
	bmcs     map[common.Address]*bmc
	bmvs     map[common.Address]*bmv
	bshs     map[common.Address]*bsh
	faults   map[string]error
	calls    int
	log      log15.Logger
}

func NewClient(name string, log log15.Logger) *Client {
	return &Client{
		name:     name,
		deployer: common.BytesToAddress(crypto.Keccak256([]byte(name))[12:]),
		latest:   make(map[string]common.Address),
		bmcs:     make(map[common.Address]*bmc),
		bmvs:     make(map[common.Address]*bmv),
		bshs:     make(map[common.Address]*bsh),
		faults:   make(map[string]error),
		log:      log,
	}
}

// InitializeChain builds an in-memory chain from a chain config entry of type mock.
func InitializeChain(cfg *core.ChainConfig, logger log15.Logger) (*Client, error) {
	return NewClient(cfg.Name, logger), nil
}

func (c *Client) Name() string {
	return c.name
}

// Fail makes every later operation named op fail with err. op is "deploy:<name>"
// or a method name.
func (c *Client) Fail(op string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.faults[op] = err
}

func (c *Client) Heal(op string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.faults, op)
}

// Calls counts every request that reached the chain.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *Client) Lookup(_ context.Context, name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if err := c.faults["lookup:"+core.ContractOf(name)]; err != nil {
		return "", err
	}
	addr, ok := c.latest[name]
	if !ok {
		return "", nil
	}
	return addr.Hex(), nil
}

func (c *Client) Deploy(ctx context.Context, name string, args ...interface{}) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := c.faults["deploy:"+core.ContractOf(name)]; err != nil {
		return "", err
	}

	addr := crypto.CreateAddress(c.deployer, c.nonce)
	switch core.ContractOf(name) {
	case config.ContractBMC:
		net, err := stringArgs(args, 1)
		if err != nil {
			return "", err
		}
		c.bmcs[addr] = newBmc(net[0])
	case config.ContractBMV:
		if len(args) != 2 {
			return "", fmt.Errorf("%w: bmv(bmc, net)", ErrBadArgs)
		}
		bmcAddr, ok := toAddress(args[0])
		net, isString := args[1].(string)
		if !ok || !isString {
			return "", fmt.Errorf("%w: bmv(bmc, net)", ErrBadArgs)
		}
		c.bmvs[addr] = &bmv{bmc: bmcAddr, network: net}
	case config.ContractBSH:
		if len(args) != 3 {
			return "", fmt.Errorf("%w: bsh(bmc, service, coin)", ErrBadArgs)
		}
		bmcAddr, ok := toAddress(args[0])
		rest, err := stringArgs(args[1:], 2)
		if !ok || err != nil {
			return "", fmt.Errorf("%w: bsh(bmc, service, coin)", ErrBadArgs)
		}
		c.bshs[addr] = newBsh(bmcAddr, rest[0], rest[1])
	default:
		return "", fmt.Errorf("no artifact for contract %s", name)
	}
	c.nonce++
	c.latest[name] = addr
	c.log.Debug("Deployed contract", "chain", c.name, "contract", name, "address", addr.Hex())
	return addr.Hex(), nil
}

func (c *Client) Call(ctx context.Context, ref core.ContractRef, method string, args ...interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.faults[method]; err != nil {
		return err
	}

	addr := common.HexToAddress(ref.Address)
	switch core.ContractOf(ref.Name) {
	case config.ContractBMC:
		b, ok := c.bmcs[addr]
		if !ok {
			return core.Reverted("")
		}
		return c.callBmc(b, method, args)
	case config.ContractBSH:
		b, ok := c.bshs[addr]
		if !ok {
			return core.Reverted("")
		}
		return c.callBsh(b, method, args)
	}
	return fmt.Errorf("%s has no method %s", ref.Name, method)
}

func (c *Client) callBmc(b *bmc, method string, args []interface{}) error {
	switch method {
	case config.MethodAddVerifier, config.MethodAddService:
		if len(args) != 2 {
			return fmt.Errorf("%w: %s(string, address)", ErrBadArgs, method)
		}
		key, isString := args[0].(string)
		addr, ok := toAddress(args[1])
		if !isString || !ok {
			return fmt.Errorf("%w: %s(string, address)", ErrBadArgs, method)
		}
		if method == config.MethodAddVerifier {
			if b.verifiers.find(key) >= 0 {
				return core.Reverted(RevertAlreadyExistsBMV)
			}
			b.verifiers = append(b.verifiers, entry{key: key, address: addr})
			return nil
		}
		if b.services.find(key) >= 0 {
			return core.Reverted(RevertAlreadyExistsBSH)
		}
		b.services = append(b.services, entry{key: key, address: addr})
		return nil
	case config.MethodAddLink:
		link, err := stringArgs(args, 1)
		if err != nil {
			return err
		}
		if _, _, err := utils.ParseBtpAddress(link[0]); err != nil {
			return core.Reverted(RevertInvalidAddress)
		}
		if b.hasLink(link[0]) {
			return core.Reverted(RevertAlreadyExistsLink)
		}
		b.links = append(b.links, link[0])
		return nil
	case config.MethodAddRelay:
		if len(args) != 2 {
			return fmt.Errorf("%w: addRelay(string, address[])", ErrBadArgs)
		}
		link, isString := args[0].(string)
		relays, ok := toAddresses(args[1])
		if !isString || !ok {
			return fmt.Errorf("%w: addRelay(string, address[])", ErrBadArgs)
		}
		if !b.hasLink(link) {
			return core.Reverted(RevertNotExistsLink)
		}
		if len(b.relays[link]) > 0 {
			return core.Reverted(RevertAlreadyExistsBMR)
		}
		b.relays[link] = relays
		return nil
	}
	return fmt.Errorf("bmc has no method %s", method)
}

func (c *Client) callBsh(b *bsh, method string, args []interface{}) error {
	if method != config.MethodRegister {
		return fmt.Errorf("bsh has no method %s", method)
	}
	if len(args) != 3 {
		return fmt.Errorf("%w: register(string, string, uint8)", ErrBadArgs)
	}
	name, isString := args[0].(string)
	if !isString || !fitsUint8(args[2]) {
		return fmt.Errorf("%w: register(string, string, uint8)", ErrBadArgs)
	}
	if b.hasCoin(name) {
		return core.Reverted(RevertExistToken)
	}
	b.coins = append(b.coins, name)
	return nil
}

func (c *Client) Read(ctx context.Context, ref core.ContractRef, method string, args ...interface{}) ([]interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.faults[method]; err != nil {
		return nil, err
	}

	addr := common.HexToAddress(ref.Address)
	switch core.ContractOf(ref.Name) {
	case config.ContractBMC:
		b, ok := c.bmcs[addr]
		if !ok {
			return nil, core.Reverted("")
		}
		return c.readBmc(addr, b, method, args)
	case config.ContractBSH:
		b, ok := c.bshs[addr]
		if !ok {
			return nil, core.Reverted("")
		}
		return c.readBsh(b, method, args)
	}
	return nil, fmt.Errorf("%s has no method %s", ref.Name, method)
}

func (c *Client) readBmc(addr common.Address, b *bmc, method string, args []interface{}) ([]interface{}, error) {
	switch method {
	case config.MethodGetVerifiers:
		return encode(config.ContractBMC, method, b.verifiers.verifiers())
	case config.MethodGetServices:
		return encode(config.ContractBMC, method, b.services.services())
	case config.MethodGetLinks:
		return encode(config.ContractBMC, method, append([]string{}, b.links...))
	case config.MethodGetRelays:
		link, err := stringArgs(args, 1)
		if err != nil {
			return nil, err
		}
		return encode(config.ContractBMC, method, append([]common.Address{}, b.relays[link[0]]...))
	case config.MethodGetStatus:
		link, err := stringArgs(args, 1)
		if err != nil {
			return nil, err
		}
		if !b.hasLink(link[0]) {
			return nil, core.Reverted(RevertNotExistsLink)
		}
		return encode(config.ContractBMC, method, linkStatsTuple{
			RxSeq:         big.NewInt(0),
			TxSeq:         big.NewInt(0),
			Verifier:      verifierStatsTuple{Height: big.NewInt(0), Extra: []byte{}},
			CurrentHeight: big.NewInt(int64(c.nonce)),
		})
	case config.MethodGetBmcBtpAddress:
		return encode(config.ContractBMC, method, utils.BtpAddress(b.network, addr.Hex()))
	}
	return nil, fmt.Errorf("bmc has no method %s", method)
}

func (c *Client) readBsh(b *bsh, method string, args []interface{}) ([]interface{}, error) {
	switch method {
	case config.MethodCoinNames:
		return encode(config.ContractBSH, method, append([]string{}, b.coins...))
	case config.MethodGetBalanceOf:
		if len(args) != 2 {
			return nil, fmt.Errorf("%w: getBalanceOf(address, string)", ErrBadArgs)
		}
		owner, ok := toAddress(args[0])
		coin, isString := args[1].(string)
		if !ok || !isString {
			return nil, fmt.Errorf("%w: getBalanceOf(address, string)", ErrBadArgs)
		}
		bal, found := b.balances[owner.Hex()+"/"+coin]
		if !found {
			return encode(config.ContractBSH, method, big.NewInt(0), big.NewInt(0), big.NewInt(0))
		}
		return encode(config.ContractBSH, method, bal.usable, bal.locked, bal.refundable)
	}
	return nil, fmt.Errorf("bsh has no method %s", method)
}

// SetBalance credits owner with usable units of coin on the BSH at bshAddr.
func (c *Client) SetBalance(bshAddr, owner, coin string, usable *big.Int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.bshs[common.HexToAddress(bshAddr)]
	if !ok {
		return fmt.Errorf("no bsh at %s", bshAddr)
	}
	b.balances[common.HexToAddress(owner).Hex()+"/"+coin] = balance{usable: usable, locked: big.NewInt(0), refundable: big.NewInt(0)}
	return nil
}

// OverrideVerifier rewrites a verifier registration behind the tool's back.
func (c *Client) OverrideVerifier(bmcAddr, network, verifier string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.bmcs[common.HexToAddress(bmcAddr)]
	if !ok {
		return fmt.Errorf("no bmc at %s", bmcAddr)
	}
	if i := b.verifiers.find(network); i >= 0 {
		b.verifiers[i].address = common.HexToAddress(verifier)
		return nil
	}
	b.verifiers = append(b.verifiers, entry{key: network, address: common.HexToAddress(verifier)})
	return nil
}

// encode packs values as the outputs of method and unpacks them again.
func encode(contract, method string, values ...interface{}) ([]interface{}, error) {
	contractAbi, err := evm.ContractABI(contract)
	if err != nil {
		return nil, err
	}
	m, ok := contractAbi.Methods[method]
	if !ok {
		return nil, fmt.Errorf("%s has no method %s", contract, method)
	}
	packed, err := m.Outputs.Pack(values...)
	if err != nil {
		return nil, fmt.Errorf("encode %s.%s: %w", contract, method, err)
	}
	return contractAbi.Unpack(method, packed)
}

func stringArgs(args []interface{}, n int) ([]string, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%w: want %d string arguments, got %d", ErrBadArgs, n, len(args))
	}
	out := make([]string, 0, n)
	for _, a := range args {
		s, ok := a.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %v is not a string", ErrBadArgs, a)
		}
		out = append(out, s)
	}
	return out, nil
}

func fitsUint8(arg interface{}) bool {
	switch v := arg.(type) {
	case uint8:
		return true
	case uint64:
		return v <= 255
	case int:
		return v >= 0 && v <= 255
	}
	return false
}

func toAddress(arg interface{}) (common.Address, bool) {
	switch v := arg.(type) {
	case common.Address:
		return v, true
	case string:
		if !common.IsHexAddress(v) {
			return common.Address{}, false
		}
		return common.HexToAddress(v), true
	}
	return common.Address{}, false
}

func toAddresses(arg interface{}) ([]common.Address, bool) {
	switch v := arg.(type) {
	case []common.Address:
		return v, true
	case []string:
		out := make([]common.Address, 0, len(v))
		for _, s := range v {
			addr, ok := toAddress(s)
			if !ok {
				return nil, false
			}
			out = append(out, addr)
		}
		return out, true
	}
	return nil, false
}
