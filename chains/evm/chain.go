package evm

import (
	"context"
	"fmt"
	"sync"

	"btp-bootstrap/core"
	"btp-bootstrap/shared/evm"
	"btp-bootstrap/utils"

	"github.com/ChainSafe/log15"
	"github.com/ethereum/go-ethereum/common"
)

// Chain is the contract call boundary of an EVM chain. Links sharing a Chain
// share its signing account, so transactions are sent one at a time to keep
// nonces in order.
type Chain struct {
	cfg  *core.ChainConfig
	conn *Connection
	book core.AddressBook
	log  log15.Logger

	txLock sync.Mutex
}

func InitializeChain(cfg *core.ChainConfig, logger log15.Logger) (*Chain, error) {
	if cfg.AddressBook == nil {
		return nil, fmt.Errorf("chain %s has no address book", cfg.Name)
	}
	conn, err := NewConnection(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("evm NewConnection err: %s", err)
	}
	return &Chain{cfg: cfg, conn: conn, book: cfg.AddressBook, log: logger}, nil
}

func (c *Chain) Name() string {
	return c.cfg.Name
}

// Lookup trusts an address book entry only while code is live at the address.
func (c *Chain) Lookup(ctx context.Context, name string) (string, error) {
	address, err := c.book.GetAddress(c.cfg.Name, name)
	if err != nil || address == "" {
		return "", err
	}
	live, err := c.conn.poolClient.HasCode(ctx, common.HexToAddress(address))
	if err != nil {
		return "", err
	}
	if !live {
		c.log.Warn("address book entry has no code, ignoring", "contract", name, "address", address)
		return "", nil
	}
	return address, nil
}

func (c *Chain) Deploy(ctx context.Context, name string, args ...interface{}) (string, error) {
	artifact, err := evm.LoadArtifact(c.conn.artifactsDir, core.ContractOf(name))
	if err != nil {
		return "", err
	}
	packed, err := convertArgs(artifact.ABI.Constructor.Inputs, args)
	if err != nil {
		return "", fmt.Errorf("deploy %s: %w", name, err)
	}

	c.txLock.Lock()
	defer c.txLock.Unlock()
	txCtx, cancel := c.conn.txContext(ctx)
	defer cancel()
	address, err := c.conn.poolClient.Deploy(txCtx, artifact, recordDeployed(c.book, c.cfg.Name, name, c.log), packed...)
	if err != nil {
		return "", toCoreError(err)
	}
	deployed := utils.NormalizeAddress(address.Hex())
	c.log.Info("Deployed contract", "contract", name, "address", deployed)
	return deployed, nil
}

// recordDeployed writes the address of a sent deployment to the address book. A
// deployment mined after its wait timed out is then found live by the next run.
func recordDeployed(book core.AddressBook, chain, name string, log log15.Logger) func(common.Address) error {
	return func(address common.Address) error {
		deployed := utils.NormalizeAddress(address.Hex())
		if err := book.PutAddress(chain, name, deployed); err != nil {
			return fmt.Errorf("record %s at %s: %w", name, deployed, err)
		}
		log.Debug("Recorded sent deployment", "contract", name, "address", deployed)
		return nil
	}
}

func (c *Chain) Call(ctx context.Context, ref core.ContractRef, method string, args ...interface{}) error {
	contractAbi, err := evm.ContractABI(core.ContractOf(ref.Name))
	if err != nil {
		return err
	}
	m, ok := contractAbi.Methods[method]
	if !ok {
		return fmt.Errorf("%s has no method %s", ref.Name, method)
	}
	packed, err := convertArgs(m.Inputs, args)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", ref.Name, method, err)
	}
	c.txLock.Lock()
	defer c.txLock.Unlock()
	txCtx, cancel := c.conn.txContext(ctx)
	defer cancel()
	receipt, err := c.conn.poolClient.Transact(txCtx, common.HexToAddress(ref.Address), contractAbi, method, packed...)
	if err != nil {
		return toCoreError(err)
	}
	c.log.Debug("Call mined", "contract", ref.Name, "method", method, "tx", receipt.TxHash.Hex(), "block", receipt.BlockNumber)
	return nil
}

func (c *Chain) Read(ctx context.Context, ref core.ContractRef, method string, args ...interface{}) ([]interface{}, error) {
	contractAbi, err := evm.ContractABI(core.ContractOf(ref.Name))
	if err != nil {
		return nil, err
	}
	m, ok := contractAbi.Methods[method]
	if !ok {
		return nil, fmt.Errorf("%s has no method %s", ref.Name, method)
	}
	packed, err := convertArgs(m.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", ref.Name, method, err)
	}
	out, err := c.conn.poolClient.Call(ctx, common.HexToAddress(ref.Address), contractAbi, method, packed...)
	if err != nil {
		return nil, toCoreError(err)
	}
	return out, nil
}
