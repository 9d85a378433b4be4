package evm

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/stafiprotocol/chainbridge/utils/crypto/secp256k1"
)

const (
	ReadRetryLimit    = 3
	ReadRetryInterval = time.Second * 2
)

var ErrTxFailed = errors.New("transaction failed")

// PoolClient signs and submits transactions for one account on one EVM chain.
type PoolClient struct {
	ethClient   *ethclient.Client
	kp          *secp256k1.Keypair
	fromAddress common.Address
	maxGasPrice int64 //gwei
	gasLimit    uint64
	ChainId     *big.Int
}

func NewPoolClient(ethApi string, kp *secp256k1.Keypair, maxGasPrice int64, gasLimit uint64) (*PoolClient, error) {
	ethClient, err := ethclient.Dial(ethApi)
	if err != nil {
		return nil, err
	}

	chainId, err := ethClient.ChainID(context.Background())
	if err != nil {
		return nil, err
	}

	return &PoolClient{
		ethClient:   ethClient,
		kp:          kp,
		maxGasPrice: maxGasPrice,
		gasLimit:    gasLimit,
		ChainId:     chainId,
		fromAddress: kp.CommonAddress(),
	}, nil
}

func (p *PoolClient) GetEthClient() *ethclient.Client {
	return p.ethClient
}

func (p *PoolClient) GetFromAddress() common.Address {
	return p.fromAddress
}

func (p *PoolClient) GetTransactionOpts(ctx context.Context) (*bind.TransactOpts, error) {
	suggestGasPrice, err := p.ethClient.SuggestGasPrice(ctx)
	if err != nil {
		return nil, err
	}
	if suggestGasPrice.Cmp(big.NewInt(p.maxGasPrice*1e9)) > 0 {
		suggestGasPrice = big.NewInt(p.maxGasPrice * 1e9)
	}

	opts := bind.TransactOpts{
		From: p.fromAddress,
		Signer: func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
			return signTx(tx, p.kp.PrivateKey(), p.ChainId)
		},
		GasPrice: suggestGasPrice,
		GasLimit: p.gasLimit,
		Context:  ctx,
	}

	return &opts, nil
}

func (p *PoolClient) GetCallOpts(ctx context.Context) *bind.CallOpts {
	callOpts := bind.CallOpts{
		Pending:     false,
		From:        p.fromAddress,
		BlockNumber: nil,
		Context:     ctx,
	}
	return &callOpts
}

func signTx(rawTx *types.Transaction, privateKey *ecdsa.PrivateKey, chainId *big.Int) (signedTx *types.Transaction, err error) {
	signedTx, err = types.SignTx(rawTx, types.NewEIP155Signer(chainId), privateKey)
	return
}

// HasCode reports whether a contract is live at address.
func (p *PoolClient) HasCode(ctx context.Context, address common.Address) (bool, error) {
	var code []byte
	err := retry.Do(
		func() error {
			var err error
			code, err = p.ethClient.CodeAt(ctx, address, nil)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(ReadRetryLimit),
		retry.Delay(ReadRetryInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return false, err
	}
	return len(code) > 0, nil
}

// Deploy creates a contract and waits until it is mined. sent, when set, is handed
// the contract address as soon as the transaction is accepted, before the receipt
// is awaited; its error aborts the wait.
func (p *PoolClient) Deploy(ctx context.Context, artifact *Artifact, sent func(common.Address) error, args ...interface{}) (common.Address, error) {
	opts, err := p.GetTransactionOpts(ctx)
	if err != nil {
		return common.Address{}, err
	}
	address, tx, _, err := bind.DeployContract(opts, artifact.ABI, artifact.Bytecode, p.ethClient, args...)
	if err != nil {
		return common.Address{}, fmt.Errorf("deploy %s: %w", artifact.Name, err)
	}
	if sent != nil {
		if err := sent(address); err != nil {
			return common.Address{}, fmt.Errorf("deploy %s tx %s sent: %w", artifact.Name, tx.Hash().Hex(), err)
		}
	}
	receipt, err := bind.WaitMined(ctx, p.ethClient, tx)
	if err != nil {
		return common.Address{}, fmt.Errorf("wait deploy %s tx %s: %w", artifact.Name, tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return common.Address{}, fmt.Errorf("%w: deploy %s tx %s", ErrTxFailed, artifact.Name, tx.Hash().Hex())
	}
	return address, nil
}

// Transact sends a contract call and waits for its receipt. A failed receipt is
// replayed as a call at the same block to recover the revert reason.
func (p *PoolClient) Transact(ctx context.Context, address common.Address, contractAbi abi.ABI, method string, args ...interface{}) (*types.Receipt, error) {
	opts, err := p.GetTransactionOpts(ctx)
	if err != nil {
		return nil, err
	}
	contract := bind.NewBoundContract(address, contractAbi, p.ethClient, p.ethClient, p.ethClient)
	tx, err := contract.Transact(opts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("send %s: %w", method, err)
	}
	receipt, err := bind.WaitMined(ctx, p.ethClient, tx)
	if err != nil {
		return nil, fmt.Errorf("wait %s tx %s: %w", method, tx.Hash().Hex(), err)
	}
	if receipt.Status == types.ReceiptStatusSuccessful {
		return receipt, nil
	}

	msg := ethereum.CallMsg{From: p.fromAddress, To: &address, Data: tx.Data(), Gas: tx.Gas()}
	if _, err := p.ethClient.CallContract(ctx, msg, receipt.BlockNumber); err != nil {
		return receipt, fmt.Errorf("%s tx %s: %w", method, tx.Hash().Hex(), err)
	}
	return receipt, fmt.Errorf("%w: %s tx %s", ErrTxFailed, method, tx.Hash().Hex())
}

// Call performs a read-only call, retrying transport failures. Reverts are returned
// at once.
func (p *PoolClient) Call(ctx context.Context, address common.Address, contractAbi abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	contract := bind.NewBoundContract(address, contractAbi, p.ethClient, p.ethClient, p.ethClient)
	var out []interface{}
	err := retry.Do(
		func() error {
			out = make([]interface{}, 0)
			err := contract.Call(p.GetCallOpts(ctx), &out, method, args...)
			if err != nil && IsRevert(err) {
				return retry.Unrecoverable(err)
			}
			return err
		},
		retry.Context(ctx),
		retry.Attempts(ReadRetryLimit),
		retry.Delay(ReadRetryInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	return out, nil
}

const revertPrefix = "execution reverted"

// IsRevert reports whether a node error says the EVM reverted.
func IsRevert(err error) bool {
	return err != nil && strings.Contains(err.Error(), revertPrefix)
}

// RevertReason extracts the reason following "execution reverted: ".
func RevertReason(err error) (string, bool) {
	if !IsRevert(err) {
		return "", false
	}
	msg := err.Error()
	rest := msg[strings.Index(msg, revertPrefix)+len(revertPrefix):]
	return strings.TrimSpace(strings.TrimPrefix(rest, ":")), true
}
