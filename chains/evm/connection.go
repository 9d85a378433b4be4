// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"btp-bootstrap/config"
	"btp-bootstrap/core"
	"btp-bootstrap/shared/evm"

	"github.com/ChainSafe/log15"
	"github.com/stafiprotocol/chainbridge/utils/crypto/secp256k1"
	"github.com/stafiprotocol/chainbridge/utils/keystore"
)

const DefaultGasLimit = 0 // estimate per transaction

type Connection struct {
	url          string
	name         string
	artifactsDir string
	receiptWait  time.Duration
	poolClient   *evm.PoolClient
	log          log15.Logger
}

func NewConnection(cfg *core.ChainConfig, log log15.Logger) (*Connection, error) {
	if cfg.From == "" {
		return nil, errors.New("config must has from")
	}

	artifactsDir, ok := cfg.Opts[config.ArtifactsDirKey].(string)
	if !ok || len(artifactsDir) == 0 {
		return nil, errors.New("config must has artifactsDir")
	}

	maxGasPrice, ok := optInt64(cfg.Opts, config.MaxGasPriceKey)
	if !ok || maxGasPrice == 0 {
		return nil, errors.New("config must has maxGasPrice")
	}

	gasLimit, ok := optInt64(cfg.Opts, config.GasLimitKey)
	if !ok {
		gasLimit = DefaultGasLimit
	}

	receiptWait, _ := optInt64(cfg.Opts, config.ReceiptWaitKey)

	log.Info("Will open evm wallet", "keystore", cfg.KeystorePath, "from", cfg.From)
	kpI, err := keystore.KeypairFromAddress(cfg.From, keystore.EthChain, cfg.KeystorePath, cfg.Insecure)
	if err != nil {
		return nil, err
	}
	kp, ok := kpI.(*secp256k1.Keypair)
	if !ok {
		return nil, fmt.Errorf("keypair of %s is not secp256k1", cfg.From)
	}
	poolClient, err := evm.NewPoolClient(cfg.Endpoint, kp, maxGasPrice, uint64(gasLimit))
	if err != nil {
		return nil, err
	}

	if chainId, ok := optInt64(cfg.Opts, config.ChainIdKey); ok && poolClient.ChainId.Cmp(big.NewInt(chainId)) != 0 {
		return nil, fmt.Errorf("chain %s: endpoint reports chain id %s, config expects %d", cfg.Name, poolClient.ChainId, chainId)
	}

	return &Connection{
		url:          cfg.Endpoint,
		name:         cfg.Name,
		artifactsDir: artifactsDir,
		receiptWait:  time.Duration(receiptWait) * time.Second,
		poolClient:   poolClient,
		log:          log,
	}, nil
}

func (c *Connection) GetPoolClient() *evm.PoolClient {
	return c.poolClient
}

// txContext bounds a transaction by the configured receipt wait on top of the step deadline.
func (c *Connection) txContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.receiptWait <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.receiptWait)
}

// optInt64 reads a numeric option decoded from toml (int64) or json (float64).
func optInt64(opts map[string]interface{}, key string) (int64, bool) {
	switch v := opts[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
