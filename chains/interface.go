package chains

// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

import (
	"fmt"

	"btp-bootstrap/chains/evm"
	"btp-bootstrap/chains/mock"
	"btp-bootstrap/core"

	"github.com/ChainSafe/log15"
)

const (
	TypeEvm  = "evm"
	TypeMock = "mock"
)

// Dial builds the contract call boundary for one configured chain.
func Dial(cfg *core.ChainConfig, logger log15.Logger) (core.Client, error) {
	switch cfg.Type {
	case TypeEvm:
		c, err := evm.InitializeChain(cfg, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case TypeMock:
		c, err := mock.InitializeChain(cfg, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unrecognized chain type: %s", cfg.Type)
	}
}
