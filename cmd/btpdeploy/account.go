// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"btp-bootstrap/chains"
	"btp-bootstrap/config"
	"btp-bootstrap/utils"

	log "github.com/ChainSafe/log15"
	"github.com/stafiprotocol/chainbridge/utils/crypto/secp256k1"
	"github.com/stafiprotocol/chainbridge/utils/keystore"
	"github.com/urfave/cli/v2"
)

func handleGenerateEthCmd(ctx *cli.Context) error {
	dir := ctx.String(config.KeystorePathFlag.Name)
	var chain *config.RawChainConfig
	if name := ctx.String(config.ChainFlag.Name); name != "" {
		cfg, err := config.GetConfig(ctx)
		if err != nil {
			return err
		}
		if chain, err = signingChain(cfg, name); err != nil {
			return err
		}
		dir = chain.KeystorePath
	}

	kp, err := signingKeypair(keystore.GetPassword("Enter private key (hex), leave empty to generate:"))
	if err != nil {
		return err
	}
	password := keystore.GetPassword("password for key:")
	fp, err := writeKeyFile(dir, kp, password)
	if err != nil {
		return err
	}
	log.Info("signing key written", "address", kp.Address(), "file", fp)

	if chain != nil && !utils.SameAddress(chain.From, kp.Address()) {
		log.Warn("chain does not sign with this key, set its from to use it", "chain", chain.Name, "from", chain.From, "key", kp.Address())
	}
	return nil
}

// signingChain returns the configured evm chain name, the only kind that loads
// keys from a keystore.
func signingChain(cfg *config.Config, name string) (*config.RawChainConfig, error) {
	chain, ok := cfg.Chain(name)
	if !ok {
		return nil, fmt.Errorf("unknown chain %s", name)
	}
	if chain.Type != chains.TypeEvm {
		return nil, fmt.Errorf("chain %s is of type %s and signs with no keystore", name, chain.Type)
	}
	if chain.KeystorePath == "" {
		return nil, fmt.Errorf("chain %s has no keystorePath", name)
	}
	return chain, nil
}

// signingKeypair imports a hex private key, or generates one when none is given.
func signingKeypair(hexKey []byte) (*secp256k1.Keypair, error) {
	if len(hexKey) == 0 {
		return secp256k1.GenerateKeypair()
	}
	return secp256k1.NewKeypairFromString(string(hexKey))
}

// writeKeyFile encrypts kp into <dir>/<address>.key. An existing key file is never
// overwritten.
func writeKeyFile(dir string, kp *secp256k1.Keypair, password []byte) (fp string, err error) {
	fp, err = keyFilePath(dir, kp.Address())
	if err != nil {
		return "", err
	}
	file, err := os.OpenFile(fp, os.O_EXCL|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close key file: %w", cerr)
		}
	}()

	if err := keystore.EncryptAndWriteToFile(file, kp, password); err != nil {
		return "", fmt.Errorf("could not write key to file: %w", err)
	}
	return fp, nil
}

func keyFilePath(keypath, address string) (string, error) {
	fp, err := filepath.Abs(filepath.Join(keypath, address+".key"))
	if err != nil {
		return "", fmt.Errorf("invalid filepath: %s", err)
	}
	return filepath.Clean(fp), nil
}
