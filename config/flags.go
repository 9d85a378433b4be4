// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package config

import (
	log "github.com/ChainSafe/log15"
	"github.com/urfave/cli/v2"
)

var (
	ConfigFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "toml configuration file describing chains and links",
		Value: DefaultConfigPath,
	}

	VerbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Supports levels crit (silent) to trce (trace)",
		Value: log.LvlInfo.String(),
	}

	EnvFileFlag = &cli.StringSliceFlag{
		Name:  "env",
		Usage: "dotenv files loaded into the process environment before resolving keys",
	}

	LinkFlag = &cli.StringSliceFlag{
		Name:  "link",
		Usage: "only run the named links from the config file (default: all)",
	}

	RedeployFlag = &cli.BoolFlag{
		Name:  "redeploy",
		Usage: "deploy fresh contracts even when the address book already has live instances",
	}

	StepTimeoutFlag = &cli.DurationFlag{
		Name:  "step-timeout",
		Usage: "timeout applied to every step that does not set its own",
		Value: DefaultStepTimeout,
	}

	KeystorePathFlag = &cli.StringFlag{
		Name:  "keystore",
		Usage: "Path to keystore directory",
		Value: DefaultKeystorePath,
	}

	ChainFlag = &cli.StringFlag{
		Name:  "chain",
		Usage: "write the key into the keystore of this configured evm chain instead of --keystore",
	}
)
