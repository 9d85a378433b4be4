// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package core

import (
	"context"
	"strings"
)

// Client is the contract call boundary of a single chain. Every method blocks until
// the chain has answered; transactions are awaited until included.
type Client interface {
	Name() string
	// Lookup returns the address recorded for a previously deployed contract, or ""
	// when the chain has no live instance of it. name may be an Instance.
	Lookup(ctx context.Context, name string) (string, error)
	// Deploy creates the contract named by ContractOf(name) and records it as name.
	Deploy(ctx context.Context, name string, args ...interface{}) (string, error)
	Call(ctx context.Context, ref ContractRef, method string, args ...interface{}) error
	Read(ctx context.Context, ref ContractRef, method string, args ...interface{}) ([]interface{}, error)
}

const instanceSeparator = ":"

// Instance names one deployment of contract on a chain that keeps several of
// them, e.g. one verifier per peer network.
func Instance(contract, qualifier string) string {
	if qualifier == "" {
		return contract
	}
	return contract + instanceSeparator + qualifier
}

// ContractOf strips the instance qualifier from name.
func ContractOf(name string) string {
	if i := strings.Index(name, instanceSeparator); i >= 0 {
		return name[:i]
	}
	return name
}

type ChainConfig struct {
	Name         string                 // Human-readable chain name
	Type         string                 // client implementation, e.g. evm or mock
	Endpoint     string                 // url for rpc endpoint
	From         string                 // address of the signing key
	KeystorePath string                 // Location of key files
	Insecure     bool                   // Indicates whether the test keyring should be used
	AddressBook  AddressBook            // shared record of deployed contracts
	Opts         map[string]interface{} // Per chain options
}

// AddressBook persists deployed contract addresses across runs.
type AddressBook interface {
	GetAddress(chain, name string) (string, error)
	PutAddress(chain, name, address string) error
}
