// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package core

import (
	"context"
	"fmt"

	log "github.com/ChainSafe/log15"
)

// ContractRef is a logical contract on one chain. An empty Address means the chain
// has no deployed instance.
type ContractRef struct {
	Chain   string
	Name    string
	Address string
}

func (r ContractRef) Resolved() bool {
	return r.Address != ""
}

func (r ContractRef) String() string {
	if !r.Resolved() {
		return fmt.Sprintf("%s@%s(not deployed)", r.Name, r.Chain)
	}
	return fmt.Sprintf("%s@%s(%s)", r.Name, r.Chain, r.Address)
}

type refKey struct {
	chain string
	name  string
}

// Registry resolves logical contract names to deployed handles for one run. Every
// (chain, name) is looked up on the chain at most once; the answer, including "not
// deployed", is cached for the rest of the run. It is owned by a single run and is
// not safe for concurrent use.
type Registry struct {
	clients map[string]Client
	refs    map[refKey]ContractRef
	log     log.Logger
}

func NewRegistry(clients map[string]Client, log log.Logger) *Registry {
	return &Registry{
		clients: clients,
		refs:    make(map[refKey]ContractRef),
		log:     log,
	}
}

func (r *Registry) Client(chain string) (Client, error) {
	c := r.clients[chain]
	if c == nil {
		return nil, fmt.Errorf("unknown chain: %s", chain)
	}
	return c, nil
}

// Lookup returns the cached ref for (chain, name), asking the chain on first use.
// An unresolved ref is not an error here.
func (r *Registry) Lookup(ctx context.Context, chain, name string) (ContractRef, error) {
	key := refKey{chain: chain, name: name}
	if ref, ok := r.refs[key]; ok {
		return ref, nil
	}

	c, err := r.Client(chain)
	if err != nil {
		return ContractRef{}, err
	}
	address, err := c.Lookup(ctx, name)
	if err != nil {
		return ContractRef{}, fmt.Errorf("lookup %s on %s: %w", name, chain, err)
	}

	ref := ContractRef{Chain: chain, Name: name, Address: address}
	r.refs[key] = ref
	r.log.Debug("Resolved contract", "chain", chain, "name", name, "address", address)
	return ref, nil
}

// Resolve is Lookup that fails with ErrContractNotDeployed for unresolved refs.
func (r *Registry) Resolve(ctx context.Context, chain, name string) (ContractRef, error) {
	ref, err := r.Lookup(ctx, chain, name)
	if err != nil {
		return ContractRef{}, err
	}
	if !ref.Resolved() {
		return ContractRef{}, NotDeployed(chain, name)
	}
	return ref, nil
}

// Bind records the address of a contract deployed or attached during this run.
// Rebinding a resolved ref requires force.
func (r *Registry) Bind(chain, name, address string, force bool) (ContractRef, error) {
	key := refKey{chain: chain, name: name}
	if ref, ok := r.refs[key]; ok && ref.Resolved() && !force {
		return ContractRef{}, fmt.Errorf("%w: %s", ErrAlreadyResolved, ref)
	}

	ref := ContractRef{Chain: chain, Name: name, Address: address}
	r.refs[key] = ref
	r.log.Debug("Bound contract", "chain", chain, "name", name, "address", address)
	return ref, nil
}
