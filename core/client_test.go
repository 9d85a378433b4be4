package core_test

import (
	"context"
	"fmt"
	"sync"

	"btp-bootstrap/core"
)

// countingClient records every call that reaches the chain boundary.
type countingClient struct {
	mu        sync.Mutex
	name      string
	deployed  map[string]string
	calls     []string
	lookups   int
	failWith  map[string]error
	readValue []interface{}
}

func newCountingClient(name string) *countingClient {
	return &countingClient{
		name:     name,
		deployed: make(map[string]string),
		failWith: make(map[string]error),
	}
}

func (c *countingClient) record(op string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, op)
}

func (c *countingClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls) + c.lookups
}

func (c *countingClient) Name() string { return c.name }

func (c *countingClient) Lookup(_ context.Context, name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookups++
	if err := c.failWith["lookup:"+name]; err != nil {
		return "", err
	}
	return c.deployed[name], nil
}

func (c *countingClient) Deploy(_ context.Context, name string, _ ...interface{}) (string, error) {
	c.record("deploy:" + name)
	if err := c.failWith["deploy:"+name]; err != nil {
		return "", err
	}
	address := fmt.Sprintf("0x%040d", len(c.deployed)+1)
	c.deployed[name] = address
	return address, nil
}

func (c *countingClient) Call(_ context.Context, ref core.ContractRef, method string, _ ...interface{}) error {
	c.record(ref.Name + "." + method)
	return c.failWith[method]
}

func (c *countingClient) Read(_ context.Context, ref core.ContractRef, method string, _ ...interface{}) ([]interface{}, error) {
	c.record(ref.Name + "." + method)
	if err := c.failWith[method]; err != nil {
		return nil, err
	}
	return c.readValue, nil
}
