package evm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var ErrNoBytecode = errors.New("artifact has no bytecode")

// Artifact is a compiled contract in truffle/hardhat build output form.
type Artifact struct {
	Name     string
	ABI      abi.ABI
	Bytecode []byte
}

type rawArtifact struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`
}

// LoadArtifact reads <dir>/<name>.json.
func LoadArtifact(dir, name string) (*Artifact, error) {
	path := filepath.Join(dir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}
	return ParseArtifact(name, data)
}

func ParseArtifact(name string, data []byte) (*Artifact, error) {
	raw := rawArtifact{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", name, err)
	}
	a, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return nil, fmt.Errorf("parse artifact %s abi: %w", name, err)
	}
	code := common.FromHex(raw.Bytecode)
	if len(code) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoBytecode, name)
	}
	return &Artifact{Name: name, ABI: a, Bytecode: code}, nil
}
