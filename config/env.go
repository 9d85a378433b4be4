package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"btp-bootstrap/utils"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type KeyType int

const (
	TypeString KeyType = iota
	TypeAddress
	TypeNetwork
	TypeUint8
	TypeDecimal
	TypeAddressList
)

func (t KeyType) String() string {
	switch t {
	case TypeAddress:
		return "address"
	case TypeNetwork:
		return "network"
	case TypeUint8:
		return "uint8"
	case TypeDecimal:
		return "decimal"
	case TypeAddressList:
		return "address list"
	default:
		return "string"
	}
}

// Key declares one named configuration value a step needs.
type Key struct {
	Name     string
	Type     KeyType
	Optional bool
}

// Source looks up a raw configuration value by name.
type Source func(name string) (string, bool)

func ProcessSource() Source {
	return os.LookupEnv
}

func MapSource(m map[string]string) Source {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

// LoadEnvFiles loads dotenv files into the process environment. Variables that are
// already set are left untouched.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		return nil
	}
	return godotenv.Load(files...)
}

// ReadEnvFile reads a dotenv file into an isolated source, leaving the process
// environment alone so several links can be resolved side by side.
func ReadEnvFile(path string) (Source, error) {
	m, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read env file %s err: %w", path, err)
	}
	return MapSource(m), nil
}

type MissingConfigurationError struct {
	Keys []string
}

func (e *MissingConfigurationError) Error() string {
	return "missing configuration: " + strings.Join(e.Keys, ", ")
}

type InvalidConfigurationError struct {
	Problems []string
}

func (e *InvalidConfigurationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Env is the validated configuration bundle handed to every step of a run.
type Env struct {
	values   map[string]string
	uints    map[string]uint64
	decimals map[string]decimal.Decimal
	lists    map[string][]string
}

func newEnv() *Env {
	return &Env{
		values:   make(map[string]string),
		uints:    make(map[string]uint64),
		decimals: make(map[string]decimal.Decimal),
		lists:    make(map[string][]string),
	}
}

// MergeKeys folds duplicate declarations into one key per name, keeping the first
// declared type. A key stays optional only if every declaration says so.
func MergeKeys(keys []Key) []Key {
	index := make(map[string]int)
	merged := make([]Key, 0, len(keys))
	for _, k := range keys {
		if i, ok := index[k.Name]; ok {
			merged[i].Optional = merged[i].Optional && k.Optional
			continue
		}
		index[k.Name] = len(merged)
		merged = append(merged, k)
	}
	return merged
}

// Resolve reads every declared key from src. All absent required keys are reported
// together, then all malformed values; no partial Env is returned.
func Resolve(src Source, keys []Key) (*Env, error) {
	keys = MergeKeys(keys)

	missing := make([]string, 0)
	for _, k := range keys {
		if v, ok := src(k.Name); (!ok || strings.TrimSpace(v) == "") && !k.Optional {
			missing = append(missing, k.Name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingConfigurationError{Keys: missing}
	}

	env := newEnv()
	problems := make([]string, 0)
	for _, k := range keys {
		raw, ok := src(k.Name)
		raw = strings.TrimSpace(raw)
		if !ok || raw == "" {
			continue
		}
		if err := env.set(k, raw); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %s", k.Name, err))
		}
	}
	if len(problems) > 0 {
		return nil, &InvalidConfigurationError{Problems: problems}
	}
	return env, nil
}

func (e *Env) set(k Key, raw string) error {
	switch k.Type {
	case TypeAddress:
		if !utils.IsHexAddress(raw) {
			return fmt.Errorf("not a 20 byte hex address: %q", raw)
		}
		raw = utils.NormalizeAddress(raw)
	case TypeNetwork:
		if !utils.IsNetworkAddress(raw) {
			return fmt.Errorf("not a <chain-id>.<label> network address: %q", raw)
		}
	case TypeUint8:
		n, err := strconv.ParseUint(raw, 10, 8)
		if err != nil {
			return fmt.Errorf("not an integer in 0..255: %q", raw)
		}
		e.uints[k.Name] = n
	case TypeDecimal:
		d, err := decimal.NewFromString(raw)
		if err != nil || d.IsNegative() {
			return fmt.Errorf("not a non-negative decimal: %q", raw)
		}
		e.decimals[k.Name] = d
	case TypeAddressList:
		list := make([]string, 0)
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if !utils.IsHexAddress(part) {
				return fmt.Errorf("not a 20 byte hex address: %q", part)
			}
			list = append(list, utils.NormalizeAddress(part))
		}
		if len(list) == 0 {
			return fmt.Errorf("empty address list")
		}
		e.lists[k.Name] = list
	}
	e.values[k.Name] = raw
	return nil
}

func (e *Env) Has(name string) bool {
	_, ok := e.values[name]
	return ok
}

func (e *Env) Value(name string) string {
	return e.values[name]
}

// ValueOr returns the value of name, or def when it was not configured.
func (e *Env) ValueOr(name, def string) string {
	if v, ok := e.values[name]; ok {
		return v
	}
	return def
}

func (e *Env) Address(name string) string {
	return e.values[name]
}

func (e *Env) Network(name string) string {
	return e.values[name]
}

func (e *Env) Uint(name string) uint64 {
	return e.uints[name]
}

func (e *Env) Decimal(name string) (decimal.Decimal, bool) {
	d, ok := e.decimals[name]
	return d, ok
}

// AddressList returns a copy of the addresses configured under name.
func (e *Env) AddressList(name string) []string {
	return append([]string{}, e.lists[name]...)
}
