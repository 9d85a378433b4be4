package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli/v2"
)

type RawChainConfig struct {
	Name         string                 `toml:"name"`
	Type         string                 `toml:"type"`
	Endpoint     string                 `toml:"endpoint"`
	From         string                 `toml:"from"`
	KeystorePath string                 `toml:"keystorePath"`
	Insecure     bool                   `toml:"insecure"`
	Opts         map[string]interface{} `toml:"opts"`
}

// RawServiceConfig registers an extra generic service handler whose address comes
// from AddressKey in the link's environment.
type RawServiceConfig struct {
	Name       string `toml:"name"`
	Side       string `toml:"side"`
	AddressKey string `toml:"addressKey"`
}

type RawLinkConfig struct {
	Name        string             `toml:"name"`
	Src         string             `toml:"src"`
	Dst         string             `toml:"dst"`
	EnvFile     string             `toml:"envFile"`
	Attach      []string           `toml:"attach"`
	Redeploy    bool               `toml:"redeploy"`
	StepTimeout Duration           `toml:"stepTimeout"`
	Services    []RawServiceConfig `toml:"services"`
}

type Config struct {
	AddressBook string           `toml:"addressBook"`
	Chains      []RawChainConfig `toml:"chains"`
	Links       []RawLinkConfig  `toml:"links"`
}

// Duration decodes toml strings such as "90s" or "2m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func GetConfig(ctx *cli.Context) (*Config, error) {
	path := ctx.String(ConfigFileFlag.Name)
	if path == "" {
		path = DefaultConfigPath
	}
	return LoadConfig(path)
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config %s err: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.AddressBook == "" {
		c.AddressBook = DefaultAddressBook
	}
	if len(c.Chains) < 2 {
		return errors.New("config err, a link needs at least two chains")
	}
	seen := make(map[string]bool)
	for _, chain := range c.Chains {
		if chain.Name == "" {
			return errors.New("config err, chain without name")
		}
		if seen[chain.Name] {
			return fmt.Errorf("config err, duplicate chain %s", chain.Name)
		}
		seen[chain.Name] = true
		if chain.Type == "" {
			return fmt.Errorf("config err, chain %s has no type", chain.Name)
		}
	}
	if len(c.Links) == 0 {
		return errors.New("config err, no links")
	}
	links := make(map[string]bool)
	for i := range c.Links {
		link := &c.Links[i]
		if link.Name == "" {
			link.Name = link.Src + "-" + link.Dst
		}
		if links[link.Name] {
			return fmt.Errorf("config err, duplicate link %s", link.Name)
		}
		links[link.Name] = true
		if !seen[link.Src] || !seen[link.Dst] {
			return fmt.Errorf("config err, link %s references unknown chain", link.Name)
		}
		if link.Src == link.Dst {
			return fmt.Errorf("config err, link %s connects %s to itself", link.Name, link.Src)
		}
		for _, a := range link.Attach {
			if a != ContractBMC && a != ContractBMV && a != ContractBSH {
				return fmt.Errorf("config err, link %s attaches unknown contract %s", link.Name, a)
			}
		}
		for _, svc := range link.Services {
			if svc.Name == "" || svc.AddressKey == "" {
				return fmt.Errorf("config err, link %s has a service without name or addressKey", link.Name)
			}
			if svc.Side != SideSrc && svc.Side != SideDst {
				return fmt.Errorf("config err, service %s side must be %s or %s", svc.Name, SideSrc, SideDst)
			}
		}
	}
	return nil
}

func (c *Config) Chain(name string) (*RawChainConfig, bool) {
	for i := range c.Chains {
		if c.Chains[i].Name == name {
			return &c.Chains[i], true
		}
	}
	return nil, false
}

// SelectLinks returns the named links, or all of them when names is empty.
func (c *Config) SelectLinks(names []string) ([]RawLinkConfig, error) {
	if len(names) == 0 {
		return c.Links, nil
	}
	selected := make([]RawLinkConfig, 0, len(names))
	for _, name := range names {
		found := false
		for _, link := range c.Links {
			if link.Name == name {
				selected = append(selected, link)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown link %s", name)
		}
	}
	return selected, nil
}
