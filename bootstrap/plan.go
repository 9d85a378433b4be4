package bootstrap

import (
	"fmt"
	"time"

	"btp-bootstrap/config"
	"btp-bootstrap/core"
)

// Options shape the plan of one link.
type Options struct {
	Attach      []string // contracts bound from the environment instead of deployed
	Redeploy    bool     // deploy even when the address book has a live instance
	Services    []config.RawServiceConfig
	StepTimeout time.Duration
}

func (o Options) attached(contract string) bool {
	for _, a := range o.Attach {
		if a == contract {
			return true
		}
	}
	return false
}

type side struct {
	alias string
	peer  string
}

var sides = []side{
	{alias: config.SideSrc, peer: config.SideDst},
	{alias: config.SideDst, peer: config.SideSrc},
}

var addressSuffix = map[string]string{
	config.ContractBMC: config.BmcAddressSuffix,
	config.ContractBMV: config.BmvAddressSuffix,
	config.ContractBSH: config.BshAddressSuffix,
}

// bookName is the name a contract of s is recorded under on its chain: verifiers
// once per peer network, the BMC and BSH once per chain.
func bookName(contract string, s side) func(env *config.Env) string {
	return func(env *config.Env) string {
		if contract == config.ContractBMV {
			return core.Instance(contract, env.Network(networkKey(s.peer).Name))
		}
		return contract
	}
}

func artifactName(contract, alias string) string {
	return contract + "@" + alias
}

func networkKey(alias string) config.Key {
	return config.Key{Name: config.EnvKey(alias, config.NetworkSuffix), Type: config.TypeNetwork}
}

// relayerKey holds one or more comma separated relayer addresses.
func relayerKey(alias string) config.Key {
	return config.Key{Name: config.EnvKey(alias, config.RelayerAddressSuffix), Type: config.TypeAddressList}
}

func coinKeys(alias string) []config.Key {
	return []config.Key{
		{Name: config.EnvKey(alias, config.CoinNameSuffix), Type: config.TypeString},
		{Name: config.EnvKey(alias, config.CoinSymbolSuffix), Type: config.TypeString},
		{Name: config.EnvKey(alias, config.CoinDecimalsSuffix), Type: config.TypeUint8},
	}
}

var serviceNameKey = config.Key{Name: config.ServiceNameKey, Type: config.TypeString, Optional: true}

// BuildPlan returns the full bootstrap of a bidirectional link: contracts on both
// sides, their cross registration, then the status checks.
func BuildPlan(opts Options) []*core.Step {
	steps := make([]*core.Step, 0)
	for _, contract := range []string{config.ContractBMC, config.ContractBMV, config.ContractBSH} {
		for _, s := range sides {
			steps = append(steps, deployStep(contract, s, opts))
		}
	}
	steps = append(steps, configureSteps(opts)...)
	steps = append(steps, statusSteps(opts)...)
	for _, step := range steps {
		step.Timeout = opts.StepTimeout
	}
	return steps
}

// StatusPlan checks an existing link. Attached contracts are bound from the
// environment, the rest are resolved on chain.
func StatusPlan(opts Options) []*core.Step {
	steps := make([]*core.Step, 0)
	for _, contract := range opts.Attach {
		for _, s := range sides {
			steps = append(steps, attachStep(contract, s))
		}
	}
	steps = append(steps, statusSteps(opts)...)
	for _, step := range steps {
		step.Timeout = opts.StepTimeout
	}
	return steps
}

func deployStep(contract string, s side, opts Options) *core.Step {
	if opts.attached(contract) {
		return attachStep(contract, s)
	}

	step := &core.Step{
		Name:     fmt.Sprintf("deploy-%s@%s", contract, s.alias),
		Chain:    s.alias,
		Kind:     core.Deploy,
		Produces: artifactName(contract, s.alias),
	}
	var args deployArgs
	switch contract {
	case config.ContractBMC:
		step.Requires = []config.Key{networkKey(s.alias)}
		args = func(sc *core.StepContext) []interface{} {
			return []interface{}{sc.Env.Network(networkKey(s.alias).Name)}
		}
	case config.ContractBMV:
		step.Requires = []config.Key{networkKey(s.peer)}
		step.Needs = []string{artifactName(config.ContractBMC, s.alias)}
		args = func(sc *core.StepContext) []interface{} {
			return []interface{}{
				sc.Artifact(artifactName(config.ContractBMC, s.alias)),
				sc.Env.Network(networkKey(s.peer).Name),
			}
		}
	case config.ContractBSH:
		step.Requires = []config.Key{serviceNameKey, coinKeys(s.alias)[0]}
		step.Needs = []string{artifactName(config.ContractBMC, s.alias)}
		args = func(sc *core.StepContext) []interface{} {
			return []interface{}{
				sc.Artifact(artifactName(config.ContractBMC, s.alias)),
				sc.Env.ValueOr(config.ServiceNameKey, config.DefaultServiceName),
				sc.Env.Value(coinKeys(s.alias)[0].Name),
			}
		}
	}
	step.Action = deployAction(bookName(contract, s), opts.Redeploy, args)
	return step
}

func attachStep(contract string, s side) *core.Step {
	key := config.Key{Name: config.EnvKey(s.alias, addressSuffix[contract]), Type: config.TypeAddress}
	requires := []config.Key{key}
	if contract == config.ContractBMV {
		requires = append(requires, networkKey(s.peer))
	}
	return &core.Step{
		Name:     fmt.Sprintf("attach-%s@%s", contract, s.alias),
		Chain:    s.alias,
		Kind:     core.Deploy,
		Requires: requires,
		Produces: artifactName(contract, s.alias),
		Action:   attachAction(bookName(contract, s), key.Name),
	}
}

func configureSteps(opts Options) []*core.Step {
	steps := make([]*core.Step, 0)

	for _, s := range sides {
		s := s
		steps = append(steps, &core.Step{
			Name:     "add-verifier@" + s.alias,
			Chain:    s.alias,
			Kind:     core.Configure,
			Requires: []config.Key{networkKey(s.peer)},
			Needs:    []string{artifactName(config.ContractBMV, s.alias)},
			Action: configureAction(config.ContractBMC, config.MethodAddVerifier, func(sc *core.StepContext) []interface{} {
				return []interface{}{
					sc.Env.Network(networkKey(s.peer).Name),
					sc.Artifact(artifactName(config.ContractBMV, s.alias)),
				}
			}),
		})
	}

	for _, s := range sides {
		s := s
		steps = append(steps, &core.Step{
			Name:     "add-service@" + s.alias,
			Chain:    s.alias,
			Kind:     core.Configure,
			Requires: []config.Key{serviceNameKey},
			Needs:    []string{artifactName(config.ContractBSH, s.alias)},
			Action: configureAction(config.ContractBMC, config.MethodAddService, func(sc *core.StepContext) []interface{} {
				return []interface{}{
					sc.Env.ValueOr(config.ServiceNameKey, config.DefaultServiceName),
					sc.Artifact(artifactName(config.ContractBSH, s.alias)),
				}
			}),
		})
		for _, svc := range opts.Services {
			if svc.Side != s.alias {
				continue
			}
			svc := svc
			steps = append(steps, &core.Step{
				Name:     fmt.Sprintf("add-service-%s@%s", svc.Name, s.alias),
				Chain:    s.alias,
				Kind:     core.Configure,
				Requires: []config.Key{{Name: svc.AddressKey, Type: config.TypeAddress}},
				Needs:    []string{artifactName(config.ContractBMC, s.alias)},
				Action: configureAction(config.ContractBMC, config.MethodAddService, func(sc *core.StepContext) []interface{} {
					return []interface{}{svc.Name, sc.Env.Address(svc.AddressKey)}
				}),
			})
		}
	}

	for _, s := range sides {
		s := s
		steps = append(steps, &core.Step{
			Name:     "add-link@" + s.alias,
			Chain:    s.alias,
			Kind:     core.Configure,
			Requires: []config.Key{networkKey(s.peer)},
			Needs:    []string{artifactName(config.ContractBMC, s.alias), artifactName(config.ContractBMC, s.peer)},
			Action: configureAction(config.ContractBMC, config.MethodAddLink, func(sc *core.StepContext) []interface{} {
				return []interface{}{peerLink(sc, s)}
			}),
		})
	}

	for _, s := range sides {
		s := s
		steps = append(steps, &core.Step{
			Name:     "add-relay@" + s.alias,
			Chain:    s.alias,
			Kind:     core.Configure,
			Requires: []config.Key{networkKey(s.peer), relayerKey(s.alias)},
			Needs:    []string{artifactName(config.ContractBMC, s.alias), artifactName(config.ContractBMC, s.peer)},
			Action: configureAction(config.ContractBMC, config.MethodAddRelay, func(sc *core.StepContext) []interface{} {
				return []interface{}{peerLink(sc, s), sc.Env.AddressList(relayerKey(s.alias).Name)}
			}),
		})
	}

	for _, s := range sides {
		s := s
		steps = append(steps, &core.Step{
			Name:     "register-coin@" + s.alias,
			Chain:    s.alias,
			Kind:     core.Configure,
			Requires: coinKeys(s.peer),
			Needs:    []string{artifactName(config.ContractBSH, s.alias)},
			Action: configureAction(config.ContractBSH, config.MethodRegister, func(sc *core.StepContext) []interface{} {
				coin := coinOf(sc.Env, s.peer)
				return []interface{}{coin.Name, coin.Symbol, coin.Decimals}
			}),
		})
	}

	return steps
}
