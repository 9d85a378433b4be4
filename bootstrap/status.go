package bootstrap

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"btp-bootstrap/config"
	"btp-bootstrap/core"
	"btp-bootstrap/models/btp"
	"btp-bootstrap/utils"

	"github.com/ethereum/go-ethereum/common"
)

func balanceAccountKey(alias string) config.Key {
	return config.Key{Name: config.EnvKey(alias, config.BalanceAccountSuffix), Type: config.TypeAddress, Optional: true}
}

func minBalanceKey(alias string) config.Key {
	return config.Key{Name: config.EnvKey(alias, config.MinBalanceSuffix), Type: config.TypeDecimal, Optional: true}
}

// statusSteps compare chain state of both sides against the configuration. Only
// the balance check is diagnostic; every other divergence fails the run.
func statusSteps(opts Options) []*core.Step {
	checks := []struct {
		name     string
		gating   bool
		requires func(s side) []config.Key
		check    func(ctx context.Context, sc *core.StepContext, s side) (string, error)
	}{
		{"check-bmc", true, func(s side) []config.Key {
			return []config.Key{networkKey(s.alias)}
		}, checkBmc},
		{"check-link", true, func(s side) []config.Key {
			return []config.Key{networkKey(s.peer)}
		}, checkLink},
		{"check-services", true, func(s side) []config.Key {
			keys := []config.Key{serviceNameKey}
			for _, svc := range opts.Services {
				if svc.Side == s.alias {
					keys = append(keys, config.Key{Name: svc.AddressKey, Type: config.TypeAddress})
				}
			}
			return keys
		}, func(ctx context.Context, sc *core.StepContext, s side) (string, error) {
			return checkServices(ctx, sc, s, opts.Services)
		}},
		{"check-relays", true, func(s side) []config.Key {
			return []config.Key{networkKey(s.peer), relayerKey(s.alias)}
		}, checkRelays},
		{"check-coins", true, func(s side) []config.Key {
			return []config.Key{coinKeys(s.alias)[0], coinKeys(s.peer)[0]}
		}, checkCoins},
		{"check-balance", false, func(s side) []config.Key {
			return append(coinKeys(s.peer), relayerKey(s.alias), balanceAccountKey(s.alias), minBalanceKey(s.alias))
		}, checkBalance},
	}

	steps := make([]*core.Step, 0, len(checks)*len(sides))
	for _, c := range checks {
		for _, s := range sides {
			c, s := c, s
			steps = append(steps, &core.Step{
				Name:     c.name + "@" + s.alias,
				Chain:    s.alias,
				Kind:     core.Query,
				Gating:   c.gating,
				Requires: c.requires(s),
				Action: func(ctx context.Context, sc *core.StepContext) (string, error) {
					return c.check(ctx, sc, s)
				},
			})
		}
	}
	return steps
}

func read(ctx context.Context, sc *core.StepContext, chain, contract, method string, args ...interface{}) ([]interface{}, error) {
	ref, err := sc.Registry.Resolve(ctx, chain, contract)
	if err != nil {
		return nil, err
	}
	client, err := sc.Registry.Client(chain)
	if err != nil {
		return nil, err
	}
	return client.Read(ctx, ref, method, args...)
}

// linkTo is the btp address of the peer BMC, resolved through the registry.
func linkTo(ctx context.Context, sc *core.StepContext, s side) (string, error) {
	peer, err := sc.Registry.Resolve(ctx, s.peer, config.ContractBMC)
	if err != nil {
		return "", err
	}
	return utils.BtpAddress(sc.Env.Network(networkKey(s.peer).Name), peer.Address), nil
}

func checkBmc(ctx context.Context, sc *core.StepContext, s side) (string, error) {
	ref, err := sc.Registry.Resolve(ctx, s.alias, config.ContractBMC)
	if err != nil {
		return "", err
	}
	out, err := read(ctx, sc, s.alias, config.ContractBMC, config.MethodGetBmcBtpAddress)
	if err != nil {
		return "", err
	}
	observed, err := btp.DecodeString(out)
	if err != nil {
		return "", err
	}
	net, contract, err := utils.ParseBtpAddress(observed)
	if err != nil {
		return "", core.Mismatch("bmc btp address", "btp://<network>/<address>", observed)
	}
	expected := sc.Env.Network(networkKey(s.alias).Name)
	if net != expected {
		return "", core.Mismatch("bmc network", expected, net)
	}
	if !utils.SameAddress(contract, ref.Address) {
		return "", core.Mismatch("bmc address", ref.Address, contract)
	}
	return observed, nil
}

// linkStatus derives the status of link on chain. It is verified when the link is
// listed, exactly one verifier for peerNet matches the bound BMV and the link
// status is readable.
func linkStatus(ctx context.Context, sc *core.StepContext, chain, link, peerNet string) (btp.LinkStatus, *btp.LinkStats, string, error) {
	out, err := read(ctx, sc, chain, config.ContractBMC, config.MethodGetLinks)
	if err != nil {
		return "", nil, "", err
	}
	links, err := btp.DecodeStrings(out)
	if err != nil {
		return "", nil, "", err
	}
	listed := false
	for _, l := range links {
		if l == link {
			listed = true
			break
		}
	}
	if !listed {
		return btp.LinkUnlinked, nil, "link not registered", nil
	}

	bmv, err := sc.Registry.Resolve(ctx, chain, core.Instance(config.ContractBMV, peerNet))
	if err != nil {
		return "", nil, "", err
	}
	out, err = read(ctx, sc, chain, config.ContractBMC, config.MethodGetVerifiers)
	if err != nil {
		return "", nil, "", err
	}
	verifiers, err := btp.DecodeRegistrations(out)
	if err != nil {
		return "", nil, "", err
	}
	found := btp.Find(verifiers, peerNet)
	switch {
	case len(found) == 0:
		return btp.LinkUnverified, nil, "no verifier for " + peerNet, nil
	case len(found) > 1:
		return btp.LinkUnverified, nil, fmt.Sprintf("%d verifiers for %s", len(found), peerNet), nil
	case !utils.SameAddress(found[0].Address.Hex(), bmv.Address):
		return btp.LinkUnverified, nil, fmt.Sprintf("verifier for %s is %s, want %s", peerNet, found[0].Address.Hex(), bmv.Address), nil
	}

	out, err = read(ctx, sc, chain, config.ContractBMC, config.MethodGetStatus, link)
	if err != nil {
		return btp.LinkUnverified, nil, fmt.Sprintf("status unreadable: %s", err), nil
	}
	stats, err := btp.DecodeLinkStats(out)
	if err != nil {
		return "", nil, "", err
	}
	return btp.LinkVerified, stats, "", nil
}

func checkLink(ctx context.Context, sc *core.StepContext, s side) (string, error) {
	link, err := linkTo(ctx, sc, s)
	if err != nil {
		return "", err
	}
	peerNet := sc.Env.Network(networkKey(s.peer).Name)
	status, stats, detail, err := linkStatus(ctx, sc, s.alias, link, peerNet)
	if err != nil {
		return "", err
	}
	if status != btp.LinkVerified {
		return "", core.Mismatch("link "+link+" status", string(btp.LinkVerified), fmt.Sprintf("%s (%s)", status, detail))
	}
	return fmt.Sprintf("%s %s rx=%s tx=%s verifierHeight=%s height=%s",
		link, status, stats.RxSeq, stats.TxSeq, stats.Verifier.Height, stats.CurrentHeight), nil
}

func checkServices(ctx context.Context, sc *core.StepContext, s side, extra []config.RawServiceConfig) (string, error) {
	bsh, err := sc.Registry.Resolve(ctx, s.alias, config.ContractBSH)
	if err != nil {
		return "", err
	}
	expected := map[string]string{
		sc.Env.ValueOr(config.ServiceNameKey, config.DefaultServiceName): bsh.Address,
	}
	for _, svc := range extra {
		if svc.Side == s.alias {
			expected[svc.Name] = sc.Env.Address(svc.AddressKey)
		}
	}

	out, err := read(ctx, sc, s.alias, config.ContractBMC, config.MethodGetServices)
	if err != nil {
		return "", err
	}
	services, err := btp.DecodeRegistrations(out)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(expected))
	for name := range expected {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		found := btp.Find(services, name)
		if len(found) != 1 {
			return "", core.Mismatch("service "+name+" registrations", "1", fmt.Sprint(len(found)))
		}
		if !utils.SameAddress(found[0].Address.Hex(), expected[name]) {
			return "", core.Mismatch("service "+name+" address", expected[name], found[0].Address.Hex())
		}
	}
	return "services " + strings.Join(names, ","), nil
}

func checkRelays(ctx context.Context, sc *core.StepContext, s side) (string, error) {
	link, err := linkTo(ctx, sc, s)
	if err != nil {
		return "", err
	}
	out, err := read(ctx, sc, s.alias, config.ContractBMC, config.MethodGetRelays, link)
	if err != nil {
		return "", err
	}
	relays, err := btp.DecodeAddresses(out)
	if err != nil {
		return "", err
	}
	registered := make(map[common.Address]bool, len(relays))
	for _, r := range relays {
		registered[r] = true
	}
	want := sc.Env.AddressList(relayerKey(s.alias).Name)
	missing := make([]string, 0)
	for _, r := range want {
		if !registered[common.HexToAddress(r)] {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return "", core.Mismatch("relays of "+link, strings.Join(want, ","), hexList(relays))
	}
	return fmt.Sprintf("%d relays, %d configured registered", len(relays), len(want)), nil
}

func checkCoins(ctx context.Context, sc *core.StepContext, s side) (string, error) {
	out, err := read(ctx, sc, s.alias, config.ContractBSH, config.MethodCoinNames)
	if err != nil {
		return "", err
	}
	coins, err := btp.DecodeStrings(out)
	if err != nil {
		return "", err
	}
	registered := make(map[string]bool, len(coins))
	for _, c := range coins {
		registered[c] = true
	}
	for _, key := range []string{coinKeys(s.alias)[0].Name, coinKeys(s.peer)[0].Name} {
		if name := sc.Env.Value(key); !registered[name] {
			return "", core.Mismatch("coin names", name, strings.Join(coins, ","))
		}
	}
	return "coins " + strings.Join(coins, ","), nil
}

// checkBalance reads the usable balance of the peer coin for the balance account,
// or for every relayer when none is configured.
func checkBalance(ctx context.Context, sc *core.StepContext, s side) (string, error) {
	coin := coinOf(sc.Env, s.peer)
	accounts := sc.Env.AddressList(relayerKey(s.alias).Name)
	if key := balanceAccountKey(s.alias).Name; sc.Env.Has(key) {
		accounts = []string{sc.Env.Address(key)}
	}
	min, hasMin := sc.Env.Decimal(minBalanceKey(s.alias).Name)

	parts := make([]string, 0, len(accounts))
	for _, account := range accounts {
		out, err := read(ctx, sc, s.alias, config.ContractBSH, config.MethodGetBalanceOf, account, coin.Name)
		if err != nil {
			return "", err
		}
		bal, err := btp.DecodeBalance(out)
		if err != nil {
			return "", err
		}
		usable := coin.Amount(bal.Usable)
		if hasMin && usable.LessThan(min) {
			return "", core.Mismatch("usable "+coin.Symbol+" balance of "+account, ">= "+min.String(), usable.String())
		}
		parts = append(parts, fmt.Sprintf("%s usable=%s locked=%s refundable=%s %s", account,
			usable, coin.Amount(bal.Locked), coin.Amount(bal.Refundable), coin.Symbol))
	}
	return strings.Join(parts, "; "), nil
}

func hexList(addrs []common.Address) string {
	if len(addrs) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		parts = append(parts, a.Hex())
	}
	return strings.Join(parts, ",")
}
