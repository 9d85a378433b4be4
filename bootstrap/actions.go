package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"btp-bootstrap/config"
	"btp-bootstrap/core"
	"btp-bootstrap/models/btp"
	"btp-bootstrap/utils"
)

type deployArgs func(sc *core.StepContext) []interface{}

// deployAction reuses a live instance unless redeploy is set, otherwise deploys
// and binds the new address for the rest of the run.
func deployAction(name func(env *config.Env) string, redeploy bool, args deployArgs) core.Action {
	return func(ctx context.Context, sc *core.StepContext) (string, error) {
		contract := name(sc.Env)
		if !redeploy {
			ref, err := sc.Registry.Lookup(ctx, sc.Chain, contract)
			if err != nil {
				return "", err
			}
			if ref.Resolved() {
				sc.Log.Info("reusing deployed contract", "contract", contract, "address", ref.Address)
				return ref.Address, nil
			}
		}

		client, err := sc.Client()
		if err != nil {
			return "", err
		}
		address, err := client.Deploy(ctx, contract, args(sc)...)
		if err != nil {
			return "", err
		}
		if _, err := sc.Registry.Bind(sc.Chain, contract, address, redeploy); err != nil {
			return "", err
		}
		sc.Log.Info("deployed contract", "contract", contract, "address", address)
		return address, nil
	}
}

func attachAction(name func(env *config.Env) string, key string) core.Action {
	return func(ctx context.Context, sc *core.StepContext) (string, error) {
		contract := name(sc.Env)
		address := sc.Env.Address(key)
		if _, err := sc.Registry.Bind(sc.Chain, contract, address, false); err != nil {
			return "", err
		}
		sc.Log.Info("attached contract", "contract", contract, "address", address)
		return address, nil
	}
}

func configureAction(contract, method string, args func(sc *core.StepContext) []interface{}) core.Action {
	return func(ctx context.Context, sc *core.StepContext) (string, error) {
		ref, err := sc.Registry.Resolve(ctx, sc.Chain, contract)
		if err != nil {
			return "", err
		}
		client, err := sc.Client()
		if err != nil {
			return "", err
		}
		callArgs := args(sc)
		if err := client.Call(ctx, ref, method, callArgs...); err != nil {
			return "", err
		}
		return describeCall(method, callArgs), nil
	}
}

func describeCall(method string, args []interface{}) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		switch v := a.(type) {
		case []string:
			parts = append(parts, "["+strings.Join(v, ",")+"]")
		default:
			parts = append(parts, fmt.Sprint(v))
		}
	}
	return fmt.Sprintf("%s(%s)", method, strings.Join(parts, ", "))
}

// peerLink is the btp address of the peer BMC as seen from s.
func peerLink(sc *core.StepContext, s side) string {
	return utils.BtpAddress(sc.Env.Network(networkKey(s.peer).Name), sc.Artifact(artifactName(config.ContractBMC, s.peer)))
}

func coinOf(env *config.Env, alias string) btp.Coin {
	keys := coinKeys(alias)
	return btp.Coin{
		Name:     env.Value(keys[0].Name),
		Symbol:   env.Value(keys[1].Name),
		Decimals: env.Uint(keys[2].Name),
	}
}
