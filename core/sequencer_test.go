package core_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"btp-bootstrap/config"
	"btp-bootstrap/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var networkKey = config.Key{Name: "SRC_NETWORK", Type: config.TypeNetwork}

func deployStep(name string) *core.Step {
	return &core.Step{
		Name:     "deploy-" + name,
		Chain:    "SRC",
		Kind:     core.Deploy,
		Requires: []config.Key{networkKey},
		Produces: name,
		Action: func(ctx context.Context, sc *core.StepContext) (string, error) {
			c, err := sc.Client()
			if err != nil {
				return "", err
			}
			addr, err := c.Deploy(ctx, name)
			if err != nil {
				return "", err
			}
			if _, err := sc.Registry.Bind(sc.Chain, name, addr, false); err != nil {
				return "", err
			}
			return addr, nil
		},
	}
}

func callStep(name, contract, method string, needs ...string) *core.Step {
	return &core.Step{
		Name:  name,
		Chain: "SRC",
		Kind:  core.Configure,
		Needs: needs,
		Action: func(ctx context.Context, sc *core.StepContext) (string, error) {
			ref, err := sc.Registry.Resolve(ctx, sc.Chain, contract)
			if err != nil {
				return "", err
			}
			c, _ := sc.Client()
			return "", c.Call(ctx, ref, method, sc.Env.Network("SRC_NETWORK"))
		},
	}
}

func queryStep(name, method string, gating bool) *core.Step {
	return &core.Step{
		Name:   name,
		Chain:  "SRC",
		Kind:   core.Query,
		Gating: gating,
		Action: func(ctx context.Context, sc *core.StepContext) (string, error) {
			ref, err := sc.Registry.Resolve(ctx, sc.Chain, "bmc")
			if err != nil {
				return "", err
			}
			c, _ := sc.Client()
			if _, err := c.Read(ctx, ref, method); err != nil {
				return "", err
			}
			return "ok", nil
		},
	}
}

var goodEnv = config.MapSource(map[string]string{"SRC_NETWORK": "0x97.bsc"})

func newTestSequencer(client *countingClient) *core.Sequencer {
	return core.NewSequencer(map[string]core.Client{"SRC": client}, testLogger())
}

func TestRunOperational(t *testing.T) {
	client := newCountingClient("src")
	steps := []*core.Step{
		deployStep("bmc"),
		callStep("add-verifier", "bmc", "addVerifier", "bmc"),
		queryStep("check-link", "getLinks", true),
	}
	report := newTestSequencer(client).Run(context.Background(), goodEnv, steps)

	require.Nil(t, report.Failure)
	assert.Equal(t, core.Operational, report.State)
	assert.NoError(t, report.Err())
	require.Len(t, report.History, 3)
	assert.NotEmpty(t, report.History[0].Artifact)
	assert.Equal(t, []string{"deploy:bmc", "bmc.addVerifier", "bmc.getLinks"}, client.calls)
}

func TestRunMissingConfigurationMakesNoCalls(t *testing.T) {
	client := newCountingClient("src")
	steps := []*core.Step{
		deployStep("bmc"),
		{Name: "needs-more", Chain: "SRC", Kind: core.Configure,
			Requires: []config.Key{{Name: "DST_NETWORK", Type: config.TypeNetwork}},
			Action:   func(context.Context, *core.StepContext) (string, error) { return "", nil }},
	}
	report := newTestSequencer(client).Run(context.Background(), config.MapSource(nil), steps)

	require.NotNil(t, report.Failure)
	assert.Equal(t, core.KindMissingConfiguration, report.Failure.Kind)
	assert.Contains(t, report.Failure.Cause.Error(), "SRC_NETWORK")
	assert.Contains(t, report.Failure.Cause.Error(), "DST_NETWORK")
	assert.Empty(t, report.History)
	assert.Equal(t, core.StateFailed, report.State)
	assert.Zero(t, client.Calls())

	for _, line := range report.Lines() {
		assert.Equal(t, core.Skipped, line.Outcome)
	}
}

func TestRunInvalidConfiguration(t *testing.T) {
	client := newCountingClient("src")
	report := newTestSequencer(client).Run(context.Background(),
		config.MapSource(map[string]string{"SRC_NETWORK": "bsc"}), []*core.Step{deployStep("bmc")})

	require.NotNil(t, report.Failure)
	assert.Equal(t, core.KindInvalidConfiguration, report.Failure.Kind)
	assert.Zero(t, client.Calls())
}

func TestRunHaltsOnDeployFailure(t *testing.T) {
	client := newCountingClient("src")
	client.failWith["deploy:bmv"] = errors.New("insufficient funds")
	steps := []*core.Step{
		deployStep("bmc"),
		deployStep("bmv"),
		deployStep("bsh"),
		callStep("add-verifier", "bmc", "addVerifier", "bmv"),
	}
	report := newTestSequencer(client).Run(context.Background(), goodEnv, steps)

	require.Len(t, report.History, 2)
	assert.Equal(t, core.Succeeded, report.History[0].Outcome)
	assert.Equal(t, core.Failed, report.History[1].Outcome)
	assert.Equal(t, core.KindCallReverted, report.History[1].ErrKind())
	require.NotNil(t, report.Failure)
	assert.Equal(t, "deploy-bmv", report.Failure.Step)
	assert.Equal(t, core.StateFailed, report.State)
	assert.Equal(t, []string{"deploy:bmc", "deploy:bmv"}, client.calls)

	lines := report.Lines()
	require.Len(t, lines, 4)
	assert.Equal(t, core.Skipped, lines[2].Outcome)
	assert.Contains(t, lines[3].Message, "deploy-bmv")
}

func TestRunAlreadyRegisteredIsConvergent(t *testing.T) {
	client := newCountingClient("src")
	client.failWith["addVerifier"] = core.Reverted("BMCRevertAlreadyExistsBMV")
	steps := []*core.Step{
		deployStep("bmc"),
		callStep("add-verifier", "bmc", "addVerifier", "bmc"),
	}
	report := newTestSequencer(client).Run(context.Background(), goodEnv, steps)

	require.Len(t, report.History, 2)
	assert.Equal(t, core.Succeeded, report.History[1].Outcome)
	assert.True(t, report.History[1].Convergent)
	assert.Equal(t, core.Operational, report.State)
}

func TestRunAlreadyRegisteredOnQueryIsFailure(t *testing.T) {
	client := newCountingClient("src")
	client.failWith["getLinks"] = core.Reverted("AlreadyExistsLink")
	steps := []*core.Step{deployStep("bmc"), queryStep("check-link", "getLinks", true)}
	report := newTestSequencer(client).Run(context.Background(), goodEnv, steps)

	require.NotNil(t, report.Failure)
	assert.Equal(t, core.KindCallReverted, report.Failure.Kind)
}

func TestRunNonGatingQueryFailureIsPartial(t *testing.T) {
	client := newCountingClient("src")
	client.failWith["getBalanceOf"] = core.Reverted("")
	steps := []*core.Step{
		deployStep("bmc"),
		queryStep("check-balance", "getBalanceOf", false),
		queryStep("check-link", "getLinks", true),
	}
	report := newTestSequencer(client).Run(context.Background(), goodEnv, steps)

	require.Len(t, report.History, 3)
	assert.Nil(t, report.Failure)
	assert.Equal(t, core.Failed, report.History[1].Outcome)
	assert.Equal(t, core.Succeeded, report.History[2].Outcome)
	assert.Equal(t, core.PartiallyConfigured, report.State)
	assert.Error(t, report.Err())
}

func TestRunConfigureBeforeDeployIsNotDeployed(t *testing.T) {
	client := newCountingClient("src")
	steps := []*core.Step{callStep("add-service", "bsh", "addService")}
	report := newTestSequencer(client).Run(context.Background(), goodEnv, steps)

	require.NotNil(t, report.Failure)
	assert.Equal(t, core.KindContractNotDeployed, report.Failure.Kind)
	assert.Empty(t, client.calls)
}

func TestRunSkipsStepWithMissingArtifact(t *testing.T) {
	client := newCountingClient("src")
	steps := []*core.Step{callStep("add-link", "bmc", "addLink", "peer-bmc")}
	report := newTestSequencer(client).Run(context.Background(), goodEnv, steps)

	require.Len(t, report.History, 1)
	assert.Equal(t, core.Skipped, report.History[0].Outcome)
	assert.Equal(t, core.StateFailed, report.State)
}

func TestRunCancelledBetweenSteps(t *testing.T) {
	client := newCountingClient("src")
	ctx, cancel := context.WithCancel(context.Background())
	first := deployStep("bmc")
	action := first.Action
	first.Action = func(stepCtx context.Context, sc *core.StepContext) (string, error) {
		cancel()
		// the running step is not interrupted
		assert.NoError(t, stepCtx.Err())
		return action(stepCtx, sc)
	}
	report := newTestSequencer(client).Run(ctx, goodEnv, []*core.Step{first, deployStep("bmv")})

	require.Len(t, report.History, 1)
	assert.Equal(t, core.Succeeded, report.History[0].Outcome)
	require.NotNil(t, report.Failure)
	assert.Equal(t, core.KindCancelled, report.Failure.Kind)
	assert.Equal(t, "deploy-bmv", report.Failure.Step)
}

func TestRunStepTimeout(t *testing.T) {
	client := newCountingClient("src")
	slow := &core.Step{
		Name:    "slow",
		Chain:   "SRC",
		Kind:    core.Configure,
		Timeout: 10 * time.Millisecond,
		Action: func(ctx context.Context, _ *core.StepContext) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	report := newTestSequencer(client).Run(context.Background(), goodEnv, []*core.Step{slow})

	require.NotNil(t, report.Failure)
	assert.Equal(t, core.KindTimeout, report.Failure.Kind)
}

func TestRunEmptyDeployAddressFails(t *testing.T) {
	client := newCountingClient("src")
	step := &core.Step{
		Name:  "deploy-nothing",
		Chain: "SRC",
		Kind:  core.Deploy,
		Action: func(context.Context, *core.StepContext) (string, error) {
			return "", nil
		},
	}
	report := newTestSequencer(client).Run(context.Background(), goodEnv, []*core.Step{step})
	assert.Equal(t, core.Failed, report.History[0].Outcome)
	assert.Equal(t, core.StateFailed, report.State)
}

func TestReportPrint(t *testing.T) {
	client := newCountingClient("src")
	client.failWith["addVerifier"] = core.Reverted("Unauthorized")
	steps := []*core.Step{
		deployStep("bmc"),
		callStep("add-verifier", "bmc", "addVerifier", "bmc"),
		queryStep("check-link", "getLinks", true),
	}
	report := newTestSequencer(client).Run(context.Background(), goodEnv, steps)

	buf := &bytes.Buffer{}
	require.NoError(t, report.Print(buf))
	out := buf.String()
	assert.Contains(t, out, "add-verifier")
	assert.Contains(t, out, "CallReverted")
	assert.Contains(t, out, "not attempted: run halted at add-verifier")
	assert.Contains(t, out, "state: Failed")
}
