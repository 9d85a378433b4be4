package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"btp-bootstrap/config"

	log "github.com/ChainSafe/log15"
)

type RunState string

const (
	NotStarted          = RunState("NotStarted")
	Deploying           = RunState("Deploying")
	Configuring         = RunState("Configuring")
	Verifying           = RunState("Verifying")
	Operational         = RunState("Operational")
	StateFailed         = RunState("Failed")
	PartiallyConfigured = RunState("PartiallyConfigured")
)

// Sequencer runs an ordered plan of steps against a fixed set of chain clients.
// It keeps no state between runs: every Run starts with a fresh registry and history.
type Sequencer struct {
	clients map[string]Client
	timeout time.Duration
	log     log.Logger
}

func NewSequencer(clients map[string]Client, log log.Logger) *Sequencer {
	return &Sequencer{
		clients: clients,
		timeout: config.DefaultStepTimeout,
		log:     log,
	}
}

// SetStepTimeout changes the timeout of steps that do not carry their own.
func (s *Sequencer) SetStepTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// Run resolves the configuration every step declares, then executes the steps in
// order. A failed deploy, configure or gating query step halts the run; the report
// holds exactly the steps attempted so far. Cancelling ctx stops the run between
// steps, never inside one.
func (s *Sequencer) Run(ctx context.Context, src config.Source, steps []*Step) *Report {
	report := newReport(steps)

	keys := make([]config.Key, 0)
	for _, step := range steps {
		keys = append(keys, step.Requires...)
	}
	env, err := config.Resolve(src, keys)
	if err != nil {
		report.Failure = &Failure{Step: ConfigurationStep, Kind: Classify(err), Cause: err}
		report.State = StateFailed
		s.log.Error("configuration rejected, no chain call made", "err", err)
		return report
	}

	registry := NewRegistry(s.clients, s.log)
	artifacts := make(map[string]string)

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			report.Failure = &Failure{Step: step.Name, Kind: KindCancelled, Cause: err}
			s.log.Warn("run cancelled before step", "step", step.Name)
			break
		}
		report.enter(phaseOf(step.Kind), s.log)

		result := s.runStep(step, env, registry, artifacts)
		report.History = append(report.History, result)
		s.logResult(result)

		if result.Outcome == Succeeded && step.Produces != "" && result.Artifact != "" {
			artifacts[step.Produces] = result.Artifact
		}
		if result.Outcome != Failed {
			continue
		}
		if step.Kind == Query && !step.Gating {
			s.log.Warn("diagnostic query failed, continuing", "step", step.Name, "err", result.Err)
			continue
		}
		report.Failure = &Failure{Step: step.Name, Kind: result.Err.Kind, Cause: result.Err.Cause}
		s.log.Error("step failed, halting run", "step", step.Name, "kind", result.Err.Kind, "err", result.Err.Cause)
		break
	}

	report.State = report.finalState()
	s.log.Info("run finished", "state", report.State, "attempted", len(report.History), "planned", len(steps))
	return report
}

func (s *Sequencer) runStep(step *Step, env *config.Env, registry *Registry, artifacts map[string]string) StepResult {
	result := StepResult{Step: step.Name, Chain: step.Chain, Kind: step.Kind, Gating: step.Gating}

	for _, need := range step.Needs {
		if artifacts[need] == "" {
			result.Outcome = Skipped
			result.Message = "missing dependency: " + need
			return result
		}
	}

	timeout := step.Timeout
	if timeout <= 0 {
		timeout = s.timeout
	}
	// a started step runs to completion or timeout regardless of run cancellation
	stepCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	sc := &StepContext{
		Env:       env,
		Registry:  registry,
		Chain:     step.Chain,
		Log:       s.log.New("step", step.Name),
		artifacts: artifacts,
	}
	out, err := step.Action(stepCtx, sc)
	if err == nil && step.Kind == Deploy && out == "" {
		err = errors.New("deploy produced no contract address")
	}
	if err == nil {
		result.Outcome = Succeeded
		result.Message = out
		if step.Kind == Deploy {
			result.Artifact = out
		}
		return result
	}

	kind := Classify(err)
	if kind == KindAlreadyRegistered {
		if step.Kind == Configure {
			result.Outcome = Succeeded
			result.Convergent = true
			result.Message = fmt.Sprintf("already registered (%v)", err)
			return result
		}
		kind = KindCallReverted
	}
	result.Outcome = Failed
	result.Err = &StepError{Kind: kind, Cause: err}
	result.Message = err.Error()
	return result
}

func (s *Sequencer) logResult(r StepResult) {
	switch r.Outcome {
	case Succeeded:
		s.log.Info("step succeeded", "step", r.Step, "chain", r.Chain, "kind", r.Kind, "convergent", r.Convergent, "msg", r.Message)
	case Skipped:
		s.log.Warn("step skipped", "step", r.Step, "chain", r.Chain, "reason", r.Message)
	default:
		s.log.Error("step failed", "step", r.Step, "chain", r.Chain, "kind", r.Err.Kind, "err", r.Err.Cause)
	}
}

func phaseOf(kind StepKind) RunState {
	switch kind {
	case Deploy:
		return Deploying
	case Configure:
		return Configuring
	default:
		return Verifying
	}
}
