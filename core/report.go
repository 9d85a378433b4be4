package core

import (
	"fmt"
	"io"
	"text/tabwriter"

	log "github.com/ChainSafe/log15"
)

// ConfigurationStep names the configuration check in failures raised before any step ran.
const ConfigurationStep = "resolve-configuration"

type Failure struct {
	Step  string
	Kind  ErrorKind
	Cause error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("step %s failed with %s: %v", f.Step, f.Kind, f.Cause)
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

type plannedStep struct {
	name   string
	chain  string
	kind   StepKind
	gating bool
}

// Report is the outcome of one run: the attempted history, the halting failure if
// any, and the final state.
type Report struct {
	History []StepResult
	Failure *Failure
	State   RunState
	Phase   RunState // last phase entered

	plan []plannedStep
}

func newReport(steps []*Step) *Report {
	plan := make([]plannedStep, 0, len(steps))
	for _, s := range steps {
		plan = append(plan, plannedStep{name: s.Name, chain: s.Chain, kind: s.Kind, gating: s.Gating})
	}
	return &Report{State: NotStarted, Phase: NotStarted, plan: plan}
}

// Planned is the number of steps the run was asked to execute.
func (r *Report) Planned() int {
	return len(r.plan)
}

// enter moves the phase forward; phases never move back.
func (r *Report) enter(phase RunState, logger log.Logger) {
	if phaseRank(phase) <= phaseRank(r.Phase) {
		return
	}
	logger.Info("entering phase", "from", r.Phase, "to", phase)
	r.Phase = phase
	r.State = phase
}

func phaseRank(s RunState) int {
	switch s {
	case Deploying:
		return 1
	case Configuring:
		return 2
	case Verifying:
		return 3
	default:
		return 0
	}
}

func (r *Report) finalState() RunState {
	if r.Failure != nil || len(r.History) < len(r.plan) {
		return StateFailed
	}
	partial := false
	for _, res := range r.History {
		if res.Outcome == Succeeded {
			continue
		}
		if res.Kind != Query || res.Gating {
			return StateFailed
		}
		partial = true
	}
	if partial {
		return PartiallyConfigured
	}
	return Operational
}

// Err is nil only for an operational run.
func (r *Report) Err() error {
	switch {
	case r.State == Operational:
		return nil
	case r.Failure != nil:
		return r.Failure
	default:
		return fmt.Errorf("run ended %s", r.State)
	}
}

// FailedSteps returns the attempted steps that failed, in order.
func (r *Report) FailedSteps() []StepResult {
	failed := make([]StepResult, 0)
	for _, res := range r.History {
		if res.Outcome == Failed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Line is one row of the operator-facing report.
type Line struct {
	Step    string
	Chain   string
	Outcome Outcome
	Kind    ErrorKind
	Message string
}

// Lines covers the whole plan: attempted steps as recorded, the rest as skipped.
func (r *Report) Lines() []Line {
	lines := make([]Line, 0, len(r.plan))
	for i, p := range r.plan {
		if i < len(r.History) {
			res := r.History[i]
			lines = append(lines, Line{Step: res.Step, Chain: res.Chain, Outcome: res.Outcome, Kind: res.ErrKind(), Message: res.Message})
			continue
		}
		reason := "not attempted"
		if r.Failure != nil {
			reason = fmt.Sprintf("not attempted: run halted at %s", r.Failure.Step)
		}
		lines = append(lines, Line{Step: p.name, Chain: p.chain, Outcome: Skipped, Message: reason})
	}
	return lines
}

func (r *Report) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tCHAIN\tOUTCOME\tERROR\tMESSAGE")
	if r.Failure != nil && r.Failure.Step == ConfigurationStep {
		fmt.Fprintf(tw, "%s\t-\t%s\t%s\t%v\n", ConfigurationStep, Failed, r.Failure.Kind, r.Failure.Cause)
	}
	for _, l := range r.Lines() {
		kind := string(l.Kind)
		if kind == "" {
			kind = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", l.Step, l.Chain, l.Outcome, kind, l.Message)
	}
	fmt.Fprintf(tw, "\nstate: %s\n", r.State)
	return tw.Flush()
}
