package core

import (
	"context"
	"time"

	"btp-bootstrap/config"

	log "github.com/ChainSafe/log15"
)

type StepKind int

const (
	Deploy StepKind = iota
	Configure
	Query
)

func (k StepKind) String() string {
	switch k {
	case Deploy:
		return "deploy"
	case Configure:
		return "configure"
	default:
		return "query"
	}
}

type Outcome string

const (
	Succeeded = Outcome("succeeded")
	Failed    = Outcome("failed")
	Skipped   = Outcome("skipped")
)

// Action performs the single chain interaction of a step. Deploy actions return the
// contract address; the others return a short description for the report.
type Action func(ctx context.Context, sc *StepContext) (string, error)

type Step struct {
	Name     string
	Chain    string // alias of the target chain in the run's client map
	Kind     StepKind
	Gating   bool // query failure halts the run
	Requires []config.Key
	Needs    []string // artifacts produced by earlier steps
	Produces string
	Timeout  time.Duration
	Action   Action
}

type StepContext struct {
	Env      *config.Env
	Registry *Registry
	Chain    string
	Log      log.Logger

	artifacts map[string]string
}

func (sc *StepContext) Artifact(name string) string {
	return sc.artifacts[name]
}

func (sc *StepContext) Client() (Client, error) {
	return sc.Registry.Client(sc.Chain)
}

// StepResult is the immutable outcome of one attempted step.
type StepResult struct {
	Step       string
	Chain      string
	Kind       StepKind
	Gating     bool
	Outcome    Outcome
	Artifact   string
	Message    string
	Convergent bool // succeeded because the target state already held
	Err        *StepError
}

func (r StepResult) ErrKind() ErrorKind {
	if r.Err == nil {
		return ""
	}
	return r.Err.Kind
}
