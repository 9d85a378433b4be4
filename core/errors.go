package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"btp-bootstrap/config"
)

type ErrorKind string

const (
	KindMissingConfiguration ErrorKind = "MissingConfiguration"
	KindInvalidConfiguration ErrorKind = "InvalidConfiguration"
	KindContractNotDeployed  ErrorKind = "ContractNotDeployed"
	KindCallReverted         ErrorKind = "CallReverted"
	KindAlreadyRegistered    ErrorKind = "AlreadyRegistered"
	KindConsistencyMismatch  ErrorKind = "ConsistencyMismatch"
	KindTimeout              ErrorKind = "Timeout"
	KindCancelled            ErrorKind = "Cancelled"
)

var (
	ErrContractNotDeployed = errors.New("contract not deployed")
	ErrAlreadyResolved     = errors.New("contract already resolved in this run")
)

// revert reasons the bridge contracts use when the requested state already holds
var alreadyRegisteredMarkers = []string{
	"AlreadyExists",
	"ExistToken",
	"already registered",
	"already exists",
}

// RevertError is a rejection reported by the chain, carrying the reason verbatim.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return "execution reverted"
	}
	return "execution reverted: " + e.Reason
}

func Reverted(reason string) error {
	return &RevertError{Reason: reason}
}

// MismatchError reports chain state diverging from the applied configuration.
type MismatchError struct {
	What     string
	Expected string
	Observed string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s mismatch: expected %s, observed %s", e.What, e.Expected, e.Observed)
}

func Mismatch(what, expected, observed string) error {
	return &MismatchError{What: what, Expected: expected, Observed: observed}
}

func NotDeployed(chain, name string) error {
	return fmt.Errorf("%w: %s on %s", ErrContractNotDeployed, name, chain)
}

// IsAlreadyRegistered reports whether err is a revert whose reason says the target
// registration is already in place.
func IsAlreadyRegistered(err error) bool {
	var revert *RevertError
	if !errors.As(err, &revert) {
		return false
	}
	for _, marker := range alreadyRegisteredMarkers {
		if strings.Contains(revert.Reason, marker) {
			return true
		}
	}
	return false
}

// StepError is the typed cause attached to a failed step.
type StepError struct {
	Kind  ErrorKind
	Cause error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

func (e *StepError) Unwrap() error {
	return e.Cause
}

// Classify maps an error from configuration, resolution or a chain call onto the
// error taxonomy. Anything unrecognised failed at the call boundary.
func Classify(err error) ErrorKind {
	var (
		missing  *config.MissingConfigurationError
		invalid  *config.InvalidConfigurationError
		mismatch *MismatchError
	)
	switch {
	case errors.As(err, &missing):
		return KindMissingConfiguration
	case errors.As(err, &invalid):
		return KindInvalidConfiguration
	case errors.Is(err, ErrContractNotDeployed):
		return KindContractNotDeployed
	case errors.As(err, &mismatch):
		return KindConsistencyMismatch
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case IsAlreadyRegistered(err):
		return KindAlreadyRegistered
	default:
		return KindCallReverted
	}
}
