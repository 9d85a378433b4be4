package core_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"btp-bootstrap/config"
	"btp-bootstrap/core"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		kind core.ErrorKind
	}{
		{&config.MissingConfigurationError{Keys: []string{"SRC_NETWORK"}}, core.KindMissingConfiguration},
		{&config.InvalidConfigurationError{Problems: []string{"bad"}}, core.KindInvalidConfiguration},
		{core.NotDeployed("SRC", "bmc"), core.KindContractNotDeployed},
		{core.Mismatch("link", "a", "b"), core.KindConsistencyMismatch},
		{fmt.Errorf("wait receipt: %w", context.DeadlineExceeded), core.KindTimeout},
		{context.Canceled, core.KindCancelled},
		{core.Reverted("AlreadyExistsBMV"), core.KindAlreadyRegistered},
		{fmt.Errorf("register: %w", core.Reverted("ExistToken")), core.KindAlreadyRegistered},
		{core.Reverted("Unauthorized"), core.KindCallReverted},
		{errors.New("connection reset"), core.KindCallReverted},
	}
	for _, c := range cases {
		assert.Equal(t, c.kind, core.Classify(c.err), c.err.Error())
	}
}

func TestAlreadyRegisteredNeedsRevert(t *testing.T) {
	assert.False(t, core.IsAlreadyRegistered(errors.New("AlreadyExistsLink")))
	assert.True(t, core.IsAlreadyRegistered(core.Reverted("BMCRevertAlreadyExistsLink")))
}
