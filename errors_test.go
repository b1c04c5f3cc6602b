// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Splice Authors

package splice

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/splice-run/splice/lazy"
)

func TestErrorMessages(t *testing.T) {
	evalErr := &TemplateEvalError{Expr: "a +", Err: errors.New("unexpected token")}
	assert.Equal(t, "evaluating ${a +}: unexpected token", evalErr.Error())
	assert.ErrorContains(t, evalErr.Unwrap(), "unexpected token")

	unresolvedErr := &UnresolvedReferenceError{Key: "missing", RequestedBy: "job"}
	assert.Equal(t, `"job" references "missing" which does not exist in this context`, unresolvedErr.Error())

	cycleErr := &CyclicReferenceError{Cycle: []string{"a", "b", "a"}}
	assert.Equal(t, "cyclic reference: a -> b -> a", cycleErr.Error())
}

func TestIsFatal(t *testing.T) {
	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(errors.New("plain")))
	assert.False(t, IsFatal(&TemplateEvalError{Expr: "x", Err: errors.New("nope")}))
	assert.False(t, IsFatal(&UnresolvedReferenceError{Key: "k"}))
	assert.False(t, IsFatal(&CyclicReferenceError{Cycle: []string{"a", "a"}}))

	unknown := &lazy.UnknownTypeError{Code: "nope"}
	assert.True(t, IsFatal(unknown))
	assert.True(t, IsFatal(fmt.Errorf("wrapped: %w", unknown)))
}
