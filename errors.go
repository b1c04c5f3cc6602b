// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Splice Authors

package splice

import (
	"errors"
	"fmt"
	"strings"
)

// TemplateEvalError indicates a malformed expression or a runtime type error
// during substitution, it fails the entry being resolved and nothing else
type TemplateEvalError struct {
	// Expr is the offending expression text, without the ${ } marker
	Expr string
	Err  error
}

func (e *TemplateEvalError) Error() string {
	return fmt.Sprintf("evaluating ${%s}: %v", e.Expr, e.Err)
}

func (e *TemplateEvalError) Unwrap() error { return e.Err }

// UnresolvedReferenceError indicates a template referenced a key absent from
// the resolution context, it fails the entry being resolved and nothing else
type UnresolvedReferenceError struct {
	// Key is the missing reference key
	Key string
	// RequestedBy is the entry whose template referenced the key
	RequestedBy string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("%q references %q which does not exist in this context", e.RequestedBy, e.Key)
}

// CyclicReferenceError indicates the dependency graph contains a cycle, every
// member of the cycle fails with the same error
type CyclicReferenceError struct {
	// Cycle is the full cycle path, first and last elements are the same key
	Cycle []string
}

func (e *CyclicReferenceError) Error() string {
	return fmt.Sprintf("cyclic reference: %s", strings.Join(e.Cycle, " -> "))
}

// IsFatal reports whether an error aborts a whole resolution pass rather than
// failing a single entry, e.g. a lazy variable naming an unregistered resolver
func IsFatal(err error) bool {
	var fatal interface {
		error
		Fatal() bool
	}
	return errors.As(err, &fatal) && fatal.Fatal()
}
