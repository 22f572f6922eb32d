package query

import (
	"errors"
	"fmt"

	"github.com/dexlens/dexlens/pkg/dex"
	"github.com/dexlens/dexlens/pkg/vm"
)

// ErrorKind discriminates why a query operation failed.
type ErrorKind int

const (
	ErrParse ErrorKind = iota
	ErrResolve
	ErrVm
	ErrFlow
	ErrNotFound
	ErrTypeMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case ErrParse:
		return "parse"
	case ErrResolve:
		return "resolve"
	case ErrVm:
		return "vm"
	case ErrFlow:
		return "flow"
	case ErrNotFound:
		return "not_found"
	case ErrTypeMismatch:
		return "type_mismatch"
	default:
		return "unknown"
	}
}

// Error is the single tagged error every exposed query operation
// returns: a kind, the site it occurred at (a method/field/class FQDN,
// or a query string), and a short message. Cause, when set, is the
// underlying dex/vm/flow error this one wraps.
type Error struct {
	Kind    ErrorKind
	Site    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Site == "" {
		return fmt.Sprintf("query: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("query: %s: %s: %s", e.Kind, e.Site, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func notFound(kind, query string) *Error {
	return &Error{Kind: ErrNotFound, Site: query, Message: fmt.Sprintf("no %s matched", kind)}
}

func typeMismatch(expected, actual string) *Error {
	return &Error{Kind: ErrTypeMismatch, Message: fmt.Sprintf("expected %s, got %s", expected, actual)}
}

// wrapParse folds a bad query pattern (an invalid regular expression)
// into the same Parse kind a malformed dex.ParseError would carry —
// both are "the input text could not be read", just at different
// layers.
func wrapParse(err error, site string) *Error {
	if err == nil {
		return nil
	}
	var pe *dex.ParseError
	if errors.As(err, &pe) {
		return &Error{Kind: ErrParse, Site: site, Message: pe.Error(), Cause: err}
	}
	return &Error{Kind: ErrParse, Site: site, Message: err.Error(), Cause: err}
}

// wrapVM folds an error returned by a vm.VM call into the Vm kind.
// Per the propagation policy this never aborts the caller's session —
// it is the result of the one emulate call, nothing more.
func wrapVM(err error, site string) *Error {
	if err == nil {
		return nil
	}
	var ve *vm.VmError
	if errors.As(err, &ve) {
		return &Error{Kind: ErrVm, Site: site, Message: ve.Error(), Cause: err}
	}
	return &Error{Kind: ErrVm, Site: site, Message: err.Error(), Cause: err}
}

// wrapFlow folds an error Analyse itself returned (a malformed code
// item, never a budget/widening condition — those surface as
// Result.Incomplete instead) into the Flow kind.
func wrapFlow(err error, site string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: ErrFlow, Site: site, Message: err.Error(), Cause: err}
}
