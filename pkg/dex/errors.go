// Package dex decodes the on-disk Dalvik Executable (DEX) format into
// the raw tables a program model is built from.
package dex

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies a parse failure.
type ErrorKind int

const (
	BadMagic ErrorKind = iota
	TruncatedSection
	PoolIndexOutOfRange
	BadULEB128
	UnsupportedVersion
)

func (k ErrorKind) String() string {
	switch k {
	case BadMagic:
		return "bad_magic"
	case TruncatedSection:
		return "truncated_section"
	case PoolIndexOutOfRange:
		return "pool_index_out_of_range"
	case BadULEB128:
		return "bad_uleb128"
	case UnsupportedVersion:
		return "unsupported_version"
	default:
		return "unknown"
	}
}

// ParseError is the single error type the reader returns. It always
// carries the byte offset at which the failure was detected.
type ParseError struct {
	Kind   ErrorKind
	Offset int
	Detail string
	cause  error
}

func (e *ParseError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("dex: %s at offset %d: %s", e.Kind, e.Offset, e.Detail)
	}
	return fmt.Sprintf("dex: %s at offset %d", e.Kind, e.Offset)
}

func (e *ParseError) Unwrap() error { return e.cause }

func newParseError(kind ErrorKind, offset int, format string, args ...interface{}) error {
	return errors.WithStack(&ParseError{
		Kind:   kind,
		Offset: offset,
		Detail: fmt.Sprintf(format, args...),
	})
}

// truncatedError reports a section that ran out of bytes before the
// header-declared size was satisfied.
func truncatedError(name string, offset, need, have int) error {
	return newParseError(TruncatedSection, offset, "%s: need %d bytes, have %d", name, need, have)
}
