// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package padproto

import "errors"

// Decode failures. Every error returned by this package wraps exactly one of
// these, so callers classify with errors.Is.
var (
	ErrInvalidEnumValue = errors.New("padproto: invalid enum value")
	ErrMalformedPayload = errors.New("padproto: malformed payload")
	ErrUnresolvedLength = errors.New("padproto: unresolved payload length")
)

// Kind classifies a decode error
type Kind int

const (
	KindNone Kind = iota
	KindInvalidEnum
	KindMalformed
	KindUnresolvedLength
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInvalidEnum:
		return "invalid_enum"
	case KindMalformed:
		return "malformed"
	case KindUnresolvedLength:
		return "unresolved_length"
	default:
		return "other"
	}
}

// ErrorKind returns the Kind of err. Errors not produced by this package
// (transport failures, for example) are KindOther.
func ErrorKind(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidEnumValue):
		return KindInvalidEnum
	case errors.Is(err, ErrMalformedPayload):
		return KindMalformed
	case errors.Is(err, ErrUnresolvedLength):
		return KindUnresolvedLength
	default:
		return KindOther
	}
}
