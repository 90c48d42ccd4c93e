// Copyright 2025 Strata ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package status provides the public error vocabulary of the Strata
// runtime. Every failure the execution core reports carries one of these
// kinds; errors.Is against the exported sentinels matches by kind.
//
// Example:
//
//	if err := acc.Forward(); errors.Is(err, status.ErrKernelNotFound) {
//	    // no kernel registered for this operator on this device
//	}
package status

import (
	"github.com/strata-ml/strata/internal/status"
)

// Kind classifies a runtime failure.
type Kind = status.Kind

// Failure kinds.
const (
	KindUnknown                 Kind = status.KindUnknown
	KindKernelNotFound          Kind = status.KindKernelNotFound
	KindShapeMismatch           Kind = status.KindShapeMismatch
	KindUnsupportedDType        Kind = status.KindUnsupportedDType
	KindMissingUpstreamGradient Kind = status.KindMissingUpstreamGradient
	KindNullResource            Kind = status.KindNullResource
	KindInvalidState            Kind = status.KindInvalidState
)

// Error is a kinded runtime error.
type Error = status.Error

// Sentinels for errors.Is matching.
var (
	ErrKernelNotFound          = status.ErrKernelNotFound
	ErrShapeMismatch           = status.ErrShapeMismatch
	ErrUnsupportedDType        = status.ErrUnsupportedDType
	ErrMissingUpstreamGradient = status.ErrMissingUpstreamGradient
	ErrNullResource            = status.ErrNullResource
	ErrInvalidState            = status.ErrInvalidState
)

// Errorf builds a kinded error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return status.Errorf(kind, format, args...)
}

// Wrapf prefixes an error's message with formatted context, keeping its kind
// visible to errors.Is.
func Wrapf(err error, format string, args ...any) *Error {
	return status.Wrapf(err, format, args...)
}
