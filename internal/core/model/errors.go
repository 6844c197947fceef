// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies every failure the describe pipeline can surface to a
// caller. Transport layers map kinds onto status codes; the retry policy only
// ever retries KindExternalService.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindMalformedTimestamp
	KindInvalidInput
	KindSourceNotFound
	KindExternalService
	KindPartialResultInconsistency
)

func (k ErrorKind) String() string {
	switch k {
	case KindMalformedTimestamp:
		return "malformed timestamp"
	case KindInvalidInput:
		return "invalid input"
	case KindSourceNotFound:
		return "source not found"
	case KindExternalService:
		return "external service error"
	case KindPartialResultInconsistency:
		return "partial result inconsistency"
	default:
		return "unknown error"
	}
}

// Sentinels for use with errors.Is. Any *Error of the same kind matches.
var (
	ErrMalformedTimestamp         = &Error{Kind: KindMalformedTimestamp}
	ErrInvalidInput               = &Error{Kind: KindInvalidInput}
	ErrSourceNotFound             = &Error{Kind: KindSourceNotFound}
	ErrExternalService            = &Error{Kind: KindExternalService}
	ErrPartialResultInconsistency = &Error{Kind: KindPartialResultInconsistency}
)

// Error is the typed failure carried through the pipeline.
type Error struct {
	Kind   ErrorKind
	Op     string // operation that failed, e.g. "ffmpeg cut"
	Detail string // diagnostic output such as subprocess stderr
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Detail != "" {
		b.WriteString("\n")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Malformed reports a timestamp that could not be parsed.
func Malformed(op string, format string, args ...any) error {
	return &Error{Kind: KindMalformedTimestamp, Op: op, Err: fmt.Errorf(format, args...)}
}

// Invalid reports a request that violates an input precondition.
func Invalid(op string, format string, args ...any) error {
	return &Error{Kind: KindInvalidInput, Op: op, Err: fmt.Errorf(format, args...)}
}

// NotFound reports a referenced video or artifact that does not exist.
func NotFound(op string, format string, args ...any) error {
	return &Error{Kind: KindSourceNotFound, Op: op, Err: fmt.Errorf(format, args...)}
}

// External wraps a failure of a collaborating service or subprocess.
func External(op string, err error, detail string) error {
	return &Error{Kind: KindExternalService, Op: op, Err: err, Detail: detail}
}

// Inconsistent reports a broken internal invariant between parallel results.
func Inconsistent(op string, format string, args ...any) error {
	return &Error{Kind: KindPartialResultInconsistency, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's tree.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	return KindOf(err) == KindExternalService
}
