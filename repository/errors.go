/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tomoncle/bedrock/database"
)

var (
	// ErrStorage is the base of every error translated from the engine.
	ErrStorage = errors.New("storage error")
	// ErrConflict reports an integrity violation: unique, foreign key, not
	// null or check constraint.
	ErrConflict = fmt.Errorf("%w: conflict", ErrStorage)
	// ErrNotFound reports that the row addressed by an update, delete or
	// GetOne does not exist.
	ErrNotFound = fmt.Errorf("%w: not found", ErrStorage)

	// ErrUsage marks programming errors raised before the engine is
	// reached. They are never translated.
	ErrUsage = errors.New("repository usage error")
)

// Errors is the set of kinds a repository reports. Narrower kinds must wrap
// the defaults so that errors.Is(err, ErrConflict) keeps holding.
type Errors struct {
	Base     error
	Conflict error
	NotFound error
}

// DefaultErrors returns ErrStorage, ErrConflict and ErrNotFound.
func DefaultErrors() Errors {
	return Errors{Base: ErrStorage, Conflict: ErrConflict, NotFound: ErrNotFound}
}

// NewErrors derives kinds named after a domain, e.g. NewErrors("user")
// yields "user: storage error: conflict" for conflicts. Each derived kind
// matches both its default and the derived base.
func NewErrors(name string) Errors {
	base := fmt.Errorf("%s: %w", name, ErrStorage)
	return Errors{
		Base:     base,
		Conflict: &kindError{name: name, kinds: []error{ErrConflict, base}},
		NotFound: &kindError{name: name, kinds: []error{ErrNotFound, base}},
	}
}

type kindError struct {
	name  string
	kinds []error
}

func (e *kindError) Error() string { return e.name + ": " + e.kinds[0].Error() }

func (e *kindError) Unwrap() []error { return e.kinds }

// Error is a translated engine error. errors.Is matches both the kind and
// the original cause.
type Error struct {
	Kind  error
	Op    string
	Table string
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Table != "" {
		b.WriteString(" ")
		b.WriteString(e.Table)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func usageErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

// translate maps err onto the repository kinds. Context cancellation,
// usage errors and already translated errors pass through unchanged.
func translate(errs Errors, op, table string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, ErrUsage) || isBunUsageError(err) {
		return err
	}
	var translated *Error
	if errors.As(err, &translated) {
		return err
	}

	kind := errs.Base
	if ok, code := database.IsSqlError(err); ok {
		switch {
		case code.IsIntegrityViolation():
			kind = errs.Conflict
		case code == database.NoRowsErr:
			kind = errs.NotFound
		}
	}
	return &Error{Kind: kind, Op: op, Table: table, Err: err}
}

// isBunUsageError reports errors bun raises while building a query, such as
// an unknown relation or a model without primary keys.
func isBunUsageError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "bun: ") || strings.Contains(msg, " does not have relation=")
}

// StatusCode maps an error to the HTTP status an outer layer should answer
// with.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUsage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
