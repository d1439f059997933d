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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomoncle/bedrock/model"
	"github.com/uptrace/bun"
)

var ErrSessionClosed = errors.New("session is closed")

type opKind int

const (
	opInsert opKind = iota
	opUpdate
	opDelete
)

func (k opKind) String() string {
	switch k {
	case opInsert:
		return "insert"
	case opUpdate:
		return "update"
	default:
		return "delete"
	}
}

type pendingOp struct {
	kind  opKind
	model interface{}
}

// Session is a unit of work over one Bun database. Writes are staged with
// Add, MarkDirty and Remove and reach the database on Flush, inside a
// transaction that is opened lazily and ended by Commit or Rollback.
//
// A Session belongs to one unit of work; it never opens or closes the
// underlying *bun.DB.
type Session struct {
	db      *bun.DB
	mu      sync.Mutex
	tx      *bun.Tx
	pending []pendingOp
	closed  bool
	now     func() time.Time
	logger  Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithClock replaces the clock used for timestamps and default expiry.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSessionLogger replaces the session logger.
func WithSessionLogger(logger Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession starts a unit of work on db.
func NewSession(db *bun.DB, opts ...SessionOption) *Session {
	s := &Session{
		db:     db,
		now:    time.Now,
		logger: GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the database the session was opened on.
func (s *Session) DB() *bun.DB { return s.db }

// IDB returns the open transaction, or the pool when none is open.
func (s *Session) IDB() bun.IDB {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return *s.tx
	}
	return s.db
}

// InTx reports whether a transaction is open.
func (s *Session) InTx() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx != nil
}

// Now returns the session clock in UTC at microsecond precision, the finest
// precision every supported engine stores.
func (s *Session) Now() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Pending returns the number of staged operations.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Begin opens the transaction if it is not open yet.
func (s *Session) Begin(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beginLocked(ctx)
}

func (s *Session) beginLocked(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.tx != nil {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	s.tx = &tx
	return nil
}

// Add stages models for insert.
func (s *Session) Add(models ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range models {
		if s.indexOf(m, opInsert) >= 0 {
			continue
		}
		s.pending = append(s.pending, pendingOp{kind: opInsert, model: m})
	}
}

// MarkDirty stages models for update. A model already staged for insert or
// update is not staged twice.
func (s *Session) MarkDirty(models ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range models {
		if s.indexOf(m, opInsert, opUpdate) >= 0 {
			continue
		}
		s.pending = append(s.pending, pendingOp{kind: opUpdate, model: m})
	}
}

// Remove stages models for delete. Removing a model that was only staged
// for insert drops the insert instead.
func (s *Session) Remove(models ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range models {
		if i := s.indexOf(m, opInsert); i >= 0 {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			continue
		}
		if i := s.indexOf(m, opUpdate); i >= 0 {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
		}
		s.pending = append(s.pending, pendingOp{kind: opDelete, model: m})
	}
}

func (s *Session) indexOf(m interface{}, kinds ...opKind) int {
	for i, op := range s.pending {
		if op.model != m {
			continue
		}
		for _, k := range kinds {
			if op.kind == k {
				return i
			}
		}
	}
	return -1
}

// Flush writes the staged operations in the order they were staged. The
// transaction is opened first if needed. On failure the transaction is
// rolled back and the staged operations are dropped.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(ctx)
}

func (s *Session) flushLocked(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	if len(s.pending) == 0 {
		return nil
	}
	if err := s.beginLocked(ctx); err != nil {
		return err
	}

	ops := s.pending
	s.pending = nil
	s.beforeFlush(ops, s.Now())

	for _, op := range ops {
		if err := s.exec(ctx, *s.tx, op); err != nil {
			s.rollbackLocked()
			return err
		}
	}
	return nil
}

// PrepareInsert applies the insert defaults of a flush to models that are
// written outside the staged operations, such as upserts.
func (s *Session) PrepareInsert(models ...interface{}) {
	ops := make([]pendingOp, len(models))
	for i, m := range models {
		ops[i] = pendingOp{kind: opInsert, model: m}
	}
	s.beforeFlush(ops, s.Now())
}

// beforeFlush fills server-side defaults on inserts and touches updated_at
// on every staged update.
func (s *Session) beforeFlush(ops []pendingOp, now time.Time) {
	for _, op := range ops {
		switch op.kind {
		case opInsert:
			if r, ok := op.model.(model.GUIDRecord); ok {
				r.GUID().EnsureID()
			}
			if r, ok := op.model.(model.TimestampRecord); ok {
				r.Timestamps().MarkCreated(now)
			}
			if r, ok := op.model.(model.ExpiryRecord); ok && r.Expiry().ExpiresAt.IsZero() {
				r.Expiry().ExpireIn(now, model.LifetimeOf(op.model))
			}
		case opUpdate:
			if r, ok := op.model.(model.TimestampRecord); ok {
				r.Timestamps().Touch(now)
			}
		}
	}
}

func (s *Session) exec(ctx context.Context, tx bun.Tx, op pendingOp) error {
	var (
		res sql.Result
		err error
	)
	switch op.kind {
	case opInsert:
		_, err = tx.NewInsert().Model(op.model).Exec(ctx)
		return err
	case opUpdate:
		res, err = tx.NewUpdate().Model(op.model).WherePK().Exec(ctx)
	case opDelete:
		res, err = tx.NewDelete().Model(op.model).WherePK().Exec(ctx)
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %T: %w", op.kind, op.model, sql.ErrNoRows)
	}
	return nil
}

// Commit flushes staged operations and commits the transaction.
func (s *Session) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.flushLocked(ctx); err != nil {
		return err
	}
	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return err
	}
	s.logger.Debug("Session committed")
	return nil
}

// Rollback drops staged operations and rolls back the transaction.
func (s *Session) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rollbackLocked()
}

func (s *Session) rollbackLocked() error {
	s.pending = nil
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback()
	s.tx = nil
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		s.logger.Error("Failed to rollback transaction", "error", err)
		return err
	}
	return nil
}

// Refresh reloads m from the database by primary key.
func (s *Session) Refresh(ctx context.Context, m interface{}) error {
	return s.IDB().NewSelect().Model(m).WherePK().Scan(ctx)
}

// Close rolls back anything not committed. The session cannot be used
// afterwards.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.rollbackLocked()
	s.closed = true
	return err
}
