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

package sweeper

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
	"github.com/tomoncle/bedrock/database"
	"github.com/tomoncle/bedrock/model"
	"github.com/tomoncle/bedrock/repository"
	"github.com/uptrace/bun"
)

// DefaultSchedule runs every job once a minute.
const DefaultSchedule = "@every 1m"

// Job removes expired rows and reports how many it removed.
type Job interface {
	Name() string
	Sweep(ctx context.Context) (int64, error)
}

type funcJob struct {
	name string
	fn   func(ctx context.Context) (int64, error)
}

func (j funcJob) Name() string { return j.name }

func (j funcJob) Sweep(ctx context.Context) (int64, error) { return j.fn(ctx) }

// NewJob wraps fn as a Job.
func NewJob(name string, fn func(ctx context.Context) (int64, error)) Job {
	return funcJob{name: name, fn: fn}
}

// ExpiryJob deletes the expired rows of T. Every run opens its own session
// and commits it.
func ExpiryJob[T any, PT model.ExpirablePtr[T]](db *bun.DB, opts ...database.SessionOption) Job {
	return funcJob{
		name: db.Dialect().Tables().Get(reflect.TypeOf((*T)(nil)).Elem()).Name,
		fn: func(ctx context.Context) (int64, error) {
			session := database.NewSession(db, opts...)
			defer func() { _ = session.Close() }()
			repo := repository.NewExpiryRepository[T, PT](session)
			n, err := repo.DeleteExpired(ctx)
			if err != nil {
				return 0, err
			}
			if err := repo.Commit(ctx); err != nil {
				return 0, err
			}
			return n, nil
		},
	}
}

// RegistryJobs returns one job per registered model that embeds
// model.ExpiryFields.
func RegistryJobs(db *bun.DB, registry *database.Registry, opts ...database.SessionOption) []Job {
	var jobs []Job
	for _, instance := range registry.Instances() {
		if _, ok := instance.(model.ExpiryRecord); !ok {
			continue
		}
		m := instance
		jobs = append(jobs, funcJob{
			name: db.Dialect().Tables().Get(reflect.TypeOf(m).Elem()).Name,
			fn: func(ctx context.Context) (int64, error) {
				session := database.NewSession(db, opts...)
				defer func() { _ = session.Close() }()
				n, err := repository.DeleteExpired(ctx, session, m)
				if err != nil {
					return 0, err
				}
				if err := session.Commit(ctx); err != nil {
					return 0, err
				}
				return n, nil
			},
		})
	}
	return jobs
}

// Sweeper runs jobs on a cron schedule.
type Sweeper struct {
	cron     *cron.Cron
	schedule string
	timeout  time.Duration
	logger   database.Logger

	mu   sync.Mutex
	jobs []Job

	metrics *metrics
}

type metrics struct {
	deleted  *prometheus.CounterVec
	failures *prometheus.CounterVec
}

var (
	defaultMetrics     *metrics
	defaultMetricsOnce sync.Once
)

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		deleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: database.MetricsNamespace,
			Name:      "sweeper_deleted_total",
			Help:      "Total number of expired rows deleted by the sweeper.",
		}, []string{"job"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: database.MetricsNamespace,
			Name:      "sweeper_failures_total",
			Help:      "Total number of failed sweeper runs.",
		}, []string{"job"}),
	}
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithSchedule sets the cron spec, e.g. "*/5 * * * *" or "@every 30s".
func WithSchedule(schedule string) Option {
	return func(s *Sweeper) {
		if schedule != "" {
			s.schedule = schedule
		}
	}
}

// WithTimeout bounds a single run of a job.
func WithTimeout(d time.Duration) Option {
	return func(s *Sweeper) { s.timeout = d }
}

// WithLogger replaces the sweeper logger.
func WithLogger(logger database.Logger) Option {
	return func(s *Sweeper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRegisterer registers the sweeper metrics on reg instead of the
// default registerer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Sweeper) {
		if reg != nil {
			s.metrics = newMetrics(reg)
		}
	}
}

// New returns a stopped sweeper without jobs.
func New(opts ...Option) *Sweeper {
	s := &Sweeper{
		schedule: DefaultSchedule,
		timeout:  time.Minute,
		logger:   database.NewNamedLogger("SWEEPER"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		defaultMetricsOnce.Do(func() { defaultMetrics = newMetrics(prometheus.DefaultRegisterer) })
		s.metrics = defaultMetrics
	}
	cl := cronLogger{s.logger}
	s.cron = cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return s
}

// Add schedules job.
func (s *Sweeper) Add(job Job) error {
	if _, err := s.cron.AddFunc(s.schedule, func() { _, _ = s.run(context.Background(), job) }); err != nil {
		return fmt.Errorf("schedule %s with %q: %w", job.Name(), s.schedule, err)
	}
	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()
	return nil
}

// Jobs returns the scheduled jobs in the order they were added.
func (s *Sweeper) Jobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Job(nil), s.jobs...)
}

// RunOnce runs every job now, one after the other, and returns the rows
// deleted per job. It continues past failures and returns the first error.
func (s *Sweeper) RunOnce(ctx context.Context) (map[string]int64, error) {
	var firstErr error
	result := make(map[string]int64)
	for _, job := range s.Jobs() {
		n, err := s.run(ctx, job)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("sweep %s: %w", job.Name(), err)
		}
		result[job.Name()] += n
	}
	return result, firstErr
}

func (s *Sweeper) run(ctx context.Context, job Job) (int64, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	n, err := job.Sweep(ctx)
	if err != nil {
		s.metrics.failures.WithLabelValues(job.Name()).Inc()
		s.logger.Error("Sweep failed", "job", job.Name(), "error", err)
		return 0, err
	}
	s.metrics.deleted.WithLabelValues(job.Name()).Add(float64(n))
	if n > 0 {
		s.logger.Info("Swept expired rows", "job", job.Name(), "deleted", n)
	}
	return n, nil
}

// Start runs the scheduler in its own goroutine.
func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info("Sweeper started", "schedule", s.schedule, "jobs", len(s.Jobs()))
}

// Stop stops the scheduler and waits for running jobs until ctx is done.
func (s *Sweeper) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type cronLogger struct {
	logger database.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
