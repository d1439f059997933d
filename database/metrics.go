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
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/uptrace/bun"
)

const (
	MetricsNamespace = "bedrock"

	LabelOperation = "operation"
	LabelStatus    = "status"

	StatusOK    = "ok"
	StatusError = "error"
)

// MetricsHook counts queries and observes their latency per operation.
type MetricsHook struct {
	queries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ bun.QueryHook = (*MetricsHook)(nil)

var (
	defaultMetricsHook     *MetricsHook
	defaultMetricsHookOnce sync.Once
)

// NewMetricsHook registers the query metrics on reg. A nil reg returns the
// process-wide hook registered on the default prometheus registerer.
func NewMetricsHook(reg prometheus.Registerer) *MetricsHook {
	if reg == nil {
		defaultMetricsHookOnce.Do(func() {
			defaultMetricsHook = newMetricsHook(prometheus.DefaultRegisterer)
		})
		return defaultMetricsHook
	}
	return newMetricsHook(reg)
}

func newMetricsHook(reg prometheus.Registerer) *MetricsHook {
	factory := promauto.With(reg)
	return &MetricsHook{
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "db",
			Name:      "queries_total",
			Help:      "Number of executed queries.",
		}, []string{LabelOperation, LabelStatus}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Query latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{LabelOperation}),
	}
}

func (h *MetricsHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *MetricsHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	op := strings.ToLower(event.Operation())
	status := StatusOK
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		status = StatusError
	}
	h.queries.WithLabelValues(op, status).Inc()
	h.duration.WithLabelValues(op).Observe(time.Since(event.StartTime).Seconds())
}
