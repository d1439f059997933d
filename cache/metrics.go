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

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tomoncle/bedrock/database"
)

// Metrics counts cache lookups.
type Metrics struct {
	hits   prometheus.Counter
	misses prometheus.Counter
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// NewMetrics registers the cache counters on reg. A nil reg returns the
// process-wide counters of the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		defaultMetricsOnce.Do(func() {
			defaultMetrics = newMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return newMetrics(reg)
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		hits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: database.MetricsNamespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache lookups that found an entry.",
		}),
		misses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: database.MetricsNamespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache lookups that found nothing.",
		}),
	}
}

type instrumented struct {
	Store
	metrics *Metrics
}

// Instrument counts hits and misses of s. Failed lookups count as misses.
func Instrument(s Store, m *Metrics) Store {
	if m == nil {
		return s
	}
	return &instrumented{Store: s, metrics: m}
}

func (s *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, ok, err := s.Store.Get(ctx, key)
	if ok {
		s.metrics.hits.Inc()
	} else {
		s.metrics.misses.Inc()
	}
	return b, ok, err
}

func (s *instrumented) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.Store.Set(ctx, key, value, ttl)
}
