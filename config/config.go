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

package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
	"github.com/tomoncle/bedrock/cache"
	"github.com/tomoncle/bedrock/database"
	"github.com/tomoncle/bedrock/sweeper"
	"github.com/tomoncle/bedrock/utils"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "BEDROCK_"

// Cache backends.
const (
	CacheNone  = "none"
	CacheLRU   = "lru"
	CacheRedis = "redis"
)

// Config is the application configuration. Values come from DefaultConfig,
// then the YAML file, then BEDROCK_ environment variables.
type Config struct {
	App      App             `yaml:"app" envPrefix:"APP_"`
	Logger   Logger          `yaml:"logger" envPrefix:"LOGGER_"`
	Database database.Config `yaml:"database" envPrefix:"DB_"`
	Cache    Cache           `yaml:"cache" envPrefix:"CACHE_"`
	Sweeper  Sweeper         `yaml:"sweeper" envPrefix:"SWEEPER_"`
	Metrics  Metrics         `yaml:"metrics" envPrefix:"METRICS_"`
}

type App struct {
	Name string `yaml:"name" env:"NAME"`
}

type Logger struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

type Cache struct {
	Backend string            `yaml:"backend" env:"BACKEND"`
	Size    int               `yaml:"size" env:"SIZE"`
	TTL     time.Duration     `yaml:"ttl" env:"TTL"`
	Redis   cache.RedisConfig `yaml:"redis" envPrefix:"REDIS_"`
}

type Sweeper struct {
	Enabled  bool          `yaml:"enabled" env:"ENABLED"`
	Schedule string        `yaml:"schedule" env:"SCHEDULE"`
	Timeout  time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

type Metrics struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Addr    string `yaml:"addr" env:"ADDR"`
	Path    string `yaml:"path" env:"PATH"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		App:      App{Name: "bedrock"},
		Logger:   Logger{Level: "info", Format: "text"},
		Database: *database.DefaultConfig(),
		Cache: Cache{
			Backend: CacheLRU,
			Size:    1024,
			TTL:     5 * time.Minute,
			Redis:   cache.RedisConfig{Addr: "localhost:6379"},
		},
		Sweeper: Sweeper{Enabled: true, Schedule: sweeper.DefaultSchedule, Timeout: time.Minute},
		Metrics: Metrics{Addr: ":9090", Path: "/metrics"},
	}
}

// Load reads path, when not empty, and the process environment.
func Load(path string) (*Config, error) {
	return LoadWithEnvironment(path, nil)
}

// LoadWithEnvironment is Load with environ in place of the process
// environment when environ is not nil.
func LoadWithEnvironment(path string, environ map[string]string) (*Config, error) {
	conf := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if err := yaml.Unmarshal(data, conf); err != nil {
			return nil, errors.Wrapf(err, "could not parse %s", path)
		}
	}
	if err := env.ParseWithOptions(conf, env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	}); err != nil {
		return nil, errors.WithStack(err)
	}
	return conf, nil
}

// ConfigLoader returns the database section, so that Config can be passed
// where a database.AbstractDatabaseConfigProvider is expected.
func (c *Config) ConfigLoader() *database.Config {
	return &c.Database
}

// ApplyLogging installs the logger level and console format.
func (c *Config) ApplyLogging() {
	if c.Logger.Format != "" {
		utils.ConfigureConsoleLogFormat(c.Logger.Format)
	}
	if c.Logger.Level != "" {
		utils.SetAllLoggersLevel(c.Logger.Level)
	}
}

// CacheStore builds the configured cache store. It returns nil for the
// none backend.
func (c *Config) CacheStore(metrics *cache.Metrics) (cache.Store, error) {
	var store cache.Store
	switch c.Cache.Backend {
	case "", CacheNone:
		return nil, nil
	case CacheLRU:
		store = cache.NewLRUStore(c.Cache.Size, c.Cache.TTL)
	case CacheRedis:
		store = cache.NewRedisStore(cache.NewRedisClient(c.Cache.Redis))
	default:
		return nil, errors.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	return cache.Instrument(store, metrics), nil
}

// KeySpace returns the cache key space of the application.
func (c *Config) KeySpace() cache.KeySpace {
	return cache.NewKeySpace(c.App.Name)
}
