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
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of the environment variables read by ApplyEnv.
const EnvPrefix = "DB_"

// LoadConfig reads a YAML configuration file on top of DefaultConfig and then
// applies DB_ environment overrides. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if err := ApplyEnv(cfg, nil); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with DB_ environment variables. Variables that are
// not set leave the current value alone. A non-nil environ is used instead
// of the process environment.
func ApplyEnv(cfg *Config, environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix, Environment: environ}
	for _, section := range []interface{}{
		&cfg.ConnectionConfig,
		&cfg.DataMigrateConfig,
		&cfg.DataInitConfig,
	} {
		if err := env.ParseWithOptions(section, opts); err != nil {
			return fmt.Errorf("failed to parse environment: %w", err)
		}
	}
	return nil
}
