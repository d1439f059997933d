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
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/uptrace/bun/schema"
)

var ErrRegistrySealed = errors.New("model registry is sealed")

// SQLModel represents a database model used for migration and lookup.
// Instance should return a struct pointer compatible with Bun, and Priority
// controls creation order (lower values first).
type SQLModel interface {
	Instance() interface{}
	Priority() int
}

type ModelAdapter struct {
	instance interface{}
	priority int
}

// NewModelAdapter wraps a struct instance and priority into an SQLModel.
func NewModelAdapter(instance interface{}, priority int) SQLModel {
	return &ModelAdapter{instance: instance, priority: priority}
}

func (a *ModelAdapter) Instance() interface{} { return a.instance }

func (a *ModelAdapter) Priority() int { return a.priority }

// Registry is the explicit set of record types an application works with.
// It is filled once at startup, sealed, and then shared read-only by the
// migration manager, the connection factory and table-name lookups.
type Registry struct {
	mu     sync.RWMutex
	models []SQLModel
	sealed bool
}

// NewRegistry returns a registry holding the given models. Nil models are
// skipped; use Register to get an error for them.
func NewRegistry(models ...SQLModel) *Registry {
	r := &Registry{}
	for _, m := range models {
		_ = r.Register(m)
	}
	return r
}

// Register adds a model. It fails once the registry is sealed.
func (r *Registry) Register(model SQLModel) error {
	if model == nil || model.Instance() == nil {
		return fmt.Errorf("model instance cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return ErrRegistrySealed
	}
	r.models = append(r.models, model)
	return nil
}

// RegisterModel is a shortcut for Register(NewModelAdapter(instance, priority)).
func (r *Registry) RegisterModel(instance interface{}, priority int) error {
	return r.Register(NewModelAdapter(instance, priority))
}

// Seal stops further registration.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Models returns the registered models sorted by ascending priority;
// registration order breaks ties.
func (r *Registry) Models() []SQLModel {
	r.mu.RLock()
	result := make([]SQLModel, len(r.models))
	copy(result, r.models)
	r.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority() < result[j].Priority()
	})
	return result
}

// Instances returns the model instances in creation order.
func (r *Registry) Instances() []interface{} {
	models := r.Models()
	instances := make([]interface{}, len(models))
	for i, m := range models {
		instances[i] = m.Instance()
	}
	return instances
}

// Tables resolves the bun table of every registered model.
func (r *Registry) Tables(d schema.Dialect) []*schema.Table {
	models := r.Models()
	tables := make([]*schema.Table, 0, len(models))
	for _, m := range models {
		tables = append(tables, d.Tables().Get(modelType(m.Instance())))
	}
	return tables
}

// FindByTableName returns the registered model stored in the named table.
func (r *Registry) FindByTableName(d schema.Dialect, name string) (interface{}, bool) {
	for _, m := range r.Models() {
		if d.Tables().Get(modelType(m.Instance())).Name == name {
			return m.Instance(), true
		}
	}
	return nil, false
}

// ColumnValues returns the column values of a model keyed by column name.
func ColumnValues(d schema.Dialect, model interface{}) map[string]interface{} {
	v := reflect.Indirect(reflect.ValueOf(model))
	table := d.Tables().Get(v.Type())
	values := make(map[string]interface{}, len(table.Fields))
	for _, f := range table.Fields {
		values[f.Name] = f.Value(v).Interface()
	}
	return values
}

// FromColumnValues copies values keyed by column name onto model. Keys that
// are not columns of model are ignored and fields without a key keep their
// value. A nil value zeroes its field.
func FromColumnValues(values map[string]interface{}, model interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "bun",
		Squash:           true,
		WeaklyTypedInput: true,
		ZeroFields:       true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
			mapstructure.StringToTimeDurationHookFunc(),
		),
		Result: model,
	})
	if err != nil {
		return err
	}
	return dec.Decode(values)
}

func modelType(model interface{}) reflect.Type {
	t := reflect.TypeOf(model)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
