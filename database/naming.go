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

import "strings"

// NamingConvention holds the templates used to name generated constraints
// and indexes, so that migrations produce the same names on every engine.
//
// Placeholders: %(table_name)s, %(column_0_name)s, %(column_0_label)s
// (table_column), %(constraint_name)s and %(referred_table_name)s.
type NamingConvention struct {
	Index      string `yaml:"ix" json:"ix"`
	Unique     string `yaml:"uq" json:"uq"`
	Check      string `yaml:"ck" json:"ck"`
	ForeignKey string `yaml:"fk" json:"fk"`
	PrimaryKey string `yaml:"pk" json:"pk"`
}

// DefaultNamingConvention returns the templates used when none are configured.
func DefaultNamingConvention() NamingConvention {
	return NamingConvention{
		Index:      "ix_%(column_0_label)s",
		Unique:     "uq_%(table_name)s_%(column_0_name)s",
		Check:      "ck_%(table_name)s_%(constraint_name)s",
		ForeignKey: "fk_%(table_name)s_%(column_0_name)s_%(referred_table_name)s",
		PrimaryKey: "pk_%(table_name)s",
	}
}

func (nc NamingConvention) orDefault() NamingConvention {
	def := DefaultNamingConvention()
	if nc.Index == "" {
		nc.Index = def.Index
	}
	if nc.Unique == "" {
		nc.Unique = def.Unique
	}
	if nc.Check == "" {
		nc.Check = def.Check
	}
	if nc.ForeignKey == "" {
		nc.ForeignKey = def.ForeignKey
	}
	if nc.PrimaryKey == "" {
		nc.PrimaryKey = def.PrimaryKey
	}
	return nc
}

// IndexName names a plain index on table.column.
func (nc NamingConvention) IndexName(table, column string) string {
	return render(nc.orDefault().Index, map[string]string{
		"table_name":     table,
		"column_0_name":  column,
		"column_0_label": table + "_" + column,
	})
}

// UniqueName names a unique constraint or unique index on table.column.
func (nc NamingConvention) UniqueName(table, column string) string {
	return render(nc.orDefault().Unique, map[string]string{
		"table_name":     table,
		"column_0_name":  column,
		"column_0_label": table + "_" + column,
	})
}

// CheckName names a check constraint.
func (nc NamingConvention) CheckName(table, constraint string) string {
	return render(nc.orDefault().Check, map[string]string{
		"table_name":      table,
		"constraint_name": constraint,
	})
}

// ForeignKeyName names a foreign key from table.column to referredTable.
func (nc NamingConvention) ForeignKeyName(table, column, referredTable string) string {
	return render(nc.orDefault().ForeignKey, map[string]string{
		"table_name":          table,
		"column_0_name":       column,
		"column_0_label":      table + "_" + column,
		"referred_table_name": referredTable,
	})
}

// PrimaryKeyName names the primary key of table.
func (nc NamingConvention) PrimaryKeyName(table string) string {
	return render(nc.orDefault().PrimaryKey, map[string]string{"table_name": table})
}

func render(tmpl string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "%("+k+")s", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
