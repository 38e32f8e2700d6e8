/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Taxinomia Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package state

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/google/gridpipe/core/filtering"
	"github.com/google/gridpipe/core/grouping"
	"github.com/google/gridpipe/core/paging"
	"github.com/google/gridpipe/core/pipeline"
	"github.com/google/gridpipe/core/records"
	"github.com/google/gridpipe/core/sorting"
)

// Config declares the initial state of one or more grids.
//
//	grids:
//	  - id: orders
//	    filtering:
//	      logic: or
//	      expressions:
//	        - {field: amount, condition: greaterThan, value: 100}
//	    sorting:
//	      - {field: region, direction: asc, ignoreCase: true}
//	    grouping:
//	      fields: [{field: status}]
//	      defaultExpanded: true
//	      expansion:
//	        - path: [{field: status, value: Pending}]
//	          expanded: false
//	    paging: {enabled: true, page: 0, perPage: 15}
type Config struct {
	Grids []GridConfig `yaml:"grids"`
}

type GridConfig struct {
	ID        string          `yaml:"id"`
	Filtering FilteringConfig `yaml:"filtering"`
	Sorting   []SortConfig    `yaml:"sorting"`
	Grouping  GroupingConfig  `yaml:"grouping"`
	Paging    PagingConfig    `yaml:"paging"`
}

type FilteringConfig struct {
	Logic       string         `yaml:"logic"`
	Expressions []FilterConfig `yaml:"expressions"`
}

type FilterConfig struct {
	Field     string `yaml:"field"`
	Condition string `yaml:"condition"`
	// Type selects the condition catalogue (string, number, date, boolean).
	// When empty it is inferred from the value.
	Type       string `yaml:"type"`
	Value      any    `yaml:"value"`
	IgnoreCase bool   `yaml:"ignoreCase"`
}

type SortConfig struct {
	Field      string `yaml:"field"`
	Direction  string `yaml:"direction"`
	IgnoreCase bool   `yaml:"ignoreCase"`
}

type GroupFieldConfig struct {
	Field      string `yaml:"field"`
	IgnoreCase bool   `yaml:"ignoreCase"`
}

type KeyPartConfig struct {
	Field string `yaml:"field"`
	Value any    `yaml:"value"`
}

type ExpandConfig struct {
	Path     []KeyPartConfig `yaml:"path"`
	Expanded bool            `yaml:"expanded"`
}

type GroupingConfig struct {
	Fields []GroupFieldConfig `yaml:"fields"`
	// DefaultExpanded defaults to true when omitted.
	DefaultExpanded *bool          `yaml:"defaultExpanded"`
	Expansion       []ExpandConfig `yaml:"expansion"`
}

type PagingConfig struct {
	Enabled bool `yaml:"enabled"`
	Page    int  `yaml:"page"`
	PerPage int  `yaml:"perPage"`
}

// DefaultRecordsPerPage is used when paging is enabled without a page size.
const DefaultRecordsPerPage = 15

// LoadConfig reads a YAML grid config from a file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses a YAML grid config. Unknown keys are rejected.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	for i, g := range cfg.Grids {
		if g.ID == "" {
			return nil, fmt.Errorf("grid %d: missing id", i)
		}
	}
	return cfg, nil
}

// Load registers every grid of cfg in the store.
func (s *Store) Load(cfg *Config) error {
	for _, g := range cfg.Grids {
		st, err := g.State()
		if err != nil {
			return err
		}
		s.Register(g.ID, st)
	}
	return nil
}

// State converts the config of one grid into its runtime state.
func (g GridConfig) State() (*pipeline.GridState, error) {
	st := &pipeline.GridState{
		FilteringLogic:         filtering.ParseLogic(g.Filtering.Logic),
		GroupByDefaultExpanded: true,
		PagingEnabled:          g.Paging.Enabled,
		Paging:                 paging.State{PageIndex: g.Paging.Page, RecordsPerPage: g.Paging.PerPage},
	}
	if st.PagingEnabled && st.Paging.RecordsPerPage == 0 {
		st.Paging.RecordsPerPage = DefaultRecordsPerPage
	}

	for _, f := range g.Filtering.Expressions {
		e, err := f.expression()
		if err != nil {
			return nil, fmt.Errorf("grid %s: %w", g.ID, err)
		}
		st.FilteringExpressions = append(st.FilteringExpressions, e)
	}

	for _, sc := range g.Sorting {
		dir, err := sorting.ParseDirection(sc.Direction)
		if err != nil {
			return nil, fmt.Errorf("grid %s: sort on %q: %w", g.ID, sc.Field, err)
		}
		st.SortingExpressions = append(st.SortingExpressions, sorting.Expression{FieldName: sc.Field, Direction: dir, IgnoreCase: sc.IgnoreCase})
	}

	for _, gf := range g.Grouping.Fields {
		st.GroupingExpressions = append(st.GroupingExpressions, grouping.Expression{FieldName: gf.Field, IgnoreCase: gf.IgnoreCase})
	}
	if g.Grouping.DefaultExpanded != nil {
		st.GroupByDefaultExpanded = *g.Grouping.DefaultExpanded
	}
	for _, ec := range g.Grouping.Expansion {
		path := make(grouping.KeyPath, len(ec.Path))
		for i, part := range ec.Path {
			path[i] = grouping.KeyPart{FieldName: part.Field, Value: records.FromAny(part.Value)}
		}
		st.GroupingExpansionState = append(st.GroupingExpansionState, grouping.ExpandState{Path: path, Expanded: ec.Expanded})
	}
	return st, nil
}

func (f FilterConfig) expression() (filtering.Expression, error) {
	kind := records.Null
	if f.Type != "" {
		k, err := records.ParseKind(f.Type)
		if err != nil {
			return filtering.Expression{}, fmt.Errorf("filter on %q: %w", f.Field, err)
		}
		kind = k
	}
	// Text values go through the same parsing as URL parameters so that
	// dates and typed values written as strings work.
	if raw, ok := f.Value.(string); ok {
		return filtering.ParseExpression(f.Field, f.Condition, kind, raw, f.IgnoreCase)
	}
	search := records.FromAny(f.Value)
	if kind == records.Time && search.Kind() != records.Time && !search.IsNull() {
		return filtering.Expression{}, fmt.Errorf("filter on %q: %v is not a date", f.Field, f.Value)
	}
	return filtering.NewExpression(f.Field, f.Condition, kind, search, f.IgnoreCase)
}
