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

// Package state keeps the live state of every grid, keyed by grid id.
package state

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/google/gridpipe/core/grouping"
	"github.com/google/gridpipe/core/paging"
	"github.com/google/gridpipe/core/pipeline"
	"github.com/google/gridpipe/core/sorting"
)

// ErrNotFound is returned for grid ids that were never registered.
var ErrNotFound = errors.New("grid not found")

// Store is an in-memory registry of grid states. It implements
// pipeline.StateAdapter.
//
// The returned *GridState values are shared with the store. Changes made
// through Store methods that modify state in place bump the grid's trigger,
// which callers pass on to pipeline.Run.
type Store struct {
	mu       sync.RWMutex
	grids    map[string]*pipeline.GridState
	triggers map[string]uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		grids:    make(map[string]*pipeline.GridState),
		triggers: make(map[string]uint64),
	}
}

// Create registers st under a new random id and returns the id.
func (s *Store) Create(st *pipeline.GridState) string {
	id := uuid.NewString()
	s.Register(id, st)
	return id
}

// Register stores st under id, replacing any previous state.
func (s *Store) Register(id string, st *pipeline.GridState) {
	if st == nil {
		st = &pipeline.GridState{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grids[id] = st
	s.triggers[id]++
}

// Delete removes a grid.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grids, id)
	delete(s.triggers, id)
}

// IDs returns the registered grid ids, sorted.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.grids))
	for id := range s.grids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Get returns the live state of grid id.
func (s *Store) Get(id string) (*pipeline.GridState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.grids[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return st, nil
}

// SetPagingState records the page applied to grid id. The requested page
// is kept.
func (s *Store) SetPagingState(id string, p paging.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.grids[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	st.AppliedPaging = p
	return nil
}

// Trigger returns the invalidation counter of grid id.
func (s *Store) Trigger(id string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.triggers[id]
}

// update runs f on the state of id and bumps its trigger.
func (s *Store) update(id string, f func(st *pipeline.GridState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.grids[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	f(st)
	s.triggers[id]++
	return nil
}

// ToggleGroup flips the expanded state of the group at path in place.
func (s *Store) ToggleGroup(id string, path grouping.KeyPath) (bool, error) {
	var expanded bool
	err := s.update(id, func(st *pipeline.GridState) {
		expanded = st.GroupingExpansionState.Toggle(path, st.GroupByDefaultExpanded)
	})
	return expanded, err
}

// GroupBy adds a grouping level and makes sure the sort order starts with
// the grouping fields so that equal keys are contiguous. Both expression
// lists are replaced, not modified.
func (s *Store) GroupBy(id string, expr grouping.Expression, dir sorting.Direction) error {
	return s.update(id, func(st *pipeline.GridState) {
		for _, g := range st.GroupingExpressions {
			if g.FieldName == expr.FieldName {
				return
			}
		}
		groups := append(append([]grouping.Expression{}, st.GroupingExpressions...), expr)
		st.GroupingExpressions = groups
		st.SortingExpressions = SortForGrouping(groups, st.SortingExpressions, dir)
	})
}

// Ungroup removes a grouping level. Sort expressions are left alone.
func (s *Store) Ungroup(id, field string) error {
	return s.update(id, func(st *pipeline.GridState) {
		groups := make([]grouping.Expression, 0, len(st.GroupingExpressions))
		for _, g := range st.GroupingExpressions {
			if g.FieldName != field {
				groups = append(groups, g)
			}
		}
		st.GroupingExpressions = groups
	})
}

// SetPage requests a page. The request is applied and clamped on the next run.
func (s *Store) SetPage(id string, pageIndex, recordsPerPage int) error {
	return s.update(id, func(st *pipeline.GridState) {
		st.PagingEnabled = true
		st.Paging = paging.State{PageIndex: pageIndex, RecordsPerPage: recordsPerPage}
	})
}

// SortForGrouping returns a sort order that starts with one key per
// grouping level followed by the remaining keys of current. Grouping fields
// already in current keep their direction; new ones get dir.
func SortForGrouping(groups []grouping.Expression, current []sorting.Expression, dir sorting.Direction) []sorting.Expression {
	existing := make(map[string]sorting.Expression, len(current))
	for _, e := range current {
		existing[e.FieldName] = e
	}
	grouped := make(map[string]bool, len(groups))
	out := make([]sorting.Expression, 0, len(groups)+len(current))
	for _, g := range groups {
		grouped[g.FieldName] = true
		if e, ok := existing[g.FieldName]; ok {
			out = append(out, e)
			continue
		}
		out = append(out, sorting.Expression{FieldName: g.FieldName, Direction: dir, IgnoreCase: g.IgnoreCase})
	}
	for _, e := range current {
		if !grouped[e.FieldName] {
			out = append(out, e)
		}
	}
	return out
}
