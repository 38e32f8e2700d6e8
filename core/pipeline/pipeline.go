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

// Package pipeline runs the record transforms of a grid in a fixed order
// (filter, sort, group, page) and caches each stage's last result.
//
// Grid state is not passed in by value: every run reads it through a
// StateAdapter. Stage caches notice when that state is replaced (identity of
// the expression slices) but not when it is changed in place, for example
// the expansion entries toggled by a user. Callers that change grid state in
// place must bump the trigger passed to Run.
package pipeline

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/gridpipe/core/filtering"
	"github.com/google/gridpipe/core/grouping"
	"github.com/google/gridpipe/core/paging"
	"github.com/google/gridpipe/core/records"
	"github.com/google/gridpipe/core/sorting"
)

// GridState is the shared, mutable state of one grid.
type GridState struct {
	SortingExpressions     []sorting.Expression
	FilteringExpressions   []filtering.Expression
	FilteringLogic         filtering.Logic
	GroupingExpressions    []grouping.Expression
	GroupingExpansionState grouping.Expansion
	GroupByDefaultExpanded bool
	PagingEnabled          bool
	// Paging is the requested page. Runs never change it.
	Paging paging.State
	// AppliedPaging is the page the last run resolved Paging to.
	AppliedPaging paging.State
}

// StateAdapter resolves grid ids to their live state.
type StateAdapter interface {
	// Get returns the state of the grid. Unknown ids fail with an error
	// wrapping state.ErrNotFound.
	Get(id string) (*GridState, error)
	// SetPagingState records the page that was applied to the grid. It
	// must leave the requested page untouched.
	SetPagingState(id string, s paging.State) error
}

// Result is the output of one run.
type Result struct {
	// View holds the rows of the current page. Its tree covers every group,
	// including those on other pages.
	View grouping.View
	// Paging is set when paging is enabled for the grid.
	Paging *paging.Result
}

// Stats reports cache use per stage.
type Stats struct {
	Filter StageStats
	Sort   StageStats
	Group  StageStats
	Page   StageStats
}

type Option func(*Pipeline)

// WithLogger sets the logger used for stage decisions (debug level).
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithFilterWorkers evaluates filters on up to n goroutines for large collections.
func WithFilterWorkers(n int) Option {
	return func(p *Pipeline) {
		p.filterWorkers = n
	}
}

type filterKey struct {
	in    Identity
	exprs Identity
	logic filtering.Logic
}

type sortKey struct {
	in    Identity
	exprs Identity
}

type groupKey struct {
	in              Identity
	exprs           Identity
	expansion       Identity
	defaultExpanded bool
}

type pageKey struct {
	rows      Identity
	requested paging.State
}

type pageOutput struct {
	rows   []grouping.Row
	result paging.Result
}

// Pipeline computes the view of one grid. It is safe to call Run from
// several goroutines, but runs are serialized.
type Pipeline struct {
	id            string
	adapter       StateAdapter
	logger        *slog.Logger
	filterWorkers int

	mu         sync.Mutex
	filterGate Gate[filterKey, records.Collection]
	sortGate   Gate[sortKey, records.Collection]
	groupGate  Gate[groupKey, grouping.View]
	flatGate   Gate[Identity, grouping.View]
	pageGate   Gate[pageKey, pageOutput]
}

// New creates the pipeline of grid id.
func New(id string, adapter StateAdapter, opts ...Option) *Pipeline {
	p := &Pipeline{
		id:      id,
		adapter: adapter,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ID returns the grid id.
func (p *Pipeline) ID() string {
	return p.id
}

// Run transforms c with the grid's current state. trigger must be increased
// whenever grid state was changed in place since the previous run.
func (p *Pipeline) Run(c records.Collection, trigger uint64) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, err := p.adapter.Get(p.id)
	if err != nil {
		return Result{}, fmt.Errorf("grid %q: %w", p.id, err)
	}

	filtered := p.filter(c, st, trigger)
	sorted := p.sort(filtered, st, trigger)
	view := p.group(sorted, st, trigger)

	if !st.PagingEnabled {
		return Result{View: view}, nil
	}

	out, recomputed := p.pageGate.Get(pageKey{rows: IdentityOf(view.Rows), requested: st.Paging}, trigger, func() pageOutput {
		rows, res := paging.Page(view.Rows, st.Paging)
		return pageOutput{rows: rows, result: res}
	})
	p.logStage("page", recomputed, len(view.Rows), len(out.rows))
	if out.result.Err != paging.None {
		p.logger.Debug("page request adjusted", "grid", p.id, "requested", st.Paging.PageIndex, "applied", out.result.PageIndex, "reason", out.result.Err)
	}

	if err := p.adapter.SetPagingState(p.id, out.result.State); err != nil {
		return Result{}, fmt.Errorf("grid %q: failed to record paging state: %w", p.id, err)
	}

	view.Rows = out.rows
	res := out.result
	return Result{View: view, Paging: &res}, nil
}

func (p *Pipeline) filter(c records.Collection, st *GridState, trigger uint64) records.Collection {
	if len(st.FilteringExpressions) == 0 {
		return c
	}
	key := filterKey{in: IdentityOf(c), exprs: IdentityOf(st.FilteringExpressions), logic: st.FilteringLogic}
	out, recomputed := p.filterGate.Get(key, trigger, func() records.Collection {
		if p.filterWorkers > 1 {
			return filtering.FilterParallel(c, st.FilteringExpressions, st.FilteringLogic, p.filterWorkers)
		}
		return filtering.Filter(c, st.FilteringExpressions, st.FilteringLogic)
	})
	p.logStage("filter", recomputed, len(c), len(out))
	return out
}

func (p *Pipeline) sort(c records.Collection, st *GridState, trigger uint64) records.Collection {
	if len(st.SortingExpressions) == 0 {
		return c
	}
	key := sortKey{in: IdentityOf(c), exprs: IdentityOf(st.SortingExpressions)}
	out, recomputed := p.sortGate.Get(key, trigger, func() records.Collection {
		return sorting.Sort(c, st.SortingExpressions)
	})
	p.logStage("sort", recomputed, len(c), len(out))
	return out
}

func (p *Pipeline) group(c records.Collection, st *GridState, trigger uint64) grouping.View {
	if len(st.GroupingExpressions) == 0 {
		// Wrapping is not grouping, but the page stage caches on row
		// identity so the wrapped rows are kept as well.
		v, _ := p.flatGate.Get(IdentityOf(c), trigger, func() grouping.View {
			return grouping.Flat(c)
		})
		return v
	}
	key := groupKey{
		in:              IdentityOf(c),
		exprs:           IdentityOf(st.GroupingExpressions),
		expansion:       IdentityOf(st.GroupingExpansionState),
		defaultExpanded: st.GroupByDefaultExpanded,
	}
	out, recomputed := p.groupGate.Get(key, trigger, func() grouping.View {
		return grouping.Group(c, st.GroupingExpressions, st.GroupingExpansionState, st.GroupByDefaultExpanded)
	})
	p.logStage("group", recomputed, len(c), len(out.Rows))
	return out
}

func (p *Pipeline) logStage(stage string, recomputed bool, in, out int) {
	if recomputed {
		p.logger.Debug("stage recomputed", "grid", p.id, "stage", stage, "in", in, "out", out)
	} else {
		p.logger.Debug("stage cached", "grid", p.id, "stage", stage)
	}
}

// Stats returns cache counters of every stage.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Filter: p.filterGate.stats(),
		Sort:   p.sortGate.stats(),
		Group:  p.groupGate.stats(),
		Page:   p.pageGate.stats(),
	}
}

// Invalidate drops every cached stage result.
func (p *Pipeline) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filterGate.Reset()
	p.sortGate.Reset()
	p.groupGate.Reset()
	p.flatGate.Reset()
	p.pageGate.Reset()
}
