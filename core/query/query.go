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

// Package query encodes grid state in URLs so that a view can be shared as
// a link and restored from it.
//
// Parameters:
//
//	grid=orders
//	columns=status,region,amount              visible fields, in display order
//	sort=region:asc:i,amount:desc             ":i" ignores case
//	filter:amount:number=greaterThan:100      repeatable; "~" before the condition ignores case
//	logic=or
//	grouped=status,~region                    "~" ignores case
//	expanded=status:string=Active/region=North  repeatable; "!" prefix collapses
//	defaultExpanded=false
//	page=2&limit=15                           limit 0 shows everything
//	agg=amount:sum:avg,express:ratio          aggregates shown on group headers
//
// Field names must not contain any of & = : , / ~ !
package query

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/google/safehtml"

	"github.com/google/gridpipe/core/aggregates"
	"github.com/google/gridpipe/core/filtering"
	"github.com/google/gridpipe/core/grouping"
	"github.com/google/gridpipe/core/paging"
	"github.com/google/gridpipe/core/pipeline"
	"github.com/google/gridpipe/core/records"
	"github.com/google/gridpipe/core/sorting"
)

// Query represents the parsed state of a grid view URL
type Query struct {
	// Base path (e.g., "/grid")
	Path string

	Grid            string                 // The grid being viewed
	Columns         []string               // Visible fields (reordered: filtered, grouped, then others)
	Sorting         []sorting.Expression   // Sort keys, outermost first
	Filters         []filtering.Expression // Filter expressions
	Logic           filtering.Logic        // How filters combine
	Grouped         []grouping.Expression  // Grouping levels, outermost first
	Expanded        grouping.Expansion     // Explicit expand/collapse entries
	DefaultExpanded bool                   // Expanded state of groups without an entry
	Paging          *paging.State          // nil when paging is disabled
	Aggregates      []aggregates.Spec      // Aggregates shown on group headers
}

// NewQuery creates a Query from a URL
func NewQuery(u *url.URL) (*Query, error) {
	q := u.Query()
	s := &Query{
		Path:            u.Path,
		Grid:            q.Get("grid"),
		Logic:           filtering.ParseLogic(q.Get("logic")),
		DefaultExpanded: true,
	}

	if columns := q.Get("columns"); columns != "" {
		s.Columns = strings.Split(columns, ",")
	}

	if sortStr := q.Get("sort"); sortStr != "" {
		for _, part := range strings.Split(sortStr, ",") {
			e, err := parseSort(part)
			if err != nil {
				return nil, err
			}
			s.Sorting = append(s.Sorting, e)
		}
	}

	// Sorted keys keep the filter order stable across round trips
	keys := make([]string, 0, len(q))
	for key := range q {
		if strings.HasPrefix(key, "filter:") {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		for _, value := range q[key] {
			e, err := parseFilter(key, value)
			if err != nil {
				return nil, err
			}
			s.Filters = append(s.Filters, e)
		}
	}

	if grouped := q.Get("grouped"); grouped != "" {
		for _, field := range strings.Split(grouped, ",") {
			field, ignoreCase := strings.CutPrefix(field, "~")
			s.Grouped = append(s.Grouped, grouping.Expression{FieldName: field, IgnoreCase: ignoreCase})
		}
	}

	for _, value := range q["expanded"] {
		entry, err := parseExpandState(value)
		if err != nil {
			return nil, err
		}
		s.Expanded = append(s.Expanded, entry)
	}

	if v := q.Get("defaultExpanded"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid defaultExpanded %q: %w", v, err)
		}
		s.DefaultExpanded = b
	}

	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, fmt.Errorf("invalid limit %q: %w", limitStr, err)
		}
		page := 0
		if pageStr := q.Get("page"); pageStr != "" {
			if page, err = strconv.Atoi(pageStr); err != nil {
				return nil, fmt.Errorf("invalid page %q: %w", pageStr, err)
			}
		}
		s.Paging = &paging.State{PageIndex: page, RecordsPerPage: limit}
	}

	specs, err := aggregates.ParseSpecs(q.Get("agg"))
	if err != nil {
		return nil, err
	}
	s.Aggregates = specs

	s.reorderColumns()
	return s, nil
}

func parseSort(part string) (sorting.Expression, error) {
	fields := strings.Split(part, ":")
	e := sorting.Expression{FieldName: fields[0]}
	if len(fields) > 1 {
		dir, err := sorting.ParseDirection(fields[1])
		if err != nil {
			return e, fmt.Errorf("sort on %q: %w", fields[0], err)
		}
		e.Direction = dir
	}
	if len(fields) > 2 && fields[2] == "i" {
		e.IgnoreCase = true
	}
	return e, nil
}

// parseFilter parses key "filter:field[:type]" and value "[~]condition:search"
func parseFilter(key, value string) (filtering.Expression, error) {
	keyParts := strings.Split(strings.TrimPrefix(key, "filter:"), ":")
	field := keyParts[0]
	kind := records.Null
	if len(keyParts) > 1 {
		k, err := records.ParseKind(keyParts[1])
		if err != nil {
			return filtering.Expression{}, fmt.Errorf("filter on %q: %w", field, err)
		}
		kind = k
	}
	condition, search, _ := strings.Cut(value, ":")
	condition, ignoreCase := strings.CutPrefix(condition, "~")
	return filtering.ParseExpression(field, condition, kind, search, ignoreCase)
}

// parseExpandState parses "[!]field[:type]=value/field[:type]=value".
// Without a type the kind of each value is detected from its text.
func parseExpandState(value string) (grouping.ExpandState, error) {
	value, collapsed := strings.CutPrefix(value, "!")
	entry := grouping.ExpandState{Expanded: !collapsed}
	for _, part := range strings.Split(value, "/") {
		field, raw, ok := strings.Cut(part, "=")
		if !ok {
			return entry, fmt.Errorf("invalid expanded path %q", value)
		}
		raw, err := url.PathUnescape(raw)
		if err != nil {
			return entry, fmt.Errorf("invalid expanded path %q: %w", value, err)
		}
		kind := records.DetectKind(raw)
		if f, k, ok := strings.Cut(field, ":"); ok {
			if kind, err = records.ParseKind(k); err != nil {
				return entry, fmt.Errorf("invalid expanded path %q: %w", value, err)
			}
			field = f
		}
		v, err := records.ParseValue(kind, raw)
		if err != nil {
			return entry, err
		}
		entry.Path = append(entry.Path, grouping.KeyPart{FieldName: field, Value: v})
	}
	return entry, nil
}

// FromState builds the query describing st.
func FromState(path, grid string, columns []string, st *pipeline.GridState) *Query {
	s := &Query{
		Path:            path,
		Grid:            grid,
		Columns:         append([]string(nil), columns...),
		Sorting:         append([]sorting.Expression(nil), st.SortingExpressions...),
		Filters:         append([]filtering.Expression(nil), st.FilteringExpressions...),
		Logic:           st.FilteringLogic,
		Grouped:         append([]grouping.Expression(nil), st.GroupingExpressions...),
		Expanded:        append(grouping.Expansion(nil), st.GroupingExpansionState...),
		DefaultExpanded: st.GroupByDefaultExpanded,
	}
	if st.PagingEnabled {
		p := st.Paging
		s.Paging = &p
	}
	s.reorderColumns()
	return s
}

// State converts the query into a new grid state.
func (s *Query) State() *pipeline.GridState {
	st := &pipeline.GridState{
		SortingExpressions:     append([]sorting.Expression(nil), s.Sorting...),
		FilteringExpressions:   append([]filtering.Expression(nil), s.Filters...),
		FilteringLogic:         s.Logic,
		GroupingExpressions:    append([]grouping.Expression(nil), s.Grouped...),
		GroupingExpansionState: append(grouping.Expansion(nil), s.Expanded...),
		GroupByDefaultExpanded: s.DefaultExpanded,
	}
	if s.Paging != nil {
		st.PagingEnabled = true
		st.Paging = *s.Paging
	}
	return st
}

// Clone creates a deep copy of the Query
func (s *Query) Clone() *Query {
	clone := *s
	clone.Columns = append([]string(nil), s.Columns...)
	clone.Sorting = append([]sorting.Expression(nil), s.Sorting...)
	clone.Filters = append([]filtering.Expression(nil), s.Filters...)
	clone.Grouped = append([]grouping.Expression(nil), s.Grouped...)
	clone.Expanded = make(grouping.Expansion, len(s.Expanded))
	for i, e := range s.Expanded {
		clone.Expanded[i] = grouping.ExpandState{Path: append(grouping.KeyPath(nil), e.Path...), Expanded: e.Expanded}
	}
	if s.Paging != nil {
		p := *s.Paging
		clone.Paging = &p
	}
	clone.Aggregates = make([]aggregates.Spec, len(s.Aggregates))
	for i, spec := range s.Aggregates {
		clone.Aggregates[i] = aggregates.Spec{FieldName: spec.FieldName, Types: append([]aggregates.Type(nil), spec.Types...)}
	}
	return &clone
}

// reorderColumns reorders the Columns slice to maintain:
// 1. Filtered columns (leftmost) - only columns that are filtered but NOT grouped
// 2. Grouped columns (middle) - in Grouped order (the grouping hierarchy)
// 3. Other columns (rightmost)
func (s *Query) reorderColumns() {
	if len(s.Columns) == 0 {
		return
	}

	filteredCols := make(map[string]bool)
	for _, f := range s.Filters {
		filteredCols[f.FieldName] = true
	}
	groupedCols := make(map[string]bool)
	for _, g := range s.Grouped {
		groupedCols[g.FieldName] = true
	}
	visibleCols := make(map[string]bool)
	for _, colName := range s.Columns {
		visibleCols[colName] = true
	}

	var filtered, others []string
	for _, colName := range s.Columns {
		if groupedCols[colName] {
			continue
		} else if filteredCols[colName] {
			filtered = append(filtered, colName)
		} else {
			others = append(others, colName)
		}
	}

	var grouped []string
	for _, g := range s.Grouped {
		if visibleCols[g.FieldName] {
			grouped = append(grouped, g.FieldName)
		}
	}

	s.Columns = make([]string, 0, len(filtered)+len(grouped)+len(others))
	s.Columns = append(s.Columns, filtered...)
	s.Columns = append(s.Columns, grouped...)
	s.Columns = append(s.Columns, others...)
}

// ToURL converts the Query back to a URL string
func (s *Query) ToURL() string {
	u := &url.URL{Path: s.Path}
	q := u.Query()

	if s.Grid != "" {
		q.Set("grid", s.Grid)
	}
	if len(s.Columns) > 0 {
		q.Set("columns", strings.Join(s.Columns, ","))
	}

	if len(s.Sorting) > 0 {
		parts := make([]string, len(s.Sorting))
		for i, e := range s.Sorting {
			parts[i] = e.FieldName + ":" + e.Direction.String()
			if e.IgnoreCase {
				parts[i] += ":i"
			}
		}
		q.Set("sort", strings.Join(parts, ","))
	}

	for _, f := range s.Filters {
		key := "filter:" + f.FieldName + ":" + f.Kind().String()
		condition := f.Condition.Name
		if f.IgnoreCase {
			condition = "~" + condition
		}
		q.Add(key, condition+":"+f.SearchValue.String())
	}
	if s.Logic == filtering.Or {
		q.Set("logic", s.Logic.String())
	}

	if len(s.Grouped) > 0 {
		parts := make([]string, len(s.Grouped))
		for i, g := range s.Grouped {
			parts[i] = g.FieldName
			if g.IgnoreCase {
				parts[i] = "~" + parts[i]
			}
		}
		q.Set("grouped", strings.Join(parts, ","))
	}

	for _, e := range s.Expanded {
		q.Add("expanded", formatExpandState(e))
	}
	if !s.DefaultExpanded {
		q.Set("defaultExpanded", "false")
	}

	if s.Paging != nil {
		q.Set("page", strconv.Itoa(s.Paging.PageIndex))
		q.Set("limit", strconv.Itoa(s.Paging.RecordsPerPage))
	}
	if len(s.Aggregates) > 0 {
		q.Set("agg", aggregates.FormatSpecs(s.Aggregates))
	}

	u.RawQuery = q.Encode()
	return u.String()
}

func formatExpandState(e grouping.ExpandState) string {
	var sb strings.Builder
	if !e.Expanded {
		sb.WriteString("!")
	}
	for i, part := range e.Path {
		if i > 0 {
			sb.WriteString("/")
		}
		sb.WriteString(part.FieldName)
		sb.WriteString(":")
		sb.WriteString(part.Value.Kind().String())
		sb.WriteString("=")
		sb.WriteString(url.PathEscape(part.Value.String()))
	}
	return sb.String()
}

// ToSafeURL converts the Query to a safehtml.URL
func (s *Query) ToSafeURL() safehtml.URL {
	return safehtml.URLSanitized(s.ToURL())
}

// IsColumnVisible checks if a column is in the visible columns list
func (s *Query) IsColumnVisible(column string) bool {
	for _, col := range s.Columns {
		if col == column {
			return true
		}
	}
	return false
}

// IsColumnGrouped checks if a column is a grouping level
func (s *Query) IsColumnGrouped(column string) bool {
	for _, g := range s.Grouped {
		if g.FieldName == column {
			return true
		}
	}
	return false
}

// WithColumnToggled returns a URL with the column toggled (added if not present, removed if present)
func (s *Query) WithColumnToggled(column string) safehtml.URL {
	newState := s.Clone()
	newColumns := make([]string, 0, len(s.Columns))
	found := false
	for _, col := range s.Columns {
		if col == column {
			found = true
		} else {
			newColumns = append(newColumns, col)
		}
	}
	if !found {
		newColumns = append(newColumns, column)
	}
	newState.Columns = newColumns
	newState.reorderColumns()
	return newState.ToSafeURL()
}

// WithSortCycled returns a URL where the sort key of column moves through
// ascending, descending and unsorted, the way clicking a column header does.
// A newly sorted column becomes the last key.
func (s *Query) WithSortCycled(column string) safehtml.URL {
	newState := s.Clone()
	newSorting := make([]sorting.Expression, 0, len(s.Sorting)+1)
	found := false
	for _, e := range s.Sorting {
		if e.FieldName != column {
			newSorting = append(newSorting, e)
			continue
		}
		found = true
		if e.Direction == sorting.Ascending {
			e.Direction = sorting.Descending
			newSorting = append(newSorting, e)
		}
	}
	if !found {
		newSorting = append(newSorting, sorting.Expression{FieldName: column})
	}
	newState.Sorting = newSorting
	return newState.ToSafeURL()
}

// WithGroupedColumnToggled returns a URL with the grouped column toggled.
// A newly grouped column becomes the innermost level. Columns are
// reordered so that grouped columns come first.
func (s *Query) WithGroupedColumnToggled(column string) safehtml.URL {
	newState := s.Clone()
	newGrouped := make([]grouping.Expression, 0, len(s.Grouped)+1)
	found := false
	for _, g := range s.Grouped {
		if g.FieldName == column {
			found = true
		} else {
			newGrouped = append(newGrouped, g)
		}
	}
	if !found {
		newGrouped = append(newGrouped, grouping.Expression{FieldName: column})
	}
	newState.Grouped = newGrouped
	newState.reorderColumns()
	return newState.ToSafeURL()
}

// WithExpandedToggled returns a URL with the group at path flipped between
// expanded and collapsed.
func (s *Query) WithExpandedToggled(path grouping.KeyPath) safehtml.URL {
	newState := s.Clone()
	newState.Expanded.Toggle(path, s.DefaultExpanded)
	return newState.ToSafeURL()
}

// WithFilter returns a URL with the expression added
func (s *Query) WithFilter(e filtering.Expression) safehtml.URL {
	newState := s.Clone()
	newState.Filters = append(newState.Filters, e)
	newState.reorderColumns()
	return newState.ToSafeURL()
}

// WithoutFilters returns a URL with every filter on column removed
func (s *Query) WithoutFilters(column string) safehtml.URL {
	newState := s.Clone()
	newFilters := make([]filtering.Expression, 0, len(s.Filters))
	for _, f := range s.Filters {
		if f.FieldName != column {
			newFilters = append(newFilters, f)
		}
	}
	newState.Filters = newFilters
	newState.reorderColumns()
	return newState.ToSafeURL()
}

// WithPage returns a URL showing another page. Paging is enabled with the
// given page size if it was off.
func (s *Query) WithPage(pageIndex, recordsPerPage int) safehtml.URL {
	newState := s.Clone()
	newState.Paging = &paging.State{PageIndex: pageIndex, RecordsPerPage: recordsPerPage}
	return newState.ToSafeURL()
}

// WithLimit returns a URL with a different page size, back on the first page
func (s *Query) WithLimit(limit int) safehtml.URL {
	return s.WithPage(0, limit)
}

// WithAggregateToggled returns a URL with the aggregate t of column added
// or removed.
func (s *Query) WithAggregateToggled(column string, t aggregates.Type) safehtml.URL {
	newState := s.Clone()
	newSpecs := make([]aggregates.Spec, 0, len(newState.Aggregates)+1)
	found := false
	for _, spec := range newState.Aggregates {
		if spec.FieldName == column {
			found = true
			types := make([]aggregates.Type, 0, len(spec.Types)+1)
			present := false
			for _, existing := range spec.Types {
				if existing == t {
					present = true
				} else {
					types = append(types, existing)
				}
			}
			if !present {
				types = append(types, t)
			}
			spec.Types = types
		}
		if len(spec.Types) > 0 {
			newSpecs = append(newSpecs, spec)
		}
	}
	if !found {
		newSpecs = append(newSpecs, aggregates.Spec{FieldName: column, Types: []aggregates.Type{t}})
	}
	newState.Aggregates = newSpecs
	return newState.ToSafeURL()
}
