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

// Package grouping segments a sorted collection into a hierarchy of groups
// and flattens it into rows of group headers and records.
//
// Terminology:
// * the list of fields that form the grouping hierarchy are the grouping expressions
// * a group is a contiguous run of records sharing the value of its level's field
// * the key path of a group is the list of field values from the outermost level down to it
//
// Grouping never re-sorts. Two runs with the same key that are not adjacent
// in the input become two sibling groups.
package grouping

import (
	"strings"

	"github.com/google/gridpipe/core/records"
)

// Expression is one grouping level.
type Expression struct {
	FieldName  string
	IgnoreCase bool
}

// Fields returns the field names of exprs, outermost first.
func Fields(exprs []Expression) []string {
	names := make([]string, len(exprs))
	for i, e := range exprs {
		names[i] = e.FieldName
	}
	return names
}

// KeyPart is the value of one grouping field. IgnoreCase is set on the
// parts of levels that group case-insensitively.
type KeyPart struct {
	FieldName  string
	Value      records.Value
	IgnoreCase bool
}

// KeyPath identifies a group by the values of every level down to it.
type KeyPath []KeyPart

// Equal compares two paths field by field. Values are compared exactly,
// or case-folded when either part ignores case.
func (p KeyPath) Equal(o KeyPath) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		ignoreCase := p[i].IgnoreCase || o[i].IgnoreCase
		if p[i].FieldName != o[i].FieldName || !records.Equal(p[i].Value, o[i].Value, ignoreCase) {
			return false
		}
	}
	return true
}

// String renders the path as field=value/field=value.
func (p KeyPath) String() string {
	var sb strings.Builder
	for i, part := range p {
		if i > 0 {
			sb.WriteString("/")
		}
		sb.WriteString(part.FieldName)
		sb.WriteString("=")
		sb.WriteString(part.Value.String())
	}
	return sb.String()
}

// ExpandState overrides the default expanded flag of one group.
type ExpandState struct {
	Path     KeyPath
	Expanded bool
}

// Expansion is the list of explicit expand/collapse entries of a grid. It is
// owned by the grid and changed in place, so consumers that cache on its
// identity must be told about changes separately.
type Expansion []ExpandState

// Lookup returns the explicit state of path, if any. The first matching
// entry wins.
func (e Expansion) Lookup(path KeyPath) (expanded bool, ok bool) {
	for _, s := range e {
		if s.Path.Equal(path) {
			return s.Expanded, true
		}
	}
	return false, false
}

// Set records the state of path, replacing an existing entry in place.
func (e *Expansion) Set(path KeyPath, expanded bool) {
	for i := range *e {
		if (*e)[i].Path.Equal(path) {
			(*e)[i].Expanded = expanded
			return
		}
	}
	*e = append(*e, ExpandState{Path: path, Expanded: expanded})
}

// Toggle flips the resolved state of path and returns the new state.
func (e *Expansion) Toggle(path KeyPath, defaultExpanded bool) bool {
	expanded, ok := e.Lookup(path)
	if !ok {
		expanded = defaultExpanded
	}
	e.Set(path, !expanded)
	return !expanded
}

// Node is one group. Nodes live in a Tree and refer to each other by index.
type Node struct {
	Path     KeyPath
	Level    int
	Parent   int // -1 for top level groups
	Children []int
	// Records are all records below the group, nested groups included.
	Records  records.Collection
	Expanded bool
}

// Count is the number of records below the group, whether or not it is expanded.
func (n *Node) Count() int {
	return len(n.Records)
}

// Value is the key of the node's own level.
func (n *Node) Value() records.Value {
	return n.Path[len(n.Path)-1].Value
}

// FieldName is the grouping field of the node's level.
func (n *Node) FieldName() string {
	return n.Path[len(n.Path)-1].FieldName
}

// Tree is a flat arena of groups in document order (parents before children).
type Tree struct {
	Nodes []Node
	Roots []int
}

// Depth is the number of grouping levels.
func (t *Tree) Depth() int {
	depth := 0
	for i := range t.Nodes {
		if t.Nodes[i].Level+1 > depth {
			depth = t.Nodes[i].Level + 1
		}
	}
	return depth
}

// LeafCount sums the record counts of all groups at level.
func (t *Tree) LeafCount(level int) int {
	total := 0
	for i := range t.Nodes {
		if t.Nodes[i].Level == level {
			total += t.Nodes[i].Count()
		}
	}
	return total
}

// Find returns the index of the group with the given path, or -1.
func (t *Tree) Find(path KeyPath) int {
	for i := range t.Nodes {
		if t.Nodes[i].Path.Equal(path) {
			return i
		}
	}
	return -1
}

// Row is either a group header or a record.
type Row struct {
	// Node is the index of the group in the view's tree, -1 for records.
	Node   int
	Record records.Record
}

// IsHeader reports whether the row is a group header.
func (r Row) IsHeader() bool {
	return r.Node >= 0
}

// View is the flattened output of Group.
type View struct {
	Rows []Row
	Tree Tree
}

// Records returns the visible records of the view, headers excluded.
func (v View) Records() records.Collection {
	out := make(records.Collection, 0, len(v.Rows))
	for _, r := range v.Rows {
		if !r.IsHeader() {
			out = append(out, r.Record)
		}
	}
	return out
}

// Header returns the node of a header row.
func (v *View) Header(r Row) *Node {
	if !r.IsHeader() {
		return nil
	}
	return &v.Tree.Nodes[r.Node]
}

// Flat wraps a collection in a view with no groups.
func Flat(c records.Collection) View {
	rows := make([]Row, len(c))
	for i, r := range c {
		rows[i] = Row{Node: -1, Record: r}
	}
	return View{Rows: rows}
}

// Group builds the group hierarchy of c for exprs and flattens it. Every
// group is expanded unless expansion says otherwise or, when it has no
// entry, defaultExpanded is false. Collapsed groups keep their header and
// count but hide everything below them. An empty expression list gives a
// view with every record and no headers.
func Group(c records.Collection, exprs []Expression, expansion Expansion, defaultExpanded bool) View {
	if len(exprs) == 0 {
		return Flat(c)
	}
	b := &builder{exprs: exprs, expansion: expansion, defaultExpanded: defaultExpanded}
	b.group(c, 0, -1, nil)
	v := View{Tree: b.tree, Rows: make([]Row, 0, len(c)+len(b.tree.Nodes))}
	for _, root := range b.tree.Roots {
		v.Rows = b.flatten(v.Rows, root)
	}
	return v
}

type builder struct {
	exprs           []Expression
	expansion       Expansion
	defaultExpanded bool
	tree            Tree
}

// group segments run on the field of level and recurses into each segment.
func (b *builder) group(run records.Collection, level, parent int, prefix KeyPath) {
	e := b.exprs[level]
	start := 0
	for start < len(run) {
		key := run[start].Lookup(e.FieldName)
		end := start + 1
		for end < len(run) && records.Equal(run[end].Lookup(e.FieldName), key, e.IgnoreCase) {
			end++
		}

		path := make(KeyPath, len(prefix), len(prefix)+1)
		copy(path, prefix)
		path = append(path, KeyPart{FieldName: e.FieldName, Value: key, IgnoreCase: e.IgnoreCase})

		expanded, ok := b.expansion.Lookup(path)
		if !ok {
			expanded = b.defaultExpanded
		}

		idx := len(b.tree.Nodes)
		b.tree.Nodes = append(b.tree.Nodes, Node{
			Path:     path,
			Level:    level,
			Parent:   parent,
			Records:  run[start:end:end],
			Expanded: expanded,
		})
		if parent < 0 {
			b.tree.Roots = append(b.tree.Roots, idx)
		} else {
			b.tree.Nodes[parent].Children = append(b.tree.Nodes[parent].Children, idx)
		}

		if level+1 < len(b.exprs) {
			b.group(run[start:end:end], level+1, idx, path)
		}
		start = end
	}
}

func (b *builder) flatten(rows []Row, idx int) []Row {
	rows = append(rows, Row{Node: idx})
	n := &b.tree.Nodes[idx]
	if !n.Expanded {
		return rows
	}
	if len(n.Children) == 0 {
		for _, r := range n.Records {
			rows = append(rows, Row{Node: -1, Record: r})
		}
		return rows
	}
	for _, child := range n.Children {
		rows = b.flatten(rows, child)
	}
	return rows
}
