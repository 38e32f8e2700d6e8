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

package aggregates

import (
	"fmt"
	"strings"

	"github.com/google/gridpipe/core/grouping"
	"github.com/google/gridpipe/core/records"
)

// Spec requests aggregates of one field.
type Spec struct {
	FieldName string
	Types     []Type
}

// ParseSpecs parses "field:type:type,field:type".
func ParseSpecs(s string) ([]Spec, error) {
	if s == "" {
		return nil, nil
	}
	var specs []Spec
	for _, part := range strings.Split(s, ",") {
		names := strings.Split(part, ":")
		if len(names) < 2 || names[0] == "" {
			return nil, fmt.Errorf("invalid aggregate %q, want field:type", part)
		}
		spec := Spec{FieldName: names[0]}
		for _, name := range names[1:] {
			t, err := ParseType(name)
			if err != nil {
				return nil, fmt.Errorf("aggregate on %q: %w", names[0], err)
			}
			spec.Types = append(spec.Types, t)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// FormatSpecs is the inverse of ParseSpecs.
func FormatSpecs(specs []Spec) string {
	parts := make([]string, len(specs))
	for i, spec := range specs {
		names := []string{spec.FieldName}
		for _, t := range spec.Types {
			names = append(names, t.String())
		}
		parts[i] = strings.Join(names, ":")
	}
	return strings.Join(parts, ",")
}

// Formatted is a single formatted aggregate value.
type Formatted struct {
	FieldName string
	Type      Type
	Value     string
}

func (f Formatted) String() string {
	return fmt.Sprintf("%s %s %s", f.Type.Symbol(), f.FieldName, f.Value)
}

// Summary holds one state per requested field.
type Summary []State

// Format returns the requested aggregates of every field, in spec order.
func (s Summary) Format(specs []Spec) []Formatted {
	var out []Formatted
	for i, spec := range specs {
		if i >= len(s) {
			break
		}
		for _, t := range spec.Types {
			out = append(out, Formatted{FieldName: spec.FieldName, Type: t, Value: s[i].Format(t)})
		}
	}
	return out
}

// fieldKinds picks the state kind of every spec field from its first
// non-null value.
func fieldKinds(collections []records.Collection, specs []Spec) []records.Kind {
	kinds := make([]records.Kind, len(specs))
	for i, spec := range specs {
	search:
		for _, c := range collections {
			for _, r := range c {
				if v := r.Lookup(spec.FieldName); !v.IsNull() {
					kinds[i] = v.Kind()
					break search
				}
			}
		}
	}
	return kinds
}

func newSummary(kinds []records.Kind) Summary {
	s := make(Summary, len(kinds))
	for i, k := range kinds {
		s[i] = NewState(k)
	}
	return s
}

func (s Summary) add(c records.Collection, specs []Spec) {
	for _, r := range c {
		for i, spec := range specs {
			s[i].Add(r.Lookup(spec.FieldName))
		}
	}
}

func (s Summary) combine(o Summary) {
	for i := range s {
		s[i].Combine(o[i])
	}
}

// ForCollection aggregates every record of c.
func ForCollection(c records.Collection, specs []Spec) Summary {
	s := newSummary(fieldKinds([]records.Collection{c}, specs))
	s.add(c, specs)
	return s
}

// ForTree computes a summary for every group of tree, indexed like
// tree.Nodes. Records are only read at the innermost groups; outer groups
// combine the states of their children.
func ForTree(tree *grouping.Tree, specs []Spec) []Summary {
	if len(specs) == 0 {
		return nil
	}
	roots := make([]records.Collection, len(tree.Roots))
	for i, root := range tree.Roots {
		roots[i] = tree.Nodes[root].Records
	}
	kinds := fieldKinds(roots, specs)

	out := make([]Summary, len(tree.Nodes))
	for i := range out {
		out[i] = newSummary(kinds)
	}
	// children always come after their parent
	for i := len(tree.Nodes) - 1; i >= 0; i-- {
		n := &tree.Nodes[i]
		if len(n.Children) == 0 {
			out[i].add(n.Records, specs)
		}
		if n.Parent >= 0 {
			out[n.Parent].combine(out[i])
		}
	}
	return out
}
