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

package filtering

import (
	"sort"
	"strings"
	"time"

	"github.com/google/gridpipe/core/records"
)

// ConditionFunc decides whether a present field value matches search.
type ConditionFunc func(value, search records.Value, ignoreCase bool) bool

// Condition is a named predicate. MatchesMissing is the result for records
// that do not have the field at all.
type Condition struct {
	Name           string
	Kind           records.Kind
	Func           ConditionFunc
	MatchesMissing bool
}

// Now is the clock used by relative date conditions (today, thisMonth...).
var Now = time.Now

func isEmpty(v records.Value) bool {
	return v.IsNull() || (v.Kind() == records.String && v.Str() == "")
}

// Conditions shared by every data type
var (
	emptyCondition    = Condition{Name: "empty", Func: func(v, _ records.Value, _ bool) bool { return isEmpty(v) }, MatchesMissing: true}
	notEmptyCondition = Condition{Name: "notEmpty", Func: func(v, _ records.Value, _ bool) bool { return !isEmpty(v) }}
	nullCondition     = Condition{Name: "null", Func: func(v, _ records.Value, _ bool) bool { return v.IsNull() }, MatchesMissing: true}
	notNullCondition  = Condition{Name: "notNull", Func: func(v, _ records.Value, _ bool) bool { return !v.IsNull() }}
)

// catalogue adds the shared conditions to m and stamps every entry with kind.
func catalogue(kind records.Kind, m map[string]Condition) map[string]Condition {
	for _, c := range []Condition{emptyCondition, notEmptyCondition, nullCondition, notNullCondition} {
		m[c.Name] = c
	}
	for name, c := range m {
		c.Kind = kind
		m[name] = c
	}
	return m
}

func stringOperands(v, search records.Value, ignoreCase bool) (string, string) {
	target, s := v.String(), search.String()
	if ignoreCase {
		return records.Fold(target), records.Fold(s)
	}
	return target, s
}

// stringCondition adapts a string predicate. Null values never match.
func stringCondition(name string, f func(target, search string) bool) Condition {
	return Condition{Name: name, Func: func(v, search records.Value, ignoreCase bool) bool {
		if v.IsNull() {
			return false
		}
		target, s := stringOperands(v, search, ignoreCase)
		return f(target, s)
	}}
}

// negatedStringCondition adapts a string predicate whose negation holds for null.
func negatedStringCondition(name string, f func(target, search string) bool) Condition {
	return Condition{Name: name, Func: func(v, search records.Value, ignoreCase bool) bool {
		if v.IsNull() {
			return true
		}
		target, s := stringOperands(v, search, ignoreCase)
		return !f(target, s)
	}}
}

// StringConditions are the conditions for text fields.
var StringConditions = catalogue(records.String, map[string]Condition{
	"contains":       stringCondition("contains", strings.Contains),
	"doesNotContain": negatedStringCondition("doesNotContain", strings.Contains),
	"startsWith":     stringCondition("startsWith", strings.HasPrefix),
	"endsWith":       stringCondition("endsWith", strings.HasSuffix),
	"equals":         stringCondition("equals", func(a, b string) bool { return a == b }),
	"doesNotEqual":   negatedStringCondition("doesNotEqual", func(a, b string) bool { return a == b }),
})

// numberCondition matches only when both operands are numbers.
func numberCondition(name string, f func(cmp int) bool) Condition {
	return Condition{Name: name, Func: func(v, search records.Value, _ bool) bool {
		if v.Kind() != records.Number || search.Kind() != records.Number {
			return false
		}
		return f(records.Compare(v, search, false))
	}}
}

// NumberConditions are the conditions for numeric fields.
var NumberConditions = catalogue(records.Number, map[string]Condition{
	"equals":               numberCondition("equals", func(c int) bool { return c == 0 }),
	"doesNotEqual":         {Name: "doesNotEqual", Func: func(v, s records.Value, _ bool) bool { return !records.Equal(v, s, false) }},
	"greaterThan":          numberCondition("greaterThan", func(c int) bool { return c > 0 }),
	"lessThan":             numberCondition("lessThan", func(c int) bool { return c < 0 }),
	"greaterThanOrEqualTo": numberCondition("greaterThanOrEqualTo", func(c int) bool { return c >= 0 }),
	"lessThanOrEqualTo":    numberCondition("lessThanOrEqualTo", func(c int) bool { return c <= 0 }),
})

// BooleanConditions are the conditions for boolean fields.
var BooleanConditions = catalogue(records.Bool, map[string]Condition{
	"all":   {Name: "all", Func: func(_, _ records.Value, _ bool) bool { return true }},
	"true":  {Name: "true", Func: func(v, _ records.Value, _ bool) bool { return v.Kind() == records.Bool && v.Bool() }},
	"false": {Name: "false", Func: func(v, _ records.Value, _ bool) bool { return v.Kind() == records.Bool && !v.Bool() }},
})

func sameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sameMonth(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.Month() == b.Month()
}

func sameYear(a, b time.Time) bool {
	return a.Year() == b.In(a.Location()).Year()
}

// dateCondition matches only time values; search is ignored by relative conditions.
func dateCondition(name string, f func(v, search records.Value) bool) Condition {
	return Condition{Name: name, Func: func(v, search records.Value, _ bool) bool {
		if v.Kind() != records.Time {
			return false
		}
		return f(v, search)
	}}
}

// relativeDateCondition compares the field with a moment derived from Now.
func relativeDateCondition(name string, match func(t, now time.Time) bool) Condition {
	return dateCondition(name, func(v, _ records.Value) bool {
		return match(v.Time(), Now())
	})
}

func searchTimeCondition(name string, f func(t, search time.Time) bool) Condition {
	return dateCondition(name, func(v, search records.Value) bool {
		if search.Kind() != records.Time {
			return false
		}
		return f(v.Time(), search.Time())
	})
}

// DateConditions are the conditions for date fields. equals and
// doesNotEqual compare calendar days, before and after compare instants.
var DateConditions = catalogue(records.Time, map[string]Condition{
	"equals": searchTimeCondition("equals", sameDay),
	"doesNotEqual": {Name: "doesNotEqual", Func: func(v, search records.Value, _ bool) bool {
		if v.Kind() != records.Time || search.Kind() != records.Time {
			return true
		}
		return !sameDay(v.Time(), search.Time())
	}},
	"before":    searchTimeCondition("before", time.Time.Before),
	"after":     searchTimeCondition("after", time.Time.After),
	"today":     relativeDateCondition("today", func(t, now time.Time) bool { return sameDay(t, now) }),
	"yesterday": relativeDateCondition("yesterday", func(t, now time.Time) bool { return sameDay(t, now.AddDate(0, 0, -1)) }),
	"thisMonth": relativeDateCondition("thisMonth", func(t, now time.Time) bool { return sameMonth(t, now) }),
	"lastMonth": relativeDateCondition("lastMonth", func(t, now time.Time) bool { return sameMonth(t, firstOfMonth(now).AddDate(0, -1, 0)) }),
	"nextMonth": relativeDateCondition("nextMonth", func(t, now time.Time) bool { return sameMonth(t, firstOfMonth(now).AddDate(0, 1, 0)) }),
	"thisYear":  relativeDateCondition("thisYear", func(t, now time.Time) bool { return sameYear(t, now) }),
	"lastYear":  relativeDateCondition("lastYear", func(t, now time.Time) bool { return sameYear(t, now.AddDate(-1, 0, 0)) }),
	"nextYear":  relativeDateCondition("nextYear", func(t, now time.Time) bool { return sameYear(t, now.AddDate(1, 0, 0)) }),
})

// firstOfMonth avoids AddDate normalisation surprises (Mar 31 - 1 month = Mar 3).
func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// Conditions returns the catalogue for a data kind. Null has no catalogue
// of its own and gets the string one.
func Conditions(kind records.Kind) map[string]Condition {
	switch kind {
	case records.Number:
		return NumberConditions
	case records.Bool:
		return BooleanConditions
	case records.Time:
		return DateConditions
	}
	return StringConditions
}

// Lookup finds a condition by name in the catalogue of kind.
func Lookup(kind records.Kind, name string) (Condition, bool) {
	c, ok := Conditions(kind)[name]
	return c, ok
}

// Names lists the condition names available for kind, sorted.
func Names(kind records.Kind) []string {
	m := Conditions(kind)
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
