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

// Package records holds the schemaless record model the pipeline engines
// operate on. Fields are looked up by name at evaluation time; a missing
// field is reported explicitly rather than through a zero value.
package records

import (
	"fmt"
	"strconv"
	"time"
)

// Kind is the dynamic type of a Value.
type Kind uint8

const (
	// Null is the kind of the zero Value and of absent fields
	Null Kind = iota
	// Bool orders false before true
	Bool
	// Number holds every numeric width as float64
	Number
	// String is compared lexically
	String
	// Time is compared by instant
	Time
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Time:
		return "date"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Value is a single field value. The zero Value is null.
type Value struct {
	kind Kind
	s    string
	n    float64
	t    time.Time
	b    bool
}

// Absent is returned by Record.Lookup when a field does not exist.
var Absent = Value{}

func NullValue() Value            { return Value{} }
func StringValue(s string) Value  { return Value{kind: String, s: s} }
func NumberValue(n float64) Value { return Value{kind: Number, n: n} }
func TimeValue(t time.Time) Value { return Value{kind: Time, t: t} }
func BoolValue(b bool) Value      { return Value{kind: Bool, b: b} }

// FromAny converts a Go value into a Value. Unsupported types are rendered
// with fmt and stored as strings.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Value{}
	case Value:
		return x
	case string:
		return StringValue(x)
	case bool:
		return BoolValue(x)
	case time.Time:
		return TimeValue(x)
	case *time.Time:
		if x == nil {
			return Value{}
		}
		return TimeValue(*x)
	case float64:
		return NumberValue(x)
	case float32:
		return NumberValue(float64(x))
	case int:
		return NumberValue(float64(x))
	case int8:
		return NumberValue(float64(x))
	case int16:
		return NumberValue(float64(x))
	case int32:
		return NumberValue(float64(x))
	case int64:
		return NumberValue(float64(x))
	case uint:
		return NumberValue(float64(x))
	case uint8:
		return NumberValue(float64(x))
	case uint16:
		return NumberValue(float64(x))
	case uint32:
		return NumberValue(float64(x))
	case uint64:
		return NumberValue(float64(x))
	default:
		return StringValue(fmt.Sprint(x))
	}
}

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsNull() bool    { return v.kind == Null }
func (v Value) Str() string     { return v.s }
func (v Value) Num() float64    { return v.n }
func (v Value) Time() time.Time { return v.t }
func (v Value) Bool() bool      { return v.b }

// Any returns the underlying Go value, nil for null.
func (v Value) Any() any {
	switch v.kind {
	case Bool:
		return v.b
	case Number:
		return v.n
	case String:
		return v.s
	case Time:
		return v.t
	}
	return nil
}

// String returns the display form of the value. Null renders as "".
func (v Value) String() string {
	switch v.kind {
	case Bool:
		return strconv.FormatBool(v.b)
	case Number:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case String:
		return v.s
	case Time:
		if h, m, s := v.t.Clock(); h == 0 && m == 0 && s == 0 && v.t.Nanosecond() == 0 {
			return v.t.Format(time.DateOnly)
		}
		return v.t.Format(time.RFC3339)
	}
	return ""
}

// Record maps field names to values. Engines never modify a Record.
type Record map[string]Value

// NewRecord builds a Record from plain Go values.
func NewRecord(fields map[string]any) Record {
	r := make(Record, len(fields))
	for k, v := range fields {
		r[k] = FromAny(v)
	}
	return r
}

// Get returns the value of field and whether the field exists.
func (r Record) Get(field string) (Value, bool) {
	v, ok := r[field]
	if !ok {
		return Absent, false
	}
	return v, true
}

// Lookup returns the value of field, or Absent.
func (r Record) Lookup(field string) Value {
	v, _ := r.Get(field)
	return v
}

// Collection is an ordered sequence of records.
type Collection []Record

// Clone returns a new backing array holding the same records.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	out := make(Collection, len(c))
	copy(out, c)
	return out
}

// Len returns the number of records.
func (c Collection) Len() int { return len(c) }
