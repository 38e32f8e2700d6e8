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
	"errors"
	"fmt"

	"github.com/google/gridpipe/core/records"
)

// ErrUnknownCondition is returned when a condition name is not in the
// catalogue of its data type.
var ErrUnknownCondition = errors.New("unknown filter condition")

// NewExpression builds an expression from a condition name. kind selects
// the catalogue; Null means "infer from the search value".
func NewExpression(field, condition string, kind records.Kind, search records.Value, ignoreCase bool) (Expression, error) {
	if kind == records.Null {
		kind = search.Kind()
	}
	c, ok := Lookup(kind, condition)
	if !ok {
		return Expression{}, fmt.Errorf("%w: %s for %s field %q", ErrUnknownCondition, condition, kind, field)
	}
	return Expression{FieldName: field, Condition: c, SearchValue: search, IgnoreCase: ignoreCase}, nil
}

// ParseExpression is NewExpression for search values given as text, as
// they come from URLs and config files.
func ParseExpression(field, condition string, kind records.Kind, rawSearch string, ignoreCase bool) (Expression, error) {
	if kind == records.Null {
		kind = records.DetectKind(rawSearch)
	}
	search, err := records.ParseValue(kind, rawSearch)
	if err != nil {
		return Expression{}, fmt.Errorf("filter on %q: %w", field, err)
	}
	return NewExpression(field, condition, kind, search, ignoreCase)
}

// Kind returns the data type the expression's condition belongs to.
func (e Expression) Kind() records.Kind {
	return e.Condition.Kind
}
