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

package records

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
)

// ParseKind accepts the names returned by Kind.String, plus a few aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "text":
		return String, nil
	case "number", "numeric":
		return Number, nil
	case "date", "datetime", "time":
		return Time, nil
	case "boolean", "bool":
		return Bool, nil
	case "null":
		return Null, nil
	}
	return Null, fmt.Errorf("unknown data type %q", s)
}

// ParseValue converts raw text into a value of the given kind. Empty text
// is null for every kind but String.
func ParseValue(kind Kind, raw string) (Value, error) {
	s := strings.TrimSpace(raw)
	if s == "" && kind != String {
		return Value{}, nil
	}
	switch kind {
	case String:
		return StringValue(raw), nil
	case Number:
		f, err := parseNumber(s)
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", raw, err)
		}
		return NumberValue(f), nil
	case Bool:
		b, err := ParseBool(s)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(b), nil
	case Time:
		t, err := dateparse.ParseAny(s)
		if err != nil {
			return Value{}, fmt.Errorf("invalid date %q: %w", raw, err)
		}
		return TimeValue(t), nil
	}
	return Value{}, nil
}

var errNotFinite = errors.New("not a finite number")

// parseNumber is strconv.ParseFloat without the NaN and infinity spellings,
// which are words in data files rather than numbers.
func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	return f, nil
}

// ParseBool accepts the usual spellings of booleans found in data files.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, nil
	case "false", "f", "no", "n", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// DetectKind guesses the kind of a raw text value, preferring numbers over
// dates so that plain integers stay numeric. Empty text is Null.
func DetectKind(raw string) Kind {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Null
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return String
		}
		return Number
	}
	switch strings.ToLower(s) {
	case "true", "false":
		return Bool
	}
	if _, err := dateparse.ParseStrict(s); err == nil {
		return Time
	}
	return String
}
