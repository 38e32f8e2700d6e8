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
	"math"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Compare compares two values.
// Returns -1 if a < b, 0 if equal, 1 if a > b.
// Values of different kinds are ordered by kind so that the result is a
// total order; null is the greatest kind.
func Compare(a, b Value, ignoreCase bool) int {
	if a.kind != b.kind {
		return compareKinds(a.kind, b.kind)
	}
	switch a.kind {
	case String:
		if ignoreCase {
			return strings.Compare(Fold(a.s), Fold(b.s))
		}
		return strings.Compare(a.s, b.s)
	case Number:
		return compareFloat64s(a.n, b.n)
	case Time:
		return compareTimes(a.t, b.t)
	case Bool:
		return compareBools(a.b, b.b)
	}
	// Both null
	return 0
}

// Equal reports whether a and b hold the same value. Two nulls are equal.
func Equal(a, b Value, ignoreCase bool) bool {
	return a.kind == b.kind && Compare(a, b, ignoreCase) == 0
}

// Fold returns the case-folded form of s for case-insensitive comparison.
// A Caser is stateful, so a fresh one is used per call.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// compareKinds places null after every other kind
func compareKinds(a, b Kind) int {
	if a == Null {
		return 1
	}
	if b == Null {
		return -1
	}
	if a < b {
		return -1
	}
	return 1
}

// compareTimes compares two time.Time values
func compareTimes(a, b time.Time) int {
	if a.Before(b) {
		return -1
	}
	if a.After(b) {
		return 1
	}
	return 0
}

// compareBools compares two bool values (false < true)
func compareBools(a, b bool) int {
	if a == b {
		return 0
	}
	if !a && b {
		return -1
	}
	return 1
}

// compareFloat64s compares two float64 values with NaN handling.
// NaN values are considered greater than all other values (sort to end).
func compareFloat64s(a, b float64) int {
	aNaN := math.IsNaN(a)
	bNaN := math.IsNaN(b)

	if aNaN && bNaN {
		return 0
	}
	if aNaN {
		return 1
	}
	if bNaN {
		return -1
	}

	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
