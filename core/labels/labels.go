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

// Package labels turns identifiers into display labels.
package labels

import "strings"

// Format splits a camel-cased identifier before every ASCII upper-case
// letter that is not the first character and joins the parts with single
// spaces. Other capitals do not split.
// Casing is left untouched, so "doesNotContain" becomes "does Not Contain".
func Format(identifier string) string {
	var sb strings.Builder
	sb.Grow(len(identifier) + 4)
	for i, r := range identifier {
		if i > 0 && 'A' <= r && r <= 'Z' {
			sb.WriteByte(' ')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
