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

package labels

import "testing"

func TestFormat(t *testing.T) {
	tests := map[string]string{
		"":                     "",
		"contains":             "contains",
		"doesNotContain":       "does Not Contain",
		"greaterThanOrEqualTo": "greater Than Or Equal To",
		"Today":                "Today",
		"notNULL":              "not N U L L",
		"straßeÄ":              "straßeÄ",
		"größeBreite":          "größe Breite",
	}
	for in, want := range tests {
		if got := Format(in); got != want {
			t.Errorf("Format(%q) = %q, want %q", in, got, want)
		}
	}
}
