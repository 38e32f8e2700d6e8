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
	"testing"
	"time"
)

func TestParseValue(t *testing.T) {
	v, err := ParseValue(Number, " 12.5 ")
	if err != nil || v.Num() != 12.5 {
		t.Errorf("ParseValue(Number) = %v, %v", v, err)
	}
	if _, err := ParseValue(Number, "twelve"); err == nil {
		t.Error("expected an error for a bad number")
	}
	for _, word := range []string{"NaN", "Inf", "-infinity"} {
		if v, err := ParseValue(Number, word); err == nil {
			t.Errorf("ParseValue(Number, %q) = %v, want an error", word, v)
		}
	}

	v, err = ParseValue(Time, "2024-03-01")
	if err != nil || !v.Time().Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseValue(Time) = %v, %v", v, err)
	}

	v, err = ParseValue(Bool, "yes")
	if err != nil || !v.Bool() {
		t.Errorf("ParseValue(Bool) = %v, %v", v, err)
	}

	v, err = ParseValue(Number, "")
	if err != nil || !v.IsNull() {
		t.Errorf("empty number should be null, got %v, %v", v, err)
	}

	v, err = ParseValue(String, "")
	if err != nil || v.Kind() != String {
		t.Errorf("empty string should stay a string, got %v", v.Kind())
	}
}

func TestDetectKind(t *testing.T) {
	tests := map[string]Kind{
		"":           Null,
		"42":         Number,
		"-3.5":       Number,
		"true":       Bool,
		"2024-01-15": Time,
		"North":      String,
		"NaN":        String,
		"Nan":        String,
		"Inf":        String,
		"+Infinity":  String,
	}
	for in, want := range tests {
		if got := DetectKind(in); got != want {
			t.Errorf("DetectKind(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"number": Number, "Date": Time, "bool": Bool, "text": String} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseKind("blob"); err == nil {
		t.Error("expected an error for an unknown kind")
	}
}
