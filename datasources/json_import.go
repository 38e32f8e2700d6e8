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

package datasources

import (
	"fmt"
	"os"
	"sort"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/google/gridpipe/core/records"
)

// ImportJSON reads a JSON array of objects. Numbers, booleans and null map
// onto their kinds. Strings are kept as strings unless parseDates is set,
// in which case strings that read as dates become dates. Nested objects
// and arrays are kept as their JSON text. Fields are sorted by name.
func ImportJSON(data []byte, parseDates bool) (*Dataset, error) {
	var list structpb.ListValue
	if err := protojson.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if len(list.GetValues()) == 0 {
		return nil, fmt.Errorf("JSON: %w", ErrEmpty)
	}

	seen := make(map[string]bool)
	ds := &Dataset{Records: make(records.Collection, 0, len(list.GetValues()))}
	for i, item := range list.GetValues() {
		obj := item.GetStructValue()
		if obj == nil {
			return nil, fmt.Errorf("JSON item %d is not an object", i)
		}
		rec := make(records.Record, len(obj.GetFields()))
		for name, v := range obj.GetFields() {
			value, err := fromProtoValue(v, parseDates)
			if err != nil {
				return nil, fmt.Errorf("JSON item %d, field %q: %w", i, name, err)
			}
			rec[name] = value
			if !seen[name] {
				seen[name] = true
				ds.Fields = append(ds.Fields, name)
			}
		}
		ds.Records = append(ds.Records, rec)
	}
	sort.Strings(ds.Fields)
	return ds, nil
}

func fromProtoValue(v *structpb.Value, parseDates bool) (records.Value, error) {
	switch k := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return records.NullValue(), nil
	case *structpb.Value_NumberValue:
		return records.NumberValue(k.NumberValue), nil
	case *structpb.Value_BoolValue:
		return records.BoolValue(k.BoolValue), nil
	case *structpb.Value_StringValue:
		if parseDates && records.DetectKind(k.StringValue) == records.Time {
			return records.ParseValue(records.Time, k.StringValue)
		}
		return records.StringValue(k.StringValue), nil
	default:
		b, err := protojson.Marshal(v)
		if err != nil {
			return records.Value{}, err
		}
		return records.StringValue(string(b)), nil
	}
}

// JsonLoader implements Loader for files holding a JSON array of objects.
//
// Required config keys:
//   - file_path: Path to the JSON file
//
// Optional config keys:
//   - parse_dates: "true" to turn date strings into dates (default: "true")
type JsonLoader struct{}

// NewJsonLoader creates a new JSON loader.
func NewJsonLoader() *JsonLoader {
	return &JsonLoader{}
}

// SourceType returns "json".
func (l *JsonLoader) SourceType() string {
	return "json"
}

// Load loads a JSON file.
func (l *JsonLoader) Load(config map[string]string) (*Dataset, error) {
	filePath := config["file_path"]
	if filePath == "" {
		return nil, fmt.Errorf("file_path is required")
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return ImportJSON(data, config["parse_dates"] != "false")
}
