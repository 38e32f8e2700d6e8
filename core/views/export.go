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

package views

import (
	"math"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/google/gridpipe/core/records"
)

// ToStruct exports the view model as a protobuf Struct: the columns, one
// entry per row (group headers carry "group", records carry "cells") and
// the paging metadata when the grid is paged.
func (vm GridViewModel) ToStruct() (*structpb.Struct, error) {
	columns := make([]any, len(vm.Columns))
	for i, c := range vm.Columns {
		columns[i] = c
	}

	rows := make([]any, 0, len(vm.Rows))
	for _, row := range vm.Rows {
		if row.IsHeader {
			header := map[string]any{
				"group":    row.Label,
				"field":    row.Field,
				"level":    row.Level,
				"count":    row.Count,
				"expanded": row.Expanded,
			}
			if len(row.Aggregates) > 0 {
				aggs := make(map[string]any, len(row.Aggregates))
				for _, a := range row.Aggregates {
					aggs[a.FieldName+"."+a.Type.String()] = a.Value
				}
				header["aggregates"] = aggs
			}
			rows = append(rows, header)
			continue
		}
		cells := make(map[string]any, len(vm.Columns))
		for i, name := range vm.Columns {
			cells[name] = exportValue(row.Values[i])
		}
		rows = append(rows, map[string]any{"cells": cells})
	}

	m := map[string]any{
		"title":     vm.Title,
		"columns":   columns,
		"rows":      rows,
		"totalRows": vm.TotalRows,
	}
	if vm.Paged {
		m["paging"] = map[string]any{
			"pageIndex":      vm.PageIndex,
			"recordsPerPage": vm.RecordsPerPage,
			"totalPages":     vm.TotalPages,
			"adjusted":       vm.PageAdjusted,
		}
	}
	return structpb.NewStruct(m)
}

// ToJSON exports the view model as JSON, see ToStruct.
func (vm GridViewModel) ToJSON() ([]byte, error) {
	s, err := vm.ToStruct()
	if err != nil {
		return nil, err
	}
	return protojson.MarshalOptions{Multiline: true}.Marshal(s)
}

// exportValue maps a value onto the types structpb accepts. Dates and
// non-finite numbers become their display text.
func exportValue(v records.Value) any {
	switch v.Kind() {
	case records.Time:
		return v.String()
	case records.Null:
		return nil
	case records.Number:
		if math.IsNaN(v.Num()) || math.IsInf(v.Num(), 0) {
			return v.String()
		}
	}
	return v.Any()
}
