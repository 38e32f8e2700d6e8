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

// Package datasources loads record collections from files (CSV and JSON)
// and caches them by source name.
package datasources

import (
	"errors"

	"github.com/google/gridpipe/core/records"
)

// ErrEmpty is returned when a source holds no header or no data.
var ErrEmpty = errors.New("data source is empty")

// ErrUnknownSource is returned for source names that were never added.
var ErrUnknownSource = errors.New("unknown data source")

// Dataset is a loaded source: its records and the field names in source order.
type Dataset struct {
	Name    string
	Fields  []string
	Records records.Collection
}

// Loader is the interface that all data source loaders must implement.
// Built-in loaders exist for "csv" and "json".
type Loader interface {
	// SourceType returns the type identifier used in config (e.g., "csv", "json").
	SourceType() string

	// Load reads the source described by config.
	Load(config map[string]string) (*Dataset, error)
}
