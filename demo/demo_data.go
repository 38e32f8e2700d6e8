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

// Package demo provides a small embedded order data set, grid configurations
// for it, and a generator of large synthetic collections for benchmarks.
package demo

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/google/gridpipe/core/state"
	"github.com/google/gridpipe/datasources"
)

//go:embed data/orders.csv
var ordersCSV string

//go:embed data/grids.yaml
var gridsYAML []byte

// Orders imports the embedded order data set.
func Orders() (*datasources.Dataset, error) {
	ds, err := datasources.ImportFromReader(strings.NewReader(ordersCSV), datasources.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to import orders CSV: %w", err)
	}
	ds.Name = "orders"
	return ds, nil
}

// Grids returns the grid configurations for the order data set.
func Grids() (*state.Config, error) {
	return state.ParseConfig(gridsYAML)
}

// NewManager returns a data source manager holding the demo data sets.
func NewManager() (*datasources.Manager, error) {
	orders, err := Orders()
	if err != nil {
		return nil, err
	}
	m := datasources.NewManager()
	m.AddDataset(orders)
	m.AddDataset(Transactions(PerfNumTransactions))
	return m, nil
}
