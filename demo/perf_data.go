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

package demo

import (
	"fmt"
	"time"

	"github.com/google/gridpipe/core/records"
	"github.com/google/gridpipe/datasources"
)

// Performance data configuration - easily modifiable cardinality
const (
	PerfNumTransactions = 100_000
	PerfNumUsers        = 80_000 // High cardinality: 80% unique (1.25 txns per user avg)
	PerfNumProducts     = 5_000  // Medium cardinality: (20 txns per product avg)
	PerfNumCategories   = 200    // Low cardinality: (500 txns per category avg)
)

var perfEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Transactions generates n deterministic transaction records. Every
// eleventh record has no status and every thirteenth a null amount.
func Transactions(n int) *datasources.Dataset {
	statuses := []string{"pending", "completed", "cancelled", "processing"}

	ds := &datasources.Dataset{
		Name:    "transactions",
		Fields:  []string{"txnId", "userId", "productId", "categoryId", "amount", "status", "createdAt"},
		Records: make(records.Collection, n),
	}
	for i := 0; i < n; i++ {
		// Category ID: heavy reuse (low cardinality), category 0 more common
		categoryID := i % PerfNumCategories
		if i%7 == 0 {
			categoryID = 0
		}
		rec := records.Record{
			"txnId":      records.NumberValue(float64(i)),
			"userId":     records.StringValue(fmt.Sprintf("u%06d", i%PerfNumUsers)),
			"productId":  records.NumberValue(float64(i % PerfNumProducts)),
			"categoryId": records.NumberValue(float64(categoryID)),
			"amount":     records.NumberValue(float64(10 + i%1000)),
			"createdAt":  records.TimeValue(perfEpoch.Add(time.Duration(i) * time.Minute)),
		}
		if i%11 != 0 {
			rec["status"] = records.StringValue(statuses[i%len(statuses)])
		}
		if i%13 == 0 {
			rec["amount"] = records.NullValue()
		}
		ds.Records[i] = rec
	}
	return ds
}
