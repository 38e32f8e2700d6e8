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
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/gridpipe/core/records"
)

// CsvColumnSource defines how a column is imported
type CsvColumnSource struct {
	// Name is the field name (defaults to header name if not specified)
	Name string
	// Kind forces the data type of the column; Null auto-detects from data
	Kind records.Kind
}

// ImportOptions configures CSV import behavior
type ImportOptions struct {
	// HasHeader indicates whether the first row contains column headers
	HasHeader bool
	// Delimiter is the field delimiter (defaults to comma)
	Delimiter rune
	// ColumnSources provides configuration for specific columns by header name
	ColumnSources map[string]CsvColumnSource
	// SampleSize is the number of rows to sample for type detection (default: 100)
	SampleSize int
}

// DefaultOptions returns default import options
func DefaultOptions() ImportOptions {
	return ImportOptions{
		HasHeader:     true,
		Delimiter:     ',',
		ColumnSources: make(map[string]CsvColumnSource),
		SampleSize:    100,
	}
}

// ImportFromFile imports a CSV file
func ImportFromFile(filepath string, options ImportOptions) (*Dataset, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ImportFromReader(file, options)
}

// ImportFromReader imports CSV data from an io.Reader. Empty cells are
// null and cells missing from short rows are absent. A cell that does not
// parse as its column's type is kept as a string.
func ImportFromReader(reader io.Reader, options ImportOptions) (*Dataset, error) {
	csvReader := csv.NewReader(reader)
	if options.Delimiter != 0 {
		csvReader.Comma = options.Delimiter
	}
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("CSV: %w", ErrEmpty)
	}

	// Extract headers
	var headers []string
	var dataRows [][]string

	if options.HasHeader {
		headers = rows[0]
		dataRows = rows[1:]
	} else {
		// Generate column names if no header
		numCols := len(rows[0])
		headers = make([]string, numCols)
		for i := 0; i < numCols; i++ {
			headers[i] = fmt.Sprintf("column_%d", i+1)
		}
		dataRows = rows
	}

	if len(dataRows) == 0 {
		return nil, fmt.Errorf("CSV has no data rows: %w", ErrEmpty)
	}

	sampleSize := options.SampleSize
	if sampleSize <= 0 {
		sampleSize = 100
	}

	fields := make([]string, len(headers))
	kinds := make([]records.Kind, len(headers))
	for i, header := range headers {
		header = strings.TrimSpace(header)
		source := options.ColumnSources[header]
		fields[i] = header
		if source.Name != "" {
			fields[i] = source.Name
		}
		kinds[i] = source.Kind
		if kinds[i] == records.Null {
			kinds[i] = detectColumnKind(dataRows, i, sampleSize)
		}
	}

	ds := &Dataset{Fields: fields, Records: make(records.Collection, len(dataRows))}
	for r, row := range dataRows {
		rec := make(records.Record, len(fields))
		for i, field := range fields {
			if i >= len(row) {
				continue
			}
			rec[field] = parseCell(kinds[i], row[i])
		}
		ds.Records[r] = rec
	}
	return ds, nil
}

// detectColumnKind samples the first sampleSize rows of a column. The
// column takes the kind shared by every non-empty sample, String when they
// disagree or when every sample is empty.
func detectColumnKind(rows [][]string, col, sampleSize int) records.Kind {
	kind := records.Null
	for i := 0; i < len(rows) && i < sampleSize; i++ {
		if col >= len(rows[i]) {
			continue
		}
		k := records.DetectKind(rows[i][col])
		if k == records.Null {
			continue
		}
		if kind == records.Null {
			kind = k
		} else if kind != k {
			return records.String
		}
	}
	if kind == records.Null {
		return records.String
	}
	return kind
}

func parseCell(kind records.Kind, raw string) records.Value {
	if strings.TrimSpace(raw) == "" {
		return records.NullValue()
	}
	v, err := records.ParseValue(kind, raw)
	if err != nil {
		return records.StringValue(raw)
	}
	return v
}

// CsvLoader implements Loader for CSV files.
//
// Required config keys:
//   - file_path: Path to the CSV file
//
// Optional config keys:
//   - has_header: "true" or "false" (default: "true")
//   - delimiter: Field delimiter (default: ",")
//   - types: Forced column types, e.g. "zip:string,due:date"
type CsvLoader struct{}

// NewCsvLoader creates a new CSV loader.
func NewCsvLoader() *CsvLoader {
	return &CsvLoader{}
}

// SourceType returns "csv".
func (l *CsvLoader) SourceType() string {
	return "csv"
}

// Load loads a CSV file with typed columns.
func (l *CsvLoader) Load(config map[string]string) (*Dataset, error) {
	filePath := config["file_path"]
	if filePath == "" {
		return nil, fmt.Errorf("file_path is required")
	}

	options := DefaultOptions()
	if h := config["has_header"]; h == "false" {
		options.HasHeader = false
	}
	if d := config["delimiter"]; d != "" {
		options.Delimiter = []rune(d)[0]
	}
	if types := config["types"]; types != "" {
		for _, part := range strings.Split(types, ",") {
			name, kindName, ok := strings.Cut(part, ":")
			if !ok {
				return nil, fmt.Errorf("invalid column type %q", part)
			}
			kind, err := records.ParseKind(kindName)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", name, err)
			}
			name = strings.TrimSpace(name)
			options.ColumnSources[name] = CsvColumnSource{Kind: kind}
		}
	}

	return ImportFromFile(filePath, options)
}
