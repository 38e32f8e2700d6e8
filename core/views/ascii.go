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
	"fmt"
	"strings"
	"unicode/utf8"
)

// ToAscii returns a string representation of the view model with ASCII borders.
// Group headers span the full width and are indented by level; "-" marks an
// expanded group and "+" a collapsed one.
func (vm GridViewModel) ToAscii() string {
	var sb strings.Builder

	if vm.Title != "" {
		sb.WriteString(vm.Title)
		sb.WriteString("\n")
	}
	if len(vm.Filters) > 0 {
		chips := make([]string, len(vm.Filters))
		for i, f := range vm.Filters {
			chips[i] = f.Label
		}
		fmt.Fprintf(&sb, "Filters (%s): %s\n", vm.Logic, strings.Join(chips, "; "))
	}

	if len(vm.Columns) > 0 {
		colWidths := vm.calculateColumnWidths()
		separator := separatorLine(colWidths)

		sb.WriteString(separator)
		writeCells(&sb, vm.Headers, colWidths)
		sb.WriteString(separator)
		for _, row := range vm.Rows {
			if row.IsHeader {
				fmt.Fprintf(&sb, "| %s |\n", pad(headerText(row), spanWidth(colWidths)))
			} else {
				writeCells(&sb, row.Cells, colWidths)
			}
		}
		sb.WriteString(separator)
	}

	if vm.Paged {
		fmt.Fprintf(&sb, "Page %d of %d (%d rows, %d per page)", vm.PageIndex+1, max(vm.TotalPages, 1), vm.TotalRows, vm.RecordsPerPage)
		if vm.PageAdjusted {
			sb.WriteString(", page adjusted")
		}
		sb.WriteString("\n")
	} else {
		fmt.Fprintf(&sb, "%d rows\n", vm.TotalRows)
	}
	return sb.String()
}

func headerText(row RowModel) string {
	marker := "-"
	if !row.Expanded {
		marker = "+"
	}
	text := fmt.Sprintf("%s%s %s (%d)", strings.Repeat("  ", row.Level), marker, row.Label, row.Count)
	for _, a := range row.Aggregates {
		text += "  " + a.String()
	}
	return text
}

// calculateColumnWidths calculates the width needed for each column. The
// last column is widened when a group header would not fit.
func (vm GridViewModel) calculateColumnWidths() []int {
	widths := make([]int, len(vm.Columns))
	for i := range widths {
		widths[i] = 1
		if i < len(vm.Headers) {
			widths[i] = max(widths[i], utf8.RuneCountInString(vm.Headers[i]))
		}
	}
	for _, row := range vm.Rows {
		for i, cell := range row.Cells {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}
	for _, row := range vm.Rows {
		if !row.IsHeader {
			continue
		}
		if extra := utf8.RuneCountInString(headerText(row)) - spanWidth(widths); extra > 0 {
			widths[len(widths)-1] += extra
		}
	}
	return widths
}

// spanWidth is the inner width of a row spanning every column.
func spanWidth(widths []int) int {
	total := 0
	for _, w := range widths {
		total += w + 3
	}
	return total - 3
}

func separatorLine(widths []int) string {
	var sb strings.Builder
	for _, w := range widths {
		sb.WriteString("|")
		sb.WriteString(strings.Repeat("-", w+2))
	}
	sb.WriteString("|\n")
	return sb.String()
}

func writeCells(sb *strings.Builder, cells []string, widths []int) {
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		sb.WriteString("| ")
		sb.WriteString(pad(cell, w))
		sb.WriteString(" ")
	}
	sb.WriteString("|\n")
}

func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
