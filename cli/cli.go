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

// Package cli defines the command line of gridpipe.
package cli

import (
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Option defines command line options.
type Option struct {
	Data    string `short:"d" long:"data" description:"data source to show" default:"orders"`
	Sources string `short:"s" long:"sources" description:"YAML file declaring CSV and JSON data sources"`
	Config  string `short:"c" long:"config" description:"YAML grid config (defaults to the demo grids)"`
	Grid    string `short:"g" long:"grid" description:"grid id; a new grid is created when empty or unknown" default:"orders"`
	Query   string `short:"q" long:"query" description:"grid state as URL query, e.g. 'sort=amount:desc&grouped=status&limit=10'"`
	Format  string `short:"f" long:"format" description:"output format" choice:"ascii" choice:"json" default:"ascii"`
	Workers int    `short:"w" long:"workers" description:"parallel filter workers for large collections" default:"1"`
	Listen  string `short:"l" long:"listen" description:"serve grid views over HTTP on this address, e.g. ':8080'"`
	Verbose bool   `short:"v" long:"verbose" description:"debug logging"`
	NoColor bool   `long:"no-color" description:"disable colored log output"`
}

// Parse returns parsed command-line flags in Option struct
func Parse(args []string) (*Option, error) {
	opt := &Option{}
	parser := flags.NewParser(opt, flags.Default)
	parser.Name = "gridpipe"
	parser.Usage = "[OPTIONS]"

	rest, err := parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", rest)
	}
	if opt.Workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", opt.Workers)
	}
	return opt, nil
}

// IsHelp reports whether err is the result of printing the help message.
func IsHelp(err error) bool {
	return flags.WroteHelp(err)
}
