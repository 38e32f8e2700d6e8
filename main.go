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

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"

	"github.com/lmittmann/tint"

	"github.com/google/gridpipe/cli"
	"github.com/google/gridpipe/core/pipeline"
	"github.com/google/gridpipe/core/query"
	"github.com/google/gridpipe/core/server"
	"github.com/google/gridpipe/core/state"
	"github.com/google/gridpipe/core/views"
	"github.com/google/gridpipe/demo"
)

func main() {
	opt, err := cli.Parse(os.Args[1:])
	if err != nil {
		if cli.IsHelp(err) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	level := slog.LevelInfo
	if opt.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:   level,
		NoColor: opt.NoColor,
	}))

	if err := run(opt, logger); err != nil {
		logger.Error("gridpipe failed", "err", err)
		os.Exit(1)
	}
}

func run(opt *cli.Option, logger *slog.Logger) error {
	manager, err := demo.NewManager()
	if err != nil {
		return err
	}
	if opt.Sources != "" {
		if err := manager.LoadConfig(opt.Sources); err != nil {
			return err
		}
	}
	cfg, err := demo.Grids()
	if opt.Config != "" {
		cfg, err = state.LoadConfig(opt.Config)
	}
	if err != nil {
		return err
	}
	store := state.NewStore()
	if err := store.Load(cfg); err != nil {
		return err
	}

	if opt.Listen != "" {
		srv := server.NewServer(manager, store)
		srv.SetLogger(logger)
		srv.SetDefaultSource(opt.Data)
		srv.SetFilterWorkers(opt.Workers)
		logger.Info("serving grid views", "addr", opt.Listen, "grids", len(store.IDs()))
		return http.ListenAndServe(opt.Listen, srv.Handler())
	}

	ds, err := manager.LoadData(opt.Data)
	if err != nil {
		return err
	}
	logger.Debug("data loaded", "source", ds.Name, "records", len(ds.Records), "fields", len(ds.Fields))

	id := opt.Grid
	st, err := store.Get(id)
	switch {
	case errors.Is(err, state.ErrNotFound):
		st = &pipeline.GridState{GroupByDefaultExpanded: true}
		id = store.Create(st)
		logger.Info("created grid", "id", id)
	case err != nil:
		return err
	}

	var q *query.Query
	if opt.Query != "" {
		u := &url.URL{Path: "/grid", RawQuery: opt.Query}
		if q, err = query.NewQuery(u); err != nil {
			return fmt.Errorf("invalid query: %w", err)
		}
		store.Register(id, q.State())
	} else {
		q = query.FromState("/grid", id, nil, st)
	}
	q.Grid = id

	p := pipeline.New(id, store, pipeline.WithLogger(logger), pipeline.WithFilterWorkers(opt.Workers))
	res, err := p.Run(ds.Records, store.Trigger(id))
	if err != nil {
		return err
	}
	stats := p.Stats()
	logger.Debug("pipeline done", "grid", id, "rows", len(res.View.Rows),
		"filterRecomputes", stats.Filter.Recomputes, "sortRecomputes", stats.Sort.Recomputes,
		"groupRecomputes", stats.Group.Recomputes, "pageRecomputes", stats.Page.Recomputes)

	// the query reflects the page that was actually shown
	if res.Paging != nil && q.Paging != nil {
		q.Paging.PageIndex = res.Paging.PageIndex
	}
	logger.Info("view link", "url", q.ToURL())

	vm := views.BuildViewModel(fmt.Sprintf("%s (grid %s)", ds.Name, id), ds.Fields, res, q)
	switch opt.Format {
	case "json":
		b, err := vm.ToJSON()
		if err != nil {
			return err
		}
		fmt.Println(string(b))
	default:
		fmt.Print(vm.ToAscii())
	}
	return nil
}
