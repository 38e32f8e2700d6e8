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

// Package server serves grid views over HTTP.
//
//	GET /grid?grid=orders&data=orders&format=ascii&sort=amount:desc&limit=10
//
// Parameters other than data and format are decoded by package query. When
// they carry grid state (sort, filters, grouping, expansion or paging) that
// state replaces the stored state of the grid, so a shared link restores the
// view it was taken from. Without them the stored state is shown.
package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/gridpipe/core/pipeline"
	"github.com/google/gridpipe/core/query"
	"github.com/google/gridpipe/core/state"
	"github.com/google/gridpipe/core/views"
	"github.com/google/gridpipe/datasources"
)

// GridPath is the path grid views are served on.
const GridPath = "/grid"

// Server represents the application server with all its dependencies
type Server struct {
	manager       *datasources.Manager
	store         *state.Store
	logger        *slog.Logger
	defaultSource string
	filterWorkers int

	// Requests are serialized: grid states are shared with the store and
	// read while building links.
	mu        sync.Mutex
	pipelines map[string]*pipeline.Pipeline // grid id -> pipeline
}

// NewServer creates a server reading records from manager and grid state
// from store.
func NewServer(manager *datasources.Manager, store *state.Store) *Server {
	return &Server{
		manager:       manager,
		store:         store,
		logger:        slog.New(slog.DiscardHandler),
		filterWorkers: 1,
		pipelines:     make(map[string]*pipeline.Pipeline),
	}
}

// SetLogger sets the logger for requests and pipeline stages.
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// SetDefaultSource sets the data source used when a request has no data parameter.
func (s *Server) SetDefaultSource(name string) {
	s.defaultSource = name
}

// SetFilterWorkers sets the number of filter workers of new pipelines.
func (s *Server) SetFilterWorkers(n int) {
	s.filterWorkers = n
}

// GridHandlerResult represents the result of handling a grid request
type GridHandlerResult struct {
	Error      error
	StatusCode int
	Message    string
}

// TimingCollector collects timing measurements for various operations
type TimingCollector struct {
	entries []timingEntry
	start   time.Time
}

type timingEntry struct {
	name     string
	duration time.Duration
}

// NewTimingCollector creates a new timing collector
func NewTimingCollector() *TimingCollector {
	return &TimingCollector{start: time.Now()}
}

// Record records a timing entry
func (tc *TimingCollector) Record(operation string, duration time.Duration) {
	tc.entries = append(tc.entries, timingEntry{name: operation, duration: duration})
}

// ServerTiming formats the entries as a Server-Timing header value.
func (tc *TimingCollector) ServerTiming() string {
	parts := make([]string, 0, len(tc.entries)+1)
	for _, e := range tc.entries {
		parts = append(parts, fmt.Sprintf("%s;dur=%.2f", e.name, ms(e.duration)))
	}
	parts = append(parts, fmt.Sprintf("total;dur=%.2f", ms(time.Since(tc.start))))
	return strings.Join(parts, ", ")
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

// stateParams are the URL parameters that make up grid state.
var stateParams = []string{"sort", "logic", "grouped", "expanded", "defaultExpanded", "page", "limit"}

func carriesState(values url.Values) bool {
	for _, p := range stateParams {
		if _, ok := values[p]; ok {
			return true
		}
	}
	for key := range values {
		if strings.HasPrefix(key, "filter:") {
			return true
		}
	}
	return false
}

// sameState reports whether q describes st, ignoring columns and aggregates.
func sameState(q *query.Query, st *pipeline.GridState) bool {
	a := query.FromState("", q.Grid, nil, q.State())
	b := query.FromState("", q.Grid, nil, st)
	return a.ToURL() == b.ToURL()
}

// HandleGridRequest processes a grid request and writes the response.
// Returns an error result if the request is invalid, nil on success.
func (s *Server) HandleGridRequest(w io.Writer, requestURL *url.URL, setHeader func(key, value string)) *GridHandlerResult {
	timing := NewTimingCollector()
	s.mu.Lock()
	defer s.mu.Unlock()

	parseStart := time.Now()
	q, err := query.NewQuery(requestURL)
	if err != nil {
		return &GridHandlerResult{Error: err, StatusCode: http.StatusBadRequest, Message: err.Error()}
	}
	timing.Record("parse", time.Since(parseStart))
	if q.Grid == "" {
		return &GridHandlerResult{StatusCode: http.StatusBadRequest, Message: "grid parameter is required"}
	}

	values := requestURL.Query()
	format := values.Get("format")
	switch format {
	case "":
		format = "json"
	case "json", "ascii":
	default:
		return &GridHandlerResult{StatusCode: http.StatusBadRequest, Message: fmt.Sprintf("unknown format %q", format)}
	}

	source := values.Get("data")
	if source == "" {
		source = s.defaultSource
	}
	loadStart := time.Now()
	ds, err := s.manager.LoadData(source)
	if errors.Is(err, datasources.ErrUnknownSource) {
		return &GridHandlerResult{Error: err, StatusCode: http.StatusNotFound, Message: err.Error()}
	}
	if err != nil {
		return &GridHandlerResult{Error: err, StatusCode: http.StatusInternalServerError, Message: err.Error()}
	}
	timing.Record("load", time.Since(loadStart))

	current, err := s.store.Get(q.Grid)
	switch {
	case carriesState(values):
		if err != nil || !sameState(q, current) {
			s.store.Register(q.Grid, q.State())
			s.logger.Debug("grid state replaced from URL", "grid", q.Grid)
		}
	case errors.Is(err, state.ErrNotFound):
		return &GridHandlerResult{Error: err, StatusCode: http.StatusNotFound, Message: err.Error()}
	case err != nil:
		return &GridHandlerResult{Error: err, StatusCode: http.StatusInternalServerError, Message: err.Error()}
	default:
		stored := query.FromState(q.Path, q.Grid, q.Columns, current)
		stored.Aggregates = q.Aggregates
		q = stored
	}

	runStart := time.Now()
	p := s.pipeline(q.Grid)
	res, err := p.Run(ds.Records, s.store.Trigger(q.Grid))
	if err != nil {
		return &GridHandlerResult{Error: err, StatusCode: http.StatusInternalServerError, Message: err.Error()}
	}
	timing.Record("pipeline", time.Since(runStart))

	// links in the view point at the page that was actually shown
	if res.Paging != nil && q.Paging != nil {
		q.Paging.PageIndex = res.Paging.PageIndex
	}

	vmStart := time.Now()
	vm := views.BuildViewModel(fmt.Sprintf("%s (grid %s)", ds.Name, q.Grid), ds.Fields, res, q)
	var body []byte
	if format == "json" {
		if body, err = vm.ToJSON(); err != nil {
			return &GridHandlerResult{Error: err, StatusCode: http.StatusInternalServerError, Message: err.Error()}
		}
		setHeader("Content-Type", "application/json; charset=utf-8")
	} else {
		body = []byte(vm.ToAscii())
		setHeader("Content-Type", "text/plain; charset=utf-8")
	}
	timing.Record("render", time.Since(vmStart))
	setHeader("Server-Timing", timing.ServerTiming())

	s.logger.Info("grid served", "grid", q.Grid, "data", ds.Name, "format", format, "rows", len(vm.Rows))
	if _, err := w.Write(body); err != nil {
		return &GridHandlerResult{Error: err}
	}
	return nil
}

// pipeline returns the pipeline of grid id, creating it on first use.
func (s *Server) pipeline(id string) *pipeline.Pipeline {
	if p, ok := s.pipelines[id]; ok {
		return p
	}
	p := pipeline.New(id, s.store, pipeline.WithLogger(s.logger), pipeline.WithFilterWorkers(s.filterWorkers))
	s.pipelines[id] = p
	return p
}

// HandleLandingRequest lists the grids and data sources as links.
func (s *Server) HandleLandingRequest(w io.Writer, setHeader func(key, value string)) error {
	setHeader("Content-Type", "text/plain; charset=utf-8")

	var sb strings.Builder
	sb.WriteString("Grids:\n")
	for _, id := range s.store.IDs() {
		u := url.URL{Path: GridPath, RawQuery: url.Values{"grid": {id}, "format": {"ascii"}}.Encode()}
		fmt.Fprintf(&sb, "  %s\n", u.String())
	}
	sb.WriteString("Data sources:\n")
	for _, name := range s.manager.GetSourceNames() {
		fmt.Fprintf(&sb, "  %s\n", name)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// Handler returns the HTTP handler serving the landing page and grid views.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+GridPath, func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if res := s.HandleGridRequest(&buf, r.URL, w.Header().Set); res != nil {
			status, msg := res.StatusCode, res.Message
			if status == 0 {
				status = http.StatusInternalServerError
			}
			if msg == "" && res.Error != nil {
				msg = res.Error.Error()
			}
			s.logger.Warn("grid request failed", "url", r.URL.String(), "status", status, "err", msg)
			http.Error(w, msg, status)
			return
		}
		w.Write(buf.Bytes())
	})
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		if err := s.HandleLandingRequest(w, w.Header().Set); err != nil {
			s.logger.Error("landing page failed", "err", err)
		}
	})
	return mux
}
