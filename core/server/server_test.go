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

package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/google/gridpipe/core/state"
	"github.com/google/gridpipe/datasources"
	"github.com/google/gridpipe/demo"
)

func newTestServer(t *testing.T) (*Server, *state.Store) {
	t.Helper()
	orders, err := demo.Orders()
	if err != nil {
		t.Fatalf("Orders: %v", err)
	}
	manager := datasources.NewManager()
	manager.AddDataset(orders)

	cfg, err := demo.Grids()
	if err != nil {
		t.Fatalf("Grids: %v", err)
	}
	store := state.NewStore()
	if err := store.Load(cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}

	s := NewServer(manager, store)
	s.SetDefaultSource("orders")
	return s, store
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) *structpb.Struct {
	t.Helper()
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("invalid JSON response: %v\n%s", err, rec.Body.String())
	}
	return out
}

func TestHandleGridErrors(t *testing.T) {
	s, _ := newTestServer(t)
	tests := []struct {
		name   string
		target string
		status int
	}{
		{"missing grid", "/grid", http.StatusBadRequest},
		{"unknown grid", "/grid?grid=nope", http.StatusNotFound},
		{"unknown data", "/grid?grid=orders&data=nope", http.StatusNotFound},
		{"unknown format", "/grid?grid=orders&format=xml", http.StatusBadRequest},
		{"invalid limit", "/grid?grid=orders&limit=abc", http.StatusBadRequest},
		{"unknown path", "/tables", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.target)
			if rec.Code != tt.status {
				t.Errorf("GET %s = %d, want %d (%s)", tt.target, rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestHandleGridStoredState(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/grid?grid=orders")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
	if timing := rec.Header().Get("Server-Timing"); !strings.Contains(timing, "pipeline;dur=") {
		t.Errorf("Server-Timing = %q", timing)
	}

	out := decode(t, rec)
	// 4 region headers and the 23 records of the expanded regions
	if got := out.Fields["totalRows"].GetNumberValue(); got != 27 {
		t.Errorf("totalRows = %v, want 27", got)
	}
	pagingInfo := out.Fields["paging"].GetStructValue()
	if got := pagingInfo.GetFields()["totalPages"].GetNumberValue(); got != 2 {
		t.Errorf("totalPages = %v, want 2", got)
	}
	if got := len(out.Fields["rows"].GetListValue().GetValues()); got != 15 {
		t.Errorf("rows = %d, want 15", got)
	}
}

func TestHandleGridStateFromURL(t *testing.T) {
	s, store := newTestServer(t)

	rec := get(t, s, "/grid?grid=adhoc&filter:status:string=equals:Cancelled&format=ascii")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Filters (and): status equals Cancelled") || !strings.HasSuffix(body, "3 rows\n") {
		t.Errorf("unexpected view:\n%s", body)
	}

	st, err := store.Get("adhoc")
	if err != nil {
		t.Fatalf("grid from URL not stored: %v", err)
	}
	if len(st.FilteringExpressions) != 1 {
		t.Errorf("stored filters = %d, want 1", len(st.FilteringExpressions))
	}

	// Without state parameters the stored state is shown.
	out := decode(t, get(t, s, "/grid?grid=adhoc"))
	if got := out.Fields["totalRows"].GetNumberValue(); got != 3 {
		t.Errorf("totalRows = %v, want 3", got)
	}
}

func TestHandleGridSameStateKeepsTrigger(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"sorted", "/grid?grid=adhoc&sort=amount:desc&limit=5"},
		{"clamped page", "/grid?grid=adhoc&sort=amount:desc&page=9&limit=5"},
		{"show all", "/grid?grid=adhoc&sort=amount:desc&limit=0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, store := newTestServer(t)
			if rec := get(t, s, tt.target); rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			before := store.Trigger("adhoc")
			if rec := get(t, s, tt.target); rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			if after := store.Trigger("adhoc"); after != before {
				t.Errorf("trigger changed from %d to %d for an identical state", before, after)
			}
			if rec := get(t, s, "/grid?grid=adhoc&sort=amount:asc&limit=5"); rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			if after := store.Trigger("adhoc"); after == before {
				t.Error("trigger not bumped for a new state")
			}
		})
	}
}

func TestHandleGridColumnsAndAggregates(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/grid?grid=by-status&columns=status,amount&agg=amount:count&format=ascii")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{"| status", "amount", "+ status: Active (14)  # amount", "+ status: Cancelled (3)  # amount"} {
		if !strings.Contains(body, want) {
			t.Errorf("view does not contain %q:\n%s", want, body)
		}
	}
}

func TestHandleLanding(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"/grid?format=ascii&grid=active-orders\n",
		"/grid?format=ascii&grid=by-status\n",
		"/grid?format=ascii&grid=orders\n",
		"Data sources:\n  orders\n",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("landing page does not contain %q:\n%s", want, body)
		}
	}
}
