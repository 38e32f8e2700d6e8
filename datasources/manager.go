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
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config lists the data sources known to a Manager.
type Config struct {
	Sources []SourceConfig `yaml:"sources"`
}

// SourceConfig describes one data source.
type SourceConfig struct {
	Name   string            `yaml:"name"`
	Type   string            `yaml:"type"`
	Config map[string]string `yaml:"config"`
}

// Manager handles loading and caching of data sources.
// Source metadata is registered eagerly; data is loaded lazily on demand.
type Manager struct {
	mu sync.RWMutex

	// Source metadata indexed by name
	sources map[string]SourceConfig

	// Cached datasets indexed by source name - populated lazily
	datasets map[string]*Dataset

	// Registered loaders indexed by source type
	loaders map[string]Loader

	// Base directory for resolving relative paths
	baseDir string
}

// NewManager creates a new data source manager with the CSV and JSON
// loaders registered.
func NewManager() *Manager {
	m := &Manager{
		sources:  make(map[string]SourceConfig),
		datasets: make(map[string]*Dataset),
		loaders:  make(map[string]Loader),
	}
	m.RegisterLoader(NewCsvLoader())
	m.RegisterLoader(NewJsonLoader())
	return m
}

// RegisterLoader registers a data source loader for a specific source type.
// If a loader is already registered for this type, it will be replaced.
func (m *Manager) RegisterLoader(loader Loader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaders[loader.SourceType()] = loader
}

// LoadConfig loads source metadata from a YAML file. Relative file paths
// are resolved against the directory of the file.
func (m *Manager) LoadConfig(configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	m.SetBaseDir(filepath.Dir(configPath))
	for _, source := range config.Sources {
		if err := m.AddSource(source); err != nil {
			return fmt.Errorf("%s: %w", configPath, err)
		}
	}
	return nil
}

// SetBaseDir sets the base directory for resolving relative paths in config.
func (m *Manager) SetBaseDir(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseDir = dir
}

// AddSource registers a source. Its data is not read until LoadData.
func (m *Manager) AddSource(source SourceConfig) error {
	if source.Name == "" {
		return fmt.Errorf("source without name")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[source.Name] = source
	delete(m.datasets, source.Name)
	return nil
}

// AddDataset registers an already loaded dataset, e.g. embedded data.
func (m *Manager) AddDataset(ds *Dataset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.datasets[ds.Name] = ds
}

// GetSourceNames returns all registered source and dataset names, sorted.
func (m *Manager) GetSourceNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]bool, len(m.sources)+len(m.datasets))
	for name := range m.sources {
		seen[name] = true
	}
	for name := range m.datasets {
		seen[name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadData loads data for a source by name.
// Returns cached data if already loaded; otherwise loads from the source.
func (m *Manager) LoadData(sourceName string) (*Dataset, error) {
	// Check cache first (with read lock)
	m.mu.RLock()
	if ds, ok := m.datasets[sourceName]; ok {
		m.mu.RUnlock()
		return ds, nil
	}
	source, ok := m.sources[sourceName]
	if !ok {
		m.mu.RUnlock()
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, sourceName)
	}
	loader, hasLoader := m.loaders[source.Type]
	baseDir := m.baseDir
	m.mu.RUnlock()

	if !hasLoader {
		return nil, fmt.Errorf("no loader registered for source type %q", source.Type)
	}

	ds, err := loader.Load(resolveConfigPaths(source.Config, baseDir))
	if err != nil {
		return nil, fmt.Errorf("failed to load source %q: %w", sourceName, err)
	}
	ds.Name = sourceName

	// Cache the result
	m.mu.Lock()
	m.datasets[sourceName] = ds
	m.mu.Unlock()

	return ds, nil
}

// resolveConfigPaths resolves relative file paths in config to absolute paths.
func resolveConfigPaths(config map[string]string, baseDir string) map[string]string {
	if baseDir == "" {
		return config
	}

	resolved := make(map[string]string, len(config))
	for k, v := range config {
		if k == "file_path" && v != "" && !filepath.IsAbs(v) {
			resolved[k] = filepath.Join(baseDir, v)
		} else {
			resolved[k] = v
		}
	}
	return resolved
}

// InvalidateCache removes a source from the cache, forcing reload on next access.
func (m *Manager) InvalidateCache(sourceName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sources[sourceName]; ok {
		delete(m.datasets, sourceName)
	}
}

// IsLoaded returns whether data for a source is currently cached.
func (m *Manager) IsLoaded(sourceName string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.datasets[sourceName]
	return ok
}
