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

package pipeline

import "unsafe"

// Identity identifies a slice by its backing array, length and capacity.
// Two slices with the same Identity hold the same elements unless the
// array was written to in place.
type Identity struct {
	data unsafe.Pointer
	len  int
	cap  int
}

// IdentityOf returns the identity of s. All empty nil slices share one identity.
func IdentityOf[S ~[]E, E any](s S) Identity {
	return Identity{data: unsafe.Pointer(unsafe.SliceData(s)), len: len(s), cap: cap(s)}
}

// Gate caches the most recent result of one stage. The result is reused
// while the key is unchanged and the trigger has not moved; anything else
// recomputes and replaces it.
type Gate[K comparable, V any] struct {
	key     K
	trigger uint64
	value   V
	valid   bool

	hits       int
	recomputes int
}

// Get returns the cached value for key and trigger, calling compute when
// the cache is stale. The second result reports whether compute ran.
func (g *Gate[K, V]) Get(key K, trigger uint64, compute func() V) (V, bool) {
	if g.valid && g.key == key && g.trigger == trigger {
		g.hits++
		return g.value, false
	}
	g.value = compute()
	g.key = key
	g.trigger = trigger
	g.valid = true
	g.recomputes++
	return g.value, true
}

// Reset drops the cached value.
func (g *Gate[K, V]) Reset() {
	var zeroK K
	var zeroV V
	g.key, g.value, g.valid, g.trigger = zeroK, zeroV, false, 0
}

// StageStats counts how a gate was used.
type StageStats struct {
	Hits       int
	Recomputes int
}

func (g *Gate[K, V]) stats() StageStats {
	return StageStats{Hits: g.hits, Recomputes: g.recomputes}
}
