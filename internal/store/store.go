// SPDX-License-Identifier: BSD-3-Clause

// Package store implements the append/range-query façade each
// DomainManager writes its broadcast batches into and the HTTP query
// server reads back out of.
//
// No embedded or remote time-series/SQL driver appears anywhere in the
// retrieval pack, so this is a plain sync.RWMutex-guarded, capacity-bounded
// ring per measurement kind, keyed by grow_id — the minimal stdlib-only
// shape that satisfies the append/range-query contract without inventing
// a storage engine the corpus never reaches for.
package store

import (
	"sort"
	"sync"

	"github.com/rorosen/growd/internal/measurement"
)

// capacity is the number of most recent samples retained per measurement
// kind before the oldest is evicted.
const capacity = 4096

// Store holds the three measurement rings for one grow_id.
type Store struct {
	growID string

	airMu sync.RWMutex
	air   []measurement.Air

	lightMu sync.RWMutex
	light   []measurement.Light

	waterLevelMu sync.RWMutex
	waterLevel   []measurement.WaterLevel
}

// New creates an empty Store for growID.
func New(growID string) *Store {
	return &Store{growID: growID}
}

// GrowID returns the identifier this Store was opened for.
func (s *Store) GrowID() string {
	return s.growID
}

// AddAir appends a batch of air measurements, evicting the oldest
// entries if capacity is exceeded.
func (s *Store) AddAir(batch []measurement.Air) {
	s.airMu.Lock()
	defer s.airMu.Unlock()
	s.air = appendBounded(s.air, batch, func(m measurement.Air) int64 { return m.MeasureTime })
}

// AddLight appends a batch of light measurements, evicting the oldest
// entries if capacity is exceeded.
func (s *Store) AddLight(batch []measurement.Light) {
	s.lightMu.Lock()
	defer s.lightMu.Unlock()
	s.light = appendBounded(s.light, batch, func(m measurement.Light) int64 { return m.MeasureTime })
}

// AddWaterLevel appends a batch of water-level measurements, evicting
// the oldest entries if capacity is exceeded.
func (s *Store) AddWaterLevel(batch []measurement.WaterLevel) {
	s.waterLevelMu.Lock()
	defer s.waterLevelMu.Unlock()
	s.waterLevel = appendBounded(s.waterLevel, batch, func(m measurement.WaterLevel) int64 { return m.MeasureTime })
}

// AirSince returns every retained air measurement with MeasureTime >= since.
func (s *Store) AirSince(since int64) []measurement.Air {
	s.airMu.RLock()
	defer s.airMu.RUnlock()

	out := make([]measurement.Air, 0, len(s.air))
	for _, m := range s.air {
		if m.MeasureTime >= since {
			out = append(out, m)
		}
	}
	return out
}

// LightSince returns every retained light measurement with MeasureTime >= since.
func (s *Store) LightSince(since int64) []measurement.Light {
	s.lightMu.RLock()
	defer s.lightMu.RUnlock()

	out := make([]measurement.Light, 0, len(s.light))
	for _, m := range s.light {
		if m.MeasureTime >= since {
			out = append(out, m)
		}
	}
	return out
}

// WaterLevelSince returns every retained water-level measurement with
// MeasureTime >= since.
func (s *Store) WaterLevelSince(since int64) []measurement.WaterLevel {
	s.waterLevelMu.RLock()
	defer s.waterLevelMu.RUnlock()

	out := make([]measurement.WaterLevel, 0, len(s.waterLevel))
	for _, m := range s.waterLevel {
		if m.MeasureTime >= since {
			out = append(out, m)
		}
	}
	return out
}

// appendBounded appends batch to ring, keeping the result sorted by the
// time timeOf extracts and trimmed to capacity from the front (oldest
// first).
func appendBounded[M any](ring []M, batch []M, timeOf func(M) int64) []M {
	ring = append(ring, batch...)
	sort.SliceStable(ring, func(i, j int) bool {
		return timeOf(ring[i]) < timeOf(ring[j])
	})
	if len(ring) > capacity {
		ring = ring[len(ring)-capacity:]
	}
	return ring
}
