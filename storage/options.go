// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Default cache sizes for BadgerDB (in bytes). Script entries are small, so
// these are far below what a full node would use.
const (
	DefaultBlockCacheSize = 67108864 // 64MB
	DefaultIndexCacheSize = 16777216 // 16MB
	DefaultGcInterval     = 5 * time.Minute
)

type StoreOptionFunc func(*Store)

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) StoreOptionFunc {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithPromRegistry specifies the prometheus registry to use for metrics
func WithPromRegistry(registry prometheus.Registerer) StoreOptionFunc {
	return func(s *Store) {
		s.promRegistry = registry
	}
}

// WithDataDir specifies the data directory to use for storage
func WithDataDir(dataDir string) StoreOptionFunc {
	return func(s *Store) {
		s.dataDir = dataDir
	}
}

// WithBlockCacheSize specifies the block cache size. Zero keeps the default.
func WithBlockCacheSize(size uint64) StoreOptionFunc {
	return func(s *Store) {
		if size > 0 {
			s.blockCacheSize = size
		}
	}
}

// WithIndexCacheSize specifies the index cache size
func WithIndexCacheSize(size uint64) StoreOptionFunc {
	return func(s *Store) {
		if size > 0 {
			s.indexCacheSize = size
		}
	}
}

// WithGc specifies whether value log garbage collection is enabled
func WithGc(enabled bool) StoreOptionFunc {
	return func(s *Store) {
		s.gcEnabled = enabled
	}
}

// WithGcInterval specifies how often value log garbage collection runs
func WithGcInterval(interval time.Duration) StoreOptionFunc {
	return func(s *Store) {
		if interval > 0 {
			s.gcInterval = interval
		}
	}
}
