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

// Package storage persists resolved script info in a local badger database
// using the {scriptHash, scriptCbor} wire record.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/blinklabs-io/scriptinfo/scriptinfo"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/prometheus/client_golang/prometheus"
)

const scriptInfoKeyPrefix = "script_info_"

// ErrNotFound is returned when no cache entry exists for a script hash
var ErrNotFound = errors.New("script info not found in cache")

// ErrStoreClosed is returned when the store is used after Close
var ErrStoreClosed = errors.New("script info store closed")

// Store is a badger backed cache of resolved script info, keyed by script
// hash. Entries are kept in the JSON wire record form.
type Store struct {
	promRegistry   prometheus.Registerer
	db             *badger.DB
	logger         *slog.Logger
	metrics        *storeMetrics
	gcTicker       *time.Ticker
	gcStopCh       chan struct{}
	dataDir        string
	gcWg           sync.WaitGroup
	closeMutex     sync.Mutex
	blockCacheSize uint64
	indexCacheSize uint64
	gcInterval     time.Duration
	gcEnabled      bool
}

// New opens the store. Without a data dir the store is kept in memory.
func New(opts ...StoreOptionFunc) (*Store, error) {
	s := &Store{
		gcEnabled:      true,
		gcInterval:     DefaultGcInterval,
		blockCacheSize: DefaultBlockCacheSize,
		indexCacheSize: DefaultIndexCacheSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var badgerOpts badger.Options
	if s.dataDir == "" {
		badgerOpts = badger.DefaultOptions("").
			WithLogger(NewBadgerLogger(s.logger)).
			// The default INFO logging is a bit verbose
			WithLoggingLevel(badger.WARNING).
			WithInMemory(true)
		// GC has nothing to reclaim without a value log on disk
		s.gcEnabled = false
	} else {
		// Make sure that we can read data dir, and create if it doesn't exist
		if _, err := os.Stat(s.dataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		badgerOpts = badger.DefaultOptions(filepath.Join(s.dataDir, "scripts")).
			WithLogger(NewBadgerLogger(s.logger)).
			WithLoggingLevel(badger.WARNING).
			WithBlockCacheSize(int64(s.blockCacheSize)). //nolint:gosec // blockCacheSize is controlled and reasonable
			WithIndexCacheSize(int64(s.indexCacheSize)). //nolint:gosec // indexCacheSize is controlled and reasonable
			WithCompression(options.Snappy)
	}
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open script info store: %w", err)
	}
	s.db = db
	s.metrics = newStoreMetrics(s.promRegistry)
	if s.gcEnabled {
		s.gcTicker = time.NewTicker(s.gcInterval)
		s.gcStopCh = make(chan struct{})
		s.gcWg.Add(1)
		go s.valueLogGc(s.gcTicker, s.gcStopCh)
	}
	return s, nil
}

func (s *Store) valueLogGc(t *time.Ticker, stop <-chan struct{}) {
	defer s.gcWg.Done()
	for {
		select {
		case <-t.C:
			for {
				err := s.db.RunValueLogGC(0.5)
				if err == nil {
					// Run it again if it just ran successfully
					continue
				}
				if !errors.Is(err, badger.ErrNoRewrite) {
					s.logger.Warn(
						fmt.Sprintf("script store: GC failure: %s", err),
						"component", "storage",
					)
				}
				break
			}
		case <-stop:
			return
		}
	}
}

// Close stops background GC and closes the database
func (s *Store) Close() error {
	s.closeMutex.Lock()
	defer s.closeMutex.Unlock()
	if s.db == nil {
		return nil
	}
	if s.gcTicker != nil {
		s.gcTicker.Stop()
		close(s.gcStopCh)
		// Wait for GC goroutine to finish
		s.gcWg.Wait()
		s.gcTicker = nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func scriptInfoKey(hash lcommon.Blake2b224) []byte {
	key := make([]byte, 0, len(scriptInfoKeyPrefix)+len(hash))
	key = append(key, scriptInfoKeyPrefix...)
	key = append(key, hash[:]...)
	return key
}

// Get returns the cached script info for a hash. It returns ErrNotFound when
// there is no entry and a DecodeError when the entry is corrupt.
func (s *Store) Get(hash lcommon.Blake2b224) (scriptinfo.ScriptInfo, error) {
	db, err := s.handle()
	if err != nil {
		return scriptinfo.ScriptInfo{}, err
	}
	txn := db.NewTransaction(false)
	defer txn.Discard()
	item, err := txn.Get(scriptInfoKey(hash))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			s.metrics.reads.WithLabelValues("miss").Inc()
			return scriptinfo.ScriptInfo{}, ErrNotFound
		}
		s.metrics.reads.WithLabelValues("error").Inc()
		return scriptinfo.ScriptInfo{}, fmt.Errorf("read script info %s: %w", hash.String(), err)
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		s.metrics.reads.WithLabelValues("error").Inc()
		return scriptinfo.ScriptInfo{}, fmt.Errorf("read script info %s: %w", hash.String(), err)
	}
	info, err := Unmarshal(val)
	if err != nil {
		s.metrics.reads.WithLabelValues("corrupt").Inc()
		return scriptinfo.ScriptInfo{}, err
	}
	s.metrics.reads.WithLabelValues("hit").Inc()
	return info, nil
}

// Put stores script info under its hash, replacing any existing entry
func (s *Store) Put(info scriptinfo.ScriptInfo) error {
	rec, err := Encode(info)
	if err != nil {
		return err
	}
	return s.putRecord(info.Hash(), rec)
}

func (s *Store) putRecord(hash lcommon.Blake2b224, rec Record) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	db, err := s.handle()
	if err != nil {
		return err
	}
	txn := db.NewTransaction(true)
	defer txn.Discard()
	if err := txn.Set(scriptInfoKey(hash), val); err != nil {
		return fmt.Errorf("write script info %s: %w", hash.String(), err)
	}
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("commit script info %s: %w", hash.String(), err)
	}
	s.metrics.writes.Inc()
	return nil
}

// Delete removes the cache entry for a hash. Deleting a missing entry is not
// an error.
func (s *Store) Delete(hash lcommon.Blake2b224) error {
	db, err := s.handle()
	if err != nil {
		return err
	}
	txn := db.NewTransaction(true)
	defer txn.Discard()
	if err := txn.Delete(scriptInfoKey(hash)); err != nil {
		return fmt.Errorf("delete script info %s: %w", hash.String(), err)
	}
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("commit script info %s: %w", hash.String(), err)
	}
	s.metrics.deletes.Inc()
	return nil
}

func (s *Store) handle() (*badger.DB, error) {
	s.closeMutex.Lock()
	defer s.closeMutex.Unlock()
	if s.db == nil {
		return nil, ErrStoreClosed
	}
	return s.db, nil
}
