// Copyright 2026 Blocksecure Labs
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

package database

import (
	"fmt"
	"log/slog"
	"path/filepath"

	badger "github.com/dgraph-io/badger/v4"
)

// BlobStore holds raw serialized record payloads keyed by log id. The
// metadata store carries the queryable columns; the blob store carries
// the exact bytes the fingerprint was computed over.
type BlobStore struct {
	db      *badger.DB
	logger  *slog.Logger
	dataDir string
}

func newBlobStore(dataDir string, logger *slog.Logger) (*BlobStore, error) {
	badgerOpts := badger.DefaultOptions("").
		WithLogger(newBadgerLogger(logger)).
		// The default INFO logging is fairly verbose
		WithLoggingLevel(badger.WARNING)
	if dataDir == "" {
		badgerOpts = badgerOpts.WithInMemory(true)
	} else {
		blobDir := filepath.Join(dataDir, "blob")
		badgerOpts = badgerOpts.WithDir(blobDir).WithValueDir(blobDir)
	}
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}
	return &BlobStore{
		db:      db,
		logger:  logger,
		dataDir: dataDir,
	}, nil
}

func (b *BlobStore) Close() error {
	return b.db.Close()
}

func blobKey(logId string) []byte {
	return []byte("record_" + logId)
}

// PutRecord stores the serialized payload for a log id.
func (b *BlobStore) PutRecord(logId string, payload []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(blobKey(logId), payload)
	})
}

// GetRecord returns the serialized payload for a log id, or
// badger.ErrKeyNotFound.
func (b *BlobStore) GetRecord(logId string) ([]byte, error) {
	var payload []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(blobKey(logId))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// badgerLogger wraps a slog.Logger to implement badger.Logger
type badgerLogger struct {
	*slog.Logger
}

func newBadgerLogger(logger *slog.Logger) *badgerLogger {
	return &badgerLogger{Logger: logger}
}

func (b *badgerLogger) Infof(msg string, args ...any) {
	b.Info(fmt.Sprintf(msg, args...))
}

func (b *badgerLogger) Warningf(msg string, args ...any) {
	b.Warn(fmt.Sprintf(msg, args...))
}

func (b *badgerLogger) Debugf(msg string, args ...any) {
	b.Debug(fmt.Sprintf(msg, args...))
}

func (b *badgerLogger) Errorf(msg string, args ...any) {
	b.Error(fmt.Sprintf(msg, args...))
}
