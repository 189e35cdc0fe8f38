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
	"errors"
	"io"
	"log/slog"
)

// Database combines the metadata (SQLite) and blob (Badger) stores
// behind a single handle. Queryable columns live in metadata, raw
// serialized record payloads live in blob.
type Database struct {
	blob     *BlobStore
	metadata *MetadataStore
	logger   *slog.Logger
	dataDir  string
}

type Config struct {
	Logger  *slog.Logger
	DataDir string
}

// New creates a Database. An empty DataDir keeps both stores in memory.
func New(cfg Config) (*Database, error) {
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	metadata, err := newMetadataStore(cfg.DataDir, cfg.Logger)
	if err != nil {
		return nil, err
	}
	blob, err := newBlobStore(cfg.DataDir, cfg.Logger)
	if err != nil {
		metadata.Close()
		return nil, err
	}
	return &Database{
		blob:     blob,
		metadata: metadata,
		logger:   cfg.Logger,
		dataDir:  cfg.DataDir,
	}, nil
}

// Blob returns the underlying blob store
func (d *Database) Blob() *BlobStore {
	return d.blob
}

// Metadata returns the underlying metadata store
func (d *Database) Metadata() *MetadataStore {
	return d.metadata
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.dataDir
}

func (d *Database) Close() error {
	metadataErr := d.metadata.Close()
	blobErr := d.blob.Close()
	return errors.Join(metadataErr, blobErr)
}
