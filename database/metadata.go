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
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// MetadataStore is the SQLite-backed store for log records, anchor
// snapshots, and tamper events. It uses an in-memory database when no
// data directory is configured, useful for testing.
type MetadataStore struct {
	db      *gorm.DB
	logger  *slog.Logger
	dataDir string
}

func newMetadataStore(
	dataDir string,
	logger *slog.Logger,
) (*MetadataStore, error) {
	var metadataDb *gorm.DB
	var err error
	if dataDir == "" {
		// cache=shared allows multiple connections to share the same
		// in-memory database
		metadataDb, err = gorm.Open(
			sqlite.Open("file::memory:?cache=shared"),
			&gorm.Config{
				Logger:                 gormlogger.Discard,
				SkipDefaultTransaction: true,
			},
		)
		if err != nil {
			return nil, err
		}
	} else {
		// Make sure that we can read data dir, and create if it doesn't exist
		if _, err := os.Stat(dataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(dataDir, fs.ModePerm); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		metadataDbPath := filepath.Join(dataDir, "metadata.sqlite")
		// WAL journal mode, disable sync on write
		metadataConnOpts := "_pragma=journal_mode(WAL)&_pragma=sync(OFF)"
		metadataDb, err = gorm.Open(
			sqlite.Open(
				fmt.Sprintf("file:%s?%s", metadataDbPath, metadataConnOpts),
			),
			&gorm.Config{
				Logger:                 gormlogger.Discard,
				SkipDefaultTransaction: true,
			},
		)
		if err != nil {
			return nil, err
		}
	}
	store := &MetadataStore{
		db:      metadataDb,
		logger:  logger,
		dataDir: dataDir,
	}
	// Configure tracing for GORM
	if err := store.db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}
	// Create table schemas
	for _, model := range MigrateModels {
		if err := store.db.AutoMigrate(model); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func (s *MetadataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SetLogRecord creates or replaces a persisted log record.
func (s *MetadataStore) SetLogRecord(record LogRecord) error {
	result := s.db.Save(&record)
	return result.Error
}

// GetLogRecord returns the persisted log record for a log id, or
// ErrRecordNotFound.
func (s *MetadataStore) GetLogRecord(logId string) (LogRecord, error) {
	var record LogRecord
	result := s.db.First(&record, "log_id = ?", logId)
	if result.Error != nil {
		return LogRecord{}, result.Error
	}
	return record, nil
}

// GetLogRecordByFingerprint returns the persisted log record carrying
// the given fingerprint.
func (s *MetadataStore) GetLogRecordByFingerprint(
	fp string,
) (LogRecord, error) {
	var record LogRecord
	result := s.db.First(&record, "fingerprint = ?", fp)
	if result.Error != nil {
		return LogRecord{}, result.Error
	}
	return record, nil
}

// ListLogRecords returns all persisted log records, newest first.
func (s *MetadataStore) ListLogRecords() ([]LogRecord, error) {
	var records []LogRecord
	result := s.db.Order("created_at DESC").Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}
	return records, nil
}

// SetLogVerification updates the anchoring outcome columns of a log
// record identified by transaction id.
func (s *MetadataStore) SetLogVerification(
	txId string,
	verified bool,
	height uint64,
) error {
	result := s.db.Model(&LogRecord{}).
		Where("tx_id = ?", txId).
		Updates(map[string]any{"verified": verified, "height": height})
	return result.Error
}

// SetLogTampered marks a log record as having tamper findings.
func (s *MetadataStore) SetLogTampered(logId string) error {
	result := s.db.Model(&LogRecord{}).
		Where("log_id = ?", logId).
		Update("tampered", true)
	return result.Error
}

// SetAnchor creates or replaces a persisted anchor snapshot.
func (s *MetadataStore) SetAnchor(anchor Anchor) error {
	result := s.db.Save(&anchor)
	return result.Error
}

// GetAnchor returns the persisted anchor snapshot for a fingerprint.
func (s *MetadataStore) GetAnchor(fp string) (Anchor, error) {
	var anchor Anchor
	result := s.db.First(&anchor, "fingerprint = ?", fp)
	if result.Error != nil {
		return Anchor{}, result.Error
	}
	return anchor, nil
}

// AddTamperEvent appends a persisted tamper event.
func (s *MetadataStore) AddTamperEvent(evt TamperEvent) error {
	result := s.db.Create(&evt)
	return result.Error
}

// ListTamperEvents returns the persisted tamper events for one log id
// in detection order.
func (s *MetadataStore) ListTamperEvents(
	logId string,
) ([]TamperEvent, error) {
	var events []TamperEvent
	result := s.db.Where("log_id = ?", logId).
		Order("detected_at ASC").
		Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}
	return events, nil
}

// ListAllTamperEvents returns every persisted tamper event, newest
// first.
func (s *MetadataStore) ListAllTamperEvents() ([]TamperEvent, error) {
	var events []TamperEvent
	result := s.db.Order("detected_at DESC").Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}
	return events, nil
}
