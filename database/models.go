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

import "time"

// LogRecord is a persisted log record with its anchoring state. The
// raw serialized payload lives in the blob store keyed by LogId; this
// row carries the queryable metadata the facade lists and exports.
type LogRecord struct {
	LogId       string `gorm:"primaryKey"`
	Cloud       string `gorm:"index"`
	Event       string
	Timestamp   string
	Fingerprint string `gorm:"index"`
	TxId        string
	Height      uint64
	Verified    bool
	Tampered    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (LogRecord) TableName() string {
	return "log_record"
}

// Anchor is a persisted snapshot of an anchor ledger entry, updated as
// its transaction moves through the confirmation lifecycle.
type Anchor struct {
	Fingerprint string `gorm:"primaryKey"`
	TxId        string `gorm:"index"`
	Status      string
	Height      uint64
	Anchorer    string
	Verified    bool
	AnchoredAt  time.Time
	ConfirmedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Anchor) TableName() string {
	return "anchor"
}

// TamperEvent is a persisted tamper event. Rows are append-only.
type TamperEvent struct {
	EventId       string `gorm:"primaryKey"`
	LogId         string `gorm:"index"`
	Kind          string
	Severity      string
	OriginalValue string
	ObservedValue string
	Description   string
	DetectedAt    time.Time `gorm:"index"`
	CreatedAt     time.Time
}

func (TamperEvent) TableName() string {
	return "tamper_event"
}

// MigrateModels contains a list of model objects that should have DB migrations applied
var MigrateModels = []any{
	&LogRecord{},
	&Anchor{},
	&TamperEvent{},
}
