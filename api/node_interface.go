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

package api

import (
	"time"

	"github.com/blocksecure-io/chainseal/ledger"
	"github.com/blocksecure-io/chainseal/tamper"
)

// ServiceNode is the interface that the REST API server uses to reach
// the anchoring and tamper-analysis service. This decouples the HTTP
// server from the concrete service struct and enables testing with
// mock implementations.
type ServiceNode interface {
	// AnchorRecord fingerprints a record, stores it, and submits an
	// anchoring transaction for it.
	AnchorRecord(logId string, record map[string]any) (ledger.Anchor, error)

	// VerifyFingerprint returns the anchor for a fingerprint, if one
	// exists.
	VerifyFingerprint(fp string) (ledger.Anchor, bool, error)

	// GetTransaction returns an anchoring transaction by id.
	GetTransaction(txId string) (ledger.Transaction, bool, error)

	// LedgerStats returns aggregate anchoring statistics.
	LedgerStats() (ledger.Stats, error)

	// DetectTamper analyzes a record against its recorded baseline.
	DetectTamper(logId string, record map[string]any) (tamper.Analysis, error)

	// SimulateTamper returns a mutated copy of a record for the named
	// simulation mode.
	SimulateTamper(record map[string]any, mode string) map[string]any

	// TamperHistory returns the tamper event history for one log id.
	TamperHistory(logId string) ([]tamper.TamperEvent, error)

	// AllTamperEvents returns every tamper event across logs, newest
	// first.
	AllTamperEvents() ([]tamper.TamperEvent, error)

	// ListLogs returns all stored log records, newest first.
	ListLogs() ([]LogInfo, error)
}

// LogInfo holds stored log record data needed by the API.
type LogInfo struct {
	LogId       string     `json:"logId"`
	Cloud       string     `json:"cloud,omitempty"`
	Event       string     `json:"event,omitempty"`
	Timestamp   string     `json:"timestamp,omitempty"`
	Fingerprint string     `json:"fingerprint"`
	TxId        string     `json:"txId"`
	Height      uint64     `json:"height"`
	Verified    bool       `json:"verified"`
	Tampered    bool       `json:"tampered"`
	CreatedAt   time.Time  `json:"createdAt"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
}
