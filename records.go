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

package chainseal

import (
	"encoding/json"
	"fmt"

	"github.com/blocksecure-io/chainseal/api"
	"github.com/blocksecure-io/chainseal/database"
	"github.com/blocksecure-io/chainseal/fingerprint"
	"github.com/blocksecure-io/chainseal/ledger"
	"github.com/blocksecure-io/chainseal/tamper"
)

// AnchorRecord fingerprints a record, registers it as the tamper
// baseline, stores it, and submits an anchoring transaction for the
// fingerprint.
func (s *Service) AnchorRecord(
	logId string,
	record map[string]any,
) (ledger.Anchor, error) {
	payload, err := fingerprint.Serialize(record)
	if err != nil {
		return ledger.Anchor{}, err
	}
	fp := fingerprint.Digest(payload)
	if err := s.analyzer.RecordOriginal(logId, tamper.Record(record)); err != nil {
		return ledger.Anchor{}, err
	}
	anchor, err := s.ledger.CreateAnchor(fp)
	if err != nil {
		return ledger.Anchor{}, err
	}
	if err := s.db.Blob().PutRecord(logId, payload); err != nil {
		return ledger.Anchor{}, fmt.Errorf(
			"failed to store record payload: %w",
			err,
		)
	}
	row := database.LogRecord{
		LogId:       logId,
		Cloud:       recordField(record, "cloud"),
		Event:       recordField(record, "event"),
		Timestamp:   recordField(record, "timestamp"),
		Fingerprint: fp,
		TxId:        anchor.TxId,
		Height:      anchor.Transaction.Height,
	}
	if err := s.db.Metadata().SetLogRecord(row); err != nil {
		return ledger.Anchor{}, fmt.Errorf(
			"failed to store log record: %w",
			err,
		)
	}
	return anchor, nil
}

// VerifyFingerprint returns the anchor for a fingerprint, if one
// exists.
func (s *Service) VerifyFingerprint(
	fp string,
) (ledger.Anchor, bool, error) {
	anchor, ok := s.ledger.Verify(fp)
	return anchor, ok, nil
}

// GetTransaction returns an anchoring transaction by id.
func (s *Service) GetTransaction(
	txId string,
) (ledger.Transaction, bool, error) {
	tx, ok := s.ledger.GetTransaction(txId)
	return tx, ok, nil
}

// LedgerStats returns aggregate anchoring statistics.
func (s *Service) LedgerStats() (ledger.Stats, error) {
	return s.ledger.Stats(), nil
}

// DetectTamper analyzes a record against its recorded baseline.
func (s *Service) DetectTamper(
	logId string,
	record map[string]any,
) (tamper.Analysis, error) {
	return s.analyzer.Analyze(logId, tamper.Record(record))
}

// SimulateTamper returns a mutated copy of a record for the named
// simulation mode.
func (s *Service) SimulateTamper(
	record map[string]any,
	mode string,
) map[string]any {
	return s.analyzer.SimulateTamper(
		tamper.Record(record),
		tamper.SimulateMode(mode),
	)
}

// TamperHistory returns the tamper event history for one log id.
func (s *Service) TamperHistory(
	logId string,
) ([]tamper.TamperEvent, error) {
	return s.analyzer.History(logId), nil
}

// AllTamperEvents returns every tamper event across logs, newest
// first.
func (s *Service) AllTamperEvents() ([]tamper.TamperEvent, error) {
	return s.analyzer.AllEvents(), nil
}

// ListLogs returns all stored log records, newest first.
func (s *Service) ListLogs() ([]api.LogInfo, error) {
	rows, err := s.db.Metadata().ListLogRecords()
	if err != nil {
		return nil, err
	}
	logs := make([]api.LogInfo, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, api.LogInfo{
			LogId:       row.LogId,
			Cloud:       row.Cloud,
			Event:       row.Event,
			Timestamp:   row.Timestamp,
			Fingerprint: row.Fingerprint,
			TxId:        row.TxId,
			Height:      row.Height,
			Verified:    row.Verified,
			Tampered:    row.Tampered,
			CreatedAt:   row.CreatedAt,
		})
	}
	return logs, nil
}

func recordField(record map[string]any, key string) string {
	if v, ok := record[key].(string); ok {
		return v
	}
	return ""
}

func decodeRecord(payload []byte) (tamper.Record, error) {
	var record tamper.Record
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, err
	}
	return record, nil
}
