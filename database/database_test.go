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
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/blocksecure-io/chainseal/event"
	"github.com/blocksecure-io/chainseal/ledger"
	"github.com/blocksecure-io/chainseal/tamper"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testFingerprint = "aaaabbbbccccddddaaaabbbbccccddddaaaabbbbccccddddaaaabbbbccccdddd"

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := New(Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("unexpected error closing database: %s", err)
		}
	})
	return db
}

func TestLogRecordRoundTrip(t *testing.T) {
	db := newTestDatabase(t)
	record := LogRecord{
		LogId:       "log-001",
		Cloud:       "AWS",
		Event:       "ConsoleLogin",
		Timestamp:   "2026-08-30T10:00:00Z",
		Fingerprint: testFingerprint,
		TxId:        "0xabc",
	}
	require.NoError(t, db.Metadata().SetLogRecord(record))

	got, err := db.Metadata().GetLogRecord("log-001")
	require.NoError(t, err)
	assert.Equal(t, "AWS", got.Cloud)
	assert.Equal(t, testFingerprint, got.Fingerprint)
	assert.False(t, got.Verified)

	byFp, err := db.Metadata().GetLogRecordByFingerprint(testFingerprint)
	require.NoError(t, err)
	assert.Equal(t, "log-001", byFp.LogId)

	_, err = db.Metadata().GetLogRecord("log-missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestLogVerificationUpdate(t *testing.T) {
	db := newTestDatabase(t)
	require.NoError(t, db.Metadata().SetLogRecord(LogRecord{
		LogId:       "log-001",
		Fingerprint: testFingerprint,
		TxId:        "0xabc",
	}))
	require.NoError(
		t,
		db.Metadata().SetLogVerification("0xabc", true, 150001),
	)
	got, err := db.Metadata().GetLogRecord("log-001")
	require.NoError(t, err)
	assert.True(t, got.Verified)
	assert.Equal(t, uint64(150001), got.Height)
}

func TestAnchorRoundTrip(t *testing.T) {
	db := newTestDatabase(t)
	anchor := Anchor{
		Fingerprint: testFingerprint,
		TxId:        "0xabc",
		Status:      "pending",
		Anchorer:    "SP2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKNRV9EJ7",
		AnchoredAt:  time.Now(),
	}
	require.NoError(t, db.Metadata().SetAnchor(anchor))

	// Save replaces the existing row for the same fingerprint
	confirmedAt := time.Now()
	anchor.Status = "confirmed"
	anchor.Verified = true
	anchor.Height = 150001
	anchor.ConfirmedAt = &confirmedAt
	require.NoError(t, db.Metadata().SetAnchor(anchor))

	got, err := db.Metadata().GetAnchor(testFingerprint)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", got.Status)
	assert.True(t, got.Verified)
	require.NotNil(t, got.ConfirmedAt)
}

func TestTamperEventHistory(t *testing.T) {
	db := newTestDatabase(t)
	base := time.Now().Add(-time.Hour)
	for i, kind := range []string{"hash_mismatch", "content_modification"} {
		require.NoError(t, db.Metadata().AddTamperEvent(TamperEvent{
			EventId:    "evt-" + kind,
			LogId:      "log-001",
			Kind:       kind,
			Severity:   "high",
			DetectedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, db.Metadata().AddTamperEvent(TamperEvent{
		EventId:    "evt-other",
		LogId:      "log-002",
		Kind:       "timestamp_manipulation",
		Severity:   "medium",
		DetectedAt: base.Add(time.Hour),
	}))

	events, err := db.Metadata().ListTamperEvents("log-001")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "hash_mismatch", events[0].Kind)

	all, err := db.Metadata().ListAllTamperEvents()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "evt-other", all[0].EventId)
}

func TestBlobRoundTrip(t *testing.T) {
	db := newTestDatabase(t)
	payload := []byte(`{"cloud":"AWS","event":"ConsoleLogin"}`)
	require.NoError(t, db.Blob().PutRecord("log-001", payload))

	got, err := db.Blob().GetRecord("log-001")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	_, err = db.Blob().GetRecord("log-missing")
	assert.ErrorIs(t, err, badger.ErrKeyNotFound)
}

func TestConsumerPersistsEvents(t *testing.T) {
	db := newTestDatabase(t)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	eventBus := event.NewEventBus(prometheus.NewRegistry(), logger)
	defer eventBus.Stop()
	consumer := NewConsumer(db, eventBus, logger)
	defer consumer.Stop()

	require.NoError(t, db.Metadata().SetLogRecord(LogRecord{
		LogId:       "log-001",
		Fingerprint: testFingerprint,
		TxId:        "0xabc",
	}))

	now := time.Now()
	eventBus.Publish(
		ledger.AnchorCreatedEventType,
		event.NewEvent(
			ledger.AnchorCreatedEventType,
			ledger.AnchorCreatedEvent{
				Anchor: ledger.Anchor{
					Fingerprint: testFingerprint,
					TxId:        "0xabc",
					CreatedAt:   now,
					Anchorer:    "SP2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKNRV9EJ7",
					Transaction: ledger.Transaction{
						TxId:        "0xabc",
						Fingerprint: testFingerprint,
						Status:      ledger.TxStatusPending,
					},
				},
			},
		),
	)
	require.Eventually(t, func() bool {
		_, err := db.Metadata().GetAnchor(testFingerprint)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	confirmedAt := now.Add(3 * time.Second)
	eventBus.Publish(
		ledger.TransactionConfirmedEventType,
		event.NewEvent(
			ledger.TransactionConfirmedEventType,
			ledger.TransactionConfirmedEvent{
				Transaction: ledger.Transaction{
					TxId:        "0xabc",
					Fingerprint: testFingerprint,
					Status:      ledger.TxStatusConfirmed,
					Height:      150001,
					ConfirmedAt: &confirmedAt,
				},
			},
		),
	)
	require.Eventually(t, func() bool {
		anchor, err := db.Metadata().GetAnchor(testFingerprint)
		return err == nil && anchor.Verified
	}, 2*time.Second, 10*time.Millisecond)
	logRecord, err := db.Metadata().GetLogRecord("log-001")
	require.NoError(t, err)
	assert.True(t, logRecord.Verified)
	assert.Equal(t, uint64(150001), logRecord.Height)

	eventBus.Publish(
		tamper.TamperDetectedEventType,
		event.NewEvent(
			tamper.TamperDetectedEventType,
			tamper.TamperDetectedEvent{
				LogId: "log-001",
				Analysis: tamper.Analysis{
					IsTampered: true,
					RiskScore:  70,
					Events: []tamper.TamperEvent{
						{
							Id:         "evt-1",
							LogId:      "log-001",
							Kind:       tamper.KindHashMismatch,
							Severity:   tamper.SeverityCritical,
							DetectedAt: now,
						},
					},
				},
			},
		),
	)
	require.Eventually(t, func() bool {
		events, err := db.Metadata().ListTamperEvents("log-001")
		return err == nil && len(events) == 1
	}, 2*time.Second, 10*time.Millisecond)
	logRecord, err = db.Metadata().GetLogRecord("log-001")
	require.NoError(t, err)
	assert.True(t, logRecord.Tampered)
}
