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
	"log/slog"

	"github.com/blocksecure-io/chainseal/event"
	"github.com/blocksecure-io/chainseal/ledger"
	"github.com/blocksecure-io/chainseal/tamper"
)

// Consumer subscribes to ledger and tamper events and mirrors them
// into the metadata store, keeping persisted rows in sync with the
// in-memory state without coupling the domain packages to storage.
type Consumer struct {
	db       *Database
	eventBus *event.EventBus
	logger   *slog.Logger
	done     chan struct{}
}

func NewConsumer(
	db *Database,
	eventBus *event.EventBus,
	logger *slog.Logger,
) *Consumer {
	c := &Consumer{
		db:       db,
		eventBus: eventBus,
		logger:   logger,
		done:     make(chan struct{}),
	}
	_, anchorCh := eventBus.Subscribe(ledger.AnchorCreatedEventType)
	_, confirmCh := eventBus.Subscribe(ledger.TransactionConfirmedEventType)
	_, failCh := eventBus.Subscribe(ledger.TransactionFailedEventType)
	_, tamperCh := eventBus.Subscribe(tamper.TamperDetectedEventType)
	go c.processEvents(anchorCh, confirmCh, failCh, tamperCh)
	return c
}

// Stop shuts down the consumer after its event channels drain.
func (c *Consumer) Stop() {
	close(c.done)
}

func (c *Consumer) processEvents(
	anchorCh, confirmCh, failCh, tamperCh <-chan event.Event,
) {
	for {
		select {
		case <-c.done:
			return
		case evt, ok := <-anchorCh:
			if !ok {
				return
			}
			data := evt.Data.(ledger.AnchorCreatedEvent)
			c.persistAnchor(data.Anchor)
		case evt, ok := <-confirmCh:
			if !ok {
				return
			}
			data := evt.Data.(ledger.TransactionConfirmedEvent)
			c.persistResolution(data.Transaction, true)
		case evt, ok := <-failCh:
			if !ok {
				return
			}
			data := evt.Data.(ledger.TransactionFailedEvent)
			c.persistResolution(data.Transaction, false)
		case evt, ok := <-tamperCh:
			if !ok {
				return
			}
			data := evt.Data.(tamper.TamperDetectedEvent)
			c.persistTamper(data)
		}
	}
}

func (c *Consumer) persistAnchor(anchor ledger.Anchor) {
	row := Anchor{
		Fingerprint: anchor.Fingerprint,
		TxId:        anchor.TxId,
		Status:      string(anchor.Transaction.Status),
		Height:      anchor.Transaction.Height,
		Anchorer:    anchor.Anchorer,
		Verified:    anchor.Verified,
		AnchoredAt:  anchor.CreatedAt,
	}
	if err := c.db.Metadata().SetAnchor(row); err != nil {
		c.logger.Error(
			"failed to persist anchor",
			"component", "database",
			"fingerprint", anchor.Fingerprint,
			"error", err,
		)
	}
}

func (c *Consumer) persistResolution(tx ledger.Transaction, verified bool) {
	anchor, err := c.db.Metadata().GetAnchor(tx.Fingerprint)
	if err != nil {
		c.logger.Error(
			"failed to load anchor for resolution",
			"component", "database",
			"tx_id", tx.TxId,
			"error", err,
		)
		return
	}
	// A newer pending transaction may have replaced this one on the
	// anchor. Resolutions of superseded transactions are ignored.
	if anchor.TxId == tx.TxId {
		anchor.Status = string(tx.Status)
		anchor.Height = tx.Height
		anchor.Verified = verified
		anchor.ConfirmedAt = tx.ConfirmedAt
		if err := c.db.Metadata().SetAnchor(anchor); err != nil {
			c.logger.Error(
				"failed to persist anchor resolution",
				"component", "database",
				"tx_id", tx.TxId,
				"error", err,
			)
		}
	}
	if err := c.db.Metadata().SetLogVerification(tx.TxId, verified, tx.Height); err != nil {
		c.logger.Error(
			"failed to persist log verification",
			"component", "database",
			"tx_id", tx.TxId,
			"error", err,
		)
	}
}

func (c *Consumer) persistTamper(data tamper.TamperDetectedEvent) {
	for _, te := range data.Analysis.Events {
		row := TamperEvent{
			EventId:       te.Id,
			LogId:         te.LogId,
			Kind:          string(te.Kind),
			Severity:      string(te.Severity),
			OriginalValue: te.OriginalValue,
			ObservedValue: te.ObservedValue,
			Description:   te.Description,
			DetectedAt:    te.DetectedAt,
		}
		if err := c.db.Metadata().AddTamperEvent(row); err != nil {
			c.logger.Error(
				"failed to persist tamper event",
				"component", "database",
				"log_id", te.LogId,
				"error", err,
			)
		}
	}
	if err := c.db.Metadata().SetLogTampered(data.LogId); err != nil {
		c.logger.Error(
			"failed to flag tampered log",
			"component", "database",
			"log_id", data.LogId,
			"error", err,
		)
	}
}
