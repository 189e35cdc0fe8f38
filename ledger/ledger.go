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

// Package ledger implements the simulated anchor ledger. Each anchor
// request issues a pending transaction that resolves asynchronously
// after a randomized delay, confirming with the configured probability
// and advancing the global height counter on confirmation.
package ledger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	mrand "math/rand/v2"
	"sync"
	"time"

	"github.com/blocksecure-io/chainseal/event"
	"github.com/blocksecure-io/chainseal/fingerprint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	AnchorCreatedEventType        event.EventType = "ledger.anchor_created"
	TransactionConfirmedEventType event.EventType = "ledger.tx_confirmed"
	TransactionFailedEventType    event.EventType = "ledger.tx_failed"
)

const (
	DefaultConfirmDelayMin = 2 * time.Second
	DefaultConfirmDelayMax = 5 * time.Second
	DefaultConfirmRate     = 0.95
	DefaultInitialHeight   = 150000
	DefaultAnchorer        = "SP2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKNRV9EJ7"
)

var ErrLedgerStopped = errors.New("ledger stopped")

type AnchorCreatedEvent struct {
	Anchor Anchor
}

type TransactionConfirmedEvent struct {
	Transaction Transaction
}

type TransactionFailedEvent struct {
	Transaction Transaction
}

type LedgerConfig struct {
	PromRegistry    prometheus.Registerer
	Logger          *slog.Logger
	EventBus        *event.EventBus
	ConfirmDelayMin time.Duration
	ConfirmDelayMax time.Duration
	ConfirmRate     float64
	InitialHeight   uint64
	Anchorer        string
	// RandFloat overrides the confirmation outcome source. Tests use
	// this to force confirm or fail deterministically
	RandFloat func() float64
}

type Ledger struct {
	config  LedgerConfig
	metrics struct {
		anchorsCreated prometheus.Counter
		txsConfirmed   prometheus.Counter
		txsFailed      prometheus.Counter
		pendingTxs     prometheus.Gauge
		height         prometheus.Gauge
	}
	logger   *slog.Logger
	eventBus *event.EventBus
	anchors  map[string]*Anchor
	pending  map[string]*Transaction
	height   uint64

	confirmTimeTotal time.Duration
	confirmTimeCount int

	timerWg sync.WaitGroup
	stopped bool
	sync.RWMutex
}

func NewLedger(config LedgerConfig) *Ledger {
	if config.ConfirmDelayMin <= 0 {
		config.ConfirmDelayMin = DefaultConfirmDelayMin
	}
	if config.ConfirmDelayMax < config.ConfirmDelayMin {
		config.ConfirmDelayMax = max(
			DefaultConfirmDelayMax,
			config.ConfirmDelayMin,
		)
	}
	if config.ConfirmRate <= 0 || config.ConfirmRate > 1 {
		config.ConfirmRate = DefaultConfirmRate
	}
	if config.InitialHeight == 0 {
		config.InitialHeight = DefaultInitialHeight
	}
	if config.Anchorer == "" {
		config.Anchorer = DefaultAnchorer
	}
	if config.RandFloat == nil {
		config.RandFloat = mrand.Float64
	}
	l := &Ledger{
		config:   config,
		eventBus: config.EventBus,
		anchors:  make(map[string]*Anchor),
		pending:  make(map[string]*Transaction),
		height:   config.InitialHeight,
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		l.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		l.logger = config.Logger
	}
	// Init metrics
	promautoFactory := promauto.With(config.PromRegistry)
	l.metrics.anchorsCreated = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "chainseal_ledger_anchors_created_total",
			Help: "total anchor transactions created",
		},
	)
	l.metrics.txsConfirmed = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "chainseal_ledger_txs_confirmed_total",
			Help: "total transactions confirmed",
		},
	)
	l.metrics.txsFailed = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "chainseal_ledger_txs_failed_total",
			Help: "total transactions failed",
		},
	)
	l.metrics.pendingTxs = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "chainseal_ledger_pending_txs",
		Help: "current count of pending transactions",
	})
	l.metrics.height = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "chainseal_ledger_height",
		Help: "current ledger height",
	})
	l.metrics.height.Set(float64(l.height))
	return l
}

// CreateAnchor allocates a pending transaction for the given
// fingerprint and schedules its confirmation. The anchor entry is
// created on first sight of a fingerprint and updated in place on
// re-anchoring, so there is never more than one anchor per fingerprint.
// The returned anchor is a copy with Verified=false.
func (l *Ledger) CreateAnchor(fp string) (Anchor, error) {
	if !validFingerprint(fp) {
		return Anchor{}, &InvalidFingerprintError{Fingerprint: fp}
	}
	l.Lock()
	if l.stopped {
		l.Unlock()
		return Anchor{}, ErrLedgerStopped
	}
	now := time.Now()
	tx := &Transaction{
		TxId:        generateTxId(),
		Fingerprint: fp,
		Status:      TxStatusPending,
		Height:      l.height + 1,
		Fee:         50 + mrand.Uint64N(100),
		GasUsed:     500 + mrand.Uint64N(1000),
		CreatedAt:   now,
	}
	l.pending[tx.TxId] = tx
	anchor, ok := l.anchors[fp]
	if !ok {
		anchor = &Anchor{
			Fingerprint: fp,
			Anchorer:    l.config.Anchorer,
		}
		l.anchors[fp] = anchor
	}
	// Re-anchoring replaces the referenced transaction; any older
	// pending transaction still resolves but can no longer touch
	// this anchor
	anchor.TxId = tx.TxId
	anchor.Height = tx.Height
	anchor.CreatedAt = now
	anchor.Verified = false
	anchor.Transaction = *tx
	ret := *anchor
	delay := l.confirmDelay()
	l.timerWg.Add(1)
	time.AfterFunc(delay, func() {
		defer l.timerWg.Done()
		l.resolveConfirmation(tx.TxId)
	})
	l.Unlock()
	l.logger.Debug(
		"created anchor transaction",
		"component", "ledger",
		"fingerprint", fp,
		"tx_id", tx.TxId,
		"confirm_delay", delay,
	)
	l.metrics.anchorsCreated.Inc()
	l.metrics.pendingTxs.Inc()
	if l.eventBus != nil {
		l.eventBus.Publish(
			AnchorCreatedEventType,
			event.NewEvent(
				AnchorCreatedEventType,
				AnchorCreatedEvent{Anchor: ret},
			),
		)
	}
	return ret, nil
}

// resolveConfirmation finalizes a pending transaction, drawing the
// confirmation outcome. It runs exactly once per transaction, from the
// timer scheduled at creation. The anchor snapshot is only refreshed
// when the anchor still references this transaction, so a stale
// resolution cannot clobber a newer anchor state.
func (l *Ledger) resolveConfirmation(txId string) {
	l.Lock()
	tx, ok := l.pending[txId]
	if !ok || tx.Status.Terminal() {
		l.Unlock()
		return
	}
	delete(l.pending, txId)
	now := time.Now()
	confirmed := l.config.RandFloat() < l.config.ConfirmRate
	if confirmed {
		l.height++
		tx.Status = TxStatusConfirmed
		tx.ConfirmedAt = &now
		l.confirmTimeTotal += now.Sub(tx.CreatedAt)
		l.confirmTimeCount++
	} else {
		tx.Status = TxStatusFailed
	}
	if anchor, ok := l.anchors[tx.Fingerprint]; ok &&
		anchor.TxId == txId {
		anchor.Verified = confirmed
		anchor.Transaction = *tx
	}
	txCopy := *tx
	height := l.height
	l.Unlock()
	l.metrics.pendingTxs.Dec()
	l.metrics.height.Set(float64(height))
	if confirmed {
		l.logger.Debug(
			"confirmed transaction",
			"component", "ledger",
			"tx_id", txId,
			"height", height,
		)
		l.metrics.txsConfirmed.Inc()
		if l.eventBus != nil {
			l.eventBus.Publish(
				TransactionConfirmedEventType,
				event.NewEvent(
					TransactionConfirmedEventType,
					TransactionConfirmedEvent{Transaction: txCopy},
				),
			)
		}
	} else {
		l.logger.Debug(
			"failed transaction",
			"component", "ledger",
			"tx_id", txId,
		)
		l.metrics.txsFailed.Inc()
		if l.eventBus != nil {
			l.eventBus.Publish(
				TransactionFailedEventType,
				event.NewEvent(
					TransactionFailedEventType,
					TransactionFailedEvent{Transaction: txCopy},
				),
			)
		}
	}
}

// Verify looks up the anchor for a fingerprint. The returned anchor is
// a copy reflecting the latest transaction state at call time.
func (l *Ledger) Verify(fp string) (Anchor, bool) {
	l.RLock()
	defer l.RUnlock()
	anchor, ok := l.anchors[fp]
	if !ok {
		return Anchor{}, false
	}
	return *anchor, true
}

// GetTransaction looks up a transaction by id, checking the pending set
// first and then the transactions referenced by anchors.
func (l *Ledger) GetTransaction(txId string) (Transaction, bool) {
	l.RLock()
	defer l.RUnlock()
	if tx, ok := l.pending[txId]; ok {
		return *tx, true
	}
	for _, anchor := range l.anchors {
		if anchor.Transaction.TxId == txId {
			return anchor.Transaction, true
		}
	}
	return Transaction{}, false
}

// Stats returns a read-only aggregate over current ledger state. The
// average confirmation time is measured from observed confirmations,
// falling back to the midpoint of the configured delay interval before
// any transaction has confirmed.
func (l *Ledger) Stats() Stats {
	l.RLock()
	defer l.RUnlock()
	verified := 0
	for _, anchor := range l.anchors {
		if anchor.Verified {
			verified++
		}
	}
	avgConfirm := (l.config.ConfirmDelayMin + l.config.ConfirmDelayMax).
		Seconds() / 2
	if l.confirmTimeCount > 0 {
		avgConfirm = l.confirmTimeTotal.Seconds() /
			float64(l.confirmTimeCount)
	}
	return Stats{
		Height:              l.height,
		TotalAnchors:        len(l.anchors),
		VerifiedAnchors:     verified,
		PendingCount:        len(l.pending),
		AvgConfirmationTime: avgConfirm,
	}
}

// Stop rejects new anchor requests and waits for outstanding
// confirmation timers to resolve, or for the context to expire.
func (l *Ledger) Stop(ctx context.Context) error {
	l.Lock()
	l.stopped = true
	l.Unlock()
	done := make(chan struct{})
	go func() {
		l.timerWg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Ledger) confirmDelay() time.Duration {
	spread := l.config.ConfirmDelayMax - l.config.ConfirmDelayMin
	if spread <= 0 {
		return l.config.ConfirmDelayMin
	}
	return l.config.ConfirmDelayMin +
		time.Duration(mrand.Int64N(int64(spread)))
}

func validFingerprint(fp string) bool {
	if len(fp) != fingerprint.DigestSize*2 {
		return false
	}
	_, err := hex.DecodeString(fp)
	return err == nil
}

func generateTxId() string {
	buf := make([]byte, 32)
	// crypto/rand reads never fail
	_, _ = rand.Read(buf)
	return "0x" + hex.EncodeToString(buf)
}
