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

// Package tamper implements the tamper analyzer. It keeps the original
// content fingerprint recorded for each log id, runs a set of
// independent heuristic checks against observed records, and
// accumulates an append-only tamper event history per log id.
package tamper

import (
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/blocksecure-io/chainseal/event"
	"github.com/blocksecure-io/chainseal/fingerprint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const TamperDetectedEventType event.EventType = "tamper.detected"

type TamperDetectedEvent struct {
	LogId    string
	Analysis Analysis
}

var ErrMissingLogId = errors.New("missing log id")

type AnalyzerConfig struct {
	PromRegistry prometheus.Registerer
	Logger       *slog.Logger
	EventBus     *event.EventBus
	// NowFunc overrides the clock used by the timestamp heuristic and
	// for event timestamps. Defaults to time.Now
	NowFunc func() time.Time
}

type Analyzer struct {
	config  AnalyzerConfig
	metrics struct {
		analyses       prometheus.Counter
		eventsDetected *prometheus.CounterVec
	}
	logger    *slog.Logger
	eventBus  *event.EventBus
	originals map[string]string
	history   map[string][]TamperEvent
	sync.RWMutex
}

func NewAnalyzer(config AnalyzerConfig) *Analyzer {
	if config.NowFunc == nil {
		config.NowFunc = time.Now
	}
	a := &Analyzer{
		config:    config,
		eventBus:  config.EventBus,
		originals: make(map[string]string),
		history:   make(map[string][]TamperEvent),
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		a.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		a.logger = config.Logger
	}
	// Init metrics
	promautoFactory := promauto.With(config.PromRegistry)
	a.metrics.analyses = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "chainseal_tamper_analyses_total",
			Help: "total tamper analyses performed",
		},
	)
	a.metrics.eventsDetected = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainseal_tamper_events_detected_total",
			Help: "total tamper events detected per kind",
		},
		[]string{"kind"},
	)
	return a
}

// RecordOriginal computes and stores the fingerprint of a record's
// trusted initial observation, keyed by log id. A second call for the
// same id overwrites the prior baseline.
func (a *Analyzer) RecordOriginal(logId string, record Record) error {
	if logId == "" {
		return ErrMissingLogId
	}
	if record == nil {
		return fingerprint.ErrEmptyRecord
	}
	digest, err := fingerprint.DigestRecord(record)
	if err != nil {
		return err
	}
	a.Lock()
	a.originals[logId] = digest
	a.Unlock()
	a.logger.Debug(
		"recorded original fingerprint",
		"component", "tamper",
		"log_id", logId,
		"fingerprint", digest,
	)
	return nil
}

// Analyze runs the fingerprint, content-pattern, and timestamp checks
// against an observed record. Findings are appended to the log's
// history and returned; the risk score is the clamped sum of the
// triggered heuristic weights.
func (a *Analyzer) Analyze(logId string, record Record) (Analysis, error) {
	if logId == "" {
		return Analysis{}, ErrMissingLogId
	}
	if record == nil {
		return Analysis{}, fingerprint.ErrEmptyRecord
	}
	serialized, err := fingerprint.Serialize(record)
	if err != nil {
		return Analysis{}, err
	}
	observed := fingerprint.Digest(serialized)
	now := a.config.NowFunc()

	a.RLock()
	original := a.originals[logId]
	a.RUnlock()

	var events []TamperEvent
	riskScore := 0
	checkEvents, weight := checkFingerprint(logId, original, observed, now)
	events = append(events, checkEvents...)
	riskScore += weight
	checkEvents, weight = checkContent(logId, serialized, now)
	events = append(events, checkEvents...)
	riskScore += weight
	checkEvents, weight = checkTimestamp(logId, record, now)
	events = append(events, checkEvents...)
	riskScore += weight
	riskScore = min(riskScore, MaxRiskScore)

	if len(events) > 0 {
		a.Lock()
		a.history[logId] = append(a.history[logId], events...)
		a.Unlock()
	}

	analysis := Analysis{
		IsTampered: len(events) > 0,
		Confidence: riskScore,
		RiskScore:  riskScore,
		Events:     events,
	}
	a.metrics.analyses.Inc()
	for _, evt := range events {
		a.metrics.eventsDetected.WithLabelValues(string(evt.Kind)).Inc()
	}
	if analysis.IsTampered {
		a.logger.Info(
			"tampering detected",
			"component", "tamper",
			"log_id", logId,
			"risk_score", riskScore,
			"events", len(events),
		)
		if a.eventBus != nil {
			a.eventBus.Publish(
				TamperDetectedEventType,
				event.NewEvent(
					TamperDetectedEventType,
					TamperDetectedEvent{
						LogId:    logId,
						Analysis: analysis,
					},
				),
			)
		}
	}
	return analysis, nil
}

// History returns the accumulated tamper events for one log id in
// insertion order.
func (a *Analyzer) History(logId string) []TamperEvent {
	a.RLock()
	defer a.RUnlock()
	events := a.history[logId]
	ret := make([]TamperEvent, len(events))
	copy(ret, events)
	return ret
}

// AllEvents returns every tamper event across all log ids, most recent
// first.
func (a *Analyzer) AllEvents() []TamperEvent {
	a.RLock()
	var ret []TamperEvent
	for _, events := range a.history {
		ret = append(ret, events...)
	}
	a.RUnlock()
	sort.SliceStable(ret, func(i, j int) bool {
		if ret[i].DetectedAt.Equal(ret[j].DetectedAt) {
			// V7 ids are time-ordered, break ties on id
			return ret[i].Id > ret[j].Id
		}
		return ret[i].DetectedAt.After(ret[j].DetectedAt)
	})
	return ret
}
