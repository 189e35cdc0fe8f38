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

package tamper

import "time"

// Record is a free-form log record as received from the facade. The
// analyzer only interprets the "timestamp" field; everything else is
// hashed and pattern-matched as opaque content.
type Record map[string]any

// EventKind classifies a detected anomaly.
type EventKind string

const (
	KindContentModification   EventKind = "content_modification"
	KindTimestampManipulation EventKind = "timestamp_manipulation"
	KindHashMismatch          EventKind = "hash_mismatch"
	KindReplayAttack          EventKind = "replay_attack"
)

// Severity is the ordered severity classification of a tamper event.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns the ordering position of a severity, low first.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	default:
		return -1
	}
}

// TamperEvent is an immutable record of one detected anomaly. Events
// are only ever appended to a log's history, never mutated or deleted.
type TamperEvent struct {
	Id            string    `json:"id"`
	LogId         string    `json:"logId"`
	Kind          EventKind `json:"kind"`
	OriginalValue string    `json:"originalValue"`
	ObservedValue string    `json:"observedValue"`
	Severity      Severity  `json:"severity"`
	DetectedAt    time.Time `json:"detectedAt"`
	Description   string    `json:"description"`
}

// Analysis is the result of one analyze call. RiskScore and Confidence
// are the sum of triggered heuristic weights clamped to [0,100], and
// Events holds only the events produced by that call, not the full
// history.
type Analysis struct {
	IsTampered bool          `json:"isTampered"`
	Confidence int           `json:"confidence"`
	RiskScore  int           `json:"riskScore"`
	Events     []TamperEvent `json:"events"`
}
