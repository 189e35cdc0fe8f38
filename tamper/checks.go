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

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Heuristic weights. Weights from independent findings accumulate and
// the total is clamped to MaxRiskScore by the caller.
const (
	WeightHashMismatch   = 70
	WeightContentPattern = 50
	WeightFutureTime     = 40
	WeightStaleTime      = 20

	MaxRiskScore = 100
)

// StaleThreshold is how far in the past a record timestamp may lie
// before it is considered suspicious.
const StaleThreshold = 365 * 24 * time.Hour

// suspiciousMarkers are case-insensitive substrings whose presence in a
// serialized record indicates injected tamper content.
var suspiciousMarkers = []string{
	"[tampered]",
	"[modified]",
	"[deleted]",
	"unauthorized",
	"suspicious",
}

func newEventId() string {
	return uuid.Must(uuid.NewV7()).String()
}

// checkFingerprint compares the recorded original digest against the
// observed one. An empty original means no baseline was recorded and
// the check is skipped.
func checkFingerprint(
	logId string,
	original string,
	observed string,
	now time.Time,
) ([]TamperEvent, int) {
	if original == "" || original == observed {
		return nil, 0
	}
	return []TamperEvent{
		{
			Id:            newEventId(),
			LogId:         logId,
			Kind:          KindHashMismatch,
			OriginalValue: original,
			ObservedValue: observed,
			Severity:      SeverityHigh,
			DetectedAt:    now,
			Description:   "log content hash does not match original hash",
		},
	}, WeightHashMismatch
}

// checkContent tests the serialized record against the suspicious
// marker list. Each distinct match contributes its own event and
// weight.
func checkContent(
	logId string,
	serialized []byte,
	now time.Time,
) ([]TamperEvent, int) {
	var events []TamperEvent
	weight := 0
	content := strings.ToLower(string(serialized))
	for _, marker := range suspiciousMarkers {
		if !strings.Contains(content, marker) {
			continue
		}
		events = append(events, TamperEvent{
			Id:            newEventId(),
			LogId:         logId,
			Kind:          KindContentModification,
			OriginalValue: "clean content",
			ObservedValue: content,
			Severity:      SeverityCritical,
			DetectedAt:    now,
			Description: fmt.Sprintf(
				"suspicious content pattern detected: %s",
				marker,
			),
		})
		weight += WeightContentPattern
	}
	return events, weight
}

// checkTimestamp flags record timestamps in the future or further in
// the past than StaleThreshold. A missing or unparsable timestamp is
// not an anomaly.
func checkTimestamp(
	logId string,
	record Record,
	now time.Time,
) ([]TamperEvent, int) {
	raw, ok := record["timestamp"]
	if !ok {
		return nil, 0
	}
	var logTime time.Time
	switch v := raw.(type) {
	case string:
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, 0
		}
		logTime = parsed
	case time.Time:
		logTime = v
	default:
		return nil, 0
	}
	var events []TamperEvent
	weight := 0
	if logTime.After(now) {
		events = append(events, TamperEvent{
			Id:            newEventId(),
			LogId:         logId,
			Kind:          KindTimestampManipulation,
			OriginalValue: "valid timestamp",
			ObservedValue: logTime.Format(time.RFC3339),
			Severity:      SeverityHigh,
			DetectedAt:    now,
			Description:   "log timestamp is in the future",
		})
		weight += WeightFutureTime
	}
	if now.Sub(logTime) > StaleThreshold {
		events = append(events, TamperEvent{
			Id:            newEventId(),
			LogId:         logId,
			Kind:          KindTimestampManipulation,
			OriginalValue: "recent timestamp",
			ObservedValue: logTime.Format(time.RFC3339),
			Severity:      SeverityMedium,
			DetectedAt:    now,
			Description:   "log timestamp is unusually old",
		})
		weight += WeightStaleTime
	}
	return events, weight
}
