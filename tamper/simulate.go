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
	"maps"
	mrand "math/rand/v2"
	"time"
)

// SimulateMode selects the mutation applied by SimulateTamper.
type SimulateMode string

const (
	SimulateContent   SimulateMode = "content"
	SimulateTimestamp SimulateMode = "timestamp"
	SimulateCloud     SimulateMode = "cloud"
	SimulateCritical  SimulateMode = "critical"
)

var simulateClouds = []string{"AWS", "Azure", "GCP"}

// SimulateTamper returns a mutated copy of a record for demos and
// tests. It never touches analyzer or ledger state. Unknown modes
// apply the default content-suffix mutation.
func (a *Analyzer) SimulateTamper(record Record, mode SimulateMode) Record {
	mutated := maps.Clone(record)
	if mutated == nil {
		mutated = make(Record)
	}
	future := a.config.NowFunc().
		Add(24 * time.Hour).
		Format(time.RFC3339)
	switch mode {
	case SimulateContent:
		mutated["event"] = fmt.Sprintf("%v [TAMPERED]", record["event"])
	case SimulateTimestamp:
		mutated["timestamp"] = future
	case SimulateCloud:
		mutated["cloud"] = simulateClouds[mrand.IntN(len(simulateClouds))]
	case SimulateCritical:
		mutated["event"] = "UNAUTHORIZED ACCESS DETECTED [CRITICAL]"
		mutated["timestamp"] = future
	default:
		mutated["event"] = fmt.Sprintf("%v [MODIFIED]", record["event"])
	}
	return mutated
}
