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

package ledger

import (
	"fmt"
	"time"
)

// TxStatus is the lifecycle state of an anchoring transaction. Pending
// is the initial state; confirmed and failed are terminal.
type TxStatus string

const (
	TxStatusPending   TxStatus = "pending"
	TxStatusConfirmed TxStatus = "confirmed"
	TxStatusFailed    TxStatus = "failed"
)

// Terminal returns true once the status can no longer change.
func (s TxStatus) Terminal() bool {
	return s == TxStatusConfirmed || s == TxStatusFailed
}

// Transaction is a unit of anchoring work moving through the ledger.
// Height is assigned at creation (current height + 1) and only
// materializes into the global height counter on confirmation. Fee and
// GasUsed are synthetic costs, informational only.
type Transaction struct {
	TxId        string     `json:"txId"`
	Fingerprint string     `json:"fingerprint"`
	Status      TxStatus   `json:"status"`
	Height      uint64     `json:"height"`
	Fee         uint64     `json:"fee"`
	GasUsed     uint64     `json:"gasUsed"`
	CreatedAt   time.Time  `json:"createdAt"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
}

// Anchor binds a content fingerprint to its current anchoring state.
// Transaction is an owned snapshot of the transaction the anchor
// currently references, copied at each state change rather than shared.
type Anchor struct {
	Fingerprint string      `json:"fingerprint"`
	TxId        string      `json:"txId"`
	Height      uint64      `json:"anchorHeight"`
	CreatedAt   time.Time   `json:"createdAt"`
	Anchorer    string      `json:"anchorerAddress"`
	Verified    bool        `json:"verified"`
	Transaction Transaction `json:"transaction"`
}

// Stats is a read-only aggregate over current ledger state.
type Stats struct {
	Height              uint64  `json:"height"`
	TotalAnchors        int     `json:"totalAnchors"`
	VerifiedAnchors     int     `json:"verifiedAnchors"`
	PendingCount        int     `json:"pendingCount"`
	AvgConfirmationTime float64 `json:"avgConfirmationTime"`
}

// InvalidFingerprintError is returned when an anchor request carries a
// fingerprint that is not a full-length hex digest.
type InvalidFingerprintError struct {
	Fingerprint string
}

func (e *InvalidFingerprintError) Error() string {
	return fmt.Sprintf("invalid fingerprint: %q", e.Fingerprint)
}
