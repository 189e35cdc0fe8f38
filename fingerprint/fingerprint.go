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

// Package fingerprint provides deterministic content digests for log
// records. The SHA-256 digest is the identity key used by the anchor
// ledger and the tamper analyzer; the FNV digest exists only as a cheap
// equality pre-check and must never be used as an identity key.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
)

// DigestSize is the length in bytes of a full content digest.
const DigestSize = sha256.Size

var ErrEmptyRecord = errors.New("no record to serialize")

// Serialize renders a record as canonical JSON. Map keys are emitted in
// sorted order by encoding/json, so the output is stable for any two
// structurally equal records.
func Serialize(record any) ([]byte, error) {
	if record == nil {
		return nil, ErrEmptyRecord
	}
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize record: %w", err)
	}
	return data, nil
}

// Digest returns the lowercase hex SHA-256 digest of the given bytes.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DigestRecord serializes a record and returns its SHA-256 digest.
func DigestRecord(record any) (string, error) {
	data, err := Serialize(record)
	if err != nil {
		return "", err
	}
	return Digest(data), nil
}

// QuickDigest returns the lowercase hex FNV-1a digest of the given
// bytes. Collisions are likely enough at scale that this is only
// suitable as a fast inequality test.
func QuickDigest(data []byte) string {
	h := fnv.New64a()
	// fnv hash writes never fail
	_, _ = h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
