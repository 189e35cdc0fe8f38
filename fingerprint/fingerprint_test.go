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

package fingerprint_test

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/blocksecure-io/chainseal/fingerprint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeDeterministic(t *testing.T) {
	record := map[string]any{
		"id":        "log-001",
		"cloud":     "AWS",
		"event":     "user login",
		"timestamp": "2026-08-30T12:00:00Z",
	}
	first, err := fingerprint.Serialize(record)
	require.NoError(t, err)
	second, err := fingerprint.Serialize(record)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSerializeNilRecord(t *testing.T) {
	_, err := fingerprint.Serialize(nil)
	require.ErrorIs(t, err, fingerprint.ErrEmptyRecord)
}

func TestDigestRecordIdempotent(t *testing.T) {
	record := map[string]any{"event": "restart", "id": "log-002"}
	first, err := fingerprint.DigestRecord(record)
	require.NoError(t, err)
	second, err := fingerprint.DigestRecord(record)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, fingerprint.DigestSize*2)
}

func TestDigestUniqueness(t *testing.T) {
	const samples = 10000
	seen := make(map[string]string, samples)
	for i := range samples {
		record := map[string]any{
			"id":    fmt.Sprintf("log-%d", i),
			"nonce": rand.Uint64(),
		}
		digest, err := fingerprint.DigestRecord(record)
		require.NoError(t, err)
		if prev, ok := seen[digest]; ok {
			t.Fatalf(
				"digest collision between %q and record %d",
				prev,
				i,
			)
		}
		seen[digest] = fmt.Sprintf("log-%d", i)
	}
}

func TestDigestDiffersOnMutation(t *testing.T) {
	original := map[string]any{"event": "user login", "id": "log-003"}
	mutated := map[string]any{"event": "user login [TAMPERED]", "id": "log-003"}
	origDigest, err := fingerprint.DigestRecord(original)
	require.NoError(t, err)
	mutDigest, err := fingerprint.DigestRecord(mutated)
	require.NoError(t, err)
	assert.NotEqual(t, origDigest, mutDigest)
}

func TestQuickDigest(t *testing.T) {
	data := []byte(`{"event":"user login"}`)
	assert.Equal(t, fingerprint.QuickDigest(data), fingerprint.QuickDigest(data))
	assert.NotEqual(
		t,
		fingerprint.QuickDigest(data),
		fingerprint.QuickDigest([]byte(`{"event":"user logout"}`)),
	)
}
