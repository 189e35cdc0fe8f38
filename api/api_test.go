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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/blocksecure-io/chainseal/ledger"
	"github.com/blocksecure-io/chainseal/tamper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockNode implements ServiceNode for testing.
type mockNode struct {
	anchor       ledger.Anchor
	anchorErr    error
	verifyAnchor ledger.Anchor
	verifyFound  bool
	verifyErr    error
	tx           ledger.Transaction
	txFound      bool
	txErr        error
	stats        ledger.Stats
	statsErr     error
	analysis     tamper.Analysis
	analysisErr  error
	simulated    map[string]any
	simulateMode string
	history      []tamper.TamperEvent
	historyErr   error
	events       []tamper.TamperEvent
	eventsErr    error
	logs         []LogInfo
	logsErr      error
}

func (m *mockNode) AnchorRecord(
	logId string,
	record map[string]any,
) (ledger.Anchor, error) {
	return m.anchor, m.anchorErr
}

func (m *mockNode) VerifyFingerprint(
	fp string,
) (ledger.Anchor, bool, error) {
	return m.verifyAnchor, m.verifyFound, m.verifyErr
}

func (m *mockNode) GetTransaction(
	txId string,
) (ledger.Transaction, bool, error) {
	return m.tx, m.txFound, m.txErr
}

func (m *mockNode) LedgerStats() (ledger.Stats, error) {
	return m.stats, m.statsErr
}

func (m *mockNode) DetectTamper(
	logId string,
	record map[string]any,
) (tamper.Analysis, error) {
	return m.analysis, m.analysisErr
}

func (m *mockNode) SimulateTamper(
	record map[string]any,
	mode string,
) map[string]any {
	m.simulateMode = mode
	if m.simulated != nil {
		return m.simulated
	}
	return record
}

func (m *mockNode) TamperHistory(
	logId string,
) ([]tamper.TamperEvent, error) {
	return m.history, m.historyErr
}

func (m *mockNode) AllTamperEvents() ([]tamper.TamperEvent, error) {
	return m.events, m.eventsErr
}

func (m *mockNode) ListLogs() ([]LogInfo, error) {
	return m.logs, m.logsErr
}

func newTestApi(node ServiceNode) *Api {
	return New(
		ApiConfig{
			ListenAddress: ":0",
		},
		node,
		nil,
		slog.Default(),
	)
}

func TestStartStop(t *testing.T) {
	mock := &mockNode{}
	a := newTestApi(mock)

	err := a.Start(t.Context())
	require.NoError(t, err)

	a.mu.Lock()
	assert.NotNil(t, a.httpServer)
	a.mu.Unlock()

	stopCtx, stopCancel := context.WithTimeout(
		context.Background(),
		5*time.Second,
	)
	defer stopCancel()
	err = a.Stop(stopCtx)
	require.NoError(t, err)

	a.mu.Lock()
	assert.Nil(t, a.httpServer)
	a.mu.Unlock()
}

func TestStartAlreadyStarted(t *testing.T) {
	mock := &mockNode{}
	a := newTestApi(mock)

	ctx := t.Context()
	err := a.Start(ctx)
	require.NoError(t, err)
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(
			context.Background(),
			5*time.Second,
		)
		defer stopCancel()
		_ = a.Stop(stopCtx)
	}()

	// Starting again should error
	err = a.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")
}

func TestHandleRoot(t *testing.T) {
	a := newTestApi(&mockNode{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	a.handleRoot(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(
		t,
		"application/json",
		w.Header().Get("Content-Type"),
	)

	var resp RootResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "chainseal", resp.Service)
	assert.Equal(t, "0.1.0", resp.Version)
}

func TestHandleHealth(t *testing.T) {
	a := newTestApi(&mockNode{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	a.handleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.True(t, resp.IsHealthy)
}

func TestHandleAnchor(t *testing.T) {
	mock := &mockNode{
		anchor: ledger.Anchor{
			Fingerprint: strings.Repeat("ab", 32),
			TxId:        "0xabc",
			Anchorer:    "SP2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKNRV9EJ7",
		},
	}
	a := newTestApi(mock)

	body := `{"logId":"log-001","record":{"cloud":"AWS"}}`
	req := httptest.NewRequest(
		http.MethodPost,
		"/api/v1/anchor",
		strings.NewReader(body),
	)
	w := httptest.NewRecorder()
	a.handleAnchor(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp ledger.Anchor
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", resp.TxId)
}

func TestHandleAnchorBadRequest(t *testing.T) {
	a := newTestApi(&mockNode{})

	// Invalid body
	req := httptest.NewRequest(
		http.MethodPost,
		"/api/v1/anchor",
		strings.NewReader("{"),
	)
	w := httptest.NewRecorder()
	a.handleAnchor(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Missing log id
	req = httptest.NewRequest(
		http.MethodPost,
		"/api/v1/anchor",
		strings.NewReader(`{"record":{"cloud":"AWS"}}`),
	)
	w = httptest.NewRecorder()
	a.handleAnchor(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleAnchorValidationError(t *testing.T) {
	mock := &mockNode{
		anchorErr: &ledger.InvalidFingerprintError{
			Fingerprint: "bogus",
		},
	}
	a := newTestApi(mock)

	req := httptest.NewRequest(
		http.MethodPost,
		"/api/v1/anchor",
		strings.NewReader(`{"logId":"log-001","record":{}}`),
	)
	w := httptest.NewRecorder()
	a.handleAnchor(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "invalid fingerprint")
}

func TestHandleAnchorInternalError(t *testing.T) {
	mock := &mockNode{
		anchorErr: errors.New("storage failure"),
	}
	a := newTestApi(mock)

	req := httptest.NewRequest(
		http.MethodPost,
		"/api/v1/anchor",
		strings.NewReader(`{"logId":"log-001","record":{}}`),
	)
	w := httptest.NewRecorder()
	a.handleAnchor(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandleVerify(t *testing.T) {
	mock := &mockNode{
		verifyAnchor: ledger.Anchor{
			Fingerprint: strings.Repeat("ab", 32),
			TxId:        "0xabc",
			Verified:    true,
		},
		verifyFound: true,
	}
	a := newTestApi(mock)

	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/verify?fingerprint="+strings.Repeat("ab", 32),
		nil,
	)
	w := httptest.NewRecorder()
	a.handleVerify(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp VerifyResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.True(t, resp.Verified)
	require.NotNil(t, resp.Anchor)
	assert.Equal(t, "0xabc", resp.Anchor.TxId)
}

func TestHandleVerifyNotFound(t *testing.T) {
	a := newTestApi(&mockNode{})

	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/verify?fingerprint="+strings.Repeat("ab", 32),
		nil,
	)
	w := httptest.NewRecorder()
	a.handleVerify(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp VerifyResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.False(t, resp.Verified)
	assert.Nil(t, resp.Anchor)
}

func TestHandleVerifyMissingParam(t *testing.T) {
	a := newTestApi(&mockNode{})

	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/verify",
		nil,
	)
	w := httptest.NewRecorder()
	a.handleVerify(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleTransaction(t *testing.T) {
	mock := &mockNode{
		tx: ledger.Transaction{
			TxId:   "0xabc",
			Status: ledger.TxStatusConfirmed,
			Height: 150001,
		},
		txFound: true,
	}
	a := newTestApi(mock)

	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/transactions/0xabc",
		nil,
	)
	req.SetPathValue("txId", "0xabc")
	w := httptest.NewRecorder()
	a.handleTransaction(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp ledger.Transaction
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, ledger.TxStatusConfirmed, resp.Status)
	assert.Equal(t, uint64(150001), resp.Height)
}

func TestHandleTransactionNotFound(t *testing.T) {
	a := newTestApi(&mockNode{})

	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/transactions/0xmissing",
		nil,
	)
	req.SetPathValue("txId", "0xmissing")
	w := httptest.NewRecorder()
	a.handleTransaction(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleStats(t *testing.T) {
	mock := &mockNode{
		stats: ledger.Stats{
			Height:          150005,
			TotalAnchors:    5,
			VerifiedAnchors: 4,
			PendingCount:    1,
		},
	}
	a := newTestApi(mock)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	w := httptest.NewRecorder()
	a.handleStats(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp ledger.Stats
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, uint64(150005), resp.Height)
	assert.Equal(t, 4, resp.VerifiedAnchors)
}

func TestHandleDetect(t *testing.T) {
	mock := &mockNode{
		analysis: tamper.Analysis{
			IsTampered: true,
			RiskScore:  70,
			Confidence: 70,
			Events: []tamper.TamperEvent{
				{
					Id:       "evt-1",
					LogId:    "log-001",
					Kind:     tamper.KindHashMismatch,
					Severity: tamper.SeverityCritical,
				},
			},
		},
	}
	a := newTestApi(mock)

	req := httptest.NewRequest(
		http.MethodPost,
		"/api/v1/tamper/detect",
		strings.NewReader(`{"logId":"log-001","record":{"cloud":"AWS"}}`),
	)
	w := httptest.NewRecorder()
	a.handleDetect(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp tamper.Analysis
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.True(t, resp.IsTampered)
	require.Len(t, resp.Events, 1)
	assert.Equal(t, tamper.KindHashMismatch, resp.Events[0].Kind)
}

func TestHandleDetectSimulated(t *testing.T) {
	mock := &mockNode{
		analysis: tamper.Analysis{
			IsTampered: true,
			RiskScore:  50,
			Confidence: 50,
		},
	}
	a := newTestApi(mock)

	req := httptest.NewRequest(
		http.MethodPost,
		"/api/v1/tamper/detect",
		strings.NewReader(
			`{"logId":"log-001","record":{"cloud":"AWS"},"simulate":"content"}`,
		),
	)
	w := httptest.NewRecorder()
	a.handleDetect(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "content", mock.simulateMode)
}

func TestHandleDetectValidationError(t *testing.T) {
	mock := &mockNode{
		analysisErr: tamper.ErrMissingLogId,
	}
	a := newTestApi(mock)

	req := httptest.NewRequest(
		http.MethodPost,
		"/api/v1/tamper/detect",
		strings.NewReader(`{"record":{}}`),
	)
	w := httptest.NewRecorder()
	a.handleDetect(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleHistory(t *testing.T) {
	mock := &mockNode{
		history: []tamper.TamperEvent{
			{Id: "evt-1", LogId: "log-001"},
			{Id: "evt-2", LogId: "log-001"},
		},
	}
	a := newTestApi(mock)

	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/tamper/history?logId=log-001",
		nil,
	)
	w := httptest.NewRecorder()
	a.handleHistory(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp HistoryResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "log-001", resp.LogId)
	assert.Len(t, resp.Events, 2)
}

func TestHandleHistoryMissingParam(t *testing.T) {
	a := newTestApi(&mockNode{})

	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/tamper/history",
		nil,
	)
	w := httptest.NewRecorder()
	a.handleHistory(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleEventsEmpty(t *testing.T) {
	a := newTestApi(&mockNode{})

	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/tamper/events",
		nil,
	)
	w := httptest.NewRecorder()
	a.handleEvents(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	// nil slice must encode as an empty JSON array
	assert.Equal(t, "[]\n", w.Body.String())
}

func TestHandleLogs(t *testing.T) {
	mock := &mockNode{
		logs: []LogInfo{
			{
				LogId:       "log-001",
				Cloud:       "AWS",
				Fingerprint: strings.Repeat("ab", 32),
				Verified:    true,
			},
		},
	}
	a := newTestApi(mock)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs", nil)
	w := httptest.NewRecorder()
	a.handleLogs(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []LogInfo
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	require.Len(t, resp, 1)
	assert.Equal(t, "AWS", resp[0].Cloud)
}

func TestHandleExport(t *testing.T) {
	mock := &mockNode{
		logs: []LogInfo{
			{
				LogId:       "log-001",
				Cloud:       "AWS",
				Event:       "ConsoleLogin",
				Fingerprint: strings.Repeat("ab", 32),
				TxId:        "0xabc",
				Height:      150001,
				Verified:    true,
			},
		},
	}
	a := newTestApi(mock)

	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/logs/export?format=csv",
		nil,
	)
	w := httptest.NewRecorder()
	a.handleExport(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "log_id")
	assert.Contains(t, lines[1], "log-001")
	assert.Contains(t, lines[1], "150001")
	assert.Contains(t, lines[1], "true")
}

func TestHandleExportBadFormat(t *testing.T) {
	a := newTestApi(&mockNode{})

	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/logs/export?format=xml",
		nil,
	)
	w := httptest.NewRecorder()
	a.handleExport(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
