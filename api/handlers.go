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
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/blocksecure-io/chainseal/fingerprint"
	"github.com/blocksecure-io/chainseal/ledger"
	"github.com/blocksecure-io/chainseal/tamper"
)

const apiVersion = "0.1.0"

// writeJSON writes a JSON response with the given status code.
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

// writeError writes a standard-format error response.
func writeError(
	w http.ResponseWriter,
	status int,
	errStr string,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      errStr,
		Message:    message,
	})
}

// isValidationError reports whether an error came from bad request
// input rather than an internal failure.
func isValidationError(err error) bool {
	var invalidFp *ledger.InvalidFingerprintError
	return errors.As(err, &invalidFp) ||
		errors.Is(err, tamper.ErrMissingLogId) ||
		errors.Is(err, fingerprint.ErrEmptyRecord)
}

// handleRoot handles GET / and returns API metadata.
func (a *Api) handleRoot(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, RootResponse{
		Service: "chainseal",
		Version: apiVersion,
	})
}

// handleHealth handles GET /health and returns service health status.
func (a *Api) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
	})
}

// handleAnchor handles POST /api/v1/anchor and submits an anchoring
// transaction for a log record.
func (a *Api) handleAnchor(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req AnchorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"invalid request body",
		)
		return
	}
	if req.LogId == "" {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"logId is required",
		)
		return
	}
	anchor, err := a.node.AnchorRecord(req.LogId, req.Record)
	if err != nil {
		if isValidationError(err) {
			writeError(
				w,
				http.StatusBadRequest,
				"Bad Request",
				err.Error(),
			)
			return
		}
		a.logger.Error(
			"failed to anchor record",
			"log_id", req.LogId,
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to anchor record",
		)
		return
	}
	writeJSON(w, http.StatusCreated, anchor)
}

// handleVerify handles GET /api/v1/verify and looks up the anchor for
// a fingerprint.
func (a *Api) handleVerify(
	w http.ResponseWriter,
	r *http.Request,
) {
	fp := r.URL.Query().Get("fingerprint")
	if fp == "" {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"fingerprint query parameter is required",
		)
		return
	}
	anchor, ok, err := a.node.VerifyFingerprint(fp)
	if err != nil {
		a.logger.Error(
			"failed to verify fingerprint",
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to verify fingerprint",
		)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, VerifyResponse{
			Verified: false,
		})
		return
	}
	writeJSON(w, http.StatusOK, VerifyResponse{
		Verified: anchor.Verified,
		Anchor:   &anchor,
	})
}

// handleTransaction handles GET /api/v1/transactions/{txId} and
// returns an anchoring transaction by id.
func (a *Api) handleTransaction(
	w http.ResponseWriter,
	r *http.Request,
) {
	txId := r.PathValue("txId")
	tx, ok, err := a.node.GetTransaction(txId)
	if err != nil {
		a.logger.Error(
			"failed to get transaction",
			"tx_id", txId,
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to retrieve transaction",
		)
		return
	}
	if !ok {
		writeError(
			w,
			http.StatusNotFound,
			"Not Found",
			"transaction not found",
		)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// handleStats handles GET /api/v1/stats and returns aggregate
// anchoring statistics.
func (a *Api) handleStats(
	w http.ResponseWriter,
	_ *http.Request,
) {
	stats, err := a.node.LedgerStats()
	if err != nil {
		a.logger.Error(
			"failed to get ledger stats",
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to retrieve ledger stats",
		)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleDetect handles POST /api/v1/tamper/detect and analyzes a
// record against its recorded baseline.
func (a *Api) handleDetect(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"invalid request body",
		)
		return
	}
	if req.Simulate != "" {
		req.Record = a.node.SimulateTamper(req.Record, req.Simulate)
	}
	analysis, err := a.node.DetectTamper(req.LogId, req.Record)
	if err != nil {
		if isValidationError(err) {
			writeError(
				w,
				http.StatusBadRequest,
				"Bad Request",
				err.Error(),
			)
			return
		}
		a.logger.Error(
			"failed to analyze record",
			"log_id", req.LogId,
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to analyze record",
		)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// handleHistory handles GET /api/v1/tamper/history and returns the
// tamper event history for one log id.
func (a *Api) handleHistory(
	w http.ResponseWriter,
	r *http.Request,
) {
	logId := r.URL.Query().Get("logId")
	if logId == "" {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"logId query parameter is required",
		)
		return
	}
	events, err := a.node.TamperHistory(logId)
	if err != nil {
		a.logger.Error(
			"failed to get tamper history",
			"log_id", logId,
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to retrieve tamper history",
		)
		return
	}
	if events == nil {
		events = []tamper.TamperEvent{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{
		LogId:  logId,
		Events: events,
	})
}

// handleEvents handles GET /api/v1/tamper/events and returns every
// tamper event across logs, newest first.
func (a *Api) handleEvents(
	w http.ResponseWriter,
	_ *http.Request,
) {
	events, err := a.node.AllTamperEvents()
	if err != nil {
		a.logger.Error(
			"failed to get tamper events",
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to retrieve tamper events",
		)
		return
	}
	if events == nil {
		events = []tamper.TamperEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// handleLogs handles GET /api/v1/logs and returns all stored log
// records.
func (a *Api) handleLogs(
	w http.ResponseWriter,
	_ *http.Request,
) {
	logs, err := a.node.ListLogs()
	if err != nil {
		a.logger.Error(
			"failed to list logs",
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to retrieve logs",
		)
		return
	}
	if logs == nil {
		logs = []LogInfo{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// handleExport handles GET /api/v1/logs/export and returns stored log
// records as a CSV attachment.
func (a *Api) handleExport(
	w http.ResponseWriter,
	r *http.Request,
) {
	format := r.URL.Query().Get("format")
	if format != "" && format != "csv" {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"unsupported export format: "+format,
		)
		return
	}
	logs, err := a.node.ListLogs()
	if err != nil {
		a.logger.Error(
			"failed to list logs for export",
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to retrieve logs",
		)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().
		Set("Content-Disposition", `attachment; filename="logs.csv"`)
	cw := csv.NewWriter(w)
	//nolint:errcheck
	cw.Write([]string{
		"log_id",
		"cloud",
		"event",
		"timestamp",
		"fingerprint",
		"tx_id",
		"height",
		"verified",
		"tampered",
	})
	for _, l := range logs {
		//nolint:errcheck
		cw.Write([]string{
			l.LogId,
			l.Cloud,
			l.Event,
			l.Timestamp,
			l.Fingerprint,
			l.TxId,
			strconv.FormatUint(l.Height, 10),
			strconv.FormatBool(l.Verified),
			strconv.FormatBool(l.Tampered),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		a.logger.Error(
			"failed to write CSV export",
			"error", err,
		)
	}
}
