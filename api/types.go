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
	"github.com/blocksecure-io/chainseal/ledger"
	"github.com/blocksecure-io/chainseal/tamper"
)

// ErrorResponse is the standard error format for API responses.
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// RootResponse is the response for GET /
type RootResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
}

// HealthResponse is the response for GET /health
type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

// AnchorRequest is the request body for POST /api/v1/anchor
type AnchorRequest struct {
	LogId  string         `json:"logId"`
	Record map[string]any `json:"record"`
}

// VerifyResponse is the response for GET /api/v1/verify
type VerifyResponse struct {
	Verified bool           `json:"verified"`
	Anchor   *ledger.Anchor `json:"anchor,omitempty"`
}

// DetectRequest is the request body for POST /api/v1/tamper/detect.
// When Simulate is non-empty the record is mutated with the named
// simulation mode before analysis.
type DetectRequest struct {
	LogId    string         `json:"logId"`
	Record   map[string]any `json:"record"`
	Simulate string         `json:"simulate,omitempty"`
}

// HistoryResponse is the response for GET /api/v1/tamper/history
type HistoryResponse struct {
	LogId  string               `json:"logId"`
	Events []tamper.TamperEvent `json:"events"`
}
