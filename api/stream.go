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
	"encoding/json"
	"net/http"

	"github.com/blocksecure-io/chainseal/event"
	"github.com/blocksecure-io/chainseal/ledger"
	"github.com/blocksecure-io/chainseal/tamper"
)

// streamEventTypes are the event types forwarded to SSE clients.
var streamEventTypes = []event.EventType{
	ledger.AnchorCreatedEventType,
	ledger.TransactionConfirmedEventType,
	ledger.TransactionFailedEventType,
	tamper.TamperDetectedEventType,
}

// handleStream handles GET /api/v1/stream and forwards ledger and
// tamper events to the client as server-sent events until the client
// disconnects.
func (a *Api) handleStream(
	w http.ResponseWriter,
	r *http.Request,
) {
	if a.eventBus == nil {
		writeError(
			w,
			http.StatusServiceUnavailable,
			"Service Unavailable",
			"event stream not available",
		)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"streaming not supported",
		)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Fan the subscribed channels into one to keep the client loop
	// simple
	events := make(chan event.Event, event.EventQueueSize)
	done := make(chan struct{})
	defer close(done)
	for _, eventType := range streamEventTypes {
		subId, ch := a.eventBus.Subscribe(eventType)
		defer a.eventBus.Unsubscribe(eventType, subId)
		go func(ch <-chan event.Event) {
			for {
				select {
				case <-done:
					return
				case evt, ok := <-ch:
					if !ok {
						return
					}
					select {
					case events <- evt:
					case <-done:
						return
					}
				}
			}
		}(ch)
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-events:
			data, err := json.Marshal(evt.Data)
			if err != nil {
				a.logger.Error(
					"failed to marshal stream event",
					"event_type", evt.Type,
					"error", err,
				)
				continue
			}
			if _, err := w.Write(
				[]byte(
					"event: " + string(evt.Type) +
						"\ndata: " + string(data) + "\n\n",
				),
			); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
