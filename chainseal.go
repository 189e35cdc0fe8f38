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

package chainseal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blocksecure-io/chainseal/api"
	"github.com/blocksecure-io/chainseal/database"
	"github.com/blocksecure-io/chainseal/event"
	"github.com/blocksecure-io/chainseal/ledger"
	"github.com/blocksecure-io/chainseal/tamper"
)

// Service ties the anchoring ledger, tamper analyzer, storage, and the
// REST API together behind a single lifecycle.
type Service struct {
	eventBus      *event.EventBus
	db            *database.Database
	consumer      *database.Consumer
	ledger        *ledger.Ledger
	analyzer      *tamper.Analyzer
	api           *api.Api
	shutdownFuncs []func(context.Context) error
	config        Config
	ready         chan struct{}
	done          chan struct{}
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Service, error) {
	s := &Service{
		config: cfg,
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
	if err := s.configValidate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	s.eventBus = event.NewEventBus(cfg.promRegistry, cfg.logger)
	return s, nil
}

func (s *Service) Run() error {
	// Configure tracing
	if s.config.tracing {
		if err := s.setupTracing(); err != nil {
			return err
		}
	}
	// Load database
	db, err := database.New(database.Config{
		DataDir: s.config.dataDir,
		Logger:  s.config.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db
	// Mirror ledger and tamper events into storage
	s.consumer = database.NewConsumer(s.db, s.eventBus, s.config.logger)
	// Load anchoring ledger
	s.ledger = ledger.NewLedger(ledger.LedgerConfig{
		PromRegistry:    s.config.promRegistry,
		Logger:          s.config.logger,
		EventBus:        s.eventBus,
		ConfirmDelayMin: s.config.confirmDelayMin,
		ConfirmDelayMax: s.config.confirmDelayMax,
		ConfirmRate:     s.config.confirmRate,
		InitialHeight:   s.config.initialHeight,
		Anchorer:        s.config.anchorer,
	})
	// Load tamper analyzer
	s.analyzer = tamper.NewAnalyzer(tamper.AnalyzerConfig{
		PromRegistry: s.config.promRegistry,
		Logger:       s.config.logger,
		EventBus:     s.eventBus,
	})
	// Restore fingerprint baselines from storage
	if err := s.restoreBaselines(); err != nil {
		return fmt.Errorf("failed to restore baselines: %w", err)
	}
	// Start REST API listener
	if s.config.apiListenAddress != "" {
		s.api = api.New(
			api.ApiConfig{
				ListenAddress: s.config.apiListenAddress,
			},
			s,
			s.eventBus,
			s.config.logger,
		)
		if err := s.api.Start(context.Background()); err != nil {
			return err
		}
	}

	// Signal that all components are wired up
	close(s.ready)

	// Wait for shutdown signal
	<-s.done
	return nil
}

// WaitReady blocks until Run has finished wiring up all components.
func (s *Service) WaitReady() {
	<-s.ready
}

func (s *Service) Stop() error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.shutdown()
	})
	return err
}

func (s *Service) shutdown() error {
	// Create shutdown context with timeout (default 30s if not configured)
	shutdownTimeout := 30 * time.Second
	if s.config.shutdownTimeout > 0 {
		shutdownTimeout = s.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	s.config.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new work
	s.config.logger.Debug("shutdown phase 1: stopping new work")

	if s.api != nil {
		if stopErr := s.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}

	// Phase 2: Drain pending confirmations
	s.config.logger.Debug("shutdown phase 2: draining confirmations")

	if s.ledger != nil {
		if stopErr := s.ledger.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("ledger shutdown: %w", stopErr))
		}
	}

	// Phase 3: Flush state and close database
	s.config.logger.Debug("shutdown phase 3: flushing state")

	if s.consumer != nil {
		s.consumer.Stop()
	}

	if s.db != nil {
		if closeErr := s.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
	}

	// Phase 4: Cleanup resources
	s.config.logger.Debug("shutdown phase 4: cleanup resources")

	// Call registered shutdown functions
	for _, fn := range s.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	s.shutdownFuncs = nil

	if s.eventBus != nil {
		s.eventBus.Stop()
	}

	s.config.logger.Debug("graceful shutdown complete")
	close(s.done)
	return err
}

// restoreBaselines reloads tamper baselines from persisted record
// payloads so that analysis survives restarts.
func (s *Service) restoreBaselines() error {
	records, err := s.db.Metadata().ListLogRecords()
	if err != nil {
		return err
	}
	for _, row := range records {
		payload, err := s.db.Blob().GetRecord(row.LogId)
		if err != nil {
			s.config.logger.Warn(
				"missing stored payload for log record",
				"log_id", row.LogId,
				"error", err,
			)
			continue
		}
		record, err := decodeRecord(payload)
		if err != nil {
			return fmt.Errorf(
				"corrupt stored payload for log %s: %w",
				row.LogId,
				err,
			)
		}
		if err := s.analyzer.RecordOriginal(row.LogId, record); err != nil {
			return err
		}
	}
	return nil
}
