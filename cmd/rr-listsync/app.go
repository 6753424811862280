package main

import (
	"fmt"

	"github.com/haukened/rr-listsync/internal/lists/common/clock"
	"github.com/haukened/rr-listsync/internal/lists/common/log"
	"github.com/haukened/rr-listsync/internal/lists/common/metrics"
	"github.com/haukened/rr-listsync/internal/lists/config"
	"github.com/haukened/rr-listsync/internal/lists/repos/boltstore"
	"github.com/haukened/rr-listsync/internal/lists/repos/filestore"
	"github.com/haukened/rr-listsync/internal/lists/repos/inbox"
	"github.com/haukened/rr-listsync/internal/lists/services/coordinator"
	"github.com/haukened/rr-listsync/internal/lists/services/policy"
)

// Application holds the wired components of one invocation.
type Application struct {
	clock       clock.Clock
	closeStore  func() error
	coordinator *coordinator.Coordinator
	metrics     *metrics.Registry
}

// Close releases the store.
func (a *Application) Close() error {
	if a.closeStore == nil {
		return nil
	}
	return a.closeStore()
}

// buildApplication constructs all components and wires them together.
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	clk := clock.RealClock{}
	logger := log.GetLogger()

	store, closeStore, err := buildStore(cfg, clk, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build store: %w", err)
	}

	reader, err := inbox.New(inbox.Options{Dir: cfg.Inbox.Dir, Logger: logger, Clock: clk})
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("failed to open inbox: %w", err)
	}

	reg := metrics.New()
	coord, err := coordinator.New(coordinator.Options{
		Reader: reader,
		Store:  store,
		Policy: policy.New(policy.Sets{
			Banned:    cfg.Policy.Banned,
			Recovery:  cfg.Policy.Recovery,
			Wildcards: cfg.Policy.Wildcard,
		}),
		Clock:      clk,
		Logger:     logger,
		Metrics:    reg,
		Lists:      coordinator.Lists{Block: cfg.Lists.Block, Allow: cfg.Lists.Allow},
		MaxAgeDays: cfg.Retention.MaxAgeDays,
	})
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("failed to build coordinator: %w", err)
	}

	log.Info(map[string]any{
		"backend": cfg.Store.Backend,
		"inbox":   cfg.Inbox.Dir,
		"block":   cfg.Lists.Block,
		"allow":   cfg.Lists.Allow,
	}, "application_ready")

	return &Application{
		clock:       clk,
		closeStore:  closeStore,
		coordinator: coord,
		metrics:     reg,
	}, nil
}

// buildStore opens the configured list store and returns its closer.
func buildStore(cfg *config.AppConfig, clk clock.Clock, logger log.Logger) (coordinator.ListStore, func() error, error) {
	switch cfg.Store.Backend {
	case "bolt":
		st, err := boltstore.New(cfg.Store.BoltPath, clk)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open bolt store %s: %w", cfg.Store.BoltPath, err)
		}
		return st, st.Close, nil
	case "file":
		st, err := filestore.New(cfg.Store.Root, logger)
		if err != nil {
			return nil, nil, err
		}
		return st, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
