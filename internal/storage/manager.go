// Package storage provides BadgerDB-based persistence for fetched series
package storage

import (
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/humanda/askfin/internal/common"
	"github.com/humanda/askfin/internal/interfaces"
)

// Manager owns the badger database and hands out typed storage views.
// Close must be called exactly once, after all views are done.
type Manager struct {
	db     *badger.DB
	logger *common.Logger

	series *seriesStorage
}

// NewManager opens the database at the configured path
func NewManager(logger *common.Logger, config *common.StorageConfig) (*Manager, error) {
	opts := badger.DefaultOptions(config.Path)
	opts.Logger = nil // disable badger's internal logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}

	logger.Debug().Str("path", config.Path).Msg("BadgerDB opened")

	m := &Manager{
		db:     db,
		logger: logger,
	}
	m.series = newSeriesStorage(m, logger)

	return m, nil
}

// Series returns the price series storage view
func (m *Manager) Series() interfaces.SeriesStorage {
	return m.series
}

// Close closes the database
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
