package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/humanda/askfin/internal/common"
	"github.com/humanda/askfin/internal/interfaces"
	"github.com/humanda/askfin/internal/models"
)

// seriesStorage implements SeriesStorage using BadgerDB. Values are
// JSON-encoded PriceSeries keyed by instrument code.
type seriesStorage struct {
	manager *Manager
	logger  *common.Logger
}

func newSeriesStorage(manager *Manager, logger *common.Logger) *seriesStorage {
	return &seriesStorage{manager: manager, logger: logger}
}

func seriesKey(code string) []byte {
	return []byte("series/" + code)
}

// GetSeries returns the stored series for a code, or (nil, nil) when absent.
func (s *seriesStorage) GetSeries(code string) (*models.PriceSeries, error) {
	var series *models.PriceSeries

	err := s.manager.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(seriesKey(code))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var decoded models.PriceSeries
			if err := json.Unmarshal(val, &decoded); err != nil {
				return fmt.Errorf("failed to decode stored series: %w", err)
			}
			series = &decoded
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get series for '%s': %w", code, err)
	}

	return series, nil
}

// SaveSeries upserts a fetched series. The caller is responsible for setting
// FetchedAt before saving.
func (s *seriesStorage) SaveSeries(series *models.PriceSeries) error {
	data, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("failed to encode series: %w", err)
	}

	err = s.manager.db.Update(func(txn *badger.Txn) error {
		return txn.Set(seriesKey(series.Code), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save series for '%s': %w", series.Code, err)
	}

	s.logger.Debug().Str("code", series.Code).Int("bars", series.Len()).Msg("Series saved")
	return nil
}

// Ensure seriesStorage implements SeriesStorage
var _ interfaces.SeriesStorage = (*seriesStorage)(nil)
