// Package results persists pipeline results in a write-ahead log.
package results

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"github.com/vadiminshakov/pndscan/internal/domain"
)

const (
	DefaultDir   = "./wal/results"
	segmentLimit = 100
	maxSegments  = 10

	resultKeyPrefix = "result_"
)

// ErrNotFound is returned when no result is stored for a ticker.
var ErrNotFound = errors.New("result not found")

// WALStore persists analysis results in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed result store.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}

	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              dir,
		Prefix:           "result_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init result WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save appends a result and returns its WAL index.
func (s *WALStore) Save(result domain.AnalysisResult) (uint64, error) {
	if s == nil || s.wal == nil {
		return 0, errors.New("result store is not initialized")
	}
	if result.Ticker == "" {
		return 0, errors.New("result ticker is required")
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return 0, errors.Wrap(err, "marshal result")
	}

	key := fmt.Sprintf("%s%s", resultKeyPrefix, result.Ticker)

	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.wal.CurrentIndex() + 1
	if err := s.wal.Write(index, key, payload); err != nil {
		return 0, errors.Wrapf(err, "write result for %s", result.Ticker)
	}

	return index, nil
}

// ResultsAfter returns all results written after the provided WAL index.
func (s *WALStore) ResultsAfter(index uint64) ([]domain.ResultRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("result store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]domain.ResultRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		// evicted segments leave holes
		if err != nil || !strings.HasPrefix(key, resultKeyPrefix) {
			continue
		}

		var result domain.AnalysisResult
		if err := json.Unmarshal(payload, &result); err != nil {
			return nil, errors.Wrapf(err, "decode result at index %d", idx)
		}
		records = append(records, domain.ResultRecord{Index: idx, Result: result})
	}

	return records, nil
}

// Latest returns the most recent result of ticker.
func (s *WALStore) Latest(ticker string) (domain.ResultRecord, error) {
	if s == nil || s.wal == nil {
		return domain.ResultRecord{}, errors.New("result store is not initialized")
	}

	key := resultKeyPrefix + ticker

	s.mu.RLock()
	defer s.mu.RUnlock()

	for idx := s.wal.CurrentIndex(); idx > 0; idx-- {
		k, payload, err := s.wal.Get(idx)
		if err != nil || k != key {
			continue
		}

		var result domain.AnalysisResult
		if err := json.Unmarshal(payload, &result); err != nil {
			return domain.ResultRecord{}, errors.Wrapf(err, "decode result at index %d", idx)
		}
		return domain.ResultRecord{Index: idx, Result: result}, nil
	}

	return domain.ResultRecord{}, errors.Wrapf(ErrNotFound, "ticker %s", ticker)
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("result store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
