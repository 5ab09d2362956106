package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"StockSeq/internal/domain/models"
	domrepo "StockSeq/internal/domain/repository"
	applogger "StockSeq/pkg/logger"
)

// QuotaFileStore keeps the ledger in a JSON file guarded by a sibling .lock file.
type QuotaFileStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
	l    *applogger.Logger
}

func NewQuotaFileStore(path string, l *applogger.Logger) *QuotaFileStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &QuotaFileStore{path: path, now: time.Now, l: l}
}

// Load returns the persisted ledger, or an empty one when the file is missing or unreadable as JSON.
func (s *QuotaFileStore) Load(ctx context.Context) (*models.QuotaRecord, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return models.NewQuotaRecord(s.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read quota ledger: %w", err)
	}
	return decodeQuotaRecord(b, s.now(), s.l), nil
}

func (s *QuotaFileStore) Update(ctx context.Context, fn func(*models.QuotaRecord) error) (*models.QuotaRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("quota ledger dir: %w", err)
	}
	unlock, err := lockFile(s.path + ".lock")
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(rec); err != nil {
		return nil, err
	}

	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal quota ledger: %w", err)
	}
	if err := writeFileAtomic(s.path, b); err != nil {
		s.l.Error("quota ledger write failed", applogger.String("path", s.path), applogger.Error(err))
		return nil, fmt.Errorf("write quota ledger: %w", err)
	}
	return rec, nil
}

// decodeQuotaRecord parses a ledger document. Corrupt content yields an empty ledger;
// a total that disagrees with the daily buckets is recomputed from them.
func decodeQuotaRecord(b []byte, now time.Time, l *applogger.Logger) *models.QuotaRecord {
	var rec models.QuotaRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		l.Warn("quota ledger corrupt, starting from zero", applogger.Error(err))
		return models.NewQuotaRecord(now)
	}
	if rec.DailyRequests == nil {
		rec.DailyRequests = make(map[string]int)
	}
	sum := 0
	for day, n := range rec.DailyRequests {
		if n < 0 {
			l.Warn("quota ledger has negative count, starting from zero", applogger.String("date", day))
			return models.NewQuotaRecord(now)
		}
		sum += n
	}
	if sum != rec.TotalRequests {
		l.Warn("quota ledger total disagrees with daily counts",
			applogger.Int("total", rec.TotalRequests),
			applogger.Int("sum", sum),
		)
		rec.TotalRequests = sum
	}
	if rec.LastReset.IsZero() {
		rec.LastReset = now.UTC()
	}
	return &rec
}

var _ domrepo.QuotaStore = (*QuotaFileStore)(nil)
