package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"StockSeq/internal/domain/models"
	domrepo "StockSeq/internal/domain/repository"
	pkgcache "StockSeq/pkg/cache"
	applogger "StockSeq/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const quotaTxRetries = 20

// QuotaRedisStore keeps the ledger document under one Redis key and updates it
// with WATCH/MULTI so concurrent hosts never lose a charge.
type QuotaRedisStore struct {
	client *redis.Client
	key    string
	now    func() time.Time
	l      *applogger.Logger
}

func NewQuotaRedisStore(rc *pkgcache.RedisCache, key string, l *applogger.Logger) *QuotaRedisStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &QuotaRedisStore{client: rc.Client(), key: rc.Key(key), now: time.Now, l: l}
}

func (s *QuotaRedisStore) Load(ctx context.Context) (*models.QuotaRecord, error) {
	b, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.NewQuotaRecord(s.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get quota ledger: %w", err)
	}
	return decodeQuotaRecord(b, s.now(), s.l), nil
}

func (s *QuotaRedisStore) Update(ctx context.Context, fn func(*models.QuotaRecord) error) (*models.QuotaRecord, error) {
	var out *models.QuotaRecord
	txf := func(tx *redis.Tx) error {
		rec := models.NewQuotaRecord(s.now())
		b, err := tx.Get(ctx, s.key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			rec = decodeQuotaRecord(b, s.now(), s.l)
		}

		if err := fn(rec); err != nil {
			return err
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal quota ledger: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, data, 0)
			return nil
		})
		if err == nil {
			out = rec
		}
		return err
	}

	for i := 0; i < quotaTxRetries; i++ {
		err := s.client.Watch(ctx, txf, s.key)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			s.l.Debug("quota ledger tx conflict, retrying", applogger.Int("attempt", i+1))
			continue
		}
		return nil, fmt.Errorf("redis update quota ledger: %w", err)
	}
	return nil, fmt.Errorf("redis update quota ledger: too many conflicts")
}

var _ domrepo.QuotaStore = (*QuotaRedisStore)(nil)
