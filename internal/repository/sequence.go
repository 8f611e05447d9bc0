package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sjperalta/studio-finance-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceCounter hands out strictly increasing values per key. Two calls for
// the same key never return the same value.
type SequenceCounter interface {
	Next(ctx context.Context, key string) (int64, error)
}

type postgresSequence struct {
	db *gorm.DB
}

// NewPostgresSequence creates a counter backed by an upsert-increment on receipt_sequences
func NewPostgresSequence(db *gorm.DB) SequenceCounter {
	return &postgresSequence{db: db}
}

func (s *postgresSequence) Next(ctx context.Context, key string) (int64, error) {
	row := models.ReceiptSequence{Key: key, Value: 1}

	// INSERT ... ON CONFLICT (day_key) DO UPDATE SET value = value + 1 RETURNING value
	err := s.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "day_key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"value":      gorm.Expr("receipt_sequences.value + 1"),
				"updated_at": gorm.Expr("NOW()"),
			}),
		},
		clause.Returning{Columns: []clause.Column{{Name: "value"}}},
	).Create(&row).Error
	if err != nil {
		return 0, fmt.Errorf("increment receipt sequence %s: %w", key, err)
	}
	return row.Value, nil
}

// redisSequenceTTL keeps a day's counter around past midnight in any timezone
const redisSequenceTTL = 48 * time.Hour

type redisSequence struct {
	client *redis.Client
	prefix string
}

// NewRedisSequence creates a counter backed by Redis INCR
func NewRedisSequence(client *redis.Client) SequenceCounter {
	return &redisSequence{client: client, prefix: "receipt:seq:"}
}

func (s *redisSequence) Next(ctx context.Context, key string) (int64, error) {
	k := s.prefix + key
	n, err := s.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, fmt.Errorf("increment receipt sequence %s: %w", key, err)
	}
	if n == 1 {
		if err := s.client.Expire(ctx, k, redisSequenceTTL).Err(); err != nil {
			return 0, fmt.Errorf("expire receipt sequence %s: %w", key, err)
		}
	}
	return n, nil
}
