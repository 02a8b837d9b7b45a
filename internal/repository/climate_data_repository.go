package repository

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"insurance-service/internal/models"
	"insurance-service/internal/utils"

	"github.com/redis/go-redis/v9"
)

// ClimateDataStore holds verified readings for the evaluation window only.
// Readings expire on their own; nothing is archived.
type ClimateDataStore interface {
	SaveDataPoint(ctx context.Context, dp *models.ClimateDataPoint, ttl time.Duration) error
	ListBySources(ctx context.Context, sources []string) ([]models.ClimateDataPoint, error)
}

// RedisClimateDataStore keys readings by provider, data type and digest and
// lets redis TTL handle the ephemerality the data model requires.
type RedisClimateDataStore struct {
	client *redis.Client
}

func NewRedisClimateDataStore(client *redis.Client) *RedisClimateDataStore {
	return &RedisClimateDataStore{client: client}
}

func climateKey(dp *models.ClimateDataPoint) string {
	return fmt.Sprintf("climate:%s:%s:%s", dp.SourceID, dp.DataType, hex.EncodeToString(dp.VerificationHash))
}

func (s *RedisClimateDataStore) SaveDataPoint(ctx context.Context, dp *models.ClimateDataPoint, ttl time.Duration) error {
	data, err := utils.SerializeModel(dp)
	if err != nil {
		return fmt.Errorf("failed to serialize data point: %w", err)
	}

	if err := s.client.Set(ctx, climateKey(dp), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store data point: %w", err)
	}

	return nil
}

func (s *RedisClimateDataStore) ListBySources(ctx context.Context, sources []string) ([]models.ClimateDataPoint, error) {
	var points []models.ClimateDataPoint

	for _, source := range sources {
		pattern := fmt.Sprintf("climate:%s:*", source)
		iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()

		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return nil, fmt.Errorf("failed to scan readings for %s: %w", source, err)
		}
		if len(keys) == 0 {
			continue
		}

		values, err := s.client.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch readings for %s: %w", source, err)
		}

		for _, v := range values {
			raw, ok := v.(string)
			if !ok {
				// Key expired between SCAN and MGET.
				continue
			}

			var dp models.ClimateDataPoint
			if err := utils.DeserializeModel([]byte(raw), &dp); err != nil {
				return nil, fmt.Errorf("failed to decode reading: %w", err)
			}
			points = append(points, dp)
		}
	}

	return points, nil
}
