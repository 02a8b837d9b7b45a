package oracle

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const slothashKey = "oracle:slothash_ring"

// SlothashRing is the replay-protection source: a rotating unpredictable
// value tied to recent history. Oracle signatures must reference one of the
// retained values; anything older is rejected as a replay.
type SlothashRing struct {
	client  *redis.Client
	history int
}

func NewSlothashRing(client *redis.Client, history int) *SlothashRing {
	if history <= 0 {
		history = 32
	}
	return &SlothashRing{client: client, history: history}
}

// Rotate pushes a fresh slothash derived from the previous head plus fresh
// randomness and trims the ring to the retained history. Called by the crank.
func (r *SlothashRing) Rotate(ctx context.Context) ([]byte, error) {
	prev, err := r.client.LIndex(ctx, slothashKey, 0).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to read slothash head: %w", err)
	}

	var entropy [32]byte
	if _, err := rand.Read(entropy[:]); err != nil {
		return nil, fmt.Errorf("failed to draw entropy: %w", err)
	}

	sum := sha256.Sum256(append([]byte(prev), entropy[:]...))
	next := hex.EncodeToString(sum[:])

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, slothashKey, next)
	pipe.LTrim(ctx, slothashKey, 0, int64(r.history-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to rotate slothash ring: %w", err)
	}

	return sum[:], nil
}

// Contains reports whether the slothash is within the retained history.
func (r *SlothashRing) Contains(ctx context.Context, slothash []byte) (bool, error) {
	values, err := r.client.LRange(ctx, slothashKey, 0, int64(r.history-1)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read slothash ring: %w", err)
	}

	needle := hex.EncodeToString(slothash)
	for _, v := range values {
		if v == needle {
			return true, nil
		}
	}
	return false, nil
}

// Current returns the head of the ring, rotating once if the ring is empty.
func (r *SlothashRing) Current(ctx context.Context) ([]byte, error) {
	head, err := r.client.LIndex(ctx, slothashKey, 0).Result()
	if err == redis.Nil {
		return r.Rotate(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slothash head: %w", err)
	}
	return hex.DecodeString(head)
}
