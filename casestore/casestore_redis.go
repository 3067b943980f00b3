package casestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

const redisCaseHashKey = "riskmod/cases"

func redisCaseCacheKey(id string) string {
	return "riskmod/case/" + id
}

// RedisCaseStore persists cases in a redis hash, one JSON document per case
// id, with a TinyLFU-backed local cache in front of single-case reads.
//
// Search loads the full candidate set and ranks in process. The confirmed
// case corpus is small (tens of thousands at most), so a full scan per query
// stays well inside the latency budget; a dedicated vector index slots in
// behind the CaseStore interface when that stops being true.
type RedisCaseStore struct {
	Client *redis.Client
	Reads  *cache.Cache
	TTL    time.Duration
}

var _ CaseStore = (*RedisCaseStore)(nil)

func NewRedisCaseStore(redisURL string, ttl time.Duration) (*RedisCaseStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	reads := cache.New(&cache.Options{
		Redis:      rdb,
		LocalCache: cache.NewTinyLFU(10_000, ttl),
	})
	return &RedisCaseStore{
		Client: rdb,
		Reads:  reads,
		TTL:    ttl,
	}, nil
}

func (s *RedisCaseStore) Upsert(ctx context.Context, c ContentCase, embedding []float32) error {
	raw, err := json.Marshal(storedCase{Case: c, Embedding: embedding})
	if err != nil {
		return fmt.Errorf("encoding case: %w", err)
	}
	if err := s.Client.HSet(ctx, redisCaseHashKey, c.ID, raw).Err(); err != nil {
		return fmt.Errorf("writing case: %w", err)
	}
	// drop any stale cached copy of this id
	if err := s.Reads.Delete(ctx, redisCaseCacheKey(c.ID)); err != nil && err != cache.ErrCacheMiss {
		return err
	}
	return nil
}

func (s *RedisCaseStore) Get(ctx context.Context, id string) (*ContentCase, error) {
	var sc storedCase
	err := s.Reads.Once(&cache.Item{
		Ctx:   ctx,
		Key:   redisCaseCacheKey(id),
		Value: &sc,
		TTL:   s.TTL,
		Do: func(*cache.Item) (interface{}, error) {
			raw, err := s.Client.HGet(ctx, redisCaseHashKey, id).Bytes()
			if err != nil {
				return nil, err
			}
			var fetched storedCase
			if err := json.Unmarshal(raw, &fetched); err != nil {
				return nil, fmt.Errorf("decoding case: %w", err)
			}
			return fetched, nil
		},
	})
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading case: %w", err)
	}
	out := sc.Case
	return &out, nil
}

func (s *RedisCaseStore) loadAll(ctx context.Context) ([]storedCase, error) {
	raw, err := s.Client.HGetAll(ctx, redisCaseHashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("scanning cases: %w", err)
	}
	out := make([]storedCase, 0, len(raw))
	for id, doc := range raw {
		var sc storedCase
		if err := json.Unmarshal([]byte(doc), &sc); err != nil {
			return nil, fmt.Errorf("decoding case %s: %w", id, err)
		}
		out = append(out, sc)
	}
	return out, nil
}

func (s *RedisCaseStore) Search(ctx context.Context, embedding []float32, params SearchParams) ([]SimilarCaseMatch, error) {
	candidates, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	return rankCases(candidates, embedding, params), nil
}

func (s *RedisCaseStore) Stats(ctx context.Context) (StoreStats, error) {
	candidates, err := s.loadAll(ctx)
	if err != nil {
		return StoreStats{}, err
	}
	return statsOf(candidates), nil
}
