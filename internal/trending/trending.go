// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package trending implements the trending source contract of spec §6: two
HTTP GETs, one per entity kind, each returning a JSON object mapping
snowflake id (as a JSON string key) to a score string; values are parsed as
float64 and unparseable entries are dropped rather than failing the whole
refresh. A short-TTL redis cache sits in front of both GETs so a burst of
concurrent refreshes collapses into a single upstream request (spec's
Non-goals exclude persisting trending data itself — only the HTTP round
trip is cached).
*/
package trending

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/corelist/searchcore/internal/platform/constants"
)

// cacheTTL is how long a fetched trending snapshot is cached before the
// next refresh re-fetches from the upstream HTTP source.
const cacheTTL = 60 * time.Second

// requestTimeout bounds a single upstream GET.
const requestTimeout = 5 * time.Second

// Source fetches and caches the bot and pack trending snapshots.
type Source struct {
	http     *http.Client
	redis    *redis.Client
	botsURL  string
	packsURL string
}

// NewSource returns a Source backed by the given redis client and the two
// configured trending-source URLs (spec §6).
func NewSource(redisClient *redis.Client, botsURL, packsURL string) *Source {
	return &Source{
		http:     &http.Client{Timeout: requestTimeout},
		redis:    redisClient,
		botsURL:  botsURL,
		packsURL: packsURL,
	}
}

// Bots returns the current bot trending snapshot, keyed by bot id.
func (s *Source) Bots(ctx context.Context) (map[int64]float64, error) {
	return s.fetch(ctx, constants.RedisPrefixTrending+"bots", s.botsURL)
}

// Packs returns the current pack trending snapshot, keyed by pack id.
func (s *Source) Packs(ctx context.Context) (map[int64]float64, error) {
	return s.fetch(ctx, constants.RedisPrefixTrending+"packs", s.packsURL)
}

func (s *Source) fetch(ctx context.Context, cacheKey, url string) (map[int64]float64, error) {
	if raw, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
		var cached map[string]string
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return parseScores(cached), nil
		}
	}

	raw, err := s.fetchHTTP(ctx, url)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(raw); err == nil {
		s.redis.Set(ctx, cacheKey, encoded, cacheTTL)
	}

	return parseScores(raw), nil
}

func (s *Source) fetchHTTP(ctx context.Context, url string) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("trending: build request: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("trending: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("trending: fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("trending: read %s: %w", url, err)
	}

	var raw map[string]string
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("trending: decode %s: %w", url, err)
	}
	return raw, nil
}

// parseScores converts the raw string-keyed, string-valued map into an
// int64/float64 snapshot, dropping any entry that fails to parse either
// side (spec §6: "values are parsed as f64, unparseable entries dropped").
func parseScores(raw map[string]string) map[int64]float64 {
	out := make(map[int64]float64, len(raw))
	for k, v := range raw {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		score, err := strconv.ParseFloat(v, 64)
		if err != nil {
			continue
		}
		out[id] = score
	}
	return out
}
