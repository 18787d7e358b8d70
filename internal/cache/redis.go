// Package cache keeps built reports in Redis so repeated fetches skip the
// blob store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mind-engage/mindengage-outcomes/internal/report"
)

// NewRedisClient creates and validates a Redis client connection.
func NewRedisClient(ctx context.Context, url string, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info().
		Str("addr", opt.Addr).
		Int("db", opt.DB).
		Msg("Redis connected")

	return rdb, nil
}

// ReportKey returns the cache key of a report run.
func ReportKey(runID string) string {
	return fmt.Sprintf("report:%s", runID)
}

// LatestKey returns the key pointing at the newest run of a course.
func LatestKey(courseID string) string {
	return fmt.Sprintf("course:%s:latest_report", courseID)
}

type ReportCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewReportCache(rdb *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{rdb: rdb, ttl: ttl}
}

// Put stores the report and marks it as the newest run of its course.
func (c *ReportCache) Put(ctx context.Context, rep *report.Report) error {
	buf, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, ReportKey(rep.RunID), buf, c.ttl)
	pipe.Set(ctx, LatestKey(rep.CourseID), rep.RunID, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache report %s: %w", rep.RunID, err)
	}
	return nil
}

// Get returns the cached report; ok is false on a miss.
func (c *ReportCache) Get(ctx context.Context, runID string) (rep *report.Report, ok bool, err error) {
	buf, err := c.rdb.Get(ctx, ReportKey(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	rep = &report.Report{}
	if err := json.Unmarshal(buf, rep); err != nil {
		return nil, false, fmt.Errorf("decode cached report %s: %w", runID, err)
	}
	return rep, true, nil
}

// Latest returns the run id of the newest cached report of a course.
func (c *ReportCache) Latest(ctx context.Context, courseID string) (string, bool, error) {
	id, err := c.rdb.Get(ctx, LatestKey(courseID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}
