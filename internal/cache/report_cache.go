package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"classpulse/internal/model"
)

const reportTTL = 60 * time.Second

// ReportCache keeps rendered analytics reports in Redis for a short
// window. Entries are dropped on every submission and version bump, so
// the TTL only bounds staleness if an invalidation is missed.
type ReportCache struct {
	client *redis.Client
}

// NewReportCache creates a new report cache
func NewReportCache(client *redis.Client) *ReportCache {
	return &ReportCache{client: client}
}

func reportKey(surveyID string) string {
	return fmt.Sprintf("survey:%s:report", surveyID)
}

// Get returns the cached report for a survey, if any. Cache errors are
// logged and treated as misses.
func (c *ReportCache) Get(ctx context.Context, surveyID string) (*model.AnalyticsReport, bool) {
	data, err := c.client.Get(ctx, reportKey(surveyID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("report cache get failed: %v", err)
		return nil, false
	}
	var report model.AnalyticsReport
	if err := json.Unmarshal(data, &report); err != nil {
		log.Printf("report cache decode failed: %v", err)
		return nil, false
	}
	return &report, true
}

// Set stores a report. Failures are logged, not returned; the cache is
// never load-bearing.
func (c *ReportCache) Set(ctx context.Context, surveyID string, report *model.AnalyticsReport) {
	data, err := json.Marshal(report)
	if err != nil {
		log.Printf("report cache encode failed: %v", err)
		return
	}
	if err := c.client.Set(ctx, reportKey(surveyID), data, reportTTL).Err(); err != nil {
		log.Printf("report cache set failed: %v", err)
	}
}

// Invalidate drops a survey's cached report.
func (c *ReportCache) Invalidate(ctx context.Context, surveyID string) {
	if err := c.client.Del(ctx, reportKey(surveyID)).Err(); err != nil {
		log.Printf("report cache invalidate failed: %v", err)
	}
}
