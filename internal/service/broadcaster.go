package service

import (
	"context"

	"classpulse/internal/model"
)

// Broadcaster pushes live events to connected dashboard watchers.
// Implementations must not block the caller.
type Broadcaster interface {
	ResponseSubmitted(surveyID string, response *model.SurveyResponse)
	VersionBumped(surveyID string, version int)
}

// NopBroadcaster discards all events. Used when no hub is wired.
type NopBroadcaster struct{}

func (NopBroadcaster) ResponseSubmitted(string, *model.SurveyResponse) {}
func (NopBroadcaster) VersionBumped(string, int)                       {}

// ReportCache holds rendered analytics reports keyed by survey. Writes
// that change a survey's responses or version must invalidate its entry.
type ReportCache interface {
	Get(ctx context.Context, surveyID string) (*model.AnalyticsReport, bool)
	Set(ctx context.Context, surveyID string, report *model.AnalyticsReport)
	Invalidate(ctx context.Context, surveyID string)
}

// NopReportCache never caches. Used when no Redis is wired.
type NopReportCache struct{}

func (NopReportCache) Get(context.Context, string) (*model.AnalyticsReport, bool) {
	return nil, false
}
func (NopReportCache) Set(context.Context, string, *model.AnalyticsReport) {}
func (NopReportCache) Invalidate(context.Context, string)                  {}
