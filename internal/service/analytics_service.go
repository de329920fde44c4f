package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"classpulse/internal/model"
	"classpulse/internal/repository"
)

const timelineDays = 30

// AnalyticsService aggregates responses into reports. Results are
// always partitioned against the survey's live version; a version bump
// moves every existing response into the outdated bucket without any
// rewrite of stored data.
type AnalyticsService struct {
	surveyRepo   repository.SurveyRepo
	responseRepo repository.ResponseRepo
	sectionRepo  repository.SectionRepo
	profileRepo  repository.ProfileRepo
	cache        ReportCache
	now          func() time.Time
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(surveyRepo repository.SurveyRepo, responseRepo repository.ResponseRepo, sectionRepo repository.SectionRepo, profileRepo repository.ProfileRepo, cache ReportCache) *AnalyticsService {
	return &AnalyticsService{
		surveyRepo:   surveyRepo,
		responseRepo: responseRepo,
		sectionRepo:  sectionRepo,
		profileRepo:  profileRepo,
		cache:        cache,
		now:          time.Now,
	}
}

// Report builds the full aggregation for one survey. Unfiltered reports
// are served from cache when present; filtered ones are always built
// fresh.
func (s *AnalyticsService) Report(ctx context.Context, ownerID, surveyID string, filter model.AnalyticsFilter) (*model.AnalyticsReport, error) {
	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("load survey: %w", err)
	}
	if survey == nil || survey.CreatedBy != ownerID {
		return nil, ErrNotFound
	}

	cacheable := filter.IsZero()
	if cacheable {
		if cached, ok := s.cache.Get(ctx, surveyID); ok {
			return cached, nil
		}
	}

	responses, err := s.responseRepo.ListBySurvey(ctx, surveyID, repository.ResponseQuery{
		DateFrom:  filter.DateFrom,
		DateTo:    filter.DateTo,
		SectionID: filter.SectionID,
	})
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	responses = FilterByVersion(responses, filter.Version, survey.Version)

	report := &model.AnalyticsReport{
		SurveyID:       surveyID,
		SurveyTitle:    survey.Title,
		TotalResponses: len(responses),
		Filter:         filter,
		GeneratedAt:    s.now(),
	}

	questions := survey.ActiveQuestions()
	sort.Slice(questions, func(i, j int) bool { return questions[i].Order < questions[j].Order })
	report.TotalQuestions = len(questions)
	for _, q := range questions {
		if filter.QuestionType != "" && q.Type != filter.QuestionType {
			continue
		}
		report.Questions = append(report.Questions, buildQuestionStats(q, responses))
	}

	weekAgo := s.now().AddDate(0, 0, -7)
	for _, r := range responses {
		if r.SubmittedAt.After(weekAgo) {
			report.RecentResponses++
		}
	}

	report.Sections, err = s.sectionStats(ctx, survey)
	if err != nil {
		return nil, err
	}
	report.Timeline = buildTimeline(responses, survey.Version, s.now())
	report.Versions = buildVersionStats(responses, survey.Version)
	report.Insights = buildInsights(survey, report, s.now())

	if cacheable {
		s.cache.Set(ctx, surveyID, report)
	}
	return report, nil
}

// buildQuestionStats aggregates one question over the filtered
// responses. Choice questions get percentage buckets, text questions a
// word cloud plus the raw answers.
func buildQuestionStats(q model.Question, responses []*model.SurveyResponse) model.QuestionStats {
	stats := model.QuestionStats{
		QuestionID: q.ID,
		Text:       q.Text,
		Type:       q.Type,
		Required:   q.Required,
	}

	values := make([]string, 0, len(responses))
	for _, r := range responses {
		if a := r.AnswerFor(q.ID); a != nil && a.Value() != "" {
			values = append(values, a.Value())
		}
	}
	stats.AnswerCount = len(values)

	switch {
	case q.Type == model.QuestionTypeMultipleChoice:
		stats.ChartType = "pie"
		stats.Choices = buildChoiceStats(values, q.Options, false)
	case q.Type == model.QuestionTypeLikertScale:
		stats.ChartType = "bar"
		stats.Choices = buildChoiceStats(values, nil, true)
	default:
		stats.ChartType = "wordcloud"
		stats.TextAnswers = values
		stats.WordCloud = BuildWordCloud(values)
	}
	return stats
}

// buildChoiceStats counts observed values into percentage buckets.
// Multiple choice buckets follow the declared option order with stray
// values appended; likert buckets sort numerically when the values
// parse as numbers, lexically otherwise.
func buildChoiceStats(values, declaredOrder []string, numeric bool) []model.ChoiceStat {
	counts := make(map[string]int)
	for _, v := range values {
		counts[v]++
	}

	keys := make([]string, 0, len(counts))
	if declaredOrder != nil {
		for _, option := range declaredOrder {
			if counts[option] > 0 {
				keys = append(keys, option)
			}
		}
		declared := make(map[string]bool, len(declaredOrder))
		for _, option := range declaredOrder {
			declared[option] = true
		}
		var stray []string
		for v := range counts {
			if !declared[v] {
				stray = append(stray, v)
			}
		}
		sort.Strings(stray)
		keys = append(keys, stray...)
	} else {
		for v := range counts {
			keys = append(keys, v)
		}
		sort.Slice(keys, func(i, j int) bool {
			if numeric {
				ni, erri := strconv.ParseFloat(keys[i], 64)
				nj, errj := strconv.ParseFloat(keys[j], 64)
				if erri == nil && errj == nil {
					return ni < nj
				}
			}
			return keys[i] < keys[j]
		})
	}

	total := len(values)
	stats := make([]model.ChoiceStat, 0, len(keys))
	for _, k := range keys {
		pct := 0.0
		if total > 0 {
			pct = round1(float64(counts[k]) / float64(total) * 100)
		}
		stats = append(stats, model.ChoiceStat{Value: k, Count: counts[k], Percentage: pct})
	}
	return stats
}

// sectionStats reports completion per assigned section against the
// section's active student count. Section counts ignore the report
// filters so the completion picture stays comparable across sections.
func (s *AnalyticsService) sectionStats(ctx context.Context, survey *model.Survey) ([]model.SectionStat, error) {
	stats := make([]model.SectionStat, 0, len(survey.SectionIDs))
	for _, sectionID := range survey.SectionIDs {
		section, err := s.sectionRepo.GetByID(ctx, sectionID)
		if err != nil {
			return nil, fmt.Errorf("load section: %w", err)
		}
		if section == nil {
			continue
		}
		students, err := s.profileRepo.CountActiveStudents(ctx, sectionID)
		if err != nil {
			return nil, fmt.Errorf("count students: %w", err)
		}
		received, err := s.responseRepo.CountBySection(ctx, survey.ID, sectionID)
		if err != nil {
			return nil, fmt.Errorf("count responses: %w", err)
		}

		rate := 0.0
		if students > 0 {
			rate = round1(float64(received) / float64(students) * 100)
		}
		stats = append(stats, model.SectionStat{
			SectionID:         section.ID,
			Name:              section.Name,
			Code:              section.Code,
			TotalStudents:     int(students),
			ResponsesReceived: int(received),
			CompletionRate:    rate,
		})
	}
	return stats, nil
}

// buildTimeline walks the trailing 30 days (31 points, today included)
// with zero-filled gaps, splitting each day by currency.
func buildTimeline(responses []*model.SurveyResponse, currentVersion int, now time.Time) []model.TimelinePoint {
	byDay := make(map[string]*model.TimelinePoint)
	points := make([]model.TimelinePoint, 0, timelineDays+1)
	for i := timelineDays; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		points = append(points, model.TimelinePoint{Date: date})
		byDay[date] = &points[len(points)-1]
	}

	for _, r := range responses {
		point, ok := byDay[r.SubmittedAt.Format("2006-01-02")]
		if !ok {
			continue
		}
		point.Total++
		if r.SurveyVersion == currentVersion {
			point.Current++
		} else {
			point.Outdated++
		}
	}
	return points
}

func buildVersionStats(responses []*model.SurveyResponse, currentVersion int) model.VersionStats {
	stats := model.VersionStats{CurrentVersion: currentVersion, TotalResponses: len(responses)}
	for _, r := range responses {
		if r.SurveyVersion == currentVersion {
			stats.CurrentResponses++
		} else {
			stats.OutdatedResponses++
		}
	}
	return stats
}

// buildInsights derives advisory notes from the finished report.
func buildInsights(survey *model.Survey, report *model.AnalyticsReport, now time.Time) []model.Insight {
	insights := []model.Insight{}

	if report.TotalResponses == 0 {
		insights = append(insights, model.Insight{
			Type:    "warning",
			Title:   "No responses yet",
			Message: "This survey has not received any responses. Check that it is assigned to the right sections and that students know about it.",
		})
	} else if len(report.Sections) > 0 {
		sum := 0.0
		for _, sec := range report.Sections {
			sum += sec.CompletionRate
		}
		avg := sum / float64(len(report.Sections))
		switch {
		case avg >= 80:
			insights = append(insights, model.Insight{
				Type:    "success",
				Title:   "Excellent participation",
				Message: fmt.Sprintf("Average completion across sections is %.1f%%.", avg),
			})
		case avg >= 50:
			insights = append(insights, model.Insight{
				Type:    "info",
				Title:   "Moderate participation",
				Message: fmt.Sprintf("Average completion across sections is %.1f%%. A reminder could lift it further.", avg),
			})
		default:
			insights = append(insights, model.Insight{
				Type:    "warning",
				Title:   "Low participation",
				Message: fmt.Sprintf("Average completion across sections is only %.1f%%. Consider extending the deadline or sending a reminder.", avg),
			})
		}
	}

	types := make(map[model.QuestionType]bool)
	hasText := false
	for _, q := range report.Questions {
		types[q.Type] = true
		if !q.Type.IsChoice() && q.AnswerCount > 0 {
			hasText = true
		}
	}
	if len(types) >= 3 {
		insights = append(insights, model.Insight{
			Type:    "success",
			Title:   "Good question variety",
			Message: "The mix of question types captures both measurable and open-ended feedback.",
		})
	}
	if hasText {
		insights = append(insights, model.Insight{
			Type:    "info",
			Title:   "Qualitative feedback available",
			Message: "Open-ended answers were collected. The word clouds highlight recurring themes.",
		})
	}

	if !survey.IsOpen(now) {
		insights = append(insights, model.Insight{
			Type:    "info",
			Title:   "Survey closed",
			Message: "This survey is no longer accepting responses.",
		})
	} else if survey.DueDate != nil {
		remaining := survey.DueDate.Sub(now)
		if remaining > 0 && remaining <= 3*24*time.Hour {
			insights = append(insights, model.Insight{
				Type:    "warning",
				Title:   "Deadline approaching",
				Message: fmt.Sprintf("The survey closes on %s.", survey.DueDate.Format("Jan 2, 2006")),
			})
		}
	}
	return insights
}

// Dashboard aggregates across all of the teacher's surveys. It takes
// the same filter as Report; the question type filter has no meaning at
// this level and is ignored. Version currency is judged against each
// survey's own version.
func (s *AnalyticsService) Dashboard(ctx context.Context, ownerID string, filter model.AnalyticsFilter) (*model.DashboardReport, error) {
	surveys, err := s.surveyRepo.ListByOwner(ctx, ownerID, repository.SurveyQuery{})
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}

	report := &model.DashboardReport{
		PieChart:     []model.SurveyShare{},
		BarChart:     []model.SectionCount{},
		TotalSurveys: len(surveys),
		GeneratedAt:  s.now(),
	}

	sectionResponses := make(map[string]int)
	sectionSeen := make(map[string]bool)
	var all []*model.SurveyResponse
	versions := make(map[string]int)

	for _, survey := range surveys {
		versions[survey.ID] = survey.Version
		responses, err := s.responseRepo.ListBySurvey(ctx, survey.ID, repository.ResponseQuery{
			DateFrom:  filter.DateFrom,
			DateTo:    filter.DateTo,
			SectionID: filter.SectionID,
		})
		if err != nil {
			return nil, fmt.Errorf("list responses: %w", err)
		}
		responses = FilterByVersion(responses, filter.Version, survey.Version)
		all = append(all, responses...)

		possible := 0
		for _, sectionID := range survey.SectionIDs {
			sectionSeen[sectionID] = true
			students, err := s.profileRepo.CountActiveStudents(ctx, sectionID)
			if err != nil {
				return nil, fmt.Errorf("count students: %w", err)
			}
			possible += int(students)
		}
		for _, r := range responses {
			if r.SectionID != "" {
				sectionResponses[r.SectionID]++
			}
		}

		pct := 0.0
		if possible > 0 {
			pct = round1(float64(len(responses)) / float64(possible) * 100)
		}
		report.PieChart = append(report.PieChart, model.SurveyShare{
			SurveyID:   survey.ID,
			Title:      survey.Title,
			Responses:  len(responses),
			Possible:   possible,
			Percentage: pct,
		})
	}

	sectionIDs := make([]string, 0, len(sectionSeen))
	for id := range sectionSeen {
		sectionIDs = append(sectionIDs, id)
	}
	sort.Strings(sectionIDs)
	for _, sectionID := range sectionIDs {
		section, err := s.sectionRepo.GetByID(ctx, sectionID)
		if err != nil {
			return nil, fmt.Errorf("load section: %w", err)
		}
		if section == nil {
			continue
		}
		report.BarChart = append(report.BarChart, model.SectionCount{
			SectionID:     section.ID,
			Name:          section.Name,
			Code:          section.Code,
			ResponseCount: sectionResponses[sectionID],
		})
	}
	report.TotalSections = len(report.BarChart)

	// the cross-survey line chart tracks volume only; currency is
	// per-survey and meaningless in aggregate
	points := make([]model.TimelinePoint, 0, timelineDays+1)
	byDay := make(map[string]*model.TimelinePoint)
	now := s.now()
	for i := timelineDays; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		points = append(points, model.TimelinePoint{Date: date})
		byDay[date] = &points[len(points)-1]
	}
	for _, r := range all {
		if point, ok := byDay[r.SubmittedAt.Format("2006-01-02")]; ok {
			point.Total++
			if r.SurveyVersion == versions[r.SurveyID] {
				point.Current++
			} else {
				point.Outdated++
			}
		}
	}
	report.LineChart = points

	return report, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
