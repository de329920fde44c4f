package model

import "time"

// VersionFilter selects which responses an aggregation sees
type VersionFilter string

const (
	VersionFilterAll      VersionFilter = "all"
	VersionFilterCurrent  VersionFilter = "current"
	VersionFilterOutdated VersionFilter = "outdated"
	// VersionFilterLatest keeps only each student's most recent response
	VersionFilterLatest VersionFilter = "latest"
)

// AnalyticsFilter narrows an aggregation. Zero value means no filtering.
type AnalyticsFilter struct {
	DateFrom     *time.Time    `json:"dateFrom,omitempty"`
	DateTo       *time.Time    `json:"dateTo,omitempty"`
	SectionID    string        `json:"sectionId,omitempty"`
	QuestionType QuestionType  `json:"questionType,omitempty"`
	Version      VersionFilter `json:"versionFilter,omitempty"`
}

// IsZero reports whether the filter narrows anything
func (f AnalyticsFilter) IsZero() bool {
	return f.DateFrom == nil && f.DateTo == nil && f.SectionID == "" &&
		f.QuestionType == "" && (f.Version == "" || f.Version == VersionFilterAll)
}

// ChoiceStat is one bucket of a choice/likert question
type ChoiceStat struct {
	Value      string  `json:"value"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// WordCount is one entry of a word cloud, weight = occurrences
type WordCount struct {
	Text   string `json:"text"`
	Weight int    `json:"weight"`
}

// QuestionStats holds the per-question aggregation
type QuestionStats struct {
	QuestionID  string       `json:"questionId"`
	Text        string       `json:"text"`
	Type        QuestionType `json:"type"`
	Required    bool         `json:"required"`
	AnswerCount int          `json:"answerCount"`
	ChartType   string       `json:"chartType,omitempty"`
	Choices     []ChoiceStat `json:"choices,omitempty"`
	TextAnswers []string     `json:"textAnswers,omitempty"`
	WordCloud   []WordCount  `json:"wordCloud,omitempty"`
}

// SectionStat is the completion picture for one assigned section
type SectionStat struct {
	SectionID         string  `json:"sectionId"`
	Name              string  `json:"name"`
	Code              string  `json:"code"`
	TotalStudents     int     `json:"totalStudents"`
	ResponsesReceived int     `json:"responsesReceived"`
	CompletionRate    float64 `json:"completionRate"`
}

// TimelinePoint is one calendar day of the trailing response window
type TimelinePoint struct {
	Date     string `json:"date"`
	Current  int    `json:"current"`
	Outdated int    `json:"outdated"`
	Total    int    `json:"total"`
}

// VersionStats partitions filtered responses by currency
type VersionStats struct {
	CurrentVersion    int `json:"currentVersion"`
	CurrentResponses  int `json:"currentResponses"`
	OutdatedResponses int `json:"outdatedResponses"`
	TotalResponses    int `json:"totalResponses"`
}

// Insight is a best-effort advisory note derived from the report data
type Insight struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// AnalyticsReport is the full aggregation for one survey
type AnalyticsReport struct {
	SurveyID        string          `json:"surveyId"`
	SurveyTitle     string          `json:"surveyTitle"`
	TotalResponses  int             `json:"totalResponses"`
	TotalQuestions  int             `json:"totalQuestions"`
	RecentResponses int             `json:"recentResponses"`
	Questions       []QuestionStats `json:"questions"`
	Sections        []SectionStat   `json:"sections"`
	Timeline        []TimelinePoint `json:"timeline"`
	Versions        VersionStats    `json:"versionStats"`
	Insights        []Insight       `json:"insights"`
	Filter          AnalyticsFilter `json:"filtersApplied"`
	GeneratedAt     time.Time       `json:"generatedAt"`
}

// SurveyShare is one survey's slice of the dashboard pie chart
type SurveyShare struct {
	SurveyID   string  `json:"surveyId"`
	Title      string  `json:"surveyTitle"`
	Responses  int     `json:"responses"`
	Possible   int     `json:"possible"`
	Percentage float64 `json:"percentage"`
}

// SectionCount is one section's bar in the dashboard bar chart
type SectionCount struct {
	SectionID     string `json:"sectionId"`
	Name          string `json:"sectionName"`
	Code          string `json:"sectionCode"`
	ResponseCount int    `json:"responseCount"`
}

// DashboardReport aggregates across all of a teacher's surveys
type DashboardReport struct {
	PieChart      []SurveyShare   `json:"pieChartData"`
	BarChart      []SectionCount  `json:"barChartData"`
	LineChart     []TimelinePoint `json:"lineChartData"`
	TotalSurveys  int             `json:"totalSurveys"`
	TotalSections int             `json:"totalSections"`
	GeneratedAt   time.Time       `json:"generatedAt"`
}
