package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"

	"classpulse/internal/model"
	"classpulse/internal/repository"
)

const noAnswer = "No Answer"

// ExportService renders analytics reports and raw responses as CSV.
type ExportService struct {
	analytics *AnalyticsService
	responses *ResponseService
}

// NewExportService creates a new export service
func NewExportService(analytics *AnalyticsService, responses *ResponseService) *ExportService {
	return &ExportService{analytics: analytics, responses: responses}
}

// AnalyticsRows builds the analytics export as CSV rows: a summary
// block, one block per question, then section and version blocks,
// separated by blank rows.
func (s *ExportService) AnalyticsRows(ctx context.Context, ownerID, surveyID string, filter model.AnalyticsFilter) ([][]string, error) {
	report, err := s.analytics.Report(ctx, ownerID, surveyID, filter)
	if err != nil {
		return nil, err
	}

	rows := [][]string{
		{"Survey Analytics", report.SurveyTitle},
		{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05")},
		{},
		{"Total Responses", strconv.Itoa(report.TotalResponses)},
		{"Total Questions", strconv.Itoa(report.TotalQuestions)},
		{"Responses Last 7 Days", strconv.Itoa(report.RecentResponses)},
	}

	for _, q := range report.Questions {
		rows = append(rows, []string{}, []string{"Question", q.Text}, []string{"Type", string(q.Type)})
		if len(q.Choices) > 0 {
			rows = append(rows, []string{"Value", "Count", "Percentage"})
			for _, c := range q.Choices {
				rows = append(rows, []string{c.Value, strconv.Itoa(c.Count), fmt.Sprintf("%.1f%%", c.Percentage)})
			}
		} else {
			rows = append(rows, []string{"Answers", strconv.Itoa(q.AnswerCount)})
			for _, text := range q.TextAnswers {
				rows = append(rows, []string{"", text})
			}
		}
	}

	if len(report.Sections) > 0 {
		rows = append(rows, []string{}, []string{"Section", "Code", "Students", "Responses", "Completion Rate"})
		for _, sec := range report.Sections {
			rows = append(rows, []string{
				sec.Name,
				sec.Code,
				strconv.Itoa(sec.TotalStudents),
				strconv.Itoa(sec.ResponsesReceived),
				fmt.Sprintf("%.1f%%", sec.CompletionRate),
			})
		}
	}

	rows = append(rows, []string{},
		[]string{"Current Version", strconv.Itoa(report.Versions.CurrentVersion)},
		[]string{"Current Responses", strconv.Itoa(report.Versions.CurrentResponses)},
		[]string{"Outdated Responses", strconv.Itoa(report.Versions.OutdatedResponses)},
	)
	return rows, nil
}

// ResponseRows builds the raw response export: one header row, then one
// wide row per response with a column per question. Questions no longer
// answerable still get their column so old responses stay readable;
// missing answers render as "No Answer".
func (s *ExportService) ResponseRows(ctx context.Context, ownerID, surveyID string, filter model.VersionFilter, q repository.ResponseQuery) ([][]string, error) {
	responses, survey, err := s.responses.ListForSurvey(ctx, ownerID, surveyID, filter, q)
	if err != nil {
		return nil, err
	}

	questions := make([]model.Question, len(survey.Questions))
	copy(questions, survey.Questions)
	sort.Slice(questions, func(i, j int) bool { return questions[i].Order < questions[j].Order })

	header := []string{"Student", "Section", "Version", "Current", "Submitted At"}
	for _, question := range questions {
		header = append(header, question.Text)
	}
	rows := [][]string{header}

	for _, r := range responses {
		current := "no"
		if r.IsCurrent(survey.Version) {
			current = "yes"
		}
		row := []string{
			r.StudentName,
			r.SectionID,
			strconv.Itoa(r.SurveyVersion),
			current,
			r.SubmittedAt.Format("2006-01-02 15:04:05"),
		}
		for _, question := range questions {
			if a := r.AnswerFor(question.ID); a != nil && a.Value() != "" {
				row = append(row, a.Value())
			} else {
				row = append(row, noAnswer)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Sheet is one named grid of an export workbook.
type Sheet struct {
	Name string     `json:"name"`
	Rows [][]string `json:"rows"`
}

// Workbook groups sheets for a spreadsheet sink. Cells arrive as final
// strings; file encoding is the consumer's job.
type Workbook struct {
	Sheets []Sheet `json:"sheets"`
}

// Workbook builds the two-sheet spreadsheet export: the analytics
// summary and the raw responses, under the same filter.
func (s *ExportService) Workbook(ctx context.Context, ownerID, surveyID string, filter model.AnalyticsFilter) (*Workbook, error) {
	analytics, err := s.AnalyticsRows(ctx, ownerID, surveyID, filter)
	if err != nil {
		return nil, err
	}
	version := filter.Version
	if version == "" {
		version = model.VersionFilterAll
	}
	responses, err := s.ResponseRows(ctx, ownerID, surveyID, version, repository.ResponseQuery{
		DateFrom:  filter.DateFrom,
		DateTo:    filter.DateTo,
		SectionID: filter.SectionID,
	})
	if err != nil {
		return nil, err
	}
	return &Workbook{Sheets: []Sheet{
		{Name: "Analytics", Rows: analytics},
		{Name: "Responses", Rows: responses},
	}}, nil
}

// RenderCSV serializes rows into RFC 4180 CSV bytes.
func RenderCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		// a fully blank separator row still needs one field to survive
		// the round trip through csv writers
		if len(row) == 0 {
			row = []string{""}
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
