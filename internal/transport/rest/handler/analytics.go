package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"classpulse/internal/model"
	"classpulse/internal/service"
	"classpulse/internal/transport/rest/middleware"
)

// AnalyticsHandler handles report and export endpoints
type AnalyticsHandler struct {
	analyticsSvc *service.AnalyticsService
	exportSvc    *service.ExportService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsSvc *service.AnalyticsService, exportSvc *service.ExportService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsSvc: analyticsSvc, exportSvc: exportSvc}
}

// Report handles GET /v1/surveys/{surveyId}/analytics
func (h *AnalyticsHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.analyticsSvc.Report(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["surveyId"], analyticsFilter(r))
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// Dashboard handles GET /v1/dashboard
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	report, err := h.analyticsSvc.Dashboard(r.Context(), middleware.GetUserID(r.Context()), analyticsFilter(r))
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// ExportAnalytics handles GET /v1/surveys/{surveyId}/analytics/export
func (h *AnalyticsHandler) ExportAnalytics(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]
	rows, err := h.exportSvc.AnalyticsRows(r.Context(), middleware.GetUserID(r.Context()), surveyID, analyticsFilter(r))
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeCSV(w, fmt.Sprintf("survey_%s_analytics.csv", surveyID), rows)
}

// ExportResponses handles GET /v1/surveys/{surveyId}/responses/export
func (h *AnalyticsHandler) ExportResponses(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]
	filter, q := responseFilters(r)
	rows, err := h.exportSvc.ResponseRows(r.Context(), middleware.GetUserID(r.Context()), surveyID, filter, q)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeCSV(w, fmt.Sprintf("survey_%s_responses.csv", surveyID), rows)
}

// ExportWorkbook handles GET /v1/surveys/{surveyId}/export
func (h *AnalyticsHandler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	workbook, err := h.exportSvc.Workbook(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["surveyId"], analyticsFilter(r))
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, workbook)
}

func writeCSV(w http.ResponseWriter, filename string, rows [][]string) {
	data, err := service.RenderCSV(rows)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// analyticsFilter parses the report query params
func analyticsFilter(r *http.Request) model.AnalyticsFilter {
	filter := model.AnalyticsFilter{
		SectionID:    r.URL.Query().Get("section"),
		QuestionType: model.QuestionType(r.URL.Query().Get("questionType")),
		Version:      model.VersionFilter(r.URL.Query().Get("version")),
	}
	if v := r.URL.Query().Get("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.DateFrom = &t
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			end := t.Add(24*time.Hour - time.Nanosecond)
			filter.DateTo = &end
		}
	}
	return filter
}
